package fsops

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateRelPath checks that relPath stays below the directory it will be
// joined onto. It must be relative, non-empty, and must not climb out with
// ".." once cleaned.
func ValidateRelPath(relPath string) error {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))

	if cleaned == "" || cleaned == "." {
		return fmt.Errorf("invalid path %q: empty or current directory", relPath)
	}

	if filepath.IsAbs(cleaned) {
		return fmt.Errorf("invalid path %q: must be relative", relPath)
	}

	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("invalid path %q: path traversal not allowed", relPath)
	}

	return nil
}
