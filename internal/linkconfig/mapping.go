package linkconfig

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danieljhkim/pkglink/internal/fsops"
)

// mapping is the raw shape a package entry was declared with.
type mapping interface {
	normalize(name string, global Options) (*PackageConfig, error)
}

// simpleMapping is the string form: the value is the destination directory.
type simpleMapping struct {
	dir string
}

// detailedMapping is the mapping form with dir, files and options.
type detailedMapping struct {
	dir     any
	files   any
	options any
	hasDir  bool
}

func classify(value any) (mapping, error) {
	switch v := value.(type) {
	case string:
		return simpleMapping{dir: v}, nil
	default:
		m, ok := asMap(value)
		if !ok {
			return nil, fmt.Errorf("expected a string or a mapping, got %s", describe(value))
		}
		dir, hasDir := m["dir"]
		return detailedMapping{
			dir:     dir,
			hasDir:  hasDir,
			files:   m["files"],
			options: m["options"],
		}, nil
	}
}

func (s simpleMapping) normalize(name string, global Options) (*PackageConfig, error) {
	dir, err := normalizeDir(s.dir)
	if err != nil {
		return nil, err
	}
	return &PackageConfig{Name: name, Dir: dir, Options: global}, nil
}

func (d detailedMapping) normalize(name string, global Options) (*PackageConfig, error) {
	if !d.hasDir {
		return nil, errors.New(`missing required "dir" key`)
	}
	dirStr, ok := d.dir.(string)
	if !ok {
		return nil, fmt.Errorf(`"dir" must be a string, got %s`, describe(d.dir))
	}
	dir, err := normalizeDir(dirStr)
	if err != nil {
		return nil, err
	}

	files, err := parseFiles(d.files)
	if err != nil {
		return nil, err
	}

	opts := global
	if d.options != nil {
		optsMap, ok := asMap(d.options)
		if !ok {
			return nil, fmt.Errorf(`"options" must be a mapping, got %s`, describe(d.options))
		}
		if opts, err = mergeOptions(global, optsMap); err != nil {
			return nil, err
		}
	}

	return &PackageConfig{Name: name, Dir: dir, Files: files, Options: opts}, nil
}

// normalizeDir cleans a destination directory. Relative directories must
// stay inside the project root without being the root itself; absolute
// directories stay absolute but may not be the filesystem root.
func normalizeDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New(`"dir" must not be empty`)
	}
	if filepath.IsAbs(dir) {
		cleaned := filepath.Clean(dir)
		if filepath.Dir(cleaned) == cleaned {
			return "", fmt.Errorf(`"dir" %q is the filesystem root`, dir)
		}
		return cleaned, nil
	}
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(dir)))
	if cleaned == "." {
		return "", fmt.Errorf(`"dir" %q resolves to the project root`, dir)
	}
	if err := fsops.ValidateRelPath(cleaned); err != nil {
		return "", fmt.Errorf(`"dir": %w`, err)
	}
	return cleaned, nil
}

// normalizeFilePath strips leading "./", "/" and "\" from a mapped path and
// rejects paths that climb out of their base directory.
func normalizeFilePath(p string) (string, error) {
	trimmed := p
	for {
		switch {
		case strings.HasPrefix(trimmed, "./"):
			trimmed = trimmed[2:]
		case strings.HasPrefix(trimmed, "/"), strings.HasPrefix(trimmed, `\`):
			trimmed = trimmed[1:]
		default:
			if trimmed == "" || trimmed == "." {
				return "", fmt.Errorf("file path %q is empty after normalization", p)
			}
			if err := fsops.ValidateRelPath(trimmed); err != nil {
				return "", err
			}
			return trimmed, nil
		}
	}
}

// fileSet accumulates mappings, deduplicating sources and destinations while
// keeping first-seen order.
type fileSet struct {
	order []string
	dests map[string][]string
	seen  map[string]map[string]bool
}

func newFileSet() *fileSet {
	return &fileSet{
		dests: make(map[string][]string),
		seen:  make(map[string]map[string]bool),
	}
}

func (f *fileSet) add(source string, destinations []string) error {
	src, err := normalizeFilePath(source)
	if err != nil {
		return err
	}
	if _, ok := f.seen[src]; !ok {
		f.order = append(f.order, src)
		f.seen[src] = make(map[string]bool)
	}
	for _, d := range destinations {
		dst, err := normalizeFilePath(d)
		if err != nil {
			return err
		}
		if f.seen[src][dst] {
			continue
		}
		f.seen[src][dst] = true
		f.dests[src] = append(f.dests[src], dst)
	}
	return nil
}

func (f *fileSet) mappings() []FileMapping {
	out := make([]FileMapping, 0, len(f.order))
	for _, src := range f.order {
		out = append(out, FileMapping{Source: src, Destinations: f.dests[src]})
	}
	return out
}

// parseFiles accepts a list of paths (items may also be single-key mappings)
// or a mapping of source to destinations.
func parseFiles(raw any) ([]FileMapping, error) {
	if raw == nil {
		return nil, nil
	}

	set := newFileSet()

	if m, ok := asMap(raw); ok {
		// Decoded objects lose their key order, so sources are sorted to
		// keep plans deterministic.
		sources := make([]string, 0, len(m))
		for src := range m {
			sources = append(sources, src)
		}
		sort.Strings(sources)
		for _, src := range sources {
			dests, err := asDestinations(src, m[src])
			if err != nil {
				return nil, err
			}
			if err := set.add(src, dests); err != nil {
				return nil, err
			}
		}
		return set.mappings(), nil
	}

	items, ok := asList(raw)
	if !ok {
		return nil, fmt.Errorf(`"files" must be a list or a mapping, got %s`, describe(raw))
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			if err := set.add(s, []string{s}); err != nil {
				return nil, err
			}
			continue
		}
		m, ok := asMap(item)
		if !ok {
			return nil, fmt.Errorf("file entry must be a string or a mapping, got %s", describe(item))
		}
		sources := make([]string, 0, len(m))
		for src := range m {
			sources = append(sources, src)
		}
		sort.Strings(sources)
		for _, src := range sources {
			dests, err := asDestinations(src, m[src])
			if err != nil {
				return nil, err
			}
			if err := set.add(src, dests); err != nil {
				return nil, err
			}
		}
	}
	return set.mappings(), nil
}

func asDestinations(source string, raw any) ([]string, error) {
	if s, ok := raw.(string); ok {
		return []string{s}, nil
	}
	items, ok := asList(raw)
	if !ok {
		return nil, fmt.Errorf("destinations of %q must be a string or a list of strings, got %s", source, describe(raw))
	}
	dests := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("destinations of %q must be strings, got %s", source, describe(item))
		}
		dests = append(dests, s)
	}
	if len(dests) == 0 {
		return nil, fmt.Errorf("source %q has no destinations", source)
	}
	return dests, nil
}

// mergeOptions overlays the recognized keys of raw onto base.
func mergeOptions(base Options, raw map[string]any) (Options, error) {
	merged := base
	for key, value := range raw {
		var target *bool
		switch key {
		case OptionCopy:
			target = &merged.Copy
		case OptionDeleteOrphans:
			target = &merged.DeleteOrphans
		default:
			continue
		}
		b, ok := value.(bool)
		if !ok {
			return Options{}, fmt.Errorf("option %q must be a bool, got %s", key, describe(value))
		}
		*target = b
	}
	return merged, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, float64:
		return "number"
	}
	if _, ok := asMap(v); ok {
		return "mapping"
	}
	if _, ok := asList(v); ok {
		return "list"
	}
	return fmt.Sprintf("%T", v)
}
