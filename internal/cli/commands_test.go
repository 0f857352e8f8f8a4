package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testProject is a project root with an installed vendor directory.
type testProject struct {
	root string
}

// newTestProject creates a project whose manifest carries section as its
// pkglink configuration. acme/widgets and acme/gears are installed.
func newTestProject(t *testing.T, section string) *testProject {
	t.Helper()
	t.Setenv("PKGLINK_MANIFEST", "")
	t.Setenv("PKGLINK_COPY", "")
	t.Setenv("PKGLINK_DELETE_ORPHANS", "")
	for _, name := range []string{"PKGLINK_MANIFEST", "PKGLINK_COPY", "PKGLINK_DELETE_ORPHANS"} {
		require.NoError(t, os.Unsetenv(name))
	}

	p := &testProject{root: t.TempDir()}
	p.write(t, "composer.json", `{"name": "acme/site", "extra": {"pkglink": `+section+`}}`)
	p.write(t, "vendor/composer/installed.json", `{"packages": [
		{"name": "acme/widgets", "version": "1.0.0", "install-path": "../acme/widgets"},
		{"name": "acme/gears", "version": "2.1.0", "install-path": "../acme/gears"}
	]}`)
	p.write(t, "vendor/acme/widgets/README.md", "widgets")
	p.write(t, "vendor/acme/widgets/assets/app.js", "js")
	p.write(t, "vendor/acme/widgets/assets/app.css", "css")
	p.write(t, "vendor/acme/gears/LICENSE", "MIT")
	return p
}

func (p *testProject) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(p.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func (p *testProject) path(rel string) string {
	return filepath.Join(p.root, filepath.FromSlash(rel))
}

func (p *testProject) run(t *testing.T, stdin string, args ...string) (int, string) {
	t.Helper()
	return run(t, stdin, append([]string{"--working-dir", p.root}, args...)...)
}

func (p *testProject) assertMissing(t *testing.T, rel string) {
	t.Helper()
	_, err := os.Lstat(p.path(rel))
	assert.True(t, os.IsNotExist(err), "expected %s to be absent", rel)
}

func TestLinkCommand_WholeDirectorySymlink(t *testing.T) {
	p := newTestProject(t, `{"links": {"acme/widgets": "public/widgets"}}`)

	code, output := p.run(t, "", "link")
	require.Equal(t, 0, code, output)
	assert.Contains(t, output, "Linked acme/widgets")
	assert.True(t, strings.HasSuffix(output, "Process completed\n"), output)

	target, err := os.Readlink(p.path("public/widgets"))
	require.NoError(t, err)
	assert.Equal(t, p.path("vendor/acme/widgets"), target)

	// acme/gears has no mapping and is left alone.
	p.assertMissing(t, "public/gears")
}

func TestLinkCommand_UnresolvableName(t *testing.T) {
	p := newTestProject(t, `{"links": {"acme/widgets": "public/widgets"}}`)

	code, output := p.run(t, "", "link", "acme/widgets", "nope/missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, output, "Error: failed to find package nope/missing")
	assert.Contains(t, output, "Process completed with errors")

	// Resolution failed before anything ran.
	p.assertMissing(t, "public/widgets")
}

func TestLinkCommand_NamedPackageWithoutConfig(t *testing.T) {
	p := newTestProject(t, `{"links": {"acme/widgets": "public/widgets"}}`)

	code, output := p.run(t, "", "link", "acme/gears", "acme/widgets")
	assert.Equal(t, 1, code)
	assert.Contains(t, output, "Error: failed to link package acme/gears: no link configuration found")
	assert.Contains(t, output, "Process completed with errors")

	// The failure does not stop the other name.
	_, err := os.Lstat(p.path("public/widgets"))
	assert.NoError(t, err)
}

func TestLinkCommand_BatchIsolation(t *testing.T) {
	p := newTestProject(t, `{"links": {
		"acme/widgets": {"files": ["README.md"]},
		"acme/gears": "public/gears"
	}}`)

	code, output := p.run(t, "", "link")
	assert.Equal(t, 1, code)
	assert.Contains(t, output, "Error: failed to link package acme/widgets: invalid link configuration for package acme/widgets")
	assert.Equal(t, 1, strings.Count(output, "Error:"), output)

	_, err := os.Lstat(p.path("public/gears"))
	assert.NoError(t, err)
}

func TestLinkCommand_FileMappingCopyAndUnlink(t *testing.T) {
	p := newTestProject(t, `{"links": {
		"acme/widgets": {
			"dir": "web/static",
			"files": {"assets/app.js": ["js/app.js", "js/legacy/app.js"], "README.md": "docs/README.md"},
			"options": {"copy": true, "deleteOrphans": true}
		}
	}}`)
	p.write(t, "web/static/js/custom.js", "mine")

	code, output := p.run(t, "", "link", "acme/w*")
	require.Equal(t, 0, code, output)

	for _, rel := range []string{"web/static/js/app.js", "web/static/js/legacy/app.js"} {
		data, err := os.ReadFile(p.path(rel))
		require.NoError(t, err)
		assert.Equal(t, "js", string(data))
	}

	code, output = p.run(t, "", "unlink", "widgets")
	require.Equal(t, 0, code, output)
	assert.Contains(t, output, "Unlinked acme/widgets")

	p.assertMissing(t, "web/static/js/app.js")
	p.assertMissing(t, "web/static/js/legacy")
	p.assertMissing(t, "web/static/docs")

	// A directory holding a file pkglink did not create survives.
	data, err := os.ReadFile(p.path("web/static/js/custom.js"))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestLinkCommand_DryRun(t *testing.T) {
	p := newTestProject(t, `{"links": {"acme/widgets": "public/widgets"}}`)

	code, output := p.run(t, "", "link", "--dry-run")
	require.Equal(t, 0, code, output)
	assert.Contains(t, output, "Would link acme/widgets:")
	assert.Contains(t, output, "symlink: "+p.path("public/widgets")+" -> "+p.path("vendor/acme/widgets"))

	p.assertMissing(t, "public")
}

func TestUnlinkCommand_UninstalledPackage(t *testing.T) {
	p := newTestProject(t, `{"links": {"acme/widgets": "public/widgets", "acme/removed": "public/removed"}}`)
	require.NoError(t, os.MkdirAll(p.path("public"), 0755))
	require.NoError(t, os.Symlink(p.path("vendor/acme/removed"), p.path("public/removed")))

	code, output := p.run(t, "", "unlink", "acme/removed")
	require.Equal(t, 0, code, output)
	p.assertMissing(t, "public/removed")
}

func TestStatusCommand_JSON(t *testing.T) {
	p := newTestProject(t, `{"links": {
		"acme/widgets": {"dir": "public", "files": ["README.md", "assets/app.js"], "options": {"copy": true}},
		"acme/gears": "gears"
	}}`)

	code, output := p.run(t, "", "link", "acme/widgets")
	require.Equal(t, 0, code, output)
	p.write(t, "public/README.md", "edited")

	var out strings.Builder
	code = Run([]string{"--working-dir", p.root, "status", "--json"}, strings.NewReader(""), &out, &out)
	require.Equal(t, 0, code, out.String())

	var statuses []packageStatus
	require.NoError(t, json.Unmarshal([]byte(out.String()), &statuses), out.String())
	require.Len(t, statuses, 2)

	assert.Equal(t, "acme/gears", statuses[0].Package)
	assert.Equal(t, "symlink", statuses[0].Mode)
	require.Len(t, statuses[0].Entries, 1)
	assert.Equal(t, "missing", statuses[0].Entries[0].State)

	assert.Equal(t, "acme/widgets", statuses[1].Package)
	assert.Equal(t, "copy", statuses[1].Mode)
	assert.Equal(t, "public", statuses[1].Dir)
	states := map[string]string{}
	for _, entry := range statuses[1].Entries {
		states[filepath.Base(entry.Dest)] = entry.State
	}
	assert.Equal(t, map[string]string{"README.md": "modified", "app.js": "copied"}, states)
}

func TestStatusCommand_Table(t *testing.T) {
	p := newTestProject(t, `{"links": {"acme/widgets": "public/widgets"}}`)

	code, output := p.run(t, "", "status")
	require.Equal(t, 0, code, output)
	assert.Contains(t, output, "▸ acme/widgets")
	assert.Contains(t, output, "missing")
	assert.Contains(t, output, "public/widgets")

	code, output = p.run(t, "", "status", "--json", "--yaml")
	assert.Equal(t, 1, code)
	assert.Contains(t, output, "mutually exclusive")
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p := newTestProject(t, `{"links": {"acme/widgets": "public/widgets", "acme/other": "public/other"}}`)
		code, output := p.run(t, "", "validate")
		require.Equal(t, 0, code, output)
		assert.Contains(t, output, "2 packages configured")
		assert.Contains(t, output, "acme/other is configured but not installed")
	})

	t.Run("overlap and invalid entry", func(t *testing.T) {
		p := newTestProject(t, `{"links": {
			"acme/widgets": "public",
			"acme/gears": "public/gears",
			"acme/broken": {"dir": ""}
		}}`)
		code, output := p.run(t, "", "validate")
		assert.Equal(t, 1, code)
		assert.Contains(t, output, "invalid link configuration for package acme/broken")
		assert.Contains(t, output, "overlaps")
		assert.Contains(t, output, "Process completed with errors")
	})
}

func TestEnvironmentFailure(t *testing.T) {
	p := newTestProject(t, `{"links": {}}`)
	require.NoError(t, os.Remove(p.path("composer.json")))

	code, output := p.run(t, "", "link")
	assert.Equal(t, 1, code)
	assert.Contains(t, output, "Error: manifest not found")
	assert.Contains(t, output, "Process completed with errors")

	p.write(t, "composer.json", `{"extra": {"pkglink": {"options": {}}}}`)
	code, output = p.run(t, "", "link")
	assert.Equal(t, 1, code)
	assert.Contains(t, output, "failed to load link configuration")
}

func TestHookCommand(t *testing.T) {
	p := newTestProject(t, `{"links": {
		"acme/widgets": "public/widgets",
		"acme/gears": {"files": ["LICENSE"]}
	}}`)

	stdin := strings.Join([]string{
		`{"operation": "install", "package": "acme/widgets"}`,
		`{"operation": "install", "package": "acme/gears"}`,
		`{"operation": "install", "package": "other/thing"}`,
	}, "\n")

	code, output := p.run(t, stdin, "hook")
	assert.Equal(t, 0, code, "hook never fails the host run")
	assert.Contains(t, output, "Error: failed to link package acme/gears")
	assert.Contains(t, output, "Process completed with errors")

	_, err := os.Lstat(p.path("public/widgets"))
	require.NoError(t, err)

	code, output = p.run(t, `{"operation": "uninstall", "package": {"name": "acme/widgets"}}`, "hook")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasSuffix(output, "Process completed\n"), output)
	p.assertMissing(t, "public/widgets")
}

func TestHookCommand_BadInput(t *testing.T) {
	p := newTestProject(t, `{"links": {}}`)

	code, output := p.run(t, `{"operation": "explode", "package": "a/b"}`, "hook")
	assert.Equal(t, 0, code)
	assert.Contains(t, output, `Error: invalid event on line 1: unknown operation "explode"`)
}
