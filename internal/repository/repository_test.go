package repository

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegistry(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

func TestLoadInstalled_ComposerV2(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeRegistry(t, fs, "/proj/vendor/composer/installed.json", `{
		"packages": [
			{"name": "a/b", "version": "1.2.0", "type": "library", "install-path": "../a/b"},
			{"name": "c/d", "version": "2.0.0", "install-path": "/opt/shared/c-d"},
			{"name": "meta/pack", "type": "metapackage", "install-path": null},
			{"name": "old/style", "version": "0.1.0"}
		],
		"dev": true
	}`)

	repo, err := LoadInstalled(fs, "/proj/vendor/composer/installed.json", "/proj/vendor")
	require.NoError(t, err)

	assert.Equal(t, []string{"a/b", "c/d", "meta/pack", "old/style"}, repo.Names())
	assert.Equal(t, 4, repo.Len())

	ab, ok := repo.Get("a/b")
	require.True(t, ok)
	assert.Equal(t, Package{Name: "a/b", Version: "1.2.0", Type: "library", InstallPath: "/proj/vendor/a/b"}, ab)

	cd, _ := repo.Get("c/d")
	assert.Equal(t, "/opt/shared/c-d", cd.InstallPath)

	old, _ := repo.Get("old/style")
	assert.Equal(t, filepath.Join("/proj/vendor", "old", "style"), old.InstallPath)

	meta, _ := repo.Get("meta/pack")
	_, err = repo.ResolveInstallPath(meta)
	assert.True(t, errors.Is(err, ErrNoInstallPath))
}

func TestLoadInstalled_ComposerV1(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeRegistry(t, fs, "/proj/vendor/composer/installed.json", `[
		{"name": "a/b", "version": "1.0.0"},
		{"name": "c/d", "version": "1.1.0"}
	]`)

	repo, err := LoadInstalled(fs, "/proj/vendor/composer/installed.json", "/proj/vendor")
	require.NoError(t, err)

	path, err := repo.ResolveInstallPath(Package{Name: "c/d"})
	require.NoError(t, err)
	assert.Equal(t, "/proj/vendor/c/d", path)
}

func TestLoadInstalled_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeRegistry(t, fs, "/bad/json.json", `{"packages": [`)
	writeRegistry(t, fs, "/bad/shape.json", `{"packages": {"a/b": {}}}`)
	writeRegistry(t, fs, "/bad/noname.json", `[{"version": "1.0.0"}]`)

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadInstalled(fs, "/nope/installed.json", "/nope")
		assert.True(t, errors.Is(err, ErrRegistryNotFound))
	})

	for _, path := range []string{"/bad/json.json", "/bad/shape.json", "/bad/noname.json"} {
		t.Run(path, func(t *testing.T) {
			_, err := LoadInstalled(fs, path, "/vendor")
			var regErr *RegistryError
			require.ErrorAs(t, err, &regErr)
			assert.Equal(t, path, regErr.Path)
		})
	}
}

func TestResolveInstallPath_PrefersPackageField(t *testing.T) {
	repo := New(Package{Name: "a/b", InstallPath: "/registry/a/b"})

	path, err := repo.ResolveInstallPath(Package{Name: "a/b", InstallPath: "/explicit/a/b"})
	require.NoError(t, err)
	assert.Equal(t, "/explicit/a/b", path)

	path, err = repo.ResolveInstallPath(Package{Name: "a/b"})
	require.NoError(t, err)
	assert.Equal(t, "/registry/a/b", path)

	_, err = repo.ResolveInstallPath(Package{Name: "x/y"})
	assert.True(t, errors.Is(err, ErrNoInstallPath))
}

func TestNew_DropsDuplicateNames(t *testing.T) {
	repo := New(
		Package{Name: "a/b", Version: "1"},
		Package{Name: "a/b", Version: "2"},
	)
	pkg, _ := repo.Get("a/b")
	assert.Equal(t, "1", pkg.Version)
	assert.Equal(t, 1, repo.Len())
}
