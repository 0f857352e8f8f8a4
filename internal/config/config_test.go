package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func clearOptionEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{ManifestEnv, CopyEnv, DeleteOrphansEnv} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestDefaultPaths(t *testing.T) {
	root := t.TempDir()

	paths, err := DefaultPaths(root)
	require.NoError(t, err)

	assert.Equal(t, root, paths.Root)
	assert.Equal(t, filepath.Join(root, "composer.json"), paths.Manifest)
	assert.Equal(t, filepath.Join(root, "vendor"), paths.VendorDir)
	assert.Equal(t, filepath.Join(root, "vendor", "composer", "installed.json"), paths.Registry)
	assert.Equal(t, filepath.Join(root, ".env"), paths.DotEnv)

	paths.SetVendorDir("lib/deps")
	assert.Equal(t, filepath.Join(root, "lib", "deps"), paths.VendorDir)
	assert.Equal(t, filepath.Join(root, "lib", "deps", "composer", "installed.json"), paths.Registry)

	paths.SetVendorDir("/opt/vendor")
	assert.Equal(t, "/opt/vendor", paths.VendorDir)
}

func TestDefaultPaths_CurrentDirectory(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	paths, err := DefaultPaths("")
	require.NoError(t, err)
	assert.Equal(t, wd, paths.Root)
}

func TestLocateManifest(t *testing.T) {
	clearOptionEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "composer.json"), `{}`)
	writeFile(t, filepath.Join(root, "alt", "manifest.yaml"), `extra: {}`)
	writeFile(t, filepath.Join(root, "env.json"), `{}`)

	t.Run("root default", func(t *testing.T) {
		loc, err := LocateManifest("", root)
		require.NoError(t, err)
		assert.Equal(t, LocationResult{Path: filepath.Join(root, "composer.json"), Source: ManifestSourceRoot}, loc)
	})

	t.Run("explicit relative path", func(t *testing.T) {
		loc, err := LocateManifest("alt/manifest.yaml", root)
		require.NoError(t, err)
		assert.Equal(t, ManifestSourceExplicit, loc.Source)
		assert.Equal(t, filepath.Join(root, "alt", "manifest.yaml"), loc.Path)
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := LocateManifest("missing.json", root)
		assert.True(t, errors.Is(err, ErrManifestNotFound))
	})

	t.Run("environment beats the default", func(t *testing.T) {
		t.Setenv(ManifestEnv, "env.json")
		loc, err := LocateManifest("", root)
		require.NoError(t, err)
		assert.Equal(t, ManifestSourceEnv, loc.Source)
		assert.Equal(t, filepath.Join(root, "env.json"), loc.Path)
	})

	t.Run("explicit beats the environment", func(t *testing.T) {
		t.Setenv(ManifestEnv, "env.json")
		loc, err := LocateManifest("alt/manifest.yaml", root)
		require.NoError(t, err)
		assert.Equal(t, ManifestSourceExplicit, loc.Source)
	})

	t.Run("nothing found", func(t *testing.T) {
		_, err := LocateManifest("", t.TempDir())
		assert.True(t, errors.Is(err, ErrManifestNotFound))
	})
}

func TestLoadManifest_JSONC(t *testing.T) {
	clearOptionEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "composer.json"), `{
		// comments are allowed
		"name": "acme/site",
		"config": {"vendor-dir": "deps"},
		"extra": {
			"pkglink": {
				"links": {
					"a/b": "public/ab",
					"dotted.name/pkg": {"dir": "public/dotted", "files": ["x.txt",]},
				},
				"options": {"copy": true}
			}
		}
	}`)

	paths, err := DefaultPaths(root)
	require.NoError(t, err)

	m, err := LoadManifest(paths, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "composer.json"), paths.Manifest)
	assert.Equal(t, filepath.Join(root, "deps"), paths.VendorDir)
	assert.Equal(t, filepath.Join(root, "deps", "composer", "installed.json"), paths.Registry)

	links, ok := m.Section["links"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "public/ab", links["a/b"])
	assert.Contains(t, links, "dotted.name/pkg")
	assert.Equal(t, map[string]interface{}{"copy": true}, m.Section["options"])
	assert.Empty(t, m.Overrides)
}

func TestLoadManifest_YAMLAndTOML(t *testing.T) {
	clearOptionEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "pkglink.yaml"), `
extra:
  pkglink:
    links:
      a/b: public/ab
`)
	writeFile(t, filepath.Join(root, "pkglink.toml"), `
[extra.pkglink.links]
"a/b" = "public/ab"
`)

	for _, name := range []string{"pkglink.yaml", "pkglink.toml"} {
		t.Run(name, func(t *testing.T) {
			paths, err := DefaultPaths(root)
			require.NoError(t, err)

			m, err := LoadManifest(paths, name)
			require.NoError(t, err)

			links, ok := m.Section["links"].(map[string]interface{})
			require.True(t, ok, "links = %#v", m.Section["links"])
			assert.Equal(t, "public/ab", links["a/b"])
			assert.Equal(t, filepath.Join(root, "vendor"), paths.VendorDir)
		})
	}
}

func TestLoadManifest_NoSection(t *testing.T) {
	clearOptionEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "composer.json"), `{"name": "acme/site"}`)

	paths, err := DefaultPaths(root)
	require.NoError(t, err)

	m, err := LoadManifest(paths, "")
	require.NoError(t, err)
	assert.Nil(t, m.Section)
}

func TestLoadManifest_Errors(t *testing.T) {
	clearOptionEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.json"), `{"extra": `)
	writeFile(t, filepath.Join(root, "scalar.json"), `{"extra": {"pkglink": "nope"}}`)
	writeFile(t, filepath.Join(root, "manifest.ini"), `[x]`)

	for _, name := range []string{"broken.json", "scalar.json", "manifest.ini"} {
		t.Run(name, func(t *testing.T) {
			paths, err := DefaultPaths(root)
			require.NoError(t, err)

			_, err = LoadManifest(paths, name)
			var manifestErr *ManifestError
			require.ErrorAs(t, err, &manifestErr)
			assert.Equal(t, filepath.Join(root, name), manifestErr.Path)
		})
	}
}

func TestLoadManifest_OptionOverrides(t *testing.T) {
	clearOptionEnv(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "composer.json"), `{
		"extra": {"pkglink": {"links": {"a/b": "out"}, "options": {"copy": false, "deleteOrphans": false}}}
	}`)
	writeFile(t, filepath.Join(root, ".env"), "PKGLINK_COPY=true\nPKGLINK_DELETE_ORPHANS=1\nOTHER=x\n")

	load := func(t *testing.T) *Manifest {
		t.Helper()
		paths, err := DefaultPaths(root)
		require.NoError(t, err)
		m, err := LoadManifest(paths, "")
		require.NoError(t, err)
		return m
	}

	t.Run(".env overrides the manifest", func(t *testing.T) {
		m := load(t)
		assert.Equal(t, map[string]bool{"copy": true, "deleteOrphans": true}, m.Overrides)
		assert.Equal(t, map[string]interface{}{"copy": true, "deleteOrphans": true}, m.Section["options"])
	})

	t.Run("environment overrides .env", func(t *testing.T) {
		t.Setenv(CopyEnv, "false")
		m := load(t)
		assert.Equal(t, map[string]interface{}{"copy": false, "deleteOrphans": true}, m.Section["options"])
	})

	t.Run("invalid boolean", func(t *testing.T) {
		t.Setenv(DeleteOrphansEnv, "sometimes")
		paths, err := DefaultPaths(root)
		require.NoError(t, err)

		_, err = LoadManifest(paths, "")
		var manifestErr *ManifestError
		require.ErrorAs(t, err, &manifestErr)
		assert.Contains(t, err.Error(), DeleteOrphansEnv)
	})
}

func TestJSONCParser(t *testing.T) {
	p := JSONCParser()

	out, err := p.Unmarshal([]byte(`{/* block */ "a": [1, 2,], // line
	"b": {"c": "d"}}`))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1.0, 2.0}, out["a"])

	data, err := p.Marshal(map[string]interface{}{"x": true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x": true}`, string(data))
}
