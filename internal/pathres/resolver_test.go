package pathres

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAbsoluteFrom(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		root     string
		want     string
	}{
		{
			name:     "dot-prefixed relative dir",
			fragment: "./relative/dir",
			root:     "/root/dir",
			want:     "/root/dir/relative/dir",
		},
		{
			name:     "parent-prefixed relative dir",
			fragment: "../relative/dir",
			root:     "/root/dir",
			want:     "/root/relative/dir",
		},
		{
			name:     "plain relative dir",
			fragment: "relative/dir",
			root:     "/root/dir",
			want:     "/root/dir/relative/dir",
		},
		{
			name:     "redundant segments",
			fragment: "a/./b/../c",
			root:     "/root/dir",
			want:     "/root/dir/a/c",
		},
		{
			name:     "absolute fragment is unchanged",
			fragment: "/x/y",
			root:     "/root/dir",
			want:     "/x/y",
		},
		{
			name:     "absolute fragment ignores any root",
			fragment: "/x/y",
			root:     "/somewhere/else",
			want:     "/x/y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToAbsoluteFrom(tt.fragment, tt.root))
		})
	}
}

func TestNew_UsesWorkingDirectory(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	r, err := New()
	require.NoError(t, err)

	assert.Equal(t, filepath.Clean(wd), r.Root())
	assert.Equal(t, filepath.Join(wd, "public"), r.ToAbsolute("public"))
}

func TestSetRoot(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	t.Run("valid directory", func(t *testing.T) {
		r, err := NewWithRoot(tmpDir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(tmpDir, "out"), r.ToAbsolute("./out"))
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := NewWithRoot(filepath.Join(tmpDir, "missing"))
		var rootErr *InvalidRootError
		require.ErrorAs(t, err, &rootErr)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("file is not a directory", func(t *testing.T) {
		_, err := NewWithRoot(file)
		var rootErr *InvalidRootError
		require.ErrorAs(t, err, &rootErr)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("failed SetRoot keeps previous root", func(t *testing.T) {
		r, err := NewWithRoot(tmpDir)
		require.NoError(t, err)

		require.Error(t, r.SetRoot(file))
		assert.Equal(t, tmpDir, r.Root())
	})
}

func TestRelAndDisplay(t *testing.T) {
	tmpDir := t.TempDir()
	r, err := NewWithRoot(tmpDir)
	require.NoError(t, err)

	rel, err := r.Rel(filepath.Join(tmpDir, "public", "ab"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("public", "ab"), rel)

	_, err = r.Rel("../outside")
	assert.Error(t, err)

	assert.Equal(t, filepath.Join("public", "ab"), r.Display("public/ab"))
	assert.Equal(t, "/elsewhere/x", r.Display("/elsewhere/x"))
}

func TestWithin(t *testing.T) {
	tests := []struct {
		path string
		base string
		want bool
	}{
		{"/proj/public", "/proj/public", true},
		{"/proj/public/a/b", "/proj/public", true},
		{"/proj/public-other", "/proj/public", false},
		{"/proj", "/proj/public", false},
		{"/proj/public/../x", "/proj/public", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Within(tt.path, tt.base), "Within(%q, %q)", tt.path, tt.base)
	}
}
