package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPathValidator(t *testing.T) {
	_, err := NewPathValidator("")
	assert.Error(t, err)

	v, err := NewPathValidator("relative/dir")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(v.Root()))
}

func TestPathValidator_Resolve(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "papers"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "papers", "a.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "escape")))

	v, err := NewPathValidator(root)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		want    string
		outside bool
		wantErr bool
	}{
		{name: "absolute inside", path: filepath.Join(root, "papers", "a.pdf"), want: filepath.Join(root, "papers", "a.pdf")},
		{name: "relative inside", path: "papers/a.pdf", want: filepath.Join(root, "papers", "a.pdf")},
		{name: "missing file inside", path: "papers/new.pdf", want: filepath.Join(root, "papers", "new.pdf")},
		{name: "root itself", path: root, want: root},
		{name: "dot dot", path: "../x.pdf", outside: true},
		{name: "absolute outside", path: filepath.Join(outside, "secret.pdf"), outside: true},
		{name: "prefix sibling", path: root + "-other/x.pdf", outside: true},
		{name: "symlink escape", path: "escape/secret.pdf", outside: true},
		{name: "empty", path: "", wantErr: true},
		{name: "null bytes only", path: "\x00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Resolve(tt.path)
			switch {
			case tt.outside:
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrOutsideRoot))
			case tt.wantErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPathValidator_ResolveDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.pdf"), []byte("%PDF"), 0o644))

	v, err := NewPathValidator(root)
	require.NoError(t, err)

	dir, err := v.ResolveDirectory("")
	require.NoError(t, err)
	assert.Equal(t, v.Root(), dir)

	dir, err = v.ResolveDirectory("sub")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sub"), dir)

	_, err = v.ResolveDirectory("file.pdf")
	assert.Error(t, err)

	_, err = v.ResolveDirectory("..")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestPathValidator_MissingRootAcceptsAll(t *testing.T) {
	v, err := NewPathValidator(filepath.Join(t.TempDir(), "not-yet"))
	require.NoError(t, err)

	got, err := v.Resolve("/etc/hosts")
	require.NoError(t, err)
	assert.Equal(t, "/etc/hosts", got)
}
