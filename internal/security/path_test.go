package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPathValidator(t *testing.T) {
	v, err := NewPathValidator("/drawings")
	require.NoError(t, err)
	assert.Equal(t, "/drawings", v.DrawingDirectory())

	_, err = NewPathValidator("")
	assert.Error(t, err)
}

func TestValidatePathInside(t *testing.T) {
	root := t.TempDir()
	v, err := NewPathValidator(root)
	require.NoError(t, err)

	assert.NoError(t, v.ValidatePath(filepath.Join(root, "plan.dxf")))
	assert.NoError(t, v.ValidatePath(filepath.Join(root, "sub", "deep", "plan.dxf")))
	assert.NoError(t, v.ValidatePath(root))
}

func TestValidatePathOutside(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	v, err := NewPathValidator(root)
	require.NoError(t, err)

	assert.Error(t, v.ValidatePath(filepath.Join(other, "plan.dxf")))
	assert.Error(t, v.ValidatePath(filepath.Join(root, "..", "escape.dxf")))
	assert.Error(t, v.ValidatePath(""))
}

func TestValidatePathSiblingPrefix(t *testing.T) {
	// A sibling directory sharing the root's name as a prefix must not
	// pass the containment check.
	parent := t.TempDir()
	root := filepath.Join(parent, "drawings")
	require.NoError(t, os.Mkdir(root, 0o750))
	sibling := filepath.Join(parent, "drawings-other")
	require.NoError(t, os.Mkdir(sibling, 0o750))

	v, err := NewPathValidator(root)
	require.NoError(t, err)
	assert.Error(t, v.ValidatePath(filepath.Join(sibling, "plan.dxf")))
}

func TestValidatePathMissingRootSkipsCheck(t *testing.T) {
	v, err := NewPathValidator(filepath.Join(t.TempDir(), "not-created-yet"))
	require.NoError(t, err)

	assert.NoError(t, v.ValidatePath("/anywhere/plan.dxf"))
}

func TestValidatePathSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.dxf")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o600))

	link := filepath.Join(root, "link.dxf")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	v, err := NewPathValidator(root)
	require.NoError(t, err)
	assert.Error(t, v.ValidatePath(link), "symlink resolving outside the root must be rejected")
}

func TestValidateDirectory(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "batch")
	require.NoError(t, os.Mkdir(sub, 0o750))
	file := filepath.Join(root, "plan.dxf")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	v, err := NewPathValidator(root)
	require.NoError(t, err)

	assert.NoError(t, v.ValidateDirectory(sub))
	assert.NoError(t, v.ValidateDirectory(filepath.Join(root, "missing")), "nonexistent target inside the root is allowed")
	assert.Error(t, v.ValidateDirectory(file), "regular file is not a directory")
}

func TestNormalizePath(t *testing.T) {
	root := t.TempDir()
	v, err := NewPathValidator(root)
	require.NoError(t, err)

	got, err := v.NormalizePath("plan.dxf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "plan.dxf"), got)

	abs := filepath.Join(root, "sub", "plan.dxf")
	got, err = v.NormalizePath(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	got, err = v.NormalizePath("sub/\x00plan.dxf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "sub", "plan.dxf"), got, "NUL bytes are stripped")

	_, err = v.NormalizePath("../escape.dxf")
	assert.Error(t, err)

	_, err = v.NormalizePath("")
	assert.Error(t, err)
}
