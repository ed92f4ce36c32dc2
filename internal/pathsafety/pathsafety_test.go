package pathsafety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsWithinAcceptsNestedPath(t *testing.T) {
	root := t.TempDir()
	child := filepath.Join(root, "series", "show.mkv")
	require.NoError(t, os.MkdirAll(filepath.Dir(child), 0o755))
	require.NoError(t, os.WriteFile(child, []byte("x"), 0o644))

	ok, err := IsWithin(child, root)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIsWithinRejectsEscapeViaDotDot(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(root, "..", "elsewhere")

	ok, err := IsWithin(outside, root)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIsWithinRejectsSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outsideDir := t.TempDir()
	outsideFile := filepath.Join(outsideDir, "secret.txt")
	require.NoError(t, os.WriteFile(outsideFile, []byte("x"), 0o644))

	link := filepath.Join(root, "escape")
	require.NoError(t, os.Symlink(outsideDir, link))

	ok, err := IsWithin(filepath.Join(link, "secret.txt"), root)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEnsureWithinReturnsErrOutsideRoot(t *testing.T) {
	root := t.TempDir()
	err := EnsureWithin(filepath.Join(root, "..", "x"), root)
	require.ErrorIs(t, err, ErrOutsideRoot)
}
