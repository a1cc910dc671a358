package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDataDir_RelativeResolvedAgainstCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDataDir(".loominal")
	require.NoError(t, err)

	want := filepath.Join(tmp, ".loominal")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm())
	}
}

func TestEnsureDataDir_AbsoluteAndIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state", "loominal")

	first, err := EnsureDataDir(dir)
	require.NoError(t, err)
	require.Equal(t, dir, first)

	second, err := EnsureDataDir(dir)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureDataDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile(".loominal", []byte("x"), 0o600))

	_, err := EnsureDataDir(".loominal")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestDataFile_JoinsName(t *testing.T) {
	dir := t.TempDir()

	got, err := DataFile(dir, "client.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "client.db"), got)
}
