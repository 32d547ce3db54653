package mountresolve_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/famfs-go/famfs"
	"github.com/famfs-go/famfs/mountresolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFindsMountPointFromSubdirectory(t *testing.T) {
	mountPoint := t.TempDir()
	metaDir := filepath.Join(mountPoint, ".meta")
	require.NoError(t, os.MkdirAll(metaDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(metaDir, ".log"), make([]byte, 128), 0644))

	nested := filepath.Join(mountPoint, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	resolved, fd, size, err := mountresolve.ResolveMetaFile(nested, famfs.MetaFileLog, false)
	require.NoError(t, err)
	defer fd.Close()
	assert.Equal(t, mountPoint, resolved)
	assert.EqualValues(t, 128, size)
}

func TestResolveReturnsUsableFileDescriptor(t *testing.T) {
	mountPoint := t.TempDir()
	metaDir := filepath.Join(mountPoint, ".meta")
	require.NoError(t, os.MkdirAll(metaDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(metaDir, ".log"), []byte("famfslog"), 0644))

	_, fd, size, err := mountresolve.ResolveMetaFile(mountPoint, famfs.MetaFileLog, false)
	require.NoError(t, err)
	defer fd.Close()
	assert.EqualValues(t, 8, size)

	contents := make([]byte, size)
	_, err = fd.ReadAt(contents, 0)
	require.NoError(t, err)
	assert.Equal(t, "famfslog", string(contents))
}

func TestResolveFailsWithoutMetaDir(t *testing.T) {
	dir := t.TempDir()
	_, _, _, err := mountresolve.ResolveMetaFile(dir, famfs.MetaFileLog, false)
	assert.ErrorIs(t, err, famfs.ErrNotMounted)
}
