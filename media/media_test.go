package media_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/famfs-go/famfs/media"
	"github.com/stretchr/testify/require"
)

func TestMapWholeFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0644))

	m, err := media.MapWholeFile(path, true)
	require.NoError(t, err)
	defer m.Close()

	buf := m.Bytes()
	require.Len(t, buf, 4096)
	buf[0] = 0x42

	require.NoError(t, m.Sync())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, byte(0x42), contents[0])
}

func TestMapWholeFileRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := media.MapWholeFile(path, false)
	require.Error(t, err)
}

func TestMapRawRejectsMissingFile(t *testing.T) {
	_, err := media.MapRaw("/nonexistent/famfs-media-test-device", 4096, false)
	require.Error(t, err)
}

func TestMapFileMapsAnAlreadyOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0644))

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)

	m, err := media.MapFile(f, true)
	require.NoError(t, err)
	defer m.Close()

	buf := m.Bytes()
	require.Len(t, buf, 4096)
	buf[0] = 0x7f
	require.NoError(t, m.Sync())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, byte(0x7f), contents[0])
}
