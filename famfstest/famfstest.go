// Package famfstest provides fixture builders shared by this module's test
// suites: in-memory device buffers for tests that only need a seekable
// stream, and temp-file-backed devices for tests that exercise the real
// mmap path.
package famfstest

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/famfs-go/famfs"
	"github.com/famfs-go/famfs/onmedia"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// NewBlankSuperblockAndLog returns a zeroed buffer of exactly
// famfs.LogOffset+logLength bytes, with a valid superblock at offset 0 and
// a valid, empty log header immediately after it.
func NewBlankSuperblockAndLog(t *testing.T, deviceSize, logLength uint64) []byte {
	t.Helper()
	require.GreaterOrEqual(t, deviceSize, famfs.LogOffset+logLength)
	require.Zero(t, logLength%famfs.AllocUnitSize)

	buf := make([]byte, famfs.LogOffset+logLength)

	sb := &onmedia.Superblock{
		Magic:      famfs.SuperblockMagic,
		UUID:       uuid.New(),
		NumDevices: 1,
		LogOffset:  famfs.LogOffset,
		LogLength:  logLength,
		Devices:    []onmedia.DeviceDescriptor{{Path: "/dev/famfstest0", Size: deviceSize}},
	}
	require.NoError(t, onmedia.EncodeSuperblock(buf, sb))

	lastIndex := onmedia.MaxEntriesForLogLength(logLength)
	if lastIndex > 0 {
		lastIndex--
	}
	require.NoError(t, onmedia.EncodeLogHeader(buf[famfs.LogOffset:], &onmedia.LogHeader{
		Magic:     famfs.LogMagic,
		LastIndex: lastIndex,
	}))

	return buf
}

// NewInMemoryDevice wraps a blank superblock-and-log buffer in a seekable
// stream, for callers that want to drive it through an io.ReadWriteSeeker
// rather than a raw byte slice.
func NewInMemoryDevice(t *testing.T, deviceSize, logLength uint64) io.ReadWriteSeeker {
	t.Helper()
	buf := NewBlankSuperblockAndLog(t, deviceSize, logLength)
	return bytesextra.NewReadWriteSeeker(buf)
}

// NewTempDevice creates a regular file of the given size under a fresh
// temp directory, pre-populated with a blank superblock and log, and
// returns its path. Since famfs/media opens and mmaps whatever path it's
// given, this regular file stands in for a DAX device in any test that
// doesn't require a real kernel module underneath it.
func NewTempDevice(t *testing.T, deviceSize, logLength uint64) string {
	t.Helper()
	buf := NewBlankSuperblockAndLog(t, deviceSize, logLength)

	path := filepath.Join(t.TempDir(), "famfstest-device")
	require.NoError(t, os.WriteFile(path, buf, 0644))
	require.NoError(t, os.Truncate(path, int64(deviceSize)))
	return path
}
