package famfstest_test

import (
	"io"
	"os"
	"testing"

	"github.com/famfs-go/famfs"
	"github.com/famfs-go/famfs/famfstest"
	"github.com/famfs-go/famfs/onmedia"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlankSuperblockAndLogIsValid(t *testing.T) {
	buf := famfstest.NewBlankSuperblockAndLog(t, famfs.LogOffset+famfs.DefaultLogLength, famfs.DefaultLogLength)

	sb, err := onmedia.ValidateSuperblock(buf)
	require.NoError(t, err)
	assert.EqualValues(t, famfs.DefaultLogLength, sb.LogLength)

	header, err := onmedia.DecodeLogHeader(buf[famfs.LogOffset:])
	require.NoError(t, err)
	assert.Equal(t, famfs.LogMagic, header.Magic)
}

func TestNewInMemoryDeviceIsSeekable(t *testing.T) {
	stream := famfstest.NewInMemoryDevice(t, famfs.LogOffset+famfs.DefaultLogLength, famfs.DefaultLogLength)

	header := make([]byte, 8)
	n, err := stream.Read(header)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	pos, err := stream.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.EqualValues(t, 0, pos)
}

func TestNewTempDeviceWritesBlankFilesystem(t *testing.T) {
	path := famfstest.NewTempDevice(t, famfs.LogOffset+famfs.DefaultLogLength, famfs.DefaultLogLength)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = onmedia.ValidateSuperblock(raw)
	require.NoError(t, err)
}
