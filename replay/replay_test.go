package replay_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/famfs-go/famfs"
	"github.com/famfs-go/famfs/onmedia"
	"github.com/famfs-go/famfs/replay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogBuf(t *testing.T, entryCapacity uint64) []byte {
	t.Helper()
	length := onmedia.LogHeaderSize + int(entryCapacity)*onmedia.LogEntryStride
	buf := make([]byte, length)
	require.NoError(t, onmedia.EncodeLogHeader(buf, &onmedia.LogHeader{
		Magic:     famfs.LogMagic,
		LastIndex: entryCapacity - 1,
	}))
	return buf
}

func TestReplayDryRunCreatesNothing(t *testing.T) {
	logBuf := newLogBuf(t, 4)
	require.NoError(t, onmedia.AppendLogEntry(logBuf, &onmedia.LogEntry{
		Kind:    uint32(famfs.LogEntryMkdir),
		RelPath: "subdir",
		Mode:    0755,
	}))

	dir := t.TempDir()
	report, err := replay.Replay(logBuf, dir, replay.Options{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 0, report.DirsCreated)

	_, statErr := os.Stat(filepath.Join(dir, "subdir"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestReplayCreatesDirectories(t *testing.T) {
	logBuf := newLogBuf(t, 4)
	require.NoError(t, onmedia.AppendLogEntry(logBuf, &onmedia.LogEntry{
		Kind:    uint32(famfs.LogEntryMkdir),
		RelPath: "a/b",
		Mode:    0755,
	}))

	dir := t.TempDir()
	report, err := replay.Replay(logBuf, dir, replay.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.DirsCreated)

	info, err := os.Stat(filepath.Join(dir, "a/b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestReplayIsIdempotent(t *testing.T) {
	logBuf := newLogBuf(t, 4)
	require.NoError(t, onmedia.AppendLogEntry(logBuf, &onmedia.LogEntry{
		Kind:    uint32(famfs.LogEntryMkdir),
		RelPath: "a",
		Mode:    0755,
	}))

	dir := t.TempDir()
	_, err := replay.Replay(logBuf, dir, replay.Options{})
	require.NoError(t, err)

	report, err := replay.Replay(logBuf, dir, replay.Options{})
	require.Error(t, err, "second pass should report the already-existing directory as skipped")
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.DirsCreated)
}

func TestReplaySkipsNonRelativePaths(t *testing.T) {
	logBuf := newLogBuf(t, 4)
	require.NoError(t, onmedia.AppendLogEntry(logBuf, &onmedia.LogEntry{
		Kind:    uint32(famfs.LogEntryMkdir),
		RelPath: "/etc",
		Mode:    0755,
	}))

	dir := t.TempDir()
	report, err := replay.Replay(logBuf, dir, replay.Options{})
	assert.Error(t, err)
	assert.Equal(t, 1, report.Skipped)
}

func TestReplaySkipsFileExtentWithZeroOffset(t *testing.T) {
	logBuf := newLogBuf(t, 4)
	require.NoError(t, onmedia.AppendLogEntry(logBuf, &onmedia.LogEntry{
		Kind:    uint32(famfs.LogEntryFileCreate),
		RelPath: "bad.bin",
		Size:    famfs.AllocUnitSize,
		Extents: []onmedia.Extent{{Offset: 0, Length: famfs.AllocUnitSize}},
	}))

	dir := t.TempDir()
	report, err := replay.Replay(logBuf, dir, replay.Options{})
	assert.Error(t, err)
	assert.Equal(t, 1, report.Skipped)

	_, statErr := os.Stat(filepath.Join(dir, "bad.bin"))
	assert.True(t, os.IsNotExist(statErr))
}

// A regular file created under a temp directory is never actually on a
// famfs mount, so the NOP ioctl the replayer runs right after creating it
// must fail, and the half-created file must not be left behind. There is
// no real famfs kernel module in this environment to make the NOP ioctl
// succeed, so the success path (NOP passes, MAP_CREATE binds the extent)
// can't be exercised here; this confirms the replayer actually gates file
// creation on that check rather than skipping it.
func TestReplayFileCreateIsRejectedWhenNOPFails(t *testing.T) {
	logBuf := newLogBuf(t, 4)
	require.NoError(t, onmedia.AppendLogEntry(logBuf, &onmedia.LogEntry{
		Kind:    uint32(famfs.LogEntryFileCreate),
		RelPath: "data.bin",
		Size:    famfs.AllocUnitSize,
		Mode:    0644,
		Extents: []onmedia.Extent{{Offset: famfs.AllocUnitSize * 4, Length: famfs.AllocUnitSize}},
	}))

	dir := t.TempDir()
	report, err := replay.Replay(logBuf, dir, replay.Options{})
	assert.Error(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.FilesCreated)

	_, statErr := os.Stat(filepath.Join(dir, "data.bin"))
	assert.True(t, os.IsNotExist(statErr), "file created to probe NOP must be removed on failure")
}

// chown to the calling process's own uid/gid is permitted without any
// elevated capability, so this exercises the MKDIR chown branch without
// needing root. When the test runs as root, uid/gid are both 0 and the
// "both non-zero" guard means Mkdir never calls chown at all; the
// directory must still be created either way.
func TestReplayMkdirChownsWhenOwnerFieldsSet(t *testing.T) {
	logBuf := newLogBuf(t, 4)
	uid, gid := uint32(os.Getuid()), uint32(os.Getgid())
	require.NoError(t, onmedia.AppendLogEntry(logBuf, &onmedia.LogEntry{
		Kind:    uint32(famfs.LogEntryMkdir),
		RelPath: "owned",
		Mode:    0755,
		Uid:     uid,
		Gid:     gid,
	}))

	dir := t.TempDir()
	report, err := replay.Replay(logBuf, dir, replay.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.DirsCreated)

	info, err := os.Stat(filepath.Join(dir, "owned"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestReplayShadowDirLeavesMountPointUntouched(t *testing.T) {
	logBuf := newLogBuf(t, 4)
	require.NoError(t, onmedia.AppendLogEntry(logBuf, &onmedia.LogEntry{
		Kind:    uint32(famfs.LogEntryMkdir),
		RelPath: "shadowed",
		Mode:    0755,
	}))

	mountPoint := t.TempDir()
	shadow := t.TempDir()
	report, err := replay.Replay(logBuf, mountPoint, replay.Options{ShadowDir: shadow})
	require.NoError(t, err)
	assert.Equal(t, 1, report.DirsCreated)

	_, err = os.Stat(filepath.Join(shadow, "shadowed"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(mountPoint, "shadowed"))
	assert.True(t, os.IsNotExist(err))
}
