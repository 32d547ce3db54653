package fsops

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/famfs-go/famfs"
	"github.com/famfs-go/famfs/ioctlif"
	"github.com/famfs-go/famfs/media"
	"github.com/famfs-go/famfs/onmedia"
)

// Mkmeta creates the <mountPoint>/.meta directory and the two reserved
// files inside it (.superblock and .log), binding each to the on-device
// extent it mirrors. devicePath must already be mounted as a famfs file
// system (Mkfs and mount must have run first); the mount point is looked
// up from /proc/mounts rather than taken from the caller, since it's the
// kernel's mount table, not the caller, that knows where a device landed.
func Mkmeta(devicePath string) error {
	mountPoint, err := mountPointForDevice(devicePath)
	if err != nil {
		return err
	}

	raw, err := media.MapRaw(devicePath, int(famfs.SuperblockSize), false)
	if err != nil {
		return err
	}
	sb, err := onmedia.ValidateSuperblock(raw.Bytes())
	closeErr := raw.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	metaDir := filepath.Join(mountPoint, ".meta")
	if err := os.MkdirAll(metaDir, 0700); err != nil {
		return famfs.ErrIo.Wrap(err)
	}

	sbPath := filepath.Join(mountPoint, famfs.MetaFileSuperblock.RelPath())
	if err := createAndBind(sbPath, famfs.SuperblockSize, famfs.FileTypeSuperblock,
		[]famfs.Extent{{Offset: 0, Length: famfs.SuperblockSize}}); err != nil {
		return err
	}

	logPath := filepath.Join(mountPoint, famfs.MetaFileLog.RelPath())
	if err := createAndBind(logPath, sb.LogLength, famfs.FileTypeLog,
		[]famfs.Extent{{Offset: sb.LogOffset, Length: sb.LogLength}}); err != nil {
		_ = os.Remove(sbPath)
		return err
	}

	return nil
}

// mountPointForDevice scans /proc/mounts for the line recording devicePath
// mounted with fstype famfs, and returns its mount point. Matching tries
// both the path as given and its realpath, since /proc/mounts usually
// records the device as the kernel resolved it, not however the caller
// happened to spell it.
func mountPointForDevice(devicePath string) (string, error) {
	resolved, err := filepath.EvalSymlinks(devicePath)
	if err != nil {
		resolved = devicePath
	}

	f, err := os.Open("/proc/mounts")
	if err != nil {
		return "", famfs.ErrIo.Wrap(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || fields[2] != "famfs" {
			continue
		}
		if fields[0] == devicePath || fields[0] == resolved {
			return fields[1], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", famfs.ErrIo.Wrap(err)
	}

	return "", famfs.ErrNotMounted.WithMessage(devicePath + " is not mounted as famfs")
}

func createAndBind(path string, size uint64, fileType famfs.FileType, extents []famfs.Extent) error {
	if info, err := os.Stat(path); err == nil {
		if info.Size() != int64(size) {
			if err := os.Remove(path); err != nil {
				return famfs.ErrIo.Wrap(err)
			}
		} else {
			return nil
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return famfs.ErrIo.Wrap(err)
	}
	defer f.Close()

	req := ioctlif.MapCreateRequest{
		FileType: fileType,
		FileSize: size,
		Extents:  extents,
	}
	if err := ioctlif.MapCreate(int(f.Fd()), req); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}
