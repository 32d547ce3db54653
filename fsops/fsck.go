package fsops

import (
	"bufio"
	"os"
	"strings"

	"github.com/famfs-go/famfs"
	"github.com/famfs-go/famfs/alloc"
	"github.com/famfs-go/famfs/media"
	"github.com/famfs-go/famfs/mountresolve"
	"github.com/famfs-go/famfs/onmedia"
)

// FsckReport summarizes one fsck run: the decoded superblock, the bitmap
// builder's findings, and the derived space-amplification ratio.
type FsckReport struct {
	Superblock  *onmedia.Superblock
	AllocErrors uint64
	SizeTotal   uint64
	AllocTotal  uint64
}

// SpaceAmplification returns AllocTotal/SizeTotal, or 0 if nothing has been
// allocated yet.
func (r *FsckReport) SpaceAmplification() float64 {
	if r.SizeTotal == 0 {
		return 0
	}
	return float64(r.AllocTotal) / float64(r.SizeTotal)
}

// Fsck validates the superblock and rebuilds the allocation bitmap from the
// log at path, which may be either the raw DAX device (only when
// unmounted) or any path inside an already-mounted famfs file system.
func Fsck(path string) (*FsckReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, famfs.ErrIo.Wrap(err)
	}

	if info.Mode()&(os.ModeDevice|os.ModeCharDevice) != 0 {
		return fsckByDevice(path)
	}
	return fsckByMount(path)
}

func fsckByDevice(devicePath string) (*FsckReport, error) {
	if mounted, err := deviceIsMounted(devicePath); err != nil {
		return nil, err
	} else if mounted {
		return nil, famfs.ErrBusy.WithMessage(devicePath + " is mounted; fsck it by mount point instead")
	}

	sbOnly, err := media.MapRaw(devicePath, famfs.SuperblockSize, false)
	if err != nil {
		return nil, err
	}
	sb, err := onmedia.ValidateSuperblock(sbOnly.Bytes())
	closeErr := sbOnly.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, closeErr
	}

	raw, err := media.MapRaw(devicePath, int(famfs.LogOffset+sb.LogLength), false)
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	return scan(raw.Bytes())
}

func fsckByMount(path string) (*FsckReport, error) {
	mountPoint, logFd, _, err := mountresolve.ResolveMetaFile(path, famfs.MetaFileLog, false)
	if err != nil {
		return nil, err
	}

	sbMapping, err := media.MapMetaFile(mountPoint, famfs.MetaFileSuperblock, false)
	if err != nil {
		logFd.Close()
		return nil, err
	}
	defer sbMapping.Close()

	logMapping, err := media.MapFile(logFd, false)
	if err != nil {
		logFd.Close()
		return nil, err
	}
	defer logMapping.Close()

	sb, err := onmedia.ValidateSuperblock(sbMapping.Bytes())
	if err != nil {
		return nil, err
	}

	report, err := alloc.BuildBitmap(logMapping.Bytes(), sb.Devices[0].Size, famfs.LogOffset+sb.LogLength)
	if err != nil {
		return nil, err
	}

	return &FsckReport{
		Superblock:  sb,
		AllocErrors: report.AllocErrors,
		SizeTotal:   report.SizeTotal,
		AllocTotal:  report.AllocTotal,
	}, nil
}

func scan(sbAndLogBuf []byte) (*FsckReport, error) {
	sb, err := onmedia.ValidateSuperblock(sbAndLogBuf)
	if err != nil {
		return nil, err
	}

	logBuf := sbAndLogBuf[famfs.SuperblockSize:]
	report, err := alloc.BuildBitmap(logBuf, sb.Devices[0].Size, famfs.LogOffset+sb.LogLength)
	if err != nil {
		return nil, err
	}

	return &FsckReport{
		Superblock:  sb,
		AllocErrors: report.AllocErrors,
		SizeTotal:   report.SizeTotal,
		AllocTotal:  report.AllocTotal,
	}, nil
}

// deviceIsMounted reports whether devicePath appears as a source in
// /proc/mounts.
func deviceIsMounted(devicePath string) (bool, error) {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return false, famfs.ErrIo.Wrap(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 && fields[0] == devicePath {
			return true, nil
		}
	}
	return false, nil
}
