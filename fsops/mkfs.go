// Package fsops implements the namespace-level orchestrations built on top
// of the lower packages: mkfs, mkmeta, mkfile, mkdir, cp, fsck, and verify.
// Every multi-step operation here follows compensate-and-unwind: a failure
// partway through unlinks whatever was half-built, closes descriptors, and
// unmaps mappings before returning the error.
package fsops

import (
	"github.com/famfs-go/famfs"
	"github.com/famfs-go/famfs/media"
	"github.com/famfs-go/famfs/onmedia"
	"github.com/famfs-go/famfs/sysfs"
	"github.com/google/uuid"
)

// MkfsOptions controls the log region size written by Mkfs.
type MkfsOptions struct {
	// LogLength is the byte length of the log region. It must be an AU
	// multiple. Zero selects famfs.DefaultLogLength.
	LogLength uint64
}

// Mkfs initializes a fresh famfs file system on devicePath: it probes the
// device's size, writes a zeroed log header sized to fit the chosen log
// region, and writes the superblock describing both.
func Mkfs(devicePath string, opts MkfsOptions) error {
	logLength := opts.LogLength
	if logLength == 0 {
		logLength = famfs.DefaultLogLength
	}
	if logLength%famfs.AllocUnitSize != 0 {
		return famfs.ErrInvalidArg.WithMessage("log length must be an allocation-unit multiple")
	}

	deviceSize, err := sysfs.DeviceSize(devicePath)
	if err != nil {
		return err
	}
	if deviceSize < famfs.LogOffset+logLength {
		return famfs.ErrInvalidArg.WithMessage("device is too small to hold the superblock and log")
	}

	m, err := media.MapRaw(devicePath, int(famfs.LogOffset+logLength), true)
	if err != nil {
		return err
	}
	defer m.Close()

	buf := m.Bytes()
	logBuf := buf[famfs.LogOffset:]

	lastIndex := onmedia.MaxEntriesForLogLength(logLength)
	if lastIndex > 0 {
		lastIndex--
	}
	if err := onmedia.EncodeLogHeader(logBuf, &onmedia.LogHeader{
		Magic:     famfs.LogMagic,
		LastIndex: lastIndex,
	}); err != nil {
		return err
	}

	sb := &onmedia.Superblock{
		Magic:      famfs.SuperblockMagic,
		UUID:       uuid.New(),
		NumDevices: 1,
		LogOffset:  famfs.LogOffset,
		LogLength:  logLength,
		Devices: []onmedia.DeviceDescriptor{
			{Path: devicePath, Size: deviceSize},
		},
	}
	if err := onmedia.EncodeSuperblock(buf, sb); err != nil {
		return err
	}

	return m.Sync()
}
