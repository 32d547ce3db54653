// Package alloc rebuilds the allocation bitmap from the log and performs
// first-fit contiguous allocation against it. There is no persisted free
// list and no compaction: every allocation and every fsck run walks the
// entire log from scratch.
package alloc

import (
	"github.com/famfs-go/famfs"
	"github.com/famfs-go/famfs/bitmap"
	"github.com/famfs-go/famfs/onmedia"
)

// Report is the result of scanning the log and building a bitmap from it.
type Report struct {
	Bitmap      *bitmap.Bitmap
	AUCount     int
	AllocErrors uint64
	SizeTotal   uint64
	AllocTotal  uint64
}

// BuildBitmap scans every entry in logBuf and marks the allocation units
// its extents cover. deviceSize is the size, in bytes, of the primary
// device; it determines the bitmap's length. reservedBytes is the size, in
// bytes, of the superblock-and-log prefix actually in effect on this
// device (famfs.LogOffset plus the superblock's own LogLength, not the
// package default) and is always marked allocated, matching the reserved
// region a real famfs device carries.
//
// An extent that claims an allocation unit already marked busy increments
// AllocErrors but does not otherwise stop the scan; fsck reports these as
// collisions, and a corrupted log should not make BuildBitmap itself fail.
func BuildBitmap(logBuf []byte, deviceSize uint64, reservedBytes uint64) (*Report, error) {
	auCount := int(deviceSize / famfs.AllocUnitSize)
	if auCount == 0 {
		return nil, famfs.ErrInvalidArg.WithMessage("device is smaller than one allocation unit")
	}

	report := &Report{
		Bitmap:  bitmap.New(auCount),
		AUCount: auCount,
	}

	reservedAUs := int(famfs.AUCount(reservedBytes))
	if reservedAUs > auCount {
		reservedAUs = auCount
	}
	for i := 0; i < reservedAUs; i++ {
		report.Bitmap.Set(i)
	}

	entries, err := onmedia.IterateLogEntries(logBuf)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		switch famfs.LogEntryKind(entry.Kind) {
		case famfs.LogEntryFileCreate:
			report.SizeTotal += entry.Size
			for _, ext := range entry.Extents {
				markExtent(report, ext)
			}
		case famfs.LogEntryMkdir:
			// Directories consume no space.
		default:
			// ACCESS and any other unrecognized kind: not a space-allocation
			// problem, so it doesn't belong in AllocErrors.
		}
	}

	return report, nil
}

func markExtent(report *Report, ext onmedia.Extent) {
	startAU := int(ext.Offset / famfs.AllocUnitSize)
	auSpan := int(famfs.AUCount(ext.Length))
	for au := startAU; au < startAU+auSpan; au++ {
		if au < 0 || au >= report.Bitmap.Len() {
			report.AllocErrors++
			continue
		}
		if report.Bitmap.TestAndSet(au) {
			report.AllocErrors++
		} else {
			report.AllocTotal += famfs.AllocUnitSize
		}
	}
}

// AllocateContiguous finds the first run of free allocation units large
// enough to hold size bytes, marks them allocated in report's bitmap, and
// returns the byte offset of the run's first allocation unit.
//
// This mirrors the reference allocator's scan exactly, including its
// first-fit semantics: a candidate run that turns out to contain a busy
// unit is abandoned and the scan resumes at the next allocation unit, not
// past the busy one.
func AllocateContiguous(report *Report, size uint64) (uint64, error) {
	auNeeded := int(famfs.AUCount(size))
	if auNeeded == 0 {
		return 0, famfs.ErrInvalidArg.WithMessage("allocation size must be positive")
	}

	for i := 0; i < report.Bitmap.Len(); i++ {
		if report.Bitmap.Test(i) {
			continue
		}
		if i+auNeeded > report.Bitmap.Len() {
			return 0, famfs.ErrOutOfSpace
		}

		collision := false
		for j := i; j < i+auNeeded; j++ {
			if report.Bitmap.Test(j) {
				collision = true
				break
			}
		}
		if collision {
			continue
		}

		for j := i; j < i+auNeeded; j++ {
			report.Bitmap.Set(j)
		}
		return uint64(i) * famfs.AllocUnitSize, nil
	}

	return 0, famfs.ErrOutOfSpace
}
