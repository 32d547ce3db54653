// Package ioctlif issues the two famfs ioctls: NOP, which a client uses to
// confirm a file descriptor belongs to a famfs mount, and MAP_CREATE, which
// asks the kernel module to bind a list of extents to a freshly created
// file. There is no real famfs kernel module in this environment; the ioctl
// numbers and request layout are reconstructed in the kernel's _IO/_IOWR
// style and are not guaranteed identical to a real driver's, while the raw
// syscall path is exercised exactly as it would be against one.
package ioctlif

import (
	"unsafe"

	"github.com/famfs-go/famfs"
	"golang.org/x/sys/unix"
)

// Ioctl command numbers, encoded the way the kernel's _IO/_IOWR macros would:
// magic 'F' (0x46) in bits 8-15, a small per-command sequence number in bits
// 0-7, direction and size bits above that. NOP takes no argument; MAP_CREATE
// is read-write sized for one mapCreateRequest.
const (
	ioctlMagic  = 0x46
	nopCmd      = ioctlMagic << 8
	mapCreateOp = (ioctlMagic << 8) | 0x01
)

func iowr(cmd uintptr, size uintptr) uintptr {
	const iocWrite = 1
	const iocRead = 2
	const dirShift = 30
	const sizeShift = 16
	return uintptr((iocRead|iocWrite)<<dirShift) | (size << sizeShift) | cmd
}

// mapCreateRequest mirrors the kernel's struct tagfs_ioc_map. ExtentType is
// always famfs.FSDAXExtent in this implementation; ExtentCount bounds how
// many of Extents is populated.
type mapCreateRequest struct {
	FileType    uint32
	ExtentType  uint32
	FileSize    uint64
	ExtentCount uint32
	_           uint32 // padding to align Extents to 8 bytes
	Extents     [famfs.MaxInlineExtents]famfs.Extent
}

// MapCreateRequest is the public, slice-based request shape. Extents must
// not exceed famfs.MaxInlineExtents entries.
type MapCreateRequest struct {
	FileType famfs.FileType
	FileSize uint64
	Extents  []famfs.Extent
}

// NOP issues the NOP ioctl against fd and reports whether the kernel
// recognized it as a famfs file. A failing NOP means fd is not backed by a
// famfs mount, or there is no famfs driver loaded at all.
func NOP(fd int) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(nopCmd), 0)
	if errno != 0 {
		return famfs.ErrIoctlFailed.Wrap(errno)
	}
	return nil
}

// MapCreate binds req's extent list to the open file fd, making it a valid
// famfs file of the requested size and type.
func MapCreate(fd int, req MapCreateRequest) error {
	if len(req.Extents) > famfs.MaxInlineExtents {
		return famfs.ErrInvalidArg.WithMessage("too many extents for one MAP_CREATE call")
	}

	native := mapCreateRequest{
		FileType:    uint32(req.FileType),
		ExtentType:  uint32(famfs.FSDAXExtent),
		FileSize:    req.FileSize,
		ExtentCount: uint32(len(req.Extents)),
	}
	copy(native.Extents[:], req.Extents)

	cmd := iowr(mapCreateOp, unsafe.Sizeof(native))
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), cmd, uintptr(unsafe.Pointer(&native)))
	if errno != 0 {
		return famfs.ErrIoctlFailed.Wrap(errno)
	}
	return nil
}
