// Package media maps raw devices and meta files into memory. Every other
// package that touches on-media bytes does so through a *Mapping returned
// from here; nothing outside this package calls unix.Mmap directly.
package media

import (
	"fmt"
	"os"

	"github.com/famfs-go/famfs"
	"golang.org/x/sys/unix"
)

// Mapping is a memory-mapped region backed by an open file descriptor. The
// descriptor is kept open for the lifetime of the mapping and is available
// through Fd.
type Mapping struct {
	data []byte
	fd   int
	path string
	// file is set when the Mapping was built from an *os.File the caller
	// already had open (MapFile). Keeping it here holds a live reference
	// so the os.File finalizer can't close fd out from under the mapping,
	// and Close closes through it instead of raw unix.Close.
	file *os.File
}

// MapRaw opens devicePath and maps the first length bytes of it. length must
// be positive. mkfs and fsck map only the superblock-and-log prefix, not the
// whole device.
func MapRaw(devicePath string, length int, writable bool) (*Mapping, error) {
	if length <= 0 {
		return nil, famfs.ErrInvalidArg.WithMessage("map length must be positive")
	}

	openMode := os.O_RDONLY
	protMode := unix.PROT_READ
	if writable {
		openMode = os.O_RDWR
		protMode |= unix.PROT_WRITE
	}

	fd, err := unix.Open(devicePath, openMode, 0)
	if err != nil {
		return nil, famfs.ErrIo.Wrap(fmt.Errorf("open %s: %w", devicePath, err))
	}

	data, err := unix.Mmap(fd, 0, length, protMode, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, famfs.ErrIo.Wrap(fmt.Errorf("mmap %s: %w", devicePath, err))
	}

	return &Mapping{data: data, fd: fd, path: devicePath}, nil
}

// MapWholeFile maps an ordinary file, such as a meta file, in its entirety.
// The file must already exist and be non-empty.
func MapWholeFile(path string, writable bool) (*Mapping, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, famfs.ErrIo.Wrap(fmt.Errorf("stat %s: %w", path, err))
	}
	if info.Size() == 0 {
		return nil, famfs.ErrInvalidArg.WithMessage(fmt.Sprintf("%s is empty", path))
	}
	return MapRaw(path, int(info.Size()), writable)
}

// MapFile maps a file that's already open, such as the fd mountresolve.Resolve
// hands back, instead of reopening its path. f is consumed: on success its fd
// is now owned by the returned Mapping and Close unmaps and closes it; on
// failure the caller is still responsible for closing f.
func MapFile(f *os.File, writable bool) (*Mapping, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, famfs.ErrIo.Wrap(fmt.Errorf("stat %s: %w", f.Name(), err))
	}
	if info.Size() == 0 {
		return nil, famfs.ErrInvalidArg.WithMessage(fmt.Sprintf("%s is empty", f.Name()))
	}

	protMode := unix.PROT_READ
	if writable {
		protMode |= unix.PROT_WRITE
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), protMode, unix.MAP_SHARED)
	if err != nil {
		return nil, famfs.ErrIo.Wrap(fmt.Errorf("mmap %s: %w", f.Name(), err))
	}

	return &Mapping{data: data, fd: int(f.Fd()), path: f.Name(), file: f}, nil
}

// MapMetaFile maps one of the two reserved files under <mountPoint>/.meta/.
func MapMetaFile(mountPoint string, which famfs.MetaFile, writable bool) (*Mapping, error) {
	return MapWholeFile(mountPoint+"/"+which.RelPath(), writable)
}

// Bytes returns the mapped region. The slice is valid until Close is called.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Fd returns the underlying file descriptor, for callers that need to issue
// an ioctl against the same open file.
func (m *Mapping) Fd() int {
	return m.fd
}

// Sync flushes the mapped region back to the backing device.
func (m *Mapping) Sync() error {
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return famfs.ErrIo.Wrap(fmt.Errorf("msync %s: %w", m.path, err))
	}
	return nil
}

// Close unmaps the region and closes the file descriptor. Calling it twice
// will return an error from the second unmap/close; callers should ignore
// that in defer chains, matching the unix package's own guidance.
func (m *Mapping) Close() error {
	var firstErr error
	if err := unix.Munmap(m.data); err != nil {
		firstErr = famfs.ErrIo.Wrap(fmt.Errorf("munmap %s: %w", m.path, err))
	}

	var closeErr error
	if m.file != nil {
		closeErr = m.file.Close()
	} else {
		closeErr = unix.Close(m.fd)
	}
	if closeErr != nil && firstErr == nil {
		firstErr = famfs.ErrIo.Wrap(fmt.Errorf("close %s: %w", m.path, closeErr))
	}
	return firstErr
}
