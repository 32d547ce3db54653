// Package mountresolve walks upward from an arbitrary path inside a famfs
// mount to find the mount point itself, identified by the presence of a
// .meta directory holding the reserved superblock and log files.
package mountresolve

import (
	"os"
	"path/filepath"

	"github.com/famfs-go/famfs"
)

// Resolve walks upward from path, looking for a directory that contains
// relPath (ordinarily one of famfs.MetaFile's RelPath values) as a regular
// file. It returns the directory that contains it — the mount point — the
// file opened with the access mode writable calls for, and that file's
// size. The caller owns the returned file and must close it; returning it
// already open lets callers map it directly instead of re-resolving the
// same path a second time, which would leave a window for the file to
// change between the check and the map.
func Resolve(path string, relPath string, writable bool) (mountPoint string, fd *os.File, size int64, err error) {
	rpath, err := filepath.Abs(path)
	if err != nil {
		return "", nil, 0, famfs.ErrIo.Wrap(err)
	}
	rpath, err = filepath.EvalSymlinks(rpath)
	if err != nil {
		return "", nil, 0, famfs.ErrNotMounted.Wrap(err)
	}

	openFlag := os.O_RDONLY
	if writable {
		openFlag = os.O_RDWR
	}

	for {
		dirInfo, statErr := os.Stat(rpath)
		if statErr == nil && dirInfo.IsDir() {
			candidate := filepath.Join(rpath, relPath)
			f, openErr := os.OpenFile(candidate, openFlag, 0)
			if openErr == nil {
				info, statErr := f.Stat()
				if statErr == nil && info.Mode().IsRegular() {
					return rpath, f, info.Size(), nil
				}
				f.Close()
			}
		}

		parent := filepath.Dir(rpath)
		if parent == rpath {
			break
		}
		rpath = parent
	}

	return "", nil, 0, famfs.ErrNotMounted.WithMessage(path)
}

// ResolveMetaFile is a convenience wrapper over Resolve for one of the two
// well-known reserved meta files.
func ResolveMetaFile(path string, which famfs.MetaFile, writable bool) (mountPoint string, fd *os.File, size int64, err error) {
	return Resolve(path, which.RelPath(), writable)
}
