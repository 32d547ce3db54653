package fsops

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/famfs-go/famfs"
	"github.com/famfs-go/famfs/alloc"
	"github.com/famfs-go/famfs/ioctlif"
	"github.com/famfs-go/famfs/media"
	"github.com/famfs-go/famfs/mountresolve"
	"github.com/famfs-go/famfs/onmedia"
)

// CreateOptions carries the owner/mode bits common to Mkfile, Mkdir, and Cp.
type CreateOptions struct {
	Mode uint32
	Uid  uint32
	Gid  uint32
}

// Mkfile creates path as an empty famfs file, allocates size bytes for it
// from the mount's bitmap, records a FILE_CREATE log entry, and binds the
// allocated extent to the new file via MAP_CREATE.
//
// Any failure after the file is created unlinks it before returning.
func Mkfile(path string, size uint64, opts CreateOptions) (*os.File, error) {
	mountPoint, logFd, _, err := mountresolve.ResolveMetaFile(filepath.Dir(path), famfs.MetaFileLog, true)
	if err != nil {
		return nil, err
	}

	logMapping, err := media.MapFile(logFd, true)
	if err != nil {
		logFd.Close()
		return nil, err
	}
	defer logMapping.Close()

	sbMapping, err := media.MapMetaFile(mountPoint, famfs.MetaFileSuperblock, false)
	if err != nil {
		return nil, err
	}
	sb, err := onmedia.ValidateSuperblock(sbMapping.Bytes())
	sbCloseErr := sbMapping.Close()
	if err != nil {
		return nil, err
	}
	if sbCloseErr != nil {
		return nil, sbCloseErr
	}

	relPath, err := filepath.Rel(mountPoint, path)
	if err != nil {
		return nil, famfs.ErrPathNotInMount.Wrap(err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, "../") {
		return nil, famfs.ErrPathNotInMount.WithMessage(path)
	}

	logBuf := logMapping.Bytes()
	report, err := alloc.BuildBitmap(logBuf, sb.Devices[0].Size, famfs.LogOffset+sb.LogLength)
	if err != nil {
		return nil, err
	}
	offset, err := alloc.AllocateContiguous(report, size)
	if err != nil {
		return nil, err
	}

	f, err := createFamfsFile(path, opts)
	if err != nil {
		return nil, err
	}

	extent := onmedia.Extent{Offset: offset, Length: famfs.RoundUpToAU(size)}
	entry := &onmedia.LogEntry{
		Kind:    uint32(famfs.LogEntryFileCreate),
		RelPath: relPath,
		Size:    size,
		Mode:    opts.Mode,
		Uid:     opts.Uid,
		Gid:     opts.Gid,
		Extents: []onmedia.Extent{extent},
	}
	if err := onmedia.AppendLogEntry(logBuf, entry); err != nil {
		f.Close()
		_ = os.Remove(path)
		return nil, err
	}

	req := ioctlif.MapCreateRequest{
		FileType: famfs.FileTypeReg,
		FileSize: size,
		Extents:  []famfs.Extent{{Offset: extent.Offset, Length: extent.Length}},
	}
	if err := ioctlif.MapCreate(int(f.Fd()), req); err != nil {
		f.Close()
		_ = os.Remove(path)
		return nil, err
	}

	if err := logMapping.Sync(); err != nil {
		f.Close()
		_ = os.Remove(path)
		return nil, err
	}

	return f, nil
}

func createFamfsFile(path string, opts CreateOptions) (*os.File, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, famfs.ErrNotFamfs.WithMessage(path + " already exists")
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, os.FileMode(opts.Mode))
	if err != nil {
		return nil, famfs.ErrIo.Wrap(err)
	}

	if err := ioctlif.NOP(int(f.Fd())); err != nil {
		f.Close()
		_ = os.Remove(path)
		return nil, famfs.ErrNotFamfs.Wrap(err)
	}

	if opts.Uid != 0 && opts.Gid != 0 {
		if err := os.Chown(path, int(opts.Uid), int(opts.Gid)); err != nil {
			f.Close()
			_ = os.Remove(path)
			return nil, famfs.ErrIo.Wrap(err)
		}
	}

	return f, nil
}
