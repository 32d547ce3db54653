package fsops

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/famfs-go/famfs"
	"github.com/famfs-go/famfs/media"
	"github.com/famfs-go/famfs/mountresolve"
	"github.com/famfs-go/famfs/onmedia"
)

// Mkdir creates dirPath as a directory inside a famfs mount and appends an
// MKDIR entry to the log recording it. The parent directory must already
// exist.
func Mkdir(dirPath string, opts CreateOptions) error {
	parent := filepath.Dir(dirPath)
	parentInfo, err := os.Stat(parent)
	if err != nil || !parentInfo.IsDir() {
		return famfs.ErrInvalidArg.WithMessage("parent of " + dirPath + " is not a directory")
	}

	mountPoint, logFd, _, err := mountresolve.ResolveMetaFile(parent, famfs.MetaFileLog, true)
	if err != nil {
		return err
	}

	relPath, err := filepath.Rel(mountPoint, dirPath)
	if err != nil {
		logFd.Close()
		return famfs.ErrPathNotInMount.Wrap(err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, "../") {
		logFd.Close()
		return famfs.ErrPathNotInMount.WithMessage(dirPath)
	}

	if err := os.Mkdir(dirPath, os.FileMode(opts.Mode)); err != nil {
		logFd.Close()
		return famfs.ErrIo.Wrap(err)
	}
	if opts.Uid != 0 && opts.Gid != 0 {
		if err := os.Chown(dirPath, int(opts.Uid), int(opts.Gid)); err != nil {
			_ = os.Remove(dirPath)
			logFd.Close()
			return famfs.ErrIo.Wrap(err)
		}
	}

	logMapping, err := media.MapFile(logFd, true)
	if err != nil {
		_ = os.Remove(dirPath)
		logFd.Close()
		return err
	}
	defer logMapping.Close()

	entry := &onmedia.LogEntry{
		Kind:    uint32(famfs.LogEntryMkdir),
		RelPath: relPath,
		Mode:    opts.Mode,
		Uid:     opts.Uid,
		Gid:     opts.Gid,
	}
	if err := onmedia.AppendLogEntry(logMapping.Bytes(), entry); err != nil {
		_ = os.Remove(dirPath)
		return err
	}

	return logMapping.Sync()
}
