// Package replay reconstructs a famfs mount's namespace by walking the log
// in order and recreating each file and directory it records. Replay is
// idempotent: re-running it over an already-populated mount point skips
// every entry whose target already exists.
package replay

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/famfs-go/famfs"
	"github.com/famfs-go/famfs/ioctlif"
	"github.com/famfs-go/famfs/onmedia"
	"github.com/hashicorp/go-multierror"
)

// Options controls how Replay materializes the log's entries.
type Options struct {
	// DryRun, when true, walks and validates every entry but creates
	// nothing.
	DryRun bool
	// ShadowDir, when non-empty, replays into this directory instead of
	// the real mount point, preserving the mount point's relative
	// structure. Used to inspect what a log would produce without
	// touching a live famfs mount.
	ShadowDir string
}

// Report summarizes one Replay run.
type Report struct {
	FilesCreated int
	DirsCreated  int
	Skipped      int
}

// Replay walks every FILE_CREATE and MKDIR entry in logBuf, in log order,
// and recreates it under mountPoint (or opts.ShadowDir, if set).
//
// Entries are skipped, never fatal, when: the path isn't relative, a
// FILE_CREATE extent has offset 0 (that range belongs to the superblock),
// or the target already exists. Skips are aggregated into the returned
// error via a *multierror.Error; a non-nil error from Replay never means
// "stop", only "something was skipped" — callers that want strict
// behavior should inspect the Report.
func Replay(logBuf []byte, mountPoint string, opts Options) (*Report, error) {
	entries, err := onmedia.IterateLogEntries(logBuf)
	if err != nil {
		return nil, err
	}

	root := mountPoint
	if opts.ShadowDir != "" {
		root = opts.ShadowDir
	}

	report := &Report{}
	var warnings *multierror.Error

	for _, entry := range entries {
		switch famfs.LogEntryKind(entry.Kind) {
		case famfs.LogEntryFileCreate:
			if err := replayFileCreate(root, entry, opts.DryRun); err != nil {
				warnings = multierror.Append(warnings, err)
				report.Skipped++
				continue
			}
			if !opts.DryRun {
				report.FilesCreated++
			}

		case famfs.LogEntryMkdir:
			if err := replayMkdir(root, entry, opts.DryRun); err != nil {
				warnings = multierror.Append(warnings, err)
				report.Skipped++
				continue
			}
			if !opts.DryRun {
				report.DirsCreated++
			}

		default:
			warnings = multierror.Append(warnings,
				famfs.ErrLogCorrupt.WithMessage("unrecognized log entry kind"))
			report.Skipped++
		}
	}

	if warnings != nil {
		return report, warnings.ErrorOrNil()
	}
	return report, nil
}

func isRelative(p string) bool {
	return p != "" && !path.IsAbs(p) && !strings.HasPrefix(p, "../")
}

func replayFileCreate(root string, entry *onmedia.LogEntry, dryRun bool) error {
	if !isRelative(entry.RelPath) {
		return famfs.ErrPathNotRelative.WithMessage(entry.RelPath)
	}
	for _, ext := range entry.Extents {
		if ext.Offset == 0 {
			return famfs.ErrInvalidArg.WithMessage(
				"file " + entry.RelPath + " has an extent with offset 0")
		}
	}

	fullPath := filepath.Join(root, entry.RelPath)
	if dryRun {
		return nil
	}

	if _, err := os.Stat(fullPath); err == nil {
		return famfs.ErrNotFamfs.WithMessage(fullPath + " already exists")
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return famfs.ErrIo.Wrap(err)
	}

	f, err := os.OpenFile(fullPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, os.FileMode(entry.Mode))
	if err != nil {
		return famfs.ErrIo.Wrap(err)
	}
	defer f.Close()

	if err := ioctlif.NOP(int(f.Fd())); err != nil {
		_ = os.Remove(fullPath)
		return famfs.ErrNotFamfs.Wrap(err)
	}

	if entry.Uid != 0 && entry.Gid != 0 {
		if err := os.Chown(fullPath, int(entry.Uid), int(entry.Gid)); err != nil {
			_ = os.Remove(fullPath)
			return famfs.ErrIo.Wrap(err)
		}
	}

	req := ioctlif.MapCreateRequest{
		FileType: famfs.FileTypeReg,
		FileSize: entry.Size,
	}
	for _, ext := range entry.Extents {
		req.Extents = append(req.Extents, famfs.Extent{Offset: ext.Offset, Length: ext.Length})
	}
	if err := ioctlif.MapCreate(int(f.Fd()), req); err != nil {
		_ = os.Remove(fullPath)
		return err
	}
	return nil
}

func replayMkdir(root string, entry *onmedia.LogEntry, dryRun bool) error {
	if !isRelative(entry.RelPath) {
		return famfs.ErrPathNotRelative.WithMessage(entry.RelPath)
	}

	fullPath := filepath.Join(root, entry.RelPath)
	if dryRun {
		return nil
	}

	if info, err := os.Stat(fullPath); err == nil {
		if info.IsDir() {
			return famfs.ErrNotFamfs.WithMessage(fullPath + " already exists")
		}
		return famfs.ErrNotFamfs.WithMessage(fullPath + " exists and is not a directory")
	}

	if err := os.MkdirAll(fullPath, os.FileMode(entry.Mode)); err != nil {
		return famfs.ErrIo.Wrap(err)
	}

	if entry.Uid != 0 && entry.Gid != 0 {
		if err := os.Chown(fullPath, int(entry.Uid), int(entry.Gid)); err != nil {
			return famfs.ErrIo.Wrap(err)
		}
	}
	return nil
}
