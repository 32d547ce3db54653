package fsops

import (
	"io"
	"os"
	"syscall"

	"github.com/famfs-go/famfs"
)

// Cp copies srcPath's contents into a new famfs file at dstPath, sized to
// src's size (its extent rounded up to whole allocation units) and carrying
// its mode, uid, and gid. dstPath must not already exist.
func Cp(srcPath, dstPath string) error {
	if _, err := os.Stat(dstPath); err == nil {
		return famfs.ErrNotFamfs.WithMessage(dstPath + " already exists")
	}

	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		return famfs.ErrIo.Wrap(err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return famfs.ErrIo.Wrap(err)
	}
	defer src.Close()

	var uid, gid uint32
	if statT, ok := srcInfo.Sys().(*syscall.Stat_t); ok {
		uid, gid = statT.Uid, statT.Gid
	}

	dst, err := Mkfile(dstPath, uint64(srcInfo.Size()), CreateOptions{
		Mode: uint32(srcInfo.Mode().Perm()),
		Uid:  uid,
		Gid:  gid,
	})
	if err != nil {
		return err
	}
	defer dst.Close()

	const chunkSize = 1 << 20
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(dst, src, buf); err != nil {
		_ = os.Remove(dstPath)
		return famfs.ErrIo.Wrap(err)
	}

	return nil
}
