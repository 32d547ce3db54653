// Package sysfs resolves the byte capacity of a character- or block-device
// path by reading the one sysfs integer attribute the kernel exposes for it.
// It does not inspect any other file-stat behavior.
package sysfs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/famfs-go/famfs"
)

const blockSectorSize = 512

// DeviceSize resolves path to its byte capacity by reading the matching
// sysfs size attribute. Block devices report size in 512-byte sectors;
// character devices report it directly in bytes.
func DeviceSize(path string) (uint64, error) {
	var st syscall.Stat_t
	if err := syscall.Stat(path, &st); err != nil {
		return 0, famfs.ErrNotADaxDevice.Wrap(fmt.Errorf("stat %s: %w", path, err))
	}

	switch st.Mode & syscall.S_IFMT {
	case syscall.S_IFBLK:
		return readSysfsSize(blockSizePath(path), blockSectorSize)
	case syscall.S_IFCHR:
		return readSysfsSize(charSizePath(st.Rdev), 1)
	default:
		return 0, famfs.ErrNotADaxDevice.WithMessage(fmt.Sprintf("%s is neither a block nor character device", path))
	}
}

func blockSizePath(devPath string) string {
	return filepath.Join("/sys/class/block", filepath.Base(devPath), "size")
}

func charSizePath(rdev uint64) string {
	major := (rdev >> 8) & 0xfff
	minor := (rdev & 0xff) | ((rdev >> 12) &^ 0xff)
	return fmt.Sprintf("/sys/dev/char/%d:%d/size", major, minor)
}

func readSysfsSize(path string, unitBytes uint64) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, famfs.ErrSysfsUnavailable.Wrap(fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return 0, famfs.ErrSysfsUnavailable.Wrap(fmt.Errorf("read %s: %w", path, err))
	}

	n, err := strconv.ParseUint(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, famfs.ErrSysfsUnavailable.Wrap(fmt.Errorf("parse %s: %w", path, err))
	}
	return n * unitBytes, nil
}
