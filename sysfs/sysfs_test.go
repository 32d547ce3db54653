package sysfs_test

import (
	"testing"

	"github.com/famfs-go/famfs/sysfs"
	"github.com/stretchr/testify/assert"
)

func TestDeviceSizeRejectsRegularFile(t *testing.T) {
	_, err := sysfs.DeviceSize("/etc/hostname")
	assert.Error(t, err)
}

func TestDeviceSizeRejectsMissingPath(t *testing.T) {
	_, err := sysfs.DeviceSize("/nonexistent/dax0.0")
	assert.Error(t, err)
}
