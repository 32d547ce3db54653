package famfs_test

import (
	"errors"
	"testing"

	"github.com/famfs-go/famfs"
	"github.com/stretchr/testify/assert"
)

func TestFamfsErrorWithMessage(t *testing.T) {
	newErr := famfs.ErrOutOfSpace.WithMessage("requested 3 AUs")
	assert.Equal(t, "no space left on device: requested 3 AUs", newErr.Error())
	assert.ErrorIs(t, newErr, famfs.ErrOutOfSpace)
}

func TestFamfsErrorWrap(t *testing.T) {
	originalErr := errors.New("mmap failed")
	newErr := famfs.ErrIo.Wrap(originalErr)

	assert.Equal(t, "input/output error: mmap failed", newErr.Error())
	assert.ErrorIs(t, newErr, originalErr)
	assert.ErrorIs(t, newErr, famfs.ErrIo)
}

func TestLogEntryKindString(t *testing.T) {
	assert.Equal(t, "FILE_CREATE", famfs.LogEntryFileCreate.String())
	assert.Equal(t, "MKDIR", famfs.LogEntryMkdir.String())
	assert.Equal(t, "ACCESS", famfs.LogEntryAccess.String())
	assert.Equal(t, "INVALID", famfs.LogEntryKind(99).String())
}

func TestRoundUpToAU(t *testing.T) {
	assert.EqualValues(t, famfs.AllocUnitSize, famfs.RoundUpToAU(1))
	assert.EqualValues(t, famfs.AllocUnitSize, famfs.RoundUpToAU(famfs.AllocUnitSize))
	assert.EqualValues(t, 2*famfs.AllocUnitSize, famfs.RoundUpToAU(famfs.AllocUnitSize+1))
	assert.EqualValues(t, 1, famfs.AUCount(famfs.AllocUnitSize))
	assert.EqualValues(t, 2, famfs.AUCount(famfs.AllocUnitSize+1))
}
