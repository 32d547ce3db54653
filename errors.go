package famfs

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// FamfsError is a library error: one of a fixed set of sentinel kinds,
// optionally carrying a custom message or a wrapped cause.
type FamfsError interface {
	error
	WithMessage(message string) FamfsError
	Wrap(err error) FamfsError
}

// kind identifies which sentinel an error descends from, independent of
// whatever message text it's been given along the way. errors.Is compares
// on kind rather than on message or identity, so WithMessage and Wrap can
// freely produce new values without losing that identity.
type kind int

const (
	kindBadSuperblock kind = iota
	kindLogFull
	kindLogCorrupt
	kindAllocCollision
	kindOutOfSpace
	kindNotFamfs
	kindNotMounted
	kindBusy
	kindPathNotRelative
	kindPathNotInMount
	kindIoctlFailed
	kindIo
	kindInvalidArg
	kindNotADaxDevice
	kindSysfsUnavailable
)

type famfsError struct {
	kind    kind
	message string
	cause   error
}

func sentinel(k kind, message string) *famfsError {
	return &famfsError{kind: k, message: message}
}

var ErrBadSuperblock FamfsError = sentinel(kindBadSuperblock, "bad superblock")
var ErrLogFull FamfsError = sentinel(kindLogFull, "log is full")
var ErrLogCorrupt FamfsError = sentinel(kindLogCorrupt, "log is corrupt")
var ErrAllocCollision FamfsError = sentinel(kindAllocCollision, "allocation collision")
var ErrOutOfSpace FamfsError = sentinel(kindOutOfSpace, "no space left on device")
var ErrNotFamfs FamfsError = sentinel(kindNotFamfs, "not a famfs file")
var ErrNotMounted FamfsError = sentinel(kindNotMounted, "famfs file system not mounted")
var ErrBusy FamfsError = sentinel(kindBusy, "device or resource busy")
var ErrPathNotRelative FamfsError = sentinel(kindPathNotRelative, "path is not relative")
var ErrPathNotInMount FamfsError = sentinel(kindPathNotInMount, "path is not inside a famfs mount")
var ErrIoctlFailed FamfsError = sentinel(kindIoctlFailed, "ioctl failed")
var ErrIo FamfsError = sentinel(kindIo, "input/output error")
var ErrInvalidArg FamfsError = sentinel(kindInvalidArg, "invalid argument")
var ErrNotADaxDevice FamfsError = sentinel(kindNotADaxDevice, "not a DAX-capable device")
var ErrSysfsUnavailable FamfsError = sentinel(kindSysfsUnavailable, "sysfs attribute unavailable")

func (e *famfsError) Error() string {
	return e.message
}

func (e *famfsError) Is(target error) bool {
	other, ok := target.(*famfsError)
	return ok && other.kind == e.kind
}

func (e *famfsError) Unwrap() error {
	return e.cause
}

func (e *famfsError) WithMessage(message string) FamfsError {
	return &famfsError{
		kind:    e.kind,
		message: fmt.Sprintf("%s: %s", e.message, message),
		cause:   e,
	}
}

func (e *famfsError) Wrap(err error) FamfsError {
	return &famfsError{
		kind:    e.kind,
		message: fmt.Sprintf("%s: %s", e.message, err.Error()),
		cause:   multierror.Append(e, err),
	}
}
