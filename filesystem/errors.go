package filesystem

import (
	"fmt"
	iofs "io/fs"

	"emperror.dev/errors"
	"github.com/apex/log"

	"github.com/pterodactyl/sandboxfs/internal/ufs"
)

type ErrorCode string

const (
	ErrCodeAccessDenied  ErrorCode = "E_ACCESS_DENIED"
	ErrCodeCapability    ErrorCode = "E_CAPABILITY"
	ErrCodeNotFound      ErrorCode = "E_NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "E_EXISTS"
	ErrCodeIsDirectory   ErrorCode = "E_ISDIR"
	ErrCodeNotDirectory  ErrorCode = "E_NOTDIR"
	ErrCodeBackend       ErrorCode = "E_BACKEND"
	ErrCodeIteration     ErrorCode = "E_ITERATION"
	ErrCodeDenylisted    ErrorCode = "E_DENYLIST"
)

// ErrCapability is returned by a backend when a request needs a capability
// the filesystem was not constructed with.
const ErrCapability = errors.Sentinel("filesystem: capability not supported")

type Error struct {
	code ErrorCode
	// Contains the underlying error leading to this. This value may or may not be
	// present, it is dependent on the error code.
	err error
	// The sub-path the caller asked for.
	path string
	// The location the path resolved to, if known.
	resolved string
}

// newPathError returns a new error instance with a stack trace attached to
// it, recording the sub-path and its resolution.
func newPathError(code ErrorCode, path, resolved string, err error) error {
	return errors.WithStackDepth(&Error{code: code, err: err, path: path, resolved: resolved}, 1)
}

// NewAccessDenied returns an error for a path rejected by the guard, or one the
// backend refused to resolve inside of the root.
func NewAccessDenied(path string, resolved string) error {
	return errors.WithStackDepth(&Error{code: ErrCodeAccessDenied, path: path, resolved: resolved}, 1)
}

// Code returns the ErrorCode for this specific error instance.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Path returns the sub-path the error was raised for.
func (e *Error) Path() string {
	return e.path
}

// Error returns a human-readable error string to identify the Error by.
func (e *Error) Error() string {
	switch e.code {
	case ErrCodeAccessDenied:
		r := e.resolved
		if r == "" {
			r = "<empty>"
		}
		return fmt.Sprintf("filesystem: path [%s] resolves to a location outside the root: %s", e.path, r)
	case ErrCodeCapability:
		return fmt.Sprintf("filesystem: operation on [%s] requires a capability this filesystem does not have", e.path)
	case ErrCodeNotFound:
		return fmt.Sprintf("filesystem: no such file or directory: %s", e.path)
	case ErrCodeAlreadyExists:
		return fmt.Sprintf("filesystem: entity already exists: %s", e.path)
	case ErrCodeIsDirectory:
		return fmt.Sprintf("filesystem: cannot perform action: [%s] is a directory", e.path)
	case ErrCodeNotDirectory:
		return fmt.Sprintf("filesystem: cannot perform action: [%s] is not a directory", e.path)
	case ErrCodeDenylisted:
		return fmt.Sprintf("filesystem: file access prohibited: [%s] is on the denylist", e.path)
	case ErrCodeIteration:
		return fmt.Sprintf("filesystem: failed to read directory entry [%s]: %s", e.path, e.cause())
	}
	return fmt.Sprintf("filesystem: backend error for [%s]: %s", e.path, e.cause())
}

func (e *Error) cause() string {
	if e.err == nil {
		return "<nil>"
	}
	return e.err.Error()
}

// Unwrap returns the underlying cause of this error, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// Is allows the typed error to be compared against the io/fs sentinels, so
// callers that only know about the standard library still work.
func (e *Error) Is(target error) bool {
	switch target {
	case iofs.ErrNotExist:
		return e.code == ErrCodeNotFound
	case iofs.ErrExist:
		return e.code == ErrCodeAlreadyExists
	case iofs.ErrPermission:
		return e.code == ErrCodeAccessDenied || e.code == ErrCodeCapability || e.code == ErrCodeDenylisted
	}
	return false
}

// IsErrorCode checks if "err" is a filesystem Error type. If so, it will then
// drop in and check that the error code is the same as the provided ErrorCode
// passed in "code".
func IsErrorCode(err error, code ErrorCode) bool {
	var fserr *Error
	if errors.As(err, &fserr) {
		return fserr.code == code
	}
	return false
}

// IsAccessDenied reports whether err was produced by a path leaving the root.
func IsAccessDenied(err error) bool {
	return IsErrorCode(err, ErrCodeAccessDenied)
}

// wrapBackendError converts an error returned by a Backend into the typed
// error for the operation. Errors that are already typed pass through.
func wrapBackendError(err error, path, resolved string) error {
	if err == nil {
		return nil
	}
	var fserr *Error
	if errors.As(err, &fserr) {
		return err
	}
	switch {
	case errors.Is(err, ErrCapability):
		return newPathError(ErrCodeCapability, path, resolved, err)
	case errors.Is(err, ufs.ErrBadPathResolution):
		return newPathError(ErrCodeAccessDenied, path, resolved, err)
	case errors.Is(err, ufs.ErrIsDirectory):
		return newPathError(ErrCodeIsDirectory, path, resolved, err)
	case errors.Is(err, ufs.ErrNotDirectory):
		return newPathError(ErrCodeNotDirectory, path, resolved, err)
	case errors.Is(err, iofs.ErrNotExist):
		return newPathError(ErrCodeNotFound, path, resolved, err)
	case errors.Is(err, iofs.ErrExist):
		return newPathError(ErrCodeAlreadyExists, path, resolved, err)
	}
	return newPathError(ErrCodeBackend, path, resolved, err)
}

// Generates an error logger instance with some basic information.
func (fs *Filesystem) error(err error) *log.Entry {
	return fs.log().WithField("error", err)
}
