// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Copyright (c) 2024 Matthew Penner

//go:build linux

package ufs

import (
	"errors"

	"golang.org/x/sys/unix"
)

// errnoMap lists the errno values which are translated into one of the
// package sentinels. Anything not listed is passed through untouched.
var errnoMap = map[unix.Errno]error{
	unix.EEXIST:    ErrExist,
	unix.ENOTEMPTY: ErrExist,
	unix.EISDIR:    ErrIsDirectory,
	unix.ENOTDIR:   ErrNotDirectory,
	unix.ENOENT:    ErrNotExist,
	unix.EPERM:     ErrPermission,
	unix.EACCES:    ErrPermission,
	// openat2 with RESOLVE_BENEATH reports an escape as EXDEV.
	unix.EXDEV: ErrBadPathResolution,
	// O_NOFOLLOW on a symlink.
	unix.ELOOP: ErrBadPathResolution,
}

// convertErrorType rewrites the error held by a *PathError so that callers
// can rely on errors.Is against the package sentinels.
func convertErrorType(err error) error {
	if err == nil {
		return nil
	}
	var pErr *PathError
	if !errors.As(err, &pErr) {
		return err
	}
	var errno unix.Errno
	if !errors.As(pErr.Err, &errno) {
		return err
	}
	if sentinel, ok := errnoMap[errno]; ok {
		return &PathError{Op: pErr.Op, Path: pErr.Path, Err: sentinel}
	}
	return err
}
