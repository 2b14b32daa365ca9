// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Copyright (c) 2024 Matthew Penner

//go:build linux

package ufs

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// removeAllAt removes name, found inside of dirfd, and everything beneath it.
// Children are always opened relative to their parent's descriptor so a
// symlink swapped in mid-removal is unlinked rather than followed.
func (fs *UnixFS) removeAllAt(dirfd int, name string) error {
	err := fs.unlinkat(dirfd, name, 0)
	if err == nil || err == unix.ENOENT {
		return nil
	}
	if err != unix.EISDIR && err != unix.EPERM {
		return convertErrorType(&PathError{Op: "unlinkat", Path: name, Err: err})
	}

	fd, err := fs.openat(dirfd, name, O_DIRECTORY|O_RDONLY, 0)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return nil
		}
		return err
	}
	dir := os.NewFile(uintptr(fd), name)
	defer dir.Close()

	// Read every name up front, removing entries while the directory stream
	// is open can cause getdents to skip some of them.
	names, err := dir.Readdirnames(-1)
	if err != nil {
		return convertErrorType(&PathError{Op: "readdirent", Path: name, Err: err})
	}
	for _, child := range names {
		if err := fs.removeAllAt(fd, child); err != nil {
			return err
		}
	}

	if err := fs.unlinkat(dirfd, name, AT_REMOVEDIR); err != nil && err != unix.ENOENT {
		return convertErrorType(&PathError{Op: "unlinkat", Path: name, Err: err})
	}
	return nil
}
