// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Copyright (c) 2024 Matthew Penner

package ufs

import (
	"errors"
	iofs "io/fs"
)

var (
	// ErrIsDirectory is returned when an operation that only works on files is
	// given a directory.
	ErrIsDirectory = errors.New("is a directory")
	// ErrNotDirectory is returned when an operation that only works on
	// directories is given something else.
	ErrNotDirectory = errors.New("not a directory")
	// ErrBadPathResolution is returned when a path resolves to a location
	// outside of the base directory, or to the base directory itself for
	// operations that may not touch it.
	ErrBadPathResolution = errors.New("bad path resolution")

	ErrClosed     = iofs.ErrClosed
	ErrExist      = iofs.ErrExist
	ErrNotExist   = iofs.ErrNotExist
	ErrPermission = iofs.ErrPermission
)

// PathError records an error and the operation and file path that caused it.
type PathError = iofs.PathError
