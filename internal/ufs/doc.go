// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Copyright (c) 2024 Matthew Penner

// Package ufs performs disk I/O beneath a single base directory. Every call is
// resolved relative to a file descriptor held on that directory, so untrusted
// paths (including ones crossing symlinks) cannot reach a location above it.
//
// The package only exposes the primitives needed by the disk backend of the
// filesystem package: open, stat, mkdir, remove and recursive remove. It is
// not a general purpose replacement for the os package.
package ufs
