// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Copyright (c) 2024 Matthew Penner

//go:build linux

package ufs

import (
	iofs "io/fs"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

type fileInfo struct {
	name string
	sys  unix.Stat_t
}

var _ FileInfo = (*fileInfo)(nil)

func newFileInfo(name string, st *unix.Stat_t) *fileInfo {
	return &fileInfo{name: filepath.Base(name), sys: *st}
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.sys.Size }
func (fi *fileInfo) ModTime() time.Time { return time.Unix(fi.sys.Mtim.Unix()) }
func (fi *fileInfo) IsDir() bool        { return fi.Mode().IsDir() }
func (fi *fileInfo) Sys() any           { return &fi.sys }

var typeBits = map[uint32]FileMode{
	unix.S_IFDIR:  iofs.ModeDir,
	unix.S_IFLNK:  iofs.ModeSymlink,
	unix.S_IFIFO:  iofs.ModeNamedPipe,
	unix.S_IFSOCK: iofs.ModeSocket,
	unix.S_IFBLK:  iofs.ModeDevice,
	unix.S_IFCHR:  iofs.ModeDevice | iofs.ModeCharDevice,
}

func (fi *fileInfo) Mode() FileMode {
	m := FileMode(fi.sys.Mode & 0o777)
	m |= typeBits[fi.sys.Mode&unix.S_IFMT]
	if fi.sys.Mode&unix.S_ISUID != 0 {
		m |= iofs.ModeSetuid
	}
	if fi.sys.Mode&unix.S_ISGID != 0 {
		m |= iofs.ModeSetgid
	}
	if fi.sys.Mode&unix.S_ISVTX != 0 {
		m |= iofs.ModeSticky
	}
	return m
}
