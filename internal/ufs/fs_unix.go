// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Copyright (c) 2024 Matthew Penner

//go:build linux

package ufs

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// UnixFS performs I/O beneath basePath using *at syscalls anchored on a
// directory file descriptor.
type UnixFS struct {
	// basePath is the absolute, cleaned path of the sandbox directory.
	basePath string

	// dirfd holds the file descriptor of basePath, or -1 once closed.
	dirfd atomic.Int64

	// useOpenat2 switches path resolution to openat2 with RESOLVE_BENEATH.
	// When disabled every opened descriptor is verified through /proc.
	useOpenat2 bool
}

// NewUnixFS opens basePath and returns a filesystem confined to it. The base
// directory must already exist. Symlinks in basePath are resolved once here,
// descriptors are compared against the real location afterwards.
func NewUnixFS(basePath string, useOpenat2 bool) (*UnixFS, error) {
	basePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}
	if basePath, err = filepath.EvalSymlinks(basePath); err != nil {
		return nil, convertErrorType(err)
	}
	var dirfd int
	err = ignoringEINTR(func() (err error) {
		dirfd, err = unix.Open(basePath, O_DIRECTORY|O_RDONLY|O_CLOEXEC, 0)
		return err
	})
	if err != nil {
		return nil, convertErrorType(&PathError{Op: "open", Path: basePath, Err: err})
	}

	fs := &UnixFS{basePath: basePath, useOpenat2: useOpenat2}
	fs.dirfd.Store(int64(dirfd))
	return fs, nil
}

// Close releases the base directory descriptor. Any call made afterwards
// fails with ErrClosed.
func (fs *UnixFS) Close() error {
	fd := fs.dirfd.Swap(-1)
	if fd == -1 {
		return ErrClosed
	}
	return unix.Close(int(fd))
}

// OpenFile opens name with the given flags. The final path element is never
// followed if it is a symlink.
func (fs *UnixFS) OpenFile(name string, flag int, mode FileMode) (*os.File, error) {
	dirfd, file, closeFd, err := fs.safePath(name)
	defer closeFd()
	if err != nil {
		return nil, err
	}
	fd, err := fs.openat(dirfd, file, flag, mode)
	if err != nil {
		return nil, err
	}
	// The returned file owns fd from here on.
	return os.NewFile(uintptr(fd), name), nil
}

// OpenDir opens name as a directory for listing.
func (fs *UnixFS) OpenDir(name string) (*os.File, error) {
	return fs.OpenFile(name, O_DIRECTORY|O_RDONLY, 0)
}

// MkdirAll creates name along with any missing parents. Each level is opened
// relative to the previous one, so a symlinked parent cannot redirect the
// creation outside of the base directory.
func (fs *UnixFS) MkdirAll(name string, mode FileMode) error {
	name, err := fs.unsafePath(name)
	if err != nil {
		return err
	}
	if name == "." {
		return nil
	}
	root, err := fs.rootfd()
	if err != nil {
		return err
	}
	parent := root
	closeParent := func() {}
	defer func() { closeParent() }()

	elems := strings.Split(name, "/")
	for i, elem := range elems {
		if err := fs.mkdirat(parent, elem, mode); err != nil && !isErrno(err, unix.EEXIST) {
			return convertErrorType(err)
		}
		var fd int
		if fs.useOpenat2 {
			fd, err = fs.openDirBeneath(root, strings.Join(elems[:i+1], "/"))
		} else {
			fd, err = fs.openDirAt(parent, elem)
		}
		if err != nil {
			return err
		}
		closeParent()
		parent = fd
		closeParent = func() { _ = unix.Close(fd) }
	}
	return nil
}

// Stat returns information about name, following a final symlink.
func (fs *UnixFS) Stat(name string) (FileInfo, error) {
	return fs.fstat(name, 0)
}

// Lstat returns information about name without following a final symlink.
func (fs *UnixFS) Lstat(name string) (FileInfo, error) {
	return fs.fstat(name, AT_SYMLINK_NOFOLLOW)
}

func (fs *UnixFS) fstat(name string, flags int) (FileInfo, error) {
	dirfd, file, closeFd, err := fs.safePath(name)
	defer closeFd()
	if err != nil {
		return nil, err
	}
	var st unix.Stat_t
	if err := ignoringEINTR(func() error {
		return unix.Fstatat(dirfd, file, &st, flags)
	}); err != nil {
		return nil, convertErrorType(&PathError{Op: "stat", Path: name, Err: err})
	}
	return newFileInfo(name, &st), nil
}

// Remove removes a file or an empty directory. The base directory can never
// be removed.
func (fs *UnixFS) Remove(name string) error {
	dirfd, file, closeFd, err := fs.safePath(name)
	defer closeFd()
	if err != nil {
		return err
	}
	if file == "." {
		return &PathError{Op: "remove", Path: name, Err: ErrBadPathResolution}
	}

	err = fs.unlinkat(dirfd, file, 0)
	if err == nil {
		return nil
	}
	// unlink on a directory fails with EISDIR (or EPERM on some kernels),
	// rmdir on a file always fails with ENOTDIR, so prefer whichever error
	// is not ENOTDIR.
	rmErr := fs.unlinkat(dirfd, file, AT_REMOVEDIR)
	if rmErr == nil {
		return nil
	}
	if rmErr != unix.ENOTDIR {
		err = rmErr
	}
	return convertErrorType(&PathError{Op: "remove", Path: name, Err: err})
}

// RemoveAll removes name and everything beneath it. A missing path is not an
// error. The base directory can never be removed.
func (fs *UnixFS) RemoveAll(name string) error {
	clean, err := fs.unsafePath(name)
	if err != nil {
		return err
	}
	if clean == "." {
		return &PathError{Op: "removeall", Path: name, Err: ErrBadPathResolution}
	}
	dirfd, file, closeFd, err := fs.safePath(clean)
	defer closeFd()
	if err != nil {
		// A missing parent means there is nothing to remove.
		if errors.Is(err, ErrNotExist) {
			return nil
		}
		return err
	}
	return fs.removeAllAt(dirfd, file)
}

func (fs *UnixFS) mkdirat(dirfd int, name string, mode FileMode) error {
	err := ignoringEINTR(func() error {
		return unix.Mkdirat(dirfd, name, uint32(mode.Perm()))
	})
	if err != nil {
		return &PathError{Op: "mkdirat", Path: name, Err: err}
	}
	return nil
}

func (fs *UnixFS) unlinkat(dirfd int, name string, flags int) error {
	return ignoringEINTR(func() error {
		return unix.Unlinkat(dirfd, name, flags)
	})
}

// openat opens name relative to dirfd. With openat2 the kernel refuses any
// resolution leaving dirfd, otherwise the resulting descriptor is checked
// against the base path after the fact.
func (fs *UnixFS) openat(dirfd int, name string, flag int, mode FileMode) (int, error) {
	flag |= O_NOFOLLOW | O_CLOEXEC

	var fd int
	err := ignoringEINTR(func() (err error) {
		if fs.useOpenat2 {
			fd, err = unix.Openat2(dirfd, name, &unix.OpenHow{
				Flags:   uint64(flag | O_LARGEFILE),
				Mode:    uint64(mode.Perm()),
				Resolve: unix.RESOLVE_BENEATH,
			})
		} else {
			fd, err = unix.Openat(dirfd, name, flag, uint32(mode.Perm()))
		}
		return err
	})
	if err != nil {
		// O_NOFOLLOW|O_DIRECTORY on a symlink fails with ENOTDIR rather
		// than ELOOP.
		if err == unix.ENOTDIR && fs.isSymlinkAt(dirfd, name) {
			err = unix.ELOOP
		}
		return 0, convertErrorType(&PathError{Op: "openat", Path: name, Err: err})
	}

	if !fs.useOpenat2 {
		if err := fs.verifyFd(fd, name); err != nil {
			_ = unix.Close(fd)
			return 0, err
		}
	}
	return fd, nil
}

// openDirBeneath opens dir relative to dirfd with openat2, following any
// symlink that stays beneath dirfd.
func (fs *UnixFS) openDirBeneath(dirfd int, dir string) (int, error) {
	var fd int
	err := ignoringEINTR(func() (err error) {
		fd, err = unix.Openat2(dirfd, dir, &unix.OpenHow{
			Flags:   uint64(O_DIRECTORY | O_RDONLY | O_CLOEXEC | O_LARGEFILE),
			Resolve: unix.RESOLVE_BENEATH,
		})
		return err
	})
	if err != nil {
		return 0, convertErrorType(&PathError{Op: "openat2", Path: dir, Err: err})
	}
	return fd, nil
}

// openDirAt opens the single directory element elem inside of parent. A
// symlink is followed, but where it lands must be inside of the base path.
// A symlink that cannot be opened is a bad path resolution, so nothing about
// its target is revealed.
func (fs *UnixFS) openDirAt(parent int, elem string) (int, error) {
	var fd int
	err := ignoringEINTR(func() (err error) {
		fd, err = unix.Openat(parent, elem, O_DIRECTORY|O_RDONLY|O_CLOEXEC, 0)
		return err
	})
	if err != nil {
		if fs.isSymlinkAt(parent, elem) {
			return 0, &PathError{Op: "openat", Path: elem, Err: ErrBadPathResolution}
		}
		return 0, convertErrorType(&PathError{Op: "openat", Path: elem, Err: err})
	}
	if err := fs.verifyFd(fd, elem); err != nil {
		_ = unix.Close(fd)
		return 0, err
	}
	return fd, nil
}

// openDir opens dir, one element at a time unless openat2 is in use. The
// caller owns the returned descriptor.
func (fs *UnixFS) openDir(root int, dir string) (int, error) {
	if fs.useOpenat2 {
		return fs.openDirBeneath(root, dir)
	}
	parent := root
	for _, elem := range strings.Split(dir, "/") {
		fd, err := fs.openDirAt(parent, elem)
		if parent != root {
			_ = unix.Close(parent)
		}
		if err != nil {
			return -1, err
		}
		parent = fd
	}
	return parent, nil
}

func (fs *UnixFS) isSymlinkAt(dirfd int, name string) bool {
	var st unix.Stat_t
	if err := unix.Fstatat(dirfd, name, &st, AT_SYMLINK_NOFOLLOW); err != nil {
		return false
	}
	return st.Mode&unix.S_IFMT == unix.S_IFLNK
}

// verifyFd resolves the real location of an open descriptor and makes sure
// it is still inside of the base path.
func (fs *UnixFS) verifyFd(fd int, name string) error {
	p, err := os.Readlink(filepath.Join("/proc/self/fd", strconv.Itoa(fd)))
	if err != nil {
		return convertErrorType(err)
	}
	if !fs.isInsideBase(p) {
		return &PathError{Op: "openat", Path: name, Err: ErrBadPathResolution}
	}
	return nil
}

func (fs *UnixFS) rootfd() (int, error) {
	fd := int(fs.dirfd.Load())
	if fd == -1 {
		return -1, ErrClosed
	}
	return fd, nil
}

// safePath returns a descriptor for the parent of path along with the final
// path element. closeFd must always be called, even when err is not nil.
func (fs *UnixFS) safePath(path string) (dirfd int, file string, closeFd func(), err error) {
	closeFd = func() {}

	name, err := fs.unsafePath(path)
	if err != nil {
		return -1, "", closeFd, err
	}
	root, err := fs.rootfd()
	if err != nil {
		return -1, "", closeFd, err
	}

	dir, file := filepath.Split(name)
	if dir == "" {
		return root, file, closeFd, nil
	}

	dirfd, err = fs.openDir(root, strings.TrimSuffix(dir, "/"))
	if err != nil {
		return -1, "", closeFd, err
	}
	return dirfd, file, func() { _ = unix.Close(dirfd) }, nil
}

// unsafePath cleans path and returns it relative to the base directory, or
// "." for the base itself. The result is lexically inside of the base path,
// symlinks are only dealt with once the path is opened.
func (fs *UnixFS) unsafePath(path string) (string, error) {
	r := filepath.Clean(filepath.Join(fs.basePath, path))
	if !fs.isInsideBase(r) {
		return "", &PathError{Op: "safePath", Path: path, Err: ErrBadPathResolution}
	}
	r = strings.TrimPrefix(strings.TrimPrefix(r, fs.basePath), "/")
	if r == "" {
		return ".", nil
	}
	return r, nil
}

func (fs *UnixFS) isInsideBase(path string) bool {
	if fs.basePath == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == fs.basePath || strings.HasPrefix(path, fs.basePath+"/")
}

// ignoringEINTR repeats fn for as long as it is interrupted by a signal.
func ignoringEINTR(fn func() error) error {
	for {
		if err := fn(); err != unix.EINTR {
			return err
		}
	}
}

func isErrno(err error, errno unix.Errno) bool {
	if pErr, ok := err.(*PathError); ok {
		err = pErr.Err
	}
	return err == errno
}
