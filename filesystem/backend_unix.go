//go:build linux

package filesystem

import (
	iofs "io/fs"
	"path/filepath"
	"strconv"

	"emperror.dev/errors"
	"github.com/karrick/godirwalk"

	"github.com/pterodactyl/sandboxfs/internal/ufs"
)

const defaultBackendKind = BackendUnix

// unixBackend stores entities on disk through ufs, which keeps every
// syscall anchored beneath the root directory descriptor.
type unixBackend struct {
	fs *ufs.UnixFS
}

var _ Backend = (*unixBackend)(nil)

// NewUnixBackend opens root, which must be an existing directory. With
// useOpenat2 the kernel enforces containment (Linux 5.6+), otherwise every
// opened descriptor is checked after the fact.
func NewUnixBackend(root string, useOpenat2 bool) (Backend, error) {
	u, err := ufs.NewUnixFS(root, useOpenat2)
	if err != nil {
		return nil, errors.WrapIf(err, "filesystem: failed to open root directory")
	}
	return &unixBackend{fs: u}, nil
}

func (b *unixBackend) Stat(name string) (iofs.FileInfo, error) {
	return b.fs.Lstat(name)
}

func (b *unixBackend) OpenFile(name string, flag int, perm iofs.FileMode) (BackendFile, error) {
	f, err := b.fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (b *unixBackend) MkdirAll(name string, perm iofs.FileMode) error {
	return b.fs.MkdirAll(name, perm)
}

func (b *unixBackend) Remove(name string) error {
	return b.fs.Remove(name)
}

func (b *unixBackend) RemoveAll(name string) error {
	return b.fs.RemoveAll(name)
}

// ReadDir opens the directory through ufs so the path is validated, then
// lists it through the /proc entry of that descriptor. The listing can
// therefore never be redirected by a path swapped in after the check.
func (b *unixBackend) ReadDir(name string) (DirScanner, error) {
	d, err := b.fs.OpenDir(name)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	s, err := godirwalk.NewScanner(filepath.Join("/proc/self/fd", strconv.Itoa(int(d.Fd()))))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return s, nil
}

func (b *unixBackend) Close() error {
	return b.fs.Close()
}

func openDiskBackend(root string, useOpenat2 bool) (Backend, error) {
	return NewUnixBackend(root, useOpenat2)
}
