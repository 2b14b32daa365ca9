package filesystem

import (
	iofs "io/fs"
	"os"
	"path/filepath"

	"emperror.dev/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// billyBackend adapts a go-billy filesystem. It backs both the in-memory
// backend and the portable disk backend.
type billyBackend struct {
	bfs billy.Filesystem
}

var _ Backend = (*billyBackend)(nil)

// NewMemoryBackend returns an empty backend held entirely in memory.
func NewMemoryBackend() Backend {
	return &billyBackend{bfs: memfs.New()}
}

// NewOSBackend returns a disk backend rooted at root. Paths, symlinks
// included, are resolved by billy's bound OS so they cannot leave root.
func NewOSBackend(root string) (Backend, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, errors.WrapIf(err, "filesystem: failed to open root directory")
	}
	if !st.IsDir() {
		return nil, errors.Errorf("filesystem: root %s is not a directory", root)
	}
	return &billyBackend{bfs: osfs.New(root, osfs.WithBoundOS())}, nil
}

// NewBillyBackend wraps an existing billy filesystem, treating its root as
// the root of the Filesystem.
func NewBillyBackend(bfs billy.Filesystem) Backend {
	return &billyBackend{bfs: bfs}
}

// Unwrap returns the underlying billy filesystem.
func (b *billyBackend) Unwrap() billy.Filesystem {
	return b.bfs
}

func normalize(name string) string {
	return filepath.ToSlash(filepath.Clean(name))
}

func (b *billyBackend) Stat(name string) (iofs.FileInfo, error) {
	return b.bfs.Lstat(normalize(name))
}

func (b *billyBackend) OpenFile(name string, flag int, perm iofs.FileMode) (BackendFile, error) {
	name = normalize(name)
	f, err := b.bfs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &billyFile{File: f, bfs: b.bfs, name: name}, nil
}

func (b *billyBackend) MkdirAll(name string, perm iofs.FileMode) error {
	return b.bfs.MkdirAll(normalize(name), perm)
}

func (b *billyBackend) Remove(name string) error {
	return b.bfs.Remove(normalize(name))
}

func (b *billyBackend) RemoveAll(name string) error {
	return util.RemoveAll(b.bfs, normalize(name))
}

// ReadDir lists the directory up front, billy has no streaming listing. The
// entries are still inspected lazily by the caller.
func (b *billyBackend) ReadDir(name string) (DirScanner, error) {
	infos, err := b.bfs.ReadDir(normalize(name))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, fi := range infos {
		names[i] = fi.Name()
	}
	return &sliceScanner{names: names}, nil
}

func (b *billyBackend) Close() error {
	return nil
}

// billyFile adds Stat to billy.File, which does not carry it.
type billyFile struct {
	billy.File
	bfs  billy.Filesystem
	name string
}

var _ BackendFile = (*billyFile)(nil)

func (f *billyFile) Stat() (iofs.FileInfo, error) {
	if s, ok := f.File.(interface{ Stat() (os.FileInfo, error) }); ok {
		return s.Stat()
	}
	return f.bfs.Stat(f.name)
}
