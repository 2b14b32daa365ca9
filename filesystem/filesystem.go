package filesystem

import (
	"os"

	"github.com/apex/log"
)

const (
	defaultFileMode = 0o644
	defaultDirMode  = 0o755
)

// Filesystem confines every operation to the subtree below root. The root,
// the capability set and the guard are fixed when the Filesystem is created
// and only ever read afterwards. A Filesystem may be shared for reading its
// root and capabilities, but operations on it should not be issued
// concurrently unless the backend allows it.
type Filesystem struct {
	id      string
	root    string
	caps    Capabilities
	guard   *Guard
	backend Backend
	logger  *log.Entry
}

// ID returns the unique identifier assigned to this instance, used to tell
// log lines of different filesystems apart.
func (fs *Filesystem) ID() string {
	return fs.id
}

// Root returns the base path every operation is confined to.
func (fs *Filesystem) Root() string {
	return fs.root
}

// Capabilities returns the capability set the filesystem was created with.
func (fs *Filesystem) Capabilities() Capabilities {
	return fs.caps
}

func (fs *Filesystem) IsReadable() bool    { return fs.caps.Readable }
func (fs *Filesystem) IsWritable() bool    { return fs.caps.Writable }
func (fs *Filesystem) IsAppendable() bool  { return fs.caps.Appendable }
func (fs *Filesystem) IsTruncatable() bool { return fs.caps.Truncatable }
func (fs *Filesystem) IsRemovable() bool   { return fs.caps.Removable }

// Close releases any resources held by the backend.
func (fs *Filesystem) Close() error {
	return fs.backend.Close()
}

func (fs *Filesystem) log() *log.Entry {
	return fs.logger
}

// check runs sub through the guard and returns the cleaned sub-path along
// with its location under the root.
func (fs *Filesystem) check(sub string) (string, string, error) {
	clean, err := fs.guard.Check(fs.root, sub)
	if err != nil {
		fs.log().WithField("path", sub).WithField("error", err).Warn("refusing access to path outside of filesystem root")
		return "", "", err
	}
	return clean, resolve(fs.root, clean), nil
}

// OpenFile opens an existing file for reading.
func (fs *Filesystem) OpenFile(sub string) (*File, error) {
	clean, resolved, err := fs.check(sub)
	if err != nil {
		return nil, err
	}
	fs.log().WithField("path", clean).Debug("opening file")

	st, err := fs.backend.Stat(clean)
	if err != nil {
		return nil, wrapBackendError(err, sub, resolved)
	}
	if st.IsDir() {
		return nil, newPathError(ErrCodeIsDirectory, sub, resolved, nil)
	}
	f, err := fs.backend.OpenFile(clean, os.O_RDONLY, 0)
	if err != nil {
		return nil, wrapBackendError(err, sub, resolved)
	}
	return newFile(f, clean, resolved), nil
}

// AppendFile opens an existing file with every write going to its end.
func (fs *Filesystem) AppendFile(sub string) (*File, error) {
	clean, resolved, err := fs.check(sub)
	if err != nil {
		return nil, err
	}
	fs.log().WithField("path", clean).Debug("opening file for append")

	if err := fs.mustBeFile(clean, sub, resolved); err != nil {
		return nil, err
	}
	f, err := fs.backend.OpenFile(clean, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return nil, wrapBackendError(err, sub, resolved)
	}
	return newFile(f, clean, resolved), nil
}

// TruncateFile changes the size of an existing file.
func (fs *Filesystem) TruncateFile(sub string, size int64) error {
	clean, resolved, err := fs.check(sub)
	if err != nil {
		return err
	}
	fs.log().WithField("path", clean).WithField("size", size).Debug("truncating file")

	if err := fs.mustBeFile(clean, sub, resolved); err != nil {
		return err
	}
	f, err := fs.backend.OpenFile(clean, os.O_WRONLY, 0)
	if err != nil {
		return wrapBackendError(err, sub, resolved)
	}
	defer f.Close()
	return wrapBackendError(f.Truncate(size), sub, resolved)
}

// OpenDir returns a handle to an existing directory.
func (fs *Filesystem) OpenDir(sub string) (*Directory, error) {
	clean, resolved, err := fs.check(sub)
	if err != nil {
		return nil, err
	}
	fs.log().WithField("path", clean).Debug("opening directory")

	if err := fs.mustBeDir(clean, sub, resolved); err != nil {
		return nil, err
	}
	// Make sure the directory can actually be listed before handing out a
	// handle to it.
	s, err := fs.backend.ReadDir(clean)
	if err != nil {
		return nil, wrapBackendError(err, sub, resolved)
	}
	_ = s.Close()
	return newDirectory(fs.backend, clean, resolved), nil
}

// openFlags returns the access mode used when creating files. Writable
// filesystems get a regular read/write handle, append-only ones a handle
// where every write lands at the end of the file.
func (fs *Filesystem) openFlags() int {
	switch {
	case fs.caps.Writable && fs.caps.Readable:
		return os.O_RDWR
	case fs.caps.Writable:
		return os.O_WRONLY
	default:
		return os.O_WRONLY | os.O_APPEND
	}
}

// CreateFile opens sub for writing, creating it first when missing. When the
// filesystem is both writable and truncatable an existing file is emptied.
func (fs *Filesystem) CreateFile(sub string) (*File, error) {
	clean, resolved, err := fs.check(sub)
	if err != nil {
		return nil, err
	}
	fs.log().WithField("path", clean).Debug("creating file")

	if st, err := fs.backend.Stat(clean); err == nil && st.IsDir() {
		return nil, newPathError(ErrCodeIsDirectory, sub, resolved, nil)
	}
	flag := os.O_CREATE | fs.openFlags()
	if fs.caps.Writable && fs.caps.Truncatable {
		flag |= os.O_TRUNC
	}
	f, err := fs.backend.OpenFile(clean, flag, defaultFileMode)
	if err != nil {
		return nil, wrapBackendError(err, sub, resolved)
	}
	return newFile(f, clean, resolved), nil
}

// CreateNewFile creates sub, failing if anything already exists there. The
// existence check and the creation are a single exclusive open.
func (fs *Filesystem) CreateNewFile(sub string) (*File, error) {
	clean, resolved, err := fs.check(sub)
	if err != nil {
		return nil, err
	}
	fs.log().WithField("path", clean).Debug("creating new file")

	f, err := fs.backend.OpenFile(clean, os.O_CREATE|os.O_EXCL|fs.openFlags(), defaultFileMode)
	if err != nil {
		return nil, wrapBackendError(err, sub, resolved)
	}
	return newFile(f, clean, resolved), nil
}

// CreateDir returns sub, creating it and any missing parents first.
func (fs *Filesystem) CreateDir(sub string) (*Directory, error) {
	clean, resolved, err := fs.check(sub)
	if err != nil {
		return nil, err
	}
	fs.log().WithField("path", clean).Debug("creating directory")

	if st, err := fs.backend.Stat(clean); err == nil && !st.IsDir() {
		return nil, newPathError(ErrCodeNotDirectory, sub, resolved, nil)
	}
	if err := fs.backend.MkdirAll(clean, defaultDirMode); err != nil {
		return nil, wrapBackendError(err, sub, resolved)
	}
	return newDirectory(fs.backend, clean, resolved), nil
}

// CreateNewDir creates sub and any missing parents, failing if sub already
// exists. The check and the creation are separate steps.
func (fs *Filesystem) CreateNewDir(sub string) (*Directory, error) {
	clean, resolved, err := fs.check(sub)
	if err != nil {
		return nil, err
	}
	fs.log().WithField("path", clean).Debug("creating new directory")

	if _, err := fs.backend.Stat(clean); err == nil {
		return nil, newPathError(ErrCodeAlreadyExists, sub, resolved, nil)
	} else if err := wrapBackendError(err, sub, resolved); !IsErrorCode(err, ErrCodeNotFound) {
		return nil, err
	}
	if err := fs.backend.MkdirAll(clean, defaultDirMode); err != nil {
		return nil, wrapBackendError(err, sub, resolved)
	}
	return newDirectory(fs.backend, clean, resolved), nil
}

// RemoveFile removes a single file.
func (fs *Filesystem) RemoveFile(sub string) error {
	clean, resolved, err := fs.check(sub)
	if err != nil {
		return err
	}
	fs.log().WithField("path", clean).Debug("removing file")

	if err := fs.mustBeFile(clean, sub, resolved); err != nil {
		return err
	}
	return wrapBackendError(fs.backend.Remove(clean), sub, resolved)
}

// RemoveDir removes a directory along with everything beneath it. The root
// of the filesystem itself can not be removed.
func (fs *Filesystem) RemoveDir(sub string) error {
	clean, resolved, err := fs.check(sub)
	if err != nil {
		return err
	}
	if clean == "." {
		err := NewAccessDenied(sub, resolved)
		fs.error(err).Warn("refusing to remove filesystem root")
		return err
	}
	fs.log().WithField("path", clean).Debug("removing directory")

	if err := fs.mustBeDir(clean, sub, resolved); err != nil {
		return err
	}
	return wrapBackendError(fs.backend.RemoveAll(clean), sub, resolved)
}

// Metadata returns the type and size of sub.
func (fs *Filesystem) Metadata(sub string) (Metadata, error) {
	clean, resolved, err := fs.check(sub)
	if err != nil {
		return Metadata{}, err
	}
	st, err := fs.backend.Stat(clean)
	if err != nil {
		return Metadata{}, wrapBackendError(err, sub, resolved)
	}
	return newMetadata(resolved, st), nil
}

// Exists reports whether sub exists. Paths refused by the guard and paths
// that can not be inspected are reported as missing.
func (fs *Filesystem) Exists(sub string) bool {
	_, err := fs.Metadata(sub)
	return err == nil
}

// IsFile reports whether sub exists and is a file.
func (fs *Filesystem) IsFile(sub string) bool {
	m, err := fs.Metadata(sub)
	return err == nil && m.IsFile()
}

// IsDir reports whether sub exists and is a directory.
func (fs *Filesystem) IsDir(sub string) bool {
	m, err := fs.Metadata(sub)
	return err == nil && m.IsDir()
}

func (fs *Filesystem) mustBeFile(clean, sub, resolved string) error {
	st, err := fs.backend.Stat(clean)
	if err != nil {
		return wrapBackendError(err, sub, resolved)
	}
	if st.IsDir() {
		return newPathError(ErrCodeIsDirectory, sub, resolved, nil)
	}
	return nil
}

func (fs *Filesystem) mustBeDir(clean, sub, resolved string) error {
	st, err := fs.backend.Stat(clean)
	if err != nil {
		return wrapBackendError(err, sub, resolved)
	}
	if !st.IsDir() {
		return newPathError(ErrCodeNotDirectory, sub, resolved, nil)
	}
	return nil
}
