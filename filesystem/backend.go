package filesystem

import (
	"io"
	iofs "io/fs"
	"os"
)

// Backend is the storage a Filesystem delegates to once a path has passed
// the guard. Names are always cleaned, slash separated and relative to the
// root of the filesystem, with "." being the root itself.
type Backend interface {
	// Stat describes name without following a final symlink.
	Stat(name string) (iofs.FileInfo, error)
	OpenFile(name string, flag int, perm iofs.FileMode) (BackendFile, error)
	MkdirAll(name string, perm iofs.FileMode) error
	// Remove removes a single file or empty directory.
	Remove(name string) error
	// RemoveAll removes name and everything beneath it.
	RemoveAll(name string) error
	// ReadDir starts a lazy listing of the direct children of name.
	ReadDir(name string) (DirScanner, error)
	Close() error
}

// BackendFile is an open file returned by a Backend.
type BackendFile interface {
	io.ReadWriteSeeker
	io.Closer
	Stat() (iofs.FileInfo, error)
	Truncate(size int64) error
}

// DirScanner walks the names in a directory one at a time, in the manner of
// bufio.Scanner. Scan returns false once the listing is exhausted or fails,
// after which Err reports the failure, if any.
type DirScanner interface {
	Scan() bool
	Name() string
	Err() error
	Close() error
}

// BackendKind selects one of the built in backends.
type BackendKind string

const (
	// BackendUnix confines disk access with directory file descriptors and
	// openat2. Only available on Linux.
	BackendUnix BackendKind = "unix"
	// BackendOS is a portable disk backend built on go-billy's bound osfs.
	BackendOS BackendKind = "os"
	// BackendMemory keeps every entity in memory.
	BackendMemory BackendKind = "memory"
)

// capabilityGate wraps a Backend and refuses requests which need a
// capability missing from caps. Stat is always allowed.
type capabilityGate struct {
	Backend
	caps Capabilities
}

func newCapabilityGate(b Backend, caps Capabilities) *capabilityGate {
	return &capabilityGate{Backend: b, caps: caps}
}

func (g *capabilityGate) require(oneOf ...Capability) error {
	for _, c := range oneOf {
		if g.caps.Has(c) {
			return nil
		}
	}
	return ErrCapability
}

// allowOpen maps open flags onto the capabilities they need. A plain write
// handle on an existing file is also handed to truncatable filesystems, the
// returned file then refuses the writes themselves.
func (g *capabilityGate) allowOpen(flag int) error {
	access := flag & (os.O_WRONLY | os.O_RDWR)
	if access == os.O_RDONLY || access == os.O_RDWR {
		if err := g.require(CapabilityReadable); err != nil {
			return err
		}
	}
	switch {
	case flag&os.O_APPEND != 0 && (access != os.O_RDONLY || flag&os.O_CREATE != 0):
		if err := g.require(CapabilityAppendable, CapabilityWritable); err != nil {
			return err
		}
	case flag&os.O_CREATE != 0:
		if err := g.require(CapabilityWritable); err != nil {
			return err
		}
	case access != os.O_RDONLY:
		if err := g.require(CapabilityWritable, CapabilityTruncatable); err != nil {
			return err
		}
	}
	if flag&os.O_TRUNC != 0 {
		return g.require(CapabilityTruncatable)
	}
	return nil
}

func (g *capabilityGate) OpenFile(name string, flag int, perm iofs.FileMode) (BackendFile, error) {
	if err := g.allowOpen(flag); err != nil {
		return nil, err
	}
	f, err := g.Backend.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &gatedFile{BackendFile: f, caps: g.caps, appendOnly: flag&os.O_APPEND != 0}, nil
}

func (g *capabilityGate) MkdirAll(name string, perm iofs.FileMode) error {
	if err := g.require(CapabilityWritable); err != nil {
		return err
	}
	return g.Backend.MkdirAll(name, perm)
}

func (g *capabilityGate) Remove(name string) error {
	if err := g.require(CapabilityRemovable); err != nil {
		return err
	}
	return g.Backend.Remove(name)
}

func (g *capabilityGate) RemoveAll(name string) error {
	if err := g.require(CapabilityRemovable); err != nil {
		return err
	}
	return g.Backend.RemoveAll(name)
}

func (g *capabilityGate) ReadDir(name string) (DirScanner, error) {
	if err := g.require(CapabilityReadable); err != nil {
		return nil, err
	}
	return g.Backend.ReadDir(name)
}

type gatedFile struct {
	BackendFile
	caps       Capabilities
	appendOnly bool
}

func (f *gatedFile) Write(p []byte) (int, error) {
	if !f.caps.Writable && !(f.appendOnly && f.caps.Appendable) {
		return 0, ErrCapability
	}
	return f.BackendFile.Write(p)
}

func (f *gatedFile) Truncate(size int64) error {
	if !f.caps.Truncatable {
		return ErrCapability
	}
	return f.BackendFile.Truncate(size)
}

// sliceScanner serves a DirScanner from a listing that was already read in
// full by the backend.
type sliceScanner struct {
	names []string
	pos   int
	cur   string
}

func (s *sliceScanner) Scan() bool {
	if s.pos >= len(s.names) {
		return false
	}
	s.cur = s.names[s.pos]
	s.pos++
	return true
}

func (s *sliceScanner) Name() string { return s.cur }
func (s *sliceScanner) Err() error   { return nil }
func (s *sliceScanner) Close() error { s.pos = len(s.names); return nil }
