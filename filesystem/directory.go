package filesystem

import (
	"path"
)

// Directory is a handle to a directory inside of a Filesystem. Nothing is
// cached on the handle, every query reads the live directory.
type Directory struct {
	backend  Backend
	name     string
	resolved string
}

var _ Entity = (*Directory)(nil)

func newDirectory(b Backend, name, resolved string) *Directory {
	return &Directory{backend: b, name: name, resolved: resolved}
}

// Name returns the cleaned sub-path of the directory.
func (d *Directory) Name() string {
	return d.name
}

// Size returns the size the backend reports for the directory itself.
func (d *Directory) Size() (int64, error) {
	st, err := d.backend.Stat(d.name)
	if err != nil {
		return 0, wrapBackendError(err, d.name, d.resolved)
	}
	return st.Size(), nil
}

func (d *Directory) IsFile() bool { return false }
func (d *Directory) IsDir() bool  { return true }

func (d *Directory) Metadata() (Metadata, error) {
	st, err := d.backend.Stat(d.name)
	if err != nil {
		return Metadata{}, wrapBackendError(err, d.name, d.resolved)
	}
	return Metadata{path: d.resolved, typ: TypeDir, size: st.Size()}, nil
}

// Count returns the number of direct children of the directory.
func (d *Directory) Count() (int, error) {
	s, err := d.backend.ReadDir(d.name)
	if err != nil {
		return 0, wrapBackendError(err, d.name, d.resolved)
	}
	defer s.Close()

	var n int
	for s.Scan() {
		n++
	}
	if err := s.Err(); err != nil {
		return 0, wrapBackendError(err, d.name, d.resolved)
	}
	return n, nil
}

// TotalSize returns the combined size of the direct children of the
// directory. Any child that cannot be inspected fails the whole call.
func (d *Directory) TotalSize() (int64, error) {
	s, err := d.backend.ReadDir(d.name)
	if err != nil {
		return 0, wrapBackendError(err, d.name, d.resolved)
	}
	defer s.Close()

	var total int64
	for s.Scan() {
		child := path.Join(d.name, s.Name())
		st, err := d.backend.Stat(child)
		if err != nil {
			return 0, wrapBackendError(err, child, resolve(d.resolved, s.Name()))
		}
		total += st.Size()
	}
	if err := s.Err(); err != nil {
		return 0, wrapBackendError(err, d.name, d.resolved)
	}
	return total, nil
}

// Entries starts a new listing of the directory. Each call returns an
// independent sequence reflecting the directory at the time it is read.
func (d *Directory) Entries() (*Entries, error) {
	s, err := d.backend.ReadDir(d.name)
	if err != nil {
		return nil, wrapBackendError(err, d.name, d.resolved)
	}
	return &Entries{backend: d.backend, dir: d.name, resolved: d.resolved, scanner: s}, nil
}

// Entries is a forward only, single pass sequence of directory entries.
// Every element carries its own result so one failing entry, for example
// one removed between being listed and inspected, does not end the
// sequence.
//
//	it, err := dir.Entries()
//	...
//	defer it.Close()
//	for it.Next() {
//		entry, err := it.Entry()
//		...
//	}
type Entries struct {
	backend  Backend
	dir      string
	resolved string
	scanner  DirScanner

	cur  *DirectoryEntry
	err  error
	done bool
}

// Next advances to the next element and reports whether there is one. A
// failure of the listing itself is surfaced once as a final element.
func (e *Entries) Next() bool {
	if e.done {
		return false
	}
	if e.scanner.Scan() {
		name := e.scanner.Name()
		child := path.Join(e.dir, name)
		resolved := resolve(e.resolved, name)
		st, err := e.backend.Stat(child)
		if err != nil {
			e.cur, e.err = nil, newPathError(ErrCodeIteration, child, resolved, err)
			return true
		}
		e.cur, e.err = &DirectoryEntry{
			rel:      name,
			name:     child,
			resolved: resolved,
			typ:      typeOf(st),
			size:     st.Size(),
		}, nil
		return true
	}

	e.done = true
	err := e.scanner.Err()
	_ = e.scanner.Close()
	if err != nil {
		e.cur, e.err = nil, newPathError(ErrCodeIteration, e.dir, e.resolved, err)
		return true
	}
	e.cur, e.err = nil, nil
	return false
}

// Entry returns the current element. Only valid after Next returned true.
func (e *Entries) Entry() (*DirectoryEntry, error) {
	return e.cur, e.err
}

// Close ends the sequence early and releases the listing.
func (e *Entries) Close() error {
	if e.done {
		return nil
	}
	e.done = true
	return e.scanner.Close()
}

// DirectoryEntry is an entity found while listing a directory.
type DirectoryEntry struct {
	rel      string
	name     string
	resolved string
	typ      EntityType
	size     int64
}

var _ Entity = (*DirectoryEntry)(nil)

// Path returns the path of the entry relative to the directory it was
// listed from.
func (e *DirectoryEntry) Path() string { return e.rel }

// Name returns the cleaned sub-path of the entry from the filesystem root.
func (e *DirectoryEntry) Name() string { return e.name }

// Size returns the size recorded when the entry was listed.
func (e *DirectoryEntry) Size() (int64, error) { return e.size, nil }
func (e *DirectoryEntry) IsFile() bool         { return e.typ == TypeFile }
func (e *DirectoryEntry) IsDir() bool          { return e.typ == TypeDir }
func (e *DirectoryEntry) Type() EntityType     { return e.typ }

func (e *DirectoryEntry) Metadata() Metadata {
	return Metadata{path: e.resolved, typ: e.typ, size: e.size}
}
