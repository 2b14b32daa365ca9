package filesystem

// File is an open regular file inside of a Filesystem. Reads, writes and
// seeks go straight to the backend; whether writing is possible depends on
// the operation that produced the handle.
type File struct {
	f        BackendFile
	name     string
	resolved string
}

var _ Entity = (*File)(nil)

func newFile(f BackendFile, name, resolved string) *File {
	return &File{f: f, name: name, resolved: resolved}
}

// Name returns the cleaned sub-path the file was opened with.
func (f *File) Name() string {
	return f.name
}

func (f *File) Read(p []byte) (int, error) {
	return f.f.Read(p)
}

// Write writes to the file. A handle the filesystem does not permit writing
// through fails with ErrCodeCapability.
func (f *File) Write(p []byte) (int, error) {
	n, err := f.f.Write(p)
	if err != nil {
		return n, wrapBackendError(err, f.name, f.resolved)
	}
	return n, nil
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.f.Seek(offset, whence)
}

func (f *File) Close() error {
	return wrapBackendError(f.f.Close(), f.name, f.resolved)
}

// Truncate changes the size of the file. The filesystem must be truncatable.
func (f *File) Truncate(size int64) error {
	return wrapBackendError(f.f.Truncate(size), f.name, f.resolved)
}

// Size returns the current size of the file in bytes.
func (f *File) Size() (int64, error) {
	st, err := f.f.Stat()
	if err != nil {
		return 0, wrapBackendError(err, f.name, f.resolved)
	}
	return st.Size(), nil
}

func (f *File) IsFile() bool { return true }
func (f *File) IsDir() bool  { return false }

// Metadata returns a snapshot of the file as it is right now.
func (f *File) Metadata() (Metadata, error) {
	st, err := f.f.Stat()
	if err != nil {
		return Metadata{}, wrapBackendError(err, f.name, f.resolved)
	}
	return Metadata{path: f.resolved, typ: TypeFile, size: st.Size()}, nil
}
