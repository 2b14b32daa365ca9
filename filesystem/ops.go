package filesystem

// The operation contracts are kept as separate interfaces so a filesystem
// can implement any subset of them. Every operation runs its sub-path
// through the guard before any backend call is made.

type FileOpener interface {
	OpenFile(sub string) (*File, error)
}

type DirOpener interface {
	OpenDir(sub string) (*Directory, error)
}

type FileCreator interface {
	// CreateFile returns a handle to sub, creating it when missing. An
	// existing file is never an error.
	CreateFile(sub string) (*File, error)
	// CreateNewFile creates sub and fails with ErrCodeAlreadyExists if it
	// is already present.
	CreateNewFile(sub string) (*File, error)
}

type DirCreator interface {
	// CreateDir returns a handle to sub, creating it and any missing
	// parents when needed.
	CreateDir(sub string) (*Directory, error)
	// CreateNewDir is CreateDir that fails with ErrCodeAlreadyExists if sub
	// is already present.
	CreateNewDir(sub string) (*Directory, error)
}

type FileRemover interface {
	RemoveFile(sub string) error
}

type DirRemover interface {
	// RemoveDir removes sub and everything beneath it.
	RemoveDir(sub string) error
}

// Inspector answers questions about entities without opening them.
type Inspector interface {
	Metadata(sub string) (Metadata, error)
	Exists(sub string) bool
	IsFile(sub string) bool
	IsDir(sub string) bool
}

// FileSystem is the full set of operations supported by *Filesystem.
type FileSystem interface {
	Introspect
	Inspector
	FileOpener
	DirOpener
	FileCreator
	DirCreator
	FileRemover
	DirRemover

	Root() string
}

var _ FileSystem = (*Filesystem)(nil)
