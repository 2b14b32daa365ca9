package filesystem

import (
	iofs "io/fs"

	"github.com/goccy/go-json"
)

// EntityType is the kind of an entity. Anything that is not a directory,
// including symlinks and device nodes, is reported as a file.
type EntityType int

const (
	TypeFile EntityType = iota
	TypeDir
)

func (t EntityType) String() string {
	if t == TypeDir {
		return "dir"
	}
	return "file"
}

func typeOf(fi iofs.FileInfo) EntityType {
	if fi.IsDir() {
		return TypeDir
	}
	return TypeFile
}

// Entity is anything addressable inside of a filesystem. Exactly one of
// IsFile and IsDir is true for every entity.
type Entity interface {
	// Size returns the size of the entity in bytes. Its meaning for
	// directories depends on the backend.
	Size() (int64, error)
	IsFile() bool
	IsDir() bool
}

// Metadata is a point in time description of an entity.
type Metadata struct {
	path string
	typ  EntityType
	size int64
}

func newMetadata(resolved string, fi iofs.FileInfo) Metadata {
	return Metadata{path: resolved, typ: typeOf(fi), size: fi.Size()}
}

// Path returns the resolved path of the entity, that is the root of the
// filesystem joined with the sub-path.
func (m Metadata) Path() string     { return m.path }
func (m Metadata) Type() EntityType { return m.typ }
func (m Metadata) Size() int64      { return m.size }
func (m Metadata) IsFile() bool     { return m.typ == TypeFile }
func (m Metadata) IsDir() bool      { return m.typ == TypeDir }

func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Path string `json:"path"`
		Type string `json:"type"`
		Size int64  `json:"size"`
	}{
		Path: m.path,
		Type: m.typ.String(),
		Size: m.size,
	})
}
