package filesystem

import (
	"os"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-json"
)

// Stat is a richer description of an entity than Metadata, carrying the raw
// file info and a detected mimetype.
type Stat struct {
	os.FileInfo
	Path     string
	Mimetype string
}

func (s *Stat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name      string `json:"name"`
		Path      string `json:"path"`
		Modified  string `json:"modified"`
		Mode      string `json:"mode"`
		ModeBits  string `json:"mode_bits"`
		Size      int64  `json:"size"`
		Directory bool   `json:"directory"`
		File      bool   `json:"file"`
		Symlink   bool   `json:"symlink"`
		Mime      string `json:"mime"`
	}{
		Name:     s.Name(),
		Path:     s.Path,
		Modified: s.ModTime().Format(time.RFC3339),
		Mode:     s.Mode().String(),
		// Only the permission bits, without the type bits.
		ModeBits:  strconv.FormatUint(uint64(s.Mode()&os.ModePerm), 8),
		Size:      s.Size(),
		Directory: s.IsDir(),
		File:      !s.IsDir(),
		Symlink:   s.Mode()&os.ModeSymlink != 0,
		Mime:      s.Mimetype,
	})
}

// Stat describes sub along with its mimetype. Directories are reported as
// inode/directory, regular files are sniffed from their content, which
// requires the filesystem to be readable.
func (fs *Filesystem) Stat(sub string) (*Stat, error) {
	clean, resolved, err := fs.check(sub)
	if err != nil {
		return nil, err
	}
	st, err := fs.backend.Stat(clean)
	if err != nil {
		return nil, wrapBackendError(err, sub, resolved)
	}

	s := &Stat{FileInfo: st, Path: resolved, Mimetype: "inode/directory"}
	if st.IsDir() {
		return s, nil
	}
	if !st.Mode().IsRegular() {
		s.Mimetype = "application/octet-stream"
		return s, nil
	}

	f, err := fs.backend.OpenFile(clean, os.O_RDONLY, 0)
	if err != nil {
		return nil, wrapBackendError(err, sub, resolved)
	}
	defer f.Close()

	m, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, wrapBackendError(err, sub, resolved)
	}
	s.Mimetype = m.String()
	return s, nil
}
