package filesystem

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

type component int

const (
	componentNormal component = iota
	componentCurDir
	componentParentDir
	componentRootDir
	componentPrefix
)

// splitComponents breaks p into its components. A volume name or a leading
// separator can only ever be the first component. Repeated and trailing
// separators produce no component of their own.
func splitComponents(p string) []component {
	var out []component
	if v := filepath.VolumeName(p); v != "" {
		out = append(out, componentPrefix)
		p = p[len(v):]
	}
	if p != "" && (p[0] == '/' || os.IsPathSeparator(p[0])) {
		out = append(out, componentRootDir)
	}
	for _, seg := range strings.FieldsFunc(p, isSeparator) {
		switch seg {
		case ".":
			out = append(out, componentCurDir)
		case "..":
			out = append(out, componentParentDir)
		default:
			out = append(out, componentNormal)
		}
	}
	return out
}

func isSeparator(r rune) bool {
	return r == '/' || (r < 128 && os.IsPathSeparator(uint8(r)))
}

// depth walks the components of p and returns the final depth level along
// with the lowest level reached after the first component. ok is false when
// the path is empty or does not start with "." or a normal segment.
func depth(p string) (level int, lowest int, ok bool) {
	comps := splitComponents(p)
	if len(comps) == 0 {
		return 0, 0, false
	}
	switch comps[0] {
	case componentCurDir:
		level = 0
	case componentNormal:
		level = 1
	default:
		return 0, 0, false
	}
	lowest = level
	for _, c := range comps[1:] {
		switch c {
		case componentCurDir:
		case componentParentDir:
			level--
		default:
			level++
		}
		if level < lowest {
			lowest = level
		}
	}
	return level, lowest, true
}

// CheckPath decides, without touching storage, whether sub stays inside of
// the root it will be joined to. The first component must be "." or a normal
// segment, and the final depth level must not be negative. An error is always
// an access denied Error carrying sub.
func CheckPath(sub string) error {
	if level, _, ok := depth(sub); !ok || level < 0 {
		return NewAccessDenied(sub, "")
	}
	return nil
}

// Guard is the path check attached to a Filesystem. On top of CheckPath it
// makes sure the cleaned path still lies within the root once joined to it,
// and can refuse paths that dip below the root at any point (strict) and
// paths matching a gitignore style denylist.
type Guard struct {
	strict   bool
	denylist *ignore.GitIgnore
}

// NewGuard returns a guard. An empty denylist matches nothing.
func NewGuard(strict bool, denylist []string) *Guard {
	return &Guard{strict: strict, denylist: ignore.CompileIgnoreLines(denylist...)}
}

// Strict reports whether intermediate excursions above the root are refused.
func (g *Guard) Strict() bool {
	return g.strict
}

// Check validates sub against root and returns its cleaned, slash separated
// form relative to root.
//
// Outside of strict mode a path may leave the root as long as it comes back
// to it: for a root of /srv/data, "a/../../data/b" resolves to /srv/data/b
// and is accepted as "b", while "a/../../b" resolves to /srv/b and is not.
func (g *Guard) Check(root, sub string) (string, error) {
	level, lowest, ok := depth(sub)
	if !ok || level < 0 || (g.strict && lowest < 0) {
		return "", NewAccessDenied(sub, "")
	}
	clean := cleanPath(sub)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		joined := resolve(root, clean)
		rel, err := filepath.Rel(root, joined)
		if err != nil {
			return "", NewAccessDenied(sub, joined)
		}
		rel = filepath.ToSlash(rel)
		if rel == ".." || strings.HasPrefix(rel, "../") {
			return "", NewAccessDenied(sub, joined)
		}
		clean = rel
	}
	if err := g.IsIgnored(sub, clean); err != nil {
		return "", err
	}
	return clean, nil
}

// IsIgnored checks a cleaned path against the denylist.
func (g *Guard) IsIgnored(sub, clean string) error {
	if g.denylist != nil && clean != "." && g.denylist.MatchesPath(clean) {
		return newPathError(ErrCodeDenylisted, sub, clean, nil)
	}
	return nil
}

func cleanPath(sub string) string {
	return path.Clean(filepath.ToSlash(sub))
}

// resolve joins a cleaned sub-path onto root.
func resolve(root, clean string) string {
	return filepath.Join(root, filepath.FromSlash(clean))
}
