package filesystem

import (
	"testing"

	"emperror.dev/errors"
	. "github.com/franela/goblin"
)

func TestFilesystem_CheckPath(t *testing.T) {
	g := Goblin(t)

	g.Describe("CheckPath", func() {
		g.It("accepts paths that stay at or below the root", func() {
			for _, p := range []string{".", "./.", "a", "a/b", "a/../b", "a/b/../..", "./a/b/", "a//b", "a/./b"} {
				g.Assert(CheckPath(p)).IsNil(p)
			}
		})

		g.It("rejects paths that end above the root", func() {
			for _, p := range []string{"./..", "./a/../..", "a/../..", "a/b/../../.."} {
				err := CheckPath(p)
				g.Assert(IsAccessDenied(err)).IsTrue(p)
			}
		})

		g.It("rejects an invalid first component", func() {
			for _, p := range []string{"..", "../a", "/", "/a", "/a/b", ""} {
				err := CheckPath(p)
				g.Assert(IsAccessDenied(err)).IsTrue(p)
			}
		})

		g.It("only looks at the final level", func() {
			g.Assert(CheckPath("a/../../b")).IsNil()
		})

		g.It("treats a drive like segment after the first as a normal segment", func() {
			g.Assert(CheckPath("a/C:/b")).IsNil()
			g.Assert(CheckPath("a/C:/../..")).IsNil()
			g.Assert(IsAccessDenied(CheckPath("a/C:/../../.."))).IsTrue()
		})

		g.It("carries the rejected path", func() {
			err := CheckPath("../secret")
			var fserr *Error
			g.Assert(IsAccessDenied(err)).IsTrue()
			g.Assert(errors.As(err, &fserr)).IsTrue()
			g.Assert(fserr.Path()).Equal("../secret")
		})
	})
}

func TestFilesystem_Guard(t *testing.T) {
	g := Goblin(t)
	root := "/srv/data"

	g.Describe("Guard", func() {
		g.It("returns the cleaned path", func() {
			guard := NewGuard(false, nil)
			cases := map[string]string{
				".":                           ".",
				"./":                          ".",
				"a/b/":                        "a/b",
				"./a/../b":                    "b",
				"foo/bar/baz/../../ducks.txt": "foo/ducks.txt",
			}
			for in, expected := range cases {
				clean, err := guard.Check(root, in)
				g.Assert(err).IsNil(in)
				g.Assert(clean).Equal(expected)
			}
		})

		g.It("rejects paths which resolve outside of the root", func() {
			guard := NewGuard(false, nil)
			for _, p := range []string{"..", "./..", "a/../../b", "a/../../../etc", "a/../../../srv/database", "/etc/passwd"} {
				_, err := guard.Check(root, p)
				g.Assert(IsAccessDenied(err)).IsTrue(p)
			}
		})

		g.It("accepts paths which come back to the root", func() {
			guard := NewGuard(false, nil)
			clean, err := guard.Check(root, "a/../../data/b")
			g.Assert(err).IsNil()
			g.Assert(clean).Equal("b")

			clean, err = guard.Check(root, "a/../../../srv/data")
			g.Assert(err).IsNil()
			g.Assert(clean).Equal(".")
		})

		g.It("rejects any excursion above the root in strict mode", func() {
			guard := NewGuard(true, nil)
			g.Assert(guard.Strict()).IsTrue()

			_, err := guard.Check(root, "a/../../data/b")
			g.Assert(IsAccessDenied(err)).IsTrue()

			clean, err := guard.Check(root, "a/../b")
			g.Assert(err).IsNil()
			g.Assert(clean).Equal("b")
		})

		g.It("refuses denylisted paths", func() {
			guard := NewGuard(false, []string{"*.key", "secrets/"})

			_, err := guard.Check(root, "certs/server.key")
			g.Assert(IsErrorCode(err, ErrCodeDenylisted)).IsTrue()

			_, err = guard.Check(root, "secrets/a.txt")
			g.Assert(IsErrorCode(err, ErrCodeDenylisted)).IsTrue()

			_, err = guard.Check(root, "public/a.txt")
			g.Assert(err).IsNil()

			_, err = guard.Check(root, ".")
			g.Assert(err).IsNil()
		})
	})

	g.Describe("resolve", func() {
		g.It("joins the cleaned path onto the root", func() {
			g.Assert(resolve(root, ".")).Equal(root)
			g.Assert(resolve(root, "a/b")).Equal("/srv/data/a/b")
		})
	})
}
