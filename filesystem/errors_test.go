package filesystem

import (
	"io"
	iofs "io/fs"
	"testing"

	"emperror.dev/errors"
	. "github.com/franela/goblin"

	"github.com/pterodactyl/sandboxfs/internal/ufs"
)

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func TestFilesystem_Errors(t *testing.T) {
	g := Goblin(t)

	g.Describe("newPathError", func() {
		g.It("includes a stack trace for the error", func() {
			err := newPathError(ErrCodeBackend, "foo", "/root/foo", nil)

			_, ok := err.(stackTracer)
			g.Assert(ok).IsTrue()
		})

		g.It("properly wraps the underlying error cause", func() {
			underlying := io.EOF
			err := newPathError(ErrCodeBackend, "foo", "/root/foo", underlying)

			_, ok := err.(*Error)
			g.Assert(ok).IsFalse()

			fserr, ok := errors.Unwrap(err).(*Error)
			g.Assert(ok).IsTrue()
			g.Assert(fserr.Unwrap()).Equal(underlying)
			g.Assert(fserr.Path()).Equal("foo")
			g.Assert(errors.Is(err, io.EOF)).IsTrue()
		})
	})

	g.Describe("NewAccessDenied", func() {
		g.It("is can detect itself as an error correctly", func() {
			err := NewAccessDenied("foo", "bar")
			g.Assert(IsErrorCode(err, ErrCodeAccessDenied)).IsTrue()
			g.Assert(IsAccessDenied(err)).IsTrue()
			g.Assert(err.Error()).Equal("filesystem: path [foo] resolves to a location outside the root: bar")
			g.Assert(IsErrorCode(&Error{code: ErrCodeIsDirectory}, ErrCodeAccessDenied)).IsFalse()
		})

		g.It("returns <empty> if no destination path is provided", func() {
			err := NewAccessDenied("foo", "")
			g.Assert(err.Error()).Equal("filesystem: path [foo] resolves to a location outside the root: <empty>")
		})

		g.It("matches the io/fs permission sentinel", func() {
			g.Assert(errors.Is(NewAccessDenied("foo", ""), iofs.ErrPermission)).IsTrue()
			g.Assert(errors.Is(NewAccessDenied("foo", ""), iofs.ErrNotExist)).IsFalse()
		})
	})

	g.Describe("IsErrorCode", func() {
		g.It("returns false for errors that are not typed", func() {
			g.Assert(IsErrorCode(io.EOF, ErrCodeBackend)).IsFalse()
			g.Assert(IsErrorCode(nil, ErrCodeBackend)).IsFalse()
		})

		g.It("finds a typed error that has been wrapped", func() {
			err := errors.WrapIf(newPathError(ErrCodeNotFound, "a", "/r/a", nil), "context")
			g.Assert(IsErrorCode(err, ErrCodeNotFound)).IsTrue()
		})
	})

	g.Describe("wrapBackendError", func() {
		g.It("returns nil for a nil error", func() {
			g.Assert(wrapBackendError(nil, "a", "/r/a") == nil).IsTrue()
		})

		g.It("maps backend failures onto error codes", func() {
			cases := map[error]ErrorCode{
				ErrCapability:            ErrCodeCapability,
				ufs.ErrBadPathResolution: ErrCodeAccessDenied,
				ufs.ErrIsDirectory:       ErrCodeIsDirectory,
				ufs.ErrNotDirectory:      ErrCodeNotDirectory,
				iofs.ErrNotExist:         ErrCodeNotFound,
				iofs.ErrExist:            ErrCodeAlreadyExists,
				io.ErrUnexpectedEOF:      ErrCodeBackend,
			}
			for in, code := range cases {
				err := wrapBackendError(&iofs.PathError{Op: "open", Path: "a", Err: in}, "a", "/r/a")
				g.Assert(IsErrorCode(err, code)).IsTrue(string(code))
			}
		})

		g.It("passes typed errors through untouched", func() {
			in := NewAccessDenied("a", "")
			g.Assert(wrapBackendError(in, "b", "/r/b")).Equal(in)
		})

		g.It("keeps the backend error as the cause", func() {
			cause := &iofs.PathError{Op: "open", Path: "a", Err: iofs.ErrNotExist}
			err := wrapBackendError(cause, "a", "/r/a")
			g.Assert(errors.Is(err, iofs.ErrNotExist)).IsTrue()

			var pe *iofs.PathError
			g.Assert(errors.As(err, &pe)).IsTrue()
		})
	})
}
