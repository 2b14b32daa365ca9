package filesystem

import (
	"io"
	iofs "io/fs"
	"os"
	"testing"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockBackend records every call made to it. Tests only register the calls
// they expect, anything else fails the test.
type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Stat(name string) (iofs.FileInfo, error) {
	args := m.Called(name)
	fi, _ := args.Get(0).(iofs.FileInfo)
	return fi, args.Error(1)
}

func (m *mockBackend) OpenFile(name string, flag int, perm iofs.FileMode) (BackendFile, error) {
	args := m.Called(name, flag, perm)
	f, _ := args.Get(0).(BackendFile)
	return f, args.Error(1)
}

func (m *mockBackend) MkdirAll(name string, perm iofs.FileMode) error {
	return m.Called(name, perm).Error(0)
}

func (m *mockBackend) Remove(name string) error {
	return m.Called(name).Error(0)
}

func (m *mockBackend) RemoveAll(name string) error {
	return m.Called(name).Error(0)
}

func (m *mockBackend) ReadDir(name string) (DirScanner, error) {
	args := m.Called(name)
	s, _ := args.Get(0).(DirScanner)
	return s, args.Error(1)
}

func (m *mockBackend) Close() error {
	return m.Called().Error(0)
}

func TestRejectedPathsNeverReachTheBackend(t *testing.T) {
	m := &mockBackend{}
	fs, err := New("/srv/data", WithBackend(m))
	require.NoError(t, err)

	for _, p := range []string{"..", "./..", "../etc/passwd", "/etc/passwd", "a/../.."} {
		_, err := fs.OpenFile(p)
		assert.True(t, IsAccessDenied(err), p)
		_, err = fs.OpenDir(p)
		assert.True(t, IsAccessDenied(err), p)
		_, err = fs.CreateFile(p)
		assert.True(t, IsAccessDenied(err), p)
		_, err = fs.CreateNewFile(p)
		assert.True(t, IsAccessDenied(err), p)
		_, err = fs.CreateDir(p)
		assert.True(t, IsAccessDenied(err), p)
		_, err = fs.CreateNewDir(p)
		assert.True(t, IsAccessDenied(err), p)
		assert.True(t, IsAccessDenied(fs.RemoveFile(p)), p)
		assert.True(t, IsAccessDenied(fs.RemoveDir(p)), p)
		assert.True(t, IsAccessDenied(fs.TruncateFile(p, 0)), p)
		_, err = fs.Metadata(p)
		assert.True(t, IsAccessDenied(err), p)
		assert.False(t, fs.Exists(p), p)
	}

	assert.Empty(t, m.Calls)
}

func TestRemovingTheRootNeverReachesTheBackend(t *testing.T) {
	m := &mockBackend{}
	fs, err := New("/srv/data", WithBackend(m))
	require.NoError(t, err)

	assert.True(t, IsAccessDenied(fs.RemoveDir(".")))
	assert.Empty(t, m.Calls)
}

func TestBackendErrorsAreTyped(t *testing.T) {
	m := &mockBackend{}
	m.On("Stat", "broken").Return(nil, &iofs.PathError{Op: "stat", Path: "broken", Err: io.ErrUnexpectedEOF})
	fs, err := New("/srv/data", WithBackend(m))
	require.NoError(t, err)

	_, err = fs.Metadata("broken")
	assert.True(t, IsErrorCode(err, ErrCodeBackend))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	m.AssertExpectations(t)
}

func TestCapabilityGate(t *testing.T) {
	cases := []struct {
		name string
		caps Capabilities
		flag int
		ok   bool
	}{
		{"read needs readable", Capabilities{Readable: true}, os.O_RDONLY, true},
		{"read without readable", Capabilities{Writable: true}, os.O_RDONLY, false},
		{"read write needs both", Capabilities{Readable: true}, os.O_RDWR, false},
		{"create needs writable", Capabilities{Readable: true}, os.O_RDONLY | os.O_CREATE, false},
		{"create with writable", Capabilities{Writable: true}, os.O_WRONLY | os.O_CREATE, true},
		{"append with appendable", Capabilities{Appendable: true}, os.O_WRONLY | os.O_APPEND | os.O_CREATE, true},
		{"append with writable", Capabilities{Writable: true}, os.O_WRONLY | os.O_APPEND, true},
		{"append without either", Capabilities{Truncatable: true}, os.O_WRONLY | os.O_APPEND, false},
		{"write handle with truncatable", Capabilities{Truncatable: true}, os.O_WRONLY, true},
		{"truncate flag needs truncatable", Capabilities{Writable: true}, os.O_WRONLY | os.O_TRUNC, false},
		{"truncate flag with truncatable", Capabilities{Writable: true, Truncatable: true}, os.O_WRONLY | os.O_TRUNC, true},
		{"nothing allowed without capabilities", Capabilities{}, os.O_RDONLY, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := newCapabilityGate(nil, tc.caps).allowOpen(tc.flag)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrCapability)
			}
		})
	}

	t.Run("directory operations", func(t *testing.T) {
		m := &mockBackend{}
		m.On("MkdirAll", "a", iofs.FileMode(0o755)).Return(nil)
		gate := newCapabilityGate(m, Capabilities{Writable: true})

		assert.NoError(t, gate.MkdirAll("a", 0o755))
		assert.ErrorIs(t, gate.Remove("a"), ErrCapability)
		assert.ErrorIs(t, gate.RemoveAll("a"), ErrCapability)
		_, err := gate.ReadDir("a")
		assert.ErrorIs(t, err, ErrCapability)
		m.AssertExpectations(t)
		m.AssertNotCalled(t, "Remove", "a")
	})

	t.Run("writes through a truncate only handle are refused", func(t *testing.T) {
		b := NewMemoryBackend()
		f, err := b.OpenFile("a.txt", os.O_WRONLY|os.O_CREATE, 0o644)
		require.NoError(t, err)
		require.NoError(t, f.Close())

		gate := newCapabilityGate(b, Capabilities{Truncatable: true})
		f, err = gate.OpenFile("a.txt", os.O_WRONLY, 0)
		require.NoError(t, err)
		defer f.Close()

		_, err = f.Write([]byte("data"))
		assert.ErrorIs(t, err, ErrCapability)
		assert.NoError(t, f.Truncate(10))
	})
}

// flakyBackend fails to stat a single name, as if it was removed between
// being listed and being inspected.
type flakyBackend struct {
	Backend
	broken string
}

func (b *flakyBackend) Stat(name string) (iofs.FileInfo, error) {
	if name == b.broken {
		return nil, &iofs.PathError{Op: "lstat", Path: name, Err: iofs.ErrNotExist}
	}
	return b.Backend.Stat(name)
}

// failingScanner lists the given names and then fails.
type failingScanner struct {
	sliceScanner
}

func (s *failingScanner) Err() error { return errors.New("listing failed") }

func TestEntriesReportErrorsPerElement(t *testing.T) {
	b := NewMemoryBackend()
	for _, name := range []string{"dir/a.txt", "dir/b.txt", "dir/c.txt"} {
		f, err := b.OpenFile(name, os.O_WRONLY|os.O_CREATE, 0o644)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	fs, err := New("/", WithBackend(&flakyBackend{Backend: b, broken: "dir/b.txt"}))
	require.NoError(t, err)

	d, err := fs.OpenDir("dir")
	require.NoError(t, err)
	it, err := d.Entries()
	require.NoError(t, err)
	defer it.Close()

	var ok, failed int
	for it.Next() {
		e, err := it.Entry()
		if err != nil {
			assert.True(t, IsErrorCode(err, ErrCodeIteration))
			assert.Nil(t, e)
			failed++
			continue
		}
		assert.NotEqual(t, "b.txt", e.Path())
		ok++
	}
	assert.Equal(t, 2, ok)
	assert.Equal(t, 1, failed)
	assert.False(t, it.Next())

	t.Run("a failing listing ends with an error element", func(t *testing.T) {
		b := NewMemoryBackend()
		f, err := b.OpenFile("a.txt", os.O_WRONLY|os.O_CREATE, 0o644)
		require.NoError(t, err)
		require.NoError(t, f.Close())

		it := &Entries{backend: b, dir: ".", resolved: "/", scanner: &failingScanner{sliceScanner{names: []string{"a.txt"}}}}

		require.True(t, it.Next())
		e, err := it.Entry()
		require.NoError(t, err)
		assert.Equal(t, "a.txt", e.Path())

		require.True(t, it.Next())
		_, err = it.Entry()
		assert.True(t, IsErrorCode(err, ErrCodeIteration))

		assert.False(t, it.Next())
	})
}
