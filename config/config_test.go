package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAtPath(t *testing.T) {
	c, err := NewAtPath("/tmp/config.yml")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/config.yml", c.Path())
	assert.False(t, c.Debug)
	assert.Equal(t, "/var/lib/sandboxfs", c.Filesystem.Root)
	assert.Equal(t, "unix", c.Filesystem.Backend)
	assert.Equal(t, []string{"readable", "writable", "appendable", "truncatable", "removable"}, c.Filesystem.Capabilities)
	assert.Equal(t, "/var/log/sandboxfs", c.System.LogDirectory)
}

func TestFromFile(t *testing.T) {
	t.Run("missing values keep their defaults", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(p, []byte("debug: true\nfilesystem:\n  backend: memory\n  capabilities: [readable]\n"), 0o600))

		c, err := FromFile(p)
		require.NoError(t, err)
		assert.True(t, c.Debug)
		assert.Equal(t, "memory", c.Filesystem.Backend)
		assert.Equal(t, []string{"readable"}, c.Filesystem.Capabilities)
		assert.Equal(t, "/var/lib/sandboxfs", c.Filesystem.Root)
		assert.Equal(t, "/var/log/sandboxfs", c.System.LogDirectory)
	})

	t.Run("environment variables are expanded", func(t *testing.T) {
		t.Setenv("SANDBOXFS_TEST_ROOT", "/srv/data")
		p := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(p, []byte("filesystem:\n  root: ${SANDBOXFS_TEST_ROOT}\n  denylist:\n    - \"*.key\"\n"), 0o600))

		c, err := FromFile(p)
		require.NoError(t, err)
		assert.Equal(t, "/srv/data", c.Filesystem.Root)
		assert.Equal(t, []string{"*.key"}, c.Filesystem.Denylist)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := FromFile(filepath.Join(t.TempDir(), "nope.yml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(p, []byte("filesystem: [\n"), 0o600))

		_, err := FromFile(p)
		assert.Error(t, err)
	})
}

func TestWriteToDisk(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "config.yml")
	c, err := NewAtPath(p)
	require.NoError(t, err)
	c.Filesystem.StrictPaths = true

	require.NoError(t, WriteToDisk(c))

	read, err := FromFile(p)
	require.NoError(t, err)
	assert.True(t, read.Filesystem.StrictPaths)

	_, err = NewAtPath("")
	require.NoError(t, err)
	assert.Error(t, WriteToDisk(&Configuration{}))
}

func TestSetGetUpdate(t *testing.T) {
	c, err := NewAtPath("")
	require.NoError(t, err)
	Set(c)
	t.Cleanup(func() { Set(nil) })

	Update(func(c *Configuration) {
		c.Debug = true
	})
	assert.True(t, Get().Debug)
	assert.False(t, c.Debug, "the original instance must not be modified")
}
