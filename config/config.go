package config

import (
	"os"
	"path/filepath"
	"sync"

	"emperror.dev/errors"
	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

const DefaultLocation = "/etc/sandboxfs/config.yml"

var (
	mu      sync.RWMutex
	_config *Configuration
)

// FilesystemConfiguration controls how sandboxed filesystems are created.
type FilesystemConfiguration struct {
	// The directory every filesystem opened by the command line tools is
	// confined to, unless overridden with --root.
	Root string `default:"/var/lib/sandboxfs" yaml:"root"`

	// The storage backend. "unix" anchors every syscall to a directory
	// descriptor and is only available on Linux, "os" is the portable disk
	// backend and "memory" keeps everything in memory.
	Backend string `default:"unix" yaml:"backend"`

	// The capabilities a filesystem is created with. Any of readable,
	// writable, appendable, truncatable and removable.
	Capabilities []string `default:"[\"readable\",\"writable\",\"appendable\",\"truncatable\",\"removable\"]" yaml:"capabilities"`

	// Use openat2(2) with RESOLVE_BENEATH so the kernel refuses to resolve a
	// path outside of the root. Requires Linux 5.6 or newer.
	UseOpenat2 bool `default:"false" yaml:"use_openat2"`

	// Refuse paths which move above the root at any point, even if they end up
	// back inside of it, e.g. "a/../../root/b".
	StrictPaths bool `default:"false" yaml:"strict_paths"`

	// Gitignore style patterns for paths that may never be accessed.
	Denylist []string `yaml:"denylist"`
}

// SystemConfiguration defines basic system settings.
type SystemConfiguration struct {
	// Directory where the command line logs are written to.
	LogDirectory string `default:"/var/log/sandboxfs" yaml:"log_directory"`
}

type Configuration struct {
	// The location from which this configuration instance was instantiated.
	path string

	// Determines if debug level logging is enabled. This value is ignored if
	// the debug flag is passed through the command line arguments.
	Debug bool `yaml:"debug"`

	Filesystem FilesystemConfiguration `yaml:"filesystem"`
	System     SystemConfiguration     `yaml:"system"`
}

// NewAtPath returns a new configuration instance with every default value
// set, which will be persisted to the given path.
func NewAtPath(path string) (*Configuration, error) {
	var c Configuration
	if err := defaults.Set(&c); err != nil {
		return nil, errors.WithStack(err)
	}
	c.path = path
	return &c, nil
}

// FromFile reads the configuration at path. Values missing from the file keep
// their defaults, and environment variables within the file are expanded
// before it is parsed.
func FromFile(path string) (*Configuration, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := NewAtPath(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), c); err != nil {
		return nil, errors.WrapIf(err, "config: failed to parse configuration file")
	}
	return c, nil
}

// Set replaces the global configuration.
func Set(c *Configuration) {
	mu.Lock()
	defer mu.Unlock()
	_config = c
}

// Get returns the global configuration. Callers must treat the value as read
// only, use Update to make changes.
func Get() *Configuration {
	mu.RLock()
	defer mu.RUnlock()
	return _config
}

// Update runs callback against a copy of the global configuration and stores
// the result.
func Update(callback func(c *Configuration)) {
	mu.Lock()
	defer mu.Unlock()
	if _config == nil {
		return
	}
	c := *_config
	callback(&c)
	_config = &c
}

// Path returns the location the configuration was read from or will be
// written to.
func (c *Configuration) Path() string {
	return c.path
}

// WriteToDisk persists the configuration to its path, creating the parent
// directory when needed.
func WriteToDisk(c *Configuration) error {
	if c.path == "" {
		return errors.New("config: cannot write configuration without a path")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return errors.WithStack(err)
	}
	if err := os.WriteFile(c.path, b, 0o600); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
