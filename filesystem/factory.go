package filesystem

import (
	"path/filepath"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/google/uuid"

	"github.com/pterodactyl/sandboxfs/config"
)

type options struct {
	caps     Capabilities
	backend  Backend
	kind     BackendKind
	openat2  bool
	strict   bool
	denylist []string
	logger   *log.Entry
}

// Option configures a Filesystem created by New.
type Option func(*options)

// WithCapabilities sets the capability set. The default is every capability.
func WithCapabilities(caps Capabilities) Option {
	return func(o *options) { o.caps = caps }
}

// WithBackend uses b instead of opening one of the built in backends. The
// Filesystem takes ownership of b and closes it along with itself.
func WithBackend(b Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithBackendKind selects one of the built in backends.
func WithBackendKind(kind BackendKind) Option {
	return func(o *options) { o.kind = kind }
}

// WithOpenat2 enables openat2 based containment for the unix backend.
func WithOpenat2(enabled bool) Option {
	return func(o *options) { o.openat2 = enabled }
}

// WithStrictPaths refuses paths which move above the root at any point, even
// when they end up back inside of it.
func WithStrictPaths(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithDenylist refuses access to paths matching any of the gitignore style
// patterns.
func WithDenylist(patterns []string) Option {
	return func(o *options) { o.denylist = patterns }
}

// WithLogger sets the logger operations are reported to.
func WithLogger(l *log.Entry) Option {
	return func(o *options) { o.logger = l }
}

// New creates a Filesystem confined to root.
func New(root string, opts ...Option) (*Filesystem, error) {
	o := options{caps: AllCapabilities(), kind: defaultBackendKind}
	for _, opt := range opts {
		opt(&o)
	}

	b := o.backend
	if b == nil {
		if o.kind != BackendMemory {
			abs, err := filepath.Abs(root)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			root = abs
		}
		var err error
		if b, err = openBackend(o.kind, root, o.openat2); err != nil {
			return nil, err
		}
	}
	if root == "" {
		root = "/"
	}

	id := uuid.New().String()
	logger := o.logger
	if logger == nil {
		logger = log.WithField("subsystem", "filesystem")
	}

	fs := &Filesystem{
		id:      id,
		root:    filepath.Clean(root),
		caps:    o.caps,
		guard:   NewGuard(o.strict, o.denylist),
		backend: newCapabilityGate(b, o.caps),
		logger:  logger.WithFields(log.Fields{"root": filepath.Clean(root), "id": id}),
	}
	fs.log().WithField("capabilities", o.caps.String()).Debug("created filesystem")
	return fs, nil
}

func openBackend(kind BackendKind, root string, openat2 bool) (Backend, error) {
	switch kind {
	case BackendUnix:
		return openDiskBackend(root, openat2)
	case BackendOS:
		return NewOSBackend(root)
	case BackendMemory:
		return NewMemoryBackend(), nil
	}
	return nil, errors.Errorf("filesystem: unknown backend %q", kind)
}

// Factory creates filesystems that share the same backend and guard
// settings, each with its own root and capability set.
type Factory struct {
	Backend     BackendKind
	UseOpenat2  bool
	StrictPaths bool
	Denylist    []string
	Logger      *log.Entry
}

// NewFactory returns a factory using the default backend for the platform.
func NewFactory() *Factory {
	return &Factory{Backend: defaultBackendKind}
}

// FactoryFromConfig builds a factory and the configured capability set from
// the filesystem section of the configuration file.
func FactoryFromConfig(c config.FilesystemConfiguration) (*Factory, Capabilities, error) {
	caps, err := ParseCapabilities(c.Capabilities)
	if err != nil {
		return nil, Capabilities{}, err
	}
	kind := BackendKind(c.Backend)
	if kind == "" {
		kind = defaultBackendKind
	}
	return &Factory{
		Backend:     kind,
		UseOpenat2:  c.UseOpenat2,
		StrictPaths: c.StrictPaths,
		Denylist:    c.Denylist,
	}, caps, nil
}

// Make creates a filesystem with every capability enabled.
func (f *Factory) Make(root string) (*Filesystem, error) {
	return f.MakeWith(root, AllCapabilities())
}

// MakeWith creates a filesystem advertising exactly caps.
func (f *Factory) MakeWith(root string, caps Capabilities) (*Filesystem, error) {
	opts := []Option{
		WithCapabilities(caps),
		WithBackendKind(f.Backend),
		WithOpenat2(f.UseOpenat2),
		WithStrictPaths(f.StrictPaths),
		WithDenylist(f.Denylist),
	}
	if f.Logger != nil {
		opts = append(opts, WithLogger(f.Logger))
	}
	return New(root, opts...)
}

func (f *Factory) MakeReadable(root string) (*Filesystem, error) {
	return f.MakeWith(root, Capabilities{Readable: true})
}

func (f *Factory) MakeWritable(root string) (*Filesystem, error) {
	return f.MakeWith(root, Capabilities{Writable: true})
}

func (f *Factory) MakeAppendable(root string) (*Filesystem, error) {
	return f.MakeWith(root, Capabilities{Appendable: true})
}

func (f *Factory) MakeTruncatable(root string) (*Filesystem, error) {
	return f.MakeWith(root, Capabilities{Truncatable: true})
}
