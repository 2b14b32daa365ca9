package filesystem

import (
	"strings"

	"emperror.dev/errors"
)

// Capability names one of the five operation categories a filesystem may
// advertise.
type Capability int

const (
	CapabilityReadable Capability = iota
	CapabilityWritable
	CapabilityAppendable
	CapabilityTruncatable
	CapabilityRemovable
)

var capabilityNames = map[Capability]string{
	CapabilityReadable:    "readable",
	CapabilityWritable:    "writable",
	CapabilityAppendable:  "appendable",
	CapabilityTruncatable: "truncatable",
	CapabilityRemovable:   "removable",
}

func (c Capability) String() string {
	if n, ok := capabilityNames[c]; ok {
		return n
	}
	return "unknown"
}

// ParseCapability returns the capability matching name. Matching is case
// insensitive.
func ParseCapability(name string) (Capability, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range capabilityNames {
		if n == name {
			return c, nil
		}
	}
	return 0, errors.Errorf("filesystem: unknown capability %q", name)
}

// Capabilities is the set of operation categories a filesystem supports. The
// set is fixed when the filesystem is created.
type Capabilities struct {
	Readable    bool
	Writable    bool
	Appendable  bool
	Truncatable bool
	Removable   bool
}

// AllCapabilities returns a set with every capability enabled, which is what
// the default factory uses.
func AllCapabilities() Capabilities {
	return Capabilities{Readable: true, Writable: true, Appendable: true, Truncatable: true, Removable: true}
}

// ParseCapabilities builds a set from a list of capability names.
func ParseCapabilities(names []string) (Capabilities, error) {
	var caps Capabilities
	for _, n := range names {
		c, err := ParseCapability(n)
		if err != nil {
			return Capabilities{}, err
		}
		caps = caps.With(c)
	}
	return caps, nil
}

// Has reports whether c is part of the set.
func (c Capabilities) Has(capability Capability) bool {
	switch capability {
	case CapabilityReadable:
		return c.Readable
	case CapabilityWritable:
		return c.Writable
	case CapabilityAppendable:
		return c.Appendable
	case CapabilityTruncatable:
		return c.Truncatable
	case CapabilityRemovable:
		return c.Removable
	}
	return false
}

// With returns a copy of the set with capability enabled.
func (c Capabilities) With(capability Capability) Capabilities {
	switch capability {
	case CapabilityReadable:
		c.Readable = true
	case CapabilityWritable:
		c.Writable = true
	case CapabilityAppendable:
		c.Appendable = true
	case CapabilityTruncatable:
		c.Truncatable = true
	case CapabilityRemovable:
		c.Removable = true
	}
	return c
}

// List returns the enabled capabilities in declaration order.
func (c Capabilities) List() []Capability {
	var out []Capability
	for _, capability := range []Capability{CapabilityReadable, CapabilityWritable, CapabilityAppendable, CapabilityTruncatable, CapabilityRemovable} {
		if c.Has(capability) {
			out = append(out, capability)
		}
	}
	return out
}

func (c Capabilities) String() string {
	var names []string
	for _, capability := range c.List() {
		names = append(names, capability.String())
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Introspect answers the capability queries of a filesystem. None of the
// methods touch storage.
type Introspect interface {
	IsReadable() bool
	IsWritable() bool
	IsAppendable() bool
	IsTruncatable() bool
	IsRemovable() bool
}
