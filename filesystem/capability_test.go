package filesystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCapabilities(t *testing.T) {
	caps, err := ParseCapabilities([]string{"readable", " Removable "})
	require.NoError(t, err)
	assert.Equal(t, Capabilities{Readable: true, Removable: true}, caps)
	assert.Equal(t, "readable,removable", caps.String())

	_, err = ParseCapabilities([]string{"readable", "executable"})
	assert.Error(t, err)

	caps, err = ParseCapabilities(nil)
	require.NoError(t, err)
	assert.Equal(t, "none", caps.String())
	assert.Empty(t, caps.List())
}

func TestCapabilities(t *testing.T) {
	all := AllCapabilities()
	assert.Len(t, all.List(), 5)
	for _, c := range all.List() {
		assert.True(t, all.Has(c), c.String())
		assert.False(t, Capabilities{}.Has(c), c.String())
		assert.Equal(t, Capabilities{}.With(c).List(), []Capability{c})

		parsed, err := ParseCapability(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	assert.Equal(t, "unknown", Capability(42).String())
}
