package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	v, err := Parse("2.6")
	require.NoError(t, err)
	assert.Equal(t, ProtocolVersion{Major: 2, Minor: 6}, v)
	assert.Equal(t, "2.6", v.String())

	for _, bad := range []string{"", "2", "2.", ".6", "a.b", "2.6.1", "300.1"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidVersion, "input %q", bad)
	}
}

func TestCurrentParses(t *testing.T) {
	v := MustParse(Current)
	assert.Equal(t, uint8(2), v.Major)
}

func TestFromBytes(t *testing.T) {
	assert.Equal(t, ProtocolVersion{Major: 2, Minor: 5}, FromBytes(2, 5))
}

func TestCompatible(t *testing.T) {
	lib := MustParse(Current)
	assert.True(t, lib.Compatible(ProtocolVersion{Major: 2, Minor: 3}))
	assert.True(t, lib.Compatible(ProtocolVersion{Major: 2, Minor: 9}))
	assert.False(t, lib.Compatible(ProtocolVersion{Major: 3, Minor: 0}))
}
