package shared

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomHex(t *testing.T) {
	s, err := RandomHex(16)
	require.NoError(t, err)
	assert.True(t, IsHexString(s, 32))

	empty, err := RandomHex(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNewID(t *testing.T) {
	a, err := NewID("sl_", 16)
	require.NoError(t, err)
	b, err := NewID("sl_", 16)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "sl_"))
	assert.True(t, IsHexString(strings.TrimPrefix(a, "sl_"), 32))
	assert.NotEqual(t, a, b)
}

func TestIsHexString(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want bool
	}{
		{"00ff", 4, true},
		{"00FF", 4, false},
		{"00f", 4, false},
		{"zzzz", 4, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, IsHexString(tc.in, tc.n), "IsHexString(%q, %d)", tc.in, tc.n)
	}
}
