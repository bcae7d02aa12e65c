package cryptox

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	expectedHex := "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"))
	key2 := DeriveKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestHashPIN_RoundTrip(t *testing.T) {
	h, err := HashPIN("4321")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(h, "argon2id$"))
	assert.True(t, IsPINHash(h))
	assert.True(t, VerifyPIN(h, "4321"))
	assert.False(t, VerifyPIN(h, "1234"))
	assert.False(t, VerifyPIN(h, ""))
}

func TestHashPIN_SaltedPerCall(t *testing.T) {
	a, err := HashPIN("0000")
	require.NoError(t, err)
	b, err := HashPIN("0000")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, VerifyPIN(a, "0000"))
	assert.True(t, VerifyPIN(b, "0000"))
}

func TestIsPINHash(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"1234", false},
		{"argon2id$zz$00", false},
		{"bcrypt$00$00", false},
		{"argon2id$0011$" + strings.Repeat("ab", 32), true},
		{"argon2id$0011$" + strings.Repeat("ab", 16), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPINHash(tt.in), tt.in)
	}
}
