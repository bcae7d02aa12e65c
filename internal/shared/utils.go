// Package shared holds identifier helpers used by the link and snapshot
// services and the blob store.
package shared

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// RandomHex returns n random bytes encoded as 2n lower-case hex characters.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewID returns prefix followed by n random bytes in hex.
func NewID(prefix string, n int) (string, error) {
	s, err := RandomHex(n)
	if err != nil {
		return "", err
	}
	return prefix + s, nil
}

// IsHexString reports whether s is a non-empty lower-case hexadecimal string
// of exactly n characters.
func IsHexString(s string, n int) bool {
	if len(s) != n || n == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
