// Package cryptox hashes and verifies the admin PIN.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	pinScheme = "argon2id"
	saltSize  = 16
)

// DeriveKey stretches secret with argon2id into a 32 byte key.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// HashPIN returns pin encoded as "argon2id$<salt>$<key>" with a fresh
// random salt.
func HashPIN(pin string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return encode(salt, DeriveKey([]byte(pin), salt)), nil
}

// VerifyPIN reports whether pin matches an encoding produced by HashPIN.
func VerifyPIN(encoded, pin string) bool {
	salt, key, ok := decode(encoded)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare(key, DeriveKey([]byte(pin), salt)) == 1
}

// IsPINHash reports whether s looks like the output of HashPIN.
func IsPINHash(s string) bool {
	_, _, ok := decode(s)
	return ok
}

func encode(salt, key []byte) string {
	return pinScheme + "$" + hex.EncodeToString(salt) + "$" + hex.EncodeToString(key)
}

func decode(s string) (salt, key []byte, ok bool) {
	parts := strings.Split(s, "$")
	if len(parts) != 3 || parts[0] != pinScheme {
		return nil, nil, false
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return nil, nil, false
	}
	key, err = hex.DecodeString(parts[2])
	if err != nil || len(key) != 32 {
		return nil, nil, false
	}
	return salt, key, true
}
