package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength    = 16
	argonTime     = 1
	argonMemory   = 64 * 1024
	argonThreads  = 4
	argonKeyBytes = 32
)

// HashPassword derives an argon2id hash with a fresh random salt. Both are
// hex encoded.
func HashPassword(password string) (hash string, salt string, err error) {
	s := make([]byte, saltLength)
	if _, err := rand.Read(s); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(derive(password, s)), hex.EncodeToString(s), nil
}

func CheckPasswordHash(password, hash, salt string) bool {
	s, err := hex.DecodeString(salt)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(hash)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(derive(password, s), want) == 1
}

func derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyBytes)
}
