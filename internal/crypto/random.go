// Package crypto wraps the key generation and password hashing used by the gate.
// Session tokens themselves are signed by the jwt library.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// KeySize is the number of random bytes in a generated signing key
const KeySize = 32

// GenerateKey creates a random signing key, base64 URL-encoded without padding
// so it can be pasted into an environment variable as is.
func GenerateKey() (string, error) {
	b := make([]byte, KeySize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashPassword hashes a basic-auth password with bcrypt at the default cost
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}
