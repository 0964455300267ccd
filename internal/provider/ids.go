package provider

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// NewID returns a fresh record identifier
func NewID() string {
	return uuid.NewString()
}

// IDOrNew returns id, or a fresh identifier when id is empty
func IDOrNew(id string) string {
	if id == "" {
		return NewID()
	}
	return id
}

// NewToken returns a random bearer token
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the hex digest stored in place of a bearer token
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
