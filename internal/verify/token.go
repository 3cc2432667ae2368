package verify

import (
	"crypto/rand"
	"encoding/base64"
)

const tokenBytes = 24

// NewToken returns an unguessable opaque string suitable as a
// single-use email activation credential. It carries no account data.
func NewToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
