package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// stateBytes sets the entropy floor for state values: 32 bytes = 256 bits.
const stateBytes = 32

// GenerateState returns a cryptographically random, URL-safe anti-CSRF
// state value for a single login attempt.
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("oauth: failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
