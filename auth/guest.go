package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// sessionIDBytes of entropy back every minted guest session id.
const sessionIDBytes = 32

// Legacy cookies carried "guest_"-prefixed or shorter ids, so validation is
// looser than what NewSessionID produces.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,128}$`)

// NewSessionID mints a guest session id.
func NewSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("mint session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ValidSessionID reports whether a client-supplied id may be trusted as a
// cart key.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}
