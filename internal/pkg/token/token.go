package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// NewVerificationToken generates a cryptographically random 32-character hex
// token used to prove control of an email address. Single-use: the pairing
// engine clears it once the account verifies.
func NewVerificationToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewInvitationCode generates the 6-digit numeric code (100000-999999) a first
// partner hands to their second partner.
func NewInvitationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate invitation code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
