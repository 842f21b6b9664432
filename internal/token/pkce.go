// Package token provides utilities for OAuth2 PKCE (Proof Key for Code Exchange)
// handling. It generates code verifiers and state values from a cryptographic
// random source and derives S256 code challenges as defined in RFC 7636.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// PKCE-related constants. Verifier length limits follow RFC 7636.
const (
	// CodeChallengeMethodS256 represents the SHA-256 based challenge method.
	// It is the only method the dashboard sends.
	CodeChallengeMethodS256 = "S256"

	// CodeVerifierMinLength is the minimum allowed length for a code verifier.
	CodeVerifierMinLength = 43

	// CodeVerifierMaxLength is the maximum allowed length for a code verifier.
	CodeVerifierMaxLength = 128

	// VerifierEntropyBytes is the number of random bytes behind a code verifier.
	// 64 bytes encode to 86 characters, inside the RFC 7636 limits.
	VerifierEntropyBytes = 64

	// StateEntropyBytes is the number of random bytes behind an OAuth2 state value.
	StateEntropyBytes = 32
)

// encoding is base64url without padding, so '+', '/' and '=' never appear.
var encoding = base64.URLEncoding.WithPadding(base64.NoPadding)

// RandomString returns a base64url-encoded string of length cryptographically
// random bytes. The result carries no padding.
func RandomString(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("random string length must be positive, got %d", length)
	}

	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return encoding.EncodeToString(bytes), nil
}

// SHA256 returns the raw SHA-256 digest of the UTF-8 encoding of input.
func SHA256(input string) []byte {
	sum := sha256.Sum256([]byte(input))
	return sum[:]
}

// Challenge computes the S256 code challenge for verifier:
// base64url(SHA-256(verifier)) without padding. It is deterministic.
func Challenge(verifier string) string {
	return encoding.EncodeToString(SHA256(verifier))
}

// GenerateVerifier returns a new code verifier suitable for an OAuth2 PKCE flow.
func GenerateVerifier() (string, error) {
	verifier, err := RandomString(VerifierEntropyBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate code verifier: %w", err)
	}

	if err := ValidateVerifier(verifier); err != nil {
		return "", err
	}

	return verifier, nil
}

// GenerateState returns a new opaque OAuth2 state value.
func GenerateState() (string, error) {
	state, err := RandomString(StateEntropyBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return state, nil
}

// ValidateVerifier checks that the code verifier is non-empty, meets the
// RFC 7636 length limits, and only contains unreserved characters
// (ALPHA / DIGIT / "-" / "." / "_" / "~").
func ValidateVerifier(verifier string) error {
	if verifier == "" {
		return errors.New("code verifier is empty")
	}

	if len(verifier) < CodeVerifierMinLength {
		return fmt.Errorf("code verifier is too short (minimum %d characters)", CodeVerifierMinLength)
	}

	if len(verifier) > CodeVerifierMaxLength {
		return fmt.Errorf("code verifier is too long (maximum %d characters)", CodeVerifierMaxLength)
	}

	for _, char := range verifier {
		if !isUnreservedChar(char) {
			return fmt.Errorf("code verifier contains invalid character: %c", char)
		}
	}

	return nil
}

// isUnreservedChar reports whether the rune is an unreserved character per
// RFC 7636 (allowed in code verifiers).
func isUnreservedChar(char rune) bool {
	return (char >= 'A' && char <= 'Z') ||
		(char >= 'a' && char <= 'z') ||
		(char >= '0' && char <= '9') ||
		char == '-' || char == '.' || char == '_' || char == '~'
}
