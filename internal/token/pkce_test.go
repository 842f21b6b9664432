package token_test

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/francs84-sketch/genesys-queue-activity-rt/internal/token"
)

func TestRandomString(t *testing.T) {
	tests := []struct {
		name   string
		length int
	}{
		{name: "state_length", length: token.StateEntropyBytes},
		{name: "verifier_length", length: token.VerifierEntropyBytes},
		{name: "single_byte", length: 1},
		{name: "odd_length", length: 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := token.RandomString(tt.length)
			require.NoError(t, err)

			assert.NotContains(t, s, "+")
			assert.NotContains(t, s, "/")
			assert.NotContains(t, s, "=")

			decoded, err := base64.RawURLEncoding.DecodeString(s)
			require.NoError(t, err)
			assert.Len(t, decoded, tt.length)
		})
	}
}

func TestRandomString_InvalidLength(t *testing.T) {
	_, err := token.RandomString(0)
	assert.Error(t, err)

	_, err = token.RandomString(-4)
	assert.Error(t, err)
}

func TestRandomString_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s, err := token.RandomString(32)
		require.NoError(t, err)
		assert.False(t, seen[s], "duplicate random string generated")
		seen[s] = true
	}
}

func TestSHA256(t *testing.T) {
	want := sha256.Sum256([]byte("héllo"))
	assert.Equal(t, want[:], token.SHA256("héllo"))
	assert.Len(t, token.SHA256(""), sha256.Size)
}

func TestChallenge(t *testing.T) {
	// RFC 7636 appendix B test vector.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", token.Challenge(verifier))
}

func TestChallenge_Deterministic(t *testing.T) {
	verifier, err := token.GenerateVerifier()
	require.NoError(t, err)

	first := token.Challenge(verifier)
	second := token.Challenge(verifier)

	assert.Equal(t, first, second)
	assert.False(t, strings.Contains(first, "="), "challenge must not be padded")

	sum := sha256.Sum256([]byte(verifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), first)
}

func TestGenerateVerifier(t *testing.T) {
	verifier, err := token.GenerateVerifier()
	require.NoError(t, err)

	assert.NoError(t, token.ValidateVerifier(verifier))
	assert.GreaterOrEqual(t, len(verifier), token.CodeVerifierMinLength)
	assert.LessOrEqual(t, len(verifier), token.CodeVerifierMaxLength)
}

func TestGenerateState(t *testing.T) {
	state, err := token.GenerateState()
	require.NoError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(state)
	require.NoError(t, err)
	assert.Len(t, decoded, token.StateEntropyBytes)
}

func TestValidateVerifier(t *testing.T) {
	tests := []struct {
		name     string
		verifier string
		wantErr  bool
	}{
		{name: "valid_min_length", verifier: strings.Repeat("a", token.CodeVerifierMinLength)},
		{name: "valid_max_length", verifier: strings.Repeat("Z", token.CodeVerifierMaxLength)},
		{name: "valid_unreserved", verifier: strings.Repeat("aZ0-._~", 7)},
		{name: "empty", verifier: "", wantErr: true},
		{name: "too_short", verifier: strings.Repeat("a", token.CodeVerifierMinLength-1), wantErr: true},
		{name: "too_long", verifier: strings.Repeat("a", token.CodeVerifierMaxLength+1), wantErr: true},
		{name: "invalid_character", verifier: strings.Repeat("a", 43) + "+", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := token.ValidateVerifier(tt.verifier)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
