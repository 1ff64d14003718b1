// internal/utils/token_test.go
package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptanceTokenRoundTrip(t *testing.T) {
	SetAcceptanceSecret("test-secret")

	quoteID := uuid.New()
	expiry := time.Now().Add(24 * time.Hour)
	token := GenerateAcceptanceToken(quoteID, expiry)

	got, err := VerifyAcceptanceToken(token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, quoteID, got)
}

func TestAcceptanceTokenExpired(t *testing.T) {
	SetAcceptanceSecret("test-secret")

	token := GenerateAcceptanceToken(uuid.New(), time.Now().Add(-time.Minute))

	_, err := VerifyAcceptanceToken(token, time.Now())
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAcceptanceTokenTamperedSignature(t *testing.T) {
	SetAcceptanceSecret("test-secret")

	token := GenerateAcceptanceToken(uuid.New(), time.Now().Add(time.Hour))

	// Flip one character in the middle of the encoded token.
	tampered := []byte(token)
	if tampered[10] == 'A' {
		tampered[10] = 'B'
	} else {
		tampered[10] = 'A'
	}

	_, err := VerifyAcceptanceToken(string(tampered), time.Now())
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAcceptanceTokenWrongSecret(t *testing.T) {
	SetAcceptanceSecret("secret-one")
	token := GenerateAcceptanceToken(uuid.New(), time.Now().Add(time.Hour))

	SetAcceptanceSecret("secret-two")
	_, err := VerifyAcceptanceToken(token, time.Now())
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAcceptanceTokenGarbage(t *testing.T) {
	SetAcceptanceSecret("test-secret")

	for _, token := range []string{"", "not-base64!!!", "YWJjZGVm"} {
		_, err := VerifyAcceptanceToken(token, time.Now())
		assert.ErrorIs(t, err, ErrTokenInvalid, token)
	}
}
