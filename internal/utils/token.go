// internal/utils/token.go
package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Acceptance tokens gate the public quote-acceptance link. Each token binds a
// quote id to an expiry and is signed with HMAC-SHA256, so possessing a quote
// id alone is not enough to accept it.

var (
	ErrTokenInvalid = errors.New("acceptance token is invalid")
	ErrTokenExpired = errors.New("acceptance token has expired")
)

var acceptanceSecret = []byte("change-me-acceptance-secret")

func SetAcceptanceSecret(secret string) {
	acceptanceSecret = []byte(secret)
}

func GenerateAcceptanceToken(quoteID uuid.UUID, expiresAt time.Time) string {
	payload := fmt.Sprintf("%s.%d", quoteID.String(), expiresAt.Unix())
	sig := signPayload(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload + "." + sig))
}

// VerifyAcceptanceToken returns the quote id embedded in the token after
// checking the signature and expiry.
func VerifyAcceptanceToken(token string, now time.Time) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	parts := strings.Split(string(raw), ".")
	if len(parts) != 3 {
		return uuid.Nil, ErrTokenInvalid
	}

	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(signPayload(payload)), []byte(parts[2])) {
		return uuid.Nil, ErrTokenInvalid
	}

	quoteID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}

	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return uuid.Nil, ErrTokenInvalid
	}
	if now.After(time.Unix(expiry, 0)) {
		return uuid.Nil, ErrTokenExpired
	}

	return quoteID, nil
}

func signPayload(payload string) string {
	mac := hmac.New(sha256.New, acceptanceSecret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
