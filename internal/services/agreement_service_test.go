// internal/services/agreement_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/accessramp/ramp-backend/internal/models"
)

func TestResolveESignEventForwardTransitions(t *testing.T) {
	cases := []struct {
		current models.AgreementStatus
		event   string
		want    models.AgreementStatus
	}{
		{models.AgreementStatusDraft, "contract-sent", models.AgreementStatusSent},
		{models.AgreementStatusSent, "signer-viewed", models.AgreementStatusSent},
		{models.AgreementStatusSent, "signer-signed", models.AgreementStatusSigned},
		{models.AgreementStatusSent, "contract-signed", models.AgreementStatusSigned},
		{models.AgreementStatusSent, "signer-declined", models.AgreementStatusDeclined},
		{models.AgreementStatusSent, "contract-expired", models.AgreementStatusExpired},
		{models.AgreementStatusDraft, "signer-signed", models.AgreementStatusSigned},
	}

	for _, tc := range cases {
		transition, apply := resolveESignEvent(tc.current, tc.event)
		assert.True(t, apply, "%s on %s", tc.event, tc.current)
		assert.Equal(t, tc.want, transition.Status, "%s on %s", tc.event, tc.current)
	}
}

func TestResolveESignEventIgnoresUnknownEvents(t *testing.T) {
	for _, status := range []models.AgreementStatus{
		models.AgreementStatusDraft,
		models.AgreementStatusSent,
		models.AgreementStatusSigned,
	} {
		_, apply := resolveESignEvent(status, "contract-withdrawn")
		assert.False(t, apply, status)
	}
}

// Out-of-order delivery must not walk a terminal agreement backwards.
func TestResolveESignEventNoRegression(t *testing.T) {
	terminal := []models.AgreementStatus{
		models.AgreementStatusSigned,
		models.AgreementStatusDeclined,
		models.AgreementStatusExpired,
	}
	for _, status := range terminal {
		for _, event := range []string{"contract-sent", "signer-viewed"} {
			_, apply := resolveESignEvent(status, event)
			assert.False(t, apply, "%s on %s", event, status)
		}
	}
}

func TestResolveESignEventTerminalOverTerminal(t *testing.T) {
	// Equal rank still applies; the provider is authoritative about which
	// terminal state the contract actually landed in.
	transition, apply := resolveESignEvent(models.AgreementStatusSigned, "contract-expired")
	assert.True(t, apply)
	assert.Equal(t, models.AgreementStatusExpired, transition.Status)
}

func TestResolveESignEventSignedCarriesTimestampFlags(t *testing.T) {
	transition, apply := resolveESignEvent(models.AgreementStatusSent, "signer-signed")
	assert.True(t, apply)
	assert.True(t, transition.Signed)

	transition, apply = resolveESignEvent(models.AgreementStatusSent, "signer-viewed")
	assert.True(t, apply)
	assert.True(t, transition.Viewed)
	assert.False(t, transition.Signed)
}
