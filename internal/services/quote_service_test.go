// internal/services/quote_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessramp/ramp-backend/internal/models"
	"github.com/accessramp/ramp-backend/internal/utils"
)

func TestSendQuoteEmailsAndMarksSent(t *testing.T) {
	f := newWorkflowFixture(t)
	quote := f.seedQuote(t, models.QuoteStatusDraft, 150)

	_, err := f.quotes.Send(quote.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.mailer.quoteEmails)

	var got models.Quote
	require.NoError(t, f.db.First(&got, quote.ID).Error)
	assert.Equal(t, models.QuoteStatusSent, got.Status)
	require.NotNil(t, got.SentAt)
}

func TestSendQuoteRejectsTerminalStatus(t *testing.T) {
	f := newWorkflowFixture(t)

	for _, status := range []models.QuoteStatus{models.QuoteStatusAccepted, models.QuoteStatusRejected} {
		quote := f.seedQuote(t, status, 0)
		_, err := f.quotes.Send(quote.ID)
		assert.ErrorIs(t, err, ErrQuoteTerminal, status)
	}
	assert.Equal(t, 0, f.mailer.quoteEmails)
}

func TestAcceptQuoteTwiceKeepsOneAgreement(t *testing.T) {
	utils.SetAcceptanceSecret("quote-workflow-test-secret")
	f := newWorkflowFixture(t)
	quote := f.seedQuote(t, models.QuoteStatusSent, 0)
	token := utils.GenerateAcceptanceToken(quote.ID, time.Now().Add(24*time.Hour))

	first, err := f.quotes.Accept(token)
	require.NoError(t, err)
	assert.False(t, first.AlreadyDone)
	assert.Equal(t, models.QuoteStatusAccepted, first.Quote.Status)
	require.NotNil(t, first.Agreement)

	second, err := f.quotes.Accept(token)
	require.NoError(t, err)
	assert.True(t, second.AlreadyDone)
	require.NotNil(t, second.Agreement)
	assert.Equal(t, first.Agreement.ID, second.Agreement.ID)
	assert.Empty(t, second.FollowUpSteps)

	var agreements int64
	require.NoError(t, f.db.Model(&models.Agreement{}).
		Where("quote_id = ?", quote.ID).Count(&agreements).Error)
	assert.Equal(t, int64(1), agreements)

	var lead models.Lead
	require.NoError(t, f.db.First(&lead, quote.LeadID).Error)
	assert.Equal(t, models.LeadStatusWon, lead.Status)

	// Follow-ups ran once: a single signature request went out.
	assert.Equal(t, 1, f.esign.calls)
}

func TestAcceptQuoteKeepsAcceptanceWhenAgreementSendFails(t *testing.T) {
	utils.SetAcceptanceSecret("quote-workflow-test-secret")
	f := newWorkflowFixture(t)
	f.esign.fail = true
	quote := f.seedQuote(t, models.QuoteStatusSent, 0)
	token := utils.GenerateAcceptanceToken(quote.ID, time.Now().Add(time.Hour))

	result, err := f.quotes.Accept(token)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteStatusAccepted, result.Quote.Status)
	require.Len(t, result.FollowUpSteps, 1)
	assert.Equal(t, "agreement_send", result.FollowUpSteps[0].Name)
	assert.False(t, result.FollowUpSteps[0].OK)
	assert.NotEmpty(t, result.FollowUpSteps[0].Error)
}

func TestAcceptRejectedQuoteFails(t *testing.T) {
	utils.SetAcceptanceSecret("quote-workflow-test-secret")
	f := newWorkflowFixture(t)
	quote := f.seedQuote(t, models.QuoteStatusRejected, 0)
	token := utils.GenerateAcceptanceToken(quote.ID, time.Now().Add(time.Hour))

	_, err := f.quotes.Accept(token)
	assert.ErrorIs(t, err, ErrQuoteRejected)
}
