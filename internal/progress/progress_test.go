// internal/progress/progress_test.go
package progress

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accessramp/ramp-backend/internal/models"
)

func newLead(status models.LeadStatus, createdAt time.Time) *models.Lead {
	lead := &models.Lead{Status: status}
	lead.ID = uuid.New()
	lead.CreatedAt = createdAt
	return lead
}

func newQuote(status models.QuoteStatus) *models.Quote {
	quote := &models.Quote{Status: status, MonthlyRentalRate: 300, SetupFee: 375}
	quote.ID = uuid.New()
	return quote
}

func newAgreement(status models.AgreementStatus) *models.Agreement {
	agreement := &models.Agreement{Status: status}
	agreement.ID = uuid.New()
	return agreement
}

func TestComputeEmptyPipeline(t *testing.T) {
	p := Compute(Records{}, time.Now())

	require.Len(t, p.Stages, 5)
	assert.Equal(t, 0, p.CurrentStage)
	assert.False(t, p.Complete)
	assert.Equal(t, 0, p.ElapsedDays)

	require.NotNil(t, p.NextAction)
	assert.Equal(t, "Create lead", p.NextAction.Label)
	assert.Equal(t, "/leads/new", p.NextAction.Link)
}

func TestComputeNewLeadIsCurrent(t *testing.T) {
	now := time.Now()
	rec := Records{Lead: newLead(models.LeadStatusNew, now.Add(-72*time.Hour))}

	p := Compute(rec, now)

	assert.Equal(t, 0, p.CurrentStage)
	assert.True(t, p.Stages[0].InProgress)
	assert.Equal(t, VariantActive, p.Stages[0].Variant)
	assert.Equal(t, 3, p.ElapsedDays)

	require.NotNil(t, p.NextAction)
	assert.Equal(t, "Contact lead", p.NextAction.Label)
	assert.Contains(t, p.NextAction.Link, rec.Lead.ID.String())
}

func TestComputeElapsedDaysFloors(t *testing.T) {
	now := time.Now()
	rec := Records{Lead: newLead(models.LeadStatusNew, now.Add(-71*time.Hour))}

	p := Compute(rec, now)
	assert.Equal(t, 2, p.ElapsedDays)
}

func TestComputeWonLeadAdvancesToQuote(t *testing.T) {
	now := time.Now()
	rec := Records{
		Lead:  newLead(models.LeadStatusWon, now.Add(-24*time.Hour)),
		Quote: newQuote(models.QuoteStatusSent),
	}

	p := Compute(rec, now)

	assert.True(t, p.Stages[0].Complete)
	assert.Equal(t, VariantSuccess, p.Stages[0].Variant)
	assert.Equal(t, 1, p.CurrentStage)

	require.NotNil(t, p.NextAction)
	assert.Equal(t, "Await acceptance", p.NextAction.Label)
}

func TestComputeLostLeadCompletesStage(t *testing.T) {
	now := time.Now()
	rec := Records{Lead: newLead(models.LeadStatusLost, now.Add(-24*time.Hour))}

	p := Compute(rec, now)

	assert.True(t, p.Stages[0].Complete)
	// Quote stage has no record, so the pipeline points there.
	assert.Equal(t, 1, p.CurrentStage)
	assert.False(t, p.Complete)
}

func TestComputeExpiredAgreementIsDanger(t *testing.T) {
	now := time.Now()
	rec := Records{
		Lead:      newLead(models.LeadStatusWon, now.Add(-240*time.Hour)),
		Quote:     newQuote(models.QuoteStatusAccepted),
		Agreement: newAgreement(models.AgreementStatusExpired),
	}

	p := Compute(rec, now)

	assert.Equal(t, 2, p.CurrentStage)
	assert.False(t, p.Stages[2].Complete)
	assert.True(t, p.Stages[2].InProgress)
	assert.Equal(t, VariantDanger, p.Stages[2].Variant)

	require.NotNil(t, p.NextAction)
	assert.Equal(t, "Resend agreement", p.NextAction.Label)
}

func TestComputeDeclinedAgreementCompletesStage(t *testing.T) {
	now := time.Now()
	rec := Records{
		Lead:      newLead(models.LeadStatusWon, now.Add(-240*time.Hour)),
		Quote:     newQuote(models.QuoteStatusAccepted),
		Agreement: newAgreement(models.AgreementStatusDeclined),
	}

	p := Compute(rec, now)
	assert.True(t, p.Stages[2].Complete)
	assert.Equal(t, 3, p.CurrentStage)
}

func TestComputeInstallationStates(t *testing.T) {
	now := time.Now()
	scheduled := now.Add(48 * time.Hour)

	cases := []struct {
		name       string
		inst       *models.Installation
		wantStatus string
		wantDone   bool
	}{
		{"pending", &models.Installation{}, "pending", false},
		{"scheduled", &models.Installation{InstallationDate: &scheduled}, "scheduled", false},
		{"signed off", &models.Installation{SignOff: true}, "complete", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := Records{
				Lead:         newLead(models.LeadStatusWon, now.Add(-24*time.Hour)),
				Quote:        newQuote(models.QuoteStatusAccepted),
				Agreement:    newAgreement(models.AgreementStatusSigned),
				Installation: tc.inst,
			}
			p := Compute(rec, now)
			assert.Equal(t, tc.wantStatus, p.Stages[3].Status)
			assert.Equal(t, tc.wantDone, p.Stages[3].Complete)
		})
	}
}

func TestComputeFullyComplete(t *testing.T) {
	now := time.Now()
	paid := now.Add(-time.Hour)
	rec := Records{
		Lead:         newLead(models.LeadStatusWon, now.Add(-30*24*time.Hour)),
		Quote:        newQuote(models.QuoteStatusAccepted),
		Agreement:    newAgreement(models.AgreementStatusSigned),
		Installation: &models.Installation{SignOff: true},
		Invoice:      &models.Invoice{Paid: true, PaymentDate: &paid},
	}

	p := Compute(rec, now)

	assert.True(t, p.Complete)
	assert.Equal(t, 4, p.CurrentStage)
	assert.Nil(t, p.NextAction)
	for _, st := range p.Stages {
		assert.True(t, st.Complete, st.Key)
	}
}

func TestComputeUnpaidInvoiceIsCurrent(t *testing.T) {
	now := time.Now()
	rec := Records{
		Lead:         newLead(models.LeadStatusWon, now.Add(-24*time.Hour)),
		Quote:        newQuote(models.QuoteStatusAccepted),
		Agreement:    newAgreement(models.AgreementStatusSigned),
		Installation: &models.Installation{SignOff: true},
		Invoice:      &models.Invoice{Paid: false, Amount: 375},
	}

	p := Compute(rec, now)

	assert.Equal(t, 4, p.CurrentStage)
	require.NotNil(t, p.NextAction)
	assert.Equal(t, "Collect payment", p.NextAction.Label)
}

// A late stage still in progress outranks an earlier incomplete one.
func TestComputeFurthestInProgressWins(t *testing.T) {
	now := time.Now()
	rec := Records{
		Lead:      newLead(models.LeadStatusQualified, now.Add(-24*time.Hour)),
		Quote:     newQuote(models.QuoteStatusAccepted),
		Agreement: newAgreement(models.AgreementStatusSent),
	}

	p := Compute(rec, now)
	assert.Equal(t, 2, p.CurrentStage)
}
