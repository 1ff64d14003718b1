// internal/services/invoice_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v74"

	"github.com/accessramp/ramp-backend/internal/models"
)

func TestAmountToCentsRoundsToNearestCent(t *testing.T) {
	cases := []struct {
		amount float64
		cents  int64
	}{
		{100, 10000},
		{346.55, 34655},
		{19.99, 1999},
		{0.01, 1},
		{258.5, 25850},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.cents, amountToCents(tc.amount), "%v", tc.amount)
	}
}

func TestSendInvoiceRejectsPaidInvoice(t *testing.T) {
	f := newWorkflowFixture(t)
	quote := f.seedQuote(t, models.QuoteStatusAccepted, 300)
	agreement := f.seedAgreement(t, quote)

	paidAt := time.Now().Add(-24 * time.Hour)
	invoice := &models.Invoice{
		AgreementID: agreement.ID,
		InvoiceType: models.InvoiceTypeSetup,
		Amount:      300,
		Paid:        true,
		PaymentDate: &paidAt,
	}
	require.NoError(t, f.db.Create(invoice).Error)

	_, err := f.invoices.Send(invoice.ID)
	assert.ErrorIs(t, err, ErrInvoiceAlreadyPaid)
	assert.Equal(t, 0, f.mailer.paymentLinkEmails)
	assert.Equal(t, 0, f.mailer.subscriptionEmails)
}

func TestUpdateInvoiceRejectsAmountChangeWhenPaid(t *testing.T) {
	f := newWorkflowFixture(t)
	quote := f.seedQuote(t, models.QuoteStatusAccepted, 300)
	agreement := f.seedAgreement(t, quote)

	paidAt := time.Now()
	invoice := &models.Invoice{
		AgreementID: agreement.ID,
		InvoiceType: models.InvoiceTypeSetup,
		Amount:      300,
		Paid:        true,
		PaymentDate: &paidAt,
	}
	require.NoError(t, f.db.Create(invoice).Error)

	newAmount := 275.0
	_, err := f.invoices.Update(invoice.ID, &UpdateInvoiceRequest{Amount: &newAmount})
	assert.ErrorIs(t, err, ErrInvoiceAlreadyPaid)

	err = f.invoices.Delete(invoice.ID)
	assert.ErrorIs(t, err, ErrInvoiceAlreadyPaid)
}

func TestPaymentIntentSucceededStampsEventTime(t *testing.T) {
	f := newWorkflowFixture(t)
	quote := f.seedQuote(t, models.QuoteStatusAccepted, 300)
	agreement := f.seedAgreement(t, quote)

	invoice := &models.Invoice{
		AgreementID: agreement.ID,
		InvoiceType: models.InvoiceTypeSetup,
		Amount:      300,
	}
	require.NoError(t, f.db.Create(invoice).Error)

	eventTime := time.Date(2026, 5, 4, 12, 30, 0, 0, time.UTC)
	pi := &stripe.PaymentIntent{
		ID:       "pi_evt_1",
		Metadata: map[string]string{"invoice_id": invoice.ID.String()},
	}
	require.NoError(t, f.invoices.HandlePaymentIntentSucceeded(pi, eventTime))

	var got models.Invoice
	require.NoError(t, f.db.First(&got, invoice.ID).Error)
	assert.True(t, got.Paid)
	require.NotNil(t, got.PaymentDate)
	assert.WithinDuration(t, eventTime, *got.PaymentDate, time.Second)
	assert.Equal(t, "pi_evt_1", got.StripePaymentRef)

	// A replayed delivery two days later must not move the payment date.
	require.NoError(t, f.invoices.HandlePaymentIntentSucceeded(pi, eventTime.Add(48*time.Hour)))
	require.NoError(t, f.db.First(&got, invoice.ID).Error)
	assert.WithinDuration(t, eventTime, *got.PaymentDate, time.Second)
}

func TestInvoicePaidSettlesFirstCycleAtEventTime(t *testing.T) {
	f := newWorkflowFixture(t)
	quote := f.seedQuote(t, models.QuoteStatusAccepted, 0)
	agreement := f.seedAgreement(t, quote)

	require.NoError(t, f.db.Create(&models.Subscription{
		AgreementID:          agreement.ID,
		StripeSubscriptionID: "sub_42",
		Status:               "incomplete",
	}).Error)

	pending := &models.Invoice{
		AgreementID:      agreement.ID,
		InvoiceType:      models.InvoiceTypeRental,
		Amount:           250,
		StripePaymentRef: "sub_42",
	}
	require.NoError(t, f.db.Create(pending).Error)

	eventTime := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	first := &stripe.Invoice{ID: "in_1", AmountPaid: 25000, Subscription: &stripe.Subscription{ID: "sub_42"}}
	require.NoError(t, f.invoices.HandleInvoicePaid(first, eventTime))

	var got models.Invoice
	require.NoError(t, f.db.First(&got, pending.ID).Error)
	assert.True(t, got.Paid)
	assert.Equal(t, "in_1", got.StripePaymentRef)
	require.NotNil(t, got.PaymentDate)
	assert.WithinDuration(t, eventTime, *got.PaymentDate, time.Second)

	// The next cycle inserts a fresh paid row instead of touching the first.
	second := &stripe.Invoice{ID: "in_2", AmountPaid: 25000, Subscription: &stripe.Subscription{ID: "sub_42"}}
	require.NoError(t, f.invoices.HandleInvoicePaid(second, eventTime.AddDate(0, 1, 0)))

	var count int64
	require.NoError(t, f.db.Model(&models.Invoice{}).
		Where("agreement_id = ? AND invoice_type = ? AND paid = ?", agreement.ID, models.InvoiceTypeRental, true).
		Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
