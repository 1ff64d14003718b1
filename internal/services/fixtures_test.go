// internal/services/fixtures_test.go
package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/models"
)

// newTestDB opens a fresh in-memory database with the pipeline tables the
// workflow tests touch.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Customer{},
		&models.Address{},
		&models.Lead{},
		&models.Quote{},
		&models.Agreement{},
		&models.Invoice{},
		&models.Subscription{},
	))
	return db
}

type stubMailer struct {
	quoteEmails        int
	agreementEmails    int
	paymentLinkEmails  int
	subscriptionEmails int
	fail               bool
}

func (m *stubMailer) SendQuoteEmail(customer *models.Customer, quote *models.Quote, acceptURL string) error {
	m.quoteEmails++
	if m.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (m *stubMailer) SendAgreementEmail(customer *models.Customer, agreement *models.Agreement) error {
	m.agreementEmails++
	if m.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (m *stubMailer) SendPaymentLinkEmail(customer *models.Customer, invoice *models.Invoice, paymentURL string) error {
	m.paymentLinkEmails++
	if m.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (m *stubMailer) SendSubscriptionSetupEmail(customer *models.Customer, invoice *models.Invoice, setupURL string) error {
	m.subscriptionEmails++
	if m.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

type stubESign struct {
	calls int
	fail  bool
}

func (s *stubESign) CreateDocument(req *CreateDocumentRequest) (*CreateDocumentResult, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("e-sign provider unavailable")
	}
	return &CreateDocumentResult{
		DocumentID:  fmt.Sprintf("doc_%d", s.calls),
		SignPageURL: "https://esign.example/sign/abc",
	}, nil
}

// workflowFixture wires the quote, agreement and invoice services over an
// in-memory database with stubbed external providers.
type workflowFixture struct {
	db         *gorm.DB
	mailer     *stubMailer
	esign      *stubESign
	quotes     *QuoteService
	agreements *AgreementService
	invoices   *InvoiceService
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()

	db := newTestDB(t)
	cfg := &config.Config{}
	mailer := &stubMailer{}
	esign := &stubESign{}

	invoices := NewInvoiceService(db, cfg, mailer, NewSubscriptionService(db, cfg))
	agreements := NewAgreementService(db, cfg, esign, mailer, invoices)
	quotes := NewQuoteService(db, cfg, mailer, agreements, invoices)

	return &workflowFixture{
		db:         db,
		mailer:     mailer,
		esign:      esign,
		quotes:     quotes,
		agreements: agreements,
		invoices:   invoices,
	}
}

func (f *workflowFixture) seedQuote(t *testing.T, status models.QuoteStatus, setupFee float64) *models.Quote {
	t.Helper()

	customer := &models.Customer{
		FirstName: "Pat",
		LastName:  "Doyle",
		Email:     fmt.Sprintf("pat+%s@example.com", uuid.NewString()),
		Phone:     "+15555550123",
	}
	require.NoError(t, f.db.Create(customer).Error)
	require.NoError(t, f.db.Create(&models.Address{
		CustomerID: customer.ID,
		Street:     "12 Elm St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
	}).Error)

	lead := &models.Lead{CustomerID: customer.ID, Status: models.LeadStatusQuoted}
	require.NoError(t, f.db.Create(lead).Error)

	quote := &models.Quote{
		LeadID:            lead.ID,
		MonthlyRentalRate: 250,
		SetupFee:          setupFee,
		RentalType:        models.RentalTypeRecurring,
		Status:            status,
	}
	require.NoError(t, f.db.Create(quote).Error)
	return quote
}

func (f *workflowFixture) seedAgreement(t *testing.T, quote *models.Quote) *models.Agreement {
	t.Helper()

	agreement := &models.Agreement{
		QuoteID:           quote.ID,
		Status:            models.AgreementStatusSigned,
		MonthlyRentalRate: quote.MonthlyRentalRate,
		SetupFee:          quote.SetupFee,
		RentalType:        quote.RentalType,
	}
	require.NoError(t, f.db.Create(agreement).Error)
	return agreement
}
