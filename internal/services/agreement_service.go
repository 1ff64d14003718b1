// internal/services/agreement_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/models"
	"github.com/accessramp/ramp-backend/internal/utils"
)

var (
	ErrAgreementNotFound = errors.New("agreement not found")
	ErrAgreementTerminal = errors.New("agreement has already been signed, declined or expired")
)

type AgreementService struct {
	db             *gorm.DB
	config         *config.Config
	esign          ESignProvider
	mailer         Mailer
	invoiceService *InvoiceService
}

func NewAgreementService(db *gorm.DB, config *config.Config, esign ESignProvider, mailer Mailer, invoiceService *InvoiceService) *AgreementService {
	return &AgreementService{
		db:             db,
		config:         config,
		esign:          esign,
		mailer:         mailer,
		invoiceService: invoiceService,
	}
}

func (s *AgreementService) Get(id uuid.UUID) (*models.Agreement, error) {
	var agreement models.Agreement
	if err := s.db.Preload("Quote.Lead.Customer").Preload("Invoices").Preload("Installations").
		First(&agreement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgreementNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &agreement, nil
}

func (s *AgreementService) List(params utils.PaginationParams) ([]models.Agreement, int64, error) {
	query := s.db.Model(&models.Agreement{}).Preload("Quote.Lead.Customer")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count agreements: %w", err)
	}

	allowedSortFields := []string{"created_at", "status", "signed_date"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var agreements []models.Agreement
	if err := query.Find(&agreements).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch agreements: %w", err)
	}

	return agreements, total, nil
}

// Send submits the agreement to the e-signature provider and records the
// returned document reference. Terminal agreements are refused before any
// provider call is made.
func (s *AgreementService) Send(id uuid.UUID) (*models.Agreement, error) {
	var agreement models.Agreement
	if err := s.db.Preload("Quote.Lead.Customer.Addresses").First(&agreement, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgreementNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if agreement.Status.IsTerminal() {
		return nil, ErrAgreementTerminal
	}

	customer := agreement.Quote.Lead.Customer
	addressLine := ""
	if len(customer.Addresses) > 0 {
		addressLine = customer.Addresses[0].FormattedLine()
	}

	req := &CreateDocumentRequest{
		TemplateID: s.config.ESign.TemplateID,
		Title:      fmt.Sprintf("Ramp Rental Agreement - %s", customer.FullName()),
		Signers: []DocumentSigner{
			{Name: customer.FullName(), Email: customer.Email, Mobile: customer.Phone},
		},
		PlaceholderFields: []PlaceholderField{
			{APIKey: "customer_name", Value: customer.FullName()},
			{APIKey: "customer_email", Value: customer.Email},
			{APIKey: "customer_phone", Value: customer.Phone},
			{APIKey: "customer_address", Value: addressLine},
			{APIKey: "monthly_rental_rate", Value: fmt.Sprintf("%.2f", agreement.MonthlyRentalRate)},
			{APIKey: "setup_fee", Value: fmt.Sprintf("%.2f", agreement.SetupFee)},
			{APIKey: "rental_type", Value: string(agreement.RentalType)},
		},
		Metadata:      agreement.ID.String(),
		WebhookURL:    fmt.Sprintf("%s/v1/webhooks/esign", s.config.Server.PublicURL),
		ExpireInHours: s.config.ESign.ExpiryHours,
	}

	result, err := s.esign.CreateDocument(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature request: %w", err)
	}

	agreement.Notes.DocumentID = result.DocumentID
	agreement.Notes.SignPageURL = result.SignPageURL
	agreement.Status = models.AgreementStatusSent
	if err := s.db.Save(&agreement).Error; err != nil {
		return nil, fmt.Errorf("failed to update agreement: %w", err)
	}

	if err := s.mailer.SendAgreementEmail(&customer, &agreement); err != nil {
		// The sign page still works without our email; the provider sends its
		// own invitation as well.
		logrus.WithError(err).WithField("agreement_id", agreement.ID).Error("Failed to send agreement email")
	}

	return &agreement, nil
}

// esignTransition describes what a provider event does to an agreement.
type esignTransition struct {
	Status models.AgreementStatus
	Rank   int
	Viewed bool
	Signed bool
}

// statusRank orders agreement statuses so a late-arriving low-rank event
// (e.g. "signer-viewed" delivered after "signer-signed") cannot regress the row.
var statusRank = map[models.AgreementStatus]int{
	models.AgreementStatusDraft:    0,
	models.AgreementStatusSent:     1,
	models.AgreementStatusSigned:   3,
	models.AgreementStatusDeclined: 3,
	models.AgreementStatusExpired:  3,
}

// esignEventTable maps provider webhook event names to transitions. Events
// missing from the table are accepted and ignored.
var esignEventTable = map[string]esignTransition{
	"contract-sent":    {Status: models.AgreementStatusSent, Rank: 1},
	"signer-viewed":    {Status: models.AgreementStatusSent, Rank: 2, Viewed: true},
	"signer-signed":    {Status: models.AgreementStatusSigned, Rank: 3, Signed: true},
	"contract-signed":  {Status: models.AgreementStatusSigned, Rank: 3, Signed: true},
	"signer-declined":  {Status: models.AgreementStatusDeclined, Rank: 3},
	"contract-expired": {Status: models.AgreementStatusExpired, Rank: 3},
}

// resolveESignEvent decides whether an event applies to an agreement in the
// given status. Unknown events and rank regressions return apply=false.
func resolveESignEvent(current models.AgreementStatus, event string) (esignTransition, bool) {
	transition, known := esignEventTable[event]
	if !known {
		return esignTransition{}, false
	}
	if transition.Rank < statusRank[current] {
		return esignTransition{}, false
	}
	return transition, true
}

// HandleWebhook applies one provider callback. Unknown events and events for
// unknown documents are treated as success so the provider stops retrying.
func (s *AgreementService) HandleWebhook(payload *ESignWebhookPayload) error {
	log := logrus.WithFields(logrus.Fields{
		"event":       payload.Status,
		"contract_id": payload.Data.Contract.ID,
	})

	agreement, err := s.findWebhookTarget(payload)
	if err != nil {
		if errors.Is(err, ErrAgreementNotFound) {
			log.Warn("E-sign webhook for unknown agreement, ignoring")
			return nil
		}
		return err
	}

	transition, apply := resolveESignEvent(agreement.Status, payload.Status)
	if !apply {
		log.WithField("current_status", agreement.Status).Info("E-sign webhook ignored")
		return nil
	}

	now := time.Now()
	agreement.Status = transition.Status
	if transition.Viewed {
		agreement.Notes.ViewedDate = &now
	}
	if transition.Signed {
		signedAt := now
		if payload.Data.Contract.FinalizedAt != nil {
			signedAt = *payload.Data.Contract.FinalizedAt
		}
		agreement.SignedDate = &signedAt
		agreement.Notes.SignedDate = &signedAt
		if payload.Data.Contract.PDFURL != "" {
			agreement.Notes.ContractPDFURL = payload.Data.Contract.PDFURL
		}
	}

	if err := s.db.Save(agreement).Error; err != nil {
		return fmt.Errorf("failed to update agreement from webhook: %w", err)
	}
	log.WithField("new_status", agreement.Status).Info("Agreement updated from e-sign webhook")

	if transition.Signed {
		s.invoiceSetupFeeAfterSigning(agreement)
	}

	return nil
}

// findWebhookTarget locates the agreement by the metadata we planted on the
// document, falling back to the stored document id.
func (s *AgreementService) findWebhookTarget(payload *ESignWebhookPayload) (*models.Agreement, error) {
	if payload.Data.Contract.Metadata != "" {
		if agreementID, err := uuid.Parse(payload.Data.Contract.Metadata); err == nil {
			var agreement models.Agreement
			err := s.db.First(&agreement, agreementID).Error
			if err == nil {
				return &agreement, nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("database error: %w", err)
			}
		}
	}

	if payload.Data.Contract.ID == "" {
		return nil, ErrAgreementNotFound
	}

	var agreement models.Agreement
	err := s.db.Where("notes->>'document_id' = ?", payload.Data.Contract.ID).First(&agreement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgreementNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &agreement, nil
}

// invoiceSetupFeeAfterSigning creates and sends the setup invoice once the
// agreement is signed, unless acceptance already produced one.
func (s *AgreementService) invoiceSetupFeeAfterSigning(agreement *models.Agreement) {
	if agreement.SetupFee <= 0 {
		return
	}

	log := logrus.WithField("agreement_id", agreement.ID)

	var existing int64
	if err := s.db.Model(&models.Invoice{}).
		Where("agreement_id = ? AND invoice_type = ?", agreement.ID, models.InvoiceTypeSetup).
		Count(&existing).Error; err != nil {
		log.WithError(err).Error("Failed to check for existing setup invoice")
		return
	}
	if existing > 0 {
		return
	}

	invoice, err := s.invoiceService.Create(&CreateInvoiceRequest{
		AgreementID: agreement.ID,
		InvoiceType: models.InvoiceTypeSetup,
		Amount:      agreement.SetupFee,
	})
	if err != nil {
		log.WithError(err).Error("Failed to create setup invoice after signing")
		return
	}

	if _, err := s.invoiceService.Send(invoice.ID); err != nil {
		log.WithError(err).Error("Failed to send setup invoice after signing")
	}
}
