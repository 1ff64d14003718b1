// internal/services/quote_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/database"
	"github.com/accessramp/ramp-backend/internal/models"
	"github.com/accessramp/ramp-backend/internal/utils"
)

var (
	ErrQuoteNotFound = errors.New("quote not found")
	ErrQuoteTerminal = errors.New("quote has already been accepted or rejected")
	ErrQuoteRejected = errors.New("quote has been rejected")
)

const defaultQuoteValidityDays = 30

type QuoteService struct {
	db               *gorm.DB
	config           *config.Config
	mailer           Mailer
	agreementService *AgreementService
	invoiceService   *InvoiceService
}

type CreateQuoteRequest struct {
	LeadID            uuid.UUID         `json:"lead_id" validate:"required"`
	MonthlyRentalRate float64           `json:"monthly_rental_rate" validate:"required,min=0"`
	SetupFee          float64           `json:"setup_fee" validate:"min=0"`
	RentalType        models.RentalType `json:"rental_type" validate:"required,oneof=one_time recurring"`
	ValidUntil        *time.Time        `json:"valid_until,omitempty"`
}

type UpdateQuoteRequest struct {
	MonthlyRentalRate *float64           `json:"monthly_rental_rate,omitempty"`
	SetupFee          *float64           `json:"setup_fee,omitempty"`
	RentalType        *models.RentalType `json:"rental_type,omitempty"`
	ValidUntil        *time.Time         `json:"valid_until,omitempty"`
}

// SagaStep is the outcome of one best-effort follow-up step of quote
// acceptance. Failed steps never roll back the acceptance itself; they are
// surfaced so staff can re-run the action by hand.
type SagaStep struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type AcceptQuoteResult struct {
	Quote         *models.Quote     `json:"quote"`
	Agreement     *models.Agreement `json:"agreement"`
	AlreadyDone   bool              `json:"already_done"`
	FollowUpSteps []SagaStep        `json:"follow_up_steps,omitempty"`
}

func NewQuoteService(db *gorm.DB, config *config.Config, mailer Mailer, agreementService *AgreementService, invoiceService *InvoiceService) *QuoteService {
	return &QuoteService{
		db:               db,
		config:           config,
		mailer:           mailer,
		agreementService: agreementService,
		invoiceService:   invoiceService,
	}
}

func (s *QuoteService) Create(req *CreateQuoteRequest) (*models.Quote, error) {
	var lead models.Lead
	if err := s.db.First(&lead, req.LeadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("lead not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	validUntil := req.ValidUntil
	if validUntil == nil {
		t := time.Now().AddDate(0, 0, defaultQuoteValidityDays)
		validUntil = &t
	}

	quote := &models.Quote{
		LeadID:            req.LeadID,
		MonthlyRentalRate: req.MonthlyRentalRate,
		SetupFee:          req.SetupFee,
		RentalType:        req.RentalType,
		Status:            models.QuoteStatusDraft,
		ValidUntil:        validUntil,
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.Create(quote).Error; err != nil {
			return fmt.Errorf("failed to create quote: %w", err)
		}
		if lead.Status != models.LeadStatusWon && lead.Status != models.LeadStatusLost {
			if err := tx.Model(&lead).Update("status", models.LeadStatusQuoted).Error; err != nil {
				return fmt.Errorf("failed to update lead status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("Lead.Customer").First(quote, quote.ID)
	return quote, nil
}

func (s *QuoteService) Get(id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	if err := s.db.Preload("Lead.Customer").Preload("Agreements").First(&quote, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &quote, nil
}

func (s *QuoteService) List(params utils.PaginationParams) ([]models.Quote, int64, error) {
	query := s.db.Model(&models.Quote{}).Preload("Lead.Customer")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count quotes: %w", err)
	}

	allowedSortFields := []string{"created_at", "monthly_rental_rate", "setup_fee", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var quotes []models.Quote
	if err := query.Find(&quotes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch quotes: %w", err)
	}

	return quotes, total, nil
}

func (s *QuoteService) Update(id uuid.UUID, req *UpdateQuoteRequest) (*models.Quote, error) {
	quote, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if quote.Status.IsTerminal() {
		return nil, ErrQuoteTerminal
	}

	if req.MonthlyRentalRate != nil {
		quote.MonthlyRentalRate = *req.MonthlyRentalRate
	}
	if req.SetupFee != nil {
		quote.SetupFee = *req.SetupFee
	}
	if req.RentalType != nil {
		quote.RentalType = *req.RentalType
	}
	if req.ValidUntil != nil {
		quote.ValidUntil = req.ValidUntil
	}

	if err := s.db.Save(quote).Error; err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}
	return quote, nil
}

func (s *QuoteService) Delete(id uuid.UUID) error {
	result := s.db.Delete(&models.Quote{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete quote: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrQuoteNotFound
	}
	return nil
}

// Send emails the quote with its signed acceptance link. Terminal quotes are
// rejected before anything leaves the building.
func (s *QuoteService) Send(id uuid.UUID) (*models.Quote, error) {
	var quote models.Quote
	if err := s.db.Preload("Lead.Customer").First(&quote, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if quote.Status.IsTerminal() {
		return nil, ErrQuoteTerminal
	}

	expiry := time.Now().AddDate(0, 0, defaultQuoteValidityDays)
	if quote.ValidUntil != nil {
		expiry = *quote.ValidUntil
	}
	token := utils.GenerateAcceptanceToken(quote.ID, expiry)
	acceptURL := fmt.Sprintf("%s/v1/public/quotes/accept?token=%s", s.config.Server.PublicURL, token)

	if err := s.mailer.SendQuoteEmail(&quote.Lead.Customer, &quote, acceptURL); err != nil {
		return nil, fmt.Errorf("failed to send quote email: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{"sent_at": &now}
	if quote.Status != models.QuoteStatusSent {
		updates["status"] = models.QuoteStatusSent
	}
	if err := s.db.Model(&quote).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update quote status: %w", err)
	}

	return &quote, nil
}

// Accept handles the emailed acceptance link. The status flip and agreement
// creation commit together; everything after that is best effort and only
// logged, so a provider outage degrades to "accepted, staff follows up".
func (s *QuoteService) Accept(token string) (*AcceptQuoteResult, error) {
	quoteID, err := utils.VerifyAcceptanceToken(token, time.Now())
	if err != nil {
		return nil, err
	}

	var quote models.Quote
	if err := s.db.Preload("Lead.Customer").First(&quote, quoteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if quote.Status == models.QuoteStatusRejected {
		return nil, ErrQuoteRejected
	}

	// Second click on the same link: report the existing state, touch nothing.
	if quote.Status == models.QuoteStatusAccepted {
		var agreement models.Agreement
		if err := s.db.Where("quote_id = ?", quote.ID).Order("created_at ASC").First(&agreement).Error; err == nil {
			return &AcceptQuoteResult{Quote: &quote, Agreement: &agreement, AlreadyDone: true}, nil
		}
		return &AcceptQuoteResult{Quote: &quote, AlreadyDone: true}, nil
	}

	agreement := &models.Agreement{
		QuoteID:           quote.ID,
		Status:            models.AgreementStatusDraft,
		MonthlyRentalRate: quote.MonthlyRentalRate,
		SetupFee:          quote.SetupFee,
		RentalType:        quote.RentalType,
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&quote).Updates(map[string]interface{}{
			"status":      models.QuoteStatusAccepted,
			"accepted_at": &now,
		}).Error; err != nil {
			return fmt.Errorf("failed to accept quote: %w", err)
		}
		if err := tx.Model(&models.Lead{}).Where("id = ?", quote.LeadID).
			Update("status", models.LeadStatusWon).Error; err != nil {
			return fmt.Errorf("failed to update lead status: %w", err)
		}
		if err := tx.Create(agreement).Error; err != nil {
			return fmt.Errorf("failed to create agreement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	quote.Status = models.QuoteStatusAccepted
	result := &AcceptQuoteResult{Quote: &quote, Agreement: agreement}
	result.FollowUpSteps = s.runAcceptanceFollowUps(&quote, agreement)

	return result, nil
}

func (s *QuoteService) runAcceptanceFollowUps(quote *models.Quote, agreement *models.Agreement) []SagaStep {
	steps := []SagaStep{}
	log := logrus.WithFields(logrus.Fields{
		"quote_id":     quote.ID,
		"agreement_id": agreement.ID,
	})

	if _, err := s.agreementService.Send(agreement.ID); err != nil {
		log.WithError(err).Error("Quote acceptance: agreement send failed")
		steps = append(steps, SagaStep{Name: "agreement_send", Error: err.Error()})
	} else {
		steps = append(steps, SagaStep{Name: "agreement_send", OK: true})
	}

	if quote.SetupFee <= 0 {
		return steps
	}

	invoice, err := s.invoiceService.Create(&CreateInvoiceRequest{
		AgreementID: agreement.ID,
		InvoiceType: models.InvoiceTypeSetup,
		Amount:      quote.SetupFee,
	})
	if err != nil {
		log.WithError(err).Error("Quote acceptance: setup invoice creation failed")
		steps = append(steps, SagaStep{Name: "invoice_create", Error: err.Error()})
		return steps
	}
	steps = append(steps, SagaStep{Name: "invoice_create", OK: true})

	if _, err := s.invoiceService.Send(invoice.ID); err != nil {
		log.WithError(err).Error("Quote acceptance: setup invoice send failed")
		steps = append(steps, SagaStep{Name: "invoice_send", Error: err.Error()})
	} else {
		steps = append(steps, SagaStep{Name: "invoice_send", OK: true})
	}

	return steps
}
