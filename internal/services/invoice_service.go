// internal/services/invoice_service.go
package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/customer"
	"github.com/stripe/stripe-go/v74/paymentlink"
	"github.com/stripe/stripe-go/v74/price"
	sub "github.com/stripe/stripe-go/v74/subscription"
	"gorm.io/gorm"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/models"
	"github.com/accessramp/ramp-backend/internal/utils"
)

var (
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrInvoiceAlreadyPaid = errors.New("invoice has already been paid")
)

type InvoiceService struct {
	db            *gorm.DB
	config        *config.Config
	mailer        Mailer
	subscriptions *SubscriptionService
}

type CreateInvoiceRequest struct {
	AgreementID uuid.UUID          `json:"agreement_id" validate:"required"`
	InvoiceType models.InvoiceType `json:"invoice_type" validate:"required,oneof=setup rental removal"`
	Amount      float64            `json:"amount" validate:"required,min=0.01"`
}

type UpdateInvoiceRequest struct {
	Amount *float64 `json:"amount,omitempty" validate:"omitempty,min=0.01"`
	Paid   *bool    `json:"paid,omitempty"`
}

// SendInvoiceResult reports how the invoice went out: a hosted payment link
// for one-time charges, or a subscription with a client secret for recurring
// rental billing.
type SendInvoiceResult struct {
	Invoice              *models.Invoice `json:"invoice"`
	PaymentURL           string          `json:"payment_url,omitempty"`
	StripeSubscriptionID string          `json:"stripe_subscription_id,omitempty"`
	ClientSecret         string          `json:"client_secret,omitempty"`
}

func NewInvoiceService(db *gorm.DB, config *config.Config, mailer Mailer, subscriptions *SubscriptionService) *InvoiceService {
	// Initialize Stripe
	stripe.Key = config.Payment.StripeSecretKey

	return &InvoiceService{
		db:            db,
		config:        config,
		mailer:        mailer,
		subscriptions: subscriptions,
	}
}

func (s *InvoiceService) Create(req *CreateInvoiceRequest) (*models.Invoice, error) {
	var agreement models.Agreement
	if err := s.db.First(&agreement, req.AgreementID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAgreementNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	invoice := &models.Invoice{
		AgreementID: req.AgreementID,
		InvoiceType: req.InvoiceType,
		Amount:      req.Amount,
	}
	if err := s.db.Create(invoice).Error; err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return invoice, nil
}

func (s *InvoiceService) Get(id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.db.Preload("Agreement.Quote.Lead.Customer").First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &invoice, nil
}

func (s *InvoiceService) List(params utils.PaginationParams) ([]models.Invoice, int64, error) {
	query := s.db.Model(&models.Invoice{}).Preload("Agreement.Quote.Lead.Customer")
	if params.Status == "paid" {
		query = query.Where("paid = ?", true)
	} else if params.Status == "unpaid" {
		query = query.Where("paid = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	allowedSortFields := []string{"created_at", "amount", "invoice_type", "payment_date"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var invoices []models.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	return invoices, total, nil
}

// Update supports amount corrections and manual paid marking for payments
// taken outside Stripe (checks, waived fees).
func (s *InvoiceService) Update(id uuid.UUID, req *UpdateInvoiceRequest) (*models.Invoice, error) {
	invoice, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if req.Amount != nil {
		if invoice.Paid {
			return nil, ErrInvoiceAlreadyPaid
		}
		invoice.Amount = *req.Amount
	}
	if req.Paid != nil && *req.Paid && !invoice.Paid {
		now := time.Now()
		invoice.Paid = true
		invoice.PaymentDate = &now
	}

	if err := s.db.Save(invoice).Error; err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	return invoice, nil
}

func (s *InvoiceService) Delete(id uuid.UUID) error {
	invoice, err := s.Get(id)
	if err != nil {
		return err
	}
	if invoice.Paid {
		return ErrInvoiceAlreadyPaid
	}
	if err := s.db.Delete(invoice).Error; err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

// Send pushes the invoice into Stripe and emails the customer. Recurring
// rental invoices start a Stripe subscription; everything else gets a hosted
// payment link.
func (s *InvoiceService) Send(id uuid.UUID) (*SendInvoiceResult, error) {
	invoice, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if invoice.Paid {
		return nil, ErrInvoiceAlreadyPaid
	}

	agreement := invoice.Agreement
	cust := agreement.Quote.Lead.Customer

	stripeCustomerID, err := s.ensureStripeCustomer(&cust)
	if err != nil {
		return nil, err
	}

	if invoice.InvoiceType == models.InvoiceTypeRental && agreement.RentalType == models.RentalTypeRecurring {
		return s.sendRecurring(invoice, &agreement, &cust, stripeCustomerID)
	}
	return s.sendOneTime(invoice, &cust)
}

// ensureStripeCustomer returns the cached Stripe customer id for the customer,
// creating one on first use.
func (s *InvoiceService) ensureStripeCustomer(cust *models.Customer) (string, error) {
	if cust.StripeCustomerID != "" {
		return cust.StripeCustomerID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(cust.Email),
		Name:  stripe.String(cust.FullName()),
	}
	if cust.Phone != "" {
		params.Phone = stripe.String(cust.Phone)
	}
	params.AddMetadata("customer_id", cust.ID.String())

	created, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}

	if err := s.db.Model(cust).Update("stripe_customer_id", created.ID).Error; err != nil {
		return "", fmt.Errorf("failed to cache stripe customer id: %w", err)
	}
	cust.StripeCustomerID = created.ID
	return created.ID, nil
}

func (s *InvoiceService) currency() string {
	if s.config.Payment.Currency != "" {
		return s.config.Payment.Currency
	}
	return "usd"
}

// amountToCents converts a dollar amount to whole cents for Stripe. Rounding
// absorbs float representation error (346.55 * 100 is 34654.999...).
func amountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (s *InvoiceService) sendOneTime(invoice *models.Invoice, cust *models.Customer) (*SendInvoiceResult, error) {
	amountInCents := amountToCents(invoice.Amount)

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(s.currency()),
		UnitAmount: stripe.Int64(amountInCents),
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(fmt.Sprintf("Ramp rental %s fee", invoice.InvoiceType)),
		},
	}
	p, err := price.New(priceParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe price: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{Price: stripe.String(p.ID), Quantity: stripe.Int64(1)},
		},
	}
	// v74.30.0's PaymentLinkPaymentIntentDataParams lacks a Metadata field;
	// the API accepts it, so pass it through as an extra form param.
	linkParams.AddExtra("payment_intent_data[metadata][invoice_id]", invoice.ID.String())
	link, err := paymentlink.New(linkParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment link: %w", err)
	}

	if err := s.db.Model(invoice).Update("payment_link_url", link.URL).Error; err != nil {
		return nil, fmt.Errorf("failed to store payment link: %w", err)
	}
	invoice.PaymentLinkURL = link.URL

	if err := s.mailer.SendPaymentLinkEmail(cust, invoice, link.URL); err != nil {
		logrus.WithError(err).WithField("invoice_id", invoice.ID).Error("Failed to send payment link email")
	}

	return &SendInvoiceResult{Invoice: invoice, PaymentURL: link.URL}, nil
}

func (s *InvoiceService) sendRecurring(invoice *models.Invoice, agreement *models.Agreement, cust *models.Customer, stripeCustomerID string) (*SendInvoiceResult, error) {
	amountInCents := amountToCents(invoice.Amount)

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(s.currency()),
		UnitAmount: stripe.Int64(amountInCents),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String("month"),
		},
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String("Monthly ramp rental"),
		},
	}
	p, err := price.New(priceParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe price: %w", err)
	}

	subParams := &stripe.SubscriptionParams{
		Customer: stripe.String(stripeCustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(p.ID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	subParams.AddMetadata("agreement_id", agreement.ID.String())
	subParams.AddMetadata("invoice_id", invoice.ID.String())
	subParams.AddExpand("latest_invoice.payment_intent")

	created, err := sub.New(subParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe subscription: %w", err)
	}

	if _, err := s.subscriptions.SyncFromStripe(created); err != nil {
		return nil, err
	}

	clientSecret := ""
	if created.LatestInvoice != nil && created.LatestInvoice.PaymentIntent != nil {
		clientSecret = created.LatestInvoice.PaymentIntent.ClientSecret
	}

	setupURL := fmt.Sprintf("%s/pay/subscription?client_secret=%s", s.config.Frontend.BaseURL, clientSecret)
	if err := s.db.Model(invoice).Updates(map[string]interface{}{
		"payment_link_url":   setupURL,
		"stripe_payment_ref": created.ID,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to store subscription reference: %w", err)
	}
	invoice.PaymentLinkURL = setupURL
	invoice.StripePaymentRef = created.ID

	if err := s.mailer.SendSubscriptionSetupEmail(cust, invoice, setupURL); err != nil {
		logrus.WithError(err).WithField("invoice_id", invoice.ID).Error("Failed to send subscription setup email")
	}

	return &SendInvoiceResult{
		Invoice:              invoice,
		PaymentURL:           setupURL,
		StripeSubscriptionID: created.ID,
		ClientSecret:         clientSecret,
	}, nil
}

// HandlePaymentIntentSucceeded marks the invoice referenced by the payment
// intent metadata as paid at the event's timestamp, so a delayed or retried
// delivery still records when the payment actually happened. Intents without
// our metadata are ignored.
func (s *InvoiceService) HandlePaymentIntentSucceeded(pi *stripe.PaymentIntent, occurredAt time.Time) error {
	invoiceIDValue := pi.Metadata["invoice_id"]
	if invoiceIDValue == "" {
		return nil
	}
	invoiceID, err := uuid.Parse(invoiceIDValue)
	if err != nil {
		logrus.WithField("payment_intent", pi.ID).Warn("Payment intent carries malformed invoice metadata")
		return nil
	}

	var invoice models.Invoice
	if err := s.db.First(&invoice, invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithField("invoice_id", invoiceID).Warn("Payment received for unknown invoice")
			return nil
		}
		return fmt.Errorf("database error: %w", err)
	}

	if invoice.Paid {
		return nil
	}

	updates := map[string]interface{}{
		"paid":               true,
		"payment_date":       &occurredAt,
		"stripe_payment_ref": pi.ID,
	}
	if err := s.db.Model(&invoice).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to mark invoice paid: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"invoice_id":     invoice.ID,
		"payment_intent": pi.ID,
	}).Info("Invoice marked paid")
	return nil
}

// HandleInvoicePaid records one billing cycle of a Stripe subscription as a
// paid rental invoice, dated at the event's timestamp. The first cycle settles
// the invoice that created the subscription; later cycles insert fresh rows.
func (s *InvoiceService) HandleInvoicePaid(stripeInvoice *stripe.Invoice, occurredAt time.Time) error {
	if stripeInvoice.Subscription == nil || stripeInvoice.Subscription.ID == "" {
		return nil
	}

	var subscription models.Subscription
	err := s.db.Where("stripe_subscription_id = ?", stripeInvoice.Subscription.ID).First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithField("stripe_subscription_id", stripeInvoice.Subscription.ID).
				Warn("Billing event for unknown subscription")
			return nil
		}
		return fmt.Errorf("database error: %w", err)
	}

	amount := float64(stripeInvoice.AmountPaid) / 100

	// First cycle: settle the pending rental invoice that started the
	// subscription instead of inserting a duplicate.
	var pending models.Invoice
	err = s.db.Where("agreement_id = ? AND invoice_type = ? AND paid = ? AND stripe_payment_ref = ?",
		subscription.AgreementID, models.InvoiceTypeRental, false, stripeInvoice.Subscription.ID).
		First(&pending).Error
	if err == nil {
		updates := map[string]interface{}{
			"paid":               true,
			"payment_date":       &occurredAt,
			"stripe_payment_ref": stripeInvoice.ID,
		}
		if err := s.db.Model(&pending).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to settle rental invoice: %w", err)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("database error: %w", err)
	}

	// Idempotency: one row per Stripe invoice.
	var existing int64
	if err := s.db.Model(&models.Invoice{}).
		Where("stripe_payment_ref = ?", stripeInvoice.ID).Count(&existing).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if existing > 0 {
		return nil
	}

	record := &models.Invoice{
		AgreementID:      subscription.AgreementID,
		InvoiceType:      models.InvoiceTypeRental,
		Amount:           amount,
		Paid:             true,
		PaymentDate:      &occurredAt,
		StripePaymentRef: stripeInvoice.ID,
	}
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to record billing cycle: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"agreement_id":   subscription.AgreementID,
		"stripe_invoice": stripeInvoice.ID,
		"amount":         amount,
	}).Info("Recorded subscription billing cycle")
	return nil
}
