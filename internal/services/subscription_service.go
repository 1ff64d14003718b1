// internal/services/subscription_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	sub "github.com/stripe/stripe-go/v74/subscription"
	"gorm.io/gorm"

	"github.com/accessramp/ramp-backend/internal/config"
	"github.com/accessramp/ramp-backend/internal/models"
	"github.com/accessramp/ramp-backend/internal/utils"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

// SubscriptionService keeps the local mirror of Stripe subscriptions current.
// Stripe owns the billing state; this service only reflects it and forwards
// staff-initiated cancellations.
type SubscriptionService struct {
	db     *gorm.DB
	config *config.Config
}

func NewSubscriptionService(db *gorm.DB, config *config.Config) *SubscriptionService {
	stripe.Key = config.Payment.StripeSecretKey

	return &SubscriptionService{
		db:     db,
		config: config,
	}
}

func (s *SubscriptionService) Get(id uuid.UUID) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := s.db.Preload("Agreement.Quote.Lead.Customer").First(&subscription, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &subscription, nil
}

func (s *SubscriptionService) List(params utils.PaginationParams) ([]models.Subscription, int64, error) {
	query := s.db.Model(&models.Subscription{}).Preload("Agreement.Quote.Lead.Customer")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	allowedSortFields := []string{"created_at", "status", "current_period_end"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var subscriptions []models.Subscription
	if err := query.Find(&subscriptions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch subscriptions: %w", err)
	}

	return subscriptions, total, nil
}

// SyncFromStripe upserts the local mirror row for a Stripe subscription,
// keyed by the Stripe id. The agreement linkage comes from the metadata set
// when the subscription was created.
func (s *SubscriptionService) SyncFromStripe(stripeSub *stripe.Subscription) (*models.Subscription, error) {
	var subscription models.Subscription
	err := s.db.Where("stripe_subscription_id = ?", stripeSub.ID).First(&subscription).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		agreementID, parseErr := uuid.Parse(stripeSub.Metadata["agreement_id"])
		if parseErr != nil {
			return nil, fmt.Errorf("stripe subscription %s has no agreement metadata", stripeSub.ID)
		}
		subscription.AgreementID = agreementID
		subscription.StripeSubscriptionID = stripeSub.ID
	}

	subscription.Status = string(stripeSub.Status)
	subscription.CurrentPeriodStart = unixTime(stripeSub.CurrentPeriodStart)
	subscription.CurrentPeriodEnd = unixTime(stripeSub.CurrentPeriodEnd)
	subscription.TrialStart = unixTime(stripeSub.TrialStart)
	subscription.TrialEnd = unixTime(stripeSub.TrialEnd)
	subscription.CancelAt = unixTime(stripeSub.CancelAt)
	subscription.CanceledAt = unixTime(stripeSub.CanceledAt)
	subscription.EndedAt = unixTime(stripeSub.EndedAt)

	if err := s.db.Save(&subscription).Error; err != nil {
		return nil, fmt.Errorf("failed to sync subscription: %w", err)
	}
	return &subscription, nil
}

// HandleWebhook applies a subscription lifecycle event from Stripe. Events for
// subscriptions we never created are logged and dropped.
func (s *SubscriptionService) HandleWebhook(stripeSub *stripe.Subscription) error {
	subscription, err := s.SyncFromStripe(stripeSub)
	if err != nil {
		logrus.WithError(err).WithField("stripe_subscription_id", stripeSub.ID).
			Warn("Subscription webhook ignored")
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"subscription_id": subscription.ID,
		"status":          subscription.Status,
	}).Info("Subscription updated from webhook")
	return nil
}

// Cancel ends the subscription in Stripe and writes the result back locally.
// The ramp stays billed through the current period; Stripe prorates nothing.
func (s *SubscriptionService) Cancel(id uuid.UUID) (*models.Subscription, error) {
	subscription, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	canceled, err := sub.Cancel(subscription.StripeSubscriptionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel stripe subscription: %w", err)
	}

	subscription.Status = string(canceled.Status)
	subscription.CanceledAt = unixTime(canceled.CanceledAt)
	subscription.EndedAt = unixTime(canceled.EndedAt)
	if err := s.db.Save(subscription).Error; err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	return subscription, nil
}

func unixTime(v int64) *time.Time {
	if v == 0 {
		return nil
	}
	t := time.Unix(v, 0)
	return &t
}
