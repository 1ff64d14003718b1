// internal/models/subscription.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription mirrors the payment provider's recurring-billing object. It has
// no state machine of its own; webhook events overwrite whatever the provider
// reports.
type Subscription struct {
	BaseModel
	AgreementID          uuid.UUID  `json:"agreement_id" gorm:"type:uuid;not null;index"`
	StripeSubscriptionID string     `json:"stripe_subscription_id" gorm:"uniqueIndex;size:255;not null"`
	Status               string     `json:"status" gorm:"size:50;not null;index"`
	CurrentPeriodStart   *time.Time `json:"current_period_start"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	TrialStart           *time.Time `json:"trial_start"`
	TrialEnd             *time.Time `json:"trial_end"`
	CancelAt             *time.Time `json:"cancel_at"`
	CanceledAt           *time.Time `json:"canceled_at"`
	EndedAt              *time.Time `json:"ended_at"`

	// Relationships
	Agreement Agreement `json:"agreement,omitempty" gorm:"foreignKey:AgreementID"`
}
