// internal/models/quote.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Quote struct {
	BaseModel
	LeadID            uuid.UUID   `json:"lead_id" gorm:"type:uuid;not null;index"`
	MonthlyRentalRate float64     `json:"monthly_rental_rate" gorm:"type:decimal(10,2);not null"`
	SetupFee          float64     `json:"setup_fee" gorm:"type:decimal(10,2);not null"`
	RentalType        RentalType  `json:"rental_type" gorm:"type:varchar(20);default:'recurring'"`
	Status            QuoteStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	ValidUntil        *time.Time  `json:"valid_until"`
	SentAt            *time.Time  `json:"sent_at"`
	AcceptedAt        *time.Time  `json:"accepted_at"`

	// Relationships
	Lead       Lead        `json:"lead,omitempty" gorm:"foreignKey:LeadID"`
	Agreements []Agreement `json:"agreements,omitempty" gorm:"foreignKey:QuoteID"`
}
