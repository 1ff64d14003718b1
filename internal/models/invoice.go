// internal/models/invoice.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Invoice struct {
	BaseModel
	AgreementID      uuid.UUID   `json:"agreement_id" gorm:"type:uuid;not null;index"`
	InvoiceType      InvoiceType `json:"invoice_type" gorm:"type:varchar(20);not null;index"`
	Amount           float64     `json:"amount" gorm:"type:decimal(10,2);not null"`
	Paid             bool        `json:"paid" gorm:"default:false;index"`
	PaymentDate      *time.Time  `json:"payment_date"`
	PaymentLinkURL   string      `json:"payment_link_url,omitempty" gorm:"size:512"`
	StripePaymentRef string      `json:"stripe_payment_ref,omitempty" gorm:"size:255;index"`

	// Relationships
	Agreement Agreement `json:"agreement,omitempty" gorm:"foreignKey:AgreementID"`
}
