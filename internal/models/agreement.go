// internal/models/agreement.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AgreementNotes holds the e-signature provider references for an agreement.
// Stored as jsonb; typed instead of a free-form map so the document id and
// sign-page URL cannot silently go missing.
type AgreementNotes struct {
	DocumentID     string     `json:"document_id,omitempty"`
	SignPageURL    string     `json:"sign_page_url,omitempty"`
	ViewedDate     *time.Time `json:"viewed_date,omitempty"`
	SignedDate     *time.Time `json:"signed_date,omitempty"`
	ContractPDFURL string     `json:"contract_pdf_url,omitempty"`
}

func (n AgreementNotes) Value() (driver.Value, error) {
	return json.Marshal(n)
}

func (n *AgreementNotes) Scan(value interface{}) error {
	if value == nil {
		*n = AgreementNotes{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("agreement notes: unsupported scan type")
	}

	return json.Unmarshal(bytes, n)
}

type Agreement struct {
	BaseModel
	QuoteID           uuid.UUID       `json:"quote_id" gorm:"type:uuid;not null;index"`
	Status            AgreementStatus `json:"status" gorm:"type:varchar(20);default:'draft';index"`
	MonthlyRentalRate float64         `json:"monthly_rental_rate" gorm:"type:decimal(10,2);not null"`
	SetupFee          float64         `json:"setup_fee" gorm:"type:decimal(10,2);not null"`
	RentalType        RentalType      `json:"rental_type" gorm:"type:varchar(20);default:'recurring'"`
	SignedDate        *time.Time      `json:"signed_date"`
	Notes             AgreementNotes  `json:"notes" gorm:"type:jsonb"`

	// Relationships
	Quote         Quote          `json:"quote,omitempty" gorm:"foreignKey:QuoteID"`
	Installations []Installation `json:"installations,omitempty" gorm:"foreignKey:AgreementID"`
	Invoices      []Invoice      `json:"invoices,omitempty" gorm:"foreignKey:AgreementID"`
	Subscriptions []Subscription `json:"subscriptions,omitempty" gorm:"foreignKey:AgreementID"`
}
