// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns row ids in the application instead of relying on a
// database default, so inserted structs carry their id immediately.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserRole string

const (
	UserRoleStaff UserRole = "staff"
	UserRoleAdmin UserRole = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusQuoted    LeadStatus = "quoted"
	LeadStatusWon       LeadStatus = "won"
	LeadStatusLost      LeadStatus = "lost"
)

type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

type RentalType string

const (
	RentalTypeOneTime   RentalType = "one_time"
	RentalTypeRecurring RentalType = "recurring"
)

type AgreementStatus string

const (
	AgreementStatusDraft    AgreementStatus = "draft"
	AgreementStatusSent     AgreementStatus = "sent"
	AgreementStatusSigned   AgreementStatus = "signed"
	AgreementStatusDeclined AgreementStatus = "declined"
	AgreementStatusExpired  AgreementStatus = "expired"
)

type InvoiceType string

const (
	InvoiceTypeSetup   InvoiceType = "setup"
	InvoiceTypeRental  InvoiceType = "rental"
	InvoiceTypeRemoval InvoiceType = "removal"
)

type ComponentType string

const (
	ComponentTypeRamp    ComponentType = "ramp"
	ComponentTypeLanding ComponentType = "landing"
)

// IsTerminal reports whether a quote can no longer change status.
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusAccepted || s == QuoteStatusRejected
}

// IsTerminal reports whether an agreement is in a final signing state.
func (s AgreementStatus) IsTerminal() bool {
	return s == AgreementStatusSigned || s == AgreementStatusDeclined || s == AgreementStatusExpired
}
