// internal/models/customer.go
package models

import (
	"strings"

	"github.com/google/uuid"
)

type Customer struct {
	BaseModel
	FirstName        string `json:"first_name" gorm:"size:100;not null"`
	LastName         string `json:"last_name" gorm:"size:100;not null"`
	Email            string `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone            string `json:"phone" gorm:"size:30"`
	StripeCustomerID string `json:"stripe_customer_id,omitempty" gorm:"size:255;index"`

	// Relationships
	Addresses []Address `json:"addresses,omitempty" gorm:"foreignKey:CustomerID"`
	Leads     []Lead    `json:"leads,omitempty" gorm:"foreignKey:CustomerID"`
}

func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type Address struct {
	BaseModel
	CustomerID uuid.UUID `json:"customer_id" gorm:"type:uuid;not null;index"`
	Street     string    `json:"street" gorm:"size:255;not null"`
	City       string    `json:"city" gorm:"size:100;not null"`
	State      string    `json:"state" gorm:"size:50;not null"`
	PostalCode string    `json:"postal_code" gorm:"size:20;not null"`
	Formatted  string    `json:"formatted" gorm:"size:512"`
	Latitude   *float64  `json:"latitude" gorm:"type:decimal(9,6)"`
	Longitude  *float64  `json:"longitude" gorm:"type:decimal(9,6)"`

	// Relationships
	Customer Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

// FormattedLine returns the stored formatted address, falling back to the
// structured fields when the geocoder has not filled it in yet.
func (a *Address) FormattedLine() string {
	if a.Formatted != "" {
		return a.Formatted
	}
	parts := []string{a.Street, a.City, a.State, a.PostalCode}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return strings.Join(out, ", ")
}
