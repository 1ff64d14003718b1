// internal/models/lead.go
package models

import (
	"github.com/google/uuid"
)

type Lead struct {
	BaseModel
	CustomerID    uuid.UUID  `json:"customer_id" gorm:"type:uuid;not null;index"`
	Status        LeadStatus `json:"status" gorm:"type:varchar(20);default:'new';index"`
	Timeline      string     `json:"timeline" gorm:"size:50"`
	MobilityNeeds string     `json:"mobility_needs" gorm:"type:text"`
	Notes         JSONB      `json:"notes" gorm:"type:jsonb"`

	// Relationships
	Customer Customer `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Quotes   []Quote  `json:"quotes,omitempty" gorm:"foreignKey:LeadID"`
}
