// internal/models/installation.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Installation struct {
	BaseModel
	AgreementID      uuid.UUID      `json:"agreement_id" gorm:"type:uuid;not null;index"`
	InstallationDate *time.Time     `json:"installation_date"`
	InstalledBy      string         `json:"installed_by" gorm:"size:100"`
	SignOff          bool           `json:"sign_off" gorm:"default:false"`
	Photos           pq.StringArray `json:"photos" gorm:"type:text[]"`

	// Relationships
	Agreement Agreement `json:"agreement,omitempty" gorm:"foreignKey:AgreementID"`
}
