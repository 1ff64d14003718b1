// internal/models/setting.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Setting struct {
	BaseModel
	Category    string `json:"category" gorm:"size:50;not null;index:idx_settings_category_key"`
	Key         string `json:"key" gorm:"size:100;not null;index:idx_settings_category_key"`
	Value       JSONB  `json:"value" gorm:"type:jsonb;not null"`
	DataType    string `json:"data_type" gorm:"size:20;not null"`
	Description string `json:"description" gorm:"type:text"`
}

// FloatValue extracts a numeric setting value, returning the fallback when the
// row is absent or holds a non-numeric payload.
func (s *Setting) FloatValue(fallback float64) float64 {
	if s == nil || s.Value == nil {
		return fallback
	}
	if v, ok := s.Value["value"].(float64); ok {
		return v
	}
	return fallback
}

// StringValue extracts a string setting value with a fallback.
func (s *Setting) StringValue(fallback string) string {
	if s == nil || s.Value == nil {
		return fallback
	}
	if v, ok := s.Value["value"].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Component is a catalog entry for a physical ramp or landing piece.
type Component struct {
	BaseModel
	Name          string        `json:"name" gorm:"size:100;not null"`
	ComponentType ComponentType `json:"component_type" gorm:"type:varchar(20);not null;index"`
	LengthFt      float64       `json:"length_ft" gorm:"type:decimal(6,2);not null"`
	WidthFt       float64       `json:"width_ft" gorm:"type:decimal(6,2);not null"`
	DayRate       float64       `json:"day_rate" gorm:"type:decimal(10,2);not null"`
	MonthRate     float64       `json:"month_rate" gorm:"type:decimal(10,2);not null"`
	Active        bool          `json:"active" gorm:"default:true"`
}

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
	OccurredAt   time.Time  `json:"occurred_at"`
}
