package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Alert frequencies for saved searches.
const (
	FrequencyInstant = "instant"
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
)

// SavedSearch is a user-owned query re-evaluated against incoming listings.
// Nil/empty criteria are unconstrained.
type SavedSearch struct {
	ID             string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string     `gorm:"index;not null" json:"user_id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	MinPrice       *int64     `json:"min_price"`
	MaxPrice       *int64     `json:"max_price"`
	MinBeds        *int       `json:"min_beds"`
	MinBaths       *float64   `json:"min_baths"`
	PropertyType   string     `json:"property_type"`
	Frequency      string     `gorm:"default:daily" json:"frequency"`
	Active         bool       `gorm:"index" json:"active"`
	LastNotifiedAt *time.Time `json:"last_notified_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (s *SavedSearch) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
