package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tour request statuses.
const (
	TourPending   = "pending"
	TourConfirmed = "confirmed"
	TourCancelled = "cancelled"
)

type TourRequest struct {
	ID            string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string     `gorm:"index;not null" json:"user_id"`
	MLSNumber     string     `gorm:"index;not null" json:"mls_number"`
	Address       string     `json:"address"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	PreferredDate *time.Time `json:"preferred_date"`
	TourType      string     `gorm:"default:in_person" json:"tour_type"`
	Message       string     `gorm:"type:text" json:"message"`
	Status        string     `gorm:"default:pending;index" json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (t *TourRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
