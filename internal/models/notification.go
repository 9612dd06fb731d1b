package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification records one alert sent to a user (email and/or realtime push).
type Notification struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string         `gorm:"not null;index" json:"user_id"`
	Type      string         `gorm:"not null" json:"type"` // "saved_search_match", "tour_update"
	Title     string         `gorm:"not null" json:"title"`
	Message   string         `json:"message"`
	Data      datatypes.JSON `gorm:"type:jsonb" json:"data"`
	Emailed   bool           `json:"emailed"`
	IsRead    bool           `gorm:"default:false" json:"is_read"`
	ReadAt    *time.Time     `json:"read_at"`
	CreatedAt time.Time      `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
