package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FavoriteProperty struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string         `gorm:"uniqueIndex:uniq_user_listing;not null" json:"user_id"`
	MLSNumber string         `gorm:"uniqueIndex:uniq_user_listing;not null" json:"mls_number"`
	Notes     string         `gorm:"type:text" json:"notes"`
	Snapshot  datatypes.JSON `gorm:"type:jsonb" json:"snapshot"`
	CreatedAt time.Time      `json:"created_at"`
}

func (f *FavoriteProperty) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
