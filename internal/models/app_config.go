package models

import "time"

// SiteSetting stores admin-managed key/value settings (brand name, phone, hero copy, ...).
// Public settings are exposed to the anonymous site; the rest stay admin-only.
type SiteSetting struct {
	Key         string    `gorm:"size:128;primaryKey" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Description string    `gorm:"type:text" json:"description"`
	Public      bool      `gorm:"default:false;index" json:"public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
