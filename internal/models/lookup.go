package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NavigationItem is a site menu entry. ParentID nests it under another item.
type NavigationItem struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Label     string    `gorm:"not null" json:"label" yaml:"label"`
	URL       string    `gorm:"not null" json:"url" yaml:"url"`
	ParentID  *string   `gorm:"type:uuid;index" json:"parent_id" yaml:"-"`
	Position  int       `gorm:"default:0" json:"position" yaml:"position"`
	Location  string    `gorm:"default:header;index" json:"location" yaml:"location"` // header, footer
	Active    bool      `json:"active" yaml:"active"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

func (n *NavigationItem) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// PropertySubtype maps a site-facing subtype (e.g. "Condo") onto MLS query values.
type PropertySubtype struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name" yaml:"name"`
	Slug         string    `gorm:"uniqueIndex;not null" json:"slug" yaml:"slug"`
	Class        string    `json:"class" yaml:"class"`                 // Repliers class: residential, condo, commercial
	PropertyType string    `json:"property_type" yaml:"property_type"` // Repliers propertyType value
	Position     int       `gorm:"default:0" json:"position" yaml:"position"`
	Active       bool      `json:"active" yaml:"active"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"-"`
}

func (p *PropertySubtype) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type SchoolDistrict struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name" yaml:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug" yaml:"slug"`
	City      string    `json:"city" yaml:"city"`
	State     string    `json:"state" yaml:"state"`
	Rating    *float64  `json:"rating" yaml:"rating"`
	Active    bool      `json:"active" yaml:"active"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

func (s *SchoolDistrict) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
