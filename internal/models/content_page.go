package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Module types understood by the page resolver.
const (
	ModuleHero         = "hero"
	ModuleContentBlock = "content_block"
	ModuleListingsGrid = "listings_grid"
	ModuleContactForm  = "contact_form"
	ModuleTestimonials = "testimonials"
	ModuleFAQ          = "faq"
	ModuleCTA          = "cta"
)

// ContentPage is a CMS page: metadata plus an ordered list of typed modules.
type ContentPage struct {
	ID              string         `gorm:"type:uuid;primaryKey" json:"id"`
	Slug            string         `gorm:"uniqueIndex;not null" json:"slug"`
	Title           string         `gorm:"not null" json:"title"`
	MetaTitle       string         `json:"meta_title"`
	MetaDescription string         `gorm:"type:text" json:"meta_description"`
	Published       bool           `gorm:"default:false;index" json:"published"`
	Modules         datatypes.JSON `gorm:"type:jsonb" json:"modules"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (p *ContentPage) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PageModule is one entry of ContentPage.Modules.
type PageModule struct {
	ID     string          `json:"id,omitempty"`
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
}

// DecodeModules returns the page modules in stored order. An empty column yields no modules.
func (p *ContentPage) DecodeModules() ([]PageModule, error) {
	if len(p.Modules) == 0 {
		return nil, nil
	}
	var mods []PageModule
	if err := json.Unmarshal(p.Modules, &mods); err != nil {
		return nil, err
	}
	return mods, nil
}
