package database

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/config"
	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/utils"
)

//go:embed seed/defaults.yaml
var defaultsYAML []byte

func SeedAdmin(db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.StaffUser{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := cfg.AdminEmail
	if email == "" {
		email = "admin@example.com"
	}
	fullName := cfg.AdminFullName
	if fullName == "" {
		fullName = "Administrator"
	}
	password := cfg.AdminPassword
	if password == "" {
		password = "admin123"
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.StaffUser{
		FullName: fullName,
		Email:    email,
		Password: hashed,
		Role:     "admin",
		Active:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Info("seeded initial admin", zap.String("email", email))
	return nil
}

type seedNav struct {
	models.NavigationItem `yaml:",inline"`
	Children              []models.NavigationItem `yaml:"children"`
}

type seedPage struct {
	Slug            string `yaml:"slug"`
	Title           string `yaml:"title"`
	MetaTitle       string `yaml:"meta_title"`
	MetaDescription string `yaml:"meta_description"`
	Published       bool   `yaml:"published"`
	Modules         []struct {
		ID     string         `yaml:"id"`
		Type   string         `yaml:"type"`
		Config map[string]any `yaml:"config"`
	} `yaml:"modules"`
}

// Defaults is the embedded starter content.
type Defaults struct {
	Settings        []models.SiteSetting     `yaml:"settings"`
	Navigation      []seedNav                `yaml:"navigation"`
	Subtypes        []models.PropertySubtype `yaml:"subtypes"`
	SchoolDistricts []models.SchoolDistrict  `yaml:"school_districts"`
	Pages           []seedPage               `yaml:"pages"`
}

func LoadDefaults(raw []byte) (*Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse seed content: %w", err)
	}
	return &d, nil
}

// SeedDefaults inserts the embedded starter content. Rows that already exist (by key or slug)
// are left alone; navigation is only seeded into an empty table.
func SeedDefaults(db *gorm.DB, log *zap.Logger) error {
	d, err := LoadDefaults(defaultsYAML)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, s := range d.Settings {
			s := s
			if err := tx.Where(models.SiteSetting{Key: s.Key}).Attrs(s).FirstOrCreate(&s).Error; err != nil {
				return err
			}
		}

		var navCount int64
		if err := tx.Model(&models.NavigationItem{}).Count(&navCount).Error; err != nil {
			return err
		}
		if navCount == 0 {
			for _, n := range d.Navigation {
				parent := n.NavigationItem
				if err := tx.Create(&parent).Error; err != nil {
					return err
				}
				for _, child := range n.Children {
					child := child
					child.ParentID = &parent.ID
					child.Location = parent.Location
					if err := tx.Create(&child).Error; err != nil {
						return err
					}
				}
			}
		}

		for _, st := range d.Subtypes {
			st := st
			if err := tx.Where(models.PropertySubtype{Slug: st.Slug}).Attrs(st).FirstOrCreate(&st).Error; err != nil {
				return err
			}
		}
		for _, sd := range d.SchoolDistricts {
			sd := sd
			if err := tx.Where(models.SchoolDistrict{Slug: sd.Slug}).Attrs(sd).FirstOrCreate(&sd).Error; err != nil {
				return err
			}
		}

		for _, p := range d.Pages {
			mods := make([]models.PageModule, 0, len(p.Modules))
			for _, m := range p.Modules {
				cfgJSON, err := json.Marshal(m.Config)
				if err != nil {
					return fmt.Errorf("page %s module %s: %w", p.Slug, m.ID, err)
				}
				mods = append(mods, models.PageModule{ID: m.ID, Type: m.Type, Config: cfgJSON})
			}
			modsJSON, err := json.Marshal(mods)
			if err != nil {
				return err
			}
			page := models.ContentPage{
				Slug:            p.Slug,
				Title:           p.Title,
				MetaTitle:       p.MetaTitle,
				MetaDescription: p.MetaDescription,
				Published:       p.Published,
				Modules:         modsJSON,
			}
			if err := tx.Where(models.ContentPage{Slug: p.Slug}).Attrs(page).FirstOrCreate(&page).Error; err != nil {
				return err
			}
		}
		log.Info("seeded default content",
			zap.Int("settings", len(d.Settings)),
			zap.Int("navigation", len(d.Navigation)),
			zap.Int("pages", len(d.Pages)))
		return nil
	})
}
