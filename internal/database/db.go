package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zaqqye/realty_backend/internal/config"
	"github.com/zaqqye/realty_backend/internal/models"
)

// Connect opens Postgres (Supabase) by default; DB_DRIVER=sqlite is for local runs.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if cfg.DBDriver == "sqlite" {
		return gorm.Open(sqlite.Open(cfg.SQLitePath), gcfg)
	}
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		)
	}
	return gorm.Open(postgres.Open(dsn), gcfg)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.StaffUser{},
		&models.SiteSetting{},
		&models.NavigationItem{},
		&models.PropertySubtype{},
		&models.SchoolDistrict{},
		&models.ContentPage{},
		&models.SavedSearch{},
		&models.FavoriteProperty{},
		&models.TourRequest{},
		&models.Lead{},
		&models.LeadStatus{},
		&models.Notification{},
	)
}
