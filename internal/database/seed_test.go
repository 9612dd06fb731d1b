package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/config"
	"github.com/zaqqye/realty_backend/internal/database"
	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/testutil"
	"github.com/zaqqye/realty_backend/internal/utils"
)

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	log := zap.NewNop()

	require.NoError(t, database.SeedDefaults(db, log))
	first := map[string]int64{
		"settings":  count(t, db, &models.SiteSetting{}),
		"nav":       count(t, db, &models.NavigationItem{}),
		"subtypes":  count(t, db, &models.PropertySubtype{}),
		"districts": count(t, db, &models.SchoolDistrict{}),
		"pages":     count(t, db, &models.ContentPage{}),
	}
	assert.EqualValues(t, 5, first["settings"])
	assert.EqualValues(t, 6, first["nav"])
	assert.EqualValues(t, 2, first["pages"])

	require.NoError(t, database.SeedDefaults(db, log))
	assert.EqualValues(t, first["settings"], count(t, db, &models.SiteSetting{}))
	assert.EqualValues(t, first["nav"], count(t, db, &models.NavigationItem{}))
	assert.EqualValues(t, first["subtypes"], count(t, db, &models.PropertySubtype{}))
	assert.EqualValues(t, first["districts"], count(t, db, &models.SchoolDistrict{}))
	assert.EqualValues(t, first["pages"], count(t, db, &models.ContentPage{}))
}

func TestSeededHomePageModules(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, database.SeedDefaults(db, zap.NewNop()))

	var home models.ContentPage
	require.NoError(t, db.Where("slug = ?", "home").First(&home).Error)
	assert.True(t, home.Published)
	mods, err := home.DecodeModules()
	require.NoError(t, err)
	require.Len(t, mods, 3)
	assert.Equal(t, models.ModuleListingsGrid, mods[1].Type)
	assert.JSONEq(t, `{"title":"Featured listings","limit":6,"params":{"status":"Active","sortBy":"createdOnDesc"}}`, string(mods[1].Config))
}

func TestSeedAdminOnlyOnce(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := &config.Config{AdminEmail: "boss@example.com", AdminPassword: "s3cret!"}

	require.NoError(t, database.SeedAdmin(db, cfg, zap.NewNop()))
	require.NoError(t, database.SeedAdmin(db, cfg, zap.NewNop()))
	assert.EqualValues(t, 1, count(t, db, &models.StaffUser{}))

	var admin models.StaffUser
	require.NoError(t, db.First(&admin).Error)
	assert.Equal(t, "boss@example.com", admin.Email)
	assert.True(t, admin.Active)
	assert.True(t, utils.CheckPassword(admin.Password, "s3cret!"))
}

func TestLoadDefaultsRejectsBadYAML(t *testing.T) {
	_, err := database.LoadDefaults([]byte("settings: [unterminated"))
	assert.Error(t, err)
}
