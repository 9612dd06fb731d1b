package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/crm"
	"github.com/zaqqye/realty_backend/internal/middleware"
	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/property"
)

type FavoriteController struct {
	DB      *gorm.DB
	MLS     MLS
	Options property.Options
	CRM     CRM
	Log     *zap.Logger
}

type favoriteRequest struct {
	MLSNumber string          `json:"mls_number" binding:"required"`
	Notes     string          `json:"notes"`
	Snapshot  json.RawMessage `json:"snapshot"`
}

func (fc *FavoriteController) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var favs []models.FavoriteProperty
	if err := fc.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&favs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": favs})
}

// Add saves a listing for the caller. When no snapshot is sent the current listing is fetched
// and stored so the favorite survives the listing going off market.
func (fc *FavoriteController) Add(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mls := strings.TrimSpace(req.MLSNumber)
	if mls == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mls_number is required"})
		return
	}
	fav := models.FavoriteProperty{UserID: user.ID, MLSNumber: mls, Notes: req.Notes}

	var snap *property.Property
	if len(req.Snapshot) > 0 && string(req.Snapshot) != "null" {
		fav.Snapshot = datatypes.JSON(req.Snapshot)
	} else if fc.MLS != nil {
		if raw, err := fc.MLS.GetListing(c.Request.Context(), mls); err == nil {
			if p, err := property.NormalizeJSON(raw, fc.Options); err == nil {
				snap = &p
				if b, err := json.Marshal(p); err == nil {
					fav.Snapshot = b
				}
			}
		} else {
			fc.Log.Debug("favorite snapshot fetch failed", zap.String("mls_number", mls), zap.Error(err))
		}
	}

	if err := fc.DB.Create(&fav).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "listing already saved"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev := crm.Event{
		Type:    crm.EventSavedProperty,
		Message: "Saved " + mls + " to favorites",
		Person:  crm.PersonFrom("", "", user.Email, ""),
	}
	if snap != nil {
		ev.Property = crmProperty(*snap)
	} else {
		ev.Property = &crm.Property{MLSNumber: mls}
	}
	if user.Email != "" {
		sendCRMEvent(c.Request.Context(), fc.CRM, fc.Log, ev)
	}
	c.JSON(http.StatusCreated, fav)
}

func (fc *FavoriteController) Update(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var req struct {
		Notes *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var fav models.FavoriteProperty
	if err := fc.DB.Where("user_id = ? AND mls_number = ?", user.ID, c.Param("mlsNumber")).First(&fav).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "favorite not found"})
		return
	}
	if req.Notes != nil {
		fav.Notes = *req.Notes
	}
	if err := fc.DB.Save(&fav).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fav)
}

func (fc *FavoriteController) Remove(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	res := fc.DB.Where("user_id = ? AND mls_number = ?", user.ID, c.Param("mlsNumber")).Delete(&models.FavoriteProperty{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "favorite not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
