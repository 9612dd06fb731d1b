package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/matcher"
	"github.com/zaqqye/realty_backend/internal/middleware"
	"github.com/zaqqye/realty_backend/internal/models"
)

type SavedSearchController struct {
	DB *gorm.DB
}

type savedSearchRequest struct {
	Name         *string  `json:"name"`
	Email        *string  `json:"email"`
	City         *string  `json:"city"`
	State        *string  `json:"state"`
	MinPrice     *int64   `json:"min_price"`
	MaxPrice     *int64   `json:"max_price"`
	MinBeds      *int     `json:"min_beds"`
	MinBaths     *float64 `json:"min_baths"`
	PropertyType *string  `json:"property_type"`
	Frequency    *string  `json:"frequency"`
	Active       *bool    `json:"active"`
}

// apply copies the request onto s. When partial, absent fields keep their stored value.
func (r savedSearchRequest) apply(s *models.SavedSearch, partial bool) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&s.Name, r.Name)
	set(&s.Email, r.Email)
	set(&s.City, r.City)
	set(&s.State, r.State)
	set(&s.PropertyType, r.PropertyType)
	if !partial || r.MinPrice != nil {
		s.MinPrice = r.MinPrice
	}
	if !partial || r.MaxPrice != nil {
		s.MaxPrice = r.MaxPrice
	}
	if !partial || r.MinBeds != nil {
		s.MinBeds = r.MinBeds
	}
	if !partial || r.MinBaths != nil {
		s.MinBaths = r.MinBaths
	}
	if r.Frequency != nil {
		s.Frequency = strings.ToLower(strings.TrimSpace(*r.Frequency))
	}
	if r.Active != nil {
		s.Active = *r.Active
	}
}

func validateSavedSearch(s models.SavedSearch) string {
	if !matcher.IsValidFrequency(s.Frequency) {
		return "invalid frequency"
	}
	if s.MinPrice != nil && s.MaxPrice != nil && *s.MinPrice > *s.MaxPrice {
		return "min_price must not exceed max_price"
	}
	return ""
}

func (sc *SavedSearchController) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var searches []models.SavedSearch
	if err := sc.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&searches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": searches})
}

func (sc *SavedSearchController) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var req savedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	search := models.SavedSearch{UserID: user.ID, Email: user.Email, Frequency: models.FrequencyDaily, Active: true}
	req.apply(&search, false)
	if msg := validateSavedSearch(search); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := sc.DB.Create(&search).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, search)
}

func (sc *SavedSearchController) Get(c *gin.Context) {
	search, ok := sc.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, search)
}

func (sc *SavedSearchController) Update(c *gin.Context) {
	search, ok := sc.load(c)
	if !ok {
		return
	}
	var req savedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.apply(&search, true)
	if msg := validateSavedSearch(search); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := sc.DB.Save(&search).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, search)
}

func (sc *SavedSearchController) Delete(c *gin.Context) {
	search, ok := sc.load(c)
	if !ok {
		return
	}
	if err := sc.DB.Delete(&search).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// load fetches the search named in the path if it belongs to the caller.
func (sc *SavedSearchController) load(c *gin.Context) (models.SavedSearch, bool) {
	user, _ := middleware.CurrentUser(c)
	var search models.SavedSearch
	id := strings.TrimSpace(c.Param("id"))
	if err := sc.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&search).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "saved search not found"})
		return search, false
	}
	return search, true
}
