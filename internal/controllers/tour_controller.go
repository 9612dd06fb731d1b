package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/crm"
	"github.com/zaqqye/realty_backend/internal/middleware"
	"github.com/zaqqye/realty_backend/internal/models"
)

// Notifier sends the agent-facing emails; *notify.Service implements it.
type Notifier interface {
	NotifyLead(ctx context.Context, lead models.Lead) error
	NotifyTour(ctx context.Context, tour models.TourRequest) error
}

type TourController struct {
	DB     *gorm.DB
	Notify Notifier
	CRM    CRM
	Log    *zap.Logger
}

type tourRequest struct {
	MLSNumber     string     `json:"mls_number" binding:"required"`
	Address       string     `json:"address"`
	Name          string     `json:"name" binding:"required"`
	Email         string     `json:"email" binding:"omitempty,email"`
	Phone         string     `json:"phone"`
	PreferredDate *time.Time `json:"preferred_date"`
	TourType      string     `json:"tour_type"`
	Message       string     `json:"message"`
}

var tourTypes = map[string]struct{}{"in_person": {}, "video": {}}

func (tc *TourController) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var req tourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tourType := strings.ToLower(strings.TrimSpace(req.TourType))
	if tourType == "" {
		tourType = "in_person"
	}
	if _, ok := tourTypes[tourType]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tour_type"})
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = user.Email
	}
	tour := models.TourRequest{
		UserID:        user.ID,
		MLSNumber:     strings.TrimSpace(req.MLSNumber),
		Address:       strings.TrimSpace(req.Address),
		Name:          strings.TrimSpace(req.Name),
		Email:         email,
		Phone:         strings.TrimSpace(req.Phone),
		PreferredDate: req.PreferredDate,
		TourType:      tourType,
		Message:       req.Message,
		Status:        models.TourPending,
	}
	if err := tc.DB.Create(&tour).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	first, last := splitName(tour.Name)
	msg := "Tour request (" + tour.TourType + ")"
	if tour.PreferredDate != nil {
		msg += " for " + tour.PreferredDate.Format(time.RFC1123)
	}
	if tour.Message != "" {
		msg += ": " + tour.Message
	}
	sendCRMEvent(ctx, tc.CRM, tc.Log, crm.Event{
		Type:     crm.EventPropertyInquiry,
		Message:  msg,
		Person:   crm.PersonFrom(first, last, tour.Email, tour.Phone, "tour-request"),
		Property: &crm.Property{MLSNumber: tour.MLSNumber, Street: tour.Address},
	})
	if tc.Notify != nil {
		if err := tc.Notify.NotifyTour(ctx, tour); err != nil {
			tc.Log.Warn("tour notification failed", zap.String("tour_id", tour.ID), zap.Error(err))
		}
	}
	c.JSON(http.StatusCreated, tour)
}

// List returns the caller's own tour requests.
func (tc *TourController) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var tours []models.TourRequest
	if err := tc.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&tours).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tours})
}

// Cancel lets the requester withdraw a pending tour.
func (tc *TourController) Cancel(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	var tour models.TourRequest
	if err := tc.DB.Where("id = ? AND user_id = ?", c.Param("id"), user.ID).First(&tour).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tour request not found"})
		return
	}
	if err := tc.DB.Model(&tour).Update("status", models.TourCancelled).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cancelled"})
}

func (tc *TourController) AdminList(c *gin.Context) {
	allowedSorts := map[string]string{
		"created_at":     "created_at",
		"preferred_date": "preferred_date",
		"status":         "status",
		"mls_number":     "mls_number",
	}
	q := parseListQuery(c, allowedSorts, "created_at")
	base := tc.DB.Model(&models.TourRequest{})
	if st := strings.TrimSpace(c.Query("status")); st != "" {
		base = base.Where("status = ?", st)
	}
	listRows[models.TourRequest](c, base, q, "name", "email", "mls_number", "address")
}

func (tc *TourController) AdminUpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch req.Status {
	case models.TourPending, models.TourConfirmed, models.TourCancelled:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	var tour models.TourRequest
	if err := tc.DB.Where("id = ?", c.Param("id")).First(&tour).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tour request not found"})
		return
	}
	if err := tc.DB.Model(&tour).Update("status", req.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	tour.Status = req.Status
	c.JSON(http.StatusOK, tour)
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
