package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/middleware"
	"github.com/zaqqye/realty_backend/internal/models"
)

type NotificationController struct {
	DB *gorm.DB
}

func (nc *NotificationController) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	q := parseListQuery(c, map[string]string{"created_at": "created_at"}, "created_at")
	base := nc.DB.Model(&models.Notification{}).Where("user_id = ?", user.ID)
	if c.Query("unread") == "true" || c.Query("unread") == "1" {
		base = base.Where("is_read = ?", false)
	}
	listRows[models.Notification](c, base, q)
}

func (nc *NotificationController) MarkRead(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	now := time.Now().UTC()
	res := nc.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), user.ID).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "read"})
}

func (nc *NotificationController) MarkAllRead(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	now := time.Now().UTC()
	res := nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.ID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": &now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "read", "updated": res.RowsAffected})
}
