package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/property"
	"github.com/zaqqye/realty_backend/internal/seo"
)

type SEOController struct {
	DB        *gorm.DB
	Generator seo.Generator
	MLS       MLS
	Options   property.Options
	Log       *zap.Logger
}

type seoGenerateRequest struct {
	seo.Request
	MLSNumber   string `json:"mls_number"`
	PageID      string `json:"page_id"`
	ApplyToPage bool   `json:"apply_to_page"`
}

// Generate drafts copy and, with apply_to_page, writes the meta fields onto the page.
func (sc *SEOController) Generate(c *gin.Context) {
	if sc.Generator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI copywriting is not configured"})
		return
	}
	var req seoGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	if mls := strings.TrimSpace(req.MLSNumber); mls != "" && req.Listing == nil {
		if sc.MLS == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "MLS API is not configured"})
			return
		}
		raw, err := sc.MLS.GetListing(ctx, mls)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load listing", "details": err.Error()})
			return
		}
		p, err := property.NormalizeJSON(raw, sc.Options)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "invalid listing payload"})
			return
		}
		req.Listing = &p
		if req.Kind == "" {
			req.Kind = seo.KindListing
		}
	}

	var page models.ContentPage
	if req.ApplyToPage {
		if req.PageID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "page_id is required with apply_to_page"})
			return
		}
		if err := sc.DB.Where("id = ?", req.PageID).First(&page).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
			return
		}
		if strings.TrimSpace(req.Topic) == "" {
			req.Topic = page.Title
		}
	}

	if err := req.Request.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	out, err := sc.Generator.Generate(ctx, req.Request)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, seo.ErrNotConfigured) {
			status = http.StatusServiceUnavailable
		}
		sc.Log.Warn("seo generation failed", zap.String("kind", req.Kind), zap.Error(err))
		c.JSON(status, gin.H{"error": "failed to generate copy", "details": err.Error()})
		return
	}

	resp := gin.H{"data": out, "applied": false}
	if req.ApplyToPage {
		err := sc.DB.Model(&page).Updates(map[string]interface{}{
			"meta_title":       out.MetaTitle,
			"meta_description": out.MetaDescription,
		}).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp["applied"] = true
		resp["page_id"] = page.ID
	}
	c.JSON(http.StatusOK, resp)
}
