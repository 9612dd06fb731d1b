package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/middleware"
	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/property"
	"github.com/zaqqye/realty_backend/internal/repliers"
)

type PageController struct {
	DB      *gorm.DB
	MLS     MLS
	Options property.Options
	Log     *zap.Logger
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-/][a-z0-9]+)*$`)

var knownModules = map[string]struct{}{
	models.ModuleHero:         {},
	models.ModuleContentBlock: {},
	models.ModuleListingsGrid: {},
	models.ModuleContactForm:  {},
	models.ModuleTestimonials: {},
	models.ModuleFAQ:          {},
	models.ModuleCTA:          {},
}

// ResolvedModule is a page module ready to render; Data carries server-fetched content.
type ResolvedModule struct {
	ID     string          `json:"id,omitempty"`
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
	Data   any             `json:"data,omitempty"`
}

type listingsGridConfig struct {
	Params map[string]any `json:"params"`
	Limit  int            `json:"limit"`
}

type listingsGridData struct {
	Listings []property.Property `json:"listings"`
	Count    int                 `json:"count"`
}

// Show serves a published page by slug with its modules resolved. Content staff may preview drafts.
func (pc *PageController) Show(c *gin.Context) {
	slug := strings.Trim(c.Param("slug"), "/")
	q := pc.DB.Where("slug = ?", slug)
	if user, ok := middleware.CurrentUser(c); !ok || !user.CanEditContent() {
		q = q.Where("published = ?", true)
	}
	var page models.ContentPage
	if err := q.First(&page).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}
	mods, err := page.DecodeModules()
	if err != nil {
		pc.Log.Error("page modules corrupt", zap.String("slug", slug), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "page modules are invalid"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":               page.ID,
		"slug":             page.Slug,
		"title":            page.Title,
		"meta_title":       page.MetaTitle,
		"meta_description": page.MetaDescription,
		"published":        page.Published,
		"modules":          pc.ResolveModules(c.Request.Context(), mods),
		"updated_at":       page.UpdatedAt,
	})
}

// ResolveModules dispatches on module type. Listings grids are fetched concurrently; unknown
// types are dropped.
func (pc *PageController) ResolveModules(ctx context.Context, mods []models.PageModule) []ResolvedModule {
	out := make([]ResolvedModule, 0, len(mods))
	grids := make(map[int]json.RawMessage)
	for _, m := range mods {
		switch m.Type {
		case models.ModuleHero, models.ModuleContentBlock, models.ModuleContactForm,
			models.ModuleTestimonials, models.ModuleFAQ, models.ModuleCTA:
		case models.ModuleListingsGrid:
			grids[len(out)] = m.Config
		default:
			pc.Log.Warn("unknown page module dropped", zap.String("type", m.Type), zap.String("id", m.ID))
			continue
		}
		out = append(out, ResolvedModule{ID: m.ID, Type: m.Type, Config: m.Config})
	}

	var g errgroup.Group
	g.SetLimit(4)
	for idx, cfg := range grids {
		g.Go(func() error {
			out[idx].Data = pc.listingsGrid(ctx, cfg)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (pc *PageController) listingsGrid(ctx context.Context, raw json.RawMessage) listingsGridData {
	empty := listingsGridData{Listings: []property.Property{}}
	var cfg listingsGridConfig
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			pc.Log.Warn("listings grid config invalid", zap.Error(err))
			return empty
		}
	}
	if pc.MLS == nil {
		return empty
	}
	params := repliers.ParamsFromMap(cfg.Params)
	if params.Get("status") == "" {
		params.Set("status", "Active")
	}
	limit := cfg.Limit
	if limit <= 0 || limit > 48 {
		limit = 12
	}
	params.Set("resultsPerPage", strconv.Itoa(limit))
	page, err := pc.MLS.SearchListings(ctx, params)
	if err != nil {
		pc.Log.Warn("listings grid fetch failed", zap.Error(err))
		return empty
	}
	props := property.NormalizeAll(page.Listings, pc.Options)
	return listingsGridData{Listings: props, Count: page.Count}
}

type pageRequest struct {
	Slug            *string              `json:"slug"`
	Title           *string              `json:"title"`
	MetaTitle       *string              `json:"meta_title"`
	MetaDescription *string              `json:"meta_description"`
	Published       *bool                `json:"published"`
	Modules         *[]models.PageModule `json:"modules"`
}

func (r pageRequest) apply(p *models.ContentPage) string {
	if r.Slug != nil {
		p.Slug = strings.Trim(strings.ToLower(strings.TrimSpace(*r.Slug)), "/")
	}
	if r.Title != nil {
		p.Title = strings.TrimSpace(*r.Title)
	}
	if r.MetaTitle != nil {
		p.MetaTitle = strings.TrimSpace(*r.MetaTitle)
	}
	if r.MetaDescription != nil {
		p.MetaDescription = strings.TrimSpace(*r.MetaDescription)
	}
	if r.Published != nil {
		p.Published = *r.Published
	}
	if r.Modules != nil {
		for _, m := range *r.Modules {
			if _, ok := knownModules[m.Type]; !ok {
				return "unknown module type: " + m.Type
			}
		}
		b, err := json.Marshal(*r.Modules)
		if err != nil {
			return err.Error()
		}
		p.Modules = b
	}
	if !slugPattern.MatchString(p.Slug) {
		return "invalid slug"
	}
	if p.Title == "" {
		return "title is required"
	}
	return ""
}

func (pc *PageController) AdminList(c *gin.Context) {
	allowedSorts := map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"slug":       "slug",
		"title":      "title",
	}
	q := parseListQuery(c, allowedSorts, "updated_at")
	published, err := parseBoolFilter(c, "published")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	base := pc.DB.Model(&models.ContentPage{})
	if published != nil {
		base = base.Where("published = ?", *published)
	}
	listRows[models.ContentPage](c, base, q, "slug", "title")
}

func (pc *PageController) AdminGet(c *gin.Context) {
	var page models.ContentPage
	if err := pc.DB.Where("id = ?", c.Param("id")).First(&page).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (pc *PageController) AdminCreate(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page := models.ContentPage{Modules: []byte("[]")}
	if msg := req.apply(&page); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := pc.DB.Create(&page).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "slug already exists"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, page)
}

func (pc *PageController) AdminUpdate(c *gin.Context) {
	var page models.ContentPage
	if err := pc.DB.Where("id = ?", c.Param("id")).First(&page).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.apply(&page); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if err := pc.DB.Save(&page).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "slug already exists"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (pc *PageController) AdminDelete(c *gin.Context) {
	res := pc.DB.Where("id = ?", c.Param("id")).Delete(&models.ContentPage{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
