package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/models"
)

// SiteController serves the admin-managed lookups: settings, navigation, property subtypes
// and school districts.
type SiteController struct {
	DB *gorm.DB
}

// Settings returns the public settings as a key/value map.
func (sc *SiteController) Settings(c *gin.Context) {
	var rows []models.SiteSetting
	if err := sc.DB.Where("public = ?", true).Order("key ASC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// NavNode is a navigation item with its children.
type NavNode struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	URL      string    `json:"url"`
	Position int       `json:"position"`
	Children []NavNode `json:"children,omitempty"`
}

// BuildNavTree nests items under their parents; items whose parent is missing are dropped.
// Input order (by position) is kept at every level.
func BuildNavTree(items []models.NavigationItem) []NavNode {
	children := map[string][]models.NavigationItem{}
	ids := map[string]struct{}{}
	for _, it := range items {
		ids[it.ID] = struct{}{}
	}
	var roots []models.NavigationItem
	for _, it := range items {
		if it.ParentID == nil || *it.ParentID == "" {
			roots = append(roots, it)
			continue
		}
		if _, ok := ids[*it.ParentID]; ok {
			children[*it.ParentID] = append(children[*it.ParentID], it)
		}
	}
	var build func(list []models.NavigationItem, depth int) []NavNode
	build = func(list []models.NavigationItem, depth int) []NavNode {
		out := make([]NavNode, 0, len(list))
		for _, it := range list {
			n := NavNode{ID: it.ID, Label: it.Label, URL: it.URL, Position: it.Position}
			if depth < 3 {
				n.Children = build(children[it.ID], depth+1)
			}
			out = append(out, n)
		}
		return out
	}
	return build(roots, 0)
}

func (sc *SiteController) Navigation(c *gin.Context) {
	location := c.DefaultQuery("location", "header")
	var items []models.NavigationItem
	err := sc.DB.Where("active = ? AND location = ?", true, location).
		Order("position ASC").Order("label ASC").Find(&items).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": BuildNavTree(items), "location": location})
}

func (sc *SiteController) Subtypes(c *gin.Context) {
	var rows []models.PropertySubtype
	if err := sc.DB.Where("active = ?", true).Order("position ASC").Order("name ASC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (sc *SiteController) SchoolDistricts(c *gin.Context) {
	q := sc.DB.Where("active = ?", true)
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(city))
	}
	var rows []models.SchoolDistrict
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// --- admin: settings ---

func (sc *SiteController) AdminListSettings(c *gin.Context) {
	q := parseListQuery(c, map[string]string{"key": "key", "updated_at": "updated_at"}, "key")
	listRows[models.SiteSetting](c, sc.DB.Model(&models.SiteSetting{}), q, "key", "value")
}

type settingRequest struct {
	Value       *string `json:"value"`
	Description *string `json:"description"`
	Public      *bool   `json:"public"`
}

// AdminPutSetting creates or updates the setting named in the path.
func (sc *SiteController) AdminPutSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key"})
		return
	}
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var s models.SiteSetting
	created := false
	if err := sc.DB.Where("key = ?", key).First(&s).Error; err != nil {
		if !isNotFound(err) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		s = models.SiteSetting{Key: key}
		created = true
	}
	if req.Value != nil {
		s.Value = *req.Value
	}
	if req.Description != nil {
		s.Description = *req.Description
	}
	if req.Public != nil {
		s.Public = *req.Public
	}
	if err := sc.DB.Save(&s).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, s)
}

func (sc *SiteController) AdminDeleteSetting(c *gin.Context) {
	res := sc.DB.Where("key = ?", c.Param("key")).Delete(&models.SiteSetting{})
	deleted(c, res, "setting not found")
}

// --- admin: navigation ---

type navigationRequest struct {
	Label    *string `json:"label"`
	URL      *string `json:"url"`
	ParentID *string `json:"parent_id"`
	Position *int    `json:"position"`
	Location *string `json:"location"`
	Active   *bool   `json:"active"`
}

func (r navigationRequest) apply(n *models.NavigationItem) string {
	if r.Label != nil {
		n.Label = strings.TrimSpace(*r.Label)
	}
	if r.URL != nil {
		n.URL = strings.TrimSpace(*r.URL)
	}
	if r.ParentID != nil {
		if p := strings.TrimSpace(*r.ParentID); p == "" {
			n.ParentID = nil
		} else {
			n.ParentID = &p
		}
	}
	if r.Position != nil {
		n.Position = *r.Position
	}
	if r.Location != nil {
		n.Location = strings.ToLower(strings.TrimSpace(*r.Location))
	}
	if r.Active != nil {
		n.Active = *r.Active
	}
	if n.Label == "" || n.URL == "" {
		return "label and url are required"
	}
	if n.Location != "header" && n.Location != "footer" {
		return "location must be header or footer"
	}
	if n.ParentID != nil && *n.ParentID == n.ID {
		return "item cannot be its own parent"
	}
	return ""
}

func (sc *SiteController) AdminListNavigation(c *gin.Context) {
	allowedSorts := map[string]string{"position": "position", "label": "label", "created_at": "created_at"}
	q := parseListQuery(c, allowedSorts, "position")
	base := sc.DB.Model(&models.NavigationItem{})
	if loc := strings.TrimSpace(c.Query("location")); loc != "" {
		base = base.Where("location = ?", loc)
	}
	listRows[models.NavigationItem](c, base, q, "label", "url")
}

func (sc *SiteController) AdminCreateNavigation(c *gin.Context) {
	var req navigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item := models.NavigationItem{Location: "header", Active: true}
	if msg := req.apply(&item); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if item.ParentID != nil && !sc.exists(&models.NavigationItem{}, *item.ParentID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parent not found"})
		return
	}
	if err := sc.DB.Create(&item).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (sc *SiteController) AdminUpdateNavigation(c *gin.Context) {
	var item models.NavigationItem
	if err := sc.DB.Where("id = ?", c.Param("id")).First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "navigation item not found"})
		return
	}
	var req navigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.apply(&item); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if item.ParentID != nil && !sc.exists(&models.NavigationItem{}, *item.ParentID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parent not found"})
		return
	}
	if err := sc.DB.Save(&item).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

// AdminDeleteNavigation removes an item and detaches its children to the top level.
func (sc *SiteController) AdminDeleteNavigation(c *gin.Context) {
	id := c.Param("id")
	var res *gorm.DB
	err := sc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.NavigationItem{}).Where("parent_id = ?", id).Update("parent_id", nil).Error; err != nil {
			return err
		}
		res = tx.Where("id = ?", id).Delete(&models.NavigationItem{})
		return res.Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	deleted(c, res, "navigation item not found")
}

// --- admin: property subtypes ---

type subtypeRequest struct {
	Name         *string `json:"name"`
	Slug         *string `json:"slug"`
	Class        *string `json:"class"`
	PropertyType *string `json:"property_type"`
	Position     *int    `json:"position"`
	Active       *bool   `json:"active"`
}

func (r subtypeRequest) apply(s *models.PropertySubtype) string {
	if r.Name != nil {
		s.Name = strings.TrimSpace(*r.Name)
	}
	if r.Slug != nil {
		s.Slug = strings.ToLower(strings.TrimSpace(*r.Slug))
	}
	if r.Class != nil {
		s.Class = strings.TrimSpace(*r.Class)
	}
	if r.PropertyType != nil {
		s.PropertyType = strings.TrimSpace(*r.PropertyType)
	}
	if r.Position != nil {
		s.Position = *r.Position
	}
	if r.Active != nil {
		s.Active = *r.Active
	}
	if s.Name == "" {
		return "name is required"
	}
	if !slugPattern.MatchString(s.Slug) {
		return "invalid slug"
	}
	return ""
}

func (sc *SiteController) AdminListSubtypes(c *gin.Context) {
	allowedSorts := map[string]string{"position": "position", "name": "name", "created_at": "created_at"}
	q := parseListQuery(c, allowedSorts, "position")
	listRows[models.PropertySubtype](c, sc.DB.Model(&models.PropertySubtype{}), q, "name", "slug", "property_type")
}

func (sc *SiteController) AdminCreateSubtype(c *gin.Context) {
	var req subtypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row := models.PropertySubtype{Active: true}
	if msg := req.apply(&row); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	created(c, sc.DB.Create(&row).Error, row, "slug already exists")
}

func (sc *SiteController) AdminUpdateSubtype(c *gin.Context) {
	var row models.PropertySubtype
	if err := sc.DB.Where("id = ?", c.Param("id")).First(&row).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "subtype not found"})
		return
	}
	var req subtypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.apply(&row); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	saved(c, sc.DB.Save(&row).Error, row, "slug already exists")
}

func (sc *SiteController) AdminDeleteSubtype(c *gin.Context) {
	deleted(c, sc.DB.Where("id = ?", c.Param("id")).Delete(&models.PropertySubtype{}), "subtype not found")
}

// --- admin: school districts ---

type districtRequest struct {
	Name   *string  `json:"name"`
	Slug   *string  `json:"slug"`
	City   *string  `json:"city"`
	State  *string  `json:"state"`
	Rating *float64 `json:"rating"`
	Active *bool    `json:"active"`
}

func (r districtRequest) apply(d *models.SchoolDistrict) string {
	if r.Name != nil {
		d.Name = strings.TrimSpace(*r.Name)
	}
	if r.Slug != nil {
		d.Slug = strings.ToLower(strings.TrimSpace(*r.Slug))
	}
	if r.City != nil {
		d.City = strings.TrimSpace(*r.City)
	}
	if r.State != nil {
		d.State = strings.ToUpper(strings.TrimSpace(*r.State))
	}
	if r.Rating != nil {
		if *r.Rating < 0 || *r.Rating > 10 {
			return "rating must be between 0 and 10"
		}
		d.Rating = r.Rating
	}
	if r.Active != nil {
		d.Active = *r.Active
	}
	if d.Name == "" {
		return "name is required"
	}
	if !slugPattern.MatchString(d.Slug) {
		return "invalid slug"
	}
	return ""
}

func (sc *SiteController) AdminListSchoolDistricts(c *gin.Context) {
	allowedSorts := map[string]string{"name": "name", "city": "city", "rating": "rating", "created_at": "created_at"}
	q := parseListQuery(c, allowedSorts, "name")
	listRows[models.SchoolDistrict](c, sc.DB.Model(&models.SchoolDistrict{}), q, "name", "city")
}

func (sc *SiteController) AdminCreateSchoolDistrict(c *gin.Context) {
	var req districtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	row := models.SchoolDistrict{Active: true}
	if msg := req.apply(&row); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	created(c, sc.DB.Create(&row).Error, row, "slug already exists")
}

func (sc *SiteController) AdminUpdateSchoolDistrict(c *gin.Context) {
	var row models.SchoolDistrict
	if err := sc.DB.Where("id = ?", c.Param("id")).First(&row).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "school district not found"})
		return
	}
	var req districtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := req.apply(&row); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	saved(c, sc.DB.Save(&row).Error, row, "slug already exists")
}

func (sc *SiteController) AdminDeleteSchoolDistrict(c *gin.Context) {
	deleted(c, sc.DB.Where("id = ?", c.Param("id")).Delete(&models.SchoolDistrict{}), "school district not found")
}

func (sc *SiteController) exists(model any, id string) bool {
	var n int64
	sc.DB.Model(model).Where("id = ?", id).Count(&n)
	return n > 0
}

func created(c *gin.Context, err error, row any, conflictMsg string) {
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": conflictMsg})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, row)
}

func saved(c *gin.Context, err error, row any, conflictMsg string) {
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": conflictMsg})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, row)
}

func deleted(c *gin.Context, res *gorm.DB, notFoundMsg string) {
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMsg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
