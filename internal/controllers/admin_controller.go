package controllers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/middleware"
	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/utils"
)

// AdminController manages staff accounts and bulk lookup imports.
type AdminController struct {
	DB  *gorm.DB
	Log *zap.Logger
}

var staffRoles = map[string]struct{}{
	"admin":  {},
	"editor": {},
}

func IsValidStaffRole(role string) bool {
	_, ok := staffRoles[role]
	return ok
}

type importError struct {
	Row   int    `json:"row"`
	Key   string `json:"key,omitempty"`
	Error string `json:"error"`
}

func parseBoolDefaultTrue(val string) (bool, bool) {
	if val == "" {
		return true, false
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes", "y", "active":
		return true, true
	case "false", "0", "no", "n", "inactive":
		return false, true
	default:
		return true, false
	}
}

// readCSVUpload reads the multipart "file" field and returns a reader plus the lower-cased
// header index. Delimiter is sniffed from the header line (comma or semicolon).
func readCSVUpload(c *gin.Context) (*csv.Reader, map[string]int, error) {
	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		return nil, nil, fmt.Errorf("failed to parse form")
	}
	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("file is required")
	}
	defer file.Close()
	if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(fileHeader.Filename)), ".csv") {
		return nil, nil, fmt.Errorf("only .csv files are allowed")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, fmt.Errorf("file is empty")
	}
	data = bytes.ReplaceAll(data, []byte{'\r', '\n'}, []byte{'\n'})
	data = bytes.ReplaceAll(data, []byte{'\r'}, []byte{'\n'})
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	if bytes.Contains(firstLine, []byte{';'}) && !bytes.Contains(firstLine, []byte{','}) {
		r.Comma = ';'
	}
	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header")
	}
	idx := make(map[string]int, len(header))
	for i, col := range header {
		key := strings.ToLower(strings.Trim(strings.TrimSpace(col), "\"'"))
		if key != "" {
			idx[key] = i
		}
	}
	return r, idx, nil
}

// ImportSchoolDistricts upserts districts by slug from a CSV upload.
// Columns (case-insensitive): name, slug, city (optional), state (optional), rating (optional), active (optional).
func (a *AdminController) ImportSchoolDistricts(c *gin.Context) {
	reader, headerIdx, err := readCSVUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, key := range []string{"name", "slug"} {
		if _, ok := headerIdx[key]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing header column: %s", key)})
			return
		}
	}
	getVal := func(record []string, key string) string {
		idx, ok := headerIdx[key]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var (
		totalRows int
		inserted  int
		updated   int
		failures  []importError
	)
	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			failures = append(failures, importError{Row: rowNum, Error: fmt.Sprintf("failed to read row: %v", err)})
			continue
		}
		totalRows++

		name := getVal(row, "name")
		slug := strings.ToLower(getVal(row, "slug"))
		if name == "" || !slugPattern.MatchString(slug) {
			failures = append(failures, importError{Row: rowNum, Key: slug, Error: "name and a valid slug are required"})
			continue
		}
		active, provided := parseBoolDefaultTrue(getVal(row, "active"))
		if getVal(row, "active") != "" && !provided {
			failures = append(failures, importError{Row: rowNum, Key: slug, Error: "invalid active value"})
			continue
		}
		var rating *float64
		if v := getVal(row, "rating"); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 || f > 10 {
				failures = append(failures, importError{Row: rowNum, Key: slug, Error: "invalid rating"})
				continue
			}
			rating = &f
		}

		var d models.SchoolDistrict
		isNew := false
		if err := a.DB.Where("slug = ?", slug).First(&d).Error; err != nil {
			if !isNotFound(err) {
				failures = append(failures, importError{Row: rowNum, Key: slug, Error: err.Error()})
				continue
			}
			d = models.SchoolDistrict{Slug: slug}
			isNew = true
		}
		d.Name = name
		d.City = getVal(row, "city")
		d.State = strings.ToUpper(getVal(row, "state"))
		d.Rating = rating
		d.Active = active
		if err := a.DB.Save(&d).Error; err != nil {
			failures = append(failures, importError{Row: rowNum, Key: slug, Error: fmt.Sprintf("failed to save: %v", err)})
			continue
		}
		if isNew {
			inserted++
		} else {
			updated++
		}
	}
	a.Log.Info("school districts imported",
		zap.Int("rows", totalRows), zap.Int("inserted", inserted), zap.Int("updated", updated), zap.Int("failed", len(failures)))

	c.JSON(http.StatusOK, gin.H{
		"summary": gin.H{
			"total_rows": totalRows,
			"inserted":   inserted,
			"updated":    updated,
			"failed":     len(failures),
		},
		"errors": failures,
	})
}

func (a *AdminController) ListStaff(c *gin.Context) {
	allowedSorts := map[string]string{
		"created_at": "created_at",
		"full_name":  "full_name",
		"email":      "email",
		"role":       "role",
		"active":     "active",
	}
	q := parseListQuery(c, allowedSorts, "created_at")
	active, err := parseBoolFilter(c, "active")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	base := a.DB.Model(&models.StaffUser{})
	if role := strings.TrimSpace(strings.ToLower(c.Query("role"))); role != "" {
		if !IsValidStaffRole(role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		base = base.Where("role = ?", role)
	}
	if active != nil {
		base = base.Where("active = ?", *active)
	}
	listRows[models.StaffUser](c, base, q, "full_name", "email")
}

type staffRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Active   *bool   `json:"active"`
}

func (r staffRequest) apply(u *models.StaffUser) (string, error) {
	if r.FullName != nil {
		u.FullName = strings.TrimSpace(*r.FullName)
	}
	if r.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*r.Email))
	}
	if r.Role != nil {
		u.Role = strings.ToLower(strings.TrimSpace(*r.Role))
	}
	if r.Active != nil {
		u.Active = *r.Active
	}
	if r.Password != nil {
		raw := strings.TrimSpace(*r.Password)
		if raw != "" {
			if len(raw) < 8 {
				return "password must be at least 8 characters", nil
			}
			pw, err := utils.HashPassword(raw)
			if err != nil {
				return "", err
			}
			u.Password = pw
		}
	}
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return "valid email is required", nil
	}
	if !IsValidStaffRole(u.Role) {
		return "invalid role", nil
	}
	if u.Password == "" {
		return "password is required", nil
	}
	return "", nil
}

func (a *AdminController) CreateStaff(c *gin.Context) {
	var req staffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u := models.StaffUser{Role: "admin", Active: true}
	msg, err := req.apply(&u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	created(c, a.DB.Create(&u).Error, u, "email already exists")
}

func (a *AdminController) GetStaff(c *gin.Context) {
	var u models.StaffUser
	if err := a.DB.Where("id = ?", c.Param("id")).First(&u).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (a *AdminController) UpdateStaff(c *gin.Context) {
	var u models.StaffUser
	if err := a.DB.Where("id = ?", c.Param("id")).First(&u).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	var req staffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := req.apply(&u)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	saved(c, a.DB.Save(&u).Error, u, "email already exists")
}

func (a *AdminController) DeleteStaff(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if me, ok := middleware.CurrentUser(c); ok && me.ID == id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}
	deleted(c, a.DB.Where("id = ?", id).Delete(&models.StaffUser{}), "user not found")
}
