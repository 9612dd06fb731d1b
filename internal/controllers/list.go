package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// listQuery holds the limit/page/all/sort_by/sort_dir/q parameters every admin list accepts.
type listQuery struct {
	All     bool
	Limit   int
	Page    int
	SortCol string
	SortDir string
	Q       string
}

func parseListQuery(c *gin.Context, allowedSorts map[string]string, defaultSort string) listQuery {
	q := listQuery{
		All:   strings.EqualFold(c.Query("all"), "true") || c.Query("all") == "1",
		Limit: 20,
		Page:  1,
		Q:     strings.TrimSpace(c.Query("q")),
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.Limit = n
		}
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.Page = n
		}
	}
	q.SortDir = strings.ToUpper(c.DefaultQuery("sort_dir", "DESC"))
	if q.SortDir != "ASC" && q.SortDir != "DESC" {
		q.SortDir = "DESC"
	}
	sortCol, ok := allowedSorts[strings.ToLower(c.DefaultQuery("sort_by", defaultSort))]
	if !ok {
		sortCol = allowedSorts[defaultSort]
	}
	q.SortCol = sortCol
	return q
}

// search adds a case-insensitive LIKE over cols when q is set.
func (q listQuery) search(db *gorm.DB, cols ...string) *gorm.DB {
	if q.Q == "" || len(cols) == 0 {
		return db
	}
	like := "%" + strings.ToLower(q.Q) + "%"
	conds := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		conds = append(conds, fmt.Sprintf("LOWER(%s) LIKE ?", col))
		args = append(args, like)
	}
	return db.Where("("+strings.Join(conds, " OR ")+")", args...)
}

func (q listQuery) page(db *gorm.DB) *gorm.DB {
	db = db.Order(fmt.Sprintf("%s %s", q.SortCol, q.SortDir))
	if !q.All {
		db = db.Offset((q.Page - 1) * q.Limit).Limit(q.Limit)
	}
	return db
}

func (q listQuery) meta(total int64) gin.H {
	meta := gin.H{"total": total, "all": q.All}
	if !q.All {
		meta["limit"] = q.Limit
		meta["page"] = q.Page
		meta["sort_by"] = q.SortCol
		meta["sort_dir"] = q.SortDir
	}
	if q.Q != "" {
		meta["q"] = q.Q
	}
	return meta
}

// listRows counts and pages base into out and writes the {data, meta} envelope.
func listRows[T any](c *gin.Context, base *gorm.DB, q listQuery, searchCols ...string) {
	base = q.search(base, searchCols...)
	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var rows []T
	if err := q.page(base.Session(&gorm.Session{})).Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []T{}
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "meta": q.meta(total)})
}

// parseBoolFilter reads an optional true/false query value.
func parseBoolFilter(c *gin.Context, key string) (*bool, error) {
	v := strings.TrimSpace(strings.ToLower(c.Query(key)))
	switch v {
	case "":
		return nil, nil
	case "true", "1":
		b := true
		return &b, nil
	case "false", "0":
		b := false
		return &b, nil
	default:
		return nil, fmt.Errorf("invalid %s value", key)
	}
}

// isUniqueViolation reports a duplicate-key error from Postgres (23505) or SQLite.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
