package matcher

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/property"
)

// SearchStore loads active saved searches and stamps notification times.
type SearchStore interface {
	ActiveSearches(ctx context.Context) ([]models.SavedSearch, error)
	MarkNotified(ctx context.Context, id string, at time.Time) error
}

// Notifier delivers one saved-search alert.
type Notifier interface {
	NotifySavedSearch(ctx context.Context, search models.SavedSearch, p property.Property) error
}

// Result summarises one webhook run.
type Result struct {
	Evaluated int `json:"evaluated"`
	Matched   int `json:"matched"`
	Notified  int `json:"notified"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

type Engine struct {
	Store    SearchStore
	Notifier Notifier
	Log      *zap.Logger
	Now      func() time.Time
}

func NewEngine(store SearchStore, notifier Notifier, log *zap.Logger) *Engine {
	return &Engine{Store: store, Notifier: notifier, Log: log, Now: time.Now}
}

// Process evaluates every active search against p. A failure on one search is logged
// and the loop moves on to the next.
func (e *Engine) Process(ctx context.Context, p property.Property) (Result, error) {
	var res Result
	searches, err := e.Store.ActiveSearches(ctx)
	if err != nil {
		return res, err
	}
	now := e.Now().UTC()
	for _, s := range searches {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Evaluated++
		if !Matches(CriteriaOf(s), p) {
			continue
		}
		res.Matched++
		if !Due(s.Frequency, s.LastNotifiedAt, now) {
			res.Skipped++
			continue
		}
		if err := e.Notifier.NotifySavedSearch(ctx, s, p); err != nil {
			res.Failed++
			e.Log.Warn("saved search notify failed",
				zap.String("search_id", s.ID), zap.String("mls_number", p.MLSNumber), zap.Error(err))
			continue
		}
		if err := e.Store.MarkNotified(ctx, s.ID, now); err != nil {
			res.Failed++
			e.Log.Warn("saved search stamp failed", zap.String("search_id", s.ID), zap.Error(err))
			continue
		}
		res.Notified++
	}
	return res, nil
}

// GormStore is the database-backed SearchStore.
type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) ActiveSearches(ctx context.Context) ([]models.SavedSearch, error) {
	var out []models.SavedSearch
	err := s.DB.WithContext(ctx).Where("active = ?", true).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (s *GormStore) MarkNotified(ctx context.Context, id string, at time.Time) error {
	return s.DB.WithContext(ctx).Model(&models.SavedSearch{}).Where("id = ?", id).Update("last_notified_at", at).Error
}
