// Package matcher decides which saved searches a changed listing should alert.
package matcher

import (
	"strings"
	"time"

	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/property"
)

// Criteria is the comparable part of a saved search. Nil or empty fields match anything.
type Criteria struct {
	City         string
	State        string
	MinPrice     *int64
	MaxPrice     *int64
	MinBeds      *int
	MinBaths     *float64
	PropertyType string
}

func CriteriaOf(s models.SavedSearch) Criteria {
	return Criteria{
		City:         s.City,
		State:        s.State,
		MinPrice:     s.MinPrice,
		MaxPrice:     s.MaxPrice,
		MinBeds:      s.MinBeds,
		MinBaths:     s.MinBaths,
		PropertyType: s.PropertyType,
	}
}

// Matches compares the listing field by field. Bounds are inclusive; strings compare case-insensitively.
func Matches(c Criteria, p property.Property) bool {
	if !sameText(c.City, p.City) || !sameText(c.State, p.State) || !sameText(c.PropertyType, p.PropertyType) {
		return false
	}
	if c.MinPrice != nil && p.Price < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && p.Price > *c.MaxPrice {
		return false
	}
	if c.MinBeds != nil && p.Beds < *c.MinBeds {
		return false
	}
	if c.MinBaths != nil && p.Baths < *c.MinBaths {
		return false
	}
	return true
}

func sameText(want, got string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	return strings.EqualFold(want, strings.TrimSpace(got))
}

// Cooldown is the minimum gap between two alerts for a frequency tier. Unknown tiers behave as daily.
func Cooldown(frequency string) time.Duration {
	switch strings.ToLower(strings.TrimSpace(frequency)) {
	case models.FrequencyInstant:
		return 0
	case models.FrequencyWeekly:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Due reports whether a search may be notified at now.
func Due(frequency string, lastNotifiedAt *time.Time, now time.Time) bool {
	if lastNotifiedAt == nil {
		return true
	}
	return now.Sub(*lastNotifiedAt) >= Cooldown(frequency)
}

func IsValidFrequency(f string) bool {
	switch f {
	case models.FrequencyInstant, models.FrequencyDaily, models.FrequencyWeekly:
		return true
	}
	return false
}
