package controllers

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/zaqqye/realty_backend/internal/crm"
	"github.com/zaqqye/realty_backend/internal/property"
)

// CRM forwards lead events; *crm.Client implements it.
type CRM interface {
	SendEvent(ctx context.Context, ev crm.Event) (*crm.EventResponse, error)
}

// sendCRMEvent forwards ev and returns the CRM person id. Failures are logged, never returned.
func sendCRMEvent(ctx context.Context, client CRM, log *zap.Logger, ev crm.Event) string {
	if client == nil {
		return ""
	}
	resp, err := client.SendEvent(ctx, ev)
	switch {
	case errors.Is(err, crm.ErrNotConfigured):
		log.Debug("crm not configured, event skipped", zap.String("type", ev.Type))
		return ""
	case err != nil:
		log.Warn("crm event failed", zap.String("type", ev.Type), zap.Error(err))
		return ""
	}
	if resp == nil || resp.PersonID == 0 {
		return ""
	}
	return strconv.FormatInt(resp.PersonID, 10)
}

func crmProperty(p property.Property) *crm.Property {
	return &crm.Property{
		Street:    p.Street,
		City:      p.City,
		State:     p.State,
		Code:      p.Zip,
		MLSNumber: p.MLSNumber,
		Price:     p.Price,
		Bedrooms:  p.Beds,
		Bathrooms: p.Baths,
		Area:      p.Sqft,
		URL:       p.URL,
		Type:      p.PropertyType,
	}
}
