package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/property"
	"github.com/zaqqye/realty_backend/internal/ws"
)

// Pusher delivers realtime messages; *ws.Hub implements it.
type Pusher interface {
	Notify(userID string, msg ws.Message)
}

type Service struct {
	DB         *gorm.DB
	Email      EmailSender
	Push       Pusher
	AgentEmail string
	Log        *zap.Logger
}

// send treats a missing email configuration as a skipped send rather than a failure.
func (s *Service) send(ctx context.Context, e Email) (bool, error) {
	if s.Email == nil {
		return false, nil
	}
	err := s.Email.Send(ctx, e)
	if errors.Is(err, ErrEmailNotConfigured) {
		s.Log.Warn("email not configured, skipping", zap.String("subject", e.Subject))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NotifySavedSearch emails the search owner, records the notification and pushes it to open tabs.
func (s *Service) NotifySavedSearch(ctx context.Context, search models.SavedSearch, p property.Property) error {
	name := search.Name
	if name == "" {
		name = "your saved search"
	}
	title := fmt.Sprintf("New listing: %s", p.Address)
	msg := fmt.Sprintf("%s · %d bd · %.1f ba matches %s", p.PriceFormatted, p.Beds, p.Baths, name)

	emailed := false
	if search.Email != "" {
		html, err := render("saved_search", map[string]any{
			"SearchName": name,
			"Property":   p,
			"Frequency":  search.Frequency,
		})
		if err != nil {
			return err
		}
		emailed, err = s.send(ctx, Email{To: []string{search.Email}, Subject: title, HTML: html})
		if err != nil {
			return err
		}
	}

	data, err := json.Marshal(map[string]any{
		"saved_search_id": search.ID,
		"mls_number":      p.MLSNumber,
		"price":           p.Price,
		"url":             p.URL,
		"image":           p.PrimaryImage,
	})
	if err != nil {
		return err
	}
	n := models.Notification{
		UserID:  search.UserID,
		Type:    "saved_search_match",
		Title:   title,
		Message: msg,
		Data:    data,
		Emailed: emailed,
	}
	if s.DB != nil {
		if err := s.DB.WithContext(ctx).Create(&n).Error; err != nil {
			if !emailed {
				return fmt.Errorf("record notification: %w", err)
			}
			// the email is out; failing here would resend it on the next run
			s.Log.Warn("record notification failed after email was sent",
				zap.String("saved_search_id", search.ID), zap.Error(err))
		}
	}
	if s.Push != nil {
		s.Push.Notify(search.UserID, ws.Message{Type: n.Type, Title: title, Message: msg, Data: data, CreatedAt: n.CreatedAt})
	}
	return nil
}

// NotifyLead emails the agent inbox about a new lead.
func (s *Service) NotifyLead(ctx context.Context, lead models.Lead) error {
	if s.AgentEmail == "" {
		return nil
	}
	kind := lead.Kind
	if kind == "" {
		kind = "general"
	}
	html, err := render("lead", map[string]any{
		"Kind":      kind,
		"Name":      strings.TrimSpace(lead.FirstName + " " + lead.LastName),
		"Email":     lead.Email,
		"Phone":     lead.Phone,
		"MLSNumber": lead.MLSNumber,
		"Source":    lead.Source,
		"PageURL":   lead.PageURL,
		"Message":   lead.Message,
	})
	if err != nil {
		return err
	}
	_, err = s.send(ctx, Email{
		To:      []string{s.AgentEmail},
		Subject: fmt.Sprintf("New %s lead: %s", kind, lead.Email),
		HTML:    html,
		ReplyTo: lead.Email,
	})
	return err
}

// NotifyTour emails the agent inbox and pushes a confirmation to the requester.
func (s *Service) NotifyTour(ctx context.Context, tour models.TourRequest) error {
	if s.Push != nil {
		s.Push.Notify(tour.UserID, ws.Message{
			Type:    "tour_update",
			Title:   "Tour request received",
			Message: fmt.Sprintf("We received your tour request for %s.", tour.Address),
		})
	}
	if s.AgentEmail == "" {
		return nil
	}
	preferred := ""
	if tour.PreferredDate != nil {
		preferred = tour.PreferredDate.Format("Mon Jan 2, 2006 3:04 PM")
	}
	html, err := render("tour", map[string]any{
		"Name":          tour.Name,
		"Email":         tour.Email,
		"Phone":         tour.Phone,
		"Address":       tour.Address,
		"MLSNumber":     tour.MLSNumber,
		"TourType":      tour.TourType,
		"PreferredDate": preferred,
		"Message":       tour.Message,
	})
	if err != nil {
		return err
	}
	_, err = s.send(ctx, Email{
		To:      []string{s.AgentEmail},
		Subject: fmt.Sprintf("Tour request: %s", tour.Address),
		HTML:    html,
		ReplyTo: tour.Email,
	})
	return err
}
