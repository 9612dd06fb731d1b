// Package notify sends the transactional emails and realtime alerts the site produces.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrEmailNotConfigured = errors.New("notify: email api not configured")

type Email struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type EmailSender interface {
	Send(ctx context.Context, e Email) error
}

// HTTPEmailSender posts to a Resend-compatible JSON API.
type HTTPEmailSender struct {
	URL    string
	APIKey string
	From   string
	HTTP   *http.Client
}

func NewHTTPEmailSender(url, apiKey, from string) *HTTPEmailSender {
	return &HTTPEmailSender{URL: url, APIKey: apiKey, From: from, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

func (s *HTTPEmailSender) Send(ctx context.Context, e Email) error {
	if s == nil || s.APIKey == "" || s.URL == "" {
		return ErrEmailNotConfigured
	}
	if len(e.To) == 0 {
		return errors.New("notify: email has no recipients")
	}
	payload := struct {
		From string `json:"from"`
		Email
	}{From: s.From, Email: e}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send email: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("notify: email api status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
