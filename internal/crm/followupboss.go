// Package crm forwards lead events to Follow Up Boss and verifies its webhooks.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Follow Up Boss event types the site emits.
const (
	EventRegistration     = "Registration"
	EventPropertyInquiry  = "Property Inquiry"
	EventSavedProperty    = "Saved Property"
	EventPropertySearch   = "Property Search"
	EventGeneralInquiry   = "General Inquiry"
	EventVisitedOpenHouse = "Visited Open House"
)

var ErrNotConfigured = errors.New("crm: api key not configured")

type Value struct {
	Value string `json:"value"`
}

type Person struct {
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Emails    []Value  `json:"emails,omitempty"`
	Phones    []Value  `json:"phones,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

type Property struct {
	Street    string  `json:"street,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Code      string  `json:"code,omitempty"`
	MLSNumber string  `json:"mlsNumber,omitempty"`
	Price     int64   `json:"price,omitempty"`
	Bedrooms  int     `json:"bedrooms,omitempty"`
	Bathrooms float64 `json:"bathrooms,omitempty"`
	Area      int     `json:"area,omitempty"`
	URL       string  `json:"url,omitempty"`
	Type      string  `json:"type,omitempty"`
}

type Event struct {
	Source      string    `json:"source"`
	System      string    `json:"system,omitempty"`
	Type        string    `json:"type"`
	Message     string    `json:"message,omitempty"`
	Description string    `json:"description,omitempty"`
	PageURL     string    `json:"pageUrl,omitempty"`
	Person      Person    `json:"person"`
	Property    *Property `json:"property,omitempty"`
}

// EventResponse carries the person Follow Up Boss matched or created.
type EventResponse struct {
	ID       int64 `json:"id"`
	PersonID int64 `json:"personId"`
}

type Client struct {
	BaseURL string
	APIKey  string
	System  string
	Source  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey, system, source string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		System:  system,
		Source:  source,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.APIKey != ""
}

// SendEvent posts one event to /v1/events.
func (c *Client) SendEvent(ctx context.Context, ev Event) (*EventResponse, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	if ev.Source == "" {
		ev.Source = c.Source
	}
	if ev.System == "" {
		ev.System = c.System
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/events", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.APIKey, "")
	req.Header.Set("Content-Type", "application/json")
	if c.System != "" {
		req.Header.Set("X-System", c.System)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm: send event: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("crm: events status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	var out EventResponse
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("crm: decode event response: %w", err)
		}
	}
	return &out, nil
}

// PersonFrom builds the person block from contact form fields.
func PersonFrom(firstName, lastName, email, phone string, tags ...string) Person {
	p := Person{FirstName: strings.TrimSpace(firstName), LastName: strings.TrimSpace(lastName), Tags: tags}
	if email = strings.TrimSpace(email); email != "" {
		p.Emails = []Value{{Value: email}}
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		p.Phones = []Value{{Value: phone}}
	}
	return p
}
