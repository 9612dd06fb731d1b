// Package seo drafts page and listing copy with a generative model.
package seo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zaqqye/realty_backend/internal/property"
)

const (
	KindPage         = "page"
	KindListing      = "listing"
	KindNeighborhood = "neighborhood"

	MaxTitleRunes       = 60
	MaxDescriptionRunes = 160
)

var (
	ErrNotConfigured = errors.New("seo: generator not configured")
	ErrEmptyResponse = errors.New("seo: empty model response")
)

type Request struct {
	Kind     string             `json:"kind"`
	Topic    string             `json:"topic"`
	City     string             `json:"city"`
	Keywords []string           `json:"keywords"`
	Tone     string             `json:"tone"`
	Listing  *property.Property `json:"listing,omitempty"`
}

// Copy is the structured result the model is asked to return.
type Copy struct {
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	H1              string   `json:"h1"`
	Content         string   `json:"content"`
	Keywords        []string `json:"keywords"`
}

type Generator interface {
	Generate(ctx context.Context, req Request) (*Copy, error)
}

// Validate fills defaults and rejects requests with nothing to write about.
func (r *Request) Validate() error {
	r.Kind = strings.ToLower(strings.TrimSpace(r.Kind))
	if r.Kind == "" {
		r.Kind = KindPage
	}
	switch r.Kind {
	case KindPage, KindNeighborhood:
		if strings.TrimSpace(r.Topic) == "" {
			return fmt.Errorf("seo: topic is required for %s copy", r.Kind)
		}
	case KindListing:
		if r.Listing == nil {
			return errors.New("seo: listing is required for listing copy")
		}
	default:
		return fmt.Errorf("seo: unknown kind %q", r.Kind)
	}
	if r.Tone == "" {
		r.Tone = "warm, professional"
	}
	return nil
}

// BuildPrompt renders the instruction sent to the model.
func BuildPrompt(r Request) string {
	var b strings.Builder
	b.WriteString("You are an SEO copywriter for a local real estate brokerage website.\n")
	fmt.Fprintf(&b, "Tone: %s.\n", r.Tone)
	switch r.Kind {
	case KindListing:
		p := r.Listing
		fmt.Fprintf(&b, "Write copy for the property listing at %s.\n", p.Address)
		fmt.Fprintf(&b, "Price: %s. Beds: %d. Baths: %g.", p.PriceFormatted, p.Beds, p.Baths)
		if p.Sqft > 0 {
			fmt.Fprintf(&b, " Square feet: %d.", p.Sqft)
		}
		if p.PropertyType != "" {
			fmt.Fprintf(&b, " Type: %s.", p.PropertyType)
		}
		b.WriteString("\n")
		if p.Description != "" {
			fmt.Fprintf(&b, "MLS remarks: %s\n", p.Description)
		}
	case KindNeighborhood:
		fmt.Fprintf(&b, "Write a neighborhood guide page about %s", r.Topic)
		if r.City != "" {
			fmt.Fprintf(&b, " in %s", r.City)
		}
		b.WriteString(" for home buyers.\n")
	default:
		fmt.Fprintf(&b, "Write a landing page about %s", r.Topic)
		if r.City != "" {
			fmt.Fprintf(&b, " in %s", r.City)
		}
		b.WriteString(".\n")
	}
	if len(r.Keywords) > 0 {
		fmt.Fprintf(&b, "Target keywords: %s.\n", strings.Join(r.Keywords, ", "))
	}
	fmt.Fprintf(&b, "Respond with only a JSON object with keys meta_title (at most %d characters), "+
		"meta_description (at most %d characters), h1, content (HTML paragraphs) and keywords (array of strings).\n",
		MaxTitleRunes, MaxDescriptionRunes)
	return b.String()
}

// ParseCopy decodes the model output, tolerating markdown code fences, and enforces the meta length limits.
func ParseCopy(text string) (*Copy, error) {
	text = stripFences(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	var c Copy
	if err := json.Unmarshal([]byte(text), &c); err != nil {
		return nil, fmt.Errorf("seo: decode model output: %w", err)
	}
	c.MetaTitle = clip(c.MetaTitle, MaxTitleRunes)
	c.MetaDescription = clip(c.MetaDescription, MaxDescriptionRunes)
	c.H1 = strings.TrimSpace(c.H1)
	c.Content = strings.TrimSpace(c.Content)
	return &c, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clip(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return strings.TrimSpace(string(r[:n]))
}
