// Package repliers is a thin client for the Repliers MLS API.
package repliers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiKeyHeader = "REPLIERS-API-KEY"

var ErrNotConfigured = errors.New("repliers: api key not configured")

// APIError carries a non-2xx upstream response.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("repliers: upstream status %d", e.StatusCode)
}

// StatusOf returns the upstream status code when err wraps an *APIError.
func StatusOf(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 20 * time.Second},
	}
}

// Get calls path with the rewritten query parameters and returns the raw body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if c.APIKey == "" {
		return nil, ErrNotConfigured
	}
	u := c.BaseURL + "/" + strings.TrimLeft(path, "/")
	if q := RewriteParams(params).Encode(); q != "" {
		u += "?" + q
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(apiKeyHeader, c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("repliers: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("repliers: read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

// ListingsPage is the paged envelope returned by GET /listings.
type ListingsPage struct {
	Page     int               `json:"page"`
	NumPages int               `json:"numPages"`
	PageSize int               `json:"pageSize"`
	Count    int               `json:"count"`
	Listings []json.RawMessage `json:"listings"`
}

func (c *Client) SearchListings(ctx context.Context, params url.Values) (*ListingsPage, error) {
	body, err := c.Get(ctx, "/listings", params)
	if err != nil {
		return nil, err
	}
	var page ListingsPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("repliers: decode listings: %w", err)
	}
	return &page, nil
}

func (c *Client) GetListing(ctx context.Context, mlsNumber string) (json.RawMessage, error) {
	body, err := c.Get(ctx, "/listings/"+url.PathEscape(mlsNumber), nil)
	if err != nil {
		return nil, err
	}
	return body, nil
}
