package repliers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Endpoints the site is allowed to proxy.
const (
	EndpointListings  = "listings"
	EndpointListing   = "listing"
	EndpointSimilar   = "similar"
	EndpointEstimates = "estimates"
	EndpointPlaces    = "places"
	EndpointBuildings = "buildings"
)

var (
	emptySimilar = []byte(`{"listings":[],"count":0}`)
	emptyPlaces  = []byte(`{"places":[],"count":0}`)
)

// UpstreamPath resolves an endpoint name (and listing id where needed) to the API path.
func UpstreamPath(endpoint, id string) (string, error) {
	id = strings.TrimSpace(id)
	switch endpoint {
	case EndpointListings:
		return "/listings", nil
	case EndpointListing, EndpointSimilar:
		if id == "" {
			return "", fmt.Errorf("%s requires a listing id", endpoint)
		}
		if endpoint == EndpointSimilar {
			return "/listings/" + url.PathEscape(id) + "/similar", nil
		}
		return "/listings/" + url.PathEscape(id), nil
	case EndpointEstimates:
		return "/estimates", nil
	case EndpointPlaces:
		return "/locations", nil
	case EndpointBuildings:
		return "/buildings", nil
	default:
		return "", fmt.Errorf("unknown endpoint %q", endpoint)
	}
}

// Forward proxies one call and returns the status and JSON body to hand back to the browser.
// Upstream 404 on similar and 403 on places become empty 200 results; other upstream errors keep
// their status with an {error, details} body.
func (c *Client) Forward(ctx context.Context, endpoint, id string, params url.Values) (int, []byte) {
	path, err := UpstreamPath(endpoint, id)
	if err != nil {
		return http.StatusBadRequest, errorBody(err.Error(), nil)
	}
	body, err := c.Get(ctx, path, params)
	return Translate(endpoint, body, err)
}

// Translate maps an upstream result onto the proxy response.
func Translate(endpoint string, body []byte, err error) (int, []byte) {
	if err == nil {
		return http.StatusOK, body
	}
	if errors.Is(err, ErrNotConfigured) {
		return http.StatusInternalServerError, errorBody("MLS API is not configured", nil)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError, errorBody(err.Error(), nil)
	}
	switch {
	case endpoint == EndpointSimilar && apiErr.StatusCode == http.StatusNotFound:
		return http.StatusOK, emptySimilar
	case endpoint == EndpointPlaces && apiErr.StatusCode == http.StatusForbidden:
		return http.StatusOK, emptyPlaces
	}
	return apiErr.StatusCode, errorBody(fmt.Sprintf("MLS API error: %d", apiErr.StatusCode), apiErr.Body)
}

func errorBody(msg string, details []byte) []byte {
	out := map[string]any{"error": msg}
	if len(details) > 0 {
		if json.Valid(details) {
			out["details"] = json.RawMessage(details)
		} else {
			out["details"] = string(details)
		}
	}
	b, _ := json.Marshal(out)
	return b
}
