package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zaqqye/realty_backend/internal/property"
	"github.com/zaqqye/realty_backend/internal/repliers"
)

// MLS is the part of the Repliers client the controllers use.
type MLS interface {
	Forward(ctx context.Context, endpoint, id string, params url.Values) (int, []byte)
	SearchListings(ctx context.Context, params url.Values) (*repliers.ListingsPage, error)
	GetListing(ctx context.Context, mlsNumber string) (json.RawMessage, error)
}

type MLSController struct {
	Client  MLS
	Options property.Options
	Log     *zap.Logger
}

type proxyRequest struct {
	Endpoint string         `json:"endpoint" binding:"required"`
	ID       string         `json:"id"`
	Params   map[string]any `json:"params"`
}

func (m *MLSController) Search(c *gin.Context) {
	m.forward(c, repliers.EndpointListings, "", c.Request.URL.Query())
}

func (m *MLSController) Get(c *gin.Context) {
	m.forward(c, repliers.EndpointListing, c.Param("mlsNumber"), c.Request.URL.Query())
}

func (m *MLSController) Similar(c *gin.Context) {
	m.forward(c, repliers.EndpointSimilar, c.Param("mlsNumber"), c.Request.URL.Query())
}

func (m *MLSController) Estimates(c *gin.Context) {
	m.forward(c, repliers.EndpointEstimates, "", c.Request.URL.Query())
}

func (m *MLSController) Places(c *gin.Context) {
	m.forward(c, repliers.EndpointPlaces, "", c.Request.URL.Query())
}

func (m *MLSController) Buildings(c *gin.Context) {
	m.forward(c, repliers.EndpointBuildings, "", c.Request.URL.Query())
}

// Proxy accepts {endpoint, id, params} for callers that build the parameter bag client-side.
func (m *MLSController) Proxy(c *gin.Context) {
	var req proxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	params := repliers.ParamsFromMap(req.Params)
	m.forward(c, strings.ToLower(strings.TrimSpace(req.Endpoint)), req.ID, params)
}

func (m *MLSController) forward(c *gin.Context, endpoint, id string, params url.Values) {
	normalize := params.Get("normalize") == "true" || params.Get("normalize") == "1"
	params.Del("normalize")

	status, body := m.Client.Forward(c.Request.Context(), endpoint, id, params)
	if status != http.StatusOK {
		m.Log.Warn("mls proxy error", zap.String("endpoint", endpoint), zap.Int("status", status))
	}
	if normalize && status == http.StatusOK {
		if out, err := m.normalizeBody(endpoint, body); err == nil {
			body = out
		} else {
			m.Log.Warn("mls normalize failed", zap.String("endpoint", endpoint), zap.Error(err))
		}
	}
	c.Data(status, "application/json; charset=utf-8", body)
}

// normalizeBody swaps raw listings for view models, keeping the rest of the envelope.
func (m *MLSController) normalizeBody(endpoint string, body []byte) ([]byte, error) {
	if endpoint == repliers.EndpointListing {
		p, err := property.NormalizeJSON(body, m.Options)
		if err != nil {
			return nil, err
		}
		return json.Marshal(p)
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	raw, ok := envelope["listings"]
	if !ok {
		return body, nil
	}
	var listings []json.RawMessage
	if err := json.Unmarshal(raw, &listings); err != nil {
		return nil, err
	}
	props, err := json.Marshal(property.NormalizeAll(listings, m.Options))
	if err != nil {
		return nil, err
	}
	envelope["listings"] = props
	return json.Marshal(envelope)
}
