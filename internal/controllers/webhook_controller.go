package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/crm"
	"github.com/zaqqye/realty_backend/internal/matcher"
	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/property"
	"github.com/zaqqye/realty_backend/internal/utils"
)

const maxWebhookBody = 2 << 20

var listingEvents = map[string]struct{}{
	"listing.added":         {},
	"listing.updated":       {},
	"listing.price_changed": {},
}

type WebhookController struct {
	DB            *gorm.DB
	Engine        *matcher.Engine
	Options       property.Options
	ListingSecret string
	CRMSecret     string
	CRMWindow     time.Duration
	Log           *zap.Logger
	Now           func() time.Time
}

type listingWebhook struct {
	Event   string          `json:"event"`
	Listing json.RawMessage `json:"listing"`
	Data    json.RawMessage `json:"data"`
}

func (w *WebhookController) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// Listings runs the saved-search matcher for one changed listing.
func (w *WebhookController) Listings(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	if w.ListingSecret != "" && !utils.VerifyHMACSHA256(w.ListingSecret, body, c.GetHeader("X-Webhook-Signature")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	var hook listingWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if _, ok := listingEvents[hook.Event]; !ok {
		c.JSON(http.StatusOK, gin.H{"message": "ignored", "event": hook.Event})
		return
	}
	raw := hook.Listing
	if len(raw) == 0 {
		raw = hook.Data
	}
	if len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "listing is required"})
		return
	}
	p, err := property.NormalizeJSON(raw, w.Options)
	if err != nil || p.MLSNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing"})
		return
	}
	res, err := w.Engine.Process(c.Request.Context(), p)
	if err != nil {
		w.Log.Error("saved search matching failed", zap.String("mls_number", p.MLSNumber), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process listing"})
		return
	}
	w.Log.Info("listing webhook processed",
		zap.String("event", hook.Event), zap.String("mls_number", p.MLSNumber),
		zap.Int("matched", res.Matched), zap.Int("notified", res.Notified), zap.Int("failed", res.Failed))
	c.JSON(http.StatusOK, gin.H{"message": "processed", "mls_number": p.MLSNumber, "result": res})
}

type crmWebhook struct {
	Event  string `json:"event"`
	Person struct {
		ID    json.Number `json:"id"`
		Email string      `json:"email"`
		Stage string      `json:"stage"`
	} `json:"person"`
}

// crmStages maps Follow Up Boss stage names onto lead stages.
var crmStages = map[string]string{
	"lead":              models.LeadNew,
	"new":               models.LeadNew,
	"attempted contact": models.LeadContacted,
	"contacted":         models.LeadContacted,
	"prospect":          models.LeadQualified,
	"active client":     models.LeadQualified,
	"qualified":         models.LeadQualified,
	"nurture":           models.LeadNurture,
	"pending":           models.LeadQualified,
	"closed":            models.LeadClosed,
	"past client":       models.LeadClosed,
	"trash":             models.LeadLost,
	"lost":              models.LeadLost,
}

// CRM applies a signed Follow Up Boss stage change to the matching lead status.
func (w *WebhookController) CRM(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}
	err = crm.VerifySignature(w.CRMSecret, c.GetHeader("X-CRM-Timestamp"), body, c.GetHeader("X-CRM-Signature"), w.CRMWindow, w.now())
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, crm.ErrMissingSignature) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	var hook crmWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(hook.Person.Email))
	stage, ok := crmStages[strings.ToLower(strings.TrimSpace(hook.Person.Stage))]
	if email == "" || !ok {
		c.JSON(http.StatusOK, gin.H{"message": "ignored", "event": hook.Event})
		return
	}

	var st models.LeadStatus
	err = w.DB.Where(models.LeadStatus{Email: email}).
		Attrs(models.LeadStatus{Stage: models.LeadNew, Source: "crm"}).
		FirstOrCreate(&st).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	updates := map[string]interface{}{"stage": stage}
	if id := hook.Person.ID.String(); id != "" {
		if _, err := strconv.ParseInt(id, 10, 64); err == nil {
			updates["crm_person_id"] = id
		}
	}
	if err := w.DB.Model(&st).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	w.Log.Info("crm stage updated", zap.String("email", email), zap.String("stage", stage))
	c.JSON(http.StatusOK, gin.H{"message": "updated", "email": email, "stage": stage})
}
