package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/crm"
	"github.com/zaqqye/realty_backend/internal/middleware"
	"github.com/zaqqye/realty_backend/internal/models"
)

type LeadController struct {
	DB     *gorm.DB
	Notify Notifier
	CRM    CRM
	Log    *zap.Logger
}

type leadRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	Kind      string `json:"kind"`
	MLSNumber string `json:"mls_number"`
	PageURL   string `json:"page_url"`
	Source    string `json:"source"`
}

// crmEventTypes maps the form kind to the Follow Up Boss event type.
var crmEventTypes = map[string]string{
	"contact":      crm.EventGeneralInquiry,
	"general":      crm.EventGeneralInquiry,
	"property":     crm.EventPropertyInquiry,
	"showing":      crm.EventPropertyInquiry,
	"registration": crm.EventRegistration,
	"search":       crm.EventPropertySearch,
	"open_house":   crm.EventVisitedOpenHouse,
}

// Create stores an inbound lead. CRM and email failures are logged after the row is saved.
func (lc *LeadController) Create(c *gin.Context) {
	var req leadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	if kind == "" {
		kind = "contact"
		if req.MLSNumber != "" {
			kind = "property"
		}
	}
	source := strings.ToLower(strings.TrimSpace(req.Source))
	if source == "" {
		source = "organic"
	}
	lead := models.Lead{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:     strings.TrimSpace(req.Phone),
		Message:   req.Message,
		Kind:      kind,
		MLSNumber: strings.TrimSpace(req.MLSNumber),
		PageURL:   req.PageURL,
		Source:    source,
	}
	if user, ok := middleware.CurrentUser(c); ok {
		lead.UserID = &user.ID
	}

	err := lc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&lead).Error; err != nil {
			return err
		}
		st := models.LeadStatus{}
		return tx.Where(models.LeadStatus{Email: lead.Email}).
			Attrs(models.LeadStatus{Stage: models.LeadNew, Source: source, UserID: lead.UserID}).
			FirstOrCreate(&st).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	evType, ok := crmEventTypes[kind]
	if !ok {
		evType = crm.EventGeneralInquiry
	}
	ev := crm.Event{
		Type:    evType,
		Message: lead.Message,
		PageURL: lead.PageURL,
		Person:  crm.PersonFrom(lead.FirstName, lead.LastName, lead.Email, lead.Phone, "website", "source:"+source),
	}
	if lead.MLSNumber != "" {
		ev.Property = &crm.Property{MLSNumber: lead.MLSNumber}
	}
	if personID := sendCRMEvent(ctx, lc.CRM, lc.Log, ev); personID != "" {
		lead.CRMSynced = true
		if err := lc.DB.Model(&lead).Update("crm_synced", true).Error; err != nil {
			lc.Log.Warn("lead sync flag update failed", zap.String("lead_id", lead.ID), zap.Error(err))
		}
		if err := lc.DB.Model(&models.LeadStatus{}).Where("email = ?", lead.Email).Update("crm_person_id", personID).Error; err != nil {
			lc.Log.Warn("lead status crm id update failed", zap.String("lead_id", lead.ID), zap.Error(err))
		}
	}
	if lc.Notify != nil {
		if err := lc.Notify.NotifyLead(ctx, lead); err != nil {
			lc.Log.Warn("lead notification failed", zap.String("lead_id", lead.ID), zap.Error(err))
		}
	}
	c.JSON(http.StatusCreated, gin.H{"message": "received", "id": lead.ID})
}

func (lc *LeadController) AdminList(c *gin.Context) {
	allowedSorts := map[string]string{
		"created_at": "created_at",
		"email":      "email",
		"kind":       "kind",
		"source":     "source",
	}
	q := parseListQuery(c, allowedSorts, "created_at")
	base := lc.DB.Model(&models.Lead{})
	if v := strings.TrimSpace(c.Query("source")); v != "" {
		base = base.Where("source = ?", v)
	}
	if v := strings.TrimSpace(c.Query("kind")); v != "" {
		base = base.Where("kind = ?", v)
	}
	listRows[models.Lead](c, base, q, "email", "first_name", "last_name", "mls_number")
}

func (lc *LeadController) AdminListStatuses(c *gin.Context) {
	allowedSorts := map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"email":      "email",
		"stage":      "stage",
	}
	q := parseListQuery(c, allowedSorts, "updated_at")
	base := lc.DB.Model(&models.LeadStatus{})
	if v := strings.TrimSpace(c.Query("stage")); v != "" {
		base = base.Where("stage = ?", v)
	}
	listRows[models.LeadStatus](c, base, q, "email", "notes")
}

func (lc *LeadController) AdminUpdateStatus(c *gin.Context) {
	var req struct {
		Stage *string `json:"stage"`
		Notes *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var st models.LeadStatus
	if err := lc.DB.Where("id = ?", c.Param("id")).First(&st).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead status not found"})
		return
	}
	if req.Stage != nil {
		if !models.IsValidLeadStage(*req.Stage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stage"})
			return
		}
		st.Stage = *req.Stage
	}
	if req.Notes != nil {
		st.Notes = *req.Notes
	}
	if err := lc.DB.Save(&st).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}
