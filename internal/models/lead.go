package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead stages, in pipeline order.
const (
	LeadNew       = "new"
	LeadContacted = "contacted"
	LeadQualified = "qualified"
	LeadNurture   = "nurture"
	LeadClosed    = "closed"
	LeadLost      = "lost"
)

var leadStages = map[string]struct{}{
	LeadNew: {}, LeadContacted: {}, LeadQualified: {}, LeadNurture: {}, LeadClosed: {}, LeadLost: {},
}

func IsValidLeadStage(stage string) bool {
	_, ok := leadStages[stage]
	return ok
}

// Lead is one inbound contact-form or inquiry submission.
type Lead struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *string   `gorm:"index" json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `gorm:"index" json:"email"`
	Phone     string    `json:"phone"`
	Message   string    `gorm:"type:text" json:"message"`
	Kind      string    `json:"kind"`
	MLSNumber string    `json:"mls_number"`
	PageURL   string    `json:"page_url"`
	Source    string    `gorm:"index" json:"source"`
	CRMSynced bool      `json:"crm_synced"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Lead) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// LeadStatus tracks the pipeline stage per contact email; optional link to the auth user.
type LeadStatus struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	UserID      *string   `gorm:"index" json:"user_id"`
	Stage       string    `gorm:"default:new;index" json:"stage"`
	Source      string    `json:"source"`
	CRMPersonID string    `gorm:"index" json:"crm_person_id"`
	Notes       string    `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *LeadStatus) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
