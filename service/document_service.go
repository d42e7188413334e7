package service

import (
	"context"
	"fmt"
	"strings"

	"lexintake-backend/models"

	"github.com/google/uuid"
)

// RequirementStore persists document requirements
type RequirementStore interface {
	CreateBatch(ctx context.Context, matterID uuid.UUID, templates []models.RequirementTemplate) error
	UpdateStatus(ctx context.Context, matterID uuid.UUID, documentType string, status models.DocumentStatus) error
	ListByMatterID(ctx context.Context, matterID uuid.UUID) ([]*models.DocumentRequirement, error)
}

// DocumentRequirementCatalog supplies per-matter-type document checklists
// and tracks per-matter document status.
type DocumentRequirementCatalog struct {
	store RequirementStore
}

// NewDocumentRequirementCatalog creates a new catalog
func NewDocumentRequirementCatalog(store RequirementStore) *DocumentRequirementCatalog {
	return &DocumentRequirementCatalog{store: store}
}

// requirementTemplates is the static checklist table, keyed by normalized
// matter type. The general entry doubles as the fallback for unknown types.
var requirementTemplates = map[string][]models.RequirementTemplate{
	"family_law": {
		{DocumentType: "government_id", Title: "Government-issued ID", Required: true, TurnaroundDays: 2},
		{DocumentType: "marriage_certificate", Title: "Marriage certificate", Required: true, TurnaroundDays: 10},
		{DocumentType: "financial_disclosure", Title: "Financial disclosure statement", Required: true, TurnaroundDays: 14},
		{DocumentType: "custody_agreement", Title: "Existing custody agreements", Required: false, TurnaroundDays: 5},
		{DocumentType: "prior_orders", Title: "Prior court orders", Required: false, TurnaroundDays: 10},
	},
	"employment": {
		{DocumentType: "government_id", Title: "Government-issued ID", Required: true, TurnaroundDays: 2},
		{DocumentType: "employment_contract", Title: "Employment contract", Required: true, TurnaroundDays: 3},
		{DocumentType: "pay_records", Title: "Pay stubs and records", Required: true, TurnaroundDays: 7},
		{DocumentType: "correspondence", Title: "Relevant workplace correspondence", Required: true, TurnaroundDays: 5},
		{DocumentType: "personnel_file", Title: "Personnel file", Required: false, TurnaroundDays: 21},
	},
	"personal_injury": {
		{DocumentType: "government_id", Title: "Government-issued ID", Required: true, TurnaroundDays: 2},
		{DocumentType: "medical_records", Title: "Medical records", Required: true, TurnaroundDays: 21},
		{DocumentType: "incident_report", Title: "Incident or police report", Required: true, TurnaroundDays: 10},
		{DocumentType: "insurance_policy", Title: "Insurance policy documents", Required: true, TurnaroundDays: 7},
		{DocumentType: "photographs", Title: "Photographs of the scene or injuries", Required: false, TurnaroundDays: 2},
	},
	"business": {
		{DocumentType: "government_id", Title: "Government-issued ID", Required: true, TurnaroundDays: 2},
		{DocumentType: "formation_documents", Title: "Entity formation documents", Required: true, TurnaroundDays: 5},
		{DocumentType: "contracts", Title: "Contracts at issue", Required: true, TurnaroundDays: 5},
		{DocumentType: "financial_statements", Title: "Financial statements", Required: false, TurnaroundDays: 14},
	},
	"general": {
		{DocumentType: "government_id", Title: "Government-issued ID", Required: true, TurnaroundDays: 2},
		{DocumentType: "engagement_questionnaire", Title: "Intake questionnaire", Required: true, TurnaroundDays: 3},
		{DocumentType: "supporting_documents", Title: "Supporting documents", Required: false, TurnaroundDays: 7},
	},
}

// catalogNotes holds per-type guidance surfaced alongside the checklist
var catalogNotes = map[string]string{
	"family_law":      "Financial disclosures must cover the last three years.",
	"personal_injury": "Medical records frequently take several weeks; request them first.",
	"general":         "Checklist for this matter type is the general-purpose set; review for gaps.",
}

// normalizeMatterType maps free-form matter type input onto a catalog key
func normalizeMatterType(matterType string) string {
	key := strings.ToLower(strings.TrimSpace(matterType))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")

	if _, ok := requirementTemplates[key]; ok {
		return key
	}

	switch {
	case strings.Contains(key, "family"), strings.Contains(key, "divorce"), strings.Contains(key, "custody"):
		return "family_law"
	case strings.Contains(key, "employ"), strings.Contains(key, "labor"):
		return "employment"
	case strings.Contains(key, "injury"), strings.Contains(key, "accident"), strings.Contains(key, "tort"):
		return "personal_injury"
	case strings.Contains(key, "business"), strings.Contains(key, "contract"), strings.Contains(key, "corporate"):
		return "business"
	}

	return "general"
}

// TemplatesFor returns the checklist templates for a matter type. Unknown
// types fall back to the general set; the result is never empty.
func (c *DocumentRequirementCatalog) TemplatesFor(matterType string) []models.RequirementTemplate {
	return requirementTemplates[normalizeMatterType(matterType)]
}

// GetRequirements returns the catalog entry for a matter type, including the
// required count and an estimated completion time derived from the slowest
// required item's turnaround bucket.
func (c *DocumentRequirementCatalog) GetRequirements(matterType string) *models.RequirementSet {
	key := normalizeMatterType(matterType)
	templates := requirementTemplates[key]

	totalRequired := 0
	slowest := 0
	for _, tmpl := range templates {
		if tmpl.Required {
			totalRequired++
			if tmpl.TurnaroundDays > slowest {
				slowest = tmpl.TurnaroundDays
			}
		}
	}

	return &models.RequirementSet{
		MatterType:              key,
		Requirements:            templates,
		TotalRequired:           totalRequired,
		EstimatedCompletionTime: turnaroundBucket(slowest),
		Notes:                   catalogNotes[key],
	}
}

// turnaroundBucket converts a turnaround in days into a coarse estimate
func turnaroundBucket(days int) string {
	if days <= 0 {
		return "immediate"
	}
	if days <= 7 {
		return fmt.Sprintf("%d days", days)
	}
	weeks := (days + 6) / 7
	if weeks == 1 {
		return "1 week"
	}
	return fmt.Sprintf("%d weeks", weeks)
}

// CreateMatterRequirements seeds the full requirement set for a matter in
// one atomic batch. A failure here must surface to the caller: proceeding
// without requirement rows would leave the checklist silently empty.
func (c *DocumentRequirementCatalog) CreateMatterRequirements(ctx context.Context, matterID uuid.UUID, matterType string) error {
	templates := c.TemplatesFor(matterType)
	if err := c.store.CreateBatch(ctx, matterID, templates); err != nil {
		return fmt.Errorf("failed to create requirements for matter %s: %w", matterID, err)
	}
	return nil
}

// UpdateRequirementStatus updates one requirement's status
func (c *DocumentRequirementCatalog) UpdateRequirementStatus(ctx context.Context, matterID uuid.UUID, documentType string, status models.DocumentStatus) error {
	return c.store.UpdateStatus(ctx, matterID, documentType, status)
}

// MatterRequirementStatus summarizes a matter's document progress
type MatterRequirementStatus struct {
	Requirements []*models.DocumentRequirement `json:"requirements"`
	AllReceived  bool                          `json:"all_received"`
	Outstanding  []string                      `json:"outstanding"`
}

// GetMatterRequirementStatus reads a matter's requirement rows and reports
// which required documents are still outstanding.
func (c *DocumentRequirementCatalog) GetMatterRequirementStatus(ctx context.Context, matterID uuid.UUID) (*MatterRequirementStatus, error) {
	requirements, err := c.store.ListByMatterID(ctx, matterID)
	if err != nil {
		return nil, err
	}

	status := &MatterRequirementStatus{
		Requirements: requirements,
		AllReceived:  true,
	}

	for _, req := range requirements {
		if !req.Required {
			continue
		}
		switch req.Status {
		case models.DocumentReceived, models.DocumentReviewed, models.DocumentApproved:
		default:
			status.AllReceived = false
			status.Outstanding = append(status.Outstanding, req.DocumentType)
		}
	}

	return status, nil
}
