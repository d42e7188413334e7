package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus represents the status of a document requirement
type DocumentStatus string

const (
	DocumentPending   DocumentStatus = "pending"
	DocumentRequested DocumentStatus = "requested"
	DocumentReceived  DocumentStatus = "received"
	DocumentReviewed  DocumentStatus = "reviewed"
	DocumentApproved  DocumentStatus = "approved"
)

// DocumentRequirement represents one required or optional document for a
// matter. At most one row exists per (matter_id, document_type).
type DocumentRequirement struct {
	ID           uuid.UUID      `json:"id"`
	MatterID     uuid.UUID      `json:"matter_id"`
	DocumentType string         `json:"document_type"`
	Required     bool           `json:"required"`
	Status       DocumentStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// RequirementTemplate describes one document in a matter-type checklist
// template, before it is instantiated for a concrete matter.
type RequirementTemplate struct {
	DocumentType string `json:"document_type"`
	Title        string `json:"title"`
	Required     bool   `json:"required"`
	// TurnaroundDays is the typical time to obtain this document
	TurnaroundDays int `json:"turnaround_days"`
}

// RequirementSet is the catalog answer for one matter type
type RequirementSet struct {
	MatterType              string                `json:"matter_type"`
	Requirements            []RequirementTemplate `json:"requirements"`
	TotalRequired           int                   `json:"total_required"`
	EstimatedCompletionTime string                `json:"estimated_completion_time"`
	Notes                   string                `json:"notes,omitempty"`
}
