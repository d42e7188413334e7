package models

import (
	"time"

	"github.com/google/uuid"
)

// LetterStatus represents the lifecycle status of an engagement letter.
// The lifecycle is forward-only: draft -> sent -> reviewed -> signed -> executed.
type LetterStatus string

const (
	LetterDraft    LetterStatus = "draft"
	LetterSent     LetterStatus = "sent"
	LetterReviewed LetterStatus = "reviewed"
	LetterSigned   LetterStatus = "signed"
	LetterExecuted LetterStatus = "executed"
)

// letterOrder maps each status to its position in the forward lifecycle
var letterOrder = map[LetterStatus]int{
	LetterDraft:    0,
	LetterSent:     1,
	LetterReviewed: 2,
	LetterSigned:   3,
	LetterExecuted: 4,
}

// CanTransitionTo reports whether moving to next is a forward step
func (s LetterStatus) CanTransitionTo(next LetterStatus) bool {
	from, ok := letterOrder[s]
	if !ok {
		return false
	}
	to, ok := letterOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// EngagementLetter represents a generated engagement-letter document.
// Version increments each time the letter is regenerated for a matter.
type EngagementLetter struct {
	ID                  uuid.UUID    `json:"id"`
	MatterID            uuid.UUID    `json:"matter_id"`
	TemplateID          string       `json:"template_id"`
	Content             string       `json:"content"`
	RenderedDocumentKey string       `json:"rendered_document_key"`
	Status              LetterStatus `json:"status"`
	Version             int          `json:"version"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}
