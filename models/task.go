package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskType identifies the kind of asynchronous side-effect work a queued
// task carries.
type TaskType string

const (
	TaskAuditLog         TaskType = "audit_log"
	TaskRiskAssessment   TaskType = "risk_assessment"
	TaskDocumentRequest  TaskType = "document_request"
	TaskConflictCheck    TaskType = "conflict_check"
	TaskEngagementLetter TaskType = "engagement_letter"
)

// TaskPayload is the tagged payload of a queued task. Each task type has
// exactly one payload shape; the queue validates the pairing on enqueue so
// handlers always receive already-shaped data.
type TaskPayload interface {
	TaskType() TaskType
}

// AuditLogPayload carries an audit entry to be appended
type AuditLogPayload struct {
	Entry AuditLogEntry
}

func (AuditLogPayload) TaskType() TaskType { return TaskAuditLog }

// RiskAssessmentPayload carries a completed assessment to be recorded
type RiskAssessmentPayload struct {
	Assessment RiskAssessment
}

func (RiskAssessmentPayload) TaskType() TaskType { return TaskRiskAssessment }

// DocumentRequestPayload carries a document-requirement status change
type DocumentRequestPayload struct {
	MatterID     uuid.UUID
	DocumentType string
	Status       DocumentStatus
}

func (DocumentRequestPayload) TaskType() TaskType { return TaskDocumentRequest }

// ConflictCheckPayload carries a conflict-check result to be recorded
type ConflictCheckPayload struct {
	Result ConflictCheckResult
}

func (ConflictCheckPayload) TaskType() TaskType { return TaskConflictCheck }

// EngagementLetterPayload carries an engagement-letter status change
type EngagementLetterPayload struct {
	LetterID uuid.UUID
	Status   LetterStatus
}

func (EngagementLetterPayload) TaskType() TaskType { return TaskEngagementLetter }

// QueuedTask is one unit of asynchronous side-effect work. Tasks are
// transient; they exist only until consumed or dead-lettered.
type QueuedTask struct {
	ID        uuid.UUID   `json:"id"`
	Type      TaskType    `json:"type"`
	MatterID  uuid.UUID   `json:"matter_id"`
	TeamID    uuid.UUID   `json:"team_id"`
	Payload   TaskPayload `json:"-"`
	Timestamp time.Time   `json:"timestamp"`
	Attempts  int         `json:"attempts"`
}
