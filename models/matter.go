package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MatterStatus represents the lifecycle status of a matter
type MatterStatus string

const (
	MatterStatusActive   MatterStatus = "active"
	MatterStatusArchived MatterStatus = "archived"
	MatterStatusClosed   MatterStatus = "closed"
)

// FormationStage is one node in the fixed formation-progress graph
type FormationStage string

const (
	StageCollectParties  FormationStage = "collect_parties"
	StageConflictsCheck  FormationStage = "conflicts_check"
	StageDocumentsNeeded FormationStage = "documents_needed"
	StageFeeScope        FormationStage = "fee_scope"
	StageFilingPrep      FormationStage = "filing_prep"
	StageCompleted       FormationStage = "completed"
)

// ChecklistItemStatus represents the status of a checklist item
type ChecklistItemStatus string

const (
	ChecklistPending ChecklistItemStatus = "pending"
	ChecklistDone    ChecklistItemStatus = "done"
)

// ChecklistItem is one entry of the per-stage checklist. Items are derived
// from the current stage and metadata on every read; they are never stored.
type ChecklistItem struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Status   ChecklistItemStatus `json:"status"`
	Required bool                `json:"required"`
}

// Metadata holds arbitrary key/value data accumulated across transitions
type Metadata map[string]interface{}

// AdvanceOutcome is the recorded result of one advance call, keyed by its
// idempotency key in the formation-state ledger. The checklist is snapshotted
// so a replay returns what the original call saw, even after later
// transitions have moved the metadata on.
type AdvanceOutcome struct {
	Stage      FormationStage  `json:"stage"`
	Advanced   bool            `json:"advanced"`
	Checklist  []ChecklistItem `json:"checklist,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// FormationState is the per-matter workflow state. It is owned exclusively
// by the matter's formation actor and persisted as a JSONB column.
type FormationState struct {
	Stage    FormationStage            `json:"stage"`
	Metadata Metadata                  `json:"metadata"`
	Ledger   map[string]AdvanceOutcome `json:"ledger"`
}

// NewFormationState returns the initial state for a fresh matter
func NewFormationState() FormationState {
	return FormationState{
		Stage:    StageCollectParties,
		Metadata: make(Metadata),
		Ledger:   make(map[string]AdvanceOutcome),
	}
}

// Value implements driver.Valuer for JSONB
func (f FormationState) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner for JSONB
func (f *FormationState) Scan(value interface{}) error {
	if value == nil {
		*f = NewFormationState()
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*f = NewFormationState()
		return nil
	}

	if len(bytes) == 0 {
		*f = NewFormationState()
		return nil
	}

	if err := json.Unmarshal(bytes, f); err != nil {
		return err
	}
	if f.Metadata == nil {
		f.Metadata = make(Metadata)
	}
	if f.Ledger == nil {
		f.Ledger = make(map[string]AdvanceOutcome)
	}
	return nil
}

// Matter represents a legal intake record tracked through formation
type Matter struct {
	ID             uuid.UUID      `json:"id"`
	TeamID         uuid.UUID      `json:"team_id"`
	ClientName     string         `json:"client_name"`
	OpposingParty  string         `json:"opposing_party"`
	MatterType     string         `json:"matter_type"`
	Status         MatterStatus   `json:"status"`
	FormationState FormationState `json:"formation_state"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
