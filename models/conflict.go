package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ConflictType classifies how a conflict hit was found
type ConflictType string

const (
	ConflictDirect    ConflictType = "direct"
	ConflictPotential ConflictType = "potential"
	ConflictRelated   ConflictType = "related"
)

// ConflictHit is one potential conflict-of-interest match against an
// existing matter or client.
type ConflictHit struct {
	MatterID      uuid.UUID    `json:"matter_id"`
	OpposingParty string       `json:"opposing_party"`
	ConflictType  ConflictType `json:"conflict_type"`
	Similarity    float64      `json:"similarity"`
	Details       string       `json:"details"`
}

// ConflictHits is a list of hits, stored as JSONB on the check record
type ConflictHits []ConflictHit

// Value implements driver.Valuer for JSONB
func (h ConflictHits) Value() (driver.Value, error) {
	return json.Marshal(h)
}

// Scan implements sql.Scanner for JSONB
func (h *ConflictHits) Scan(value interface{}) error {
	if value == nil {
		*h = make(ConflictHits, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*h = make(ConflictHits, 0)
		return nil
	}

	if len(bytes) == 0 {
		*h = make(ConflictHits, 0)
		return nil
	}

	return json.Unmarshal(bytes, h)
}

// ConflictCheckResult represents one conflict scan over a set of proposed
// parties. Cleared is true only when no hits were found.
type ConflictCheckResult struct {
	ID             uuid.UUID    `json:"id"`
	MatterID       uuid.UUID    `json:"matter_id"`
	TeamID         uuid.UUID    `json:"team_id"`
	PartiesChecked []string     `json:"parties_checked"`
	Hits           ConflictHits `json:"hits"`
	Cleared        bool         `json:"cleared"`
	Notes          string       `json:"notes,omitempty"`
	CheckedBy      string       `json:"checked_by"`
	CreatedAt      time.Time    `json:"created_at"`
}
