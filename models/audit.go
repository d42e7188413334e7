package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditValues holds the before/after snapshot attached to an audit entry
type AuditValues map[string]interface{}

// Value implements driver.Valuer for JSONB
func (v AuditValues) Value() (driver.Value, error) {
	if v == nil {
		return json.Marshal(AuditValues{})
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner for JSONB
func (v *AuditValues) Scan(value interface{}) error {
	if value == nil {
		*v = make(AuditValues)
		return nil
	}

	var bytes []byte
	switch raw := value.(type) {
	case []byte:
		bytes = raw
	case string:
		bytes = []byte(raw)
	default:
		*v = make(AuditValues)
		return nil
	}

	if len(bytes) == 0 {
		*v = make(AuditValues)
		return nil
	}

	return json.Unmarshal(bytes, v)
}

// AuditLogEntry is one append-only audit trail row. Entries are immutable
// once created.
type AuditLogEntry struct {
	ID         uuid.UUID   `json:"id"`
	MatterID   uuid.UUID   `json:"matter_id"`
	TeamID     uuid.UUID   `json:"team_id"`
	Actor      string      `json:"actor"`
	Action     string      `json:"action"`
	EntityType string      `json:"entity_type"`
	EntityID   string      `json:"entity_id"`
	OldValues  AuditValues `json:"old_values"`
	NewValues  AuditValues `json:"new_values"`
	Metadata   AuditValues `json:"metadata"`
	CreatedAt  time.Time   `json:"created_at"`
}
