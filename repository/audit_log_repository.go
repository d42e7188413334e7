package repository

import (
	"context"

	"lexintake-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLogRepository handles database operations for the append-only audit log
type AuditLogRepository struct {
	db *pgxpool.Pool
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *pgxpool.Pool) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Create appends one audit entry. There is no update or delete; rows are
// immutable once created.
func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLogEntry) error {
	query := `
		INSERT INTO audit_log (
			matter_id, team_id, actor, action, entity_type, entity_id,
			old_values, new_values, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		entry.MatterID,
		entry.TeamID,
		entry.Actor,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.OldValues,
		entry.NewValues,
		entry.Metadata,
	).Scan(&entry.ID, &entry.CreatedAt)

	return err
}

// ListByMatterID retrieves the audit trail for a matter in emission order
func (r *AuditLogRepository) ListByMatterID(ctx context.Context, matterID uuid.UUID, limit int) ([]*models.AuditLogEntry, error) {
	query := `
		SELECT id, matter_id, team_id, actor, action, entity_type, entity_id,
			old_values, new_values, metadata, created_at
		FROM audit_log
		WHERE matter_id = $1
		ORDER BY created_at ASC`

	args := []interface{}{matterID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		entry := &models.AuditLogEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.MatterID,
			&entry.TeamID,
			&entry.Actor,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.OldValues,
			&entry.NewValues,
			&entry.Metadata,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
