package repository

import (
	"context"

	"lexintake-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConflictCheckRepository handles database operations for conflict checks
type ConflictCheckRepository struct {
	db *pgxpool.Pool
}

// NewConflictCheckRepository creates a new conflict check repository
func NewConflictCheckRepository(db *pgxpool.Pool) *ConflictCheckRepository {
	return &ConflictCheckRepository{db: db}
}

// Create records a conflict check result
func (r *ConflictCheckRepository) Create(ctx context.Context, result *models.ConflictCheckResult) error {
	query := `
		INSERT INTO conflict_checks (
			matter_id, team_id, parties_checked, hits, cleared, notes, checked_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		result.MatterID,
		result.TeamID,
		result.PartiesChecked,
		result.Hits,
		result.Cleared,
		result.Notes,
		result.CheckedBy,
	).Scan(&result.ID, &result.CreatedAt)

	return err
}

// ListByMatterID retrieves all recorded checks for a matter, newest first
func (r *ConflictCheckRepository) ListByMatterID(ctx context.Context, matterID uuid.UUID) ([]*models.ConflictCheckResult, error) {
	query := `
		SELECT id, matter_id, team_id, parties_checked, hits, cleared, notes, checked_by, created_at
		FROM conflict_checks
		WHERE matter_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, matterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.ConflictCheckResult
	for rows.Next() {
		result := &models.ConflictCheckResult{}
		err := rows.Scan(
			&result.ID,
			&result.MatterID,
			&result.TeamID,
			&result.PartiesChecked,
			&result.Hits,
			&result.Cleared,
			&result.Notes,
			&result.CheckedBy,
			&result.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, rows.Err()
}
