package repository

import (
	"context"
	"fmt"

	"lexintake-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MatterRepository handles database operations for matters
type MatterRepository struct {
	db *pgxpool.Pool
}

// NewMatterRepository creates a new matter repository
func NewMatterRepository(db *pgxpool.Pool) *MatterRepository {
	return &MatterRepository{db: db}
}

const matterColumns = `id, team_id, client_name, opposing_party, matter_type, status,
			formation_state, created_at, updated_at`

func scanMatter(row pgx.Row) (*models.Matter, error) {
	matter := &models.Matter{}
	err := row.Scan(
		&matter.ID,
		&matter.TeamID,
		&matter.ClientName,
		&matter.OpposingParty,
		&matter.MatterType,
		&matter.Status,
		&matter.FormationState,
		&matter.CreatedAt,
		&matter.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return matter, nil
}

// Create creates a new matter
func (r *MatterRepository) Create(ctx context.Context, matter *models.Matter) error {
	query := `
		INSERT INTO matters (
			team_id, client_name, opposing_party, matter_type, status, formation_state
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		matter.TeamID,
		matter.ClientName,
		matter.OpposingParty,
		matter.MatterType,
		matter.Status,
		matter.FormationState,
	).Scan(&matter.ID, &matter.CreatedAt, &matter.UpdatedAt)

	return err
}

// GetByID retrieves a matter by ID
func (r *MatterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Matter, error) {
	query := `SELECT ` + matterColumns + ` FROM matters WHERE id = $1`
	return scanMatter(r.db.QueryRow(ctx, query, id))
}

// GetByTeamAndID retrieves a matter by team and matter ID
func (r *MatterRepository) GetByTeamAndID(ctx context.Context, teamID, id uuid.UUID) (*models.Matter, error) {
	query := `SELECT ` + matterColumns + ` FROM matters WHERE team_id = $1 AND id = $2`
	return scanMatter(r.db.QueryRow(ctx, query, teamID, id))
}

// ListByTeamID retrieves all matters for a team, newest first
func (r *MatterRepository) ListByTeamID(ctx context.Context, teamID uuid.UUID, status *models.MatterStatus, limit, offset int) ([]*models.Matter, error) {
	query := `SELECT ` + matterColumns + ` FROM matters WHERE team_id = $1`

	args := []interface{}{teamID}
	argIndex := 2

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matters []*models.Matter
	for rows.Next() {
		matter, err := scanMatter(rows)
		if err != nil {
			return nil, err
		}
		matters = append(matters, matter)
	}

	return matters, rows.Err()
}

// ListActiveByTeam retrieves all non-archived, non-closed matters for a
// team. Used by conflict scanning.
func (r *MatterRepository) ListActiveByTeam(ctx context.Context, teamID uuid.UUID) ([]*models.Matter, error) {
	query := `SELECT ` + matterColumns + ` FROM matters WHERE team_id = $1 AND status = $2`

	rows, err := r.db.Query(ctx, query, teamID, models.MatterStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matters []*models.Matter
	for rows.Next() {
		matter, err := scanMatter(rows)
		if err != nil {
			return nil, err
		}
		matters = append(matters, matter)
	}

	return matters, rows.Err()
}

// UpdateFormationState persists the formation state of a matter
func (r *MatterRepository) UpdateFormationState(ctx context.Context, id uuid.UUID, state models.FormationState) error {
	query := `
		UPDATE matters SET
			formation_state = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, state)
	return err
}

// UpdateFormationStateTx persists the formation state inside an existing
// transaction, so a stage commit and its companion writes are all-or-nothing.
func (r *MatterRepository) UpdateFormationStateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, state models.FormationState) error {
	query := `
		UPDATE matters SET
			formation_state = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := tx.Exec(ctx, query, id, state)
	return err
}

// UpdateStatus updates the lifecycle status of a matter
func (r *MatterRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.MatterStatus) error {
	query := `
		UPDATE matters SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return err
}
