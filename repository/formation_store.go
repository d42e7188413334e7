package repository

import (
	"context"
	"errors"
	"fmt"

	"lexintake-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FormationStore groups the matter and requirement repositories behind the
// persistence surface the formation actor needs, so a stage commit and its
// companion requirement batch can share one transaction.
type FormationStore struct {
	db           *pgxpool.Pool
	matters      *MatterRepository
	requirements *DocumentRequirementRepository
}

// NewFormationStore creates a new formation store
func NewFormationStore(db *pgxpool.Pool, matters *MatterRepository, requirements *DocumentRequirementRepository) *FormationStore {
	return &FormationStore{db: db, matters: matters, requirements: requirements}
}

// GetByTeamAndID retrieves a matter scoped by team. Returns nil without
// error when no matter exists.
func (s *FormationStore) GetByTeamAndID(ctx context.Context, teamID, id uuid.UUID) (*models.Matter, error) {
	matter, err := s.matters.GetByTeamAndID(ctx, teamID, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return matter, nil
}

// SaveFormationState persists the formation state of a matter
func (s *FormationStore) SaveFormationState(ctx context.Context, matterID uuid.UUID, state models.FormationState) error {
	return s.matters.UpdateFormationState(ctx, matterID, state)
}

// SaveFormationStateWithRequirements commits the new state and the matter's
// document-requirement batch atomically. If any insert fails the stage does
// not advance.
func (s *FormationStore) SaveFormationStateWithRequirements(ctx context.Context, matterID uuid.UUID, state models.FormationState, templates []models.RequirementTemplate) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.matters.UpdateFormationStateTx(ctx, tx, matterID, state); err != nil {
		return fmt.Errorf("failed to update formation state: %w", err)
	}

	if err := s.requirements.CreateBatchTx(ctx, tx, matterID, templates); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}

	return nil
}
