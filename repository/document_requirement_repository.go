package repository

import (
	"context"
	"fmt"

	"lexintake-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRequirementRepository handles database operations for document
// requirements
type DocumentRequirementRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRequirementRepository creates a new document requirement repository
func NewDocumentRequirementRepository(db *pgxpool.Pool) *DocumentRequirementRepository {
	return &DocumentRequirementRepository{db: db}
}

// CreateBatch inserts the full requirement set for a matter in one
// transaction. Either every row is created or none are; a partially-seeded
// checklist must never exist.
func (r *DocumentRequirementRepository) CreateBatch(ctx context.Context, matterID uuid.UUID, templates []models.RequirementTemplate) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.CreateBatchTx(ctx, tx, matterID, templates); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit requirement batch: %w", err)
	}

	return nil
}

// CreateBatchTx inserts the requirement set inside an existing transaction
func (r *DocumentRequirementRepository) CreateBatchTx(ctx context.Context, tx pgx.Tx, matterID uuid.UUID, templates []models.RequirementTemplate) error {
	query := `
		INSERT INTO document_requirements (matter_id, document_type, required, status)
		VALUES ($1, $2, $3, $4)`

	for _, tmpl := range templates {
		_, err := tx.Exec(ctx, query, matterID, tmpl.DocumentType, tmpl.Required, models.DocumentPending)
		if err != nil {
			return fmt.Errorf("failed to insert requirement %s: %w", tmpl.DocumentType, err)
		}
	}

	return nil
}

// UpdateStatus updates the status of one requirement identified by
// (matter_id, document_type)
func (r *DocumentRequirementRepository) UpdateStatus(ctx context.Context, matterID uuid.UUID, documentType string, status models.DocumentStatus) error {
	query := `
		UPDATE document_requirements SET
			status = $3,
			updated_at = NOW()
		WHERE matter_id = $1 AND document_type = $2`

	tag, err := r.db.Exec(ctx, query, matterID, documentType, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no requirement %s for matter %s", documentType, matterID)
	}

	return nil
}

// ListByMatterID retrieves all requirements for a matter
func (r *DocumentRequirementRepository) ListByMatterID(ctx context.Context, matterID uuid.UUID) ([]*models.DocumentRequirement, error) {
	query := `
		SELECT id, matter_id, document_type, required, status, created_at, updated_at
		FROM document_requirements
		WHERE matter_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, matterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requirements []*models.DocumentRequirement
	for rows.Next() {
		req := &models.DocumentRequirement{}
		err := rows.Scan(
			&req.ID,
			&req.MatterID,
			&req.DocumentType,
			&req.Required,
			&req.Status,
			&req.CreatedAt,
			&req.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		requirements = append(requirements, req)
	}

	return requirements, rows.Err()
}
