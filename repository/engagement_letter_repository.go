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

// EngagementLetterRepository handles database operations for engagement letters
type EngagementLetterRepository struct {
	db *pgxpool.Pool
}

// NewEngagementLetterRepository creates a new engagement letter repository
func NewEngagementLetterRepository(db *pgxpool.Pool) *EngagementLetterRepository {
	return &EngagementLetterRepository{db: db}
}

// Create stores a new letter row. The version is assigned as one past the
// highest existing version for the matter.
func (r *EngagementLetterRepository) Create(ctx context.Context, letter *models.EngagementLetter) error {
	query := `
		INSERT INTO engagement_letters (
			matter_id, template_id, content, rendered_document_key, status, version
		) VALUES (
			$1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(version), 0) + 1 FROM engagement_letters WHERE matter_id = $1)
		)
		RETURNING id, version, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		letter.MatterID,
		letter.TemplateID,
		letter.Content,
		letter.RenderedDocumentKey,
		letter.Status,
	).Scan(&letter.ID, &letter.Version, &letter.CreatedAt, &letter.UpdatedAt)

	return err
}

// GetByID retrieves a letter by ID
func (r *EngagementLetterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EngagementLetter, error) {
	letter := &models.EngagementLetter{}
	query := `
		SELECT id, matter_id, template_id, content, rendered_document_key, status, version,
			created_at, updated_at
		FROM engagement_letters
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&letter.ID,
		&letter.MatterID,
		&letter.TemplateID,
		&letter.Content,
		&letter.RenderedDocumentKey,
		&letter.Status,
		&letter.Version,
		&letter.CreatedAt,
		&letter.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return letter, nil
}

// GetLatestByMatterID retrieves the highest-version letter for a matter
func (r *EngagementLetterRepository) GetLatestByMatterID(ctx context.Context, matterID uuid.UUID) (*models.EngagementLetter, error) {
	letter := &models.EngagementLetter{}
	query := `
		SELECT id, matter_id, template_id, content, rendered_document_key, status, version,
			created_at, updated_at
		FROM engagement_letters
		WHERE matter_id = $1
		ORDER BY version DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query, matterID).Scan(
		&letter.ID,
		&letter.MatterID,
		&letter.TemplateID,
		&letter.Content,
		&letter.RenderedDocumentKey,
		&letter.Status,
		&letter.Version,
		&letter.CreatedAt,
		&letter.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return letter, nil
}

// UpdateStatus updates the lifecycle status of a letter
func (r *EngagementLetterRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LetterStatus) error {
	query := `
		UPDATE engagement_letters SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no engagement letter %s", id)
	}

	return nil
}
