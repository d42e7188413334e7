package repository

import (
	"context"

	"lexintake-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RiskAssessmentRepository handles database operations for risk assessments
type RiskAssessmentRepository struct {
	db *pgxpool.Pool
}

// NewRiskAssessmentRepository creates a new risk assessment repository
func NewRiskAssessmentRepository(db *pgxpool.Pool) *RiskAssessmentRepository {
	return &RiskAssessmentRepository{db: db}
}

// Create records a risk assessment as an audit record
func (r *RiskAssessmentRepository) Create(ctx context.Context, assessment *models.RiskAssessment) error {
	query := `
		INSERT INTO risk_assessments (
			matter_id, overall_risk_level, risk_factors, recommendations,
			confidence_score, flags, estimated_complexity, assessment_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		assessment.MatterID,
		assessment.OverallRiskLevel,
		assessment.RiskFactors,
		assessment.Recommendations,
		assessment.ConfidenceScore,
		assessment.Flags,
		assessment.EstimatedComplexity,
		assessment.AssessmentType,
	).Scan(&assessment.ID, &assessment.CreatedAt)

	return err
}

// GetLatestByMatterID retrieves the most recent assessment for a matter
func (r *RiskAssessmentRepository) GetLatestByMatterID(ctx context.Context, matterID uuid.UUID) (*models.RiskAssessment, error) {
	assessment := &models.RiskAssessment{}
	query := `
		SELECT id, matter_id, overall_risk_level, risk_factors, recommendations,
			confidence_score, flags, estimated_complexity, assessment_type, created_at
		FROM risk_assessments
		WHERE matter_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query, matterID).Scan(
		&assessment.ID,
		&assessment.MatterID,
		&assessment.OverallRiskLevel,
		&assessment.RiskFactors,
		&assessment.Recommendations,
		&assessment.ConfidenceScore,
		&assessment.Flags,
		&assessment.EstimatedComplexity,
		&assessment.AssessmentType,
		&assessment.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return assessment, nil
}
