package service

import (
	"context"
	"errors"

	"lexintake-backend/models"

	"github.com/google/uuid"
)

// MatterStore persists matter records for the intake CRUD surface
type MatterStore interface {
	Create(ctx context.Context, matter *models.Matter) error
	GetByTeamAndID(ctx context.Context, teamID, id uuid.UUID) (*models.Matter, error)
	ListByTeamID(ctx context.Context, teamID uuid.UUID, status *models.MatterStatus, limit, offset int) ([]*models.Matter, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.MatterStatus) error
}

// MatterService handles business logic for matter records themselves;
// formation progress is the FormationService's job.
type MatterService struct {
	matters MatterStore
}

// MatterServiceOption is a functional option for MatterService
type MatterServiceOption func(*MatterService)

// MatterWithStore sets the matter store
func MatterWithStore(store MatterStore) MatterServiceOption {
	return func(s *MatterService) {
		s.matters = store
	}
}

// NewMatterService creates a new matter service
func NewMatterService(opts ...MatterServiceOption) *MatterService {
	s := &MatterService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateMatterRequest represents a request to create a matter
type CreateMatterRequest struct {
	TeamID        uuid.UUID
	ClientName    string
	OpposingParty string
	MatterType    string
}

// CreateMatterResult represents the result of creating a matter
type CreateMatterResult struct {
	Matter *models.Matter
}

// CreateMatter creates a new active matter with a fresh formation state
func (s *MatterService) CreateMatter(ctx context.Context, req CreateMatterRequest) (*CreateMatterResult, error) {
	if s.matters == nil {
		return nil, errors.New("matter store not set")
	}

	matter := &models.Matter{
		TeamID:         req.TeamID,
		ClientName:     req.ClientName,
		OpposingParty:  req.OpposingParty,
		MatterType:     req.MatterType,
		Status:         models.MatterStatusActive,
		FormationState: models.NewFormationState(),
	}

	if err := s.matters.Create(ctx, matter); err != nil {
		return nil, err
	}

	return &CreateMatterResult{Matter: matter}, nil
}

// GetMatter retrieves a matter scoped by team
func (s *MatterService) GetMatter(ctx context.Context, teamID, matterID uuid.UUID) (*models.Matter, error) {
	if s.matters == nil {
		return nil, errors.New("matter store not set")
	}
	return s.matters.GetByTeamAndID(ctx, teamID, matterID)
}

// ListMatters retrieves a team's matters with optional status filtering
func (s *MatterService) ListMatters(ctx context.Context, teamID uuid.UUID, status *models.MatterStatus, limit, offset int) ([]*models.Matter, error) {
	if s.matters == nil {
		return nil, errors.New("matter store not set")
	}
	return s.matters.ListByTeamID(ctx, teamID, status, limit, offset)
}

// ArchiveMatter marks a matter archived, ending its formation relevance
func (s *MatterService) ArchiveMatter(ctx context.Context, matterID uuid.UUID) error {
	if s.matters == nil {
		return errors.New("matter store not set")
	}
	return s.matters.UpdateStatus(ctx, matterID, models.MatterStatusArchived)
}
