package service

import (
	"context"
	"errors"
	"testing"

	"lexintake-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRequirementStore keeps requirement rows in memory. A failing batch
// leaves nothing behind, mirroring the transactional repository.
type fakeRequirementStore struct {
	rows        map[uuid.UUID][]*models.DocumentRequirement
	failBatch   bool
	failList    bool
	statusCalls int
}

func newFakeRequirementStore() *fakeRequirementStore {
	return &fakeRequirementStore{rows: make(map[uuid.UUID][]*models.DocumentRequirement)}
}

func (f *fakeRequirementStore) CreateBatch(ctx context.Context, matterID uuid.UUID, templates []models.RequirementTemplate) error {
	if f.failBatch {
		return errors.New("insert failed")
	}
	for _, tmpl := range templates {
		f.rows[matterID] = append(f.rows[matterID], &models.DocumentRequirement{
			ID:           uuid.New(),
			MatterID:     matterID,
			DocumentType: tmpl.DocumentType,
			Required:     tmpl.Required,
			Status:       models.DocumentPending,
		})
	}
	return nil
}

func (f *fakeRequirementStore) UpdateStatus(ctx context.Context, matterID uuid.UUID, documentType string, status models.DocumentStatus) error {
	f.statusCalls++
	for _, row := range f.rows[matterID] {
		if row.DocumentType == documentType {
			row.Status = status
			return nil
		}
	}
	return errors.New("no requirement row matched")
}

func (f *fakeRequirementStore) ListByMatterID(ctx context.Context, matterID uuid.UUID) ([]*models.DocumentRequirement, error) {
	if f.failList {
		return nil, errors.New("list failed")
	}
	return f.rows[matterID], nil
}

func TestNormalizeMatterType(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"family_law", "family_law"},
		{"Family Law", "family_law"},
		{"divorce proceedings", "family_law"},
		{"wrongful termination employment", "employment"},
		{"car accident", "personal_injury"},
		{"contract dispute", "business"},
		{"", "general"},
		{"something unheard of", "general"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeMatterType(tt.input), "input %q", tt.input)
	}
}

func TestTemplatesFor_UnknownTypeFallsBack(t *testing.T) {
	catalog := NewDocumentRequirementCatalog(newFakeRequirementStore())

	templates := catalog.TemplatesFor("interplanetary law")
	require.NotEmpty(t, templates)
	assert.Equal(t, requirementTemplates["general"], templates)
}

func TestGetRequirements_TurnaroundBuckets(t *testing.T) {
	catalog := NewDocumentRequirementCatalog(newFakeRequirementStore())

	// Slowest required family-law item is 14 days
	set := catalog.GetRequirements("family_law")
	assert.Equal(t, "2 weeks", set.EstimatedCompletionTime)
	assert.Equal(t, 3, set.TotalRequired)

	// Slowest required general item is 3 days
	set = catalog.GetRequirements("general")
	assert.Equal(t, "3 days", set.EstimatedCompletionTime)
	assert.Equal(t, 2, set.TotalRequired)
}

func TestTurnaroundBucket(t *testing.T) {
	assert.Equal(t, "immediate", turnaroundBucket(0))
	assert.Equal(t, "5 days", turnaroundBucket(5))
	assert.Equal(t, "1 week", turnaroundBucket(7))
	assert.Equal(t, "2 weeks", turnaroundBucket(8))
	assert.Equal(t, "3 weeks", turnaroundBucket(21))
}

func TestCreateMatterRequirements_SeedsAllRows(t *testing.T) {
	store := newFakeRequirementStore()
	catalog := NewDocumentRequirementCatalog(store)
	matterID := uuid.New()

	err := catalog.CreateMatterRequirements(context.Background(), matterID, "employment")
	require.NoError(t, err)
	assert.Len(t, store.rows[matterID], len(requirementTemplates["employment"]))
}

func TestCreateMatterRequirements_FailureLeavesNoRows(t *testing.T) {
	store := newFakeRequirementStore()
	store.failBatch = true
	catalog := NewDocumentRequirementCatalog(store)
	matterID := uuid.New()

	err := catalog.CreateMatterRequirements(context.Background(), matterID, "employment")
	require.Error(t, err)
	assert.Empty(t, store.rows[matterID])
}

func TestGetMatterRequirementStatus(t *testing.T) {
	store := newFakeRequirementStore()
	catalog := NewDocumentRequirementCatalog(store)
	matterID := uuid.New()

	require.NoError(t, catalog.CreateMatterRequirements(context.Background(), matterID, "general"))

	status, err := catalog.GetMatterRequirementStatus(context.Background(), matterID)
	require.NoError(t, err)
	assert.False(t, status.AllReceived)
	assert.ElementsMatch(t, []string{"government_id", "engagement_questionnaire"}, status.Outstanding)

	// Receiving the required documents satisfies the matter even while an
	// optional document is still pending
	require.NoError(t, catalog.UpdateRequirementStatus(context.Background(), matterID, "government_id", models.DocumentReceived))
	require.NoError(t, catalog.UpdateRequirementStatus(context.Background(), matterID, "engagement_questionnaire", models.DocumentApproved))

	status, err = catalog.GetMatterRequirementStatus(context.Background(), matterID)
	require.NoError(t, err)
	assert.True(t, status.AllReceived)
	assert.Empty(t, status.Outstanding)
}
