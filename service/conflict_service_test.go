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

// fakeMatterSource serves a fixed set of active matters, or fails on demand
type fakeMatterSource struct {
	matters []*models.Matter
	err     error
}

func (f *fakeMatterSource) ListActiveByTeam(ctx context.Context, teamID uuid.UUID) ([]*models.Matter, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matters, nil
}

func activeMatter(clientName, opposingParty string) *models.Matter {
	return &models.Matter{
		ID:            uuid.New(),
		TeamID:        uuid.New(),
		ClientName:    clientName,
		OpposingParty: opposingParty,
		Status:        models.MatterStatusActive,
	}
}

func TestCheckConflicts_DirectMatch(t *testing.T) {
	existing := activeMatter("Jane Roe", "ACME Corporation")
	svc := NewConflictCheckService(ConflictWithMatterSource(&fakeMatterSource{
		matters: []*models.Matter{existing},
	}))

	result := svc.CheckConflicts(context.Background(), uuid.New(), uuid.New(), []string{"ACME Corporation"})

	assert.False(t, result.Cleared)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, models.ConflictDirect, result.Hits[0].ConflictType)
	assert.Equal(t, 1.0, result.Hits[0].Similarity)
	assert.Equal(t, existing.ID, result.Hits[0].MatterID)
}

func TestCheckConflicts_RelatedBySuffixVariant(t *testing.T) {
	existing := activeMatter("Jane Roe", "ACME Corporation LLC")
	svc := NewConflictCheckService(ConflictWithMatterSource(&fakeMatterSource{
		matters: []*models.Matter{existing},
	}))

	result := svc.CheckConflicts(context.Background(), uuid.New(), uuid.New(), []string{"ACME Corp"})

	assert.False(t, result.Cleared)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, models.ConflictRelated, result.Hits[0].ConflictType)
	assert.Greater(t, result.Hits[0].Similarity, 0.7)
}

func TestCheckConflicts_ClientCrossMatch(t *testing.T) {
	existing := activeMatter("John Smith", "Someone Else")
	svc := NewConflictCheckService(ConflictWithMatterSource(&fakeMatterSource{
		matters: []*models.Matter{existing},
	}))

	result := svc.CheckConflicts(context.Background(), uuid.New(), uuid.New(), []string{"John Smith"})

	assert.False(t, result.Cleared)
	require.Len(t, result.Hits, 1)
	assert.Equal(t, models.ConflictPotential, result.Hits[0].ConflictType)
	assert.Equal(t, 0.9, result.Hits[0].Similarity)
	assert.Equal(t, "John Smith", result.Hits[0].OpposingParty)
}

func TestCheckConflicts_NoOverlapCleared(t *testing.T) {
	svc := NewConflictCheckService(ConflictWithMatterSource(&fakeMatterSource{
		matters: []*models.Matter{
			activeMatter("Jane Roe", "Globex Industries"),
		},
	}))

	result := svc.CheckConflicts(context.Background(), uuid.New(), uuid.New(), []string{"Initech Partners"})

	assert.True(t, result.Cleared)
	assert.Empty(t, result.Hits)
}

func TestCheckConflicts_ExcludesOwnMatter(t *testing.T) {
	existing := activeMatter("Jane Roe", "ACME Corporation")
	svc := NewConflictCheckService(ConflictWithMatterSource(&fakeMatterSource{
		matters: []*models.Matter{existing},
	}))

	// Scanning the matter's own opposing party must not flag itself
	result := svc.CheckConflicts(context.Background(), existing.TeamID, existing.ID, []string{"ACME Corporation"})

	assert.True(t, result.Cleared)
	assert.Empty(t, result.Hits)
}

func TestCheckConflicts_SourceFailureRequiresManualReview(t *testing.T) {
	svc := NewConflictCheckService(ConflictWithMatterSource(&fakeMatterSource{
		err: errors.New("connection refused"),
	}))

	result := svc.CheckConflicts(context.Background(), uuid.New(), uuid.New(), []string{"Anyone"})

	assert.False(t, result.Cleared)
	assert.Contains(t, result.Notes, "manual review")
	assert.Empty(t, result.Hits)
}

func TestCheckConflicts_NoSourceConfigured(t *testing.T) {
	svc := NewConflictCheckService()

	result := svc.CheckConflicts(context.Background(), uuid.New(), uuid.New(), []string{"Anyone"})

	assert.False(t, result.Cleared)
	assert.Contains(t, result.Notes, "manual review")
}

// fakeConflictStore counts recorded results, or fails on demand
type fakeConflictStore struct {
	created []*models.ConflictCheckResult
	err     error
}

func (f *fakeConflictStore) Create(ctx context.Context, result *models.ConflictCheckResult) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, result)
	return nil
}

func TestRecordConflictCheck_PersistsResult(t *testing.T) {
	store := &fakeConflictStore{}
	svc := NewConflictCheckService(ConflictWithRecorder(store))

	result := &models.ConflictCheckResult{MatterID: uuid.New(), Cleared: true}
	svc.RecordConflictCheck(context.Background(), result)

	require.Len(t, store.created, 1)
	assert.Equal(t, result.MatterID, store.created[0].MatterID)
}

func TestRecordConflictCheck_SwallowsPersistenceFailure(t *testing.T) {
	store := &fakeConflictStore{err: errors.New("connection refused")}
	svc := NewConflictCheckService(ConflictWithRecorder(store))

	// Must not panic or surface the failure; the check itself stays valid
	svc.RecordConflictCheck(context.Background(), &models.ConflictCheckResult{MatterID: uuid.New()})
	assert.Empty(t, store.created)
}

func TestRecordConflictCheck_NoRecorderConfigured(t *testing.T) {
	svc := NewConflictCheckService()

	svc.RecordConflictCheck(context.Background(), &models.ConflictCheckResult{MatterID: uuid.New()})
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "acme corporation", normalizeName("  ACME   Corporation "))
	assert.Equal(t, "", normalizeName("   "))
}

func TestNameVariants(t *testing.T) {
	variants := nameVariants("acme corp")
	assert.Contains(t, variants, "acme corp")
	assert.Contains(t, variants, "acme")
	assert.Contains(t, variants, "acme corp llc")

	// Three-word personal names also get a first+last variant
	variants = nameVariants("john michael smith")
	assert.Contains(t, variants, "john smith")
}

func TestJaccard_DropsEntitySuffixes(t *testing.T) {
	score := jaccard(significantTokens("acme corp"), significantTokens("acme corporation llc"))
	assert.Equal(t, 1.0, score)
}

func TestDedupeHits_KeepsHighestPriority(t *testing.T) {
	matterID := uuid.New()
	hits := []models.ConflictHit{
		{MatterID: matterID, OpposingParty: "ACME", ConflictType: models.ConflictRelated, Similarity: 0.8},
		{MatterID: matterID, OpposingParty: "ACME", ConflictType: models.ConflictDirect, Similarity: 1.0},
	}

	deduped := dedupeHits(hits)
	require.Len(t, deduped, 1)
	assert.Equal(t, models.ConflictDirect, deduped[0].ConflictType)
	assert.Equal(t, 1.0, deduped[0].Similarity)
}

func TestDedupeHits_SortsDirectFirst(t *testing.T) {
	hits := []models.ConflictHit{
		{MatterID: uuid.New(), OpposingParty: "A", ConflictType: models.ConflictRelated, Similarity: 0.9},
		{MatterID: uuid.New(), OpposingParty: "B", ConflictType: models.ConflictDirect, Similarity: 1.0},
		{MatterID: uuid.New(), OpposingParty: "C", ConflictType: models.ConflictPotential, Similarity: 0.9},
	}

	deduped := dedupeHits(hits)
	require.Len(t, deduped, 3)
	assert.Equal(t, models.ConflictDirect, deduped[0].ConflictType)
	assert.Equal(t, models.ConflictPotential, deduped[1].ConflictType)
	assert.Equal(t, models.ConflictRelated, deduped[2].ConflictType)
}
