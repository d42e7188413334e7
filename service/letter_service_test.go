package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"lexintake-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLetterStore versions letters per matter the way the repository does
type fakeLetterStore struct {
	letters    map[uuid.UUID]*models.EngagementLetter
	byMatter   map[uuid.UUID][]*models.EngagementLetter
	failCreate bool
}

func newFakeLetterStore() *fakeLetterStore {
	return &fakeLetterStore{
		letters:  make(map[uuid.UUID]*models.EngagementLetter),
		byMatter: make(map[uuid.UUID][]*models.EngagementLetter),
	}
}

func (f *fakeLetterStore) Create(ctx context.Context, letter *models.EngagementLetter) error {
	if f.failCreate {
		return errors.New("insert failed")
	}
	letter.ID = uuid.New()
	letter.Version = len(f.byMatter[letter.MatterID]) + 1
	f.letters[letter.ID] = letter
	f.byMatter[letter.MatterID] = append(f.byMatter[letter.MatterID], letter)
	return nil
}

func (f *fakeLetterStore) GetByID(ctx context.Context, id uuid.UUID) (*models.EngagementLetter, error) {
	letter, ok := f.letters[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return letter, nil
}

func (f *fakeLetterStore) GetLatestByMatterID(ctx context.Context, matterID uuid.UUID) (*models.EngagementLetter, error) {
	versions := f.byMatter[matterID]
	if len(versions) == 0 {
		return nil, nil
	}
	return versions[len(versions)-1], nil
}

func (f *fakeLetterStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LetterStatus) error {
	letter, ok := f.letters[id]
	if !ok {
		return errors.New("not found")
	}
	letter.Status = status
	return nil
}

// fakeBlobStore records uploaded documents by key
type fakeBlobStore struct {
	uploads    map[string]string
	failUpload bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{uploads: make(map[string]string)}
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, data io.Reader) (string, error) {
	if f.failUpload {
		return "", errors.New("storage unavailable")
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.uploads[key] = string(content)
	return key, nil
}

func newTestGenerator(store *fakeLetterStore, blobs *fakeBlobStore) *EngagementLetterGenerator {
	return NewEngagementLetterGenerator(
		LetterWithStore(store),
		LetterWithBlobStore(blobs),
		LetterWithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
}

func TestGenerateLetter_FillsTemplate(t *testing.T) {
	store := newFakeLetterStore()
	blobs := newFakeBlobStore()
	gen := newTestGenerator(store, blobs)

	letter, err := gen.GenerateLetter(context.Background(), uuid.New(), "default", map[string]string{
		"client_name":     "Jane Roe",
		"firm_name":       "Harbor Legal",
		"matter_type":     "business",
		"scope":           "Contract dispute representation",
		"fee_arrangement": "Flat fee of $5,000",
	})
	require.NoError(t, err)

	assert.Contains(t, letter.Content, "Dear Jane Roe,")
	assert.Contains(t, letter.Content, "Harbor Legal")
	assert.Contains(t, letter.Content, "March 1, 2026")
	assert.NotContains(t, letter.Content, "{{client_name}}")
	assert.Equal(t, models.LetterDraft, letter.Status)
	assert.Equal(t, 1, letter.Version)
}

func TestGenerateLetter_VersionsIncrement(t *testing.T) {
	store := newFakeLetterStore()
	gen := newTestGenerator(store, newFakeBlobStore())
	matterID := uuid.New()

	first, err := gen.GenerateLetter(context.Background(), matterID, "default", nil)
	require.NoError(t, err)
	second, err := gen.GenerateLetter(context.Background(), matterID, "default", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)

	latest, err := gen.LatestForMatter(context.Background(), matterID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
}

func TestGenerateLetter_UnknownTemplate(t *testing.T) {
	gen := newTestGenerator(newFakeLetterStore(), newFakeBlobStore())

	_, err := gen.GenerateLetter(context.Background(), uuid.New(), "maritime", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestGenerateLetter_EmptyTemplateDefaults(t *testing.T) {
	gen := newTestGenerator(newFakeLetterStore(), newFakeBlobStore())

	letter, err := gen.GenerateLetter(context.Background(), uuid.New(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "default", letter.TemplateID)
}

func TestGenerateLetter_EscapesUserContent(t *testing.T) {
	store := newFakeLetterStore()
	blobs := newFakeBlobStore()
	gen := newTestGenerator(store, blobs)

	letter, err := gen.GenerateLetter(context.Background(), uuid.New(), "default", map[string]string{
		"client_name": `<script>alert("x")</script>`,
	})
	require.NoError(t, err)

	rendered := blobs.uploads[letter.RenderedDocumentKey]
	require.NotEmpty(t, rendered)
	assert.NotContains(t, rendered, "<script>")
	assert.Contains(t, rendered, "&lt;script&gt;")
}

func TestGenerateLetter_UnknownPlaceholdersLeftVisible(t *testing.T) {
	gen := newTestGenerator(newFakeLetterStore(), newFakeBlobStore())

	letter, err := gen.GenerateLetter(context.Background(), uuid.New(), "default", map[string]string{
		"client_name": "Jane Roe",
	})
	require.NoError(t, err)

	// Missing data stays visible for review rather than silently vanishing
	assert.Contains(t, letter.Content, "{{scope}}")
}

func TestGenerateLetter_BlobFailureRecordsNothing(t *testing.T) {
	store := newFakeLetterStore()
	blobs := newFakeBlobStore()
	blobs.failUpload = true
	gen := newTestGenerator(store, blobs)
	matterID := uuid.New()

	_, err := gen.GenerateLetter(context.Background(), matterID, "default", nil)
	require.Error(t, err)
	assert.Empty(t, store.byMatter[matterID])
}

func TestUpdateStatus_ForwardOnly(t *testing.T) {
	store := newFakeLetterStore()
	gen := newTestGenerator(store, newFakeBlobStore())

	letter, err := gen.GenerateLetter(context.Background(), uuid.New(), "default", nil)
	require.NoError(t, err)

	require.NoError(t, gen.UpdateStatus(context.Background(), letter.ID, models.LetterSent))
	require.NoError(t, gen.UpdateStatus(context.Background(), letter.ID, models.LetterSigned))

	err = gen.UpdateStatus(context.Background(), letter.ID, models.LetterDraft)
	assert.ErrorIs(t, err, ErrInvalidLetterTransition)

	err = gen.UpdateStatus(context.Background(), letter.ID, models.LetterSigned)
	assert.ErrorIs(t, err, ErrInvalidLetterTransition)
}

func TestUpdateStatus_UnknownLetter(t *testing.T) {
	gen := newTestGenerator(newFakeLetterStore(), newFakeBlobStore())

	err := gen.UpdateStatus(context.Background(), uuid.New(), models.LetterSent)
	assert.ErrorIs(t, err, ErrLetterNotFound)
}

func TestRenderLetter_WrapsContent(t *testing.T) {
	rendered, err := renderLetter("plain letter body")
	require.NoError(t, err)
	assert.True(t, strings.Contains(rendered, "<pre"))
	assert.Contains(t, rendered, "plain letter body")
}
