package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"lexintake-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// fakeMatterGetter serves matters keyed by (team, matter)
type fakeMatterGetter struct {
	matters map[uuid.UUID]*models.Matter
}

func (f *fakeMatterGetter) GetMatter(ctx context.Context, teamID, matterID uuid.UUID) (*models.Matter, error) {
	matter, ok := f.matters[matterID]
	if !ok || matter.TeamID != teamID {
		return nil, nil
	}
	return matter, nil
}

// fakeLetterSource serves letters keyed by matter
type fakeLetterSource struct {
	letters map[uuid.UUID]*models.EngagementLetter
}

func (f *fakeLetterSource) LatestForMatter(ctx context.Context, matterID uuid.UUID) (*models.EngagementLetter, error) {
	return f.letters[matterID], nil
}

// fakeBlobStorage serves fixed content under any key
type fakeBlobStorage struct {
	content string
}

func (f *fakeBlobStorage) Upload(ctx context.Context, key string, data io.Reader) (string, error) {
	return key, nil
}

func (f *fakeBlobStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte(f.content))), nil
}

func (f *fakeBlobStorage) Delete(ctx context.Context, key string) error {
	return nil
}

func letterTestRouter(matters MatterGetter, letters LetterSource, content string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewParalegalHandler(nil, letters, matters, &fakeBlobStorage{content: content})
	r := gin.New()
	r.GET("/paralegal/:teamId/:matterId/letter", h.DownloadLetter)
	return r
}

func TestDownloadLetter_ScopedToTeam(t *testing.T) {
	ownerTeam := uuid.New()
	otherTeam := uuid.New()
	matter := &models.Matter{ID: uuid.New(), TeamID: ownerTeam, Status: models.MatterStatusActive}
	letter := &models.EngagementLetter{
		ID:                  uuid.New(),
		MatterID:            matter.ID,
		Status:              models.LetterDraft,
		Version:             1,
		RenderedDocumentKey: "letters/key",
	}

	r := letterTestRouter(
		&fakeMatterGetter{matters: map[uuid.UUID]*models.Matter{matter.ID: matter}},
		&fakeLetterSource{letters: map[uuid.UUID]*models.EngagementLetter{matter.ID: letter}},
		"CONFIDENTIAL ENGAGEMENT TERMS",
	)

	// Another team naming the matter's real ID gets a 404, not the letter
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/paralegal/"+otherTeam.String()+"/"+matter.ID.String()+"/letter", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "CONFIDENTIAL")

	// The owning team downloads it
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/paralegal/"+ownerTeam.String()+"/"+matter.ID.String()+"/letter", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CONFIDENTIAL ENGAGEMENT TERMS")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "engagement-letter-v1.html")
}

func TestDownloadLetter_NoLetterYet(t *testing.T) {
	team := uuid.New()
	matter := &models.Matter{ID: uuid.New(), TeamID: team, Status: models.MatterStatusActive}

	r := letterTestRouter(
		&fakeMatterGetter{matters: map[uuid.UUID]*models.Matter{matter.ID: matter}},
		&fakeLetterSource{letters: map[uuid.UUID]*models.EngagementLetter{}},
		"",
	)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/paralegal/"+team.String()+"/"+matter.ID.String()+"/letter", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
