package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"lexintake-backend/models"
	"lexintake-backend/service"
	"lexintake-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MatterGetter resolves a matter scoped by team
type MatterGetter interface {
	GetMatter(ctx context.Context, teamID, matterID uuid.UUID) (*models.Matter, error)
}

// LetterSource serves the latest engagement letter for a matter
type LetterSource interface {
	LatestForMatter(ctx context.Context, matterID uuid.UUID) (*models.EngagementLetter, error)
}

// ParalegalHandler handles HTTP requests for the paralegal formation protocol
type ParalegalHandler struct {
	formation *service.FormationService
	letters   LetterSource
	matters   MatterGetter
	storage   storage.Storage
}

// NewParalegalHandler creates a new paralegal handler
func NewParalegalHandler(formation *service.FormationService, letters LetterSource, matters MatterGetter, storage storage.Storage) *ParalegalHandler {
	return &ParalegalHandler{
		formation: formation,
		letters:   letters,
		matters:   matters,
		storage:   storage,
	}
}

// pathIDs parses the team and matter IDs from the route. A malformed ID is
// reported to the caller directly; the bool result tells the handler to stop.
func pathIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	teamID, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TEAM_ID",
				"message": "Invalid team ID format",
			},
		})
		return uuid.Nil, uuid.Nil, false
	}

	matterID, err := uuid.Parse(c.Param("matterId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_MATTER_ID",
				"message": "Invalid matter ID format",
			},
		})
		return uuid.Nil, uuid.Nil, false
	}

	return teamID, matterID, true
}

// formationError maps formation service errors onto HTTP responses
func formationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEvent):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_EVENT",
				"message": err.Error(),
			},
		})
	case errors.Is(err, service.ErrMatterNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Matter not found",
			},
		})
	case errors.Is(err, service.ErrMatterClosed):
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MATTER_CLOSED",
				"message": "Matter is archived or closed",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": err.Error(),
			},
		})
	}
}

// Advance handles POST /paralegal/:teamId/:matterId/advance
func (h *ParalegalHandler) Advance(c *gin.Context) {
	teamID, matterID, ok := pathIDs(c)
	if !ok {
		return
	}

	var event service.AdvanceEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.formation.Advance(c.Request.Context(), teamID, matterID, &event)
	if err != nil {
		formationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// Status handles GET /paralegal/:teamId/:matterId/status
func (h *ParalegalHandler) Status(c *gin.Context) {
	teamID, matterID, ok := pathIDs(c)
	if !ok {
		return
	}

	result, err := h.formation.Status(c.Request.Context(), teamID, matterID)
	if err != nil {
		formationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// Checklist handles GET /paralegal/:teamId/:matterId/checklist
func (h *ParalegalHandler) Checklist(c *gin.Context) {
	teamID, matterID, ok := pathIDs(c)
	if !ok {
		return
	}

	result, err := h.formation.Checklist(c.Request.Context(), teamID, matterID)
	if err != nil {
		formationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// DownloadLetter handles GET /paralegal/:teamId/:matterId/letter. It streams
// the latest rendered engagement letter for the matter. The matter is
// resolved through the team scope first, so one team can never pull another
// team's letters by guessing matter IDs.
func (h *ParalegalHandler) DownloadLetter(c *gin.Context) {
	teamID, matterID, ok := pathIDs(c)
	if !ok {
		return
	}

	matter, err := h.matters.GetMatter(c.Request.Context(), teamID, matterID)
	if err != nil || matter == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Matter not found",
			},
		})
		return
	}

	letter, err := h.letters.LatestForMatter(c.Request.Context(), matterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	if letter == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "No engagement letter has been generated for this matter",
			},
		})
		return
	}

	reader, err := h.storage.Download(c.Request.Context(), letter.RenderedDocumentKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOWNLOAD_FAILED",
				"message": fmt.Sprintf("Failed to download letter: %v", err),
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"engagement-letter-v%d.html\"", letter.Version))
	c.DataFromReader(http.StatusOK, -1, "text/html", reader, nil)
}
