package handlers

import (
	"net/http"
	"strconv"

	"lexintake-backend/models"
	"lexintake-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MatterHandler handles HTTP requests for matter records
type MatterHandler struct {
	matters *service.MatterService
}

// NewMatterHandler creates a new matter handler
func NewMatterHandler(matters *service.MatterService) *MatterHandler {
	return &MatterHandler{matters: matters}
}

// CreateMatterRequest represents the request body for creating a matter
type CreateMatterRequest struct {
	ClientName    string `json:"client_name" binding:"required"`
	OpposingParty string `json:"opposing_party"`
	MatterType    string `json:"matter_type" binding:"required"`
}

// CreateMatter handles POST /api/teams/:teamId/matters
func (h *MatterHandler) CreateMatter(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TEAM_ID",
				"message": "Invalid team ID format",
			},
		})
		return
	}

	var req CreateMatterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.matters.CreateMatter(c.Request.Context(), service.CreateMatterRequest{
		TeamID:        teamID,
		ClientName:    req.ClientName,
		OpposingParty: req.OpposingParty,
		MatterType:    req.MatterType,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Matter,
	})
}

// GetMatter handles GET /api/teams/:teamId/matters/:matterId
func (h *MatterHandler) GetMatter(c *gin.Context) {
	teamID, matterID, ok := pathIDs(c)
	if !ok {
		return
	}

	matter, err := h.matters.GetMatter(c.Request.Context(), teamID, matterID)
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
	if matter == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Matter not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    matter,
	})
}

// ListMatters handles GET /api/teams/:teamId/matters
func (h *MatterHandler) ListMatters(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TEAM_ID",
				"message": "Invalid team ID format",
			},
		})
		return
	}

	var status *models.MatterStatus
	if statusStr := c.Query("status"); statusStr != "" {
		s := models.MatterStatus(statusStr)
		status = &s
	}

	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	matters, err := h.matters.ListMatters(c.Request.Context(), teamID, status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    matters,
	})
}

// ArchiveMatter handles POST /api/teams/:teamId/matters/:matterId/archive
func (h *MatterHandler) ArchiveMatter(c *gin.Context) {
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

	if err := h.matters.ArchiveMatter(c.Request.Context(), matterID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ARCHIVE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":     matterID,
			"status": models.MatterStatusArchived,
		},
	})
}
