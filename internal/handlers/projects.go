package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"photobooth/agent/internal/apperr"
	"photobooth/agent/internal/models"
	"photobooth/agent/internal/repository"
)

type createProjectRequest struct {
	SessionID        string               `json:"sessionId" binding:"required"`
	SelectedAssetIDs []string             `json:"selectedAssetIds" binding:"required,min=1"`
	FilterStack      []models.FilterSpec  `json:"filterStack"`
	Stickers         []models.StickerSpec `json:"stickers"`
	TemplateID       string               `json:"templateId" binding:"required"`
}

func (h HandlerSet) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	ctx := c.Request.Context()

	if _, err := h.sessions.GetByID(ctx, req.SessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			h.respondError(c, apperr.NotFound("SESSION_NOT_FOUND", "no session found for id "+req.SessionID))
			return
		}
		h.respondError(c, err)
		return
	}

	// Only assets that exist and belong to the session survive selection.
	resolved, err := h.assets.GetByIDs(ctx, req.SelectedAssetIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	selected := make([]string, 0, len(resolved))
	for _, asset := range resolved {
		if asset.SessionID == req.SessionID {
			selected = append(selected, asset.ID)
		}
	}
	if len(selected) == 0 {
		h.respondError(c, apperr.PreconditionFailed("NO_VALID_SELECTED_ASSETS", "no selected assets were found for this session"))
		return
	}

	project, err := h.projects.Create(ctx, repository.CreateProjectInput{
		SessionID:        req.SessionID,
		SelectedAssetIDs: selected,
		FilterStack:      req.FilterStack,
		Stickers:         req.Stickers,
		TemplateID:       req.TemplateID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h HandlerSet) GetProject(c *gin.Context) {
	projectID := c.Param("projectId")
	project, err := h.projects.GetByID(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			h.respondError(c, apperr.NotFound("PROJECT_NOT_FOUND", "no project found for id "+projectID))
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

type updateProjectRequest struct {
	SelectedAssetIDs []string             `json:"selectedAssetIds"`
	FilterStack      []models.FilterSpec  `json:"filterStack"`
	Stickers         []models.StickerSpec `json:"stickers"`
	TemplateID       *string              `json:"templateId"`
}

func (h HandlerSet) UpdateProject(c *gin.Context) {
	projectID := c.Param("projectId")

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	if req.SelectedAssetIDs != nil && len(req.SelectedAssetIDs) == 0 {
		h.respondError(c, apperr.Validation("EMPTY_SELECTION", "selectedAssetIds must not be empty"))
		return
	}

	project, err := h.projects.Update(c.Request.Context(), projectID, repository.ProjectUpdate{
		SelectedAssetIDs: req.SelectedAssetIDs,
		FilterStack:      req.FilterStack,
		Stickers:         req.Stickers,
		TemplateID:       req.TemplateID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			h.respondError(c, apperr.NotFound("PROJECT_NOT_FOUND", "no project found for id "+projectID))
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

type renderProjectRequest struct {
	BrandProfileID string `json:"brandProfileId" binding:"required"`
	QRTargetURL    string `json:"qrTargetUrl" binding:"required,url"`
}

func (h HandlerSet) RenderProject(c *gin.Context) {
	projectID := c.Param("projectId")

	var req renderProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}

	result, err := h.renderer.RenderProject(c.Request.Context(), projectID, req.BrandProfileID, req.QRTargetURL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
