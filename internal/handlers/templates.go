package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"photobooth/agent/internal/apperr"
	"photobooth/agent/internal/models"
	"photobooth/agent/internal/repository"
	"photobooth/agent/internal/templatefit"
)

func (h HandlerSet) ListTemplates(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if templates == nil {
		templates = []models.Template{}
	}
	c.JSON(http.StatusOK, templates)
}

type upsertTemplateRequest struct {
	ID             string                `json:"id" binding:"required"`
	Name           string                `json:"name" binding:"required"`
	CanvasSize     models.CanvasSize     `json:"canvasSize" binding:"required"`
	Slots          []models.TemplateSlot `json:"slots" binding:"required"`
	SafeAreas      []models.Placement    `json:"safeAreas"`
	PrintProfileID string                `json:"printProfileId" binding:"required"`
}

func (h HandlerSet) UpsertTemplate(c *gin.Context) {
	var req upsertTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}
	if req.CanvasSize.Width <= 0 || req.CanvasSize.Height <= 0 {
		h.respondError(c, apperr.Validation("INVALID_CANVAS", "canvas dimensions must be positive"))
		return
	}

	template := models.Template{
		ID:             req.ID,
		Name:           req.Name,
		CanvasSize:     req.CanvasSize,
		Slots:          req.Slots,
		SafeAreas:      req.SafeAreas,
		PrintProfileID: req.PrintProfileID,
	}
	if template.SafeAreas == nil {
		template.SafeAreas = []models.Placement{}
	}

	if err := templatefit.ValidateCoverage(template); err != nil {
		var oob *templatefit.SlotOutOfBoundsError
		switch {
		case errors.Is(err, templatefit.ErrEmptyTemplate):
			h.respondError(c, apperr.Validation("EMPTY_TEMPLATE", err.Error()))
		case errors.As(err, &oob):
			h.respondError(c, apperr.Validation("SLOT_OUT_OF_BOUNDS", err.Error()))
		default:
			h.respondError(c, err)
		}
		return
	}

	saved, err := h.templates.Upsert(c.Request.Context(), template)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h HandlerSet) BrandProfile(c *gin.Context) {
	profile, err := h.brands.GetByID(c.Request.Context(), "brand-default")
	if err != nil {
		if errors.Is(err, repository.ErrBrandProfileNotFound) {
			h.respondError(c, apperr.NotFound("BRAND_PROFILE_NOT_FOUND", "no default brand profile configured"))
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
