package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"photobooth/agent/internal/apperr"
	"photobooth/agent/internal/models"
	"photobooth/agent/internal/repository"
)

type createSessionRequest struct {
	BoothID string `json:"boothId" binding:"required"`
}

func (h HandlerSet) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}

	session, err := h.sessions.Create(c.Request.Context(), req.BoothID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h HandlerSet) ActiveSession(c *gin.Context) {
	session, err := h.sessions.Active(c.Request.Context())
	if errors.Is(err, repository.ErrSessionNotFound) {
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h HandlerSet) ListSessionMedia(c *gin.Context) {
	sessionID := c.Param("sessionId")

	if _, err := h.sessions.GetByID(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			h.respondError(c, apperr.NotFound("SESSION_NOT_FOUND", "no session found for id "+sessionID))
			return
		}
		h.respondError(c, err)
		return
	}

	assets, err := h.assets.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if assets == nil {
		assets = []models.MediaAsset{}
	}
	c.JSON(http.StatusOK, assets)
}

func (h HandlerSet) CompleteSession(c *gin.Context) {
	sessionID := c.Param("sessionId")

	if _, err := h.sessions.GetByID(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			h.respondError(c, apperr.NotFound("SESSION_NOT_FOUND", "no session found for id "+sessionID))
			return
		}
		h.respondError(c, err)
		return
	}

	if err := h.sessions.Complete(c.Request.Context(), sessionID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "sessionId": sessionID})
}
