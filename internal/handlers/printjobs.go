package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"photobooth/agent/internal/apperr"
	"photobooth/agent/internal/repository"
)

type createPrintJobRequest struct {
	ProjectID        string `json:"projectId" binding:"required"`
	Copies           int    `json:"copies" binding:"required,min=1"`
	PrinterProfileID string `json:"printerProfileId" binding:"required"`
}

func (h HandlerSet) CreatePrintJob(c *gin.Context) {
	var req createPrintJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, err)
		return
	}

	job, _, err := h.dispatcher.Enqueue(c.Request.Context(), req.ProjectID, req.Copies, req.PrinterProfileID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (h HandlerSet) GetPrintJob(c *gin.Context) {
	printJobID := c.Param("printJobId")
	job, err := h.printJobs.GetByID(c.Request.Context(), printJobID)
	if err != nil {
		if errors.Is(err, repository.ErrPrintJobNotFound) {
			h.respondError(c, apperr.NotFound("PRINT_JOB_NOT_FOUND", "no print job found for id "+printJobID))
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
