package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"photobooth/agent/internal/apperr"
	"photobooth/agent/internal/config"
	"photobooth/agent/internal/database"
	"photobooth/agent/internal/printer"
	"photobooth/agent/internal/render"
	"photobooth/agent/internal/repository"
	"photobooth/agent/internal/syncer"
)

// HandlerSet wires the agent's HTTP surface to the store and the domain
// components. Constructed once in main with explicit dependencies.
type HandlerSet struct {
	log        zerolog.Logger
	cfg        *config.AppConfig
	sessions   *repository.SessionRepository
	assets     *repository.MediaRepository
	projects   *repository.ProjectRepository
	templates  *repository.TemplateRepository
	brands     *repository.BrandRepository
	printJobs  *repository.PrintJobRepository
	shares     *repository.ShareLinkRepository
	renderer   *render.Service
	dispatcher *printer.Dispatcher
	reconciler *syncer.Reconciler
	startedAt  time.Time
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	db *database.DB,
	renderer *render.Service,
	dispatcher *printer.Dispatcher,
	reconciler *syncer.Reconciler,
) HandlerSet {
	return HandlerSet{
		log:        log,
		cfg:        cfg,
		sessions:   repository.NewSessionRepository(db),
		assets:     repository.NewMediaRepository(db),
		projects:   repository.NewProjectRepository(db),
		templates:  repository.NewTemplateRepository(db),
		brands:     repository.NewBrandRepository(db),
		printJobs:  repository.NewPrintJobRepository(db),
		shares:     repository.NewShareLinkRepository(db),
		renderer:   renderer,
		dispatcher: dispatcher,
		reconciler: reconciler,
		startedAt:  time.Now(),
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	v1 := router.Group("/v1")
	{
		v1.GET("/health", h.Health)

		v1.POST("/sessions", h.CreateSession)
		v1.GET("/sessions/active", h.ActiveSession)
		v1.GET("/sessions/:sessionId/media", h.ListSessionMedia)
		v1.POST("/sessions/:sessionId/complete", h.CompleteSession)

		v1.GET("/templates", h.ListTemplates)
		v1.POST("/templates", h.UpsertTemplate)

		v1.POST("/projects", h.CreateProject)
		v1.GET("/projects/:projectId", h.GetProject)
		v1.PATCH("/projects/:projectId", h.UpdateProject)
		v1.POST("/projects/:projectId/render", h.RenderProject)

		v1.POST("/print-jobs", h.CreatePrintJob)
		v1.GET("/print-jobs/:printJobId", h.GetPrintJob)

		v1.POST("/sync/run", h.RunSync)

		v1.GET("/brand-profile", h.BrandProfile)
	}
}

// respondError maps the error taxonomy onto HTTP statuses at the boundary.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	appErr := apperr.As(err)

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindPreconditionFailed:
		status = http.StatusUnprocessableEntity
	}

	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": appErr.Code, "message": appErr.Message})
}

func invalidPayload(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "INVALID_PAYLOAD", "message": err.Error()})
}
