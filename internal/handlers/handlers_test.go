package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photobooth/agent/internal/config"
	"photobooth/agent/internal/database"
	"photobooth/agent/internal/models"
	"photobooth/agent/internal/printer"
	"photobooth/agent/internal/render"
	"photobooth/agent/internal/repository"
	"photobooth/agent/internal/syncer"
)

type apiFixture struct {
	engine   *gin.Engine
	sessions *repository.SessionRepository
	assets   *repository.MediaRepository
	dir      string
}

type stubAdapter struct{}

func (stubAdapter) Send(context.Context, models.PrintJob, string) error { return nil }

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	db, err := database.Open(filepath.Join(dir, "agent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zerolog.Nop()
	cfg := &config.AppConfig{
		Environment: "test",
		Booth:       config.BoothConfig{ID: "booth-1"},
		Paths: config.PathsConfig{
			Data:     dir,
			Watched:  filepath.Join(dir, "inbox"),
			Media:    filepath.Join(dir, "media"),
			Previews: filepath.Join(dir, "previews"),
			Renders:  filepath.Join(dir, "renders"),
		},
	}
	for _, d := range cfg.Directories() {
		require.NoError(t, os.MkdirAll(d, 0o755))
	}

	projects := repository.NewProjectRepository(db)
	templates := repository.NewTemplateRepository(db)
	brands := repository.NewBrandRepository(db)
	require.NoError(t, repository.SeedDefaults(context.Background(), templates, brands))

	composer := render.NewComposer(cfg.Paths.Renders, cfg.Paths.Media, logger)
	renderer := render.NewService(
		projects, templates, brands,
		repository.NewMediaRepository(db),
		repository.NewShareLinkRepository(db),
		composer, logger,
	)
	dispatcher := printer.NewDispatcher(
		repository.NewPrintJobRepository(db), projects,
		stubAdapter{}, "test-printer", logger,
	)
	reconciler := syncer.NewReconciler(
		repository.NewSessionRepository(db),
		repository.NewMediaRepository(db),
		projects,
		repository.NewShareLinkRepository(db),
		syncer.NewClient("http://127.0.0.1:0", "", time.Second),
		logger,
	)

	engine := gin.New()
	NewHandlerSet(logger, cfg, db, renderer, dispatcher, reconciler).Register(engine.Group("/api"))

	return apiFixture{
		engine:   engine,
		sessions: repository.NewSessionRepository(db),
		assets:   repository.NewMediaRepository(db),
		dir:      dir,
	}
}

func (f apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "local-agent", body["service"])
	assert.Equal(t, float64(0), body["pendingSyncCount"])
	assert.Contains(t, body["watchedDirectory"], "inbox")
}

func TestSessionEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	// No active session yet.
	rec := f.do(t, http.MethodGet, "/api/v1/sessions/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/v1/sessions", gin.H{"boothId": "booth-1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.Session](t, rec)
	assert.Equal(t, models.SessionStatusActive, created.Status)

	rec = f.do(t, http.MethodGet, "/api/v1/sessions/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[models.Session](t, rec)
	assert.Equal(t, created.ID, active.ID)

	rec = f.do(t, http.MethodPost, "/api/v1/sessions/"+created.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	session, err := f.sessions.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, session.Status)
	assert.NotNil(t, session.EndedAt)

	// Missing boothId is a payload error.
	rec = f.do(t, http.MethodPost, "/api/v1/sessions", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PAYLOAD", decode[map[string]any](t, rec)["error"])
}

func TestListSessionMedia(t *testing.T) {
	ctx := context.Background()
	f := newAPIFixture(t)

	session, err := f.sessions.Create(ctx, "booth-1")
	require.NoError(t, err)
	_, err = f.assets.Create(ctx, models.MediaAsset{
		SessionID: session.ID,
		Kind:      models.MediaKindPhoto,
		LocalPath: filepath.Join(f.dir, "a.jpg"),
		Hash:      "h1",
	})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/v1/sessions/"+session.ID+"/media", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assets := decode[[]models.MediaAsset](t, rec)
	assert.Len(t, assets, 1)

	rec = f.do(t, http.MethodGet, "/api/v1/sessions/ghost/media", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", decode[map[string]any](t, rec)["error"])
}

func TestTemplateEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	templates := decode[[]models.Template](t, rec)
	require.Len(t, templates, 1)
	assert.Equal(t, "tmpl-4x6-classic", templates[0].ID)

	payload := gin.H{
		"id":   "tmpl-strip",
		"name": "Photo Strip",
		"canvasSize": gin.H{
			"width": 600, "height": 1800, "dpi": 300,
		},
		"slots": []gin.H{
			{"id": "s1", "placement": gin.H{"x": 0, "y": 0, "width": 600, "height": 600}},
			{"id": "s2", "placement": gin.H{"x": 0, "y": 600, "width": 600, "height": 600}},
		},
		"printProfileId": "print-strip",
	}
	rec = f.do(t, http.MethodPost, "/api/v1/templates", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	// A slot poking past the canvas is rejected.
	payload["slots"] = []gin.H{
		{"id": "s1", "placement": gin.H{"x": 0, "y": 0, "width": 700, "height": 600}},
	}
	rec = f.do(t, http.MethodPost, "/api/v1/templates", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SLOT_OUT_OF_BOUNDS", decode[map[string]any](t, rec)["error"])

	payload["slots"] = []gin.H{}
	rec = f.do(t, http.MethodPost, "/api/v1/templates", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMPTY_TEMPLATE", decode[map[string]any](t, rec)["error"])
}

func TestBrandProfileEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/brand-profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[models.BrandProfile](t, rec)
	assert.Equal(t, "brand-default", profile.ID)
}

func TestProjectEndpoints(t *testing.T) {
	ctx := context.Background()
	f := newAPIFixture(t)

	session, err := f.sessions.Create(ctx, "booth-1")
	require.NoError(t, err)
	asset, err := f.assets.Create(ctx, models.MediaAsset{
		SessionID: session.ID,
		Kind:      models.MediaKindPhoto,
		LocalPath: filepath.Join(f.dir, "a.jpg"),
		Hash:      "h1",
	})
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/v1/projects", gin.H{
		"sessionId":        session.ID,
		"selectedAssetIds": []string{asset.ID, "ghost"},
		"templateId":       "tmpl-4x6-classic",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	project := decode[models.EditProject](t, rec)
	// Unknown assets are dropped from the selection.
	assert.Equal(t, []string{asset.ID}, project.SelectedAssetIDs)
	assert.Equal(t, models.RenderStatusPending, project.RenderStatus)

	rec = f.do(t, http.MethodGet, "/api/v1/projects/"+project.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/v1/projects/"+project.ID, gin.H{
		"filterStack": []gin.H{{"id": "vivid", "intensity": 0.5}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[models.EditProject](t, rec)
	require.Len(t, updated.FilterStack, 1)
	assert.Equal(t, "vivid", updated.FilterStack[0].ID)

	rec = f.do(t, http.MethodPatch, "/api/v1/projects/"+project.ID, gin.H{
		"selectedAssetIds": []string{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMPTY_SELECTION", decode[map[string]any](t, rec)["error"])

	// Selection that resolves to nothing in this session.
	rec = f.do(t, http.MethodPost, "/api/v1/projects", gin.H{
		"sessionId":        session.ID,
		"selectedAssetIds": []string{"ghost"},
		"templateId":       "tmpl-4x6-classic",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "NO_VALID_SELECTED_ASSETS", decode[map[string]any](t, rec)["error"])

	rec = f.do(t, http.MethodGet, "/api/v1/projects/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PROJECT_NOT_FOUND", decode[map[string]any](t, rec)["error"])
}

func TestRenderProjectEndpointValidation(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/projects/ghost/render", gin.H{
		"brandProfileId": "brand-default",
		"qrTargetUrl":    "not-a-url",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/projects/ghost/render", gin.H{
		"brandProfileId": "brand-default",
		"qrTargetUrl":    "https://share.example/p",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PROJECT_NOT_FOUND", decode[map[string]any](t, rec)["error"])
}

func TestPrintJobEndpoints(t *testing.T) {
	ctx := context.Background()
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/print-jobs", gin.H{
		"projectId":        "ghost",
		"copies":           1,
		"printerProfileId": "print-4x6-300dpi",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	session, err := f.sessions.Create(ctx, "booth-1")
	require.NoError(t, err)
	asset, err := f.assets.Create(ctx, models.MediaAsset{
		SessionID: session.ID,
		Kind:      models.MediaKindPhoto,
		LocalPath: filepath.Join(f.dir, "a.jpg"),
		Hash:      "h1",
	})
	require.NoError(t, err)

	rec = f.do(t, http.MethodPost, "/api/v1/projects", gin.H{
		"sessionId":        session.ID,
		"selectedAssetIds": []string{asset.ID},
		"templateId":       "tmpl-4x6-classic",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	project := decode[models.EditProject](t, rec)

	rec = f.do(t, http.MethodPost, "/api/v1/print-jobs", gin.H{
		"projectId":        project.ID,
		"copies":           2,
		"printerProfileId": "print-4x6-300dpi",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	job := decode[models.PrintJob](t, rec)
	assert.Equal(t, models.PrintJobStatusQueued, job.Status)

	rec = f.do(t, http.MethodGet, "/api/v1/print-jobs/"+job.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/print-jobs/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
