package printer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photobooth/agent/internal/apperr"
	"photobooth/agent/internal/database"
	"photobooth/agent/internal/models"
	"photobooth/agent/internal/repository"
)

type fakeAdapter struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (a *fakeAdapter) Send(_ context.Context, _ models.PrintJob, outputPath string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.sent = append(a.sent, outputPath)
	return nil
}

func (a *fakeAdapter) sentPaths() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.sent...)
}

type dispatcherFixture struct {
	dispatcher *Dispatcher
	adapter    *fakeAdapter
	jobs       *repository.PrintJobRepository
	projects   *repository.ProjectRepository
	sessions   *repository.SessionRepository
}

func newDispatcherFixture(t *testing.T) dispatcherFixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "agent.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adapter := &fakeAdapter{}
	jobs := repository.NewPrintJobRepository(db)
	projects := repository.NewProjectRepository(db)
	sessions := repository.NewSessionRepository(db)

	return dispatcherFixture{
		dispatcher: NewDispatcher(jobs, projects, adapter, "test-printer", zerolog.Nop()),
		adapter:    adapter,
		jobs:       jobs,
		projects:   projects,
		sessions:   sessions,
	}
}

func (f dispatcherFixture) createProject(t *testing.T, rendered bool) models.EditProject {
	t.Helper()
	ctx := context.Background()
	session, err := f.sessions.Create(ctx, "booth-1")
	require.NoError(t, err)

	project, err := f.projects.Create(ctx, repository.CreateProjectInput{
		SessionID:        session.ID,
		SelectedAssetIDs: []string{"asset-1"},
		TemplateID:       "tmpl-4x6-classic",
	})
	require.NoError(t, err)

	if rendered {
		output := "/renders/" + project.ID + ".jpg"
		require.NoError(t, f.projects.UpdateRender(ctx, project.ID, models.RenderStatusRendered, &output))
	}
	return project
}

func awaitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("print job did not reach a terminal state")
	}
}

func TestEnqueue_PrintsRenderedProject(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)
	project := f.createProject(t, true)

	job, done, err := f.dispatcher.Enqueue(ctx, project.ID, 2, "print-4x6-300dpi")
	require.NoError(t, err)
	assert.Equal(t, models.PrintJobStatusQueued, job.Status)
	assert.Equal(t, 2, job.Copies)
	assert.Equal(t, "test-printer", job.PrinterName)

	awaitDone(t, done)

	stored, err := f.jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrintJobStatusPrinted, stored.Status)
	assert.Nil(t, stored.ErrorCode)
	assert.Equal(t, []string{"/renders/" + project.ID + ".jpg"}, f.adapter.sentPaths())
}

func TestEnqueue_FailsWithoutRenderOutput(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)
	project := f.createProject(t, false)

	job, done, err := f.dispatcher.Enqueue(ctx, project.ID, 1, "print-4x6-300dpi")
	require.NoError(t, err)
	awaitDone(t, done)

	stored, err := f.jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrintJobStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorCode)
	assert.Equal(t, ErrCodeMissingRenderOutput, *stored.ErrorCode)
	assert.Empty(t, f.adapter.sentPaths())
}

func TestEnqueue_AdapterFailureMarksFailed(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)
	f.adapter.err = errors.New("spooler offline")
	project := f.createProject(t, true)

	job, done, err := f.dispatcher.Enqueue(ctx, project.ID, 1, "print-4x6-300dpi")
	require.NoError(t, err)
	awaitDone(t, done)

	stored, err := f.jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrintJobStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorCode)
	assert.Equal(t, ErrCodePrintAdapterFailure, *stored.ErrorCode)
}

func TestEnqueue_ValidatesInput(t *testing.T) {
	ctx := context.Background()
	f := newDispatcherFixture(t)
	project := f.createProject(t, true)

	_, _, err := f.dispatcher.Enqueue(ctx, project.ID, 0, "print-4x6-300dpi")
	appErr := apperr.As(err)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)

	_, _, err = f.dispatcher.Enqueue(ctx, "missing-project", 1, "print-4x6-300dpi")
	appErr = apperr.As(err)
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
	assert.Equal(t, "PROJECT_NOT_FOUND", appErr.Code)
}
