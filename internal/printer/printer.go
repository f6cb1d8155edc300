// Package printer owns the print job state machine:
// queued -> printing -> printed | failed. Terminal states are final; a
// failed job must be re-enqueued by the caller.
package printer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"photobooth/agent/internal/apperr"
	"photobooth/agent/internal/models"
	"photobooth/agent/internal/repository"
)

const (
	ErrCodeMissingRenderOutput = "MISSING_RENDER_OUTPUT"
	ErrCodePrintAdapterFailure = "PRINT_ADAPTER_FAILURE"
)

// Adapter is the one-shot hand-off to the physical printer. A nil return
// means the printer accepted the job.
type Adapter interface {
	Send(ctx context.Context, job models.PrintJob, outputPath string) error
}

// SpoolAdapter simulates dispatch to the platform spooler.
type SpoolAdapter struct {
	log zerolog.Logger
}

func NewSpoolAdapter(log zerolog.Logger) *SpoolAdapter {
	return &SpoolAdapter{log: log}
}

func (a *SpoolAdapter) Send(ctx context.Context, job models.PrintJob, outputPath string) error {
	a.log.Info().
		Str("print_job_id", job.ID).
		Str("printer", job.PrinterName).
		Str("output", outputPath).
		Int("copies", job.Copies).
		Msg("dispatching to print spooler")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(800 * time.Millisecond):
		return nil
	}
}

// Dispatcher creates print jobs and drives them to a terminal state in the
// background.
type Dispatcher struct {
	jobs        *repository.PrintJobRepository
	projects    *repository.ProjectRepository
	adapter     Adapter
	printerName string
	log         zerolog.Logger
}

func NewDispatcher(
	jobs *repository.PrintJobRepository,
	projects *repository.ProjectRepository,
	adapter Adapter,
	printerName string,
	log zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		jobs:        jobs,
		projects:    projects,
		adapter:     adapter,
		printerName: printerName,
		log:         log,
	}
}

// Enqueue validates the project exists, creates a queued job, and starts
// processing it out of band. The returned channel closes when the job has
// reached a terminal state; callers may ignore it.
func (d *Dispatcher) Enqueue(ctx context.Context, projectID string, copies int, printerProfileID string) (models.PrintJob, <-chan struct{}, error) {
	if copies < 1 {
		return models.PrintJob{}, nil, apperr.Validation("INVALID_COPIES", "copies must be at least 1")
	}
	if _, err := d.projects.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return models.PrintJob{}, nil, apperr.NotFound("PROJECT_NOT_FOUND", "no project found for id "+projectID)
		}
		return models.PrintJob{}, nil, err
	}

	job, err := d.jobs.Create(ctx, repository.CreatePrintJobInput{
		ProjectID:        projectID,
		Copies:           copies,
		PrinterProfileID: printerProfileID,
		PrinterName:      d.printerName,
	})
	if err != nil {
		return models.PrintJob{}, nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.process(context.WithoutCancel(ctx), job.ID)
	}()
	return job, done, nil
}

func (d *Dispatcher) process(ctx context.Context, jobID string) {
	job, err := d.jobs.GetByID(ctx, jobID)
	if err != nil {
		d.log.Error().Err(err).Str("print_job_id", jobID).Msg("reload print job")
		return
	}

	project, err := d.projects.GetByID(ctx, job.ProjectID)
	if err != nil || project.OutputPath == nil {
		d.fail(ctx, job.ID, ErrCodeMissingRenderOutput)
		return
	}

	if err := d.jobs.UpdateStatus(ctx, job.ID, models.PrintJobStatusPrinting, nil); err != nil {
		d.log.Error().Err(err).Str("print_job_id", job.ID).Msg("mark printing")
		return
	}

	if err := d.adapter.Send(ctx, job, *project.OutputPath); err != nil {
		d.log.Error().Err(err).Str("print_job_id", job.ID).Msg("print job failed")
		d.fail(ctx, job.ID, ErrCodePrintAdapterFailure)
		return
	}

	if err := d.jobs.UpdateStatus(ctx, job.ID, models.PrintJobStatusPrinted, nil); err != nil {
		d.log.Error().Err(err).Str("print_job_id", job.ID).Msg("mark printed")
		return
	}
	d.log.Info().Str("print_job_id", job.ID).Msg("print job completed")
}

func (d *Dispatcher) fail(ctx context.Context, jobID, code string) {
	if err := d.jobs.UpdateStatus(ctx, jobID, models.PrintJobStatusFailed, &code); err != nil {
		d.log.Error().Err(err).Str("print_job_id", jobID).Msg("mark failed")
	}
}
