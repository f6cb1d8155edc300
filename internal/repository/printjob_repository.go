package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"photobooth/agent/internal/database"
	"photobooth/agent/internal/ids"
	"photobooth/agent/internal/models"
)

var ErrPrintJobNotFound = errors.New("print job not found")

type PrintJobRepository struct {
	db *database.DB
}

func NewPrintJobRepository(db *database.DB) *PrintJobRepository {
	return &PrintJobRepository{db: db}
}

type CreatePrintJobInput struct {
	ProjectID        string
	Copies           int
	PrinterProfileID string
	PrinterName      string
}

func (r *PrintJobRepository) Create(ctx context.Context, input CreatePrintJobInput) (models.PrintJob, error) {
	now := time.Now().UTC()
	job := models.PrintJob{
		ID:               ids.New(),
		ProjectID:        input.ProjectID,
		Copies:           input.Copies,
		PrinterProfileID: input.PrinterProfileID,
		PrinterName:      input.PrinterName,
		Status:           models.PrintJobStatusQueued,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	const query = `
		INSERT INTO print_jobs (
			id, project_id, copies, printer_profile_id, printer_name,
			status, error_code, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.SQL().ExecContext(ctx, query,
		job.ID,
		job.ProjectID,
		job.Copies,
		job.PrinterProfileID,
		job.PrinterName,
		job.Status,
		nullString(job.ErrorCode),
		formatTime(job.CreatedAt),
		formatTime(job.UpdatedAt),
	)
	if err != nil {
		return models.PrintJob{}, err
	}
	return job, nil
}

func (r *PrintJobRepository) GetByID(ctx context.Context, id string) (models.PrintJob, error) {
	const query = `
		SELECT id, project_id, copies, printer_profile_id, printer_name,
		       status, error_code, created_at, updated_at
		FROM print_jobs WHERE id = ?
	`
	var (
		job       models.PrintJob
		errorCode sql.NullString
		createdAt string
		updatedAt string
	)
	err := r.db.SQL().QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.ProjectID,
		&job.Copies,
		&job.PrinterProfileID,
		&job.PrinterName,
		&job.Status,
		&errorCode,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PrintJob{}, ErrPrintJobNotFound
	}
	if err != nil {
		return models.PrintJob{}, err
	}
	job.ErrorCode = stringPtr(errorCode)
	job.CreatedAt = parseTime(createdAt)
	job.UpdatedAt = parseTime(updatedAt)
	return job, nil
}

// UpdateStatus moves the job through its state machine. errorCode is nil
// for non-failure transitions.
func (r *PrintJobRepository) UpdateStatus(ctx context.Context, id string, status models.PrintJobStatus, errorCode *string) error {
	const query = `
		UPDATE print_jobs SET status = ?, error_code = ?, updated_at = ? WHERE id = ?
	`
	_, err := r.db.SQL().ExecContext(ctx, query,
		status,
		nullString(errorCode),
		formatTime(time.Now().UTC()),
		id,
	)
	return err
}
