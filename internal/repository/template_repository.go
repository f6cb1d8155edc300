package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"photobooth/agent/internal/database"
	"photobooth/agent/internal/models"
)

var ErrTemplateNotFound = errors.New("template not found")

type TemplateRepository struct {
	db *database.DB
}

func NewTemplateRepository(db *database.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (models.Template, error) {
	const query = `
		SELECT id, name, canvas_width, canvas_height, canvas_dpi, slots_json,
		       safe_areas_json, print_profile_id, created_at, updated_at
		FROM templates WHERE id = ?
	`
	template, err := scanTemplate(r.db.SQL().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Template{}, ErrTemplateNotFound
	}
	return template, err
}

func (r *TemplateRepository) List(ctx context.Context) ([]models.Template, error) {
	const query = `
		SELECT id, name, canvas_width, canvas_height, canvas_dpi, slots_json,
		       safe_areas_json, print_profile_id, created_at, updated_at
		FROM templates
		ORDER BY updated_at DESC
	`
	rows, err := r.db.SQL().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, template)
	}
	return templates, rows.Err()
}

// Upsert inserts or replaces the template under its id; reference data is
// versioned only by its updated_at timestamp.
func (r *TemplateRepository) Upsert(ctx context.Context, template models.Template) (models.Template, error) {
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	slotsJSON, err := marshalJSON(template.Slots)
	if err != nil {
		return models.Template{}, err
	}
	safeAreasJSON, err := marshalJSON(template.SafeAreas)
	if err != nil {
		return models.Template{}, err
	}

	const query = `
		INSERT INTO templates (
			id, name, canvas_width, canvas_height, canvas_dpi, slots_json,
			safe_areas_json, print_profile_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			canvas_width = excluded.canvas_width,
			canvas_height = excluded.canvas_height,
			canvas_dpi = excluded.canvas_dpi,
			slots_json = excluded.slots_json,
			safe_areas_json = excluded.safe_areas_json,
			print_profile_id = excluded.print_profile_id,
			updated_at = excluded.updated_at
	`
	_, err = r.db.SQL().ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.CanvasSize.Width,
		template.CanvasSize.Height,
		template.CanvasSize.DPI,
		slotsJSON,
		safeAreasJSON,
		template.PrintProfileID,
		formatTime(template.CreatedAt),
		formatTime(template.UpdatedAt),
	)
	if err != nil {
		return models.Template{}, err
	}
	return template, nil
}

func scanTemplate(row rowScanner) (models.Template, error) {
	var (
		template      models.Template
		slotsJSON     string
		safeAreasJSON string
		createdAt     string
		updatedAt     string
	)
	if err := row.Scan(
		&template.ID,
		&template.Name,
		&template.CanvasSize.Width,
		&template.CanvasSize.Height,
		&template.CanvasSize.DPI,
		&slotsJSON,
		&safeAreasJSON,
		&template.PrintProfileID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return models.Template{}, err
	}
	template.Slots = unmarshalJSON(slotsJSON, []models.TemplateSlot{})
	template.SafeAreas = unmarshalJSON(safeAreasJSON, []models.Placement{})
	template.CreatedAt = parseTime(createdAt)
	template.UpdatedAt = parseTime(updatedAt)
	return template, nil
}
