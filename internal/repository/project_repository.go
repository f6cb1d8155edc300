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

var ErrProjectNotFound = errors.New("edit project not found")

type ProjectRepository struct {
	db *database.DB
}

func NewProjectRepository(db *database.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

type CreateProjectInput struct {
	SessionID        string
	SelectedAssetIDs []string
	FilterStack      []models.FilterSpec
	Stickers         []models.StickerSpec
	TemplateID       string
}

// ProjectUpdate carries a partial edit; nil fields keep their current
// value. Any applied update flags the project for re-sync and implies a
// re-render is needed.
type ProjectUpdate struct {
	SelectedAssetIDs []string
	FilterStack      []models.FilterSpec
	Stickers         []models.StickerSpec
	TemplateID       *string
}

func (r *ProjectRepository) Create(ctx context.Context, input CreateProjectInput) (models.EditProject, error) {
	now := time.Now().UTC()
	project := models.EditProject{
		ID:               ids.New(),
		SessionID:        input.SessionID,
		SelectedAssetIDs: input.SelectedAssetIDs,
		FilterStack:      input.FilterStack,
		Stickers:         input.Stickers,
		TemplateID:       input.TemplateID,
		RenderStatus:     models.RenderStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
		SyncState:        models.SyncStatePending,
	}
	if project.FilterStack == nil {
		project.FilterStack = []models.FilterSpec{}
	}
	if project.Stickers == nil {
		project.Stickers = []models.StickerSpec{}
	}

	selectedJSON, err := marshalJSON(project.SelectedAssetIDs)
	if err != nil {
		return models.EditProject{}, err
	}
	filtersJSON, err := marshalJSON(project.FilterStack)
	if err != nil {
		return models.EditProject{}, err
	}
	stickersJSON, err := marshalJSON(project.Stickers)
	if err != nil {
		return models.EditProject{}, err
	}

	const query = `
		INSERT INTO edit_projects (
			id, session_id, selected_asset_ids, filter_stack, stickers, template_id,
			render_status, output_path, created_at, updated_at, sync_state
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')
	`
	_, err = r.db.SQL().ExecContext(ctx, query,
		project.ID,
		project.SessionID,
		selectedJSON,
		filtersJSON,
		stickersJSON,
		project.TemplateID,
		project.RenderStatus,
		nullString(project.OutputPath),
		formatTime(project.CreatedAt),
		formatTime(project.UpdatedAt),
	)
	if err != nil {
		return models.EditProject{}, err
	}
	return project, nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (models.EditProject, error) {
	const query = `
		SELECT id, session_id, selected_asset_ids, filter_stack, stickers, template_id,
		       render_status, output_path, created_at, updated_at, sync_state
		FROM edit_projects WHERE id = ?
	`
	project, err := scanProject(r.db.SQL().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.EditProject{}, ErrProjectNotFound
	}
	return project, err
}

func (r *ProjectRepository) Update(ctx context.Context, id string, update ProjectUpdate) (models.EditProject, error) {
	project, err := r.GetByID(ctx, id)
	if err != nil {
		return models.EditProject{}, err
	}

	if update.SelectedAssetIDs != nil {
		project.SelectedAssetIDs = update.SelectedAssetIDs
	}
	if update.FilterStack != nil {
		project.FilterStack = update.FilterStack
	}
	if update.Stickers != nil {
		project.Stickers = update.Stickers
	}
	if update.TemplateID != nil {
		project.TemplateID = *update.TemplateID
	}
	project.UpdatedAt = time.Now().UTC()
	project.SyncState = models.SyncStatePending

	selectedJSON, err := marshalJSON(project.SelectedAssetIDs)
	if err != nil {
		return models.EditProject{}, err
	}
	filtersJSON, err := marshalJSON(project.FilterStack)
	if err != nil {
		return models.EditProject{}, err
	}
	stickersJSON, err := marshalJSON(project.Stickers)
	if err != nil {
		return models.EditProject{}, err
	}

	const query = `
		UPDATE edit_projects SET
			selected_asset_ids = ?,
			filter_stack = ?,
			stickers = ?,
			template_id = ?,
			updated_at = ?,
			sync_state = 'pending'
		WHERE id = ?
	`
	_, err = r.db.SQL().ExecContext(ctx, query,
		selectedJSON,
		filtersJSON,
		stickersJSON,
		project.TemplateID,
		formatTime(project.UpdatedAt),
		id,
	)
	if err != nil {
		return models.EditProject{}, err
	}
	return project, nil
}

// UpdateRender records a render outcome. outputPath is nil for failures.
func (r *ProjectRepository) UpdateRender(ctx context.Context, id string, status models.RenderStatus, outputPath *string) error {
	const query = `
		UPDATE edit_projects
		SET render_status = ?, output_path = ?, updated_at = ?, sync_state = 'pending'
		WHERE id = ?
	`
	_, err := r.db.SQL().ExecContext(ctx, query,
		status,
		nullString(outputPath),
		formatTime(time.Now().UTC()),
		id,
	)
	return err
}

// ListPendingRendered returns pending-sync projects that have a rendered
// output, the only projects the reconciler pushes as finals.
func (r *ProjectRepository) ListPendingRendered(ctx context.Context) ([]models.EditProject, error) {
	const query = `
		SELECT id, session_id, selected_asset_ids, filter_stack, stickers, template_id,
		       render_status, output_path, created_at, updated_at, sync_state
		FROM edit_projects
		WHERE sync_state = 'pending' AND output_path IS NOT NULL
	`
	rows, err := r.db.SQL().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.EditProject
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.SQL().ExecContext(ctx, `UPDATE edit_projects SET sync_state = 'synced' WHERE id = ?`, id)
	return err
}

func (r *ProjectRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.SQL().QueryRowContext(ctx, `SELECT COUNT(*) FROM edit_projects WHERE sync_state = 'pending'`).Scan(&count)
	return count, err
}

func scanProject(row rowScanner) (models.EditProject, error) {
	var (
		project      models.EditProject
		selectedJSON string
		filtersJSON  string
		stickersJSON string
		outputPath   sql.NullString
		createdAt    string
		updatedAt    string
	)
	if err := row.Scan(
		&project.ID,
		&project.SessionID,
		&selectedJSON,
		&filtersJSON,
		&stickersJSON,
		&project.TemplateID,
		&project.RenderStatus,
		&outputPath,
		&createdAt,
		&updatedAt,
		&project.SyncState,
	); err != nil {
		return models.EditProject{}, err
	}
	project.SelectedAssetIDs = unmarshalJSON(selectedJSON, []string{})
	project.FilterStack = unmarshalJSON(filtersJSON, []models.FilterSpec{})
	project.Stickers = unmarshalJSON(stickersJSON, []models.StickerSpec{})
	project.OutputPath = stringPtr(outputPath)
	project.CreatedAt = parseTime(createdAt)
	project.UpdatedAt = parseTime(updatedAt)
	return project, nil
}
