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

var ErrShareLinkNotFound = errors.New("share link not found")

type ShareLinkRepository struct {
	db *database.DB
}

func NewShareLinkRepository(db *database.DB) *ShareLinkRepository {
	return &ShareLinkRepository{db: db}
}

// Create mints a share link row; one is created per successful render.
func (r *ShareLinkRepository) Create(ctx context.Context, projectID, token, url string, expiresAt *time.Time) (models.ShareLink, error) {
	link := models.ShareLink{
		ID:          ids.New(),
		ProjectID:   projectID,
		PublicToken: token,
		URL:         url,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}

	const query = `
		INSERT INTO share_links (id, project_id, public_token, url, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.SQL().ExecContext(ctx, query,
		link.ID,
		link.ProjectID,
		link.PublicToken,
		link.URL,
		formatTime(link.CreatedAt),
		formatNullTime(link.ExpiresAt),
	)
	if err != nil {
		return models.ShareLink{}, err
	}
	return link, nil
}

// LatestByProject returns the most recent share link for the project.
func (r *ShareLinkRepository) LatestByProject(ctx context.Context, projectID string) (models.ShareLink, error) {
	const query = `
		SELECT id, project_id, public_token, url, created_at, expires_at
		FROM share_links
		WHERE project_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		link      models.ShareLink
		createdAt string
		expiresAt sql.NullString
	)
	err := r.db.SQL().QueryRowContext(ctx, query, projectID).Scan(
		&link.ID,
		&link.ProjectID,
		&link.PublicToken,
		&link.URL,
		&createdAt,
		&expiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ShareLink{}, ErrShareLinkNotFound
	}
	if err != nil {
		return models.ShareLink{}, err
	}
	link.CreatedAt = parseTime(createdAt)
	link.ExpiresAt = parseNullTime(expiresAt)
	return link, nil
}
