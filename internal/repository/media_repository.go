package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"photobooth/agent/internal/database"
	"photobooth/agent/internal/ids"
	"photobooth/agent/internal/models"
)

var ErrMediaAssetNotFound = errors.New("media asset not found")

type MediaRepository struct {
	db *database.DB
}

func NewMediaRepository(db *database.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

const mediaColumns = `id, session_id, kind, local_path, preview_path, captured_at, hash, sync_state`

// Create persists a freshly ingested asset. The id and sync marker are
// assigned here; assets are never mutated afterwards except the marker.
func (r *MediaRepository) Create(ctx context.Context, asset models.MediaAsset) (models.MediaAsset, error) {
	asset.ID = ids.New()
	asset.SyncState = models.SyncStatePending

	const query = `
		INSERT INTO media_assets (id, session_id, kind, local_path, preview_path, captured_at, hash, sync_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'pending')
	`
	_, err := r.db.SQL().ExecContext(ctx, query,
		asset.ID,
		asset.SessionID,
		asset.Kind,
		asset.LocalPath,
		nullString(asset.PreviewPath),
		formatTime(asset.CapturedAt),
		asset.Hash,
	)
	if err != nil {
		return models.MediaAsset{}, err
	}
	return asset, nil
}

func (r *MediaRepository) GetByID(ctx context.Context, id string) (models.MediaAsset, error) {
	row := r.db.SQL().QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media_assets WHERE id = ?`, id)
	asset, err := scanMediaAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MediaAsset{}, ErrMediaAssetNotFound
	}
	return asset, err
}

func (r *MediaRepository) ListBySession(ctx context.Context, sessionID string) ([]models.MediaAsset, error) {
	const query = `
		SELECT ` + mediaColumns + `
		FROM media_assets
		WHERE session_id = ?
		ORDER BY captured_at ASC
	`
	return r.queryMany(ctx, query, sessionID)
}

// GetByIDs resolves a set of asset ids. Missing ids are simply absent from
// the result; callers decide whether that is an error.
func (r *MediaRepository) GetByIDs(ctx context.Context, assetIDs []string) ([]models.MediaAsset, error) {
	if len(assetIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(assetIDs)), ", ")
	args := make([]any, len(assetIDs))
	for i, id := range assetIDs {
		args[i] = id
	}
	return r.queryMany(ctx, `SELECT `+mediaColumns+` FROM media_assets WHERE id IN (`+placeholders+`)`, args...)
}

func (r *MediaRepository) ListPending(ctx context.Context) ([]models.MediaAsset, error) {
	const query = `
		SELECT ` + mediaColumns + `
		FROM media_assets
		WHERE sync_state = 'pending'
		ORDER BY captured_at ASC
	`
	return r.queryMany(ctx, query)
}

func (r *MediaRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.SQL().ExecContext(ctx, `UPDATE media_assets SET sync_state = 'synced' WHERE id = ?`, id)
	return err
}

func (r *MediaRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.SQL().QueryRowContext(ctx, `SELECT COUNT(*) FROM media_assets WHERE sync_state = 'pending'`).Scan(&count)
	return count, err
}

func (r *MediaRepository) queryMany(ctx context.Context, query string, args ...any) ([]models.MediaAsset, error) {
	rows, err := r.db.SQL().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []models.MediaAsset
	for rows.Next() {
		asset, err := scanMediaAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

func scanMediaAsset(row rowScanner) (models.MediaAsset, error) {
	var (
		asset       models.MediaAsset
		previewPath sql.NullString
		capturedAt  string
		hash        sql.NullString
	)
	if err := row.Scan(
		&asset.ID,
		&asset.SessionID,
		&asset.Kind,
		&asset.LocalPath,
		&previewPath,
		&capturedAt,
		&hash,
		&asset.SyncState,
	); err != nil {
		return models.MediaAsset{}, err
	}
	asset.PreviewPath = stringPtr(previewPath)
	asset.CapturedAt = parseTime(capturedAt)
	asset.Hash = hash.String
	return asset, nil
}
