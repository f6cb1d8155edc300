package repository

import (
	"context"
	"database/sql"
	"errors"

	"photobooth/agent/internal/database"
	"photobooth/agent/internal/models"
)

var ErrBrandProfileNotFound = errors.New("brand profile not found")

type BrandRepository struct {
	db *database.DB
}

func NewBrandRepository(db *database.DB) *BrandRepository {
	return &BrandRepository{db: db}
}

func (r *BrandRepository) GetByID(ctx context.Context, id string) (models.BrandProfile, error) {
	const query = `
		SELECT id, logo_asset_id, logo_placement_json, qr_placement_json, default_theme
		FROM brand_profiles WHERE id = ?
	`
	var (
		profile       models.BrandProfile
		logoPlacement string
		qrPlacement   string
	)
	err := r.db.SQL().QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&profile.LogoAssetID,
		&logoPlacement,
		&qrPlacement,
		&profile.DefaultTheme,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BrandProfile{}, ErrBrandProfileNotFound
	}
	if err != nil {
		return models.BrandProfile{}, err
	}
	profile.LogoPlacement = unmarshalJSON(logoPlacement, models.Placement{X: 20, Y: 20, Width: 120, Height: 80})
	profile.QRPlacement = unmarshalJSON(qrPlacement, models.Placement{X: 1020, Y: 1620, Width: 150, Height: 150})
	return profile, nil
}

func (r *BrandRepository) Upsert(ctx context.Context, profile models.BrandProfile) (models.BrandProfile, error) {
	logoJSON, err := marshalJSON(profile.LogoPlacement)
	if err != nil {
		return models.BrandProfile{}, err
	}
	qrJSON, err := marshalJSON(profile.QRPlacement)
	if err != nil {
		return models.BrandProfile{}, err
	}

	const query = `
		INSERT INTO brand_profiles (id, logo_asset_id, logo_placement_json, qr_placement_json, default_theme)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			logo_asset_id = excluded.logo_asset_id,
			logo_placement_json = excluded.logo_placement_json,
			qr_placement_json = excluded.qr_placement_json,
			default_theme = excluded.default_theme
	`
	_, err = r.db.SQL().ExecContext(ctx, query,
		profile.ID,
		profile.LogoAssetID,
		logoJSON,
		qrJSON,
		profile.DefaultTheme,
	)
	if err != nil {
		return models.BrandProfile{}, err
	}
	return profile, nil
}
