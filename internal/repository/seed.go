package repository

import (
	"context"
	"errors"

	"photobooth/agent/internal/models"
)

// SeedDefaults installs the default 4x6 template and brand profile when the
// store is empty of them. Safe to call on every startup.
func SeedDefaults(ctx context.Context, templates *TemplateRepository, brands *BrandRepository) error {
	if _, err := templates.GetByID(ctx, "tmpl-4x6-classic"); errors.Is(err, ErrTemplateNotFound) {
		_, err = templates.Upsert(ctx, models.Template{
			ID:   "tmpl-4x6-classic",
			Name: "Classic 4x6",
			CanvasSize: models.CanvasSize{
				Width:  1200,
				Height: 1800,
				DPI:    300,
			},
			Slots: []models.TemplateSlot{
				{
					ID:           "slot-1",
					Placement:    models.Placement{X: 80, Y: 220, Width: 1040, Height: 1360},
					CornerRadius: 12,
				},
			},
			SafeAreas: []models.Placement{
				{X: 20, Y: 20, Width: 1160, Height: 1760},
			},
			PrintProfileID: "print-4x6-300dpi",
		})
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if _, err := brands.GetByID(ctx, "brand-default"); errors.Is(err, ErrBrandProfileNotFound) {
		_, err = brands.Upsert(ctx, models.BrandProfile{
			ID:            "brand-default",
			LogoAssetID:   "brand/logo.png",
			LogoPlacement: models.Placement{X: 40, Y: 40, Width: 280, Height: 110},
			QRPlacement:   models.Placement{X: 930, Y: 1540, Width: 220, Height: 220},
			DefaultTheme:  "classic",
		})
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}
