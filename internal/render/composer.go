// Package render produces the final branded composite for an edit project.
// Layer order is fixed: background canvas, photo slots, stickers, QR code,
// brand logo. Later layers draw over earlier ones.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/rs/zerolog"

	"photobooth/agent/internal/ids"
	"photobooth/agent/internal/models"
	"photobooth/agent/internal/templatefit"
)

const outputJPEGQuality = 95

type Composer struct {
	renderDir string
	mediaDir  string
	log       zerolog.Logger
}

func NewComposer(renderDir, mediaDir string, log zerolog.Logger) *Composer {
	return &Composer{renderDir: renderDir, mediaDir: mediaDir, log: log}
}

type Input struct {
	Project     models.EditProject
	Template    models.Template
	Brand       models.BrandProfile
	PhotoAssets []models.MediaAsset
	QRTargetURL string
}

// rect is a clamped integer placement, guaranteed inside the canvas.
type rect struct {
	x, y, w, h int
}

// clamp forces a placement inside the canvas: the origin never precedes
// (0,0) or passes the far edge, and the extent never crosses the
// right/bottom edge. Width and height stay at least 1px.
func clamp(p models.Placement, maxW, maxH int) rect {
	x := math.Max(0, math.Min(p.X, float64(maxW-1)))
	y := math.Max(0, math.Min(p.Y, float64(maxH-1)))
	w := math.Max(1, math.Min(p.Width, float64(maxW)-x))
	h := math.Max(1, math.Min(p.Height, float64(maxH)-y))
	return rect{
		x: int(math.Round(x)),
		y: int(math.Round(y)),
		w: int(math.Round(w)),
		h: int(math.Round(h)),
	}
}

// Render composites the project onto a fresh canvas and writes a JPEG to a
// unique path under the render directory, returning that path.
func (c *Composer) Render(input Input) (string, error) {
	width := input.Template.CanvasSize.Width
	height := input.Template.CanvasSize.Height
	canvas := imaging.New(width, height, color.White)

	photosByID := make(map[string]models.MediaAsset, len(input.PhotoAssets))
	for _, asset := range input.PhotoAssets {
		photosByID[asset.ID] = asset
	}

	for _, assignment := range templatefit.Fit(input.Template, input.Project.SelectedAssetIDs) {
		asset, ok := photosByID[assignment.SourceAssetID]
		if !ok {
			continue
		}

		slot := clamp(assignment.Placement, width, height)
		photo, err := imaging.Open(asset.LocalPath, imaging.AutoOrientation(true))
		if err != nil {
			return "", fmt.Errorf("open photo %s: %w", asset.ID, err)
		}
		filled := imaging.Fill(photo, slot.w, slot.h, imaging.Center, imaging.Lanczos)
		filtered := applyFilterStack(filled, input.Project.FilterStack)
		canvas = imaging.Paste(canvas, filtered, image.Pt(slot.x, slot.y))
	}

	for _, sticker := range input.Project.Stickers {
		place := clamp(sticker.Placement(), width, height)
		path := sticker.AssetPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.mediaDir, path)
		}
		if _, err := os.Stat(path); err != nil {
			c.log.Debug().Str("sticker", sticker.ID).Str("path", path).Msg("sticker asset missing, skipping")
			continue
		}

		img, err := imaging.Open(path)
		if err != nil {
			return "", fmt.Errorf("open sticker %s: %w", sticker.ID, err)
		}
		// Rotate before fitting: rotation grows the bounding box, so the
		// fit keeps the rotated result inside the clamped placement.
		if sticker.Rotation != 0 {
			img = imaging.Rotate(img, -sticker.Rotation, color.Transparent)
		}
		img = imaging.Fit(img, place.w, place.h, imaging.Lanczos)
		canvas = imaging.Overlay(canvas, img, image.Pt(place.x, place.y), 1.0)
	}

	qrPlace := clamp(input.Brand.QRPlacement, width, height)
	qr, err := qrcode.New(input.QRTargetURL, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr target: %w", err)
	}
	canvas = imaging.Paste(canvas, qr.Image(qrPlace.w), image.Pt(qrPlace.x, qrPlace.y))

	logoPath := filepath.Join(c.mediaDir, input.Brand.LogoAssetID)
	if info, err := os.Stat(logoPath); err == nil && !info.IsDir() {
		logo, err := imaging.Open(logoPath, imaging.AutoOrientation(true))
		if err != nil {
			return "", fmt.Errorf("open brand logo: %w", err)
		}
		logoPlace := clamp(input.Brand.LogoPlacement, width, height)
		logo = imaging.Fit(logo, logoPlace.w, logoPlace.h, imaging.Lanczos)
		canvas = imaging.Overlay(canvas, logo, image.Pt(logoPlace.x, logoPlace.y), 1.0)
	}

	outputPath := filepath.Join(c.renderDir, fmt.Sprintf("%s-%s.jpg", input.Project.ID, ids.New()))
	if err := imaging.Save(canvas, outputPath, imaging.JPEGQuality(outputJPEGQuality)); err != nil {
		return "", fmt.Errorf("save render output: %w", err)
	}
	return outputPath, nil
}
