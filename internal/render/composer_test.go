package render

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photobooth/agent/internal/models"
)

func TestClamp(t *testing.T) {
	cases := []struct {
		name string
		in   models.Placement
		want rect
	}{
		{
			name: "inside canvas untouched",
			in:   models.Placement{X: 10, Y: 20, Width: 100, Height: 50},
			want: rect{x: 10, y: 20, w: 100, h: 50},
		},
		{
			name: "negative origin pinned to zero",
			in:   models.Placement{X: -30, Y: -5, Width: 100, Height: 50},
			want: rect{x: 0, y: 0, w: 100, h: 50},
		},
		{
			name: "overflow trimmed at far edge",
			in:   models.Placement{X: 150, Y: 180, Width: 100, Height: 100},
			want: rect{x: 150, y: 180, w: 50, h: 20},
		},
		{
			name: "origin past edge keeps minimum size",
			in:   models.Placement{X: 500, Y: 500, Width: 10, Height: 10},
			want: rect{x: 199, y: 199, w: 1, h: 1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, clamp(tc.in, 200, 200))
		})
	}
}

func savePNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	require.NoError(t, imaging.Save(imaging.New(w, h, c), path))
}

func TestRender_LayerOrderAndOutput(t *testing.T) {
	dir := t.TempDir()
	mediaDir := filepath.Join(dir, "media")
	renderDir := filepath.Join(dir, "renders")
	require.NoError(t, os.MkdirAll(filepath.Join(mediaDir, "brand"), 0o755))
	require.NoError(t, os.MkdirAll(renderDir, 0o755))

	photoPath := filepath.Join(mediaDir, "photo.jpg")
	savePNG(t, photoPath, 400, 400, color.NRGBA{R: 220, A: 255})
	savePNG(t, filepath.Join(mediaDir, "sticker.png"), 60, 60, color.NRGBA{G: 200, A: 255})
	savePNG(t, filepath.Join(mediaDir, "brand", "logo.png"), 80, 40, color.NRGBA{B: 220, A: 255})

	composer := NewComposer(renderDir, mediaDir, zerolog.Nop())

	project := models.EditProject{
		ID:               "proj-1",
		SelectedAssetIDs: []string{"asset-1"},
		Stickers: []models.StickerSpec{
			// Overlaps the photo slot; must draw over it.
			{ID: "st-1", AssetPath: "sticker.png", X: 120, Y: 120, Width: 60, Height: 60},
		},
	}
	template := models.Template{
		ID:         "tmpl-test",
		CanvasSize: models.CanvasSize{Width: 600, Height: 600, DPI: 300},
		Slots: []models.TemplateSlot{
			{ID: "slot-1", Placement: models.Placement{X: 100, Y: 100, Width: 200, Height: 200}},
		},
	}
	brand := models.BrandProfile{
		ID:            "brand-default",
		LogoAssetID:   "brand/logo.png",
		LogoPlacement: models.Placement{X: 10, Y: 540, Width: 80, Height: 40},
		QRPlacement:   models.Placement{X: 450, Y: 450, Width: 120, Height: 120},
	}
	photo := models.MediaAsset{ID: "asset-1", Kind: models.MediaKindPhoto, LocalPath: photoPath}

	outputPath, err := composer.Render(Input{
		Project:     project,
		Template:    template,
		Brand:       brand,
		PhotoAssets: []models.MediaAsset{photo},
		QRTargetURL: "https://share.example/p/tok123",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(outputPath), "proj-1-"))

	img, err := imaging.Open(outputPath)
	require.NoError(t, err)
	require.Equal(t, 600, img.Bounds().Dx())
	require.Equal(t, 600, img.Bounds().Dy())

	nrgba := imaging.Clone(img)
	at := func(x, y int) color.NRGBA {
		return nrgba.NRGBAAt(x, y)
	}

	// Background stays white outside every layer.
	bg := at(5, 5)
	assert.Greater(t, int(bg.R), 200)
	assert.Greater(t, int(bg.G), 200)
	assert.Greater(t, int(bg.B), 200)

	// Photo slot region is red.
	photoPx := at(250, 250)
	assert.Greater(t, int(photoPx.R), 150)
	assert.Less(t, int(photoPx.G), 100)

	// Sticker overlapping the slot wins over the photo underneath.
	stickerPx := at(150, 150)
	assert.Greater(t, int(stickerPx.G), 120)
	assert.Less(t, int(stickerPx.R), 120)

	// Logo drawn last in its own corner.
	logoPx := at(30, 555)
	assert.Greater(t, int(logoPx.B), 150)
}

func TestRender_RotatedStickerStaysInsidePlacement(t *testing.T) {
	dir := t.TempDir()
	savePNG(t, filepath.Join(dir, "sticker.png"), 100, 100, color.NRGBA{G: 254, A: 255})

	composer := NewComposer(dir, dir, zerolog.Nop())

	outputPath, err := composer.Render(Input{
		Project: models.EditProject{
			ID: "proj-rot",
			Stickers: []models.StickerSpec{
				{ID: "st-rot", AssetPath: "sticker.png", X: 200, Y: 200, Width: 100, Height: 100, Rotation: 45},
			},
		},
		Template:    models.Template{CanvasSize: models.CanvasSize{Width: 600, Height: 600}, Slots: []models.TemplateSlot{{ID: "s1", Placement: models.Placement{Width: 50, Height: 50}}}},
		Brand:       models.BrandProfile{QRPlacement: models.Placement{X: 450, Y: 450, Width: 120, Height: 120}},
		QRTargetURL: "https://share.example/p/tok",
	})
	require.NoError(t, err)

	img, err := imaging.Open(outputPath)
	require.NoError(t, err)
	nrgba := imaging.Clone(img)

	// The rotated sticker must not bleed past its 100x100 box at (200,200).
	for _, pt := range []struct{ x, y int }{
		{330, 270}, {270, 330}, {180, 250}, {250, 180},
	} {
		px := nrgba.NRGBAAt(pt.x, pt.y)
		assert.Less(t, int(px.G)-int(px.R), 60, "sticker pixel outside placement at (%d,%d)", pt.x, pt.y)
	}

	// The diamond's center still lands inside the box.
	center := nrgba.NRGBAAt(250, 250)
	assert.Greater(t, int(center.G), 150)
	assert.Less(t, int(center.R), 120)
}

func TestRender_EmptyLogoAssetSkipped(t *testing.T) {
	dir := t.TempDir()
	composer := NewComposer(dir, dir, zerolog.Nop())

	// An empty logo asset id resolves to the media directory itself and
	// must be skipped, not opened as an image.
	outputPath, err := composer.Render(Input{
		Project:  models.EditProject{ID: "proj-nologo"},
		Template: models.Template{CanvasSize: models.CanvasSize{Width: 200, Height: 200}, Slots: []models.TemplateSlot{{ID: "s1", Placement: models.Placement{Width: 100, Height: 100}}}},
		Brand: models.BrandProfile{
			LogoAssetID: "",
			QRPlacement: models.Placement{X: 120, Y: 120, Width: 60, Height: 60},
		},
		QRTargetURL: "https://share.example/p/tok",
	})
	require.NoError(t, err)
	_, err = os.Stat(outputPath)
	assert.NoError(t, err)
}

func TestRender_MissingPhotoFileFails(t *testing.T) {
	dir := t.TempDir()
	composer := NewComposer(dir, dir, zerolog.Nop())

	_, err := composer.Render(Input{
		Project:  models.EditProject{ID: "proj-x", SelectedAssetIDs: []string{"a1"}},
		Template: models.Template{CanvasSize: models.CanvasSize{Width: 100, Height: 100}, Slots: []models.TemplateSlot{{ID: "s1", Placement: models.Placement{Width: 50, Height: 50}}}},
		Brand:    models.BrandProfile{QRPlacement: models.Placement{X: 60, Y: 60, Width: 30, Height: 30}},
		PhotoAssets: []models.MediaAsset{
			{ID: "a1", Kind: models.MediaKindPhoto, LocalPath: filepath.Join(dir, "absent.jpg")},
		},
		QRTargetURL: "https://share.example/p/tok",
	})
	assert.Error(t, err)
}

func TestRender_SkipsUnresolvedAssetsAndMissingStickers(t *testing.T) {
	dir := t.TempDir()
	composer := NewComposer(dir, dir, zerolog.Nop())

	outputPath, err := composer.Render(Input{
		Project: models.EditProject{
			ID:               "proj-y",
			SelectedAssetIDs: []string{"ghost"},
			Stickers: []models.StickerSpec{
				{ID: "st-ghost", AssetPath: "missing.png", X: 10, Y: 10, Width: 20, Height: 20},
			},
		},
		Template: models.Template{CanvasSize: models.CanvasSize{Width: 200, Height: 200}, Slots: []models.TemplateSlot{{ID: "s1", Placement: models.Placement{Width: 100, Height: 100}}}},
		Brand:    models.BrandProfile{QRPlacement: models.Placement{X: 120, Y: 120, Width: 60, Height: 60}},
		// "ghost" is not among the resolved photos; the slot stays empty.
		PhotoAssets: nil,
		QRTargetURL: "https://share.example/p/tok",
	})
	require.NoError(t, err)
	_, err = os.Stat(outputPath)
	assert.NoError(t, err)
}
