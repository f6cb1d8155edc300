package render

import (
	"image"

	"github.com/disintegration/imaging"

	"photobooth/agent/internal/models"
)

// grayscale only engages above this intensity; below it the filter is a
// no-op rather than a partial desaturation.
const grayscaleThreshold = 0.4

// applyFilterStack runs the project's filters in list order. Unknown
// filter ids are ignored.
func applyFilterStack(img *image.NRGBA, stack []models.FilterSpec) *image.NRGBA {
	for _, filter := range stack {
		switch filter.ID {
		case "grayscale":
			if filter.Intensity >= grayscaleThreshold {
				img = imaging.Grayscale(img)
			}
		case "brighten":
			img = imaging.AdjustBrightness(img, filter.Intensity*25)
		case "contrast":
			img = imaging.AdjustContrast(img, filter.Intensity*40)
		case "vivid":
			img = imaging.AdjustSaturation(img, filter.Intensity*50)
		}
	}
	return img
}
