// Package templatefit maps a template's slot geometry onto a selection of
// media assets. Everything here is pure and deterministic; no I/O.
package templatefit

import (
	"errors"
	"fmt"

	"photobooth/agent/internal/models"
)

// ErrEmptyTemplate is returned by ValidateCoverage for templates with no
// slots.
var ErrEmptyTemplate = errors.New("template must include at least one slot")

// SlotOutOfBoundsError identifies the first slot whose placement extends
// beyond the template canvas.
type SlotOutOfBoundsError struct {
	SlotID string
}

func (e *SlotOutOfBoundsError) Error() string {
	return fmt.Sprintf("slot %s exceeds template canvas bounds", e.SlotID)
}

// SlotAssignment pairs one template slot with the asset that fills it.
type SlotAssignment struct {
	SlotID        string
	SourceAssetID string
	Placement     models.Placement
}

// Fit assigns selected assets to template slots in slot order. Assets are
// repeated cyclically when there are fewer assets than slots, so slot i
// always receives selectedAssetIDs[i mod len(selectedAssetIDs)]. An empty
// selection yields no assignments.
func Fit(template models.Template, selectedAssetIDs []string) []SlotAssignment {
	if len(selectedAssetIDs) == 0 {
		return nil
	}

	assignments := make([]SlotAssignment, 0, len(template.Slots))
	for i, slot := range template.Slots {
		assignments = append(assignments, SlotAssignment{
			SlotID:        slot.ID,
			SourceAssetID: selectedAssetIDs[i%len(selectedAssetIDs)],
			Placement:     slot.Placement,
		})
	}
	return assignments
}

// ValidateCoverage checks that the template has at least one slot and that
// every slot rectangle lies fully inside the canvas.
func ValidateCoverage(template models.Template) error {
	if len(template.Slots) == 0 {
		return ErrEmptyTemplate
	}

	canvas := models.Placement{
		Width:  float64(template.CanvasSize.Width),
		Height: float64(template.CanvasSize.Height),
	}
	for _, slot := range template.Slots {
		if !InsideArea(canvas, slot.Placement) {
			return &SlotOutOfBoundsError{SlotID: slot.ID}
		}
	}
	return nil
}

// InsideArea reports whether object lies fully within area. Rotation is
// ignored; containment is checked on the axis-aligned rectangles.
func InsideArea(area, object models.Placement) bool {
	return object.X >= area.X &&
		object.Y >= area.Y &&
		object.X+object.Width <= area.X+area.Width &&
		object.Y+object.Height <= area.Y+area.Height
}

// ScalePlacement maps a placement from a source canvas onto a target of a
// different size, preserving relative position and extent.
func ScalePlacement(placement models.Placement, targetW, targetH, sourceW, sourceH float64) models.Placement {
	xScale := targetW / sourceW
	yScale := targetH / sourceH
	return models.Placement{
		X:        placement.X * xScale,
		Y:        placement.Y * yScale,
		Width:    placement.Width * xScale,
		Height:   placement.Height * yScale,
		Rotation: placement.Rotation,
	}
}
