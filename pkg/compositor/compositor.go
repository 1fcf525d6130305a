// Package compositor turns a stream of sampled video frames into one
// composite strip image.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/ritammehta/frame-by-frame/pkg/matte"
	"github.com/ritammehta/frame-by-frame/pkg/types"
)

// ErrInvalidDimension is returned when an explicit cell width or height is
// not a positive integer.
var ErrInvalidDimension = errors.New("cell dimensions must be positive integers")

// Config fixes the output geometry used when dimensions are inferred.
type Config struct {
	// CanvasWidth is the target composite width a horizontal run is
	// divided into when no explicit cell width is given.
	CanvasWidth int

	// CanvasHeight is the target composite height a vertical run is
	// divided into when no explicit cell height is given.
	CanvasHeight int

	// ConcatCellSize is the minimum cell extent along the concatenation
	// axis; runs with more cells than target pixels bottom out here.
	ConcatCellSize int
}

// DefaultConfig returns the output geometry of the reference visualizer, a
// 2160x3840 portrait target with a 1px minimum cell extent.
func DefaultConfig() Config {
	return Config{CanvasWidth: 2160, CanvasHeight: 3840, ConcatCellSize: 1}
}

// InferCellSize derives the per-frame cell size from the explicit
// dimensions (0 means auto), the detected matte state, the source frame
// shape and the cell count. On the concatenation axis an auto extent is
// the target canvas extent divided by the cell count, floored at
// cfg.ConcatCellSize; on the perpendicular axis it uses the source frame
// extent, matte-cropped when the matching matte kind was detected.
func InferCellSize(axis types.Axis, explicitWidth, explicitHeight int, kind matte.Kind, frameWidth, frameHeight int, crop matte.Bounds, count int, cfg Config) (cellWidth, cellHeight int, err error) {
	if !axis.Valid() {
		return 0, 0, fmt.Errorf("%w: %q", types.ErrInvalidAxis, axis)
	}
	if explicitWidth < 0 {
		return 0, 0, fmt.Errorf("%w: width %d", ErrInvalidDimension, explicitWidth)
	}
	if explicitHeight < 0 {
		return 0, 0, fmt.Errorf("%w: height %d", ErrInvalidDimension, explicitHeight)
	}
	if count < 1 {
		return 0, 0, fmt.Errorf("cell count must be positive, got %d", count)
	}

	cellHeight = explicitHeight
	if cellHeight == 0 {
		if axis == types.Horizontal {
			if kind&matte.Letterbox != 0 && crop.Valid() {
				cellHeight = crop.Height()
			} else {
				cellHeight = frameHeight
			}
		} else {
			cellHeight = concatExtent(cfg.CanvasHeight, count, cfg.ConcatCellSize)
		}
	}

	cellWidth = explicitWidth
	if cellWidth == 0 {
		if axis == types.Vertical {
			if kind&matte.Pillarbox != 0 && crop.Valid() {
				cellWidth = crop.Width()
			} else {
				cellWidth = frameWidth
			}
		} else {
			cellWidth = concatExtent(cfg.CanvasWidth, count, cfg.ConcatCellSize)
		}
	}

	return cellWidth, cellHeight, nil
}

func concatExtent(target, count, floor int) int {
	extent := target / count
	if extent < floor {
		extent = floor
	}
	return extent
}

// CanvasSize returns the composite dimensions for count cells: cell extent
// times count along the concatenation axis, the cell extent itself
// perpendicular to it. The composite is never wider or taller than its
// cells, so no dead band can appear beside them.
func CanvasSize(axis types.Axis, cellWidth, cellHeight, count int) (width, height int) {
	if axis == types.Horizontal {
		return cellWidth * count, cellHeight
	}
	return cellWidth, cellHeight * count
}

// Compositor crops, resizes and appends sampled frames into a pre-sized
// canvas. Cells land in sampling order: slot 0 at the start of the axis.
type Compositor struct {
	axis   types.Axis
	cellW  int
	cellH  int
	count  int
	crop   matte.Bounds
	canvas *image.NRGBA
}

// New validates the geometry and allocates the full canvas up front; the
// canvas is the dominant memory cost and is never reallocated per append.
// Invalid crop bounds disable cropping.
func New(axis types.Axis, cellWidth, cellHeight, count int, crop matte.Bounds) (*Compositor, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidAxis, axis)
	}
	if cellWidth < 1 || cellHeight < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimension, cellWidth, cellHeight)
	}
	if count < 1 {
		return nil, fmt.Errorf("cell count must be positive, got %d", count)
	}

	width, height := CanvasSize(axis, cellWidth, cellHeight, count)
	return &Compositor{
		axis:   axis,
		cellW:  cellWidth,
		cellH:  cellHeight,
		count:  count,
		crop:   crop,
		canvas: image.NewNRGBA(image.Rect(0, 0, width, height)),
	}, nil
}

// Append crops the frame to the configured bounds (when present), resizes
// it to the cell size and pastes it into the given slot.
func (c *Compositor) Append(frame image.Image, slot int) error {
	if slot < 0 || slot >= c.count {
		return fmt.Errorf("slot %d out of range [0,%d)", slot, c.count)
	}

	if c.crop.Valid() {
		frame = imaging.Crop(frame, c.crop.Rect())
	}
	cell := imaging.Resize(frame, c.cellW, c.cellH, imaging.Lanczos)

	offset := image.Pt(0, slot*c.cellH)
	if c.axis == types.Horizontal {
		offset = image.Pt(slot*c.cellW, 0)
	}
	target := image.Rectangle{Min: offset, Max: offset.Add(image.Pt(c.cellW, c.cellH))}
	draw.Draw(c.canvas, target, cell, image.Point{}, draw.Src)
	return nil
}

// Image returns the composite canvas.
func (c *Compositor) Image() *image.NRGBA {
	return c.canvas
}
