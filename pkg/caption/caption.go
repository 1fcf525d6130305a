// Package caption annotates a finished composite with the metadata record
// of the source event: block-hash labels, venue, location, date and
// attendance, each drawn on a translucent white box in a monospace face.
package caption

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Layout measurements, relative to a reference canvas height of 3840px.
const (
	refHeight    = 3840
	refTextSize  = 75
	refPadding   = 50
	refTopEdge   = 50
	refBottom    = 200
	refRowHeight = 125
)

var boxFill = color.NRGBA{R: 255, G: 255, B: 255, A: 128}

// Annotation is the event record rendered onto the composite.
type Annotation struct {
	Date       time.Time
	BlockStart string
	BlockEnd   string
	City       string
	Country    string
	Venue      string
	Attendance int
}

// Renderer draws annotations scaled to one canvas size.
type Renderer struct {
	face     font.Face
	textSize int
	padding  int
}

// NewRenderer prepares a monospace face sized for the given canvas height.
func NewRenderer(canvasHeight int) (*Renderer, error) {
	if canvasHeight < 1 {
		return nil, fmt.Errorf("invalid canvas height %d", canvasHeight)
	}
	scale := float64(canvasHeight) / refHeight

	parsed, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    refTextSize * scale,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}

	return &Renderer{
		face:     face,
		textSize: scaled(refTextSize, scale),
		padding:  scaled(refPadding, scale),
	}, nil
}

// Annotate draws the annotation over a copy of img and returns the copy.
func (r *Renderer) Annotate(img image.Image, a Annotation) (image.Image, error) {
	canvas := imaging.Clone(img)
	b := canvas.Bounds()
	width, height := b.Dx(), b.Dy()
	scale := float64(height) / refHeight

	// Block labels along the left edge, top and bottom.
	r.textWithBox(canvas, 0, scaled(refTopEdge, scale), a.BlockStart, false)
	r.textWithBox(canvas, 0, height-scaled(refBottom, scale), a.BlockEnd, false)

	// Right-aligned column above the bottom label.
	rowHeight := scaled(refRowHeight, scale)
	y := height - 4*rowHeight - r.textSize
	lines := []string{
		a.Venue,
		a.City + ", " + a.Country,
		a.Date.Format("01.02.2006"),
		fmt.Sprintf("%d present", a.Attendance),
	}
	for _, line := range lines {
		r.textWithBox(canvas, width, y, line, true)
		y += rowHeight
	}

	return canvas, nil
}

// textWithBox draws text over a translucent box. For right-aligned text x
// is the right edge the box extends to; otherwise x is the left edge of
// the text inset.
func (r *Renderer) textWithBox(canvas *image.NRGBA, x, y int, text string, rightAlign bool) {
	if text == "" {
		return
	}

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.NRGBA{A: 255}),
		Face: r.face,
	}
	textWidth := drawer.MeasureString(text).Ceil()

	boxHeight := r.textSize + r.padding
	var box image.Rectangle
	if rightAlign {
		x = x - textWidth - 2*r.padding
		box = image.Rect(x, y, canvas.Bounds().Dx()+r.padding, y+boxHeight)
	} else {
		box = image.Rect(-r.padding, y, x+2*r.padding+textWidth, y+boxHeight)
	}
	draw.Draw(canvas, box.Intersect(canvas.Bounds()), image.NewUniform(boxFill), image.Point{}, draw.Over)

	// Baseline sits one text size below the top inset, which centers the
	// glyphs in the box closely enough for a monospace face.
	drawer.Dot = fixed.P(x+r.padding, y+r.padding/2+r.textSize)
	drawer.DrawString(text)
}

func scaled(v int, scale float64) int {
	s := int(float64(v) * scale)
	if s < 1 {
		s = 1
	}
	return s
}
