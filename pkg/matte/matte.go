// Package matte finds and describes constant-color border mattes
// (letterboxing and pillarboxing) around video frames.
//
// Detection works per axis: all color channels are summed across the
// perpendicular axis into a 1-D brightness profile, and the content bounds
// are the first and last profile positions that strictly exceed the value a
// fully matted line would have at the configured threshold.
package matte

import (
	"image"

	"github.com/disintegration/imaging"
)

// channels is the number of color channels considered per pixel.
const channels = 3

// Bounds is an inclusive, axis-aligned rectangle in source-frame pixel
// space. An edge that could not be determined is recorded as -1, which
// makes the bounds invalid.
type Bounds struct {
	Min image.Point
	Max image.Point
}

// Invalid returns bounds with every coordinate undefined.
func Invalid() Bounds {
	return Bounds{Min: image.Pt(-1, -1), Max: image.Pt(-1, -1)}
}

// Valid reports whether all four edges are defined and the corners are
// ordered (top-left at or before bottom-right on both axes).
func (b Bounds) Valid() bool {
	if b.Min.X < 0 || b.Min.Y < 0 || b.Max.X < 0 || b.Max.Y < 0 {
		return false
	}
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y
}

// Width returns the inclusive pixel width of the bounds.
func (b Bounds) Width() int {
	return b.Max.X - b.Min.X + 1
}

// Height returns the inclusive pixel height of the bounds.
func (b Bounds) Height() int {
	return b.Max.Y - b.Min.Y + 1
}

// Rect converts the inclusive bounds to a half-open image.Rectangle
// suitable for cropping.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.Min.X, b.Min.Y, b.Max.X+1, b.Max.Y+1)
}

// Union returns the minimal bounds containing both a and b: the
// component-wise minimum of the top-left corners and maximum of the
// bottom-right corners.
func Union(a, b Bounds) Bounds {
	u := a
	if b.Min.X < u.Min.X {
		u.Min.X = b.Min.X
	}
	if b.Min.Y < u.Min.Y {
		u.Min.Y = b.Min.Y
	}
	if b.Max.X > u.Max.X {
		u.Max.X = b.Max.X
	}
	if b.Max.Y > u.Max.Y {
		u.Max.Y = b.Max.Y
	}
	return u
}

// Kind describes which matte types were detected on a frame.
type Kind int

const (
	None      Kind = 0
	Letterbox Kind = 1 // horizontal bars on top and bottom
	Pillarbox Kind = 2 // vertical bars on the sides
	Both      Kind = Letterbox | Pillarbox
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Letterbox:
		return "letterbox"
	case Pillarbox:
		return "pillarbox"
	case Both:
		return "letterbox+pillarbox"
	}
	return "unknown"
}

// KindOf derives the matte kind from detected content bounds by comparing
// them against the unmodified frame dimensions. Invalid bounds yield None.
func KindOf(b Bounds, frameWidth, frameHeight int) Kind {
	if !b.Valid() {
		return None
	}
	var k Kind
	if b.Height() != frameHeight {
		k |= Letterbox
	}
	if b.Width() != frameWidth {
		k |= Pillarbox
	}
	return k
}

// ProfileEdges scans a 1-D brightness profile and returns the first and
// last indices whose value strictly exceeds threshold. If no index
// qualifies both results are -1.
func ProfileEdges(profile []float64, threshold float64) (start, end int) {
	start, end = -1, -1
	for i, v := range profile {
		if v > threshold {
			if start < 0 {
				start = i
			}
			end = i
		}
	}
	return start, end
}

// Detector locates content bounds inside a matted frame.
type Detector struct {
	threshold int
}

// NewDetector creates a Detector. threshold is the per-channel brightness
// (0-255) at or below which a full row or column counts as matting.
func NewDetector(threshold int) *Detector {
	return &Detector{threshold: threshold}
}

// Detect returns the content bounds of one frame. A frame that is matted
// on a whole axis (including a solid-color frame) produces invalid bounds.
func (d *Detector) Detect(img image.Image) Bounds {
	src := imaging.Clone(img)
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()

	rowSums := make([]float64, height)
	colSums := make([]float64, width)
	for y := 0; y < height; y++ {
		i := y * src.Stride
		for x := 0; x < width; x++ {
			// Alpha is ignored: mattes are judged on color channels only.
			v := float64(src.Pix[i]) + float64(src.Pix[i+1]) + float64(src.Pix[i+2])
			rowSums[y] += v
			colSums[x] += v
			i += 4
		}
	}

	// A fully matted line sums to at most threshold in every channel of
	// every pixel; content must strictly exceed that.
	rowThreshold := float64(d.threshold * width * channels)
	colThreshold := float64(d.threshold * height * channels)

	top, bottom := ProfileEdges(rowSums, rowThreshold)
	left, right := ProfileEdges(colSums, colThreshold)

	return Bounds{Min: image.Pt(left, top), Max: image.Pt(right, bottom)}
}

// Aggregator unions per-frame bounds across a sampling pass. Invalid
// contributions are skipped rather than failing the pass: a single
// ambiguous frame must not discard the evidence from the others.
type Aggregator struct {
	bounds Bounds
	seeded bool
}

// Add folds one frame's detected bounds into the aggregate.
func (g *Aggregator) Add(b Bounds) {
	if !b.Valid() {
		return
	}
	if !g.seeded {
		g.bounds = b
		g.seeded = true
		return
	}
	g.bounds = Union(g.bounds, b)
}

// Bounds returns the aggregated bounds and whether any valid frame
// contributed to them.
func (g *Aggregator) Bounds() (Bounds, bool) {
	if !g.seeded || !g.bounds.Valid() {
		return Invalid(), false
	}
	return g.bounds, true
}
