package caption

import (
	"image"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func createBlackCanvas(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func testAnnotation() Annotation {
	return Annotation{
		Date:       time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		BlockStart: "0000000000000000000a1b2c",
		BlockEnd:   "0000000000000000000d4e5f",
		City:       "Austin",
		Country:    "USA",
		Venue:      "Moody Center",
		Attendance: 15000,
	}
}

func TestNewRenderer(t *testing.T) {
	r, err := NewRenderer(3840)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	if r.textSize != refTextSize {
		t.Errorf("Expected text size %d at reference height, got %d", refTextSize, r.textSize)
	}
	if r.padding != refPadding {
		t.Errorf("Expected padding %d at reference height, got %d", refPadding, r.padding)
	}
}

func TestNewRendererScalesDown(t *testing.T) {
	r, err := NewRenderer(1920)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	if r.textSize != refTextSize/2 {
		t.Errorf("Expected text size %d at half height, got %d", refTextSize/2, r.textSize)
	}
}

func TestNewRendererInvalidHeight(t *testing.T) {
	for _, h := range []int{0, -100} {
		if _, err := NewRenderer(h); err == nil {
			t.Errorf("Expected error for canvas height %d", h)
		}
	}
}

func TestAnnotatePreservesDimensions(t *testing.T) {
	r, err := NewRenderer(960)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	src := createBlackCanvas(540, 960)
	out, err := r.Annotate(src, testAnnotation())
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	b := out.Bounds()
	if b.Dx() != 540 || b.Dy() != 960 {
		t.Errorf("Expected 540x960 output, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestAnnotateDoesNotModifyInput(t *testing.T) {
	r, err := NewRenderer(960)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	src := createBlackCanvas(540, 960)
	if _, err := r.Annotate(src, testAnnotation()); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	for i := 0; i < len(src.Pix); i += 4 {
		if src.Pix[i] != 0 || src.Pix[i+1] != 0 || src.Pix[i+2] != 0 {
			t.Fatal("Expected input image to stay untouched")
		}
	}
}

func TestAnnotateDrawsLabelBoxes(t *testing.T) {
	r, err := NewRenderer(960)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	src := createBlackCanvas(540, 960)
	out, err := r.Annotate(src, testAnnotation())
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	annotated := imaging.Clone(out)

	// The translucent box for the start label sits at the top-left edge.
	scale := 960.0 / refHeight
	topY := int(refTopEdge*scale) + r.padding/2
	if got := annotated.NRGBAAt(2, topY); got.R == 0 {
		t.Errorf("Expected top-left label box, found black pixel %v", got)
	}

	// The bottom label box sits near the lower-left corner.
	bottomY := 960 - int(refBottom*scale) + r.padding/2
	if got := annotated.NRGBAAt(2, bottomY); got.R == 0 {
		t.Errorf("Expected bottom-left label box, found black pixel %v", got)
	}

	// A region far from every label stays black.
	if got := annotated.NRGBAAt(270, 480); got.R != 0 {
		t.Errorf("Expected untouched center pixel, got %v", got)
	}
}

func TestAnnotateSkipsEmptyFields(t *testing.T) {
	r, err := NewRenderer(960)
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}

	src := createBlackCanvas(540, 960)
	out, err := r.Annotate(src, Annotation{Date: time.Now(), Attendance: 1})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	annotated := imaging.Clone(out)

	// No block labels supplied, so the left edge stays black.
	scale := 960.0 / refHeight
	topY := int(refTopEdge*scale) + r.padding/2
	if got := annotated.NRGBAAt(2, topY); got.R != 0 {
		t.Errorf("Expected no box for empty start label, got %v", got)
	}
}
