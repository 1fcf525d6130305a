package framevis

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ritammehta/frame-by-frame/internal/config"
	"github.com/ritammehta/frame-by-frame/pkg/compositor"
	"github.com/ritammehta/frame-by-frame/pkg/matte"
	"github.com/ritammehta/frame-by-frame/pkg/sampler"
	"github.com/ritammehta/frame-by-frame/pkg/types"
	"github.com/ritammehta/frame-by-frame/pkg/video"
)

// fakeSource serves synthetic 64x48 frames whose shade encodes the frame
// index, optionally letterboxed with black bars.
type fakeSource struct {
	frames   int
	fps      float64
	borderY  int
	failAt   int
	pos      int
	released int
}

func (s *fakeSource) FrameCount() float64 { return float64(s.frames) }
func (s *fakeSource) FPS() float64        { return s.fps }
func (s *fakeSource) Seek(frameIndex int) { s.pos = frameIndex }

func (s *fakeSource) ReadNext(ctx context.Context) (image.Image, error) {
	if s.released > 0 {
		return nil, video.ErrReleased
	}
	if s.pos >= s.frames {
		return nil, video.ErrEndOfStream
	}
	if s.pos == s.failAt {
		return nil, fmt.Errorf("simulated decode failure")
	}

	shade := uint8(100 + s.pos)
	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		c := color.NRGBA{R: shade, G: shade, B: shade, A: 255}
		if y < s.borderY || y >= 48-s.borderY {
			c = color.NRGBA{A: 255}
		}
		for x := 0; x < 64; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	s.pos++
	return img, nil
}

func (s *fakeSource) Release() error {
	s.released++
	return nil
}

// fakeOpener hands out a fresh fakeSource per open and remembers every
// source so tests can check release behavior.
type fakeOpener struct {
	frames  int
	fps     float64
	borderY int
	failAt  int
	opens   int
	sources []*fakeSource
}

func newFakeOpener(frames int, fps float64) *fakeOpener {
	return &fakeOpener{frames: frames, fps: fps, failAt: -1}
}

func (o *fakeOpener) open(ctx context.Context, path string) (video.Source, error) {
	o.opens++
	s := &fakeSource{frames: o.frames, fps: o.fps, borderY: o.borderY, failAt: o.failAt}
	o.sources = append(o.sources, s)
	return s, nil
}

func (o *fakeOpener) allReleased() bool {
	for _, s := range o.sources {
		if s.released == 0 {
			return false
		}
	}
	return len(o.sources) > 0
}

func newTestVis(o *fakeOpener) *FrameVis {
	cfg := config.Default()
	cfg.Canvas.Width = 64
	cfg.Canvas.Height = 128
	cfg.Matte.SampleCount = 4
	cfg.Blur.DefaultAmount = 3
	fv := NewWithConfig(cfg)
	fv.SetOpener(o.open)
	return fv
}

func TestVisualizeCompositesSampledFrames(t *testing.T) {
	opener := newFakeOpener(100, 10)
	fv := newTestVis(opener)

	result, err := fv.Visualize(context.Background(), "test.mp4", Options{
		NFrames: 10,
		Height:  4,
		Axis:    types.Vertical,
	})
	if err != nil {
		t.Fatalf("Visualize failed: %v", err)
	}

	b := result.Image.Bounds()
	if b.Dx() != 64 || b.Dy() != 40 {
		t.Errorf("Expected 64x40 composite, got %dx%d", b.Dx(), b.Dy())
	}
	if result.Duration != 10 {
		t.Errorf("Expected duration 10s, got %v", result.Duration)
	}
	if result.Matte != matte.None {
		t.Errorf("Expected no matte without trimming, got %v", result.Matte)
	}
	if result.Bounds.Valid() {
		t.Errorf("Expected invalid bounds without trimming, got %v", result.Bounds)
	}

	// Each cell carries the shade of its sampled frame: indices 5, 15,
	// 25 ... 95 shifted by the base shade of 100.
	for n := 0; n < 10; n++ {
		want := 100 + 5 + 10*n
		got := result.Image.NRGBAAt(32, n*4+2)
		if diff(int(got.R), want) > 2 {
			t.Errorf("Cell %d: expected shade ~%d, got %d", n, want, got.R)
		}
	}

	if opener.opens != 1 {
		t.Errorf("Expected a single open, got %d", opener.opens)
	}
	if !opener.allReleased() {
		t.Error("Expected the source to be released")
	}
}

func TestVisualizeCanvasWidthMatchesCells(t *testing.T) {
	// A nominal target width wider than the source frames must not pad
	// the composite: the output is exactly as wide as its cells.
	opener := newFakeOpener(100, 10)
	cfg := config.Default() // 2160px target width, far wider than the 64px frames
	fv := NewWithConfig(cfg)
	fv.SetOpener(opener.open)

	result, err := fv.Visualize(context.Background(), "test.mp4", Options{
		NFrames: 5,
		Height:  4,
		Axis:    types.Vertical,
	})
	if err != nil {
		t.Fatalf("Visualize failed: %v", err)
	}

	b := result.Image.Bounds()
	if b.Dx() != 64 || b.Dy() != 20 {
		t.Fatalf("Expected 64x20 composite, got %dx%d", b.Dx(), b.Dy())
	}

	// The right edge carries frame content, not transparent padding.
	got := result.Image.NRGBAAt(63, 2)
	if got.A != 255 {
		t.Fatalf("Expected opaque right-edge pixel, got %v", got)
	}
	if diff(int(got.R), 110) > 2 {
		t.Errorf("Expected right-edge shade ~110, got %d", got.R)
	}
}

func TestVisualizeDefaultCellHeight(t *testing.T) {
	// Without an explicit height the cell height divides the target
	// composite height by the frame count: 128 / 32 = 4.
	opener := newFakeOpener(100, 10)
	fv := newTestVis(opener)

	result, err := fv.Visualize(context.Background(), "test.mp4", Options{
		NFrames: 32,
		Axis:    types.Vertical,
	})
	if err != nil {
		t.Fatalf("Visualize failed: %v", err)
	}

	b := result.Image.Bounds()
	if b.Dx() != 64 || b.Dy() != 128 {
		t.Errorf("Expected 64x128 composite, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestVisualizeReportsProgress(t *testing.T) {
	opener := newFakeOpener(100, 10)
	fv := newTestVis(opener)

	var calls [][2]int
	_, err := fv.Visualize(context.Background(), "test.mp4", Options{
		NFrames: 10,
		Height:  4,
		Progress: func(done, total int) {
			calls = append(calls, [2]int{done, total})
		},
	})
	if err != nil {
		t.Fatalf("Visualize failed: %v", err)
	}

	if len(calls) != 10 {
		t.Fatalf("Expected 10 progress calls, got %d", len(calls))
	}
	for i, c := range calls {
		if c[0] != i+1 || c[1] != 10 {
			t.Errorf("Call %d: expected (%d, 10), got (%d, %d)", i, i+1, c[0], c[1])
		}
	}
}

func TestVisualizeTooManyFrames(t *testing.T) {
	opener := newFakeOpener(100, 10)
	fv := newTestVis(opener)

	_, err := fv.Visualize(context.Background(), "test.mp4", Options{NFrames: 150, Height: 4})
	if !errors.Is(err, sampler.ErrInvalidCount) {
		t.Errorf("Expected ErrInvalidCount, got %v", err)
	}
	if !opener.allReleased() {
		t.Error("Expected the source to be released on failure")
	}
}

func TestVisualizeUnreadableFrameFails(t *testing.T) {
	opener := newFakeOpener(100, 10)
	opener.failAt = 55
	fv := newTestVis(opener)

	result, err := fv.Visualize(context.Background(), "test.mp4", Options{NFrames: 10, Height: 4})
	if !errors.Is(err, sampler.ErrUnreadableFrame) {
		t.Errorf("Expected ErrUnreadableFrame, got %v", err)
	}
	if result != nil {
		t.Error("Expected no partial result on decode failure")
	}
	if !opener.allReleased() {
		t.Error("Expected the source to be released on failure")
	}
}

func TestVisualizeInvalidAxis(t *testing.T) {
	opener := newFakeOpener(100, 10)
	fv := newTestVis(opener)

	_, err := fv.Visualize(context.Background(), "test.mp4", Options{NFrames: 10, Axis: "diagonal"})
	if !errors.Is(err, types.ErrInvalidAxis) {
		t.Errorf("Expected ErrInvalidAxis, got %v", err)
	}
	if opener.opens != 0 {
		t.Errorf("Expected validation before opening, got %d opens", opener.opens)
	}
}

func TestVisualizeNegativeDimensions(t *testing.T) {
	opener := newFakeOpener(100, 10)
	fv := newTestVis(opener)

	_, err := fv.Visualize(context.Background(), "test.mp4", Options{NFrames: 10, Height: -1})
	if !errors.Is(err, compositor.ErrInvalidDimension) {
		t.Errorf("Expected ErrInvalidDimension, got %v", err)
	}
	if opener.opens != 0 {
		t.Errorf("Expected validation before opening, got %d opens", opener.opens)
	}
}

func TestVisualizeTrimsLetterbox(t *testing.T) {
	opener := newFakeOpener(100, 10)
	opener.borderY = 8
	fv := newTestVis(opener)

	result, err := fv.Visualize(context.Background(), "test.mp4", Options{
		NFrames: 5,
		Height:  4,
		Trim:    true,
	})
	if err != nil {
		t.Fatalf("Visualize failed: %v", err)
	}

	if result.Matte != matte.Letterbox {
		t.Fatalf("Expected letterbox detection, got %v", result.Matte)
	}
	want := matte.Bounds{Min: image.Point{X: 0, Y: 8}, Max: image.Point{X: 63, Y: 39}}
	if result.Bounds != want {
		t.Errorf("Expected bounds %v, got %v", want, result.Bounds)
	}

	// The black bars are cropped away, so cells hold pure frame shades.
	got := result.Image.NRGBAAt(32, 2)
	if diff(int(got.R), 110) > 2 {
		t.Errorf("Expected first cell shade ~110, got %d", got.R)
	}

	// Detection pre-pass and main pass each open the source once.
	if opener.opens != 2 {
		t.Errorf("Expected two opens with trimming, got %d", opener.opens)
	}
	if !opener.allReleased() {
		t.Error("Expected both sources to be released")
	}
}

func TestDetectMatteLetterbox(t *testing.T) {
	opener := newFakeOpener(100, 10)
	opener.borderY = 8
	fv := newTestVis(opener)

	report, err := fv.DetectMatte(context.Background(), "test.mp4", 0, 0)
	if err != nil {
		t.Fatalf("DetectMatte failed: %v", err)
	}
	if report.Kind != matte.Letterbox {
		t.Fatalf("Expected letterbox, got %v", report.Kind)
	}
	if report.TrimY() != 8 {
		t.Errorf("Expected 8px letterbox trim, got %d", report.TrimY())
	}
	if report.TrimX() != 0 {
		t.Errorf("Expected no pillarbox trim, got %d", report.TrimX())
	}
}

func TestDetectMatteAllDark(t *testing.T) {
	// Solid black frames give no detectable content edge; that is a
	// no-matting report, not an error.
	opener := newFakeOpener(100, 10)
	opener.borderY = 24
	fv := newTestVis(opener)

	report, err := fv.DetectMatte(context.Background(), "test.mp4", 0, 0)
	if err != nil {
		t.Fatalf("DetectMatte failed: %v", err)
	}
	if report.Kind != matte.None {
		t.Errorf("Expected no matting on dark frames, got %v", report.Kind)
	}
	if report.Bounds.Valid() {
		t.Errorf("Expected invalid bounds, got %v", report.Bounds)
	}
}

func TestIntervalHelpers(t *testing.T) {
	opener := newFakeOpener(100, 10)
	fv := newTestVis(opener)

	seconds, err := fv.IntervalFromFrameCount(context.Background(), "test.mp4", 10)
	if err != nil {
		t.Fatalf("IntervalFromFrameCount failed: %v", err)
	}
	if seconds != 1.0 {
		t.Errorf("Expected 1s interval, got %v", seconds)
	}

	nframes, err := fv.FrameCountFromInterval(context.Background(), "test.mp4", 2.0)
	if err != nil {
		t.Fatalf("FrameCountFromInterval failed: %v", err)
	}
	if nframes != 5 {
		t.Errorf("Expected 5 frames, got %d", nframes)
	}

	if !opener.allReleased() {
		t.Error("Expected the probing sources to be released")
	}
}

func TestMotionBlurUsesConfiguredDefault(t *testing.T) {
	fv := newTestVis(newFakeOpener(100, 10))

	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	out, err := fv.MotionBlur(img, types.Vertical, 0)
	if err != nil {
		t.Fatalf("MotionBlur failed: %v", err)
	}
	if out.Bounds() != img.Bounds() {
		t.Errorf("Expected unchanged dimensions, got %v", out.Bounds())
	}
}

func TestSaveImageFormats(t *testing.T) {
	fv := New()
	dir := t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for _, tc := range []struct {
		name   string
		format string
	}{
		{"out.png", "png"},
		{"out.jpg", "jpg"},
		{"out.webp", "webp"},
	} {
		path := filepath.Join(dir, tc.name)
		if err := fv.SaveImage(img, path, tc.format, 90, false); err != nil {
			t.Errorf("SaveImage %s failed: %v", tc.format, err)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("Expected %s to exist: %v", tc.name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("Expected %s to be non-empty", tc.name)
		}
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("Expected version %s, got %s", Version, GetVersion())
	}
}

func diff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
