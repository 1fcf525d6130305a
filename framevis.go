// Package framevis reads a video file and produces one image from n
// resized frames spread evenly throughout the file.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		framevis "github.com/ritammehta/frame-by-frame"
//		"github.com/ritammehta/frame-by-frame/pkg/types"
//	)
//
//	func main() {
//		fv := framevis.New()
//
//		result, err := fv.Visualize(context.Background(), "concert.mp4", framevis.Options{
//			NFrames: 1280,
//			Axis:    types.Vertical,
//			Trim:    true,
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		blurred, err := fv.MotionBlur(result.Image, types.Vertical, 100)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		if err := fv.SaveImage(blurred, "concert.png", "png", 90, false); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The pipeline runs in two passes over the source. When trimming is
// requested, a detection pre-pass samples a handful of frames and unions
// their matte bounds into one crop rectangle; the main pass then samples
// the requested frame count, crops, resizes and concatenates each frame
// into the composite. Both passes share the same drift-free sampling
// schedule. The video handle of each pass is released on every exit path.
package framevis

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/ritammehta/frame-by-frame/internal/config"
	"github.com/ritammehta/frame-by-frame/pkg/caption"
	"github.com/ritammehta/frame-by-frame/pkg/compositor"
	"github.com/ritammehta/frame-by-frame/pkg/interval"
	"github.com/ritammehta/frame-by-frame/pkg/matte"
	"github.com/ritammehta/frame-by-frame/pkg/postproc"
	"github.com/ritammehta/frame-by-frame/pkg/sampler"
	"github.com/ritammehta/frame-by-frame/pkg/types"
	"github.com/ritammehta/frame-by-frame/pkg/video"
)

// Version of the frame visualizer library
const Version = "1.0.1"

// OpenFunc opens a video source by path. The default implementation uses
// ffmpeg; tests substitute synthetic sources.
type OpenFunc func(ctx context.Context, path string) (video.Source, error)

// Defaults are the fallback values applied to zero Options fields.
type Defaults struct {
	SampleCount    int
	Axis           types.Axis
	MatteSamples   int
	MatteThreshold int
	BlurAmount     int
}

// FrameVis produces frame visualizations from video files.
type FrameVis struct {
	canvas   compositor.Config
	defaults Defaults
	logger   *zap.Logger
	open     OpenFunc
}

// New creates a FrameVis with default configuration: a 3840px target
// composite height, 1280 sampled frames, vertical concatenation, and the
// matte detection settings of the reference visualizer.
func New() *FrameVis {
	return NewWithConfig(config.Default())
}

// NewWithConfig creates a FrameVis from an application configuration.
func NewWithConfig(cfg *config.Config) *FrameVis {
	v := &FrameVis{
		canvas: compositor.Config{
			CanvasWidth:    cfg.Canvas.Width,
			CanvasHeight:   cfg.Canvas.Height,
			ConcatCellSize: cfg.Canvas.ConcatCellSize,
		},
		defaults: Defaults{
			SampleCount:    cfg.Sampling.DefaultFrameCount,
			Axis:           types.Axis(cfg.Sampling.DefaultDirection),
			MatteSamples:   cfg.Matte.SampleCount,
			MatteThreshold: cfg.Matte.Threshold,
			BlurAmount:     cfg.Blur.DefaultAmount,
		},
		logger: zap.NewNop(),
	}
	v.open = func(ctx context.Context, path string) (video.Source, error) {
		return video.Open(ctx, path, v.logger)
	}
	return v
}

// SetLogger replaces the no-op logger.
func (v *FrameVis) SetLogger(logger *zap.Logger) {
	if logger != nil {
		v.logger = logger
	}
}

// SetOpener replaces the video source opener.
func (v *FrameVis) SetOpener(open OpenFunc) {
	if open != nil {
		v.open = open
	}
}

// Options control one visualization run. Zero values fall back to the
// configured defaults; Height and Width of 0 mean auto-calculated.
type Options struct {
	// NFrames is the number of frames composited into the image.
	NFrames int

	// Height is the per-frame cell height in pixels, 0 for auto.
	Height int

	// Width is the per-frame cell width in pixels, 0 for auto.
	Width int

	// Axis is the concatenation direction.
	Axis types.Axis

	// Trim enables the matte detection pre-pass and cropping.
	Trim bool

	// MatteSamples is the number of frames inspected by the pre-pass.
	MatteSamples int

	// MatteThreshold is the per-channel brightness at or below which a
	// full row or column counts as matting.
	MatteThreshold int

	// Progress, when set, is called after each composited frame.
	Progress func(done, total int)
}

// Result is the output of one visualization run.
type Result struct {
	// Image is the finished composite.
	Image *image.NRGBA

	// Duration is the source video length in seconds.
	Duration float64

	// Matte is the matte kind found by the pre-pass (None without Trim).
	Matte matte.Kind

	// Bounds is the crop rectangle applied to every frame; invalid when
	// no matting was detected.
	Bounds matte.Bounds
}

// MatteReport describes a detection pre-pass result.
type MatteReport struct {
	Kind   matte.Kind
	Bounds matte.Bounds

	// FrameWidth and FrameHeight are the source frame dimensions the
	// bounds relate to.
	FrameWidth  int
	FrameHeight int
}

// TrimX returns the pixels cropped from each side for pillarboxing.
func (r MatteReport) TrimX() int {
	if r.Kind&matte.Pillarbox == 0 {
		return 0
	}
	return (r.FrameWidth - r.Bounds.Width()) / 2
}

// TrimY returns the pixels cropped from top and bottom for letterboxing.
func (r MatteReport) TrimY() int {
	if r.Kind&matte.Letterbox == 0 {
		return 0
	}
	return (r.FrameHeight - r.Bounds.Height()) / 2
}

// Visualize samples opts.NFrames frames evenly from the video at path and
// concatenates them into a single composite image.
func (v *FrameVis) Visualize(ctx context.Context, path string, opts Options) (*Result, error) {
	axis := opts.Axis
	if axis == "" {
		axis = v.defaults.Axis
	}
	if !axis.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidAxis, axis)
	}
	if opts.Height < 0 || opts.Width < 0 {
		return nil, fmt.Errorf("%w: %dx%d", compositor.ErrInvalidDimension, opts.Width, opts.Height)
	}
	nframes := opts.NFrames
	if nframes == 0 {
		nframes = v.defaults.SampleCount
	}

	kind := matte.None
	bounds := matte.Invalid()
	if opts.Trim {
		report, err := v.DetectMatte(ctx, path, opts.MatteSamples, opts.MatteThreshold)
		if err != nil {
			return nil, err
		}
		kind = report.Kind
		bounds = report.Bounds
		v.logMatte(report)
	}

	src, err := v.open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer src.Release()

	totalFrames := src.FrameCount()
	fps := src.FPS()

	plan, err := sampler.NewPlan(totalFrames, nframes)
	if err != nil {
		return nil, err
	}

	// First frame fixes the dimensions for the whole run.
	first, err := src.ReadNext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: first frame: %w", sampler.ErrUnreadableFrame, err)
	}
	frameW, frameH := first.Bounds().Dx(), first.Bounds().Dy()

	cellW, cellH, err := compositor.InferCellSize(axis, opts.Width, opts.Height, kind, frameW, frameH, bounds, plan.Count, v.canvas)
	if err != nil {
		return nil, err
	}

	crop := matte.Invalid()
	if kind != matte.None {
		crop = bounds
	}
	comp, err := compositor.New(axis, cellW, cellH, plan.Count, crop)
	if err != nil {
		return nil, err
	}

	canvasW, canvasH := compositor.CanvasSize(axis, cellW, cellH, plan.Count)
	v.logger.Info("visualizing",
		zap.String("source", path),
		zap.Int("width", canvasW),
		zap.Int("height", canvasH),
		zap.Int("nframes", plan.Count),
		zap.Float64("interval_frames", plan.Interval),
	)

	err = sampler.Sample(ctx, src, plan, func(n, frameIndex int, frame image.Image) error {
		if err := comp.Append(frame, n); err != nil {
			return err
		}
		if opts.Progress != nil {
			opts.Progress(n+1, plan.Count)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Image:    comp.Image(),
		Duration: totalFrames / fps,
		Matte:    kind,
		Bounds:   bounds,
	}, nil
}

// DetectMatte samples a handful of frames from the video at path and
// aggregates their matte bounds. Frames whose own detection is ambiguous
// are skipped; if no frame yields valid bounds the report carries
// matte.None and invalid bounds, which is not an error.
func (v *FrameVis) DetectMatte(ctx context.Context, path string, samples, threshold int) (MatteReport, error) {
	if samples == 0 {
		samples = v.defaults.MatteSamples
	}
	if threshold == 0 {
		threshold = v.defaults.MatteThreshold
	}

	src, err := v.open(ctx, path)
	if err != nil {
		return MatteReport{}, err
	}
	defer src.Release()

	plan, err := sampler.NewPlan(src.FrameCount(), samples)
	if err != nil {
		return MatteReport{}, err
	}

	// The first frame supplies the reference dimensions the detected
	// bounds are compared against.
	first, err := src.ReadNext(ctx)
	if err != nil {
		return MatteReport{}, fmt.Errorf("%w: first frame: %w", sampler.ErrUnreadableFrame, err)
	}
	frameW, frameH := first.Bounds().Dx(), first.Bounds().Dy()

	detector := matte.NewDetector(threshold)
	var agg matte.Aggregator
	err = sampler.Sample(ctx, src, plan, func(n, frameIndex int, frame image.Image) error {
		agg.Add(detector.Detect(frame))
		return nil
	})
	if err != nil {
		return MatteReport{}, err
	}

	report := MatteReport{
		Kind:        matte.None,
		Bounds:      matte.Invalid(),
		FrameWidth:  frameW,
		FrameHeight: frameH,
	}
	if bounds, ok := agg.Bounds(); ok {
		report.Kind = matte.KindOf(bounds, frameW, frameH)
		report.Bounds = bounds
	}
	return report, nil
}

// MotionBlur blurs the composite along the axis perpendicular to the
// concatenation direction, smearing each cell into its neighbors.
func (v *FrameVis) MotionBlur(img image.Image, axis types.Axis, amount int) (image.Image, error) {
	if amount == 0 {
		amount = v.defaults.BlurAmount
	}
	return postproc.DirectionalBlur(img, axis, amount)
}

// AverageColors collapses the composite to the average color along an axis.
func (v *FrameVis) AverageColors(img image.Image, axis types.Axis) (image.Image, error) {
	return postproc.AverageAxis(img, axis)
}

// Annotate renders an event record onto a copy of the composite.
func (v *FrameVis) Annotate(img image.Image, a caption.Annotation) (image.Image, error) {
	renderer, err := caption.NewRenderer(img.Bounds().Dy())
	if err != nil {
		return nil, err
	}
	return renderer.Annotate(img, a)
}

// IntervalFromFrameCount returns the capture interval, in seconds, for the
// video at path when nframes frames are sampled.
func (v *FrameVis) IntervalFromFrameCount(ctx context.Context, path string, nframes int) (float64, error) {
	src, err := v.open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer src.Release()
	return interval.FromFrameCount(src.FrameCount(), src.FPS(), nframes)
}

// FrameCountFromInterval returns the number of frames the video at path
// yields when one frame is captured every seconds of playback.
func (v *FrameVis) FrameCountFromInterval(ctx context.Context, path string, seconds float64) (int, error) {
	src, err := v.open(ctx, path)
	if err != nil {
		return 0, err
	}
	defer src.Release()
	return interval.FrameCount(src.FrameCount(), src.FPS(), seconds)
}

// SaveImage writes an image to path in the given format (webp, png or jpg).
func (v *FrameVis) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return webp.Encode(f, img, opts)
	case "png":
		return imaging.Save(img, path)
	default: // jpg/jpeg
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	}
}

func (v *FrameVis) logMatte(report MatteReport) {
	switch report.Kind {
	case matte.None:
		v.logger.Info("no matting detected")
	case matte.Letterbox:
		v.logger.Info("letterboxing detected", zap.Int("trim_px", report.TrimY()))
	case matte.Pillarbox:
		v.logger.Info("pillarboxing detected", zap.Int("trim_px", report.TrimX()))
	case matte.Both:
		v.logger.Info("multiple matting detected",
			zap.Int("crop_width", report.Bounds.Width()),
			zap.Int("crop_height", report.Bounds.Height()),
		)
	}
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
