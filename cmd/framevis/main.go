package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	framevis "github.com/ritammehta/frame-by-frame"
	"github.com/ritammehta/frame-by-frame/internal/config"
	"github.com/ritammehta/frame-by-frame/internal/progress"
	"github.com/ritammehta/frame-by-frame/internal/utils"
	"github.com/ritammehta/frame-by-frame/pkg/caption"
	"github.com/ritammehta/frame-by-frame/pkg/types"
)

func main() {
	var in, out, direction, format, configPath string
	var nframes, height, width, threshold, matteSamples, blurAmount, quality int
	var trim, lossless bool

	// Caption fields; captioning runs only when a date is provided.
	var date, blocks, venue, city, country string
	var attendance int

	flag.StringVar(&in, "in", "", "input video path")
	flag.StringVar(&out, "out", "", "output image path (png/jpg/webp)")
	flag.IntVar(&nframes, "nframes", 0, "number of frames to composite (default from config)")
	flag.IntVar(&height, "height", 0, "per-frame cell height in pixels, 0=auto")
	flag.IntVar(&width, "width", 0, "per-frame cell width in pixels, 0=auto")
	flag.StringVar(&direction, "direction", "", "concatenation direction: horizontal|vertical")
	flag.BoolVar(&trim, "trim", false, "detect and crop letterbox/pillarbox matting")
	flag.IntVar(&threshold, "threshold", 0, "matte brightness threshold 0-255 (default from config)")
	flag.IntVar(&matteSamples, "matte-samples", 0, "frames sampled for matte detection (default from config)")
	flag.IntVar(&blurAmount, "blur", 100, "motion blur kernel size, 0=disabled")
	flag.StringVar(&format, "format", "", "output format: png|jpg|webp (default from output extension)")
	flag.IntVar(&quality, "quality", 90, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP lossless mode")
	flag.StringVar(&configPath, "config", "", "JSON config file path")

	flag.StringVar(&date, "date", "", "concert date, YYYY-MM-DD (enables captioning)")
	flag.StringVar(&blocks, "blocks", "", "start and end block hashes, comma separated")
	flag.StringVar(&venue, "venue", "", "concert venue")
	flag.StringVar(&city, "city", "", "concert city")
	flag.StringVar(&country, "country", "", "concert country")
	flag.IntVar(&attendance, "attendance", 0, "concert attendance")

	flag.Parse()
	if in == "" || out == "" {
		log.Fatalf("usage: %s -in video.mp4 -out visualization.png [-nframes 1280] [-direction vertical] [-trim] [-blur 100]", filepath.Base(os.Args[0]))
	}
	if !utils.FileExists(in) {
		log.Fatalf("input video not found: %s", in)
	}
	if !utils.IsVideoFile(in) {
		log.Printf("warning: %s does not look like a video file", in)
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if format == "" {
		format = utils.GetFileExtension(out)
		if format == "" {
			format = cfg.Output.Format
		}
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	fv := framevis.NewWithConfig(cfg)
	fv.SetLogger(logger)

	axis := types.Axis(direction)
	if direction == "" {
		axis = types.Axis(cfg.Sampling.DefaultDirection)
	}

	bar := progress.NewBar("Processing:")
	ctx := context.Background()

	result, err := fv.Visualize(ctx, in, framevis.Options{
		NFrames:        nframes,
		Height:         height,
		Width:          width,
		Axis:           axis,
		Trim:           trim,
		MatteThreshold: threshold,
		MatteSamples:   matteSamples,
		Progress: func(done, total int) {
			bar.Update(float64(done) / float64(total))
		},
	})
	if err != nil {
		log.Fatal(err)
	}
	logger.Info("composite assembled", zap.Float64("video_duration_s", result.Duration))

	var output image.Image = result.Image
	if blurAmount >= 1 {
		fmt.Print("Adding motion blur to final frame... ")
		output, err = fv.MotionBlur(output, axis, blurAmount)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println("done")
	}

	if date == "" {
		if err := fv.SaveImage(output, out, format, quality, lossless); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Visualization saved to %s\n", out)
		return
	}

	// Keep the uncaptioned composite alongside the annotated one.
	uncaptioned := utils.PrefixedPath(out, cfg.Output.UncaptionedPrefix)
	if err := fv.SaveImage(output, uncaptioned, format, quality, lossless); err != nil {
		log.Fatal(err)
	}

	annotation, err := parseAnnotation(date, blocks, venue, city, country, attendance)
	if err != nil {
		log.Fatal(err)
	}

	captioned, err := fv.Annotate(output, annotation)
	if err != nil {
		log.Fatal(err)
	}
	if err := fv.SaveImage(captioned, out, format, quality, lossless); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Visualization saved to %s\n", out)
}

func parseAnnotation(date, blocks, venue, city, country string, attendance int) (caption.Annotation, error) {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return caption.Annotation{}, fmt.Errorf("invalid -date %q: %w", date, err)
	}

	var blockStart, blockEnd string
	if blocks != "" {
		parts := strings.SplitN(blocks, ",", 2)
		blockStart = strings.TrimSpace(parts[0])
		if len(parts) == 2 {
			blockEnd = strings.TrimSpace(parts[1])
		}
	}

	return caption.Annotation{
		Date:       parsed,
		BlockStart: blockStart,
		BlockEnd:   blockEnd,
		City:       city,
		Country:    country,
		Venue:      venue,
		Attendance: attendance,
	}, nil
}
