package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// probeOutput mirrors the JSON emitted by ffprobe -show_format -show_streams.
type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
}

// FFmpegSource reads frames from a video file by spawning one short-lived
// ffmpeg process per read, decoding a single PNG frame to a stdout pipe.
// Metadata comes from a single ffprobe call at open time.
type FFmpegSource struct {
	path       string
	frameCount float64
	fps        float64
	width      int
	height     int
	pos        int
	released   bool
	logger     *zap.Logger
}

// Open probes path and returns a positioned source. A nil logger disables
// logging.
func Open(ctx context.Context, path string, logger *zap.Logger) (*FFmpegSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("%w: probe %s: %v", ErrSourceUnavailable, path, err)
	}

	var probed probeOutput
	if err := json.Unmarshal([]byte(raw), &probed); err != nil {
		return nil, fmt.Errorf("%w: parse probe output: %v", ErrSourceUnavailable, err)
	}

	var stream *probeStream
	for i := range probed.Streams {
		if probed.Streams[i].CodecType == "video" {
			stream = &probed.Streams[i]
			break
		}
	}
	if stream == nil {
		return nil, fmt.Errorf("%w: no video stream in %s", ErrSourceUnavailable, path)
	}

	fps := parseRate(stream.RFrameRate)
	if fps <= 0 {
		fps = parseRate(stream.AvgFrameRate)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("%w: cannot determine frame rate of %s", ErrSourceUnavailable, path)
	}

	frameCount, _ := strconv.ParseFloat(stream.NbFrames, 64)
	if frameCount <= 0 {
		// Containers without an nb_frames tag: derive from duration.
		duration, _ := strconv.ParseFloat(stream.Duration, 64)
		if duration <= 0 {
			duration, _ = strconv.ParseFloat(probed.Format.Duration, 64)
		}
		frameCount = duration * fps
	}
	if frameCount <= 0 {
		return nil, fmt.Errorf("%w: cannot determine frame count of %s", ErrSourceUnavailable, path)
	}

	logger.Debug("opened video source",
		zap.String("path", path),
		zap.Float64("frames", frameCount),
		zap.Float64("fps", fps),
		zap.Int("width", stream.Width),
		zap.Int("height", stream.Height),
	)

	return &FFmpegSource{
		path:       path,
		frameCount: frameCount,
		fps:        fps,
		width:      stream.Width,
		height:     stream.Height,
		logger:     logger,
	}, nil
}

// FrameCount returns the metadata-reported total frame count.
func (s *FFmpegSource) FrameCount() float64 { return s.frameCount }

// FPS returns the video stream frame rate.
func (s *FFmpegSource) FPS() float64 { return s.fps }

// Size returns the stream dimensions reported by the container.
func (s *FFmpegSource) Size() (width, height int) { return s.width, s.height }

// Seek positions the read cursor at frameIndex.
func (s *FFmpegSource) Seek(frameIndex int) {
	if frameIndex < 0 {
		frameIndex = 0
	}
	s.pos = frameIndex
}

// seekLeadFrames is the decode window kept ahead of the target frame when
// input seeking. The window absorbs timestamp imprecision around the seek
// point; the select filter then lands on the exact frame.
const seekLeadFrames = 48

// seekPoint returns the input-side seek timestamp for frame index pos and
// the number of frames the select filter still skips after the seek. The
// timestamp sits half a frame before the first window frame so rounding
// can never push the seek past it. A zero timestamp means no input seek.
func seekPoint(pos int, fps float64) (seconds float64, lead int) {
	if pos <= seekLeadFrames {
		return 0, pos
	}
	return (float64(pos-seekLeadFrames) - 0.5) / fps, seekLeadFrames
}

// ReadNext decodes the frame at the cursor and advances the cursor. An
// input-side seek jumps near the target so the decoder does not replay the
// stream from the start on every read; the select filter makes the read
// frame-accurate regardless of keyframe placement.
func (s *FFmpegSource) ReadNext(ctx context.Context) (image.Image, error) {
	if s.released {
		return nil, ErrReleased
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seconds, lead := seekPoint(s.pos, s.fps)
	input := ffmpeg.Input(s.path)
	if seconds > 0 {
		input = ffmpeg.Input(s.path, ffmpeg.KwArgs{"ss": fmt.Sprintf("%.6f", seconds)})
	}

	buf := &bytes.Buffer{}
	err := input.
		Filter("select", ffmpeg.Args{fmt.Sprintf("gte(n,%d)", lead)}).
		Output("pipe:", ffmpeg.KwArgs{"vframes": 1, "format": "image2", "vcodec": "png"}).
		WithOutput(buf).
		Silent(true).
		Run()
	if err != nil {
		return nil, fmt.Errorf("decode frame %d of %s: %w", s.pos, s.path, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: frame %d of %s", ErrEndOfStream, s.pos, s.path)
	}

	img, err := png.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d of %s: %w", s.pos, s.path, err)
	}

	s.pos++
	return img, nil
}

// Release frees the handle. Safe to call repeatedly.
func (s *FFmpegSource) Release() error {
	if s.released {
		return nil
	}
	s.released = true
	s.logger.Debug("released video source", zap.String("path", s.path))
	return nil
}

// parseRate parses an ffprobe rational such as "30000/1001" or "25/1".
func parseRate(rate string) float64 {
	if rate == "" || rate == "0/0" {
		return 0
	}
	parts := strings.SplitN(rate, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return num
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}
