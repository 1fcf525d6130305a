// Package interval converts between frame counts, frame rates and capture
// intervals for evenly spaced video sampling.
package interval

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidCount is returned when a requested frame count is not a
	// positive integer or exceeds the frames available in the source.
	ErrInvalidCount = errors.New("frame count must be a positive integer")

	// ErrInvalidInterval is returned when a capture interval is not positive.
	ErrInvalidInterval = errors.New("capture interval must be positive")
)

// FromFrameCount calculates the capture interval, in seconds, between
// successive samples when nframes frames are spread evenly over a video with
// the given total frame count and frame rate.
func FromFrameCount(totalFrames, fps float64, nframes int) (float64, error) {
	if nframes < 1 {
		return 0, ErrInvalidCount
	}
	if float64(nframes) > totalFrames {
		return 0, fmt.Errorf("%w: requested %d frames, only %.0f available", ErrInvalidCount, nframes, totalFrames)
	}
	if fps <= 0 {
		return 0, fmt.Errorf("invalid frame rate %f", fps)
	}
	return (totalFrames / float64(nframes)) / fps, nil
}

// FrameCount calculates how many frames a video yields when one frame is
// captured every seconds of playback time.
func FrameCount(totalFrames, fps, seconds float64) (int, error) {
	if seconds <= 0 {
		return 0, ErrInvalidInterval
	}
	if fps <= 0 {
		return 0, fmt.Errorf("invalid frame rate %f", fps)
	}
	duration := totalFrames / fps
	return int(math.Round(duration / seconds)), nil
}
