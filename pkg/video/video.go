// Package video provides random access to decoded frames of a video file.
//
// The Source interface is the decoding collaborator used by the sampler;
// the package ships an ffmpeg/ffprobe backed implementation. Frame count
// and frame rate come from container metadata and may be approximate:
// callers must tolerate an off-by-one at the final frame.
package video

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrSourceUnavailable is returned when a video file cannot be opened
	// or probed.
	ErrSourceUnavailable = errors.New("video source unavailable")

	// ErrEndOfStream is returned by ReadNext when no frame exists at the
	// current position.
	ErrEndOfStream = errors.New("end of video stream")

	// ErrReleased is returned when a released source is used.
	ErrReleased = errors.New("video source already released")
)

// Source is a handle to an opened video file. A Source is not safe for
// concurrent use; spawn one per goroutine when parallelizing.
type Source interface {
	// FrameCount returns the total number of frames as reported by the
	// container metadata. The value is a float because it is
	// metadata-derived and may be imprecise.
	FrameCount() float64

	// FPS returns the frame rate of the video stream.
	FPS() float64

	// Seek positions the read cursor at the given frame index.
	Seek(frameIndex int)

	// ReadNext decodes and returns the frame at the cursor, then advances
	// the cursor by one frame.
	ReadNext(ctx context.Context) (image.Image, error)

	// Release frees the handle. It is safe to call more than once.
	Release() error
}
