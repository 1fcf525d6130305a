// Package sampler selects a fixed number of frames spread evenly over a
// video source and reads them in order.
//
// The schedule starts half an interval in from the beginning so that the
// samples carry no bias toward either end of the file, and the fractional
// position is accumulated as a float across the whole pass: rounding
// happens only at the moment of seeking, never on the running offset, so
// the schedule stays drift-free over millions of frames.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/ritammehta/frame-by-frame/pkg/video"
)

var (
	// ErrInvalidCount is returned when the requested sample count is not a
	// positive integer or exceeds the frames available in the source.
	ErrInvalidCount = errors.New("sample count must be a positive integer")

	// ErrUnreadableFrame is returned when a scheduled frame index cannot
	// be decoded. The whole pass fails: a partial result would break the
	// fixed-length, fixed-order sampling contract.
	ErrUnreadableFrame = errors.New("cannot read frame from video source")
)

// Plan is a deterministic sampling schedule over a video.
type Plan struct {
	// Interval is the spacing between successive samples, in source
	// frames. Kept as a float so the schedule accumulates without drift.
	Interval float64

	// Count is the number of frames the plan yields.
	Count int
}

// NewPlan validates the requested count against the source size and
// derives the keyframe interval.
func NewPlan(totalFrames float64, count int) (Plan, error) {
	if count < 1 {
		return Plan{}, ErrInvalidCount
	}
	if float64(count) > totalFrames {
		return Plan{}, fmt.Errorf("%w: requested %d frames, only %.0f available", ErrInvalidCount, count, totalFrames)
	}
	return Plan{Interval: totalFrames / float64(count), Count: count}, nil
}

// Indices returns the frame indices the plan samples, in increasing order.
func (p Plan) Indices() []int {
	indices := make([]int, p.Count)
	next := p.Interval / 2
	for i := range indices {
		indices[i] = int(next)
		next += p.Interval
	}
	return indices
}

// Sample seeks to each planned index in order, decodes the frame there and
// passes it to visit together with its ordinal position n (0-based) and
// the frame index. Exactly plan.Count frames are visited on success. Any
// decode failure aborts the pass with a wrapped ErrUnreadableFrame; an
// error returned by visit aborts the pass unchanged.
func Sample(ctx context.Context, src video.Source, plan Plan, visit func(n, frameIndex int, frame image.Image) error) error {
	next := plan.Interval / 2
	for n := 0; n < plan.Count; n++ {
		index := int(next)
		src.Seek(index)
		frame, err := src.ReadNext(ctx)
		if err != nil {
			return fmt.Errorf("%w: frame %d (sample %d of %d): %w", ErrUnreadableFrame, index, n+1, plan.Count, err)
		}
		if err := visit(n, index, frame); err != nil {
			return err
		}
		next += plan.Interval
	}
	return nil
}
