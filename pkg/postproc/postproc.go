// Package postproc applies the visual post-processing steps to a finished
// composite: whole-axis color averaging and directional box blur.
package postproc

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ritammehta/frame-by-frame/pkg/types"
)

// ErrInvalidKernel is returned when a blur kernel size is smaller than 1.
var ErrInvalidKernel = errors.New("blur kernel size must be at least 1")

// AverageAxis collapses the image to a single line along the given axis by
// area averaging, then scales back up, so every line perpendicular to the
// axis holds the average color. An image already uniform along the axis is
// returned with identical pixel values.
func AverageAxis(img image.Image, axis types.Axis) (image.Image, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidAxis, axis)
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("cannot average empty image")
	}

	var collapsed *image.NRGBA
	if axis == types.Horizontal {
		collapsed = imaging.Resize(img, width, 1, imaging.Box)
	} else {
		collapsed = imaging.Resize(img, 1, height, imaging.Box)
	}
	return imaging.Resize(collapsed, width, height, imaging.Box), nil
}

// DirectionalBlur convolves the image with a kernelSize x kernelSize
// kernel that is zero everywhere except a single center line at
// 1/kernelSize: the center row for a vertically stacked composite
// (smearing horizontally) and the center column for a horizontal one.
// This collapses to a 1-D moving average along the smear direction.
// Edge pixels are handled by clamping the window to the image (replicated
// borders). The center index is (kernelSize-1)/2, which also defines the
// tie-break for even sizes. kernelSize 1 returns a pixel-exact copy.
func DirectionalBlur(img image.Image, axis types.Axis, kernelSize int) (image.Image, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidAxis, axis)
	}
	if kernelSize < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKernel, kernelSize)
	}

	src := imaging.Clone(img)
	if kernelSize == 1 {
		return src, nil
	}

	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	dst := image.NewNRGBA(b)
	center := (kernelSize - 1) / 2
	half := uint32(kernelSize / 2) // rounding bias for the integer divide

	if axis == types.Vertical {
		for y := 0; y < height; y++ {
			row := y * src.Stride
			for x := 0; x < width; x++ {
				var sum [4]uint32
				for k := 0; k < kernelSize; k++ {
					sx := clampIndex(x+k-center, width)
					i := row + sx*4
					sum[0] += uint32(src.Pix[i])
					sum[1] += uint32(src.Pix[i+1])
					sum[2] += uint32(src.Pix[i+2])
					sum[3] += uint32(src.Pix[i+3])
				}
				o := row + x*4
				dst.Pix[o] = uint8((sum[0] + half) / uint32(kernelSize))
				dst.Pix[o+1] = uint8((sum[1] + half) / uint32(kernelSize))
				dst.Pix[o+2] = uint8((sum[2] + half) / uint32(kernelSize))
				dst.Pix[o+3] = uint8((sum[3] + half) / uint32(kernelSize))
			}
		}
		return dst, nil
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum [4]uint32
			for k := 0; k < kernelSize; k++ {
				sy := clampIndex(y+k-center, height)
				i := sy*src.Stride + x*4
				sum[0] += uint32(src.Pix[i])
				sum[1] += uint32(src.Pix[i+1])
				sum[2] += uint32(src.Pix[i+2])
				sum[3] += uint32(src.Pix[i+3])
			}
			o := y*dst.Stride + x*4
			dst.Pix[o] = uint8((sum[0] + half) / uint32(kernelSize))
			dst.Pix[o+1] = uint8((sum[1] + half) / uint32(kernelSize))
			dst.Pix[o+2] = uint8((sum[2] + half) / uint32(kernelSize))
			dst.Pix[o+3] = uint8((sum[3] + half) / uint32(kernelSize))
		}
	}
	return dst, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
