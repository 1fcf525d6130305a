package types

import "errors"

// Axis selects the direction along which frame cells are concatenated.
type Axis string

const (
	// Horizontal concatenates cells left to right.
	Horizontal Axis = "horizontal"
	// Vertical concatenates cells top to bottom.
	Vertical Axis = "vertical"
)

// ErrInvalidAxis is returned when an axis is neither horizontal nor vertical.
var ErrInvalidAxis = errors.New(`invalid axis: must be "horizontal" or "vertical"`)

// Valid reports whether the axis is one of the two supported values.
func (a Axis) Valid() bool {
	return a == Horizontal || a == Vertical
}

func (a Axis) String() string {
	return string(a)
}

// Other returns the perpendicular axis.
func (a Axis) Other() Axis {
	if a == Horizontal {
		return Vertical
	}
	return Horizontal
}
