package geometry

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Orientation is the direction the device faces. The value is the clockwise
// rotation in degrees applied to the logical horizontal drawing.
type Orientation int

const (
	Top    Orientation = 0
	Right  Orientation = 90
	Bottom Orientation = 180
	Left   Orientation = 270
)

func (o Orientation) String() string {
	switch o {
	case Top:
		return "top"
	case Right:
		return "right"
	case Bottom:
		return "bottom"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}

func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top", "":
		return Top, nil
	case "right":
		return Right, nil
	case "bottom":
		return Bottom, nil
	case "left":
		return Left, nil
	}

	return Top, errors.Errorf("%q is not a valid orientation", s)
}

func (o *Orientation) UnmarshalText(text []byte) error {
	v, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Degrees is the rotation normalised into [0, 360).
func (o Orientation) Degrees() float64 {
	return float64(normalize(int(o)))
}

// Rotate turns the orientation clockwise by a multiple of 90 degrees.
func (o Orientation) Rotate(degrees int) Orientation {
	return Orientation(normalize(int(o) + degrees))
}

// IsVertical reports whether the working bounds have width and height swapped.
func (o Orientation) IsVertical() bool {
	d := normalize(int(o))
	return d == 90 || d == 270
}

// QuarterTurnFrom reports whether switching from p to o swaps width and height.
func (o Orientation) QuarterTurnFrom(p Orientation) bool {
	d := normalize(int(o) - int(p))
	return d%180 == 90
}

// Effective returns the width and height shapes are authored against.
func (o Orientation) Effective(width, height float64) (float64, float64) {
	if o.IsVertical() {
		return height, width
	}
	return width, height
}

func normalize(d int) int {
	d %= 360
	if d < 0 {
		d += 360
	}
	return d
}

// ButtonOrientation places the button table before or after the device.
type ButtonOrientation int

const (
	LeftTop ButtonOrientation = iota
	RightBottom
)

func (b ButtonOrientation) String() string {
	if b == RightBottom {
		return "right_bottom"
	}
	return "left_top"
}

func ParseButtonOrientation(s string) (ButtonOrientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left_top", "lefttop", "":
		return LeftTop, nil
	case "right_bottom", "rightbottom":
		return RightBottom, nil
	}

	return LeftTop, errors.Errorf("%q is not a valid button orientation", s)
}

func (b *ButtonOrientation) UnmarshalText(text []byte) error {
	v, err := ParseButtonOrientation(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func (b ButtonOrientation) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}
