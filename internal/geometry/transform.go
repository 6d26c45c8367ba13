package geometry

import "math"

// Transform is a 2D affine matrix:
//
//	x' = A*x + C*y + E
//	y' = B*x + D*y + F
type Transform struct {
	A, B, C, D, E, F float64
}

func Identity() Transform {
	return Transform{A: 1, D: 1}
}

func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// Then returns the transform applying t first and u second.
func (t Transform) Then(u Transform) Transform {
	return Transform{
		A: u.A*t.A + u.C*t.B,
		B: u.B*t.A + u.D*t.B,
		C: u.A*t.C + u.C*t.D,
		D: u.B*t.C + u.D*t.D,
		E: u.A*t.E + u.C*t.F + u.E,
		F: u.B*t.E + u.D*t.F + u.F,
	}
}

func Translate(dx, dy float64) Transform {
	return Transform{A: 1, D: 1, E: dx, F: dy}
}

// Rotate is a clockwise rotation on a y-down surface. Quarter turns are exact.
func Rotate(degrees float64) Transform {
	sin, cos := sincos(degrees)
	return Transform{A: cos, B: sin, C: -sin, D: cos}
}

// RotateAt rotates around the given point.
func RotateAt(degrees float64, p Point) Transform {
	return Translate(-p.X, -p.Y).Then(Rotate(degrees)).Then(Translate(p.X, p.Y))
}

func (t Transform) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.C*p.Y + t.E,
		Y: t.B*p.X + t.D*p.Y + t.F,
	}
}

func (t Transform) ApplyAll(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = t.Apply(p)
	}
	return out
}

// Orient prepares a draw pass for the orientation: the returned transform is
// applied to the drawing surface and the returned bounds are the logical
// horizontal working area. Vertical orientations swap width and height once.
func Orient(container Bounds, o Orientation) (Transform, Bounds) {
	container = container.Clamp()
	if o.Degrees() == 0 {
		return Identity(), container
	}

	t := RotateAt(o.Degrees(), container.Center())
	if o.IsVertical() {
		container = container.Swapped()
	}
	return t, container
}

func sincos(degrees float64) (float64, float64) {
	switch math.Mod(math.Mod(degrees, 360)+360, 360) {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(degrees * math.Pi / 180)
}
