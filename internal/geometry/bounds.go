package geometry

import "math"

// Point is a position on the drawing surface, y grows downwards.
type Point struct {
	X float64
	Y float64
}

// Bounds is an axis aligned rectangle anchored at its top left corner.
type Bounds struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func Rect(x, y, width, height float64) Bounds {
	return Bounds{X: x, Y: y, Width: width, Height: height}
}

// Centered returns bounds of the given size centered on c.
func Centered(c Point, width, height float64) Bounds {
	return Bounds{X: c.X - width/2, Y: c.Y - height/2, Width: width, Height: height}
}

func (b Bounds) CenterX() float64 { return b.X + b.Width/2 }
func (b Bounds) CenterY() float64 { return b.Y + b.Height/2 }
func (b Bounds) Center() Point    { return Point{b.CenterX(), b.CenterY()} }

func (b Bounds) Left() float64   { return b.X }
func (b Bounds) Right() float64  { return b.X + b.Width }
func (b Bounds) Top() float64    { return b.Y }
func (b Bounds) Bottom() float64 { return b.Y + b.Height }

func (b Bounds) LeftTop() Point     { return Point{b.Left(), b.Top()} }
func (b Bounds) RightTop() Point    { return Point{b.Right(), b.Top()} }
func (b Bounds) LeftBottom() Point  { return Point{b.Left(), b.Bottom()} }
func (b Bounds) RightBottom() Point { return Point{b.Right(), b.Bottom()} }

// Points returns the four corners clockwise from the left top one. A positive
// margin grows the rectangle on every side, a negative one shrinks it.
func (b Bounds) Points(margin float64) []Point {
	g := b.Inset(-margin)
	return []Point{g.LeftTop(), g.RightTop(), g.RightBottom(), g.LeftBottom()}
}

// Inset shrinks the rectangle by d on every side keeping its center.
func (b Bounds) Inset(d float64) Bounds {
	return Bounds{X: b.X + d, Y: b.Y + d, Width: b.Width - 2*d, Height: b.Height - 2*d}
}

// Resized returns bounds of the new size sharing the same center.
func (b Bounds) Resized(width, height float64) Bounds {
	return Centered(b.Center(), width, height)
}

func (b Bounds) Offset(dx, dy float64) Bounds {
	b.X += dx
	b.Y += dy
	return b
}

// Swapped exchanges width and height around the center.
func (b Bounds) Swapped() Bounds {
	return b.Resized(b.Height, b.Width)
}

// Clamp forces width and height to at least one unit so shape math never
// works on degenerate rectangles.
func (b Bounds) Clamp() Bounds {
	b.Width = atLeastOne(b.Width)
	b.Height = atLeastOne(b.Height)
	return b
}

func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Left() && p.X < b.Right() && p.Y >= b.Top() && p.Y < b.Bottom()
}

func atLeastOne(v float64) float64 {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	return v
}
