// Package render turns a valve status snapshot into draw instructions.
//
// Every valve kind is authored once for the horizontal case; the orientation
// is applied as a single rotation of the drawing surface per draw call.
package render

import (
	"fmt"

	"github.com/jkaflik/valve2mqtt/internal/geometry"
	"github.com/jkaflik/valve2mqtt/internal/valve"
)

// Kind tags the renderer variant.
type Kind int

const (
	KindCommon Kind = iota
	KindSmooth
	KindSlideGate
)

func (k Kind) String() string {
	switch k {
	case KindCommon:
		return "common"
	case KindSmooth:
		return "smooth"
	case KindSlideGate:
		return "slide_gate"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SelectKind maps the two configuration switches onto a renderer variant.
// The slide gate switch wins over the smooth valve one.
func SelectKind(isSlideGate, isSmoothValve bool) Kind {
	switch {
	case isSlideGate:
		return KindSlideGate
	case isSmoothValve:
		return KindSmooth
	default:
		return KindCommon
	}
}

// Renderer draws one valve kind.
type Renderer interface {
	Kind() Kind
	// IsBlocked reports whether the blocked overlay covers the surface.
	IsBlocked(s valve.Status) bool
	Draw(c Canvas, container geometry.Bounds, o geometry.Orientation, s valve.Status, light bool)
}

// New builds the renderer for a kind.
func New(k Kind) Renderer {
	switch k {
	case KindSlideGate:
		return NewSlideGate()
	case KindSmooth:
		return NewSmooth()
	default:
		return NewCommon()
	}
}

// strokes holds the per instance pen widths.
type strokes struct {
	LineWidth      float64
	ErrorLineWidth float64
	ErrorOffset    float64
}

// valveBounds is the body area inside the error halo.
func (w strokes) valveBounds(work geometry.Bounds) geometry.Bounds {
	return work.Inset(w.ErrorOffset + w.ErrorLineWidth + w.LineWidth).Clamp()
}

// errorBounds is the centre line of the error halo stroke.
func (w strokes) errorBounds(work geometry.Bounds) geometry.Bounds {
	return work.Inset(w.ErrorOffset + w.ErrorLineWidth/2).Clamp()
}

// drawFrame runs the steps shared by all kinds around the body algorithm.
func drawFrame(c Canvas, w strokes, blocked bool, container geometry.Bounds, o geometry.Orientation, s valve.Status, body func(valveBounds geometry.Bounds)) {
	if blocked {
		c.Clear(ColorBlocked)
	}
	c.SetAntialias(true)

	t, work := geometry.Orient(container, o)
	c.SetTransform(t)

	body(w.valveBounds(work))

	if s.AnyError() {
		c.StrokeRect(w.errorBounds(work), ColorError, w.ErrorLineWidth)
	}
}

// bowtie is the classic valve symbol: two triangles meeting in the center.
func bowtie(b geometry.Bounds) []geometry.Point {
	c := b.Center()
	return []geometry.Point{b.LeftTop(), c, b.RightTop(), b.RightBottom(), c, b.LeftBottom()}
}

// commonBlocked is the overlay rule of valves without a gate: nothing at all
// may be commanded.
func commonBlocked(s valve.Status) bool {
	return !s.ConnectionOk || (s.BlockOpening && s.BlockClosing)
}
