package render

import (
	"image/color"

	"github.com/jkaflik/valve2mqtt/internal/geometry"
)

// Canvas is the draw target renderers emit instructions to. Coordinates are
// mapped through the current transform, which replaces the previous one.
type Canvas interface {
	Clear(c color.RGBA)
	SetTransform(t geometry.Transform)
	SetAntialias(on bool)
	FillPolygon(pts []geometry.Point, c color.RGBA)
	StrokePolygon(pts []geometry.Point, c color.RGBA, width float64)
	FillRect(b geometry.Bounds, c color.RGBA)
	StrokeRect(b geometry.Bounds, c color.RGBA, width float64)
}

type OpKind int

const (
	OpClear OpKind = iota
	OpTransform
	OpAntialias
	OpFillPolygon
	OpStrokePolygon
	OpFillRect
	OpStrokeRect
)

func (k OpKind) String() string {
	switch k {
	case OpClear:
		return "clear"
	case OpTransform:
		return "transform"
	case OpAntialias:
		return "antialias"
	case OpFillPolygon:
		return "fill_polygon"
	case OpStrokePolygon:
		return "stroke_polygon"
	case OpFillRect:
		return "fill_rect"
	default:
		return "stroke_rect"
	}
}

// Op is one recorded draw instruction.
type Op struct {
	Kind      OpKind
	Points    []geometry.Point
	Rect      geometry.Bounds
	Color     color.RGBA
	Width     float64
	Transform geometry.Transform
	Antialias bool
}

// Recorder is a Canvas keeping the instruction list of a draw pass.
type Recorder struct {
	Ops []Op
}

func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}

func (r *Recorder) Clear(c color.RGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpClear, Color: c})
}

func (r *Recorder) SetTransform(t geometry.Transform) {
	r.Ops = append(r.Ops, Op{Kind: OpTransform, Transform: t})
}

func (r *Recorder) SetAntialias(on bool) {
	r.Ops = append(r.Ops, Op{Kind: OpAntialias, Antialias: on})
}

func (r *Recorder) FillPolygon(pts []geometry.Point, c color.RGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpFillPolygon, Points: clonePoints(pts), Color: c})
}

func (r *Recorder) StrokePolygon(pts []geometry.Point, c color.RGBA, width float64) {
	r.Ops = append(r.Ops, Op{Kind: OpStrokePolygon, Points: clonePoints(pts), Color: c, Width: width})
}

func (r *Recorder) FillRect(b geometry.Bounds, c color.RGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpFillRect, Rect: b, Color: c})
}

func (r *Recorder) StrokeRect(b geometry.Bounds, c color.RGBA, width float64) {
	r.Ops = append(r.Ops, Op{Kind: OpStrokeRect, Rect: b, Color: c, Width: width})
}

// Filter returns the recorded ops of the given kind in order.
func (r *Recorder) Filter(kind OpKind) []Op {
	var ops []Op
	for _, op := range r.Ops {
		if op.Kind == kind {
			ops = append(ops, op)
		}
	}
	return ops
}

// Replay sends the recorded ops to another canvas.
func (r *Recorder) Replay(c Canvas) {
	for _, op := range r.Ops {
		switch op.Kind {
		case OpClear:
			c.Clear(op.Color)
		case OpTransform:
			c.SetTransform(op.Transform)
		case OpAntialias:
			c.SetAntialias(op.Antialias)
		case OpFillPolygon:
			c.FillPolygon(op.Points, op.Color)
		case OpStrokePolygon:
			c.StrokePolygon(op.Points, op.Color, op.Width)
		case OpFillRect:
			c.FillRect(op.Rect, op.Color)
		case OpStrokeRect:
			c.StrokeRect(op.Rect, op.Color, op.Width)
		}
	}
}

func clonePoints(pts []geometry.Point) []geometry.Point {
	return append([]geometry.Point(nil), pts...)
}
