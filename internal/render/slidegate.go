package render

import (
	"image/color"
	"math"

	"github.com/jkaflik/valve2mqtt/internal/geometry"
	"github.com/jkaflik/valve2mqtt/internal/valve"
)

const (
	// relativeGrooveWidth is the groove width relative to the body width.
	relativeGrooveWidth = 0.12

	// relativeGateWidth is the gate width relative to the inner groove width.
	relativeGateWidth = 0.75

	// triangleHeightFactor is 2/sqrt(3), the extra height a stroke takes at
	// the sharp corners of the flaps.
	triangleHeightFactor = 1.154
)

// SlideGate draws two triangular flaps pointing at each other, a groove
// across the gap and a gate bar travelling inside the groove.
type SlideGate struct {
	strokes
}

func NewSlideGate() *SlideGate {
	return &SlideGate{strokes{LineWidth: 2, ErrorLineWidth: 2, ErrorOffset: 2}}
}

func (r *SlideGate) Kind() Kind { return KindSlideGate }

// IsBlocked is true when the only movement the gate could make from its
// current end position is blocked.
func (r *SlideGate) IsBlocked(s valve.Status) bool {
	if commonBlocked(s) {
		return true
	}

	switch s.State() {
	case valve.Closed:
		return s.BlockOpening
	case valve.Opened:
		return s.BlockClosing
	}
	return false
}

func (r *SlideGate) Draw(c Canvas, container geometry.Bounds, o geometry.Orientation, s valve.Status, light bool) {
	drawFrame(c, r.strokes, r.IsBlocked(s), container, o, s, func(b geometry.Bounds) {
		r.drawFlaps(c, b, s, light)
		r.drawGrooveAndGate(c, b, s, light)
	})
}

func (r *SlideGate) drawFlaps(c Canvas, b geometry.Bounds, s valve.Status, light bool) {
	colors := r.FlapColors(s, light)
	flaps := r.FlapPoints(b)
	for i, pts := range flaps {
		c.FillPolygon(pts, colors[i])
	}
	for _, pts := range flaps {
		c.StrokePolygon(pts, ColorLines, r.LineWidth)
	}
}

func (r *SlideGate) drawGrooveAndGate(c Canvas, b geometry.Bounds, s valve.Status, light bool) {
	groove := r.GrooveBounds(b)
	c.StrokePolygon(groove.Points(-r.LineWidth/2), ColorLines, r.LineWidth)
	c.FillRect(r.GateBounds(groove, s, light), ColorLines)
}

// FlapColors returns the fills of the left and the right flap. The right one
// sits on the closing side and turns amber while a forced close is asserted.
func (r *SlideGate) FlapColors(s valve.Status, light bool) [2]color.RGBA {
	body := BodyColor(s, light)
	colors := [2]color.RGBA{body, body}
	if s.ForceClose && body != ColorError {
		colors[1] = ColorForceClose
	}
	return colors
}

// FlapPoints returns the left and right triangles with a gap between their
// apexes for the groove.
func (r *SlideGate) FlapPoints(b geometry.Bounds) [2][]geometry.Point {
	b = b.Resized(b.Width-r.LineWidth, b.Height-r.LineWidth*triangleHeightFactor).Clamp()

	offset := b.Width * relativeGrooveWidth / 2
	left := geometry.Point{X: b.CenterX() - offset, Y: b.CenterY()}
	right := geometry.Point{X: b.CenterX() + offset, Y: b.CenterY()}

	return [2][]geometry.Point{
		{b.LeftTop(), left, b.LeftBottom()},
		{b.RightTop(), right, b.RightBottom()},
	}
}

// GrooveBounds spans the upper two thirds of the body across the gap.
func (r *SlideGate) GrooveBounds(b geometry.Bounds) geometry.Bounds {
	g := b.Resized(b.Width*relativeGrooveWidth, b.Height*2/3)
	return g.Offset(0, -b.Height/6)
}

// GateBounds places the gate bar inside the groove according to its travel.
// A groove narrower than its outline leaves an empty gate.
func (r *SlideGate) GateBounds(groove geometry.Bounds, s valve.Status, light bool) geometry.Bounds {
	inner := math.Max(0, groove.Width-2*r.LineWidth)
	width := inner * relativeGateWidth
	gap := (inner - width) / 2
	height := math.Max(0, (groove.Height-2*r.LineWidth-3*gap)/2)

	gate := groove.Resized(width, height)
	return gate.Offset(0, -r.GateOffset(groove, s, light))
}

// GateOffset is the upward displacement of the gate from the groove center.
// Opening and closing alternate between both ends with the blink phase.
func (r *SlideGate) GateOffset(groove geometry.Bounds, s valve.Status, light bool) float64 {
	travel := groove.Height/4 - r.LineWidth/2

	switch st := s.State(); {
	case st == valve.Opened || (st == valve.OpeningClosing && light):
		return travel
	case st == valve.Closed || (st == valve.OpeningClosing && !light):
		return -travel
	}
	return 0
}
