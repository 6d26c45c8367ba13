package render

import (
	"github.com/jkaflik/valve2mqtt/internal/geometry"
	"github.com/jkaflik/valve2mqtt/internal/valve"
)

// relativeCoreSize is the size of the inner bowtie marking a smooth opening.
const relativeCoreSize = 0.5

// Smooth draws a valve able to open smoothly. While opened smoothly the body
// is pale and a smaller fully opened bowtie sits in its middle.
type Smooth struct {
	strokes
}

func NewSmooth() *Smooth {
	return &Smooth{strokes{LineWidth: 2, ErrorLineWidth: 2, ErrorOffset: 2}}
}

func (r *Smooth) Kind() Kind { return KindSmooth }

func (r *Smooth) IsBlocked(s valve.Status) bool {
	return commonBlocked(s)
}

func (r *Smooth) Draw(c Canvas, container geometry.Bounds, o geometry.Orientation, s valve.Status, light bool) {
	drawFrame(c, r.strokes, r.IsBlocked(s), container, o, s, func(b geometry.Bounds) {
		body := bowtie(b)
		if !r.partiallyOpened(s) {
			c.FillPolygon(body, BodyColor(s, light))
			c.StrokePolygon(body, ColorLines, r.LineWidth)
			return
		}

		c.FillPolygon(body, ColorSmooth)
		c.StrokePolygon(body, ColorLines, r.LineWidth)

		core := bowtie(b.Resized(b.Width*relativeCoreSize, b.Height*relativeCoreSize))
		c.FillPolygon(core, ColorOpened)
		c.StrokePolygon(core, ColorLines, r.LineWidth/2)
	})
}

// partiallyOpened is true when the smooth opening cue replaces the body fill.
func (r *Smooth) partiallyOpened(s valve.Status) bool {
	if !s.OpenedSmoothly {
		return false
	}
	st := s.State()
	return st != valve.Closed && st != valve.OpeningClosing
}
