package render

import (
	"github.com/jkaflik/valve2mqtt/internal/geometry"
	"github.com/jkaflik/valve2mqtt/internal/valve"
)

// Common draws a plain valve: one bowtie body, no moving parts.
type Common struct {
	strokes
}

func NewCommon() *Common {
	return &Common{strokes{LineWidth: 2, ErrorLineWidth: 2, ErrorOffset: 2}}
}

func (r *Common) Kind() Kind { return KindCommon }

func (r *Common) IsBlocked(s valve.Status) bool {
	return commonBlocked(s)
}

func (r *Common) Draw(c Canvas, container geometry.Bounds, o geometry.Orientation, s valve.Status, light bool) {
	drawFrame(c, r.strokes, r.IsBlocked(s), container, o, s, func(b geometry.Bounds) {
		body := bowtie(b)
		c.FillPolygon(body, BodyColor(s, light))
		c.StrokePolygon(body, ColorLines, r.LineWidth)
	})
}
