// Package raster paints draw instructions into an RGBA image. Fills go
// through x/image/vector, outlines through gg.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/jkaflik/valve2mqtt/internal/geometry"
	"github.com/pkg/errors"
	"golang.org/x/image/vector"
)

// Canvas implements render.Canvas on top of an image.RGBA.
type Canvas struct {
	img       *image.RGBA
	r         *vector.Rasterizer
	stroker   *gg.Context
	transform geometry.Transform
	antialias bool
}

func NewCanvas(width, height int) *Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	stroker := gg.NewContextForRGBA(img)
	stroker.SetLineCap(gg.LineCapSquare)
	stroker.SetLineJoin(gg.LineJoinRound)

	return &Canvas{
		img:       img,
		r:         vector.NewRasterizer(width, height),
		stroker:   stroker,
		transform: geometry.Identity(),
		antialias: true,
	}
}

func (c *Canvas) Image() *image.RGBA {
	return c.img
}

func (c *Canvas) Clear(col color.RGBA) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *Canvas) SetTransform(t geometry.Transform) {
	c.transform = t
}

// SetAntialias off snaps every vertex to the pixel grid.
func (c *Canvas) SetAntialias(on bool) {
	c.antialias = on
}

func (c *Canvas) FillPolygon(pts []geometry.Point, col color.RGBA) {
	if len(pts) < 3 {
		return
	}

	c.begin()
	c.path(pts)
	c.paint(col)
}

func (c *Canvas) StrokePolygon(pts []geometry.Point, col color.RGBA, width float64) {
	if len(pts) < 2 || width <= 0 {
		return
	}

	c.stroker.ClearPath()
	for i, p := range pts {
		q := c.project(p)
		if i == 0 {
			c.stroker.MoveTo(q.X, q.Y)
			continue
		}
		c.stroker.LineTo(q.X, q.Y)
	}
	c.stroker.ClosePath()

	c.stroker.SetColor(col)
	c.stroker.SetLineWidth(width)
	c.stroker.Stroke()
}

func (c *Canvas) FillRect(b geometry.Bounds, col color.RGBA) {
	if b.Empty() {
		return
	}
	c.FillPolygon(b.Points(0), col)
}

func (c *Canvas) StrokeRect(b geometry.Bounds, col color.RGBA, width float64) {
	if b.Empty() {
		return
	}
	c.StrokePolygon(b.Points(0), col, width)
}

// EncodePNG writes the current image.
func (c *Canvas) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, c.img); err != nil {
		return errors.Wrap(err, "png encode failed")
	}
	return nil
}

func (c *Canvas) begin() {
	b := c.img.Bounds()
	c.r.Reset(b.Dx(), b.Dy())
}

func (c *Canvas) path(pts []geometry.Point) {
	first := c.project(pts[0])
	c.r.MoveTo(float32(first.X), float32(first.Y))
	for _, p := range pts[1:] {
		q := c.project(p)
		c.r.LineTo(float32(q.X), float32(q.Y))
	}
	c.r.ClosePath()
}

func (c *Canvas) project(p geometry.Point) geometry.Point {
	q := c.transform.Apply(p)
	if !c.antialias {
		q.X, q.Y = math.Round(q.X), math.Round(q.Y)
	}
	return q
}

func (c *Canvas) paint(col color.RGBA) {
	c.r.DrawOp = draw.Over
	c.r.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
}
