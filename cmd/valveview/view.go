package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jkaflik/valve2mqtt/internal/geometry"
	"github.com/jkaflik/valve2mqtt/internal/render"
	"github.com/jkaflik/valve2mqtt/internal/render/raster"
	"github.com/jkaflik/valve2mqtt/internal/signal"
	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/jkaflik/valve2mqtt/internal/widget"
)

const (
	resizeStep = 8
	minWidth   = 16
)

var (
	colorButton       = color.RGBA{210, 210, 210, 255}
	colorButtonActive = color.RGBA{120, 170, 255, 255}
)

// flagKeys maps the keys toggling status flags on the memory source.
var flagKeys = []struct {
	key  rune
	flag valve.Flag
}{
	{'1', valve.FlagConnectionOk},
	{'2', valve.FlagNotOpened},
	{'3', valve.FlagNotClosed},
	{'4', valve.FlagCollision},
	{'5', valve.FlagUsedByAutoMode},
	{'6', valve.FlagOpened},
	{'7', valve.FlagOpenedSmoothly},
	{'8', valve.FlagClosed},
	{'9', valve.FlagOpeningClosing},
	{'0', valve.FlagForceClose},
	{'-', valve.FlagBlockClosing},
	{'=', valve.FlagBlockOpening},
	{'m', valve.FlagSmoothValve},
}

var buttonLabels = map[valve.Command]string{
	valve.Open:         "OPEN",
	valve.OpenSmoothly: "SMOOTH",
	valve.Close:        "CLOSE",
}

// view paints one widget with half block cells: every terminal cell shows
// two vertically stacked pixels.
type view struct {
	screen tcell.Screen
	w      *widget.Widget
	src    *signal.Memory
	quit   func()

	buttons tcell.ButtonMask
}

// compose renders the whole widget, button table included, into an image
// in widget coordinates.
func compose(w *widget.Widget) *image.RGBA {
	cfg := w.Config()
	l := w.Layout()

	full := raster.NewCanvas(int(math.Ceil(cfg.Width)), int(math.Ceil(cfg.Height)))
	full.Clear(render.ColorBackground)

	pulsing, on := w.Machine().Pulsing()
	for i, b := range l.Buttons {
		fill := colorButton
		if on && w.Buttons()[i] == pulsing {
			fill = colorButtonActive
		}
		full.FillRect(b.Inset(0.5), fill)
		full.StrokeRect(b.Inset(0.5), render.ColorLines, 1)
	}

	device := raster.NewCanvas(w.SurfaceSize())
	w.Draw(device)
	at := image.Pt(int(l.Device.X), int(l.Device.Y))
	draw.Draw(full.Image(), device.Image().Bounds().Add(at), device.Image(), image.Point{}, draw.Src)

	return full.Image()
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func (v *view) draw(w *widget.Widget) {
	v.screen.Clear()

	img := compose(w)
	bounds := img.Bounds()
	rows := (bounds.Dy() + 1) / 2
	for y := 0; y < rows; y++ {
		for x := 0; x < bounds.Dx(); x++ {
			top := img.RGBAAt(x, 2*y)
			bottom := render.ColorBackground
			if 2*y+1 < bounds.Dy() {
				bottom = img.RGBAAt(x, 2*y+1)
			}
			v.screen.SetContent(x, y, '▀', nil, tcell.StyleDefault.Foreground(rgb(top)).Background(rgb(bottom)))
		}
	}

	labelStyle := tcell.StyleDefault.Foreground(rgb(render.ColorLines)).Background(rgb(colorButton))
	for i, b := range w.Layout().Buttons {
		label := buttonLabels[w.Buttons()[i]]
		if n := int(b.Width) - 2; n < len(label) {
			label = label[:max(0, n)]
		}
		v.text(int(b.CenterX())-len(label)/2, int(b.CenterY())/2, label, labelStyle)
	}

	row := rows + 1
	s := w.Status()
	v.text(0, row, fmt.Sprintf("%s  state=%s kind=%s orientation=%s buttons=%s", w.Name(), s.State(), w.Kind(), w.Config().Orientation, w.Config().ButtonOrientation), tcell.StyleDefault)
	row++

	var flags []string
	for _, k := range flagKeys {
		mark := " "
		if v.src.Flag(k.flag) {
			mark = "*"
		}
		flags = append(flags, fmt.Sprintf("%c%s%s", k.key, mark, k.flag))
	}
	for i := 0; i < len(flags); i += 4 {
		v.text(0, row, strings.Join(flags[i:min(i+4, len(flags))], "  "), tcell.StyleDefault)
		row++
	}
	v.text(0, row, "o open  s open smoothly  c close  r rotate  b buttons  g slide gate  h hide  [ ] size  q quit", tcell.StyleDefault.Dim(true))
	row++

	if p, open := w.Panel(); open {
		row++
		for _, lamp := range p.Lamps() {
			style := tcell.StyleDefault.Foreground(tcell.ColorGray)
			if lamp.Active {
				style = tcell.StyleDefault.Foreground(tcell.ColorGreen)
			}
			v.text(0, row, "● "+lamp.Label, style)
			row++
		}
	}

	v.screen.Show()
}

func (v *view) text(x, y int, s string, style tcell.Style) {
	for i, r := range []rune(s) {
		v.screen.SetContent(x+i, y, r, nil, style)
	}
}

// handle runs on the widget loop.
func (v *view) handle(ev tcell.Event, now time.Time) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		v.handleKey(ev, now)
	case *tcell.EventMouse:
		v.handleMouse(ev, now)
	case *tcell.EventResize:
		v.screen.Sync()
		v.draw(v.w)
	}
}

func (v *view) handleKey(ev *tcell.EventKey, now time.Time) {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		v.quit()
		return
	}
	if ev.Key() != tcell.KeyRune {
		return
	}

	for _, k := range flagKeys {
		if k.key == ev.Rune() {
			v.src.Toggle(k.flag)
			v.w.Refresh(now)
			return
		}
	}

	cfg := v.w.Config()
	switch ev.Rune() {
	case 'q':
		v.quit()
	case 'o':
		v.w.Click(now, valve.Open)
	case 's':
		v.w.Click(now, valve.OpenSmoothly)
	case 'c':
		v.w.Click(now, valve.Close)
	case 'r':
		v.w.SetOrientation(cfg.Orientation.Rotate(90))
	case 'b':
		if cfg.ButtonOrientation == geometry.LeftTop {
			v.w.SetButtonOrientation(geometry.RightBottom)
		} else {
			v.w.SetButtonOrientation(geometry.LeftTop)
		}
	case 'g':
		v.w.SetSlideGate(!cfg.SlideGate)
	case 'h':
		v.w.SetVisible(!v.w.Visible())
		v.w.Refresh(now)
	case '[':
		v.resize(-resizeStep)
	case ']':
		v.resize(resizeStep)
	}
}

// resize grows or shrinks the widget keeping its aspect ratio.
func (v *view) resize(step float64) {
	cfg := v.w.Config()
	width := math.Max(minWidth, cfg.Width+step)
	v.w.Resize(width, cfg.Height*width/cfg.Width)
}

func (v *view) handleMouse(ev *tcell.EventMouse, now time.Time) {
	x, y := ev.Position()
	p := geometry.Point{X: float64(x) + 0.5, Y: float64(y)*2 + 1}

	buttons := ev.Buttons()
	pressed := buttons &^ v.buttons
	released := v.buttons &^ buttons
	v.buttons = buttons

	if pressed&tcell.Button1 != 0 {
		v.w.PointerDown(now, widget.Primary)
		v.w.ClickAt(now, p)
	}
	if released&tcell.Button1 != 0 {
		v.w.PointerUp(now, widget.Primary)
	}
	if pressed&tcell.Button2 != 0 {
		v.w.PointerDown(now, widget.Secondary)
	}
	if released&tcell.Button2 != 0 {
		v.w.PointerUp(now, widget.Secondary)
	}
}
