// Package widget drives a valve widget: it polls the signal source, picks
// the renderer, runs the timers and turns clicks into command pulses.
package widget

import (
	"math"
	"time"

	"github.com/jkaflik/valve2mqtt/internal/geometry"
	"github.com/jkaflik/valve2mqtt/internal/layout"
	"github.com/jkaflik/valve2mqtt/internal/render"
	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/sirupsen/logrus"
)

// Config is the static configuration of a widget.
type Config struct {
	Width             float64
	Height            float64
	Orientation       geometry.Orientation
	ButtonOrientation geometry.ButtonOrientation
	SlideGate         bool
	Timing            Timing
}

type RedrawHandler func(w *Widget)

type Option func(w *Widget)

func WithObserver(o Observer) Option {
	return func(w *Widget) { w.observer = o }
}

// Widget is one valve on screen. It is not safe for concurrent use: every
// method is expected to run on the event loop owning the widget.
type Widget struct {
	name     string
	cfg      Config
	source   valve.Source
	observer Observer
	machine  *Machine

	status   valve.Status
	smooth   bool
	readErr  string
	renderer render.Renderer
	layout   layout.Layout

	visible bool
	closed  bool
	panel   *Panel

	dirty    bool
	handlers []RedrawHandler
}

func New(name string, cfg Config, src valve.Source, opts ...Option) *Widget {
	if cfg.Timing == (Timing{}) {
		cfg.Timing = DefaultTiming()
	}

	w := &Widget{
		name:     name,
		cfg:      cfg,
		source:   src,
		observer: nopObserver{},
		machine:  NewMachine(cfg.Timing),
		visible:  true,
	}
	for _, opt := range opts {
		opt(w)
	}

	w.machine.OnSignal(w.writeSignal)
	w.machine.OnBlink(func(bool) { w.invalidate() })
	w.machine.OnLongPress(w.openPanel)

	w.selectRenderer()
	w.relayout()

	return w
}

func (w *Widget) Name() string {
	return w.name
}

func (w *Widget) Status() valve.Status {
	return w.status
}

func (w *Widget) Kind() render.Kind {
	return w.renderer.Kind()
}

func (w *Widget) Layout() layout.Layout {
	return w.layout
}

func (w *Widget) Machine() *Machine {
	return w.machine
}

func (w *Widget) Config() Config {
	return w.cfg
}

func (w *Widget) Visible() bool {
	return w.visible && !w.closed
}

// Buttons lists the commands of the visible buttons in layout order.
func (w *Widget) Buttons() []valve.Command {
	if w.smooth {
		return []valve.Command{valve.Open, valve.OpenSmoothly, valve.Close}
	}
	return []valve.Command{valve.Open, valve.Close}
}

// OnRedraw registers a handler called from Flush when the widget changed.
func (w *Widget) OnRedraw(h RedrawHandler) {
	w.handlers = append(w.handlers, h)
}

// Refresh is the poll cycle: it reads every flag, updates the renderer
// selection and feeds the state machine.
func (w *Widget) Refresh(now time.Time) {
	if w.closed {
		return
	}

	s, smooth, err := valve.Poll(w.source)
	if err != nil {
		if err.Error() != w.readErr {
			logrus.Errorf("%s: signal source read failed: %s", w.name, err)
		}
		w.readErr = err.Error()
		s, smooth = valve.Status{}, w.smooth
	} else if w.readErr != "" {
		logrus.Infof("%s: signal source recovered", w.name)
		w.readErr = ""
	}

	if s.Suspicious() && !w.status.Suspicious() {
		logrus.Debugf("%s: suspicious flags, opened and closed both asserted", w.name)
	}

	if smooth != w.smooth {
		logrus.Debugf("%s: smooth valve switched to %t", w.name, smooth)
		w.smooth = smooth
		w.relayout()
	}
	w.selectRenderer()

	if s != w.status {
		w.status = s
		w.invalidate()
		if w.panel != nil {
			*w.panel = PanelFor(s)
		}
	}

	if w.visible {
		blinking := w.machine.Blinking()
		w.machine.OnStatusUpdated(now, s)
		if blinking != w.machine.Blinking() {
			w.observer.BlinkingChanged(w.name, w.machine.Blinking())
		}
	}

	w.observer.StatusRefreshed(w.name, s)
}

// Tick fires the timers due at now.
func (w *Widget) Tick(now time.Time) {
	blinking := w.machine.Blinking()
	w.machine.Advance(now)
	if blinking != w.machine.Blinking() {
		w.observer.BlinkingChanged(w.name, w.machine.Blinking())
	}
}

func (w *Widget) NextDeadline() (time.Time, bool) {
	return w.machine.NextDeadline()
}

// Click dispatches a command. Blocked and auto mode commands are ignored.
func (w *Widget) Click(now time.Time, cmd valve.Command) valve.Rejection {
	var r valve.Rejection
	switch {
	case w.closed || !w.visible:
		r = valve.RejectedUnavailable
	case cmd == valve.OpenSmoothly && !w.smooth:
		r = valve.RejectedUnavailable
	default:
		r = w.machine.Dispatch(now, cmd, w.status)
	}

	if r != valve.Accepted {
		logrus.Infof("%s: %s rejected, %s", w.name, cmd, r)
		w.observer.CommandRejected(w.name, cmd, r)
		return r
	}

	logrus.Infof("%s: %s", w.name, cmd)
	w.observer.CommandDispatched(w.name, cmd)
	return r
}

// ClickAt dispatches the command of the button under p, widget coordinates.
func (w *Widget) ClickAt(now time.Time, p geometry.Point) (valve.Command, valve.Rejection, bool) {
	i, ok := w.layout.ButtonAt(p)
	if !ok {
		return 0, valve.Accepted, false
	}

	cmd := w.Buttons()[i]
	return cmd, w.Click(now, cmd), true
}

func (w *Widget) PointerDown(now time.Time, b Button) {
	if w.closed {
		return
	}
	if b != Secondary {
		w.closePanel()
	}
	w.machine.PointerDown(now, b)
}

func (w *Widget) PointerUp(now time.Time, b Button) {
	if w.closed {
		return
	}
	w.machine.PointerUp(b)
	if b == Secondary {
		w.closePanel()
	}
}

// Panel returns the settings panel while it is open.
func (w *Widget) Panel() (Panel, bool) {
	if w.panel == nil {
		return Panel{}, false
	}
	return *w.panel, true
}

// SetOrientation changes the device facing. A quarter turn swaps the widget
// width and height.
func (w *Widget) SetOrientation(o geometry.Orientation) {
	if o.QuarterTurnFrom(w.cfg.Orientation) {
		w.cfg.Width, w.cfg.Height = w.cfg.Height, w.cfg.Width
	}

	if o != w.cfg.Orientation {
		w.cfg.Orientation = o
		w.relayout()
	}
}

func (w *Widget) SetButtonOrientation(bo geometry.ButtonOrientation) {
	if bo != w.cfg.ButtonOrientation {
		w.cfg.ButtonOrientation = bo
		w.relayout()
	}
}

func (w *Widget) SetSlideGate(on bool) {
	w.cfg.SlideGate = on
	w.selectRenderer()
}

func (w *Widget) Resize(width, height float64) {
	w.cfg.Width, w.cfg.Height = width, height
	w.relayout()
}

// SetVisible hides or shows the widget. Hiding stops every timer.
func (w *Widget) SetVisible(visible bool) {
	if w.visible == visible {
		return
	}
	w.visible = visible
	if !visible {
		w.closePanel()
		w.stopMachine()
	}
	w.invalidate()
}

// Close tears the widget down. Safe to call more than once.
func (w *Widget) Close() {
	if w.closed {
		return
	}
	w.closePanel()
	w.stopMachine()
	w.closed = true
	logrus.Debugf("%s: widget closed", w.name)
}

// SurfaceSize is the pixel size of the device drawing surface.
func (w *Widget) SurfaceSize() (int, int) {
	d := w.layout.Device
	return int(math.Max(1, math.Ceil(d.Width))), int(math.Max(1, math.Ceil(d.Height)))
}

// Draw paints the device surface, origin at its left top corner.
func (w *Widget) Draw(c render.Canvas) {
	width, height := w.SurfaceSize()
	c.SetTransform(geometry.Identity())
	c.Clear(render.ColorBackground)
	w.renderer.Draw(c, geometry.Rect(0, 0, float64(width), float64(height)), w.cfg.Orientation, w.status, w.machine.Light())
}

// Frame returns the draw instructions of the current state.
func (w *Widget) Frame() *render.Recorder {
	rec := &render.Recorder{}
	w.Draw(rec)
	return rec
}

// Flush runs the redraw handlers if anything changed since the last call.
func (w *Widget) Flush() {
	if !w.dirty {
		return
	}
	w.dirty = false
	for _, h := range w.handlers {
		h(w)
	}
}

func (w *Widget) invalidate() {
	w.dirty = true
}

func (w *Widget) stopMachine() {
	blinking := w.machine.Blinking()
	w.machine.Stop()
	if blinking {
		w.observer.BlinkingChanged(w.name, false)
	}
}

func (w *Widget) selectRenderer() {
	k := render.SelectKind(w.cfg.SlideGate, w.smooth)
	if w.renderer != nil && w.renderer.Kind() == k {
		return
	}

	logrus.Debugf("%s: %s renderer selected", w.name, k)
	w.renderer = render.New(k)
	w.invalidate()
}

func (w *Widget) relayout() {
	container := geometry.Rect(0, 0, w.cfg.Width, w.cfg.Height)
	w.layout = layout.Build(container, w.cfg.Orientation, w.cfg.ButtonOrientation, len(w.Buttons()))
	w.invalidate()
}

func (w *Widget) writeSignal(cmd valve.Command, on bool) {
	if err := w.source.WriteSignal(cmd, on); err != nil {
		logrus.Errorf("%s: write %s signal failed: %s", w.name, cmd, err)
	}
	w.observer.SignalChanged(w.name, cmd, on)
	w.invalidate()
}

func (w *Widget) openPanel() {
	p := PanelFor(w.status)
	w.panel = &p
	logrus.Debugf("%s: settings panel opened", w.name)
	w.invalidate()
}

func (w *Widget) closePanel() {
	if w.panel == nil {
		return
	}
	w.panel = nil
	logrus.Debugf("%s: settings panel closed", w.name)
	w.invalidate()
}
