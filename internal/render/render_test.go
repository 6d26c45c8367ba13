package render

import (
	"testing"

	"github.com/jkaflik/valve2mqtt/internal/geometry"
	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var container = geometry.Rect(0, 0, 120, 60)

func draw(r Renderer, o geometry.Orientation, s valve.Status, light bool) *Recorder {
	rec := &Recorder{}
	r.Draw(rec, container, o, s, light)
	return rec
}

func TestSelectKind(t *testing.T) {
	assert.Equal(t, KindCommon, SelectKind(false, false))
	assert.Equal(t, KindSmooth, SelectKind(false, true))
	assert.Equal(t, KindSlideGate, SelectKind(true, false))
	assert.Equal(t, KindSlideGate, SelectKind(true, true))

	for _, k := range []Kind{KindCommon, KindSmooth, KindSlideGate} {
		assert.Equal(t, k, New(k).Kind())
	}
}

func TestCommonOpenedScenario(t *testing.T) {
	s := valve.Status{ConnectionOk: true, Opened: true}
	rec := draw(NewCommon(), geometry.Top, s, false)

	assert.Empty(t, rec.Filter(OpClear), "no blocked overlay")
	assert.Empty(t, rec.Filter(OpStrokeRect), "no error halo")

	fills := rec.Filter(OpFillPolygon)
	require.Len(t, fills, 1)
	assert.Equal(t, ColorOpened, fills[0].Color)
	assert.Len(t, fills[0].Points, 6)

	aa := rec.Filter(OpAntialias)
	require.Len(t, aa, 1)
	assert.True(t, aa[0].Antialias)
}

func TestDrawOrder(t *testing.T) {
	s := valve.Status{ConnectionOk: false, Opened: true}
	rec := draw(NewSlideGate(), geometry.Left, s, false)

	var kinds []OpKind
	for _, op := range rec.Ops {
		kinds = append(kinds, op.Kind)
	}

	require.NotEmpty(t, kinds)
	assert.Equal(t, OpClear, kinds[0], "blocked overlay first")
	assert.Equal(t, OpAntialias, kinds[1])
	assert.Equal(t, OpTransform, kinds[2])
	assert.Equal(t, OpStrokeRect, kinds[len(kinds)-1], "error halo last")

	assert.Len(t, rec.Filter(OpTransform), 1, "one transform per draw call")
}

func TestConnectionLostIsAlwaysBlocked(t *testing.T) {
	statuses := []valve.Status{
		{},
		{Opened: true},
		{Closed: true, BlockOpening: true},
		{OpeningClosing: true, Collision: true, UsedByAutoMode: true},
	}

	for _, r := range []Renderer{NewCommon(), NewSmooth(), NewSlideGate()} {
		for _, s := range statuses {
			assert.True(t, r.IsBlocked(s), "%s %+v", r.Kind(), s)

			clears := draw(r, geometry.Top, s, true).Filter(OpClear)
			require.Len(t, clears, 1)
			assert.Equal(t, ColorBlocked, clears[0].Color)
		}
	}
}

func TestIsBlockedPerKind(t *testing.T) {
	closedBlocked := valve.Status{ConnectionOk: true, Closed: true, BlockOpening: true}
	assert.False(t, NewCommon().IsBlocked(closedBlocked))
	assert.False(t, NewSmooth().IsBlocked(closedBlocked))
	assert.True(t, NewSlideGate().IsBlocked(closedBlocked))

	openedBlocked := valve.Status{ConnectionOk: true, Opened: true, BlockClosing: true}
	assert.True(t, NewSlideGate().IsBlocked(openedBlocked))
	assert.False(t, NewSlideGate().IsBlocked(valve.Status{ConnectionOk: true, Opened: true, BlockOpening: true}))

	both := valve.Status{ConnectionOk: true, BlockOpening: true, BlockClosing: true}
	assert.True(t, NewCommon().IsBlocked(both))
}

func TestTransformResetsEveryCall(t *testing.T) {
	rec := &Recorder{}
	r := NewCommon()
	r.Draw(rec, container, geometry.Left, valve.Status{ConnectionOk: true}, false)
	r.Draw(rec, container, geometry.Left, valve.Status{ConnectionOk: true}, false)

	transforms := rec.Filter(OpTransform)
	require.Len(t, transforms, 2)
	assert.Equal(t, transforms[0].Transform, transforms[1].Transform)
	assert.Equal(t, geometry.RotateAt(270, container.Center()), transforms[0].Transform)

	rec.Reset()
	r.Draw(rec, container, geometry.Top, valve.Status{ConnectionOk: true}, false)
	assert.True(t, rec.Filter(OpTransform)[0].Transform.IsIdentity())
}

func TestVerticalOrientationSwapsWorkingBounds(t *testing.T) {
	rec := draw(NewCommon(), geometry.Right, valve.Status{ConnectionOk: true, Collision: true}, true)

	halo := rec.Filter(OpStrokeRect)
	require.Len(t, halo, 1)
	assert.InDelta(t, 60-2*3, halo[0].Rect.Width, 1e-9)
	assert.InDelta(t, 120-2*3, halo[0].Rect.Height, 1e-9)
}

func TestDegenerateContainerIsTolerated(t *testing.T) {
	containers := []geometry.Bounds{
		geometry.Rect(0, 0, -4, 0),
		geometry.Rect(0, 0, 20, 30),
		geometry.Rect(0, 0, 34, 12),
	}
	for _, r := range []Renderer{NewCommon(), NewSmooth(), NewSlideGate()} {
		for _, container := range containers {
			rec := &Recorder{}
			assert.NotPanics(t, func() {
				r.Draw(rec, container, geometry.Left, valve.Status{ConnectionOk: true, Opened: true}, false)
			})
			for _, op := range rec.Filter(OpFillPolygon) {
				for _, p := range op.Points {
					assert.False(t, p.X != p.X || p.Y != p.Y, "NaN point")
				}
			}
			for _, op := range rec.Filter(OpFillRect) {
				assert.GreaterOrEqual(t, op.Rect.Width, 0.0, "%s in %v", r.Kind(), container)
				assert.GreaterOrEqual(t, op.Rect.Height, 0.0, "%s in %v", r.Kind(), container)
			}
		}
	}
}

func TestSlideGateInNarrowGroove(t *testing.T) {
	r := NewSlideGate()
	gate := r.GateBounds(geometry.Rect(0, 0, 3, 10), valve.Status{Closed: true}, false)
	assert.Equal(t, 0.0, gate.Width)
	assert.GreaterOrEqual(t, gate.Height, 0.0)
}

func TestSlideGateOffset(t *testing.T) {
	r := NewSlideGate()
	groove := geometry.Rect(0, 0, 12, 40)
	travel := groove.Height/4 - r.LineWidth/2

	assert.Equal(t, travel, r.GateOffset(groove, valve.Status{Opened: true}, false))
	assert.Equal(t, travel, r.GateOffset(groove, valve.Status{Opened: true}, true))
	assert.Equal(t, -travel, r.GateOffset(groove, valve.Status{Closed: true}, true))
	assert.Equal(t, 0.0, r.GateOffset(groove, valve.Status{}, true))

	moving := valve.Status{OpeningClosing: true}
	light := r.GateOffset(groove, moving, true)
	dark := r.GateOffset(groove, moving, false)
	assert.Equal(t, travel, light)
	assert.Equal(t, -travel, dark)
	assert.InDelta(t, groove.Height/2-r.LineWidth, light-dark, 1e-9)
}

func TestSlideGateBarAlternatesWithBlinkPhase(t *testing.T) {
	r := NewSlideGate()
	s := valve.Status{ConnectionOk: true, OpeningClosing: true}

	light := draw(r, geometry.Top, s, true).Filter(OpFillRect)
	dark := draw(r, geometry.Top, s, false).Filter(OpFillRect)
	require.Len(t, light, 1)
	require.Len(t, dark, 1)

	groove := r.GrooveBounds(r.valveBounds(container))
	assert.InDelta(t, groove.Height/2-r.LineWidth, dark[0].Rect.CenterY()-light[0].Rect.CenterY(), 1e-9)
	assert.Equal(t, light[0].Rect.Width, dark[0].Rect.Width)
}

func TestSlideGateGeometry(t *testing.T) {
	r := NewSlideGate()
	body := geometry.Rect(0, 0, 100, 60)

	flaps := r.FlapPoints(body)
	left, right := flaps[0], flaps[1]
	require.Len(t, left, 3)
	require.Len(t, right, 3)

	gap := right[1].X - left[1].X
	assert.InDelta(t, (100-r.LineWidth)*relativeGrooveWidth, gap, 1e-9)
	assert.InDelta(t, body.CenterY(), left[1].Y, 1e-9)

	groove := r.GrooveBounds(body)
	assert.InDelta(t, 40, groove.Height, 1e-9)
	assert.InDelta(t, 12, groove.Width, 1e-9)
	assert.InDelta(t, body.Top(), groove.Top(), 1e-9)
	assert.InDelta(t, body.CenterX(), groove.CenterX(), 1e-9)

	gate := r.GateBounds(groove, valve.Status{}, false)
	assert.InDelta(t, (12-2*r.LineWidth)*relativeGateWidth, gate.Width, 1e-9)
	assert.InDelta(t, groove.CenterX(), gate.CenterX(), 1e-9)
	assert.InDelta(t, groove.CenterY(), gate.CenterY(), 1e-9)
}

func TestSlideGateFlapColors(t *testing.T) {
	r := NewSlideGate()

	colors := r.FlapColors(valve.Status{ConnectionOk: true, Opened: true}, false)
	assert.Equal(t, ColorOpened, colors[0])
	assert.Equal(t, ColorOpened, colors[1])

	colors = r.FlapColors(valve.Status{ConnectionOk: true, Opened: true, ForceClose: true}, false)
	assert.Equal(t, ColorOpened, colors[0])
	assert.Equal(t, ColorForceClose, colors[1])
}

func TestSmoothValveCue(t *testing.T) {
	r := NewSmooth()

	rec := draw(r, geometry.Top, valve.Status{ConnectionOk: true, Opened: true, OpenedSmoothly: true}, false)
	fills := rec.Filter(OpFillPolygon)
	require.Len(t, fills, 2)
	assert.Equal(t, ColorSmooth, fills[0].Color)
	assert.Equal(t, ColorOpened, fills[1].Color)

	rec = draw(r, geometry.Top, valve.Status{ConnectionOk: true, Opened: true}, false)
	fills = rec.Filter(OpFillPolygon)
	require.Len(t, fills, 1)
	assert.Equal(t, ColorOpened, fills[0].Color)
}

func TestBodyColor(t *testing.T) {
	tests := []struct {
		name   string
		status valve.Status
		light  bool
		want   string
	}{
		{"opened", valve.Status{ConnectionOk: true, Opened: true}, false, "opened"},
		{"opened, closing blocked", valve.Status{ConnectionOk: true, Opened: true, BlockClosing: true}, false, "opened_locked"},
		{"closed", valve.Status{ConnectionOk: true, Closed: true}, false, "closed"},
		{"closed, opening blocked", valve.Status{ConnectionOk: true, Closed: true, BlockOpening: true}, false, "closed_locked"},
		{"moving light", valve.Status{ConnectionOk: true, OpeningClosing: true}, true, "opened"},
		{"moving dark", valve.Status{ConnectionOk: true, OpeningClosing: true}, false, "closed"},
		{"undefined", valve.Status{ConnectionOk: true}, false, "undefined"},
		{"undefined with error", valve.Status{ConnectionOk: true, NotOpened: true, NotClosed: true}, false, "error"},
		{"collision dark", valve.Status{ConnectionOk: true, Opened: true, Collision: true}, false, "error"},
		{"collision light", valve.Status{ConnectionOk: true, Opened: true, Collision: true}, true, "opened"},
	}

	names := map[string]interface{}{
		"opened":        ColorOpened,
		"opened_locked": ColorOpenedLocked,
		"closed":        ColorClosed,
		"closed_locked": ColorClosedLocked,
		"undefined":     ColorUndefined,
		"error":         ColorError,
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, names[tt.want], BodyColor(tt.status, tt.light))
		})
	}
}

func TestRecorderReplay(t *testing.T) {
	src := draw(NewSlideGate(), geometry.Bottom, valve.Status{ConnectionOk: true, Closed: true, Collision: true}, false)

	dst := &Recorder{}
	src.Replay(dst)
	assert.Equal(t, src.Ops, dst.Ops)
}
