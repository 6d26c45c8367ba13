package widget

import (
	"testing"
	"time"

	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type signalLog struct {
	writes []string
	on     map[valve.Command]bool
	max    int
}

func (l *signalLog) handler(cmd valve.Command, on bool) {
	if l.on == nil {
		l.on = map[valve.Command]bool{}
	}
	l.on[cmd] = on

	n := 0
	for _, v := range l.on {
		if v {
			n++
		}
	}
	if n > l.max {
		l.max = n
	}

	state := "off"
	if on {
		state = "on"
	}
	l.writes = append(l.writes, cmd.String()+":"+state)
}

func newMachine() (*Machine, *signalLog) {
	m := NewMachine(DefaultTiming())
	log := &signalLog{}
	m.OnSignal(log.handler)
	return m, log
}

func TestBlinkArmsOnlyOnEdges(t *testing.T) {
	m, _ := newMachine()
	toggles := 0
	m.OnBlink(func(bool) { toggles++ })

	m.OnStatusUpdated(t0, valve.Status{Opened: true})
	assert.False(t, m.Blinking())

	m.OnStatusUpdated(t0, valve.Status{OpeningClosing: true})
	require.True(t, m.Blinking())
	deadline, _ := m.Timer(BlinkTimer).Deadline()
	assert.Equal(t, t0.Add(500*time.Millisecond), deadline)

	t.Run("already running timer is not restarted", func(t *testing.T) {
		m.OnStatusUpdated(t0.Add(300*time.Millisecond), valve.Status{OpeningClosing: true})
		d, _ := m.Timer(BlinkTimer).Deadline()
		assert.Equal(t, deadline, d)
	})

	t.Run("phase toggles once per interval", func(t *testing.T) {
		m.Advance(t0.Add(499 * time.Millisecond))
		assert.False(t, m.Light())

		m.Advance(t0.Add(500 * time.Millisecond))
		assert.True(t, m.Light())

		m.Advance(t0.Add(1000 * time.Millisecond))
		assert.False(t, m.Light())
		assert.Equal(t, 2, toggles)
	})

	t.Run("collision without smooth opening keeps blinking", func(t *testing.T) {
		m.OnStatusUpdated(t0.Add(time.Second), valve.Status{Collision: true})
		assert.True(t, m.Blinking())
	})

	t.Run("disarms when neither condition holds and resets the phase", func(t *testing.T) {
		m.Advance(t0.Add(1500 * time.Millisecond))
		require.True(t, m.Light())

		m.OnStatusUpdated(t0.Add(1600*time.Millisecond), valve.Status{Collision: true, OpenedSmoothly: true})
		assert.False(t, m.Blinking())
		assert.False(t, m.Light())

		before := toggles
		m.Advance(t0.Add(10 * time.Second))
		assert.False(t, m.Light())
		assert.Equal(t, before, toggles, "never toggles while idle")
	})
}

func TestDispatchRejected(t *testing.T) {
	tests := []struct {
		name   string
		cmd    valve.Command
		status valve.Status
		want   valve.Rejection
	}{
		{"open while opening blocked", valve.Open, valve.Status{BlockOpening: true}, valve.RejectedBlocked},
		{"open smoothly while opening blocked", valve.OpenSmoothly, valve.Status{BlockOpening: true}, valve.RejectedBlocked},
		{"close while closing blocked", valve.Close, valve.Status{BlockClosing: true}, valve.RejectedBlocked},
		{"auto mode", valve.Open, valve.Status{UsedByAutoMode: true}, valve.RejectedAutoMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, log := newMachine()
			assert.Equal(t, tt.want, m.Dispatch(t0, tt.cmd, tt.status))
			assert.Empty(t, log.writes)
			assert.False(t, m.Timer(PulseTimer).Armed())
			_, pulsing := m.Pulsing()
			assert.False(t, pulsing)
		})
	}
}

func TestPulse(t *testing.T) {
	m, log := newMachine()

	require.Equal(t, valve.Accepted, m.Dispatch(t0, valve.Open, valve.Status{}))
	assert.Equal(t, []string{"open:on"}, log.writes)
	cmd, pulsing := m.Pulsing()
	assert.True(t, pulsing)
	assert.Equal(t, valve.Open, cmd)

	m.Advance(t0.Add(499 * time.Millisecond))
	assert.Equal(t, []string{"open:on"}, log.writes)

	m.Advance(t0.Add(500 * time.Millisecond))
	assert.Equal(t, []string{"open:on", "open:off"}, log.writes)
	assert.False(t, m.Timer(PulseTimer).Armed())
}

func TestRedispatchRestartsPulse(t *testing.T) {
	m, log := newMachine()

	m.Dispatch(t0, valve.Open, valve.Status{})
	m.Dispatch(t0.Add(400*time.Millisecond), valve.Close, valve.Status{})

	assert.Equal(t, []string{"open:on", "open:off", "close:on"}, log.writes)
	assert.Equal(t, 1, log.max, "never two signals at once")

	deadline, armed := m.Timer(PulseTimer).Deadline()
	assert.True(t, armed)
	assert.Equal(t, t0.Add(900*time.Millisecond), deadline)

	m.Advance(t0.Add(600 * time.Millisecond))
	cmd, pulsing := m.Pulsing()
	assert.True(t, pulsing, "duration restarted by the second dispatch")
	assert.Equal(t, valve.Close, cmd)

	m.Advance(t0.Add(900 * time.Millisecond))
	assert.Equal(t, "close:off", log.writes[len(log.writes)-1])
}

func TestPressAndHold(t *testing.T) {
	t.Run("released before threshold", func(t *testing.T) {
		m, _ := newMachine()
		fired := 0
		m.OnLongPress(func() { fired++ })

		m.PointerDown(t0, Secondary)
		assert.True(t, m.Holding())
		m.PointerUp(Secondary)
		assert.False(t, m.Holding())

		m.Advance(t0.Add(time.Second))
		assert.Equal(t, 0, fired)
	})

	t.Run("primary press elsewhere cancels", func(t *testing.T) {
		m, _ := newMachine()
		fired := 0
		m.OnLongPress(func() { fired++ })

		m.PointerDown(t0, Secondary)
		m.PointerDown(t0.Add(100*time.Millisecond), Primary)
		m.Advance(t0.Add(time.Second))
		assert.Equal(t, 0, fired)
	})

	t.Run("threshold elapsed fires once", func(t *testing.T) {
		m, _ := newMachine()
		fired := 0
		m.OnLongPress(func() { fired++ })

		m.PointerDown(t0, Secondary)
		m.Advance(t0.Add(199 * time.Millisecond))
		assert.Equal(t, 0, fired)

		m.Advance(t0.Add(200 * time.Millisecond))
		assert.Equal(t, 1, fired)
		assert.False(t, m.Holding())

		m.Advance(t0.Add(time.Second))
		m.PointerUp(Secondary)
		m.OnTick(t0.Add(time.Second), HoldTimer)
		assert.Equal(t, 1, fired)
	})

	t.Run("primary release is ignored", func(t *testing.T) {
		m, _ := newMachine()
		m.PointerDown(t0, Secondary)
		m.PointerUp(Primary)
		assert.True(t, m.Holding())
	})
}

func TestNextDeadline(t *testing.T) {
	m, _ := newMachine()
	_, ok := m.NextDeadline()
	assert.False(t, ok)

	m.OnStatusUpdated(t0, valve.Status{OpeningClosing: true})
	m.PointerDown(t0.Add(100*time.Millisecond), Secondary)

	d, ok := m.NextDeadline()
	assert.True(t, ok)
	assert.Equal(t, t0.Add(300*time.Millisecond), d)
}

func TestStopIsIdempotent(t *testing.T) {
	m, log := newMachine()
	m.OnStatusUpdated(t0, valve.Status{OpeningClosing: true})
	m.Dispatch(t0, valve.Close, valve.Status{})
	m.PointerDown(t0, Secondary)

	m.Stop()
	m.Stop()

	for _, id := range []TimerID{BlinkTimer, PulseTimer, HoldTimer} {
		assert.False(t, m.Timer(id).Armed(), id.String())
	}
	assert.Equal(t, []string{"close:on", "close:off"}, log.writes)
}

func TestTimerDisarmWhenIdle(t *testing.T) {
	var tm Timer
	assert.NotPanics(t, tm.Disarm)
	assert.False(t, tm.Due(t0))

	tm.Interval = time.Second
	tm.Arm(t0)
	assert.False(t, tm.Due(t0))
	assert.True(t, tm.Due(t0.Add(time.Second)))
}
