package widget

import (
	"time"

	"github.com/jkaflik/valve2mqtt/internal/valve"
)

// Timing holds the durations of the three widget timers.
type Timing struct {
	Blink time.Duration `yaml:"blink" default:"500ms"`
	Pulse time.Duration `yaml:"pulse" default:"500ms"`
	Hold  time.Duration `yaml:"hold" default:"200ms"`
}

func DefaultTiming() Timing {
	return Timing{
		Blink: 500 * time.Millisecond,
		Pulse: 500 * time.Millisecond,
		Hold:  200 * time.Millisecond,
	}
}

// Button is the pointer button of an interaction.
type Button int

const (
	Primary Button = iota
	Secondary
)

type (
	SignalHandler    func(cmd valve.Command, on bool)
	BlinkHandler     func(light bool)
	LongPressHandler func()
)

// Machine is the animation and command state machine of one widget. All of
// its methods run on the widget event loop; time is always passed in.
type Machine struct {
	blink Timer
	pulse Timer
	hold  Timer

	light   bool
	command valve.Command
	pulsing bool
	holding bool

	onSignal    SignalHandler
	onBlink     BlinkHandler
	onLongPress LongPressHandler
}

func NewMachine(t Timing) *Machine {
	return &Machine{
		blink:       Timer{Interval: t.Blink},
		pulse:       Timer{Interval: t.Pulse},
		hold:        Timer{Interval: t.Hold},
		onSignal:    func(valve.Command, bool) {},
		onBlink:     func(bool) {},
		onLongPress: func() {},
	}
}

func (m *Machine) OnSignal(h SignalHandler)       { m.onSignal = h }
func (m *Machine) OnBlink(h BlinkHandler)         { m.onBlink = h }
func (m *Machine) OnLongPress(h LongPressHandler) { m.onLongPress = h }

// Light is the current blink phase, always false while not blinking.
func (m *Machine) Light() bool { return m.light }

func (m *Machine) Blinking() bool { return m.blink.Armed() }

func (m *Machine) Holding() bool { return m.holding }

// Pulsing returns the command whose signal is currently asserted.
func (m *Machine) Pulsing() (valve.Command, bool) {
	return m.command, m.pulsing
}

// Timer exposes a timer for inspection.
func (m *Machine) Timer(id TimerID) *Timer {
	switch id {
	case BlinkTimer:
		return &m.blink
	case PulseTimer:
		return &m.pulse
	default:
		return &m.hold
	}
}

// OnStatusUpdated starts or stops blinking on the edges of the blink
// condition. A running blink timer is never restarted.
func (m *Machine) OnStatusUpdated(now time.Time, s valve.Status) {
	needed := s.Blinking()
	switch {
	case needed && !m.blink.Armed():
		m.blink.Arm(now)
	case !needed && m.blink.Armed():
		m.stopBlink()
	}
}

// Dispatch asserts the command signal for one pulse. A running pulse is
// cleared first so at most one signal is asserted at a time.
func (m *Machine) Dispatch(now time.Time, cmd valve.Command, s valve.Status) valve.Rejection {
	if r := s.Permits(cmd); r != valve.Accepted {
		return r
	}

	if m.pulsing {
		m.endPulse()
	}

	m.command = cmd
	m.pulsing = true
	m.onSignal(cmd, true)
	m.pulse.Arm(now)

	return valve.Accepted
}

// PointerDown arms the hold timer for the secondary button; any other
// button cancels a pending hold.
func (m *Machine) PointerDown(now time.Time, b Button) {
	if b != Secondary {
		m.cancelHold()
		return
	}

	m.holding = true
	m.hold.Arm(now)
}

// PointerUp cancels a pending hold. After a long press it is a no-op.
func (m *Machine) PointerUp(b Button) {
	if b != Secondary {
		return
	}
	m.cancelHold()
}

// OnTick handles the expiry of one timer.
func (m *Machine) OnTick(now time.Time, id TimerID) {
	switch id {
	case BlinkTimer:
		if !m.blink.Armed() {
			return
		}
		m.light = !m.light
		m.blink.Arm(now)
		m.onBlink(m.light)
	case PulseTimer:
		if m.pulsing {
			m.endPulse()
		}
	case HoldTimer:
		if !m.holding {
			return
		}
		m.cancelHold()
		m.onLongPress()
	}
}

// Advance fires every timer due at now.
func (m *Machine) Advance(now time.Time) {
	for _, id := range []TimerID{BlinkTimer, PulseTimer, HoldTimer} {
		if m.Timer(id).Due(now) {
			m.OnTick(now, id)
		}
	}
}

// NextDeadline is the earliest deadline among armed timers.
func (m *Machine) NextDeadline() (time.Time, bool) {
	var next time.Time
	found := false
	for _, id := range []TimerID{BlinkTimer, PulseTimer, HoldTimer} {
		d, armed := m.Timer(id).Deadline()
		if armed && (!found || d.Before(next)) {
			next, found = d, true
		}
	}
	return next, found
}

// Stop disarms every timer and releases an asserted signal. Safe to call
// more than once.
func (m *Machine) Stop() {
	m.stopBlink()
	m.cancelHold()
	if m.pulsing {
		m.endPulse()
	}
}

func (m *Machine) stopBlink() {
	m.blink.Disarm()
	if m.light {
		m.light = false
		m.onBlink(false)
	}
}

func (m *Machine) endPulse() {
	m.pulse.Disarm()
	m.pulsing = false
	m.onSignal(m.command, false)
}

func (m *Machine) cancelHold() {
	m.hold.Disarm()
	m.holding = false
}
