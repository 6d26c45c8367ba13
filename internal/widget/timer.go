package widget

import "time"

// TimerID names the three timers of a widget.
type TimerID int

const (
	BlinkTimer TimerID = iota
	PulseTimer
	HoldTimer
)

func (id TimerID) String() string {
	switch id {
	case BlinkTimer:
		return "blink"
	case PulseTimer:
		return "pulse"
	default:
		return "hold"
	}
}

// Timer is an armed flag plus a deadline. It never fires by itself: the
// owner checks Due on its event loop.
type Timer struct {
	Interval time.Duration

	armed    bool
	deadline time.Time
}

// Arm starts the timer, re-arming moves the deadline.
func (t *Timer) Arm(now time.Time) {
	t.armed = true
	t.deadline = now.Add(t.Interval)
}

// Disarm is idempotent.
func (t *Timer) Disarm() {
	t.armed = false
	t.deadline = time.Time{}
}

func (t *Timer) Armed() bool {
	return t.armed
}

func (t *Timer) Deadline() (time.Time, bool) {
	return t.deadline, t.armed
}

func (t *Timer) Due(now time.Time) bool {
	return t.armed && !now.Before(t.deadline)
}
