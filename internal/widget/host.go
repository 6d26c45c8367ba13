package widget

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Event is a unit of work queued on the host loop.
type Event func(now time.Time)

// Host is the single sequential event loop owning a set of widgets. Status
// polls, timer expiries and posted events never run concurrently.
type Host struct {
	widgets []*Widget
	poll    time.Duration
	events  chan Event
	done    chan struct{}
	clock   func() time.Time
}

func NewHost(poll time.Duration, widgets ...*Widget) *Host {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}

	return &Host{
		widgets: widgets,
		poll:    poll,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
		clock:   time.Now,
	}
}

func (h *Host) Widgets() []*Widget {
	return h.widgets
}

// Post queues an event. It may be called from any goroutine. Events posted
// after Run returned are dropped.
func (h *Host) Post(e Event) {
	select {
	case h.events <- e:
	case <-h.done:
	}
}

// Done is closed once Run returned.
func (h *Host) Done() <-chan struct{} {
	return h.done
}

// Run processes events until ctx is done, then tears every widget down. It
// must be called once.
func (h *Host) Run(ctx context.Context) error {
	defer close(h.done)

	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	h.refresh(h.clock())
	h.flush()

	for {
		h.schedule(timer)

		select {
		case <-ctx.Done():
			for _, w := range h.widgets {
				w.Close()
			}
			h.flush()
			logrus.Debug("widget host stopped")
			return nil
		case <-ticker.C:
			h.refresh(h.clock())
		case <-timer.C:
			now := h.clock()
			for _, w := range h.widgets {
				w.Tick(now)
			}
		case e := <-h.events:
			e(h.clock())
		}

		h.flush()
	}
}

func (h *Host) refresh(now time.Time) {
	for _, w := range h.widgets {
		w.Refresh(now)
	}
}

func (h *Host) flush() {
	for _, w := range h.widgets {
		w.Flush()
	}
}

// schedule points the timer at the earliest widget deadline.
func (h *Host) schedule(timer *time.Timer) {
	next := time.Hour
	now := h.clock()
	for _, w := range h.widgets {
		if d, ok := w.NextDeadline(); ok && d.Sub(now) < next {
			next = d.Sub(now)
		}
	}
	if next < 0 {
		next = 0
	}

	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(next)
}
