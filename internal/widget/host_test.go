package widget

import (
	"context"
	"testing"
	"time"

	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostRunsPostedEventsAndClosesWidgets(t *testing.T) {
	w, src, _ := newWidget(Config{})
	src.SetAll(map[valve.Flag]bool{valve.FlagConnectionOk: true, valve.FlagClosed: true})

	h := NewHost(time.Hour, w)
	require.Equal(t, []*Widget{w}, h.Widgets())

	redrawn := make(chan struct{}, 16)
	w.OnRedraw(func(*Widget) { redrawn <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	select {
	case <-redrawn:
	case <-time.After(time.Second):
		t.Fatal("initial refresh did not redraw")
	}

	result := make(chan valve.Rejection, 1)
	h.Post(func(now time.Time) { result <- w.Click(now, valve.Open) })

	select {
	case r := <-result:
		assert.Equal(t, valve.Accepted, r)
	case <-time.After(time.Second):
		t.Fatal("posted event did not run")
	}

	assert.Eventually(t, func() bool {
		return len(src.History()) == 2
	}, 2*time.Second, 10*time.Millisecond, "pulse ends on the host timer")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("host did not stop")
	}

	assert.Equal(t, valve.RejectedUnavailable, w.Click(time.Now(), valve.Open))
}

func TestHostPostAfterStopDoesNotBlock(t *testing.T) {
	w, _, _ := newWidget(Config{})
	h := NewHost(time.Hour, w)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.Run(ctx))

	select {
	case <-h.Done():
	default:
		t.Fatal("done not closed after Run")
	}

	posted := make(chan struct{})
	go func() {
		defer close(posted)
		for i := 0; i < 100; i++ {
			h.Post(func(time.Time) {})
		}
	}()

	select {
	case <-posted:
	case <-time.After(time.Second):
		t.Fatal("Post blocked on a stopped host")
	}
}
