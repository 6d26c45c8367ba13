package widget

import "github.com/jkaflik/valve2mqtt/internal/valve"

// Observer is notified of widget activity, e.g. to export metrics.
type Observer interface {
	StatusRefreshed(name string, s valve.Status)
	CommandDispatched(name string, cmd valve.Command)
	CommandRejected(name string, cmd valve.Command, reason valve.Rejection)
	SignalChanged(name string, cmd valve.Command, on bool)
	BlinkingChanged(name string, blinking bool)
}

type nopObserver struct{}

func (nopObserver) StatusRefreshed(string, valve.Status)                   {}
func (nopObserver) CommandDispatched(string, valve.Command)                {}
func (nopObserver) CommandRejected(string, valve.Command, valve.Rejection) {}
func (nopObserver) SignalChanged(string, valve.Command, bool)              {}
func (nopObserver) BlinkingChanged(string, bool)                           {}
