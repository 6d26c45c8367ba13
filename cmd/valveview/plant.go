package main

import (
	"time"

	"github.com/jkaflik/valve2mqtt/internal/signal"
	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/jkaflik/valve2mqtt/internal/widget"
	"github.com/sirupsen/logrus"
)

// plant simulates the valve behind the memory source: an asserted command
// signal starts a travel that ends in the matching end position.
type plant struct {
	src    *signal.Memory
	travel time.Duration
	post   func(widget.Event)
	after  func(d time.Duration, f func())

	seq int
}

func newPlant(src *signal.Memory, travel time.Duration, post func(widget.Event)) *plant {
	p := &plant{
		src:    src,
		travel: travel,
		post:   post,
		after:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
	src.OnWrite(p.onWrite)
	return p
}

// onWrite runs on the widget loop, the signal is written from a timer or a
// click there.
func (p *plant) onWrite(cmd valve.Command, on bool) {
	if !on || !p.src.Flag(valve.FlagConnectionOk) {
		return
	}

	p.seq++
	seq := p.seq
	p.src.Set(valve.FlagOpeningClosing, true)
	p.src.Set(valve.FlagOpened, false)
	p.src.Set(valve.FlagOpenedSmoothly, false)
	p.src.Set(valve.FlagClosed, false)
	logrus.Debugf("%s: plant travelling for %s", p.src.Name, cmd)

	p.after(p.travel, func() {
		p.post(func(time.Time) { p.arrive(seq, cmd) })
	})
}

func (p *plant) arrive(seq int, cmd valve.Command) {
	if seq != p.seq {
		return
	}

	p.src.Set(valve.FlagOpeningClosing, false)
	if cmd.Opens() {
		p.src.Set(valve.FlagOpened, true)
		p.src.Set(valve.FlagOpenedSmoothly, cmd == valve.OpenSmoothly)
	} else {
		p.src.Set(valve.FlagClosed, true)
	}
	logrus.Debugf("%s: plant arrived after %s", p.src.Name, cmd)
}
