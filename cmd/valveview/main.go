// Command valveview previews a valve widget in the terminal. The valve is
// simulated on an in-memory source: keys toggle its flags, commands move it.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jkaflik/valve2mqtt/internal/geometry"
	"github.com/jkaflik/valve2mqtt/internal/signal"
	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/jkaflik/valve2mqtt/internal/widget"
	"github.com/sirupsen/logrus"
)

func main() {
	orientation := flag.String("orientation", "top", "device orientation: top, right, bottom or left")
	slideGate := flag.Bool("slide-gate", false, "draw a slide gate")
	smooth := flag.Bool("smooth", false, "start as a smooth valve")
	width := flag.Float64("width", 64, "widget width in pixels")
	height := flag.Float64("height", 32, "widget height in pixels")
	travel := flag.Duration("travel", 3*time.Second, "simulated valve travel time")
	logPath := flag.String("log", "", "write logs to this file")
	flag.Parse()

	logrus.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logrus.Fatal(err)
		}
		defer f.Close()
		logrus.SetOutput(f)
		logrus.SetLevel(logrus.DebugLevel)
	}

	o, err := geometry.ParseOrientation(*orientation)
	if err != nil {
		logrus.SetOutput(os.Stderr)
		logrus.Fatal(err)
	}

	src := signal.NewMemory("preview")
	src.SetAll(map[valve.Flag]bool{
		valve.FlagConnectionOk: true,
		valve.FlagClosed:       true,
		valve.FlagSmoothValve:  *smooth,
	})

	w := widget.New("preview", widget.Config{
		Width:       *width,
		Height:      *height,
		Orientation: o,
		SlideGate:   *slideGate,
	}, src)

	screen, err := tcell.NewScreen()
	if err != nil {
		logrus.SetOutput(os.Stderr)
		logrus.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		logrus.SetOutput(os.Stderr)
		logrus.Fatal(err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := widget.NewHost(100*time.Millisecond, w)
	newPlant(src, *travel, host.Post)

	v := &view{screen: screen, w: w, src: src, quit: cancel}
	w.OnRedraw(v.draw)

	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			host.Post(func(now time.Time) { v.handle(ev, now) })
		}
	}()

	if err := host.Run(ctx); err != nil {
		logrus.Error(err)
	}
}
