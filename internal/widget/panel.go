package widget

import "github.com/jkaflik/valve2mqtt/internal/valve"

// Panel is the read-only view of the settings dialog: a set of lamps.
type Panel struct {
	Opened       bool
	Closed       bool
	BlockOpening bool
	BlockClosing bool
}

func PanelFor(s valve.Status) Panel {
	return Panel{
		Opened:       s.State() == valve.Opened,
		Closed:       s.State() == valve.Closed,
		BlockOpening: s.BlockOpening,
		BlockClosing: s.BlockClosing,
	}
}

// Lamps lists the lamps in display order.
func (p Panel) Lamps() []Lamp {
	return []Lamp{
		{"Opened", p.Opened},
		{"Closed", p.Closed},
		{"Block opening", p.BlockOpening},
		{"Block closing", p.BlockClosing},
	}
}

type Lamp struct {
	Label  string
	Active bool
}
