// Package layout splits a widget rectangle into the device drawing surface
// and the button table.
package layout

import (
	"github.com/jkaflik/valve2mqtt/internal/geometry"
)

// relativeTableSize is the share of the widget taken by the button table
// across its placement side.
const relativeTableSize = 0.25

// Layout is the result of a build: the device surface and one rectangle per
// visible button, in the order the buttons were given.
type Layout struct {
	Device  geometry.Bounds
	Table   geometry.Bounds
	Buttons []geometry.Bounds
	Side    geometry.Orientation
}

// TableSide returns the side the buttons are placed on. Horizontal devices
// get their buttons above or below, vertical ones to the left or right.
func TableSide(o geometry.Orientation, bo geometry.ButtonOrientation) geometry.Orientation {
	if o.IsVertical() {
		if bo == geometry.LeftTop {
			return geometry.Top
		}
		return geometry.Bottom
	}

	if bo == geometry.LeftTop {
		return geometry.Left
	}
	return geometry.Right
}

// Build places the given number of buttons next to the device surface.
func Build(container geometry.Bounds, o geometry.Orientation, bo geometry.ButtonOrientation, buttons int) Layout {
	container = container.Clamp()
	side := TableSide(o, bo)
	l := Layout{Device: container, Side: side}
	if buttons <= 0 {
		return l
	}

	switch side {
	case geometry.Top, geometry.Bottom:
		h := container.Height * relativeTableSize
		l.Table = geometry.Rect(container.X, container.Y, container.Width, h)
		l.Device = geometry.Rect(container.X, container.Y+h, container.Width, container.Height-h)
		if side == geometry.Bottom {
			l.Table.Y = container.Bottom() - h
			l.Device.Y = container.Y
		}
		w := container.Width / float64(buttons)
		for i := 0; i < buttons; i++ {
			l.Buttons = append(l.Buttons, geometry.Rect(l.Table.X+float64(i)*w, l.Table.Y, w, h))
		}
	default:
		w := container.Width * relativeTableSize
		l.Table = geometry.Rect(container.X, container.Y, w, container.Height)
		l.Device = geometry.Rect(container.X+w, container.Y, container.Width-w, container.Height)
		if side == geometry.Right {
			l.Table.X = container.Right() - w
			l.Device.X = container.X
		}
		h := container.Height / float64(buttons)
		for i := 0; i < buttons; i++ {
			l.Buttons = append(l.Buttons, geometry.Rect(l.Table.X, l.Table.Y+float64(i)*h, w, h))
		}
	}

	return l
}

// ButtonAt returns the index of the button under p.
func (l Layout) ButtonAt(p geometry.Point) (int, bool) {
	for i, b := range l.Buttons {
		if b.Contains(p) {
			return i, true
		}
	}
	return 0, false
}
