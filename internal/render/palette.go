package render

import (
	"image/color"

	"github.com/jkaflik/valve2mqtt/internal/valve"
)

var (
	ColorBackground   = color.RGBA{240, 240, 240, 255}
	ColorBlocked      = color.RGBA{160, 160, 160, 255}
	ColorLines        = color.RGBA{0, 0, 0, 255}
	ColorOpened       = color.RGBA{0, 200, 0, 255}
	ColorOpenedLocked = color.RGBA{0, 120, 0, 255}
	ColorSmooth       = color.RGBA{170, 235, 170, 255}
	ColorClosed       = color.RGBA{255, 255, 255, 255}
	ColorClosedLocked = color.RGBA{200, 200, 200, 255}
	ColorUndefined    = color.RGBA{255, 220, 0, 255}
	ColorForceClose   = color.RGBA{255, 140, 0, 255}
	ColorError        = color.RGBA{230, 0, 0, 255}
)

// BodyColor picks the valve body fill. The table is keyed by state, error
// and the two block flags; light is the current blink phase.
func BodyColor(s valve.Status, light bool) color.RGBA {
	if s.Collision && !s.OpenedSmoothly && !light {
		return ColorError
	}

	switch s.State() {
	case valve.Opened:
		if s.BlockClosing {
			return ColorOpenedLocked
		}
		return ColorOpened
	case valve.Closed:
		if s.BlockOpening {
			return ColorClosedLocked
		}
		return ColorClosed
	case valve.OpeningClosing:
		if light {
			return ColorOpened
		}
		return ColorClosed
	default:
		if s.AnyError() {
			return ColorError
		}
		return ColorUndefined
	}
}
