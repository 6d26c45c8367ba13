package layout

import (
	"testing"

	"github.com/jkaflik/valve2mqtt/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSide(t *testing.T) {
	assert.Equal(t, geometry.Top, TableSide(geometry.Left, geometry.LeftTop))
	assert.Equal(t, geometry.Bottom, TableSide(geometry.Right, geometry.RightBottom))
	assert.Equal(t, geometry.Left, TableSide(geometry.Top, geometry.LeftTop))
	assert.Equal(t, geometry.Right, TableSide(geometry.Bottom, geometry.RightBottom))
}

func TestBuildWithoutButtons(t *testing.T) {
	c := geometry.Rect(0, 0, 100, 50)
	l := Build(c, geometry.Top, geometry.LeftTop, 0)

	assert.Equal(t, c, l.Device)
	assert.Empty(t, l.Buttons)
}

func TestBuildButtonsOnTheLeft(t *testing.T) {
	l := Build(geometry.Rect(0, 0, 100, 60), geometry.Top, geometry.LeftTop, 3)

	assert.Equal(t, geometry.Rect(25, 0, 75, 60), l.Device)
	require.Len(t, l.Buttons, 3)
	assert.Equal(t, geometry.Rect(0, 0, 25, 20), l.Buttons[0])
	assert.Equal(t, geometry.Rect(0, 40, 25, 20), l.Buttons[2])
}

func TestBuildButtonsAtTheBottom(t *testing.T) {
	l := Build(geometry.Rect(0, 0, 60, 100), geometry.Right, geometry.RightBottom, 2)

	assert.Equal(t, geometry.Rect(0, 0, 60, 75), l.Device)
	require.Len(t, l.Buttons, 2)
	assert.Equal(t, geometry.Rect(0, 75, 30, 25), l.Buttons[0])
	assert.Equal(t, geometry.Rect(30, 75, 30, 25), l.Buttons[1])

	i, ok := l.ButtonAt(geometry.Point{X: 45, Y: 80})
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = l.ButtonAt(geometry.Point{X: 10, Y: 10})
	assert.False(t, ok)
}
