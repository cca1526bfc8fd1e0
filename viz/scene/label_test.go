package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLabel3D(t *testing.T) {
	l := NewLabel("origin", 1, 2, 3)

	assert.Equal(t, "origin", l.Text())
	assert.Equal(t, [3]float32{1, 2, 3}, l.Position())
	assert.True(t, l.Is3D())
	assert.Equal(t, float32(1), l.Scale())

	d := l.Dirty()
	assert.True(t, d.Text)
	assert.True(t, d.Position)
	// Scale starts dirty even though no caller touched it, so the first draw
	// always picks up the default.
	assert.True(t, d.Scale)
}

func TestNewLabel2D(t *testing.T) {
	l := NewLabel2D("fps: 60", 0.95, 0.02, true)

	assert.False(t, l.Is3D())
	assert.True(t, l.AlignRight())
	assert.Equal(t, [3]float32{0.95, 0.02, 0}, l.Position())
}

func TestLabelSetters(t *testing.T) {
	l := NewLabel("a", 0, 0, 0)
	l.Clear()
	assert.Equal(t, LabelDirty{}, l.Dirty())

	l.SetText("b")
	assert.True(t, l.Dirty().Text)
	assert.Equal(t, "b", l.Text())

	l.Clear()
	l.SetScale(2.5)
	assert.True(t, l.Dirty().Scale)
	assert.Equal(t, float32(2.5), l.Scale())

	// Switching to a 2D anchor drops the 3D flag.
	l.Clear()
	l.SetPosition2D(0.5, 0.5, false)
	assert.True(t, l.Dirty().Position)
	assert.False(t, l.Is3D())

	l.SetPosition(4, 5, 6)
	assert.True(t, l.Is3D())
	assert.Equal(t, [3]float32{4, 5, 6}, l.Position())
}
