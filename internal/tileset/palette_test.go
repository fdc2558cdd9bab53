package tileset

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPalette_FirstSeenOrder(t *testing.T) {
	p := NewPalette(0)

	assert.Equal(t, uint32(0), p.ID(blue))
	assert.Equal(t, uint32(1), p.ID(red))
	assert.Equal(t, uint32(0), p.ID(blue))
	assert.Equal(t, uint32(2), p.ID(green))
	assert.Equal(t, 3, p.Len())
}

func TestPalette_ColorModels(t *testing.T) {
	p := NewPalette(0)

	// the same opaque colour through different models maps to one id
	a := p.ID(color.RGBA{R: 10, G: 20, B: 30, A: 255})
	b := p.ID(color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	assert.Equal(t, a, b)
}

func TestPalette_ExactByDefault(t *testing.T) {
	p := NewPalette(0)

	a := p.ID(color.NRGBA{R: 255, A: 255})
	b := p.ID(color.NRGBA{R: 250, A: 255})
	assert.NotEqual(t, a, b)
}

func TestPalette_Tolerance(t *testing.T) {
	p := NewPalette(5)

	a := p.ID(color.NRGBA{R: 255, A: 255})
	b := p.ID(color.NRGBA{R: 250, A: 255})
	c := p.ID(color.NRGBA{B: 255, A: 255})

	assert.Equal(t, a, b, "near reds should merge")
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, p.Color(a), "first colour stays representative")
}

func TestPalette_NegativeTolerance(t *testing.T) {
	p := NewPalette(-1)
	assert.Equal(t, 0.0, p.Tolerance())
}

func TestPalette_IgnoresAlpha(t *testing.T) {
	p := NewPalette(0)

	a := p.ID(color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	b := p.ID(color.NRGBA{R: 10, G: 20, B: 30, A: 64})
	assert.Equal(t, a, b)
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, p.Color(a))
}
