package tileset

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette assigns a small integer id to every distinct colour sampled from
// tile edges. Ids are handed out in first-seen order.
type Palette struct {
	tolerance float64

	colors []color.NRGBA
	exact  map[color.NRGBA]uint32
	lab    []colorful.Color // parallel to colors, only filled when tolerance > 0
}

// NewPalette returns an empty palette. A tolerance of 0 keys colours by exact
// RGBA value. A positive tolerance merges a colour into the nearest existing
// entry whose CIE76 distance (L*a*b*, 0..100 scale) is within it.
func NewPalette(tolerance float64) *Palette {
	if tolerance < 0 {
		tolerance = 0
	}
	return &Palette{
		tolerance: tolerance,
		exact:     make(map[color.NRGBA]uint32),
	}
}

// ID returns the id of c, registering it if no existing entry matches.
func (p *Palette) ID(c color.Color) uint32 {
	// Sockets compare RGB only
	key := color.NRGBAModel.Convert(c).(color.NRGBA)
	key.A = 255
	if id, ok := p.exact[key]; ok {
		return id
	}

	if p.tolerance > 0 {
		lab := toColorful(key)
		best, bestDist := -1, 0.0
		for i, other := range p.lab {
			d := lab.DistanceLab(other) * 100
			if d <= p.tolerance && (best < 0 || d < bestDist) {
				best, bestDist = i, d
			}
		}
		if best >= 0 {
			// Remember the alias so the next lookup is a map hit
			p.exact[key] = uint32(best)
			return uint32(best)
		}
		p.lab = append(p.lab, lab)
	}

	id := uint32(len(p.colors))
	p.colors = append(p.colors, key)
	p.exact[key] = id
	return id
}

// Len returns the number of distinct ids
func (p *Palette) Len() int { return len(p.colors) }

// Color returns the representative colour of an id
func (p *Palette) Color(id uint32) color.NRGBA {
	return p.colors[id]
}

// Tolerance returns the merge distance
func (p *Palette) Tolerance() float64 { return p.tolerance }

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}
