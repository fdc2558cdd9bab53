package wfc

import "fmt"

// Rand is the random source a solve draws from. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Outcome is the result of collapsing a cell
type Outcome int

const (
	OutcomeResolved Outcome = iota
	OutcomeContradiction
)

// String returns the string representation of an Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeContradiction:
		return "contradiction"
	default:
		return "unknown"
	}
}

// Cell represents a single grid position during solving
type Cell struct {
	X, Y          int
	Collapsed     bool  // irreversible once set
	Tile          *Tile // the resolved tile (if collapsed)
	Contradiction bool  // collapsed onto the fallback because no candidate was left

	domain []*Tile
}

func newCell(x, y int, catalog *Catalog) *Cell {
	return &Cell{
		X:      x,
		Y:      y,
		domain: catalog.Tiles(),
	}
}

// Entropy returns the number of tiles still possible for this cell
func (c *Cell) Entropy() int {
	return len(c.domain)
}

// Domain returns a copy of the remaining candidates
func (c *Cell) Domain() []*Tile {
	return append([]*Tile(nil), c.domain...)
}

// Collapse commits the cell to one tile drawn from its domain with probability
// proportional to weight. An empty domain collapses onto fallback and reports
// a contradiction.
func (c *Cell) Collapse(rng Rand, fallback *Tile) Outcome {
	if c.Collapsed {
		panic(fmt.Sprintf("wfc: collapse of already collapsed cell (%d,%d)", c.X, c.Y))
	}

	c.Collapsed = true
	if len(c.domain) == 0 {
		c.Tile = fallback
		c.Contradiction = true
		return OutcomeContradiction
	}

	c.Tile = weightedPick(rng, c.domain)
	c.domain = c.domain[:0]
	c.domain = append(c.domain, c.Tile)
	return OutcomeResolved
}

// Restrict drops every candidate that cannot sit next to neighbor, where
// fromDir points from this cell towards the neighbour. Collapsed cells are
// left alone. Returns how many candidates were removed.
func (c *Cell) Restrict(fromDir Direction, neighbor *Tile) int {
	if c.Collapsed {
		return 0
	}

	kept := c.domain[:0]
	for _, candidate := range c.domain {
		if Compatible(candidate, fromDir, neighbor) {
			kept = append(kept, candidate)
		}
	}
	removed := len(c.domain) - len(kept)

	// Clear the tail so dropped tiles are not pinned by the backing array
	for i := len(kept); i < len(c.domain); i++ {
		c.domain[i] = nil
	}
	c.domain = kept
	return removed
}

// weightedPick does a roulette draw over the domain. A domain whose weights
// are all zero is drawn uniformly.
func weightedPick(rng Rand, domain []*Tile) *Tile {
	var total float64
	for _, t := range domain {
		total += t.Weight
	}
	if total <= 0 {
		return domain[rng.Intn(len(domain))]
	}

	r := rng.Float64() * total
	for _, t := range domain {
		if t.Weight <= 0 {
			continue
		}
		r -= t.Weight
		if r < 0 {
			return t
		}
	}

	// Float rounding can leave r at a hair above zero
	for i := len(domain) - 1; i >= 0; i-- {
		if domain[i].Weight > 0 {
			return domain[i]
		}
	}
	return domain[len(domain)-1]
}
