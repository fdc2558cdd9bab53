package wfc

import (
	"errors"
	"fmt"
	"math"
)

// DefaultSockets is the number of colour samples taken along each tile edge.
const DefaultSockets = 5

// DefaultWeight is the selection weight of a tile the probability source does not mention.
const DefaultWeight = 0.5

var (
	ErrInvalidCatalog   = errors.New("wfc: invalid tile catalog")
	ErrEmptyCatalog     = fmt.Errorf("%w: no tiles", ErrInvalidCatalog)
	ErrInvalidSignature = fmt.Errorf("%w: edge sample count mismatch", ErrInvalidCatalog)
	ErrInvalidWeight    = fmt.Errorf("%w: weight must be a non-negative number", ErrInvalidCatalog)
	ErrDuplicateTile    = fmt.Errorf("%w: duplicate tile name", ErrInvalidCatalog)
)

// Direction represents a cardinal direction on the grid, in image space (y grows down)
type Direction int

const (
	Up Direction = iota
	Right
	Down
	Left
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Right:
		return Left
	case Down:
		return Up
	case Left:
		return Right
	default:
		return d
	}
}

// Offset returns the grid delta of one step in this direction
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Right:
		return 1, 0
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	}
	return 0, 0
}

// AllDirections returns all four cardinal directions in edge order
func AllDirections() []Direction {
	return []Direction{Up, Right, Down, Left}
}

// Signature is the sequence of quantized colour ids sampled along one edge,
// walking clockwise around the tile.
type Signature []uint32

// TileSpec is the raw description of a tile handed to NewCatalog.
type TileSpec struct {
	Name     string
	Edges    [4]Signature // Up, Right, Down, Left
	Weight   float64
	Fallback bool // usable as the terminal tile when a cell runs out of candidates
}

// Tile is an immutable catalog entry. Cells share tiles by pointer.
type Tile struct {
	Index    int
	Name     string
	Edges    [4]Signature
	Weight   float64
	Fallback bool
}

// Edge returns the signature of the tile's edge facing dir
func (t *Tile) Edge(dir Direction) Signature {
	return t.Edges[dir]
}

func (t *Tile) String() string {
	return fmt.Sprintf("Tile(%s) up=%v right=%v down=%v left=%v weight=%g",
		t.Name, t.Edges[Up], t.Edges[Right], t.Edges[Down], t.Edges[Left], t.Weight)
}

// Catalog is the ordered, read-only set of tiles a solve draws from.
type Catalog struct {
	sockets  int
	tiles    []*Tile
	byName   map[string]*Tile
	fallback *Tile
}

// NewCatalog validates the specs and builds the catalog. Edge slices are copied.
func NewCatalog(sockets int, specs []TileSpec) (*Catalog, error) {
	if sockets <= 0 {
		return nil, fmt.Errorf("%w: sockets must be positive, got %d", ErrInvalidCatalog, sockets)
	}
	if len(specs) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		sockets: sockets,
		tiles:   make([]*Tile, 0, len(specs)),
		byName:  make(map[string]*Tile, len(specs)),
	}

	for i, ts := range specs {
		if _, dup := c.byName[ts.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTile, ts.Name)
		}
		if ts.Weight < 0 || math.IsNaN(ts.Weight) || math.IsInf(ts.Weight, 0) {
			return nil, fmt.Errorf("%w: tile %q has weight %v", ErrInvalidWeight, ts.Name, ts.Weight)
		}

		tile := &Tile{
			Index:    i,
			Name:     ts.Name,
			Weight:   ts.Weight,
			Fallback: ts.Fallback,
		}
		for _, dir := range AllDirections() {
			edge := ts.Edges[dir]
			if len(edge) != sockets {
				return nil, fmt.Errorf("%w: tile %q %s edge has %d samples, want %d",
					ErrInvalidSignature, ts.Name, dir, len(edge), sockets)
			}
			tile.Edges[dir] = append(Signature(nil), edge...)
		}

		if tile.Fallback && c.fallback == nil {
			c.fallback = tile
		}
		c.tiles = append(c.tiles, tile)
		c.byName[tile.Name] = tile
	}

	// No flagged terminal tile: the first tile stands in so a contradicted
	// cell always ends up with something to draw.
	if c.fallback == nil {
		c.fallback = c.tiles[0]
	}

	return c, nil
}

// Sockets returns the number of samples per edge
func (c *Catalog) Sockets() int { return c.sockets }

// Len returns the number of tiles
func (c *Catalog) Len() int { return len(c.tiles) }

// Tile returns the tile at index i
func (c *Catalog) Tile(i int) *Tile { return c.tiles[i] }

// Tiles returns the tiles in catalog order. The slice is a copy; the tiles are shared.
func (c *Catalog) Tiles() []*Tile {
	return append([]*Tile(nil), c.tiles...)
}

// Lookup finds a tile by name
func (c *Catalog) Lookup(name string) (*Tile, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Fallback returns the tile a contradicted cell collapses onto
func (c *Catalog) Fallback() *Tile { return c.fallback }
