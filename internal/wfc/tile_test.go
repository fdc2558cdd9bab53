package wfc

import (
	"errors"
	"testing"
)

// sig builds a signature from literal sample ids
func sig(ids ...uint32) Signature {
	return Signature(ids)
}

// solid is an edge of a single colour
func solid(color uint32) Signature {
	return Signature{color, color, color, color, color}
}

// solidSpec is a tile whose four edges share one colour, so it fits next to itself
func solidSpec(name string, color uint32, weight float64) TileSpec {
	return TileSpec{
		Name:   name,
		Edges:  [4]Signature{solid(color), solid(color), solid(color), solid(color)},
		Weight: weight,
	}
}

// coastSpecs is a small grass (0) / water (1) set with straight shorelines.
// Edges are sampled clockwise: up left-to-right, right top-to-bottom,
// down right-to-left, left bottom-to-top.
func coastSpecs() []TileSpec {
	return []TileSpec{
		solidSpec("grass", 0, 3),
		solidSpec("water", 1, 2),
		{
			Name:   "shore_up", // water on top
			Edges:  [4]Signature{solid(1), sig(1, 1, 0, 0, 0), solid(0), sig(0, 0, 0, 1, 1)},
			Weight: 1,
		},
		{
			Name:   "shore_down", // water below
			Edges:  [4]Signature{solid(0), sig(0, 0, 1, 1, 1), solid(1), sig(1, 1, 1, 0, 0)},
			Weight: 1,
		},
		{
			Name:   "shore_left", // water on the left
			Edges:  [4]Signature{sig(1, 1, 0, 0, 0), solid(0), sig(0, 0, 0, 1, 1), solid(1)},
			Weight: 1,
		},
		{
			Name:   "shore_right", // water on the right
			Edges:  [4]Signature{sig(0, 0, 1, 1, 1), solid(1), sig(1, 1, 1, 0, 0), solid(0)},
			Weight: 1,
		},
	}
}

func mustCatalog(t *testing.T, specs []TileSpec) *Catalog {
	t.Helper()
	c, err := NewCatalog(DefaultSockets, specs)
	if err != nil {
		t.Fatalf("NewCatalog() failed: %v", err)
	}
	return c
}

func TestDirectionString(t *testing.T) {
	tests := []struct {
		d    Direction
		want string
	}{
		{Up, "up"},
		{Right, "right"},
		{Down, "down"},
		{Left, "left"},
		{Direction(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.d.String(); got != tc.want {
			t.Errorf("Direction(%d).String() = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestDirectionOpposite(t *testing.T) {
	tests := []struct {
		d    Direction
		want Direction
	}{
		{Up, Down},
		{Down, Up},
		{Right, Left},
		{Left, Right},
	}

	for _, tc := range tests {
		if got := tc.d.Opposite(); got != tc.want {
			t.Errorf("%s.Opposite() = %s, want %s", tc.d, got, tc.want)
		}
		if got := tc.d.Opposite().Opposite(); got != tc.d {
			t.Errorf("%s.Opposite().Opposite() = %s", tc.d, got)
		}
	}
}

func TestDirectionOffset(t *testing.T) {
	tests := []struct {
		d      Direction
		dx, dy int
	}{
		{Up, 0, -1},
		{Right, 1, 0},
		{Down, 0, 1},
		{Left, -1, 0},
	}

	for _, tc := range tests {
		dx, dy := tc.d.Offset()
		if dx != tc.dx || dy != tc.dy {
			t.Errorf("%s.Offset() = (%d,%d), want (%d,%d)", tc.d, dx, dy, tc.dx, tc.dy)
		}
		ox, oy := tc.d.Opposite().Offset()
		if dx+ox != 0 || dy+oy != 0 {
			t.Errorf("%s offset does not cancel its opposite", tc.d)
		}
	}
}

func TestAllDirections(t *testing.T) {
	dirs := AllDirections()
	want := []Direction{Up, Right, Down, Left}
	if len(dirs) != len(want) {
		t.Fatalf("AllDirections() returned %d directions, want 4", len(dirs))
	}
	for i, d := range dirs {
		if d != want[i] {
			t.Errorf("AllDirections()[%d] = %s, want %s", i, d, want[i])
		}
	}
}

func TestNewCatalog(t *testing.T) {
	c := mustCatalog(t, coastSpecs())

	if c.Len() != 6 {
		t.Errorf("Len() = %d, want 6", c.Len())
	}
	if c.Sockets() != DefaultSockets {
		t.Errorf("Sockets() = %d, want %d", c.Sockets(), DefaultSockets)
	}
	for i, tile := range c.Tiles() {
		if tile.Index != i {
			t.Errorf("tile %q Index = %d, want %d", tile.Name, tile.Index, i)
		}
		if c.Tile(i) != tile {
			t.Errorf("Tile(%d) does not return the shared tile pointer", i)
		}
	}

	tile, ok := c.Lookup("shore_up")
	if !ok {
		t.Fatal("Lookup(shore_up) not found")
	}
	if tile.Weight != 1 {
		t.Errorf("shore_up Weight = %v, want 1", tile.Weight)
	}
	if _, ok := c.Lookup("lava"); ok {
		t.Error("Lookup(lava) should fail")
	}
}

func TestNewCatalogErrors(t *testing.T) {
	short := solidSpec("short", 0, 1)
	short.Edges[Left] = sig(0, 0, 0)

	tests := []struct {
		name    string
		sockets int
		specs   []TileSpec
		want    error
	}{
		{"no tiles", DefaultSockets, nil, ErrEmptyCatalog},
		{"zero sockets", 0, []TileSpec{solidSpec("a", 0, 1)}, ErrInvalidCatalog},
		{"wrong sample count", DefaultSockets, []TileSpec{solidSpec("a", 0, 1), short}, ErrInvalidSignature},
		{"negative weight", DefaultSockets, []TileSpec{solidSpec("a", 0, -0.1)}, ErrInvalidWeight},
		{"duplicate", DefaultSockets, []TileSpec{solidSpec("a", 0, 1), solidSpec("a", 1, 1)}, ErrDuplicateTile},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewCatalog(tc.sockets, tc.specs)
			if err == nil {
				t.Fatalf("NewCatalog() = %v, want error", c)
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("error %v should be a catalog configuration error", err)
			}
		})
	}
}

func TestNewCatalogZeroWeightAllowed(t *testing.T) {
	if _, err := NewCatalog(DefaultSockets, []TileSpec{solidSpec("a", 0, 0)}); err != nil {
		t.Errorf("zero weight rejected: %v", err)
	}
}

func TestCatalogCopiesEdges(t *testing.T) {
	specs := []TileSpec{solidSpec("a", 0, 1)}
	c := mustCatalog(t, specs)

	specs[0].Edges[Up][0] = 42
	if got := c.Tile(0).Edges[Up][0]; got != 0 {
		t.Errorf("catalog edge changed to %d after mutating its TileSpec", got)
	}
}

func TestCatalogFallback(t *testing.T) {
	c := mustCatalog(t, coastSpecs())
	if c.Fallback() != c.Tile(0) {
		t.Errorf("Fallback() = %v, want first tile when none is flagged", c.Fallback())
	}

	specs := coastSpecs()
	specs[3].Fallback = true
	specs[4].Fallback = true
	c = mustCatalog(t, specs)
	if c.Fallback().Name != "shore_down" {
		t.Errorf("Fallback() = %s, want first flagged tile shore_down", c.Fallback().Name)
	}
}
