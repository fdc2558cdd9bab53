package wfc

import (
	"math/rand"
	"testing"
)

func TestCompatible(t *testing.T) {
	c := mustCatalog(t, coastSpecs())
	tile := func(name string) *Tile {
		tl, ok := c.Lookup(name)
		if !ok {
			t.Fatalf("missing tile %s", name)
		}
		return tl
	}

	tests := []struct {
		a    string
		dir  Direction
		b    string
		want bool
	}{
		{"grass", Right, "grass", true},
		{"grass", Up, "water", false},
		{"water", Down, "shore_up", true},
		{"shore_up", Down, "grass", true},
		{"shore_up", Up, "grass", false},
		{"shore_up", Right, "shore_up", true},
		{"shore_up", Left, "shore_up", true},
		{"shore_up", Right, "shore_down", false},
		{"shore_left", Left, "water", true},
		{"shore_left", Down, "shore_left", true},
		{"shore_right", Up, "shore_right", true},
		{"shore_right", Right, "grass", false},
	}

	for _, tc := range tests {
		if got := Compatible(tile(tc.a), tc.dir, tile(tc.b)); got != tc.want {
			t.Errorf("Compatible(%s, %s, %s) = %v, want %v", tc.a, tc.dir, tc.b, got, tc.want)
		}
	}
}

func TestCompatibleReadsReversed(t *testing.T) {
	a := &Tile{Name: "a"}
	b := &Tile{Name: "b"}
	a.Edges[Right] = sig(1, 2, 3, 4, 5)
	b.Edges[Left] = sig(5, 4, 3, 2, 1)

	if !Compatible(a, Right, b) {
		t.Error("reversed edges should match")
	}

	b.Edges[Left] = sig(1, 2, 3, 4, 5)
	if Compatible(a, Right, b) {
		t.Error("identical non-palindromic edges should not match")
	}
}

func TestCompatibleSymmetry(t *testing.T) {
	specs := coastSpecs()

	// Add random tiles over a two-colour palette so some pairs match by chance
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 24; i++ {
		ts := TileSpec{Name: "rnd" + string(rune('a'+i)), Weight: 1}
		for _, dir := range AllDirections() {
			edge := make(Signature, DefaultSockets)
			for j := range edge {
				edge[j] = uint32(rng.Intn(2))
			}
			ts.Edges[dir] = edge
		}
		specs = append(specs, ts)
	}
	c := mustCatalog(t, specs)

	matches := 0
	for _, a := range c.Tiles() {
		for _, b := range c.Tiles() {
			for _, dir := range AllDirections() {
				ab := Compatible(a, dir, b)
				ba := Compatible(b, dir.Opposite(), a)
				if ab != ba {
					t.Errorf("Compatible(%s,%s,%s) = %v but reverse = %v", a.Name, dir, b.Name, ab, ba)
				}
				if ab {
					matches++
				}
			}
		}
	}
	if matches == 0 {
		t.Error("expected some compatible pairs")
	}
}

func TestAdjacencyTable(t *testing.T) {
	c := mustCatalog(t, coastSpecs())
	table := c.AdjacencyTable()

	if len(table) != c.Len() {
		t.Fatalf("table has %d rows, want %d", len(table), c.Len())
	}

	grass, _ := c.Lookup("grass")
	// only grass and the grass side of shore_up can sit above grass
	up := table[grass.Index][Up]
	want := map[string]bool{"grass": true, "shore_up": true}
	if len(up) != len(want) {
		t.Errorf("grass up neighbours = %v, want %d tiles", up, len(want))
	}
	for _, idx := range up {
		if !want[c.Tile(idx).Name] {
			t.Errorf("unexpected up neighbour of grass: %s", c.Tile(idx).Name)
		}
	}

	for _, a := range c.Tiles() {
		for _, dir := range AllDirections() {
			for _, idx := range table[a.Index][dir] {
				if !Compatible(a, dir, c.Tile(idx)) {
					t.Errorf("table lists incompatible pair %s %s %s", a.Name, dir, c.Tile(idx).Name)
				}
			}
		}
	}
}

func TestIsolated(t *testing.T) {
	c := mustCatalog(t, coastSpecs())
	if got := c.Isolated(); len(got) != 0 {
		t.Errorf("Isolated() = %v, want none", got)
	}

	loner := TileSpec{
		Name:  "loner",
		Edges: [4]Signature{solid(7), solid(8), solid(9), solid(6)},
	}
	c = mustCatalog(t, append(coastSpecs(), loner))
	got := c.Isolated()
	if len(got) != 1 || got[0].Name != "loner" {
		t.Errorf("Isolated() = %v, want [loner]", got)
	}
}
