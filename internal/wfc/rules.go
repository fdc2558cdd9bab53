package wfc

// Compatible reports whether b may sit next to a in direction dir.
//
// Both edges are sampled walking clockwise around their own tile, so along a
// shared boundary they run in opposite physical directions: a's edge read
// backwards must equal b's facing edge.
func Compatible(a *Tile, dir Direction, b *Tile) bool {
	ea := a.Edges[dir]
	eb := b.Edges[dir.Opposite()]
	if len(ea) != len(eb) {
		return false
	}
	n := len(ea)
	for i := 0; i < n; i++ {
		if ea[n-1-i] != eb[i] {
			return false
		}
	}
	return true
}

// AdjacencyTable lists, for every tile and direction, the indices of the tiles
// allowed next to it. table[t][dir] is in catalog order.
type AdjacencyTable [][4][]int

// AdjacencyTable evaluates Compatible for every ordered tile pair. The solver
// never uses it; it exists for diagnostics.
func (c *Catalog) AdjacencyTable() AdjacencyTable {
	table := make(AdjacencyTable, len(c.tiles))
	for _, a := range c.tiles {
		for _, dir := range AllDirections() {
			for _, b := range c.tiles {
				if Compatible(a, dir, b) {
					table[a.Index][dir] = append(table[a.Index][dir], b.Index)
				}
			}
		}
	}
	return table
}

// Isolated returns tiles that have no compatible neighbour in at least one
// direction. Such a tile can only appear on the matching border of the grid.
func (c *Catalog) Isolated() []*Tile {
	var out []*Tile
	table := c.AdjacencyTable()
	for _, t := range c.tiles {
		for _, dir := range AllDirections() {
			if len(table[t.Index][dir]) == 0 {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
