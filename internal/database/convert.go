package database

import (
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

// RunFromResult converts a generator result into a storable run and its cells.
func RunFromResult(result *wfc.Result, fingerprint, outputPath string) (*Run, []RunCell) {
	run := &Run{
		Seed:               result.Seed,
		Width:              result.Width,
		Height:             result.Height,
		State:              result.State.String(),
		Attempts:           result.Attempts,
		Steps:              result.Steps,
		Collapsed:          result.CollapsedCount,
		CatalogFingerprint: fingerprint,
		OutputPath:         outputPath,
		Duration:           result.Duration,
	}

	cells := make([]RunCell, 0, len(result.Placements))
	for _, p := range result.Placements {
		if p.Tile == nil {
			continue
		}
		cells = append(cells, RunCell{
			X:             p.X,
			Y:             p.Y,
			Tile:          p.Tile.Name,
			Contradiction: p.Contradiction,
		})
	}
	return run, cells
}

// Placements resolves stored cells against a catalog. Cells naming a tile the
// catalog no longer has are returned in missing.
func Placements(cells []RunCell, catalog *wfc.Catalog) (placements []wfc.Placement, missing []string) {
	seen := make(map[string]bool)
	placements = make([]wfc.Placement, 0, len(cells))
	for _, c := range cells {
		tile, ok := catalog.Lookup(c.Tile)
		if !ok {
			if !seen[c.Tile] {
				seen[c.Tile] = true
				missing = append(missing, c.Tile)
			}
			continue
		}
		placements = append(placements, wfc.Placement{
			X:             c.X,
			Y:             c.Y,
			Tile:          tile,
			Contradiction: c.Contradiction,
		})
	}
	return placements, missing
}
