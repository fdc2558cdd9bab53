package database

import (
	"context"
	"testing"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

func convertCatalog(t *testing.T) *wfc.Catalog {
	t.Helper()
	sig := wfc.Signature{0}
	c, err := wfc.NewCatalog(1, []wfc.TileSpec{
		{Name: "grass.png", Edges: [4]wfc.Signature{sig, sig, sig, sig}, Weight: 1},
	})
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	return c
}

func TestRunFromResult(t *testing.T) {
	catalog := convertCatalog(t)
	result, err := wfc.NewGenerator(catalog, wfc.DefaultGenerateConfig(3, 2, 42)).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	run, cells := RunFromResult(result, "abc", "out.png")
	if run.State != "done" {
		t.Errorf("State = %q, want done", run.State)
	}
	if run.Seed != 42 || run.Width != 3 || run.Height != 2 {
		t.Errorf("run = %+v, want seed 42 size 3x2", run)
	}
	if run.Collapsed != 6 {
		t.Errorf("Collapsed = %d, want 6", run.Collapsed)
	}
	if run.CatalogFingerprint != "abc" || run.OutputPath != "out.png" {
		t.Errorf("fingerprint/output = %q/%q", run.CatalogFingerprint, run.OutputPath)
	}
	if len(cells) != 6 {
		t.Fatalf("len(cells) = %d, want 6", len(cells))
	}
	for _, c := range cells {
		if c.Tile != "grass.png" {
			t.Errorf("cell (%d,%d) tile = %q, want grass.png", c.X, c.Y, c.Tile)
		}
	}
}

func TestRecordResultRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	catalog := convertCatalog(t)

	result, err := wfc.NewGenerator(catalog, wfc.DefaultGenerateConfig(2, 2, 7)).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	run, cells := RunFromResult(result, "fp", "")
	if err := db.RecordRun(run, cells); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}

	stored, err := db.GetRunCells(run.ID)
	if err != nil {
		t.Fatalf("GetRunCells() error = %v", err)
	}
	placements, missing := Placements(stored, catalog)
	if len(missing) != 0 {
		t.Errorf("missing = %v, want none", missing)
	}
	if len(placements) != len(result.Placements) {
		t.Fatalf("len(placements) = %d, want %d", len(placements), len(result.Placements))
	}
	for i, p := range placements {
		want := result.Placements[i]
		if p.X != want.X || p.Y != want.Y || p.Tile != want.Tile {
			t.Errorf("placement %d = (%d,%d,%s), want (%d,%d,%s)", i, p.X, p.Y, p.Tile.Name, want.X, want.Y, want.Tile.Name)
		}
	}
}

func TestPlacementsMissingTiles(t *testing.T) {
	catalog := convertCatalog(t)
	cells := []RunCell{
		{X: 0, Y: 0, Tile: "grass.png"},
		{X: 1, Y: 0, Tile: "gone.png"},
		{X: 2, Y: 0, Tile: "gone.png"},
	}

	placements, missing := Placements(cells, catalog)
	if len(placements) != 1 {
		t.Errorf("len(placements) = %d, want 1", len(placements))
	}
	if len(missing) != 1 || missing[0] != "gone.png" {
		t.Errorf("missing = %v, want [gone.png]", missing)
	}
}
