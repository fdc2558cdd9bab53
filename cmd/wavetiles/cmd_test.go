package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/wavetiles/internal/config"
	"github.com/lawnchairsociety/wavetiles/internal/database"
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

func writeTile(t *testing.T, dir, name string, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

// testConfig points tiles, output and history into a temp dir holding one
// self-compatible tile.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	tiles := filepath.Join(root, "tiles")
	require.NoError(t, os.Mkdir(tiles, 0755))
	writeTile(t, tiles, "grass.png", color.NRGBA{G: 200, A: 255})

	c := config.DefaultConfig()
	c.Grid = config.GridConfig{Width: 4, Height: 3}
	c.Tiles.Dir = tiles
	c.Tiles.Probabilities = filepath.Join(tiles, "probabilities.json")
	c.Output.Width = 40
	c.Output.Height = 30
	c.Output.Path = filepath.Join(root, "out", "grid.png")
	c.Solve.Seed = 7
	c.Database.Config = database.DefaultConfig(filepath.Join(root, "history.db"))
	return c
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestGenerate(t *testing.T) {
	c := testConfig(t)
	var out bytes.Buffer

	report, err := generate(context.Background(), c, &out)
	require.NoError(t, err)

	assert.True(t, report.Result.Complete())
	assert.Equal(t, int64(7), report.Result.Seed)
	assert.Equal(t, c.Output.Path, report.OutputPath)
	assert.NotEmpty(t, report.RunID)

	assert.Contains(t, out.String(), "SCAN IMAGES:")
	assert.Contains(t, out.String(), "WAVE FUNCTION:")
	assert.Contains(t, out.String(), "IMAGE GEN:")

	img := decodePNG(t, report.OutputPath)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
	_, g, _, _ := img.At(20, 15).RGBA()
	assert.Equal(t, uint32(200), g>>8)
}

func TestGenerate_RecordsRun(t *testing.T) {
	c := testConfig(t)
	report, err := generate(context.Background(), c, &bytes.Buffer{})
	require.NoError(t, err)

	db, err := requireHistory(c)
	require.NoError(t, err)
	defer db.Close()

	run, err := db.GetRun(report.RunID)
	require.NoError(t, err)
	assert.Equal(t, 4, run.Width)
	assert.Equal(t, 3, run.Height)
	assert.Equal(t, wfc.StateDone.String(), run.State)
	assert.Equal(t, 12, run.Collapsed)
	assert.Equal(t, report.OutputPath, run.OutputPath)

	cells, err := db.GetRunCells(run.ID)
	require.NoError(t, err)
	assert.Len(t, cells, 12)
}

func TestGenerate_HistoryDisabled(t *testing.T) {
	c := testConfig(t)
	c.Database.Enabled = false

	report, err := generate(context.Background(), c, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Empty(t, report.RunID)

	_, err = requireHistory(c)
	assert.Error(t, err)
}

func TestGenerate_MissingTiles(t *testing.T) {
	c := testConfig(t)
	c.Tiles.Dir = filepath.Join(t.TempDir(), "missing")

	report, err := generate(context.Background(), c, &bytes.Buffer{})
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestRerender(t *testing.T) {
	c := testConfig(t)
	report, err := generate(context.Background(), c, &bytes.Buffer{})
	require.NoError(t, err)

	db, err := requireHistory(c)
	require.NoError(t, err)
	defer db.Close()

	out := filepath.Join(t.TempDir(), "again.png")
	path, err := rerender(db, c, report.RunID, out, false)
	require.NoError(t, err)
	assert.Equal(t, out, path)
	assert.Equal(t, image.Rect(0, 0, 40, 30), decodePNG(t, path).Bounds())
}

func TestRerender_LibraryChanged(t *testing.T) {
	c := testConfig(t)
	report, err := generate(context.Background(), c, &bytes.Buffer{})
	require.NoError(t, err)

	db, err := requireHistory(c)
	require.NoError(t, err)
	defer db.Close()

	writeTile(t, c.Tiles.Dir, "sand.png", color.NRGBA{R: 230, G: 210, B: 150, A: 255})
	out := filepath.Join(t.TempDir(), "again.png")

	_, err = rerender(db, c, report.RunID, out, false)
	assert.ErrorContains(t, err, "changed since run")

	_, err = rerender(db, c, report.RunID, out, true)
	assert.NoError(t, err)
}

func TestRerender_MissingTile(t *testing.T) {
	c := testConfig(t)
	report, err := generate(context.Background(), c, &bytes.Buffer{})
	require.NoError(t, err)

	db, err := requireHistory(c)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, os.Remove(filepath.Join(c.Tiles.Dir, "grass.png")))
	writeTile(t, c.Tiles.Dir, "sand.png", color.NRGBA{R: 230, A: 255})

	_, err = rerender(db, c, report.RunID, filepath.Join(t.TempDir(), "x.png"), true)
	assert.ErrorContains(t, err, "grass.png")
}

func TestRerender_UnknownRun(t *testing.T) {
	c := testConfig(t)
	db, err := requireHistory(c)
	require.NoError(t, err)
	defer db.Close()

	_, err = rerender(db, c, "no-such-run", "", false)
	assert.ErrorIs(t, err, database.ErrRunNotFound)
}

func TestPrintCatalog(t *testing.T) {
	sig := func(ids ...uint32) wfc.Signature { return ids }
	c, err := wfc.NewCatalog(2, []wfc.TileSpec{
		{Name: "grass", Edges: [4]wfc.Signature{sig(0, 0), sig(0, 0), sig(0, 0), sig(0, 0)}, Weight: 1},
		{Name: "odd", Edges: [4]wfc.Signature{sig(0, 0), sig(0, 1), sig(0, 0), sig(0, 0)}, Weight: 0.5},
		{Name: "final", Edges: [4]wfc.Signature{sig(9, 9), sig(9, 9), sig(9, 9), sig(9, 9)}, Weight: 0, Fallback: true},
	})
	require.NoError(t, err)

	var out bytes.Buffer
	printCatalog(&out, c, "manifest.yaml", 0)
	text := out.String()

	assert.Contains(t, text, "Source:      manifest.yaml")
	assert.Contains(t, text, "Tiles:       3")
	assert.Contains(t, text, "Fallback:    final")
	assert.Contains(t, text, "final *")
	assert.Contains(t, text, "0,1")
	assert.NotContains(t, text, "Colors:")
	assert.Contains(t, text, "Tiles with an unmatched side:")
}

func TestFormatSignature(t *testing.T) {
	assert.Equal(t, "0,1,12", formatSignature(wfc.Signature{0, 1, 12}))
	assert.Equal(t, "", formatSignature(nil))
}

func TestResolveSeed(t *testing.T) {
	assert.Equal(t, int64(42), resolveSeed(42))
	assert.NotZero(t, resolveSeed(0))
}

func TestPrintRuns(t *testing.T) {
	var out bytes.Buffer
	printRuns(&out, nil)
	assert.Equal(t, "No runs recorded.\n", out.String())

	out.Reset()
	printRuns(&out, []*database.Run{{
		ID:         "run-1",
		Width:      4,
		Height:     3,
		Seed:       9,
		State:      "done",
		Attempts:   2,
		Collapsed:  12,
		Duration:   1500 * time.Microsecond,
		OutputPath: "grid.png",
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}})
	text := out.String()
	assert.Contains(t, text, "ID")
	assert.Contains(t, text, "run-1")
	assert.Contains(t, text, "4x3")
	assert.Contains(t, text, "12/12")
	assert.Contains(t, text, "grid.png")
}

func TestPrintRun(t *testing.T) {
	run := &database.Run{ID: "run-2", Width: 2, Height: 2, State: "halted", Collapsed: 3}
	cells := []database.RunCell{
		{X: 0, Y: 0, Tile: "grass"},
		{X: 1, Y: 0, Tile: "grass"},
		{X: 0, Y: 1, Tile: "sand"},
		{X: 1, Y: 1, Tile: "final", Contradiction: true},
	}

	var out bytes.Buffer
	printRun(&out, run, cells)
	text := out.String()

	assert.Contains(t, text, "Run:         run-2")
	assert.Contains(t, text, "Collapsed:   3/4")
	assert.Contains(t, text, "Contradiction at (1,1)")
	assert.Contains(t, text, "Tile usage (4 cells, 1 contradictions)")
	assert.Contains(t, text, "50.0%")
	assert.NotContains(t, text, "Output:")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("grass")), bytes.Index(out.Bytes(), []byte("sand")))
}
