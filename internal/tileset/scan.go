// Package tileset turns a directory of tile images into a wfc.Catalog.
package tileset

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

var (
	ErrNoTiles    = errors.New("tileset: no tile images found")
	ErrEmptyImage = errors.New("tileset: tile image has no pixels")
)

// extensions lists the tile image formats Scan picks up
var extensions = map[string]bool{
	".png": true,
	".bmp": true,
}

// Options controls how a directory is scanned
type Options struct {
	Sockets        int
	Probabilities  map[string]float64 // file name to weight, missing names get wfc.DefaultWeight
	FallbackNames  []string           // file names flagged as fallback tiles
	ColorTolerance float64
}

// DefaultOptions samples five points per edge with exact colour matching and
// treats final.png as the fallback tile.
func DefaultOptions() Options {
	return Options{
		Sockets:       wfc.DefaultSockets,
		FallbackNames: []string{"final.png"},
	}
}

// Set is a scanned tile library
type Set struct {
	Catalog     *wfc.Catalog
	Palette     *Palette
	Fingerprint string

	images map[string]image.Image
}

// Image returns the source image of a tile
func (s *Set) Image(name string) (image.Image, bool) {
	img, ok := s.images[name]
	return img, ok
}

// Scan decodes every PNG and BMP file in dir, in name order, and builds the
// catalog from their edge colours.
func Scan(dir string, opts Options) (*Set, error) {
	if opts.Sockets <= 0 {
		opts.Sockets = wfc.DefaultSockets
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("tileset: read %s: %w", dir, err)
	}

	fallback := make(map[string]bool, len(opts.FallbackNames))
	for _, name := range opts.FallbackNames {
		fallback[name] = true
	}

	set := &Set{
		Palette: NewPalette(opts.ColorTolerance),
		images:  make(map[string]image.Image),
	}
	var specs []wfc.TileSpec

	// os.ReadDir returns entries sorted by file name
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !extensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}

		img, err := decodeFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		edges, err := SampleEdges(img, opts.Sockets, set.Palette)
		if err != nil {
			return nil, fmt.Errorf("tileset: %s: %w", name, err)
		}

		specs = append(specs, wfc.TileSpec{
			Name:     name,
			Edges:    edges,
			Weight:   weightFor(opts.Probabilities, name),
			Fallback: fallback[name],
		})
		set.images[name] = img
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoTiles, dir)
	}

	catalog, err := wfc.NewCatalog(opts.Sockets, specs)
	if err != nil {
		return nil, err
	}
	set.Catalog = catalog
	set.Fingerprint = Fingerprint(catalog)
	return set, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tileset: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("tileset: decode %s: %w", path, err)
	}
	return img, nil
}

// SampleEdges reads sockets evenly spaced pixels along each edge, walking
// clockwise, and quantizes them through the palette:
//
//	up:    left to right along the top row
//	right: top to bottom down the right column
//	down:  right to left along the bottom row
//	left:  bottom to top up the left column
//
// Sample s sits at offset s*size/sockets from the edge's start corner.
func SampleEdges(img image.Image, sockets int, palette *Palette) ([4]wfc.Signature, error) {
	var edges [4]wfc.Signature

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return edges, ErrEmptyImage
	}

	for _, dir := range wfc.AllDirections() {
		edges[dir] = make(wfc.Signature, sockets)
	}

	for s := 0; s < sockets; s++ {
		dx := s * w / sockets
		dy := s * h / sockets

		edges[wfc.Up][s] = palette.ID(img.At(b.Min.X+dx, b.Min.Y))
		edges[wfc.Right][s] = palette.ID(img.At(b.Max.X-1, b.Min.Y+dy))
		edges[wfc.Down][s] = palette.ID(img.At(b.Max.X-1-dx, b.Max.Y-1))
		edges[wfc.Left][s] = palette.ID(img.At(b.Min.X, b.Max.Y-1-dy))
	}

	return edges, nil
}
