// Package render composites a solved grid into a single image.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

var (
	ErrMissingImage  = errors.New("render: no image for tile")
	ErrInvalidCanvas = errors.New("render: invalid canvas size")
	ErrUnknownScaler = errors.New("render: unknown scaler")
)

// DefaultBackground shows through wherever no tile was drawn
var DefaultBackground = color.NRGBA{R: 255, A: 255}

// ImageSource resolves a tile name to its source image. *tileset.Set satisfies it.
type ImageSource interface {
	Image(name string) (image.Image, bool)
}

// Options describes the output canvas
type Options struct {
	Width, Height int
	Background    color.Color // nil means DefaultBackground
	Scaler        string      // nearest, bilinear or catmullrom; empty means nearest
}

// DefaultOptions returns a 1000x1000 red canvas with nearest neighbour scaling
func DefaultOptions() Options {
	return Options{
		Width:      1000,
		Height:     1000,
		Background: DefaultBackground,
		Scaler:     "nearest",
	}
}

// Scaler returns the x/image/draw scaler registered under name
func Scaler(name string) (draw.Scaler, error) {
	switch strings.ToLower(name) {
	case "", "nearest":
		return draw.NearestNeighbor, nil
	case "approxbilinear":
		return draw.ApproxBiLinear, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "catmullrom":
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScaler, name)
	}
}

// Compose draws every placement onto a canvas of opts.Width x opts.Height.
// Cells are Width/gridW by Height/gridH pixels; any remainder on the right and
// bottom stays background, as do cells that were never collapsed.
func Compose(gridW, gridH int, placements []wfc.Placement, images ImageSource, opts Options) (*image.RGBA, error) {
	if gridW <= 0 || gridH <= 0 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrInvalidCanvas, gridW, gridH)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidCanvas, opts.Width, opts.Height)
	}
	scaler, err := Scaler(opts.Scaler)
	if err != nil {
		return nil, err
	}
	bg := opts.Background
	if bg == nil {
		bg = DefaultBackground
	}

	canvas := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	cw, ch := opts.Width/gridW, opts.Height/gridH
	if cw == 0 || ch == 0 {
		return nil, fmt.Errorf("%w: %dx%d canvas is smaller than the %dx%d grid",
			ErrInvalidCanvas, opts.Width, opts.Height, gridW, gridH)
	}

	opaqueTiles := make(map[string]image.Image)
	for _, p := range placements {
		if p.Tile == nil {
			continue
		}
		img, ok := opaqueTiles[p.Tile.Name]
		if !ok {
			src, found := images.Image(p.Tile.Name)
			if !found {
				return nil, fmt.Errorf("%w %q at (%d,%d)", ErrMissingImage, p.Tile.Name, p.X, p.Y)
			}
			img = Opaque(src)
			opaqueTiles[p.Tile.Name] = img
		}
		dst := image.Rect(p.X*cw, p.Y*ch, (p.X+1)*cw, (p.Y+1)*ch)
		scaler.Scale(canvas, dst, img, img.Bounds(), draw.Src, nil)
	}

	return canvas, nil
}

// Opaque returns a copy of img with every alpha forced to 255, keeping the
// straight RGB values. Tiles drawn from it replace the background outright.
func Opaque(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = 255
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

// WritePNG encodes img to path, creating parent directories as needed
func WritePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("render: create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("render: encode %s: %w", path, err)
	}
	return f.Close()
}
