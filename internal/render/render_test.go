package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

type mapSource map[string]image.Image

func (m mapSource) Image(name string) (image.Image, bool) {
	img, ok := m[name]
	return img, ok
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func testCatalog(t *testing.T) *wfc.Catalog {
	t.Helper()
	sig := wfc.Signature{0}
	c, err := wfc.NewCatalog(1, []wfc.TileSpec{
		{Name: "green", Edges: [4]wfc.Signature{sig, sig, sig, sig}, Weight: 1},
		{Name: "blue", Edges: [4]wfc.Signature{sig, sig, sig, sig}, Weight: 1},
	})
	require.NoError(t, err)
	return c
}

var (
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
	red   = color.RGBA{R: 255, A: 255}
)

func TestCompose(t *testing.T) {
	c := testCatalog(t)
	images := mapSource{
		"green": solid(3, 3, green),
		"blue":  solid(7, 5, blue),
	}
	placements := []wfc.Placement{
		{X: 0, Y: 0, Tile: c.Tile(0)},
		{X: 1, Y: 1, Tile: c.Tile(1)},
	}

	img, err := Compose(2, 2, placements, images, Options{Width: 20, Height: 20})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 20), img.Bounds())

	assert.Equal(t, green, img.RGBAAt(0, 0))
	assert.Equal(t, green, img.RGBAAt(9, 9))
	assert.Equal(t, blue, img.RGBAAt(10, 10))
	assert.Equal(t, blue, img.RGBAAt(19, 19))

	// uncollapsed cells keep the background
	assert.Equal(t, red, img.RGBAAt(15, 5))
	assert.Equal(t, red, img.RGBAAt(5, 15))
}

func TestCompose_TransparentTileHidesBackground(t *testing.T) {
	c := testCatalog(t)
	images := mapSource{"green": solid(2, 2, color.NRGBA{G: 255, A: 0})}
	placements := []wfc.Placement{{X: 0, Y: 0, Tile: c.Tile(0)}}

	img, err := Compose(1, 1, placements, images, Options{Width: 4, Height: 4})
	require.NoError(t, err)
	assert.Equal(t, green, img.RGBAAt(0, 0))
	assert.Equal(t, green, img.RGBAAt(3, 3))
}

func TestOpaque(t *testing.T) {
	src := image.NewNRGBA(image.Rect(2, 3, 4, 5))
	src.SetNRGBA(2, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	src.SetNRGBA(3, 4, color.NRGBA{B: 200, A: 0})

	out := Opaque(src)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, out.NRGBAAt(2, 3))
	assert.Equal(t, color.NRGBA{B: 200, A: 255}, out.NRGBAAt(3, 4))
}

func TestCompose_Remainder(t *testing.T) {
	c := testCatalog(t)
	images := mapSource{"green": solid(2, 2, green)}
	placements := []wfc.Placement{
		{X: 0, Y: 0, Tile: c.Tile(0)},
		{X: 1, Y: 0, Tile: c.Tile(0)},
		{X: 2, Y: 0, Tile: c.Tile(0)},
	}

	img, err := Compose(3, 1, placements, images, Options{Width: 10, Height: 4, Background: color.White})
	require.NoError(t, err)

	// 10/3 = 3 pixel cells, the last column is left over
	assert.Equal(t, green, img.RGBAAt(8, 0))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(9, 0))
}

func TestCompose_Scalers(t *testing.T) {
	c := testCatalog(t)
	images := mapSource{"green": solid(4, 4, green)}
	placements := []wfc.Placement{{X: 0, Y: 0, Tile: c.Tile(0)}}

	for _, name := range []string{"", "nearest", "bilinear", "approxbilinear", "CatmullRom"} {
		t.Run(name, func(t *testing.T) {
			img, err := Compose(1, 1, placements, images, Options{Width: 16, Height: 16, Scaler: name})
			require.NoError(t, err)
			px := img.RGBAAt(8, 8)
			assert.GreaterOrEqual(t, px.G, uint8(250))
			assert.LessOrEqual(t, px.R, uint8(5))
			assert.LessOrEqual(t, px.B, uint8(5))
		})
	}
}

func TestCompose_Errors(t *testing.T) {
	c := testCatalog(t)
	placements := []wfc.Placement{{X: 0, Y: 0, Tile: c.Tile(1)}}

	_, err := Compose(1, 1, placements, mapSource{}, Options{Width: 4, Height: 4})
	assert.ErrorIs(t, err, ErrMissingImage)

	_, err = Compose(0, 1, nil, mapSource{}, Options{Width: 4, Height: 4})
	assert.ErrorIs(t, err, ErrInvalidCanvas)

	_, err = Compose(1, 1, nil, mapSource{}, Options{Width: 0, Height: 4})
	assert.ErrorIs(t, err, ErrInvalidCanvas)

	_, err = Compose(10, 10, nil, mapSource{}, Options{Width: 5, Height: 5})
	assert.ErrorIs(t, err, ErrInvalidCanvas)

	_, err = Compose(1, 1, nil, mapSource{}, Options{Width: 4, Height: 4, Scaler: "lanczos"})
	assert.ErrorIs(t, err, ErrUnknownScaler)
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "10x10.png")
	require.NoError(t, WritePNG(path, solid(10, 10, blue)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
	r, g, b, _ := img.At(3, 3).RGBA()
	assert.Equal(t, []uint32{0, 0, 0xffff}, []uint32{r, g, b})
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, 1000, opts.Width)
	assert.Equal(t, 1000, opts.Height)
	assert.Equal(t, DefaultBackground, opts.Background)
}
