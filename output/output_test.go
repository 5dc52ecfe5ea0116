package output

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeowazM/calcSpectralIndices/internal/raster"
)

func TestCreateIndexPreview(t *testing.T) {
	b := raster.Band{Width: 3, Height: 1, Data: []float64{-1, math.NaN(), 1}}
	path := filepath.Join(t.TempDir(), "ndvi.png")
	require.NoError(t, CreateIndexPreview(b, -1, 1, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Bounds().Dx())

	_, _, _, a := img.At(1, 0).RGBA()
	assert.Zero(t, a, "NaN pixel should be transparent")
	_, _, _, a = img.At(0, 0).RGBA()
	assert.NotZero(t, a)

	_, g0, _, _ := img.At(0, 0).RGBA()
	_, g2, _, _ := img.At(2, 0).RGBA()
	assert.NotEqual(t, g0, g2)
}

func TestCreateIndexPreviewRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, CreateIndexPreview(raster.Band{}, -1, 1, filepath.Join(dir, "a.png")))
	b := raster.Band{Width: 1, Height: 1, Data: []float64{0}}
	require.Error(t, CreateIndexPreview(b, 1, 1, filepath.Join(dir, "b.png")))
}

func TestColorAt(t *testing.T) {
	r, g, b := colorAt(-5)
	assert.Equal(t, ramp[0], [3]float64{r, g, b})
	r, g, b = colorAt(2)
	assert.Equal(t, ramp[len(ramp)-1], [3]float64{r, g, b})
}

func TestFootprint(t *testing.T) {
	p := raster.Profile{
		Width: 10, Height: 5,
		GeoTransform:    [6]float64{1000, 2, 0, 500, 0, -2},
		HasGeoTransform: true,
	}
	f := Footprint(p)
	poly, ok := f.Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly[0], 5)
	assert.Equal(t, orb.CCW, poly[0].Orientation())
	assert.Equal(t, orb.Bound{Min: orb.Point{1000, 490}, Max: orb.Point{1020, 500}}, poly.Bound())
	assert.InDelta(t, 200.0, f.Properties["area"], 1e-9)

	path := filepath.Join(t.TempDir(), "fp.geojson")
	require.NoError(t, CreateFootprintGeoJSON(p, map[string]interface{}{"source": "img.tif"}, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "img.tif", fc.Features[0].Properties["source"])

	require.Error(t, CreateFootprintGeoJSON(raster.Profile{Width: 1, Height: 1}, nil, path))
}
