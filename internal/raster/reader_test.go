package raster_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeowazM/calcSpectralIndices/internal/raster"
	"github.com/GeowazM/calcSpectralIndices/internal/raster/rastertest"
)

func writeFourBand(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "img_clip.tif")
	rastertest.Write(t, path, rastertest.Fixture{
		Width: 2, Height: 1,
		Bands: [][]float64{{10, 20}, {30, 40}, {50, 60}, {70, 80}},
	})
	return path
}

func TestOpenBand(t *testing.T) {
	path := writeFourBand(t)

	band, profile, err := raster.OpenBand(path, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, band.Index)
	assert.Equal(t, []float64{50, 60}, band.Data)

	assert.Equal(t, 2, profile.Width)
	assert.Equal(t, 1, profile.Height)
	assert.Equal(t, 4, profile.BandCount)
	assert.Equal(t, godal.UInt16, profile.DataType)
	assert.True(t, profile.HasGeoTransform)
	assert.Equal(t, rastertest.GeoTransform, profile.GeoTransform)
	assert.NotEmpty(t, profile.Projection)
}

func TestSingleOpenMatchesRepeatedOpens(t *testing.T) {
	path := writeFourBand(t)

	r, err := raster.Open(path)
	require.NoError(t, err)
	defer r.Close()

	for i := 1; i <= 4; i++ {
		fromReader, err := r.ReadBand(i)
		require.NoError(t, err)
		fromOpen, profile, err := raster.OpenBand(path, i)
		require.NoError(t, err)
		assert.Equal(t, fromOpen, fromReader)
		assert.Equal(t, profile, r.Profile())
	}
}

func TestOpenBandErrors(t *testing.T) {
	path := writeFourBand(t)
	dir := t.TempDir()

	_, _, err := raster.OpenBand(filepath.Join(dir, "missing.tif"), 1)
	require.ErrorIs(t, err, raster.ErrNotFound)

	_, _, err = raster.OpenBand(dir, 1)
	require.ErrorIs(t, err, raster.ErrNotFound)

	garbage := filepath.Join(dir, "garbage.tif")
	require.NoError(t, os.WriteFile(garbage, []byte("not a tiff"), 0o644))
	_, _, err = raster.OpenBand(garbage, 1)
	require.ErrorIs(t, err, raster.ErrFormat)

	for _, idx := range []int{0, 5, -1} {
		_, _, err = raster.OpenBand(path, idx)
		require.ErrorIs(t, err, raster.ErrRange, "band %d", idx)
	}
}

func TestOpenDoesNotModifySource(t *testing.T) {
	path := writeFourBand(t)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, _, err = raster.OpenBand(path, 1)
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSameGrid(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.tif")
	b := filepath.Join(dir, "b.tif")
	c := filepath.Join(dir, "c.tif")
	d := filepath.Join(dir, "d.tif")
	rastertest.Write(t, a, rastertest.Fixture{Width: 2, Height: 2, Bands: [][]float64{{1, 2, 3, 4}}})
	rastertest.Write(t, b, rastertest.Fixture{Width: 2, Height: 2, Bands: [][]float64{{5, 6, 7, 8}}})
	rastertest.Write(t, c, rastertest.Fixture{Width: 2, Height: 2, Bands: [][]float64{{1, 2, 3, 4}}, EPSG: 4326})
	rastertest.Write(t, d, rastertest.Fixture{Width: 4, Height: 1, Bands: [][]float64{{1, 2, 3, 4}}})

	pa, err := raster.ReadProfile(a)
	require.NoError(t, err)
	pb, err := raster.ReadProfile(b)
	require.NoError(t, err)
	pc, err := raster.ReadProfile(c)
	require.NoError(t, err)
	pd, err := raster.ReadProfile(d)
	require.NoError(t, err)

	assert.NoError(t, pa.SameGrid(pb))
	assert.ErrorIs(t, pa.SameGrid(pc), raster.ErrGridMismatch)
	assert.ErrorIs(t, pa.SameGrid(pd), raster.ErrGridMismatch)

	shifted := pb
	shifted.GeoTransform[0] += 2
	assert.ErrorIs(t, pa.SameGrid(shifted), raster.ErrGridMismatch)
}

func TestProfileCorners(t *testing.T) {
	p := raster.Profile{Width: 3, Height: 2, GeoTransform: [6]float64{100, 10, 0, 50, 0, -10}}
	c := p.Corners()
	assert.Equal(t, [2]float64{100, 50}, c[0])
	assert.Equal(t, [2]float64{130, 50}, c[1])
	assert.Equal(t, [2]float64{130, 30}, c[2])
	assert.Equal(t, [2]float64{100, 30}, c[3])

	single := p.SingleBandFloat32()
	assert.Equal(t, 1, single.BandCount)
	assert.Equal(t, godal.Float32, single.DataType)
	assert.Equal(t, 0, p.BandCount)
}

func TestBandAccessors(t *testing.T) {
	b := raster.NewBand(2, 2, 2)
	copy(b.Data, []float64{1, 2, 3, 4})
	assert.Equal(t, 4.0, b.At(1, 1))
	assert.Equal(t, 2.0, b.At(1, 0))
	assert.Equal(t, []float32{1, 2, 3, 4}, b.Float32())
	assert.True(t, b.SameShape(raster.NewBand(0, 2, 2)))
	assert.False(t, b.SameShape(raster.NewBand(0, 4, 1)))
}
