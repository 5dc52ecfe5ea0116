// Package rastertest writes small GeoTIFF fixtures for tests.
package rastertest

import (
	"testing"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/require"

	"github.com/GeowazM/calcSpectralIndices/internal/raster"
)

// GeoTransform is the default fixture grid: 2 m pixels, origin in UTM 32N.
var GeoTransform = [6]float64{440000, 2, 0, 5200000, 0, -2}

// EPSG is the default fixture coordinate system.
const EPSG = 32632

// Fixture describes a raster to write.
type Fixture struct {
	Width, Height int
	DataType      godal.DataType
	Bands         [][]float64
	GeoTransform  [6]float64
	EPSG          int
	NoData        *float64
}

// Write creates a GeoTIFF at path and fails the test on error. Zero
// GeoTransform and EPSG fields take the package defaults.
func Write(t testing.TB, path string, f Fixture) {
	t.Helper()
	raster.RegisterDrivers()

	if f.DataType == godal.Unknown {
		f.DataType = godal.UInt16
	}
	if f.GeoTransform == ([6]float64{}) {
		f.GeoTransform = GeoTransform
	}
	if f.EPSG == 0 {
		f.EPSG = EPSG
	}

	ds, err := godal.Create(godal.GTiff, path, len(f.Bands), f.DataType, f.Width, f.Height)
	require.NoError(t, err)
	defer func() { require.NoError(t, ds.Close()) }()

	require.NoError(t, ds.SetGeoTransform(f.GeoTransform))
	sr, err := godal.NewSpatialRefFromEPSG(f.EPSG)
	require.NoError(t, err)
	defer sr.Close()
	require.NoError(t, ds.SetSpatialRef(sr))

	for i, data := range f.Bands {
		require.Len(t, data, f.Width*f.Height, "band %d", i+1)
		band := ds.Bands()[i]
		if f.NoData != nil {
			require.NoError(t, band.SetNoData(*f.NoData))
		}
		require.NoError(t, band.Write(0, 0, data, f.Width, f.Height))
	}
}

// Constant returns a band of n samples all equal to v.
func Constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
