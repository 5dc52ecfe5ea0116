// Package indices computes per-pixel spectral indices from band pairs.
//
// Samples are float64, so integer input never truncates. A zero denominator
// is not an error: the pixel becomes +Inf, -Inf or NaN following IEEE-754 and
// the remaining pixels are still computed.
package indices

import (
	"errors"
	"fmt"

	"github.com/GeowazM/calcSpectralIndices/internal/raster"
)

var ErrShape = errors.New("band shapes differ")

// NDVI is (nir - red) / (nir + red).
func NDVI(nir, red raster.Band) (raster.Band, error) {
	return normalizedDifference(nir, red)
}

// NDWI (McFeeters) is (green - nir) / (green + nir).
func NDWI(green, nir raster.Band) (raster.Band, error) {
	return normalizedDifference(green, nir)
}

// BuiltUp is 100 - 25 * (nir / red).
func BuiltUp(nir, red raster.Band) (raster.Band, error) {
	return apply(nir, red, func(n, r float64) float64 {
		return 100 - 25*(n/r)
	})
}

func normalizedDifference(a, b raster.Band) (raster.Band, error) {
	return apply(a, b, func(x, y float64) float64 {
		return (x - y) / (x + y)
	})
}

func apply(a, b raster.Band, fn func(x, y float64) float64) (raster.Band, error) {
	if !a.SameShape(b) {
		return raster.Band{}, fmt.Errorf("%w: band %d is %dx%d, band %d is %dx%d",
			ErrShape, a.Index, a.Width, a.Height, b.Index, b.Width, b.Height)
	}
	out := raster.NewBand(0, a.Width, a.Height)
	for i := range out.Data {
		out.Data[i] = fn(a.Data[i], b.Data[i])
	}
	return out, nil
}
