package raster

import (
	"fmt"

	"github.com/airbusgeo/godal"
)

// Profile is the spatial description of a raster file. Values are copied, so a
// Profile read from a file is never changed by derived profiles.
type Profile struct {
	Width           int
	Height          int
	BandCount       int
	DataType        godal.DataType
	GeoTransform    [6]float64
	HasGeoTransform bool
	Projection      string
	NoData          float64
	HasNoData       bool
}

// SingleBandFloat32 is the profile of a one-band Float32 raster on the same
// grid.
func (p Profile) SingleBandFloat32() Profile {
	p.BandCount = 1
	p.DataType = godal.Float32
	return p
}

// PixelToWorld maps pixel coordinates to world coordinates through the affine
// geotransform.
func (p Profile) PixelToWorld(x, y float64) (float64, float64) {
	gt := p.GeoTransform
	return gt[0] + gt[1]*x + gt[2]*y, gt[3] + gt[4]*x + gt[5]*y
}

// Corners returns the world coordinates of the outer pixel corners in the
// order top-left, top-right, bottom-right, bottom-left.
func (p Profile) Corners() [4][2]float64 {
	w, h := float64(p.Width), float64(p.Height)
	var c [4][2]float64
	for i, px := range [4][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}} {
		c[i][0], c[i][1] = p.PixelToWorld(px[0], px[1])
	}
	return c
}

// SameGrid reports whether other shares the width, height, geotransform and
// coordinate system of p. The returned error names the first difference.
func (p Profile) SameGrid(other Profile) error {
	if p.Width != other.Width || p.Height != other.Height {
		return fmt.Errorf("%w: size %dx%d, want %dx%d", ErrGridMismatch, other.Width, other.Height, p.Width, p.Height)
	}
	if p.HasGeoTransform != other.HasGeoTransform || p.GeoTransform != other.GeoTransform {
		return fmt.Errorf("%w: geotransform %v, want %v", ErrGridMismatch, other.GeoTransform, p.GeoTransform)
	}
	if !sameProjection(p.Projection, other.Projection) {
		return fmt.Errorf("%w: coordinate system differs", ErrGridMismatch)
	}
	return nil
}

func sameProjection(a, b string) bool {
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	sa, err := godal.NewSpatialRefFromWKT(a)
	if err != nil {
		return false
	}
	defer sa.Close()
	sb, err := godal.NewSpatialRefFromWKT(b)
	if err != nil {
		return false
	}
	defer sb.Close()
	return sa.IsSame(sb)
}

func profileOf(ds *godal.Dataset) Profile {
	st := ds.Structure()
	p := Profile{
		Width:      st.SizeX,
		Height:     st.SizeY,
		BandCount:  st.NBands,
		DataType:   st.DataType,
		Projection: ds.Projection(),
	}
	if gt, err := ds.GeoTransform(); err == nil {
		p.GeoTransform = gt
		p.HasGeoTransform = true
	}
	if bands := ds.Bands(); len(bands) > 0 {
		p.NoData, p.HasNoData = bands[0].NoData()
	}
	return p
}
