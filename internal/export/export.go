// Package export writes in-memory bands as single-band GeoTIFF files.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/airbusgeo/godal"

	"github.com/GeowazM/calcSpectralIndices/internal/raster"
)

var ErrIO = errors.New("write failed")

// WriteBand writes band as the only band of a Float32 GeoTIFF at outputPath.
// The grid, coordinate system and nodata value come from source; band count
// and data type are overridden. An existing file at outputPath is replaced.
func WriteBand(band raster.Band, source raster.Profile, outputPath string) error {
	if band.Width != source.Width || band.Height != source.Height {
		return fmt.Errorf("%w: %s: band is %dx%d, profile is %dx%d",
			ErrIO, outputPath, band.Width, band.Height, source.Width, source.Height)
	}
	profile := source.SingleBandFloat32()

	raster.RegisterDrivers()
	ds, err := godal.Create(godal.GTiff, outputPath, profile.BandCount, profile.DataType,
		profile.Width, profile.Height)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIO, outputPath, err)
	}

	if err := write(ds, band, profile); err != nil {
		ds.Close()
		return fmt.Errorf("%w: %s: %v", ErrIO, outputPath, err)
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("%w: %s: close: %v", ErrIO, outputPath, err)
	}
	slog.Debug("band written", "file", filepath.Base(outputPath), "source_band", band.Index)
	return nil
}

func write(ds *godal.Dataset, band raster.Band, profile raster.Profile) error {
	if profile.HasGeoTransform {
		if err := ds.SetGeoTransform(profile.GeoTransform); err != nil {
			return fmt.Errorf("set geotransform: %w", err)
		}
	}
	if profile.Projection != "" {
		if err := ds.SetProjection(profile.Projection); err != nil {
			return fmt.Errorf("set projection: %w", err)
		}
	}
	dst := ds.Bands()[0]
	if profile.HasNoData {
		if err := dst.SetNoData(profile.NoData); err != nil {
			return fmt.Errorf("set nodata: %w", err)
		}
	}
	if err := dst.Write(0, 0, band.Float32(), band.Width, band.Height); err != nil {
		return fmt.Errorf("write pixels: %w", err)
	}
	return nil
}
