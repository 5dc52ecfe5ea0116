package raster

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/airbusgeo/godal"
)

var (
	ErrNotFound     = errors.New("raster not found")
	ErrFormat       = errors.New("not a readable raster")
	ErrRange        = errors.New("band index out of range")
	ErrGridMismatch = errors.New("raster grids differ")
)

var registerOnce sync.Once

// RegisterDrivers registers the GDAL drivers once per process.
func RegisterDrivers() {
	registerOnce.Do(godal.RegisterAll)
}

// QuietWarnings is a godal error handler that logs GDAL warnings at debug
// level and turns failures into errors.
func QuietWarnings(ec godal.ErrorCategory, code int, msg string) error {
	if ec <= godal.CE_Warning {
		slog.Debug("gdal", "code", code, "msg", msg)
		return nil
	}
	return errors.New(msg)
}

// Reader is an open raster. Bands are read on demand and not kept resident.
type Reader struct {
	path    string
	ds      *godal.Dataset
	profile Profile
}

// Open opens path read-only.
func Open(path string) (*Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	RegisterDrivers()
	ds, err := godal.Open(path, godal.RasterOnly(), godal.ErrLogger(QuietWarnings))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}
	p := profileOf(ds)
	if p.BandCount == 0 || p.Width == 0 || p.Height == 0 {
		ds.Close()
		return nil, fmt.Errorf("%w: %s has no pixel data", ErrFormat, path)
	}
	return &Reader{path: path, ds: ds, profile: p}, nil
}

func (r *Reader) Profile() Profile { return r.profile }

// ReadBand reads the 1-based band index as float64 samples. Integer samples
// are converted by GDAL during the read.
func (r *Reader) ReadBand(index int) (Band, error) {
	if index < 1 || index > r.profile.BandCount {
		return Band{}, fmt.Errorf("%w: %s: band %d not in [1, %d]", ErrRange, r.path, index, r.profile.BandCount)
	}
	b := NewBand(index, r.profile.Width, r.profile.Height)
	src := r.ds.Bands()[index-1]
	if err := src.Read(0, 0, b.Data, b.Width, b.Height); err != nil {
		return Band{}, fmt.Errorf("%w: %s: read band %d: %v", ErrFormat, r.path, index, err)
	}
	return b, nil
}

func (r *Reader) Close() error {
	if r.ds == nil {
		return nil
	}
	err := r.ds.Close()
	r.ds = nil
	return err
}

// OpenBand opens path, reads one band and closes the file again.
func OpenBand(path string, index int) (Band, Profile, error) {
	r, err := Open(path)
	if err != nil {
		return Band{}, Profile{}, err
	}
	defer r.Close()

	b, err := r.ReadBand(index)
	if err != nil {
		return Band{}, Profile{}, err
	}
	return b, r.Profile(), nil
}

// ReadProfile returns the profile of path without reading pixels.
func ReadProfile(path string) (Profile, error) {
	r, err := Open(path)
	if err != nil {
		return Profile{}, err
	}
	defer r.Close()
	return r.Profile(), nil
}
