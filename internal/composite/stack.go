// Package composite stacks single-band rasters into one multi-band raster,
// first as a virtual raster and then as a physical GeoTIFF.
package composite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/GeowazM/calcSpectralIndices/internal/raster"
)

var ErrComposition = errors.New("composition failed")

type Compositor struct {
	backend Backend
}

func New(backend Backend) *Compositor {
	if backend == nil {
		backend = GodalBackend{}
	}
	return &Compositor{backend: backend}
}

type stackOpts struct {
	vrtPath string
}

type Option func(*stackOpts)

// WithVRTPath sets where the intermediate virtual raster is written. The
// default is outputPath with its extension replaced by ".vrt".
func WithVRTPath(path string) Option {
	return func(o *stackOpts) { o.vrtPath = path }
}

// Stack writes outputPath with one band per entry of orderedPaths, band i
// being the sole band of orderedPaths[i]. Every input must be a single-band
// raster on the grid of the first input.
func (c *Compositor) Stack(ctx context.Context, orderedPaths []string, outputPath string, opts ...Option) error {
	o := stackOpts{
		vrtPath: strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".vrt",
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(orderedPaths) == 0 {
		return fmt.Errorf("%w: no input bands", ErrComposition)
	}
	if err := checkInputs(orderedPaths); err != nil {
		return err
	}

	if err := c.backend.BuildVRT(ctx, o.vrtPath, orderedPaths); err != nil {
		return fmt.Errorf("%w: virtual raster %s: %w", ErrComposition, o.vrtPath, err)
	}
	if err := c.backend.Translate(ctx, o.vrtPath, outputPath); err != nil {
		return fmt.Errorf("%w: translate %s: %w", ErrComposition, outputPath, err)
	}

	out, err := raster.ReadProfile(outputPath)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrComposition, outputPath, err)
	}
	if out.BandCount != len(orderedPaths) {
		return fmt.Errorf("%w: %s has %d bands, want %d", ErrComposition, outputPath, out.BandCount, len(orderedPaths))
	}
	slog.Debug("stack written", "file", outputPath, "bands", out.BandCount)
	return nil
}

func checkInputs(paths []string) error {
	var first raster.Profile
	for i, path := range paths {
		p, err := raster.ReadProfile(path)
		if err != nil {
			return fmt.Errorf("%w: input %d: %w", ErrComposition, i+1, err)
		}
		if p.BandCount != 1 {
			return fmt.Errorf("%w: input %d: %s has %d bands, want 1", ErrComposition, i+1, path, p.BandCount)
		}
		if i == 0 {
			first = p
			continue
		}
		if err := first.SameGrid(p); err != nil {
			return fmt.Errorf("%w: input %d: %s: %w", ErrComposition, i+1, path, err)
		}
	}
	return nil
}
