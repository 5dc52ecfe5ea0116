// Package pipeline runs the full chain for one image: read bands, compute
// indices, export single-band files and stack them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GeowazM/calcSpectralIndices/internal/composite"
	"github.com/GeowazM/calcSpectralIndices/internal/export"
	"github.com/GeowazM/calcSpectralIndices/internal/indices"
	"github.com/GeowazM/calcSpectralIndices/internal/raster"
	"github.com/GeowazM/calcSpectralIndices/internal/sensor"
	"github.com/GeowazM/calcSpectralIndices/output"
)

// Job describes one image to process.
type Job struct {
	Input  string
	Layout sensor.Layout
	// OutputDir defaults to the input's directory.
	OutputDir string
	// Base defaults to the input file name without extension.
	Base string
	// Indices defaults to indices.All.
	Indices []indices.Kind
	// KeepPartial leaves already written files in place when a later stage
	// fails. By default they are removed.
	KeepPartial bool
	Preview     bool
	Footprint   bool
}

// Result lists the files produced for one image.
type Result struct {
	Input      string
	BandFiles  []string
	IndexFiles []string
	VRT        string
	Stack      string
	Preview    string
	Footprint  string
	Stats      map[indices.Kind]indices.Stats
	Duration   time.Duration
}

// Files returns every produced file in stack order followed by the extras.
func (r *Result) Files() []string {
	files := append(append([]string{}, r.BandFiles...), r.IndexFiles...)
	for _, f := range []string{r.VRT, r.Stack, r.Preview, r.Footprint} {
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

type Runner struct {
	compositor *composite.Compositor
}

func NewRunner(backend composite.Backend) *Runner {
	return &Runner{compositor: composite.New(backend)}
}

// Run processes job. Errors are *StageError values wrapping the error kinds of
// the raster, export and composite packages.
func (r *Runner) Run(ctx context.Context, job Job) (res *Result, err error) {
	start := time.Now()
	kinds := job.Indices
	if len(kinds) == 0 {
		kinds = indices.All()
	}
	naming := NamingFor(job.Input, job.OutputDir, job.Base)

	if err := job.Layout.Validate(indices.RequiredRoles(kinds)...); err != nil {
		return nil, stageErr(StageLayout, job.Input, err)
	}

	bands, profile, err := readBands(job.Input, job.Layout, kinds)
	if err != nil {
		return nil, err
	}
	slog.Debug("bands read", "input", job.Input, "bands", len(bands), "width", profile.Width, "height", profile.Height)

	if err := ctx.Err(); err != nil {
		return nil, stageErr(StageCancel, job.Input, err)
	}

	results, err := computeIndices(kinds, job.Layout, bands)
	if err != nil {
		return nil, stageErr(StageIndex, job.Input, err)
	}

	if err := os.MkdirAll(naming.Dir, 0o755); err != nil {
		return nil, stageErr(StageExport, naming.Dir, fmt.Errorf("%w: %v", export.ErrIO, err))
	}

	res = &Result{Input: job.Input, Stats: make(map[indices.Kind]indices.Stats, len(kinds))}
	var touched []string
	defer func() {
		if err != nil && !job.KeepPartial {
			rollback(touched)
		}
	}()

	for i, k := range kinds {
		path := naming.Index(job.Layout.BandCount+i+1, k)
		touched = append(touched, path)
		if err := export.WriteBand(results[i], profile, path); err != nil {
			return nil, stageErr(StageExport, path, err)
		}
		res.IndexFiles = append(res.IndexFiles, path)
		res.Stats[k] = indices.Summarize(results[i])
	}

	for _, bs := range job.Layout.Exported() {
		path := naming.Band(bs.Index, bs.Role)
		touched = append(touched, path)
		if err := export.WriteBand(bands[bs.Index], profile, path); err != nil {
			return nil, stageErr(StageExport, path, err)
		}
		res.BandFiles = append(res.BandFiles, path)
	}
	slog.Info("single bands written", "input", filepath.Base(job.Input),
		"bands", len(res.BandFiles), "indices", len(res.IndexFiles))

	if err := ctx.Err(); err != nil {
		return nil, stageErr(StageCancel, job.Input, err)
	}

	ordered := append(append([]string{}, res.BandFiles...), res.IndexFiles...)
	touched = append(touched, naming.VRT(), naming.Stack())
	if err := r.compositor.Stack(ctx, ordered, naming.Stack(), composite.WithVRTPath(naming.VRT())); err != nil {
		return nil, stageErr(StageStack, naming.Stack(), err)
	}
	res.VRT, res.Stack = naming.VRT(), naming.Stack()

	if job.Preview {
		if ndvi, ok := indexOf(kinds, indices.KindNDVI); ok {
			touched = append(touched, naming.Preview())
			if err := output.CreateIndexPreview(results[ndvi], -1, 1, naming.Preview()); err != nil {
				return nil, stageErr(StageExtras, naming.Preview(), err)
			}
			res.Preview = naming.Preview()
		} else {
			slog.Warn("preview skipped, ndvi not computed", "input", job.Input)
		}
	}
	if job.Footprint {
		touched = append(touched, naming.Footprint())
		props := map[string]interface{}{
			"source": filepath.Base(job.Input),
			"sensor": job.Layout.Name,
			"stack":  filepath.Base(res.Stack),
		}
		if err := output.CreateFootprintGeoJSON(profile, props, naming.Footprint()); err != nil {
			return nil, stageErr(StageExtras, naming.Footprint(), err)
		}
		res.Footprint = naming.Footprint()
	}

	res.Duration = time.Since(start)
	slog.Info("bands merged", "stack", res.Stack, "bands", len(ordered), "took", res.Duration.Round(time.Millisecond))
	return res, nil
}

// readBands opens input once and reads every band an index or an export
// needs. The file is closed before returning.
func readBands(input string, layout sensor.Layout, kinds []indices.Kind) (map[int]raster.Band, raster.Profile, error) {
	rd, err := raster.Open(input)
	if err != nil {
		return nil, raster.Profile{}, stageErr(StageOpen, input, err)
	}
	defer rd.Close()
	profile := rd.Profile()

	wanted := make(map[int]bool)
	for _, role := range indices.RequiredRoles(kinds) {
		idx, _ := layout.Index(role)
		wanted[idx] = true
	}
	for _, bs := range layout.Exported() {
		wanted[bs.Index] = true
	}
	for idx := range wanted {
		if idx > profile.BandCount {
			return nil, profile, stageErr(StageRead, input,
				fmt.Errorf("%w: layout %s needs band %d, file has %d", raster.ErrRange, layout.Name, idx, profile.BandCount))
		}
	}
	if profile.BandCount != layout.BandCount {
		slog.Warn("band count differs from sensor layout", "input", input,
			"file", profile.BandCount, "layout", layout.Name, "expected", layout.BandCount)
	}

	bands := make(map[int]raster.Band, len(wanted))
	for idx := range wanted {
		b, err := rd.ReadBand(idx)
		if err != nil {
			return nil, profile, stageErr(StageRead, input, err)
		}
		bands[idx] = b
	}
	return bands, profile, nil
}

// computeIndices evaluates kinds concurrently; the inputs are only read.
func computeIndices(kinds []indices.Kind, layout sensor.Layout, bands map[int]raster.Band) ([]raster.Band, error) {
	byRole := make(map[sensor.Role]raster.Band)
	for _, bs := range layout.Bands {
		if b, ok := bands[bs.Index]; ok {
			byRole[bs.Role] = b
		}
	}

	results := make([]raster.Band, len(kinds))
	var g errgroup.Group
	for i, k := range kinds {
		g.Go(func() error {
			out, err := indices.Compute(k, byRole)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func indexOf(kinds []indices.Kind, k indices.Kind) (int, bool) {
	for i, kk := range kinds {
		if kk == k {
			return i, true
		}
	}
	return 0, false
}

func rollback(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("rollback: could not remove partial output", "file", p, "error", err)
		}
	}
}
