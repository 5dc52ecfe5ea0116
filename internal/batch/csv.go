package batch

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/GeowazM/calcSpectralIndices/internal/pipeline"
	"github.com/GeowazM/calcSpectralIndices/internal/sensor"
)

type reportRow struct {
	Input    string  `csv:"input"`
	Status   string  `csv:"status"`
	Stage    string  `csv:"stage"`
	Error    string  `csv:"error"`
	Stack    string  `csv:"stack"`
	Duration float64 `csv:"duration_seconds"`
}

// WriteReport writes records as CSV with a header row.
func WriteReport(w io.Writer, records []Record) error {
	rows := make([]*reportRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, &reportRow{
			Input:    r.Input,
			Status:   string(r.Status),
			Stage:    string(r.Stage),
			Error:    r.Error,
			Stack:    r.Stack,
			Duration: r.Duration.Seconds(),
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ManifestRow is one line of a batch manifest. Empty columns fall back to the
// command line defaults.
type ManifestRow struct {
	Input        string `csv:"input"`
	SensorLayout string `csv:"sensor_layout"`
	OutputDir    string `csv:"output_dir"`
}

func ReadManifest(r io.Reader) ([]ManifestRow, error) {
	var rows []*ManifestRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	out := make([]ManifestRow, 0, len(rows))
	for i, row := range rows {
		row.Input = strings.TrimSpace(row.Input)
		if row.Input == "" {
			return nil, fmt.Errorf("manifest row %d: empty input", i+2)
		}
		out = append(out, *row)
	}
	return out, nil
}

// Jobs turns manifest rows into pipeline jobs. Relative inputs and output
// directories are resolved against baseDir. Fields not set by a row are taken
// from template.
func Jobs(rows []ManifestRow, baseDir string, template pipeline.Job) ([]pipeline.Job, error) {
	layouts := map[string]sensor.Layout{}
	jobs := make([]pipeline.Job, 0, len(rows))
	for _, row := range rows {
		job := template
		job.Input = resolve(baseDir, row.Input)
		if row.OutputDir != "" {
			job.OutputDir = resolve(baseDir, row.OutputDir)
		}
		if name := strings.TrimSpace(row.SensorLayout); name != "" {
			l, ok := layouts[name]
			if !ok {
				var err error
				if l, err = sensor.Resolve(resolveLayout(baseDir, name)); err != nil {
					return nil, fmt.Errorf("%s: %w", row.Input, err)
				}
				layouts[name] = l
			}
			job.Layout = l
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}

// resolveLayout makes a relative layout CSV path relative to baseDir while
// leaving built-in names untouched.
func resolveLayout(baseDir, ref string) string {
	if _, ok := sensor.Lookup(ref); ok {
		return ref
	}
	return resolve(baseDir, ref)
}
