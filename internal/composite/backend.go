package composite

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/airbusgeo/godal"

	"github.com/GeowazM/calcSpectralIndices/internal/raster"
)

// Backend assembles and materializes band stacks.
type Backend interface {
	// BuildVRT writes a virtual raster at vrtPath holding the first band of
	// each input, one output band per input, in order.
	BuildVRT(ctx context.Context, vrtPath string, inputs []string) error
	// Translate materializes vrtPath as a GeoTIFF at outputPath.
	Translate(ctx context.Context, vrtPath, outputPath string) error
}

// GodalBackend runs the GDAL utilities in-process through godal.
type GodalBackend struct{}

func (GodalBackend) BuildVRT(ctx context.Context, vrtPath string, inputs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raster.RegisterDrivers()
	ds, err := godal.BuildVRT(vrtPath, inputs, []string{"-separate"})
	if err != nil {
		return fmt.Errorf("build vrt: %w", err)
	}
	return ds.Close()
}

func (GodalBackend) Translate(ctx context.Context, vrtPath, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raster.RegisterDrivers()
	src, err := godal.Open(vrtPath, godal.RasterOnly(), godal.ErrLogger(raster.QuietWarnings))
	if err != nil {
		return fmt.Errorf("open vrt: %w", err)
	}
	defer src.Close()

	dst, err := src.Translate(outputPath, []string{"-of", "GTiff"})
	if err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	return dst.Close()
}

// ExecBackend runs gdalbuildvrt and gdal_translate as child processes.
// Empty command fields use the tool names from PATH.
type ExecBackend struct {
	BuildVRTCommand  string
	TranslateCommand string
}

func (b ExecBackend) BuildVRT(ctx context.Context, vrtPath string, inputs []string) error {
	args := append([]string{"-overwrite", "-separate", vrtPath}, inputs...)
	return run(ctx, orDefault(b.BuildVRTCommand, "gdalbuildvrt"), args)
}

func (b ExecBackend) Translate(ctx context.Context, vrtPath, outputPath string) error {
	return run(ctx, orDefault(b.TranslateCommand, "gdal_translate"), []string{"-of", "GTiff", vrtPath, outputPath})
}

func run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	slog.Debug("exec", "cmd", name, "args", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if msg == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// NewBackend returns the backend called name: "godal" (default) or "exec".
func NewBackend(name string) (Backend, error) {
	switch strings.ToLower(name) {
	case "", "godal":
		return GodalBackend{}, nil
	case "exec":
		return ExecBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown composition backend %q (want godal or exec)", name)
	}
}
