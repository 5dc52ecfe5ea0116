package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/GeowazM/calcSpectralIndices/internal/indices"
	"github.com/GeowazM/calcSpectralIndices/internal/sensor"
)

// Naming derives every output file name of one image from a directory and a
// base name.
type Naming struct {
	Dir  string
	Base string
}

// NamingFor defaults dir to the input's directory and base to the input file
// name without its extension.
func NamingFor(input, dir, base string) Naming {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	if base == "" {
		name := filepath.Base(input)
		base = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return Naming{Dir: dir, Base: base}
}

func (n Naming) path(suffix string) string {
	return filepath.Join(n.Dir, n.Base+suffix)
}

// Band is <base>_b<index>_<role>.tif.
func (n Naming) Band(index int, role sensor.Role) string {
	return n.path(fmt.Sprintf("_b%d_%s.tif", index, role))
}

// Index is <base>_b<number>_<kind>.tif, number continuing after the last
// physical band.
func (n Naming) Index(number int, kind indices.Kind) string {
	return n.path(fmt.Sprintf("_b%d_%s.tif", number, kind))
}

func (n Naming) VRT() string       { return n.path("_vrt_stack.tif") }
func (n Naming) Stack() string     { return n.path("_rst_stack.tif") }
func (n Naming) Preview() string   { return n.path("_ndvi_preview.png") }
func (n Naming) Footprint() string { return n.path("_footprint.geojson") }
