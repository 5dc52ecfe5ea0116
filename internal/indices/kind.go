package indices

import (
	"fmt"
	"math"
	"strings"

	"github.com/GeowazM/calcSpectralIndices/internal/raster"
	"github.com/GeowazM/calcSpectralIndices/internal/sensor"
)

type Kind string

const (
	KindNDVI    Kind = "ndvi"
	KindNDWI    Kind = "ndwi"
	KindBuiltUp Kind = "builtup"
)

type definition struct {
	first, second sensor.Role
	fn            func(a, b raster.Band) (raster.Band, error)
}

var definitions = map[Kind]definition{
	KindNDVI:    {sensor.RoleNIR1, sensor.RoleRed, NDVI},
	KindNDWI:    {sensor.RoleGreen, sensor.RoleNIR1, NDWI},
	KindBuiltUp: {sensor.RoleNIR1, sensor.RoleRed, BuiltUp},
}

// All returns every index in output order.
func All() []Kind {
	return []Kind{KindNDVI, KindNDWI, KindBuiltUp}
}

// ParseKinds parses a comma separated list such as "ndvi,builtup". An empty
// string selects All. Order is kept; duplicates are rejected.
func ParseKinds(s string) ([]Kind, error) {
	if strings.TrimSpace(s) == "" {
		return All(), nil
	}
	var kinds []Kind
	seen := make(map[Kind]bool)
	for _, part := range strings.Split(s, ",") {
		k := Kind(strings.ToLower(strings.TrimSpace(part)))
		if _, ok := definitions[k]; !ok {
			return nil, fmt.Errorf("unknown index %q", part)
		}
		if seen[k] {
			return nil, fmt.Errorf("index %q requested twice", k)
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Roles returns the two band roles the index reads, in argument order.
func (k Kind) Roles() (sensor.Role, sensor.Role) {
	d := definitions[k]
	return d.first, d.second
}

// RequiredRoles returns the union of the roles read by kinds.
func RequiredRoles(kinds []Kind) []sensor.Role {
	var roles []sensor.Role
	seen := make(map[sensor.Role]bool)
	for _, k := range kinds {
		a, b := k.Roles()
		for _, r := range []sensor.Role{a, b} {
			if !seen[r] {
				seen[r] = true
				roles = append(roles, r)
			}
		}
	}
	return roles
}

// Compute evaluates k on the bands keyed by role.
func Compute(k Kind, bands map[sensor.Role]raster.Band) (raster.Band, error) {
	d, ok := definitions[k]
	if !ok {
		return raster.Band{}, fmt.Errorf("unknown index %q", k)
	}
	a, ok := bands[d.first]
	if !ok {
		return raster.Band{}, fmt.Errorf("%s: no %s band", k, d.first)
	}
	b, ok := bands[d.second]
	if !ok {
		return raster.Band{}, fmt.Errorf("%s: no %s band", k, d.second)
	}
	out, err := d.fn(a, b)
	if err != nil {
		return raster.Band{}, fmt.Errorf("%s: %w", k, err)
	}
	return out, nil
}

// Stats summarises the finite samples of an index.
type Stats struct {
	Min, Max, Mean float64
	Finite         int
	NonFinite      int
}

func Summarize(b raster.Band) Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range b.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			s.NonFinite++
			continue
		}
		s.Finite++
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if s.Finite == 0 {
		s.Min, s.Max, s.Mean = math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Mean = sum / float64(s.Finite)
	return s
}
