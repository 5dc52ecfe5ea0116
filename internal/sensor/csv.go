package sensor

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
)

// layoutRow is one line of a layout table:
//
//	sensor,band_count,band,role,export
//	quickbird,4,1,blue,true
//
// band_count may be left empty, in which case the highest band index is used.
// A declared band_count is binding: bands beyond it are rejected.
type layoutRow struct {
	Sensor    string `csv:"sensor"`
	BandCount int    `csv:"band_count"`
	Band      int    `csv:"band"`
	Role      string `csv:"role"`
	Export    bool   `csv:"export"`
}

// ReadCSV parses layout rows grouped by sensor name. Layouts are validated
// structurally but not for index-specific roles.
func ReadCSV(r io.Reader) (map[string]Layout, error) {
	var rows []*layoutRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLayout, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty layout table", ErrInvalidLayout)
	}

	layouts := make(map[string]Layout)
	declared := make(map[string]int)
	highest := make(map[string]int)
	for i, row := range rows {
		name := strings.ToLower(strings.TrimSpace(row.Sensor))
		if name == "" {
			return nil, fmt.Errorf("%w: row %d has no sensor name", ErrInvalidLayout, i+2)
		}
		if row.BandCount > 0 {
			if prev, ok := declared[name]; ok && prev != row.BandCount {
				return nil, fmt.Errorf("%w: row %d: %s band_count %d disagrees with %d",
					ErrInvalidLayout, i+2, name, row.BandCount, prev)
			}
			declared[name] = row.BandCount
		}
		highest[name] = max(highest[name], row.Band)

		l := layouts[name]
		l.Name = name
		l.Bands = append(l.Bands, BandSpec{
			Index:  row.Band,
			Role:   Role(strings.ToLower(strings.TrimSpace(row.Role))),
			Export: row.Export,
		})
		layouts[name] = l
	}

	for name, l := range layouts {
		l.BandCount = declared[name]
		if l.BandCount == 0 {
			l.BandCount = highest[name]
		}
		sort.Slice(l.Bands, func(i, j int) bool { return l.Bands[i].Index < l.Bands[j].Index })
		if err := l.Validate(); err != nil {
			return nil, err
		}
		layouts[name] = l
	}
	return layouts, nil
}

// Resolve returns the built-in layout called ref, or else loads ref as a
// layout table. A table holding more than one sensor is selected with
// "path#sensor".
func Resolve(ref string) (Layout, error) {
	if l, ok := Lookup(ref); ok {
		return l, nil
	}

	path, want, _ := strings.Cut(ref, "#")
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %q is neither a built-in layout (%s) nor a readable file: %v",
			ErrInvalidLayout, ref, strings.Join(Names(), ", "), err)
	}
	defer f.Close()

	layouts, err := ReadCSV(f)
	if err != nil {
		return Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	if want != "" {
		l, ok := layouts[strings.ToLower(want)]
		if !ok {
			return Layout{}, fmt.Errorf("%w: sensor %q not found in %s", ErrInvalidLayout, want, path)
		}
		return l, nil
	}
	if len(layouts) != 1 {
		return Layout{}, fmt.Errorf("%w: %s defines %d sensors, select one with %s#<sensor>",
			ErrInvalidLayout, path, len(layouts), path)
	}
	for _, l := range layouts {
		return l, nil
	}
	return Layout{}, nil
}
