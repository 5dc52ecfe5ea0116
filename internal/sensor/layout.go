package sensor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Role is the semantic meaning of a physical band.
type Role string

const (
	RoleCoastal Role = "coastal"
	RoleBlue    Role = "blue"
	RoleGreen   Role = "green"
	RoleYellow  Role = "yellow"
	RoleRed     Role = "red"
	RoleRedEdge Role = "rededge"
	RoleNIR1    Role = "nir1"
	RoleNIR2    Role = "nir2"
)

var ErrInvalidLayout = errors.New("invalid sensor layout")

// BandSpec maps a 1-based band index to its role. Export controls whether the
// band is written as a single-band file and included in the stack.
type BandSpec struct {
	Index  int
	Role   Role
	Export bool
}

// Layout is the band table of one sensor. BandCount is the number of physical
// bands the sensor delivers; index file numbering continues after it.
type Layout struct {
	Name      string
	BandCount int
	Bands     []BandSpec
}

// Index returns the 1-based band index holding role.
func (l Layout) Index(role Role) (int, bool) {
	for _, b := range l.Bands {
		if b.Role == role {
			return b.Index, true
		}
	}
	return 0, false
}

// Exported returns the exported bands ordered by band index.
func (l Layout) Exported() []BandSpec {
	out := make([]BandSpec, 0, len(l.Bands))
	for _, b := range l.Bands {
		if b.Export {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// Validate checks that indexes are unique and within [1, BandCount], that
// roles are unique, and that every role in required is present.
func (l Layout) Validate(required ...Role) error {
	if l.BandCount <= 0 {
		return fmt.Errorf("%w %q: band count %d", ErrInvalidLayout, l.Name, l.BandCount)
	}
	seenIdx := make(map[int]bool, len(l.Bands))
	seenRole := make(map[Role]bool, len(l.Bands))
	for _, b := range l.Bands {
		if b.Index < 1 || b.Index > l.BandCount {
			return fmt.Errorf("%w %q: band %d outside [1, %d]", ErrInvalidLayout, l.Name, b.Index, l.BandCount)
		}
		if seenIdx[b.Index] {
			return fmt.Errorf("%w %q: band %d listed twice", ErrInvalidLayout, l.Name, b.Index)
		}
		if b.Role == "" {
			return fmt.Errorf("%w %q: band %d has no role", ErrInvalidLayout, l.Name, b.Index)
		}
		if seenRole[b.Role] {
			return fmt.Errorf("%w %q: role %s listed twice", ErrInvalidLayout, l.Name, b.Role)
		}
		seenIdx[b.Index] = true
		seenRole[b.Role] = true
	}
	var missing []string
	for _, r := range required {
		if !seenRole[r] {
			missing = append(missing, string(r))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w %q: missing roles %s", ErrInvalidLayout, l.Name, strings.Join(missing, ", "))
	}
	return nil
}

var builtin = map[string]Layout{
	"ikonos": {
		Name:      "ikonos",
		BandCount: 4,
		Bands: []BandSpec{
			{Index: 1, Role: RoleBlue, Export: true},
			{Index: 2, Role: RoleGreen, Export: true},
			{Index: 3, Role: RoleRed, Export: true},
			{Index: 4, Role: RoleNIR1, Export: true},
		},
	},
	"worldview2": {
		Name:      "worldview2",
		BandCount: 8,
		Bands: []BandSpec{
			{Index: 1, Role: RoleCoastal, Export: false},
			{Index: 2, Role: RoleBlue, Export: true},
			{Index: 3, Role: RoleGreen, Export: true},
			{Index: 4, Role: RoleYellow, Export: true},
			{Index: 5, Role: RoleRed, Export: true},
			{Index: 6, Role: RoleRedEdge, Export: true},
			{Index: 7, Role: RoleNIR1, Export: true},
			{Index: 8, Role: RoleNIR2, Export: true},
		},
	},
}

var aliases = map[string]string{
	"4band":       "ikonos",
	"planetscope": "ikonos",
	"8band":       "worldview2",
	"wv2":         "worldview2",
}

// Lookup returns a built-in layout by name or alias. The returned layout owns
// its band slice.
func Lookup(name string) (Layout, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	l, ok := builtin[key]
	if !ok {
		return Layout{}, false
	}
	l.Bands = append([]BandSpec(nil), l.Bands...)
	return l, true
}

// Names lists the built-in layout names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
