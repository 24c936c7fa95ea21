// Package params defines the user-facing description of a star-planet-moon
// system and the coercion helpers used by the ingestion surfaces (CLI, MCP
// tools, HTTP API).
package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidParams flags a physically meaningless configuration.
var ErrInvalidParams = errors.New("params: invalid system parameters")

// Direction is the orbital sense of the moon around the planet.
type Direction int

const (
	Prograde Direction = iota
	Retrograde
)

func (d Direction) String() string {
	if d == Retrograde {
		return "retrograde"
	}
	return "prograde"
}

// MarshalText encodes the direction as its lowercase name, so YAML and
// JSON configs read "prograde"/"retrograde" rather than a bare integer.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	*d = ParseDirection(string(b))
	return nil
}

// ParseDirection maps the accepted vocabulary onto a Direction. Only an
// explicit retrograde marker flips the sense; everything else is prograde.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "retro", "retrograde", "true", "1", "yes":
		return Retrograde
	}
	return Prograde
}

// System is the immutable input record for one simulation run.
type System struct {
	// Stellar
	Ts      float64 `yaml:"ts" json:"Ts"`             // effective temperature, K
	RsSolar float64 `yaml:"rs_solar" json:"rs_solar"` // radius, solar radii
	MsSolar float64 `yaml:"ms_solar" json:"ms_solar"` // mass, solar masses

	// Planet
	MpEarth float64 `yaml:"mp_earth" json:"mp_earth"` // mass, Earth masses
	DpCGS   float64 `yaml:"dp_cgs" json:"dp_cgs"`     // bulk density, g/cm^3
	ApAU    float64 `yaml:"ap_au" json:"ap_AU"`       // semi-major axis, AU
	Ep      float64 `yaml:"ep" json:"ep"`             // eccentricity

	// Moon
	MmEarth float64   `yaml:"mm_earth" json:"mm_earth"` // mass, Earth masses
	AmHill  float64   `yaml:"am_hill" json:"am_hill"`   // semi-major axis, fraction of Hill radius
	Em      float64   `yaml:"em" json:"em"`             // eccentricity
	MoonDir Direction `yaml:"moon_dir" json:"moon_dir"`
}

// Default returns the reference configuration: a super-Earth at 0.3 AU of
// an M dwarf with an Earth-mass moon at 0.45 Hill radii.
func Default() System {
	return System{
		Ts:      3784.0,
		RsSolar: 0.51,
		MsSolar: 0.54,
		MpEarth: 2.54,
		DpCGS:   5.5,
		ApAU:    0.3006,
		Ep:      0.0,
		MmEarth: 1.0,
		AmHill:  0.45,
		Em:      0.0,
		MoonDir: Prograde,
	}
}

// Validate rejects configurations that would produce divisions by zero or
// negative radicands in the closed-form orbit construction.
func (s System) Validate() error {
	checks := []struct {
		ok  bool
		msg string
	}{
		{s.Ts > 0, "stellar temperature must be positive"},
		{s.RsSolar > 0, "stellar radius must be positive"},
		{s.MsSolar > 0, "stellar mass must be positive"},
		{s.MpEarth > 0, "planet mass must be positive"},
		{s.DpCGS > 0, "planet density must be positive"},
		{s.ApAU > 0, "planet semi-major axis must be positive"},
		{s.Ep >= 0 && s.Ep < 1, "planet eccentricity must lie in [0, 1)"},
		{s.MmEarth > 0, "moon mass must be positive"},
		{s.AmHill > 0, "moon Hill fraction must be positive"},
		{s.Em >= 0 && s.Em < 1, "moon eccentricity must lie in [0, 1)"},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s", ErrInvalidParams, c.msg)
		}
	}
	return nil
}

var numberRe = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

// Number extracts the leading numeric literal from free text that may
// carry units, e.g. "0.3006 AU" or "3784K".
func Number(s string) (float64, error) {
	m := numberRe.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, fmt.Errorf("params: no numeric literal in %q", s)
	}
	return strconv.ParseFloat(m, 64)
}

// aliases maps the loose key vocabulary accepted on tool and query
// surfaces onto canonical field names.
var aliases = map[string]string{
	"star_temp": "ts", "stellar_temp": "ts",
	"r_sun": "rs_solar", "star_radius": "rs_solar",
	"m_sun": "ms_solar", "star_mass": "ms_solar",
	"planet_mass": "mp_earth", "mp": "mp_earth",
	"planet_density": "dp_cgs", "rho_p": "dp_cgs",
	"a_planet": "ap_au", "ap_au": "ap_au", "semi_major_axis": "ap_au",
	"e_planet": "ep", "ecc_p": "ep",
	"moon_mass": "mm_earth", "mm": "mm_earth",
	"a_moon_hill": "am_hill", "a_moon_frac": "am_hill", "am": "am_hill",
	"e_moon": "em", "ecc_m": "em",
	"moon_retrograde": "moon_dir", "retrograde": "moon_dir", "orbit_dir": "moon_dir",
	"t_years": "years", "duration": "years", "sim_years": "years",
}

func canonicalKey(k string) string {
	lk := strings.ToLower(strings.TrimSpace(k))
	if c, ok := aliases[lk]; ok {
		return c
	}
	switch lk {
	case "ts", "rs_solar", "ms_solar", "mp_earth", "dp_cgs", "ap_au", "ep",
		"mm_earth", "am_hill", "em", "moon_dir", "years":
		return lk
	}
	return ""
}

func coerceFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := Number(x)
		return f, err == nil
	}
	return 0, false
}

func coerceDirection(v any) Direction {
	switch x := v.(type) {
	case bool:
		if x {
			return Retrograde
		}
		return Prograde
	case float64:
		if x != 0 {
			return Retrograde
		}
		return Prograde
	case string:
		return ParseDirection(x)
	}
	return Prograde
}

// FromMap overlays a loosely-typed parameter map onto base. Unknown keys
// are ignored; numeric fields accept numbers or unit-embedded text. The
// second return value is the "years" entry, if present.
func FromMap(base System, m map[string]any) (System, *float64) {
	out := base
	var years *float64
	for k, v := range m {
		key := canonicalKey(k)
		if key == "" {
			continue
		}
		if key == "moon_dir" {
			out.MoonDir = coerceDirection(v)
			continue
		}
		f, ok := coerceFloat(v)
		if !ok {
			continue
		}
		switch key {
		case "ts":
			out.Ts = f
		case "rs_solar":
			out.RsSolar = f
		case "ms_solar":
			out.MsSolar = f
		case "mp_earth":
			out.MpEarth = f
		case "dp_cgs":
			out.DpCGS = f
		case "ap_au":
			out.ApAU = f
		case "ep":
			out.Ep = f
		case "mm_earth":
			out.MmEarth = f
		case "am_hill":
			out.AmHill = f
		case "em":
			out.Em = f
		case "years":
			y := f
			years = &y
		}
	}
	return out, years
}
