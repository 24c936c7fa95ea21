package config

import "github.com/exolab/exomoon/internal/params"

// Presets are ready-made systems for quick runs and regression anchors.
var Presets = map[string]*Config{
	"reference": {
		System: params.Default(),
		Mode:   "orbit",
	},
	"sun-earth-moon": {
		System: params.System{
			Ts: 5772.0, RsSolar: 1.0, MsSolar: 1.0,
			MpEarth: 1.0, DpCGS: 5.5, ApAU: 1.0, Ep: 0.0,
			MmEarth: 0.0123, AmHill: 0.257, Em: 0.0549,
		},
		Mode: "orbit",
	},
	"tight-moon": {
		System: func() params.System {
			p := params.Default()
			p.AmHill = 0.2
			return p
		}(),
		Mode:         "years",
		Years:        25.0,
		EscapeFactor: 1.0,
	},
	"wide-moon": {
		System: func() params.System {
			p := params.Default()
			p.AmHill = 0.8
			return p
		}(),
		Mode:         "years",
		Years:        25.0,
		EscapeFactor: 1.0,
	},
	"retro-moon": {
		System: func() params.System {
			p := params.Default()
			p.MoonDir = params.Retrograde
			return p
		}(),
		Mode:         "years",
		Years:        25.0,
		EscapeFactor: 1.0,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	src, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *src
	if cfg.Years == 0 {
		cfg.Years = DefaultYears
	}
	if cfg.EscapeFactor == 0 {
		cfg.EscapeFactor = DefaultEscapeFactor
	}
	return &cfg
}

// ListPresets returns the available preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
