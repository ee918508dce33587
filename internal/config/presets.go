package config

import (
	"fmt"
	"sort"

	"github.com/san-kum/levelflow/internal/dynamo"
)

type Preset struct {
	Description string
	Complexity  int
	Coupling    [3]float64
	Modes       []string
}

var Presets = map[string]Preset{
	"quiet": {
		Description: "loose coupling, nothing running",
		Complexity:  3, Coupling: [3]float64{0.5, 0.5, 0.5},
	},
	"critical": {
		Description: "unit coupling at its optimal complexity",
		Complexity:  4, Coupling: [3]float64{1, 1, 1},
		Modes: []string{"emergence"},
	},
	"emergent": {
		Description: "strong coupling feeding emergence",
		Complexity:  5, Coupling: [3]float64{1.5, 1.5, 1.5},
		Modes: []string{"emergence"},
	},
	"feedback-lock": {
		Description: "all pairs locked at maximum coupling",
		Complexity:  6, Coupling: [3]float64{2, 2, 2},
		Modes: []string{"feedback"},
	},
	"cascade": {
		Description: "energy flowing up a weakening chain",
		Complexity:  5, Coupling: [3]float64{1.8, 1.2, 0.6},
		Modes: []string{"energy"},
	},
}

// GetPreset returns the defaults overlaid with the named preset.
func GetPreset(name string) (*Config, error) {
	p, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", dynamo.ErrUnknownPreset, name)
	}
	cfg := DefaultConfig()
	p.Apply(cfg)
	return cfg, nil
}

// Apply copies the preset parameters onto cfg.
func (p Preset) Apply(cfg *Config) {
	cfg.Complexity = p.Complexity
	cfg.Coupling = p.Coupling
	cfg.Modes = append([]string(nil), p.Modes...)
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
