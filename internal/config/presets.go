package config

import (
	"sort"

	"github.com/san-kum/harmony/internal/dynamo"
)

type Preset struct {
	Description string
	Physics     dynamo.PhysicsPatch
	Waveform    dynamo.Waveform
	Universe    Universe
}

var Presets = map[string]Preset{
	"calm": {
		Description: "few heavy bodies drifting in thick air",
		Physics:     dynamo.PhysicsPatch{Gravity: dynamo.Float(2), AirResistance: dynamo.Float(0.05), Elasticity: dynamo.Float(0.6)},
		Waveform:    dynamo.WaveSine,
		Universe: Universe{Seed: 7, Random: Random{
			Count: 5, MinMass: 2, MaxMass: 5, MinRadius: 10, MaxRadius: 20, MaxSpeed: 10,
		}},
	},
	"rain": {
		Description: "many light drops falling and splashing",
		Physics:     dynamo.PhysicsPatch{Gravity: dynamo.Float(30), Friction: dynamo.Float(0.02), Elasticity: dynamo.Float(0.3)},
		Waveform:    dynamo.WaveTriangle,
		Universe: Universe{Seed: 11, Random: Random{
			Count: 60, MinMass: 0.1, MaxMass: 0.4, MinRadius: 2, MaxRadius: 4, MaxSpeed: 5,
		}},
	},
	"billiards": {
		Description: "no gravity, perfectly elastic table",
		Physics:     dynamo.PhysicsPatch{Gravity: dynamo.Float(0), Friction: dynamo.Float(0), AirResistance: dynamo.Float(0), Elasticity: dynamo.Float(1)},
		Waveform:    dynamo.WaveSquare,
		Universe: Universe{Seed: 3, Random: Random{
			Count: 16, MinMass: 1, MaxMass: 1, MinRadius: 12, MaxRadius: 12, MaxSpeed: 120,
		}},
	},
	"storm": {
		Description: "fast, bouncy and loud",
		Physics:     dynamo.PhysicsPatch{Gravity: dynamo.Float(15), Friction: dynamo.Float(0), Elasticity: dynamo.Float(0.95), TimeScale: dynamo.Float(1.5)},
		Waveform:    dynamo.WaveSaw,
		Universe: Universe{Seed: 42, Random: Random{
			Count: 30, MinMass: 0.5, MaxMass: 2, MinRadius: 4, MaxRadius: 10, MaxSpeed: 200,
		}},
	},
}

// GetPreset returns the default config with the named preset applied, or
// nil if no such preset exists.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	physics, err := cfg.Physics.Apply(p.Physics)
	if err != nil {
		return nil
	}
	cfg.Physics = physics
	cfg.Audio.Waveform = p.Waveform
	cfg.Universe = p.Universe
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
