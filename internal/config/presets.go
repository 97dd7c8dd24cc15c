package config

import (
	"maps"
	"slices"
	"sort"
)

// Presets are ready-made run setups per model. They carry only the
// fields that differ from DefaultConfig.
var Presets = map[string]map[string]*Config{
	"vanderpol": {
		"classic": {
			Model: "vanderpol", Stepper: "rk8pd", T1: 100,
			HStart: 1e-6, EpsAbs: 1e-6,
		},
		"stiff": {
			Model: "vanderpol", Stepper: "bsimp", T1: 30,
			HStart: 1e-6, EpsAbs: 1e-8,
			Params: map[string]float64{"mu": 1000},
		},
		"gentle": {
			Model: "vanderpol", Stepper: "rkf45", T1: 30,
			HStart: 1e-6, EpsAbs: 1e-8,
			Params: map[string]float64{"mu": 1},
		},
	},
	"robertson": {
		"short": {
			Model: "robertson", Stepper: "msbdf", T1: 1,
			HStart: 1e-8, EpsAbs: 1e-10, EpsRel: 1e-8,
		},
		"long": {
			Model: "robertson", Stepper: "msbdf", T1: 1e4,
			HStart: 1e-8, EpsAbs: 1e-10, EpsRel: 1e-8,
		},
	},
	"lorenz": {
		"butterfly": {
			Model: "lorenz", Stepper: "rkf45", T1: 50,
			HStart: 1e-6, EpsAbs: 1e-8, EpsRel: 1e-8,
		},
	},
	"oscillator": {
		"tight": {
			Model: "oscillator", Stepper: "rk8pd", T1: 100,
			HStart: 1e-4, EpsAbs: 1e-12, EpsRel: 1e-12,
		},
	},
	"pendulum": {
		"small": {
			Model: "pendulum", Stepper: "rkf45", T1: 20,
			HStart: 1e-4, EpsAbs: 1e-8,
			InitState: []float64{0.2, 0},
		},
		"large": {
			Model: "pendulum", Stepper: "rkf45", T1: 20,
			HStart: 1e-4, EpsAbs: 1e-8,
			InitState: []float64{3.0, 0},
		},
	},
	"brusselator": {
		"cycle": {
			Model: "brusselator", Stepper: "msadams", T1: 40,
			HStart: 1e-6, EpsAbs: 1e-8, EpsRel: 1e-8,
		},
	},
	"decay": {
		"quick": {
			Model: "decay", Stepper: "rk4", T1: 5,
			HStart: 1e-4, EpsAbs: 1e-10,
		},
	},
}

// GetPreset returns a copy of the named preset completed with
// DefaultConfig values for fields it leaves unset, or nil if the
// model or preset is unknown.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	p, ok := modelPresets[preset]
	if !ok {
		return nil
	}

	cfg := *p
	if cfg.Control == "" {
		cfg.Control = DefaultControl
	}
	if cfg.HStart == 0 {
		cfg.HStart = DefaultHStart
	}
	if cfg.EpsAbs == 0 {
		cfg.EpsAbs = DefaultEpsAbs
	}
	if cfg.AY == 0 {
		cfg.AY = 1.0
	}
	if cfg.OutDir == "" {
		cfg.OutDir = DefaultOutDir
	}
	cfg.Params = maps.Clone(p.Params)
	cfg.InitState = slices.Clone(p.InitState)
	return &cfg
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
