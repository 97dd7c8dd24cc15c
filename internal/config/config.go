package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel   = "vanderpol"
	DefaultStepper = "rkf45"
	DefaultControl = "y"
	DefaultHStart  = 1e-6
	DefaultEpsAbs  = 1e-6
	DefaultOutDir  = "runs"
)

// Config describes one integration run. A zero T0 and T1 mean the
// model's suggested window; an empty InitState means the model's
// default state.
type Config struct {
	Model   string `yaml:"model" env:"ODEIV_MODEL"`
	Stepper string `yaml:"stepper" env:"ODEIV_STEPPER"`
	Control string `yaml:"control" env:"ODEIV_CONTROL"`

	T0     float64 `yaml:"t0" env:"ODEIV_T0"`
	T1     float64 `yaml:"t1" env:"ODEIV_T1"`
	HStart float64 `yaml:"hstart" env:"ODEIV_HSTART"`
	HMin   float64 `yaml:"hmin" env:"ODEIV_HMIN"`
	HMax   float64 `yaml:"hmax" env:"ODEIV_HMAX"`
	NMax   uint64  `yaml:"nmax" env:"ODEIV_NMAX"`

	EpsAbs float64 `yaml:"eps_abs" env:"ODEIV_EPS_ABS"`
	EpsRel float64 `yaml:"eps_rel" env:"ODEIV_EPS_REL"`
	AY     float64 `yaml:"a_y"`
	ADydt  float64 `yaml:"a_dydt"`

	InitState []float64          `yaml:"init_state" env:"ODEIV_INIT_STATE" envSeparator:","`
	Params    map[string]float64 `yaml:"params"`

	OutDir string `yaml:"out_dir" env:"ODEIV_OUT_DIR"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:   DefaultModel,
		Stepper: DefaultStepper,
		Control: DefaultControl,
		HStart:  DefaultHStart,
		EpsAbs:  DefaultEpsAbs,
		EpsRel:  0.0,
		AY:      1.0,
		ADydt:   0.0,
		OutDir:  DefaultOutDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// FromEnv overlays ODEIV_* environment variables onto cfg. Unset
// variables leave the corresponding fields untouched.
func FromEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
