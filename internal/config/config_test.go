package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != DefaultModel {
		t.Errorf("expected model %s, got %s", DefaultModel, cfg.Model)
	}
	if cfg.HStart <= 0 {
		t.Error("hstart should be positive")
	}
	if cfg.EpsAbs <= 0 {
		t.Error("eps_abs should be positive")
	}
	if cfg.AY != 1 || cfg.ADydt != 0 {
		t.Errorf("default scaling should be pure y control, got a_y=%g a_dydt=%g", cfg.AY, cfg.ADydt)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Model = "robertson"
	cfg.Stepper = "msbdf"
	cfg.T1 = 100
	cfg.EpsRel = 1e-8
	cfg.InitState = []float64{1, 0, 0}
	cfg.Params = map[string]float64{"k1": 0.05}

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Model != "robertson" || got.Stepper != "msbdf" {
		t.Errorf("round trip lost run identity: %+v", got)
	}
	if got.T1 != 100 || got.EpsRel != 1e-8 {
		t.Errorf("round trip lost numbers: %+v", got)
	}
	if len(got.InitState) != 3 || got.InitState[0] != 1 {
		t.Errorf("round trip lost init state: %v", got.InitState)
	}
	if got.Params["k1"] != 0.05 {
		t.Errorf("round trip lost params: %v", got.Params)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	cfg := &Config{Model: "lorenz"}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Model != "lorenz" {
		t.Errorf("explicit field lost: %s", got.Model)
	}
	if got.Stepper != DefaultStepper {
		t.Errorf("missing field did not default: %s", got.Stepper)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("ODEIV_MODEL", "lorenz")
	t.Setenv("ODEIV_EPS_ABS", "1e-9")
	t.Setenv("ODEIV_INIT_STATE", "2,8,27")

	cfg := DefaultConfig()
	if err := FromEnv(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Model != "lorenz" {
		t.Errorf("model = %s", cfg.Model)
	}
	if cfg.EpsAbs != 1e-9 {
		t.Errorf("eps_abs = %g", cfg.EpsAbs)
	}
	if len(cfg.InitState) != 3 || cfg.InitState[2] != 27 {
		t.Errorf("init_state = %v", cfg.InitState)
	}
	if cfg.Stepper != DefaultStepper {
		t.Errorf("unset variable clobbered stepper: %s", cfg.Stepper)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("vanderpol", "stiff")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Stepper != "bsimp" {
		t.Errorf("expected bsimp, got %s", cfg.Stepper)
	}
	if cfg.Params["mu"] != 1000 {
		t.Errorf("expected mu 1000, got %f", cfg.Params["mu"])
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("vanderpol", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "stiff"); cfg != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	if presets := ListPresets("vanderpol"); len(presets) != 3 {
		t.Errorf("expected 3 vanderpol presets, got %d", len(presets))
	}
	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestPresetsNameRealModels(t *testing.T) {
	for model, presets := range Presets {
		for name, cfg := range presets {
			if cfg.Model != model {
				t.Errorf("preset %s/%s declares model %q", model, name, cfg.Model)
			}
			if cfg.T1 <= cfg.T0 {
				t.Errorf("preset %s/%s has empty window", model, name)
			}
		}
	}
}
