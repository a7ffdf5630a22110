package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/laser"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Integrator != "verlet" {
		t.Errorf("expected integrator verlet, got %s", cfg.Integrator)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Steps <= 0 {
		t.Error("steps should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			if cfg == nil {
				t.Fatal("expected preset, got nil")
			}
			if cfg.Name != name {
				t.Errorf("preset name %q", cfg.Name)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("invalid: %v", err)
			}
		})
	}
}

func TestGetPresetIsFresh(t *testing.T) {
	a := GetPreset("mot3d")
	a.CoolingBeams[0].Power = 99
	if b := GetPreset("mot3d"); b.CoolingBeams[0].Power == 99 {
		t.Error("presets share state")
	}
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mot.yaml")
	cfg := GetPreset("mot3d")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.CoolingBeams) != 6 || loaded.CoolingBeams[4].Direction != (Vec3{0, 0, 1}) {
		t.Errorf("beams not restored: %+v", loaded.CoolingBeams)
	}
	if loaded.Field.Quadrupole == nil || loaded.Field.Quadrupole.Gradient != 0.15 {
		t.Errorf("quadrupole not restored: %+v", loaded.Field)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
		param  string
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }, dynamo.ErrInvalidTimestep, ""},
		{"too many beams", func(c *Config) {
			c.CoolingBeams = make([]CoolingBeamConfig, laser.BeamLimit+1)
		}, dynamo.ErrBeamOverflow, "count"},
		{"bad polarization", func(c *Config) { c.CoolingBeams[0].Polarization = 0 }, dynamo.ErrParameterBounds, "polarization"},
		{"zero radius", func(c *Config) { c.CoolingBeams[0].ERadius = 0 }, dynamo.ErrParameterBounds, "e_radius"},
		{"zero linewidth", func(c *Config) {
			tr, _ := c.CoolingTransition()
			tr.Linewidth = 0
			c.Transition = &tr
		}, dynamo.ErrZeroLinewidth, "linewidth"},
		{"depump above one", func(c *Config) { c.Atoms.DepumpProbability = 2 }, dynamo.ErrParameterBounds, "depump_probability"},
		{"zero axis", func(c *Config) { c.Field.Quadrupole.Axis = Vec3{} }, dynamo.ErrParameterBounds, "axis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetPreset("mot3d")
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.param == "" {
				return
			}
			var cfgErr *dynamo.ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Param != tt.param {
				t.Errorf("expected config error on %s, got %v", tt.param, err)
			}
		})
	}
}

func TestUnknownSpeciesAndIntegrator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Species = "unobtainium"
	if cfg.Validate() == nil {
		t.Error("expected unknown species error")
	}
	cfg = DefaultConfig()
	cfg.Integrator = "rk4"
	if cfg.Validate() == nil {
		t.Error("expected unknown integrator error")
	}
}

func TestClone(t *testing.T) {
	cfg := GetPreset("mot3d")
	clone := cfg.Clone()
	clone.CoolingBeams[0].Detuning = 0
	clone.Field.Quadrupole.Gradient = 1

	if cfg.CoolingBeams[0].Detuning == 0 {
		t.Error("clone shares cooling beams")
	}
	if cfg.Field.Quadrupole.Gradient == 1 {
		t.Error("clone shares quadrupole")
	}
}
