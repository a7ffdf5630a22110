package config

import "sort"

// Presets are complete configurations for common experiments. Each call
// builds a fresh value, so callers may modify the result.
var Presets = map[string]func() *Config{
	"mot3d":       mot3d,
	"molasses1d":  molasses1d,
	"dipole_trap": dipoleTrap,
	"zeeman_push": zeemanPush,
}

// six beams along the coordinate axes, σ− on the transverse pairs and σ+
// along the coil axis.
func sixBeams(detuning, power, eRadius float64) []CoolingBeamConfig {
	beam := func(dir Vec3, pol int) CoolingBeamConfig {
		return CoolingBeamConfig{
			Detuning: detuning, Polarization: pol, Direction: dir,
			Power: power, ERadius: eRadius,
		}
	}
	return []CoolingBeamConfig{
		beam(Vec3{1, 0, 0}, -1), beam(Vec3{-1, 0, 0}, -1),
		beam(Vec3{0, 1, 0}, -1), beam(Vec3{0, -1, 0}, -1),
		beam(Vec3{0, 0, 1}, 1), beam(Vec3{0, 0, -1}, 1),
	}
}

func mot3d() *Config {
	cfg := DefaultConfig()
	cfg.Name = "mot3d"
	cfg.Steps = 10000
	cfg.Atoms.Count = 500
	cfg.Atoms.PositionSpread = Vec3{2e-3, 2e-3, 2e-3}
	cfg.Atoms.VelocitySpread = Vec3{2, 2, 2}
	cfg.CoolingBeams = sixBeams(-12e6, 0.02, 0.01)
	cfg.Field.Quadrupole = &QuadrupoleConfig{Axis: Vec3{0, 0, 1}, Gradient: 0.15}
	return cfg
}

func molasses1d() *Config {
	cfg := DefaultConfig()
	cfg.Name = "molasses1d"
	cfg.Steps = 20000
	cfg.Atoms.Count = 200
	cfg.Atoms.PositionSpread = Vec3{}
	cfg.Atoms.Velocity = Vec3{2, 0, 0}
	cfg.Atoms.VelocitySpread = Vec3{0.5, 0, 0}
	cfg.CoolingBeams = []CoolingBeamConfig{
		{Detuning: -3e6, Polarization: 1, Direction: Vec3{1, 0, 0}, Power: 0.01, ERadius: 0.01},
		{Detuning: -3e6, Polarization: 1, Direction: Vec3{-1, 0, 0}, Power: 0.01, ERadius: 0.01},
	}
	cfg.Capture = CaptureConfig{Radius: 1, MaxSpeed: 0.2}
	return cfg
}

func dipoleTrap() *Config {
	cfg := DefaultConfig()
	cfg.Name = "dipole_trap"
	cfg.Species = "strontium"
	cfg.Dt = 1e-5
	cfg.Steps = 5000
	cfg.Atoms.Count = 200
	cfg.Atoms.Mass = 88
	cfg.Atoms.PositionSpread = Vec3{5e-6, 5e-6, 5e-6}
	cfg.Atoms.VelocitySpread = Vec3{0.005, 0.005, 0.005}
	cfg.Scattering.Fluctuations = false
	cfg.DipoleBeams = []DipoleBeamConfig{
		{Wavelength: 1064e-9, Direction: Vec3{1, 0, 0}, Power: 10, ERadius: 60e-6, Focused: true},
	}
	cfg.Capture = CaptureConfig{Radius: 1e-4, MaxSpeed: 0.05}
	return cfg
}

func zeemanPush() *Config {
	cfg := DefaultConfig()
	cfg.Name = "zeeman_push"
	cfg.Steps = 5000
	cfg.Atoms.Count = 100
	cfg.Atoms.DepumpProbability = 1e-4
	cfg.CoolingBeams = []CoolingBeamConfig{
		{Detuning: -20e6, Polarization: 1, Direction: Vec3{0, 0, 1}, Power: 0.005, ERadius: 0.005},
	}
	cfg.Field.Uniform = Vec3{0, 0, 1e-3}
	cfg.Capture = CaptureConfig{Radius: 1, MaxSpeed: 100}
	return cfg
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
