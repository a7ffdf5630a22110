package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/integrators"
	"github.com/san-kum/atomsim/internal/laser"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt         = 1e-6
	DefaultSteps      = 5000
	DefaultSpecies    = "rubidium"
	DefaultIntegrator = "verlet"
	DefaultAtoms      = 100
	DefaultThreshold  = 5
)

// Vec3 is a vector written as a YAML flow sequence, [x, y, z].
type Vec3 [3]float64

func (v Vec3) R3() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// IsZero lets yaml omit unset vectors.
func (v Vec3) IsZero() bool { return v == Vec3{} }

type Config struct {
	Name       string  `yaml:"name,omitempty"`
	Integrator string  `yaml:"integrator"`
	Dt         float64 `yaml:"dt"`
	Steps      int     `yaml:"steps"`
	Seed       uint64  `yaml:"seed"`
	Workers    int     `yaml:"workers,omitempty"`

	// Species names an atom.Species preset; Transition overrides it.
	Species    string                 `yaml:"species"`
	Transition *atom.AtomicTransition `yaml:"transition,omitempty"`
	// DipoleSpecies names the transition used for dipole forces. Empty
	// means the cooling transition.
	DipoleSpecies string `yaml:"dipole_species,omitempty"`

	Scattering   ScatteringConfig    `yaml:"scattering"`
	Atoms        AtomsConfig         `yaml:"atoms"`
	CoolingBeams []CoolingBeamConfig `yaml:"cooling_beams,omitempty"`
	DipoleBeams  []DipoleBeamConfig  `yaml:"dipole_beams,omitempty"`
	Field        FieldConfig         `yaml:"field"`
	Capture      CaptureConfig       `yaml:"capture"`
}

type ScatteringConfig struct {
	Fluctuations      bool `yaml:"fluctuations"`
	Emission          bool `yaml:"emission"`
	ExplicitThreshold int  `yaml:"explicit_threshold"`
}

type AtomsConfig struct {
	Count int `yaml:"count"`
	// Mass in amu.
	Mass           float64 `yaml:"mass"`
	Position       Vec3    `yaml:"position,flow"`
	PositionSpread Vec3    `yaml:"position_spread,flow"`
	Velocity       Vec3    `yaml:"velocity,flow"`
	VelocitySpread Vec3    `yaml:"velocity_spread,flow"`
	// DepumpProbability per scattered photon; zero disables repump loss.
	DepumpProbability float64 `yaml:"depump_probability,omitempty"`
}

type CoolingBeamConfig struct {
	// Detuning from the transition, Hz.
	Detuning     float64 `yaml:"detuning"`
	Polarization int     `yaml:"polarization"`
	Direction    Vec3    `yaml:"direction,flow"`
	Intersection Vec3    `yaml:"intersection,flow,omitempty"`
	Power        float64 `yaml:"power"`
	ERadius      float64 `yaml:"e_radius"`
	// MaskRadius blanks the beam centre; zero means no mask.
	MaskRadius float64 `yaml:"mask_radius,omitempty"`
}

type DipoleBeamConfig struct {
	Wavelength   float64 `yaml:"wavelength"`
	Direction    Vec3    `yaml:"direction,flow"`
	Intersection Vec3    `yaml:"intersection,flow,omitempty"`
	Power        float64 `yaml:"power"`
	ERadius      float64 `yaml:"e_radius"`
	// Focused beams diverge with the Rayleigh range of their waist.
	Focused bool `yaml:"focused"`
}

type FieldConfig struct {
	Uniform    Vec3              `yaml:"uniform,flow,omitempty"`
	Quadrupole *QuadrupoleConfig `yaml:"quadrupole,omitempty"`
}

type QuadrupoleConfig struct {
	Centre Vec3 `yaml:"centre,flow,omitempty"`
	Axis   Vec3 `yaml:"axis,flow"`
	// Gradient in T/m.
	Gradient float64 `yaml:"gradient"`
}

// CaptureConfig defines the region counted as captured by the capture
// fraction metric.
type CaptureConfig struct {
	Radius   float64 `yaml:"radius"`
	MaxSpeed float64 `yaml:"max_speed"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: DefaultIntegrator,
		Dt:         DefaultDt,
		Steps:      DefaultSteps,
		Seed:       1,
		Species:    DefaultSpecies,
		Scattering: ScatteringConfig{
			Fluctuations:      true,
			Emission:          true,
			ExplicitThreshold: DefaultThreshold,
		},
		Atoms: AtomsConfig{
			Count:          DefaultAtoms,
			Mass:           87,
			PositionSpread: Vec3{1e-3, 1e-3, 1e-3},
			VelocitySpread: Vec3{0.1, 0.1, 0.1},
		},
		Capture: CaptureConfig{Radius: 5e-3, MaxSpeed: 1},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Transition != nil {
		tr := *c.Transition
		out.Transition = &tr
	}
	out.CoolingBeams = append([]CoolingBeamConfig(nil), c.CoolingBeams...)
	out.DipoleBeams = append([]DipoleBeamConfig(nil), c.DipoleBeams...)
	if c.Field.Quadrupole != nil {
		q := *c.Field.Quadrupole
		out.Field.Quadrupole = &q
	}
	return &out
}

// RunConfig returns the run settings of the configuration.
func (c *Config) RunConfig() dynamo.RunConfig {
	rc := dynamo.DefaultRunConfig()
	rc.Dt = c.Dt
	rc.Steps = c.Steps
	rc.Seed = c.Seed
	if c.Workers > 0 {
		rc.Workers = c.Workers
	}
	return rc
}

// CoolingTransition resolves the transition of the cooled atoms.
func (c *Config) CoolingTransition() (atom.AtomicTransition, error) {
	if c.Transition != nil {
		return *c.Transition, nil
	}
	return atom.Species(c.Species)
}

// DipoleTransition resolves the transition used for dipole forces.
func (c *Config) DipoleTransition() (atom.AtomicTransition, error) {
	if c.DipoleSpecies == "" {
		return c.CoolingTransition()
	}
	return atom.Species(c.DipoleSpecies)
}

// Validate reports the first configuration error, before any step runs.
func (c *Config) Validate() error {
	if err := c.RunConfig().Validate(); err != nil {
		return err
	}
	if _, err := integrators.New(c.Integrator); err != nil {
		return err
	}

	tr, err := c.CoolingTransition()
	if err != nil {
		return err
	}
	if err := tr.Validate("transition " + c.Species); err != nil {
		return err
	}
	dtr, err := c.DipoleTransition()
	if err != nil {
		return err
	}
	if err := dtr.Validate("dipole transition"); err != nil {
		return err
	}

	if err := c.validateAtoms(); err != nil {
		return err
	}
	if err := c.validateCooling(); err != nil {
		return err
	}
	if err := c.validateDipole(dtr); err != nil {
		return err
	}
	if q := c.Field.Quadrupole; q != nil && q.Axis.IsZero() {
		return &dynamo.ConfigError{Entity: "quadrupole", Param: "axis", Err: dynamo.ErrParameterBounds}
	}
	if c.Scattering.ExplicitThreshold < 0 {
		return &dynamo.ConfigError{Entity: "scattering", Param: "explicit_threshold",
			Value: float64(c.Scattering.ExplicitThreshold), Err: dynamo.ErrParameterBounds}
	}
	return nil
}

func (c *Config) validateAtoms() error {
	a := c.Atoms
	if a.Count < 0 {
		return &dynamo.ConfigError{Entity: "atoms", Param: "count", Value: float64(a.Count), Err: dynamo.ErrParameterBounds}
	}
	if !(a.Mass > 0) {
		return &dynamo.ConfigError{Entity: "atoms", Param: "mass", Value: a.Mass, Err: dynamo.ErrParameterBounds}
	}
	if a.DepumpProbability < 0 || a.DepumpProbability > 1 || math.IsNaN(a.DepumpProbability) {
		return &dynamo.ConfigError{Entity: "atoms", Param: "depump_probability", Value: a.DepumpProbability, Err: dynamo.ErrParameterBounds}
	}
	return nil
}

func (c *Config) validateCooling() error {
	if n := len(c.CoolingBeams); n > laser.BeamLimit {
		return &dynamo.ConfigError{Entity: "cooling beams", Param: "count", Value: float64(n), Err: dynamo.ErrBeamOverflow}
	}
	for i, b := range c.CoolingBeams {
		entity := fmt.Sprintf("cooling beam %d", i)
		if b.Polarization != laser.SigmaPlus && b.Polarization != laser.SigmaMinus {
			return &dynamo.ConfigError{Entity: entity, Param: "polarization", Value: float64(b.Polarization), Err: dynamo.ErrParameterBounds}
		}
		if err := validateBeam(entity, b.Direction, b.Power, b.ERadius); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateDipole(tr atom.AtomicTransition) error {
	if n := len(c.DipoleBeams); n > laser.BeamLimit {
		return &dynamo.ConfigError{Entity: "dipole beams", Param: "count", Value: float64(n), Err: dynamo.ErrBeamOverflow}
	}
	for i, b := range c.DipoleBeams {
		entity := fmt.Sprintf("dipole beam %d", i)
		if !(b.Wavelength > 0) {
			return &dynamo.ConfigError{Entity: entity, Param: "wavelength", Value: b.Wavelength, Err: dynamo.ErrParameterBounds}
		}
		light := laser.DipoleLight{Wavelength: b.Wavelength}
		if light.AngularFrequency() == tr.AngularFrequency() {
			return &dynamo.ConfigError{Entity: entity, Param: "wavelength", Value: b.Wavelength, Err: dynamo.ErrDegenerateDipole}
		}
		if err := validateBeam(entity, b.Direction, b.Power, b.ERadius); err != nil {
			return err
		}
	}
	return nil
}

func validateBeam(entity string, dir Vec3, power, eRadius float64) error {
	if dir.IsZero() {
		return &dynamo.ConfigError{Entity: entity, Param: "direction", Err: dynamo.ErrParameterBounds}
	}
	if power < 0 || math.IsNaN(power) {
		return &dynamo.ConfigError{Entity: entity, Param: "power", Value: power, Err: dynamo.ErrParameterBounds}
	}
	if !(eRadius > 0) {
		return &dynamo.ConfigError{Entity: entity, Param: "e_radius", Value: eRadius, Err: dynamo.ErrParameterBounds}
	}
	return nil
}
