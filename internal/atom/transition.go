package atom

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/atomsim/internal/constant"
	"github.com/san-kum/atomsim/internal/dynamo"
)

// AtomicTransition describes the cooling transition of an atom.
type AtomicTransition struct {
	// MuPlus is the sigma+ Zeeman coefficient in J/T: the transition shifts by
	// MuPlus*|B|/h Hz.
	MuPlus float64 `yaml:"mu_plus"`
	// MuMinus is the sigma- Zeeman coefficient in J/T.
	MuMinus float64 `yaml:"mu_minus"`
	// MuPi is the pi Zeeman coefficient in J/T.
	MuPi float64 `yaml:"mu_pi"`
	// Frequency of the transition, Hz.
	Frequency float64 `yaml:"frequency"`
	// Linewidth of the transition, Hz.
	Linewidth float64 `yaml:"linewidth"`
	// SaturationIntensity in W/m^2.
	SaturationIntensity float64 `yaml:"saturation_intensity"`
}

// Rubidium returns the Rb-87 D2 cycling transition (Steck).
func Rubidium() AtomicTransition {
	return AtomicTransition{
		MuPlus:              constant.BohrMagneton,
		MuMinus:             -constant.BohrMagneton,
		Frequency:           constant.C / 780.0e-9,
		Linewidth:           6.065e6,
		SaturationIntensity: 16.69,
	}
}

// Strontium returns the Sr-88 461 nm transition (Nosske 2017).
func Strontium() AtomicTransition {
	return AtomicTransition{
		MuPlus:              constant.BohrMagneton,
		MuMinus:             -constant.BohrMagneton,
		Frequency:           650759219088937.0,
		Linewidth:           32e6,
		SaturationIntensity: 430.0,
	}
}

// Erbium returns the Er 583 nm narrow-line transition.
func Erbium() AtomicTransition {
	return AtomicTransition{
		MuPlus:              constant.BohrMagneton,
		MuMinus:             -constant.BohrMagneton,
		Frequency:           5.142e14,
		Linewidth:           190e3,
		SaturationIntensity: 0.13,
	}
}

// Erbium401 returns the Er 401 nm broad transition.
func Erbium401() AtomicTransition {
	return AtomicTransition{
		MuPlus:              1.1372 * constant.BohrMagneton,
		MuMinus:             -1.1372 * constant.BohrMagneton,
		Frequency:           7.476e14,
		Linewidth:           30e6,
		SaturationIntensity: 56.0,
	}
}

var species = map[string]func() AtomicTransition{
	"rubidium":   Rubidium,
	"strontium":  Strontium,
	"erbium":     Erbium,
	"erbium_401": Erbium401,
}

// Species returns the named transition preset.
func Species(name string) (AtomicTransition, error) {
	fn, ok := species[name]
	if !ok {
		return AtomicTransition{}, fmt.Errorf("unknown species: %s (available: %v)", name, SpeciesNames())
	}
	return fn(), nil
}

// SpeciesNames lists the available transition presets in sorted order.
func SpeciesNames() []string {
	names := make([]string, 0, len(species))
	for name := range species {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Gamma returns the angular linewidth 2π·Linewidth in rad/s.
func (t AtomicTransition) Gamma() float64 {
	return t.Linewidth * 2.0 * math.Pi
}

// AngularFrequency returns 2π·Frequency in rad/s.
func (t AtomicTransition) AngularFrequency() float64 {
	return t.Frequency * 2.0 * math.Pi
}

// Wavenumber returns the magnitude of the resonant wavevector, 1/m.
func (t AtomicTransition) Wavenumber() float64 {
	return t.AngularFrequency() / constant.C
}

// Validate reports configuration errors that would otherwise surface as
// divisions by zero inside the rate equations.
func (t AtomicTransition) Validate(entity string) error {
	if !(t.Linewidth > 0) || math.IsInf(t.Linewidth, 0) {
		return &dynamo.ConfigError{Entity: entity, Param: "linewidth", Value: t.Linewidth, Err: dynamo.ErrZeroLinewidth}
	}
	if !(t.SaturationIntensity > 0) || math.IsInf(t.SaturationIntensity, 0) {
		return &dynamo.ConfigError{Entity: entity, Param: "saturation_intensity", Value: t.SaturationIntensity, Err: dynamo.ErrNonPositiveSaturation}
	}
	if !(t.Frequency > 0) || math.IsInf(t.Frequency, 0) {
		return &dynamo.ConfigError{Entity: entity, Param: "frequency", Value: t.Frequency, Err: dynamo.ErrParameterBounds}
	}
	return nil
}
