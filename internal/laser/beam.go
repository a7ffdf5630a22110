package laser

import (
	"math"

	"github.com/san-kum/atomsim/internal/constant"
)

// BeamLimit is the maximum number of beams of one kind in a simulation.
const BeamLimit = 16

// Polarization handedness of a cooling beam relative to its propagation
// direction.
const (
	SigmaPlus  = 1
	SigmaMinus = -1
)

// CoolingLight marks a beam as near-resonant cooling light.
type CoolingLight struct {
	// Polarization is SigmaPlus or SigmaMinus.
	Polarization int
	// Wavelength in metres.
	Wavelength float64
}

// CoolingLightFromDetuning builds a cooling beam detuned by detuning Hz from
// a transition of frequency f0 Hz.
func CoolingLightFromDetuning(f0, detuning float64, polarization int) CoolingLight {
	return CoolingLight{
		Polarization: polarization,
		Wavelength:   constant.C / (f0 + detuning),
	}
}

// Frequency in Hz.
func (c CoolingLight) Frequency() float64 { return constant.C / c.Wavelength }

// AngularFrequency in rad/s.
func (c CoolingLight) AngularFrequency() float64 { return 2 * math.Pi * c.Frequency() }

// Wavenumber is |k| in 1/m.
func (c CoolingLight) Wavenumber() float64 { return 2 * math.Pi / c.Wavelength }

// DipoleLight marks a beam as far-detuned trapping light.
type DipoleLight struct {
	// Wavelength in metres.
	Wavelength float64
}

// Frequency in Hz.
func (d DipoleLight) Frequency() float64 { return constant.C / d.Wavelength }

// AngularFrequency in rad/s.
func (d DipoleLight) AngularFrequency() float64 { return 2 * math.Pi * d.Frequency() }
