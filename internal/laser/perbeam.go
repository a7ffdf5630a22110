package laser

import "gonum.org/v1/gonum/spatial/r3"

// PerBeam is a fixed-capacity per-atom array with one slot per beam index.
// The zero value is the neutral value of every slot.
type PerBeam[T any] struct {
	Contents [BeamLimit]T
}

// Fill overwrites every slot with v.
func (p *PerBeam[T]) Fill(v T) {
	for i := range p.Contents {
		p.Contents[i] = v
	}
}

// SamplerMasks flags which cooling slots are backed by a live beam this step.
type SamplerMasks struct {
	PerBeam[bool]
}

// IntensitySamplers holds the cooling-beam intensity at the atom, W/m^2.
type IntensitySamplers struct {
	PerBeam[float64]
}

// GradientSamplers holds the dipole-beam intensity gradient at the atom, W/m^3.
type GradientSamplers struct {
	PerBeam[r3.Vec]
}

// DetuningSamplers holds the angular detuning seen by the atom from each
// cooling beam, rad/s.
type DetuningSamplers struct {
	PerBeam[float64]
}

// RateCoefficients holds the per-beam excitation rate, 1/s.
type RateCoefficients struct {
	PerBeam[float64]
}

// ExpectedPhotons holds the mean number of photons scattered from each beam
// this step.
type ExpectedPhotons struct {
	PerBeam[float64]
}

// ActualPhotons holds the sampled number of photons scattered from each
// beam this step.
type ActualPhotons struct {
	PerBeam[float64]
}

// TwoLevelPopulation is the steady-state excited fraction, in [0, 0.5].
type TwoLevelPopulation struct {
	Excited float64
}

// Ground returns the ground-state fraction.
func (p TwoLevelPopulation) Ground() float64 { return 1 - p.Excited }

// TotalPhotonsScattered counts photons scattered over the atom's lifetime.
type TotalPhotonsScattered struct {
	Total float64
}
