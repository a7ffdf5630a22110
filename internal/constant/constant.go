// Package constant holds the SI physical constants used across the
// simulation (CODATA 2018 values).
package constant

import "math"

const (
	// C is the speed of light in vacuum, m/s.
	C = 299792458.0
	// H is the Planck constant, J s.
	H = 6.62607015e-34
	// HBar is the reduced Planck constant, J s.
	HBar = H / (2 * math.Pi)
	// BohrMagneton is the Bohr magneton, J/T.
	BohrMagneton = 9.2740100783e-24
	// Boltzmann is the Boltzmann constant, J/K.
	Boltzmann = 1.380649e-23
	// AMU is the atomic mass unit, kg.
	AMU = 1.66053906660e-27
)
