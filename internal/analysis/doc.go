// Package analysis characterises finished runs.
//
//   - [PhaseSpace]: per-axis position/velocity pairs of an atom snapshot
//     with their rms widths and emittance
//   - [PowerSpectrum]: one-sided power spectrum of a sampled metric, used to
//     find trap and breathing frequencies
//   - [PhasePortrait]: ASCII scatter of a phase space
//
// Oscillation in a harmonic trap shows up twice: the centre of mass at the
// trap frequency, the cloud width and temperature at twice it.
package analysis
