// Package cooling computes the scattering force of near-resonant cooling
// beams on two-level atoms.
//
// Per step, for every atom and every live cooling slot, the stages compute
// the detuning, the excitation rate, the excited-state population, the
// expected and sampled photon numbers, and finally add the absorption and
// spontaneous-emission momentum to the atom's Force. All quantities are
// angular (rad/s) unless a name says otherwise.
package cooling
