// Package laser holds laser-beam entities and the per-atom, beam-indexed
// sample arrays the optical force stages read.
//
// Every beam of a kind ([CoolingLight] or [DipoleLight]) is given a slot in
// [0, BeamLimit) each step by the index stages. Atoms carry fixed-size
// [PerBeam] arrays whose slot i belongs to the beam holding index i. The
// arrays are attached once, when the atom is first seen as NewlyCreated,
// and overwritten in place every step.
//
// Stage graph registered by [AddStages]:
//
//	attach_laser_components
//	attach_cooling_index -> index_cooling_lights
//	attach_dipole_index  -> index_dipole_lights
//	initialise_laser_sampler_masks -> fill_laser_sampler_masks (also after index_cooling_lights)
//	sample_laser_intensity     (after index_cooling_lights)
//	sample_intensity_gradient  (after index_dipole_lights)
package laser
