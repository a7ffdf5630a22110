package cooling

import (
	"context"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/constant"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
	"github.com/san-kum/atomsim/internal/magnetic"
	"github.com/san-kum/atomsim/internal/pipeline"
	"gonum.org/v1/gonum/spatial/r3"
)

const atomChunk = 256

// EffectiveMoment returns the Zeeman coefficient seen by light travelling
// along dir with handedness polarization, in a field along fieldDir.
// The sigma+/sigma-/pi weights follow from projecting the light's
// polarization onto the field quantisation axis.
func EffectiveMoment(tr atom.AtomicTransition, dir, fieldDir r3.Vec, polarization int) float64 {
	c := r3.Dot(r3.Unit(dir), fieldDir)
	p := float64(polarization)
	wPlus := (1 + p*c) / 2
	wMinus := (1 - p*c) / 2
	wPi := (1 - c*c) / 2
	return wPlus*wPlus*tr.MuPlus + wMinus*wMinus*tr.MuMinus + wPi*tr.MuPi
}

// Detuning returns the angular detuning of beam b for an atom of transition
// tr moving at vel in field.
func Detuning(tr atom.AtomicTransition, b laser.Beam[laser.CoolingLight], vel r3.Vec, field magnetic.FieldSampler) float64 {
	k := r3.Scale(b.Light.Wavenumber(), b.Gaussian.Direction)
	delta := b.Light.AngularFrequency() - tr.AngularFrequency() - r3.Dot(k, vel)
	if field.Usable() {
		mu := EffectiveMoment(tr, b.Gaussian.Direction, field.Direction(), b.Light.Polarization)
		delta -= mu * field.Magnitude / constant.HBar
	}
	return delta
}

// CalculateDetuning fills DetuningSamplers for every live slot and zeroes
// the rest. Atoms without a FieldSampler see no Zeeman shift.
func CalculateDetuning() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		beams := laser.CoolingBeams(w)
		velocities := ecs.Storage[atom.Velocity](w)
		transitions := ecs.Storage[atom.AtomicTransition](w)
		masks := ecs.Storage[laser.SamplerMasks](w)
		detunings := ecs.Storage[laser.DetuningSamplers](w)
		fields := ecs.Storage[magnetic.FieldSampler](w)

		ents := w.Query().
			With(velocities).
			With(transitions).
			With(masks).
			With(detunings).
			Without(ecs.Storage[Dark](w)).
			Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				vel, _ := velocities.Value(e)
				tr, _ := transitions.Value(e)
				mask, _ := masks.Value(e)
				field, _ := fields.Value(e)
				d, _ := detunings.Get(e)
				d.Fill(0)
				for _, b := range beams {
					if !mask.Contents[b.Slot] {
						continue
					}
					d.Contents[b.Slot] = Detuning(tr, b, vel.Vel, field)
				}
			}
		})
		return nil
	})
}
