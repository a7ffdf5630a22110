package cooling

import (
	"context"
	"math"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/constant"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
	"github.com/san-kum/atomsim/internal/pipeline"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// ApplyAbsorptionForce adds the momentum ħk of every absorbed photon,
// averaged over the step.
func ApplyAbsorptionForce() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		dt, err := timestepOf(w)
		if err != nil {
			return err
		}
		beams := laser.CoolingBeams(w)
		if len(beams) == 0 {
			return nil
		}
		masks := ecs.Storage[laser.SamplerMasks](w)
		actual := ecs.Storage[laser.ActualPhotons](w)
		forces := ecs.Storage[atom.Force](w)

		ents := w.Query().
			With(masks).
			With(actual).
			With(forces).
			Without(ecs.Storage[Dark](w)).
			Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				mask, _ := masks.Value(e)
				n, _ := actual.Get(e)
				f, _ := forces.Get(e)
				for _, b := range beams {
					if !mask.Contents[b.Slot] || n.Contents[b.Slot] == 0 {
						continue
					}
					p := constant.HBar * b.Light.Wavenumber() * n.Contents[b.Slot]
					f.Force = r3.Add(f.Force, r3.Scale(p/dt, b.Gaussian.Direction))
				}
			}
		})
		return nil
	})
}

// ApplyEmissionForce adds the recoil of spontaneously emitted photons.
// Up to Options.ExplicitThreshold photons each kick is drawn in a uniform
// random direction; above it, or for non-integral counts, the sum is drawn
// as a 3D Gaussian random walk with variance N/3 kicks² per axis.
func ApplyEmissionForce() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		opts := optionsOf(w)
		if !opts.Emission {
			return nil
		}
		dt, err := timestepOf(w)
		if err != nil {
			return err
		}
		transitions := ecs.Storage[atom.AtomicTransition](w)
		masks := ecs.Storage[laser.SamplerMasks](w)
		actual := ecs.Storage[laser.ActualPhotons](w)
		forces := ecs.Storage[atom.Force](w)
		sources := ecs.Storage[atom.RandomSource](w)

		ents := w.Query().
			With(transitions).
			With(masks).
			With(actual).
			With(forces).
			With(sources).
			Without(ecs.Storage[Dark](w)).
			Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				tr, _ := transitions.Value(e)
				mask, _ := masks.Value(e)
				n, _ := actual.Get(e)
				rs, _ := sources.Value(e)
				total := sumLive(mask, &n.PerBeam)
				if !(total > 0) {
					continue
				}
				kick := constant.HBar * tr.Wavenumber()
				p := EmissionMomentum(total, kick, opts.ExplicitThreshold, rs)
				f, _ := forces.Get(e)
				f.Force = r3.Add(f.Force, r3.Scale(1/dt, p))
			}
		})
		return nil
	})
}

// EmissionMomentum draws the total recoil momentum of n photons of
// momentum kick each.
func EmissionMomentum(n, kick float64, threshold int, rs atom.RandomSource) r3.Vec {
	if n > float64(threshold) || n != math.Trunc(n) {
		g := distuv.Normal{Mu: 0, Sigma: kick * math.Sqrt(n/3), Src: rs.Src}
		return r3.Vec{X: g.Rand(), Y: g.Rand(), Z: g.Rand()}
	}
	var p r3.Vec
	for i := 0; i < int(n); i++ {
		p = r3.Add(p, r3.Scale(kick, randomDirection(rs)))
	}
	return p
}

func randomDirection(rs atom.RandomSource) r3.Vec {
	cosTheta := 2*rs.Rand.Float64() - 1
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	phi := 2 * math.Pi * rs.Rand.Float64()
	return r3.Vec{X: sinTheta * math.Cos(phi), Y: sinTheta * math.Sin(phi), Z: cosTheta}
}
