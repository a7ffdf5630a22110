package cooling

import (
	"context"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
	"github.com/san-kum/atomsim/internal/pipeline"
	"gonum.org/v1/gonum/stat/distuv"
)

// CalculateExpectedPhotons splits the Γ·ρ_ee·dt photons scattered this step
// between the live beams in proportion to their rate coefficients.
func CalculateExpectedPhotons() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		dt, err := timestepOf(w)
		if err != nil {
			return err
		}
		transitions := ecs.Storage[atom.AtomicTransition](w)
		masks := ecs.Storage[laser.SamplerMasks](w)
		rates := ecs.Storage[laser.RateCoefficients](w)
		populations := ecs.Storage[laser.TwoLevelPopulation](w)
		expected := ecs.Storage[laser.ExpectedPhotons](w)

		ents := w.Query().
			With(transitions).
			With(masks).
			With(rates).
			With(populations).
			With(expected).
			Without(ecs.Storage[Dark](w)).
			Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				tr, _ := transitions.Value(e)
				mask, _ := masks.Value(e)
				r, _ := rates.Get(e)
				pop, _ := populations.Value(e)
				n, _ := expected.Get(e)
				n.Fill(0)

				sum := sumLive(mask, &r.PerBeam)
				if !(sum > 0) {
					continue
				}
				total := tr.Gamma() * pop.Excited * dt
				for i, live := range mask.Contents {
					if live {
						n.Contents[i] = total * r.Contents[i] / sum
					}
				}
			}
		})
		return nil
	})
}

// CalculateActualPhotons samples the photon count of each live slot from a
// Poisson distribution on the atom's own random stream, and adds the total
// to TotalPhotonsScattered.
func CalculateActualPhotons() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		opts := optionsOf(w)
		masks := ecs.Storage[laser.SamplerMasks](w)
		expected := ecs.Storage[laser.ExpectedPhotons](w)
		actual := ecs.Storage[laser.ActualPhotons](w)
		totals := ecs.Storage[laser.TotalPhotonsScattered](w)
		sources := ecs.Storage[atom.RandomSource](w)

		ents := w.Query().
			With(masks).
			With(expected).
			With(actual).
			Without(ecs.Storage[Dark](w)).
			Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				mask, _ := masks.Value(e)
				exp, _ := expected.Get(e)
				act, _ := actual.Get(e)
				act.Fill(0)

				rs, hasSource := sources.Value(e)
				sample := opts.Fluctuations && hasSource
				var sum float64
				for i, live := range mask.Contents {
					if !live {
						continue
					}
					lambda := exp.Contents[i]
					n := lambda
					if sample {
						n = samplePoisson(lambda, rs)
					}
					act.Contents[i] = n
					sum += n
				}
				if t, ok := totals.Get(e); ok {
					t.Total += sum
				}
			}
		})
		return nil
	})
}

func samplePoisson(lambda float64, rs atom.RandomSource) float64 {
	if !(lambda > 0) {
		return 0
	}
	return distuv.Poisson{Lambda: lambda, Src: rs.Src}.Rand()
}
