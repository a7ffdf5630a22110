package cooling

import (
	"context"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
	"github.com/san-kum/atomsim/internal/pipeline"
)

// ExcitedPopulation is the steady-state excited fraction ΣR/(Γ+2ΣR),
// clamped to [0, 0.5].
func ExcitedPopulation(gamma, sumRates float64) float64 {
	if !(sumRates > 0) {
		return 0
	}
	rho := sumRates / (gamma + 2*sumRates)
	return min(max(rho, 0), 0.5)
}

func sumLive(mask laser.SamplerMasks, values *laser.PerBeam[float64]) float64 {
	var sum float64
	for i, live := range mask.Contents {
		if live {
			sum += values.Contents[i]
		}
	}
	return sum
}

// CalculateTwoLevelPopulation updates TwoLevelPopulation from the live
// rate coefficients.
func CalculateTwoLevelPopulation() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		transitions := ecs.Storage[atom.AtomicTransition](w)
		masks := ecs.Storage[laser.SamplerMasks](w)
		rates := ecs.Storage[laser.RateCoefficients](w)
		populations := ecs.Storage[laser.TwoLevelPopulation](w)

		ents := w.Query().
			With(transitions).
			With(masks).
			With(rates).
			With(populations).
			Without(ecs.Storage[Dark](w)).
			Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				tr, _ := transitions.Value(e)
				mask, _ := masks.Value(e)
				r, _ := rates.Get(e)
				pop, _ := populations.Get(e)
				pop.Excited = ExcitedPopulation(tr.Gamma(), sumLive(mask, &r.PerBeam))
			}
		})
		return nil
	})
}
