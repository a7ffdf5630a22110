package cooling

import (
	"context"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
	"github.com/san-kum/atomsim/internal/pipeline"
)

// RateCoefficient returns the excitation rate from one beam of saturation
// parameter s at angular detuning delta, with sTotal the summed saturation
// of all live beams.
func RateCoefficient(gamma, s, sTotal, delta float64) float64 {
	x := 2 * delta / gamma
	return gamma / 2 * s / (1 + sTotal + x*x)
}

// CalculateRateCoefficients fills RateCoefficients for every live slot.
// Power broadening uses the saturation summed over the live slots only.
func CalculateRateCoefficients() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		transitions := ecs.Storage[atom.AtomicTransition](w)
		masks := ecs.Storage[laser.SamplerMasks](w)
		intensities := ecs.Storage[laser.IntensitySamplers](w)
		detunings := ecs.Storage[laser.DetuningSamplers](w)
		rates := ecs.Storage[laser.RateCoefficients](w)

		ents := w.Query().
			With(transitions).
			With(masks).
			With(intensities).
			With(detunings).
			With(rates).
			Without(ecs.Storage[Dark](w)).
			Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				tr, _ := transitions.Value(e)
				mask, _ := masks.Value(e)
				in, _ := intensities.Value(e)
				det, _ := detunings.Value(e)
				r, _ := rates.Get(e)
				r.Fill(0)

				gamma := tr.Gamma()
				var sTotal float64
				for i, live := range mask.Contents {
					if live {
						sTotal += in.Contents[i] / tr.SaturationIntensity
					}
				}
				for i, live := range mask.Contents {
					if live {
						s := in.Contents[i] / tr.SaturationIntensity
						r.Contents[i] = RateCoefficient(gamma, s, sTotal, det.Contents[i])
					}
				}
			}
		})
		return nil
	})
}
