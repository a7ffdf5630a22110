package cooling

import (
	"context"
	"math"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
	"github.com/san-kum/atomsim/internal/pipeline"
)

// RepumpLoss gives an atom a chance of decaying to a state the cooling
// light does not address, per scattered photon.
type RepumpLoss struct {
	DepumpProbability float64
}

// DarkProbability is the chance that at least one of n photons depumps.
func (r RepumpLoss) DarkProbability(n float64) float64 {
	if !(n > 0) || !(r.DepumpProbability > 0) {
		return 0
	}
	return 1 - math.Pow(1-min(r.DepumpProbability, 1), n)
}

// Dark marks an atom lost to a dark state. Dark atoms no longer scatter.
type Dark struct{}

// Repump decides, after photon sampling, which atoms went dark this step.
// A newly dark atom's photon counts are zeroed before any force is applied.
func Repump() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		losses := ecs.Storage[RepumpLoss](w)
		masks := ecs.Storage[laser.SamplerMasks](w)
		actual := ecs.Storage[laser.ActualPhotons](w)
		expected := ecs.Storage[laser.ExpectedPhotons](w)
		sources := ecs.Storage[atom.RandomSource](w)

		ents := w.Query().
			With(losses).
			With(masks).
			With(actual).
			With(sources).
			Without(ecs.Storage[Dark](w)).
			Execute()

		cmds := w.Commands()
		for _, e := range ents {
			loss, _ := losses.Value(e)
			mask, _ := masks.Value(e)
			n, _ := actual.Get(e)
			rs, _ := sources.Value(e)

			p := loss.DarkProbability(sumLive(mask, &n.PerBeam))
			if p == 0 || rs.Rand.Float64() >= p {
				continue
			}
			n.Fill(0)
			if exp, ok := expected.Get(e); ok {
				exp.Fill(0)
			}
			ecs.InsertLater(cmds, e, Dark{})
		}
		return nil
	})
}
