package laser

import (
	"context"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
)

// AttachComponents gives each newly created atom its per-beam arrays and
// scattering bookkeeping. Components an atom already carries are left
// untouched, so the attach happens once per atom.
func AttachComponents() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		fresh := ecs.Storage[atom.NewlyCreated](w)
		cmds := w.Commands()
		for _, e := range w.Query().With(fresh).Execute() {
			attachMissing[SamplerMasks](w, cmds, e)
			attachMissing[IntensitySamplers](w, cmds, e)
			attachMissing[GradientSamplers](w, cmds, e)
			attachMissing[DetuningSamplers](w, cmds, e)
			attachMissing[RateCoefficients](w, cmds, e)
			attachMissing[ExpectedPhotons](w, cmds, e)
			attachMissing[ActualPhotons](w, cmds, e)
			attachMissing[TwoLevelPopulation](w, cmds, e)
			attachMissing[TotalPhotonsScattered](w, cmds, e)
		}
		return nil
	})
}

func attachMissing[T any](w *ecs.World, cmds *ecs.Commands, e ecs.Entity) {
	if ecs.Storage[T](w).Has(e) {
		return
	}
	var zero T
	ecs.InsertLater(cmds, e, zero)
}
