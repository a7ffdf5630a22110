package atom

import (
	"context"

	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ClearForceStage = "clear_force"
	DeflagStage     = "deflag_new_atoms"
)

// RegisterComponents registers the stores of this package.
func RegisterComponents(w *ecs.World) {
	ecs.Register[Position](w)
	ecs.Register[Velocity](w)
	ecs.Register[Mass](w)
	ecs.Register[Force](w)
	ecs.Register[OldForce](w)
	ecs.Register[Atom](w)
	ecs.Register[NewlyCreated](w)
	ecs.Register[AtomicTransition](w)
	ecs.Register[RandomSource](w)
}

// ClearForce sets force to zero at the start of each step's force
// accumulation.
func ClearForce() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		forces := ecs.Storage[Force](w)
		ents := w.Query().With(forces).Execute()
		dynamo.ParallelFor(len(ents), 256, func(start, end int) {
			for _, e := range ents[start:end] {
				f, _ := forces.Get(e)
				f.Force = r3.Vec{}
			}
		})
		return nil
	})
}

// DeflagNewAtoms removes the NewlyCreated marker once an atom has been
// through a full step.
func DeflagNewAtoms() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		cmds := w.Commands()
		for _, e := range ecs.Storage[NewlyCreated](w).Entities() {
			ecs.RemoveLater[NewlyCreated](cmds, e)
		}
		return nil
	})
}

// AddStages registers clear_force to run after clearAfter and the deflag
// stage to run after deflagAfter.
func AddStages(b *pipeline.Builder, clearAfter, deflagAfter []string) {
	b.Add(ClearForceStage, ClearForce(), clearAfter...)
	b.Add(DeflagStage, DeflagNewAtoms(), deflagAfter...)
}
