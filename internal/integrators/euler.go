package integrators

import (
	"context"

	"github.com/san-kum/atomsim/internal/constant"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
	"gonum.org/v1/gonum/spatial/r3"
)

// Euler is the semi-implicit Euler method: x += v·dt, then v += F/m·dt
// with F evaluated at the new position.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Position() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		dt, err := timestep(w)
		if err != nil {
			return err
		}
		k := kinematicsOf(w)
		ents := k.query(w)
		dynamo.ParallelFor(len(ents), chunk, func(start, end int) {
			for _, id := range ents[start:end] {
				pos, _ := k.positions.Get(id)
				vel, _ := k.velocities.Value(id)
				pos.Pos = r3.Add(pos.Pos, r3.Scale(dt, vel.Vel))
			}
		})
		return nil
	})
}

func (e *Euler) Velocity() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		dt, err := timestep(w)
		if err != nil {
			return err
		}
		k := kinematicsOf(w)
		ents := k.query(w)
		dynamo.ParallelFor(len(ents), chunk, func(start, end int) {
			for _, id := range ents[start:end] {
				vel, _ := k.velocities.Get(id)
				m, _ := k.masses.Value(id)
				f, _ := k.forces.Value(id)
				vel.Vel = r3.Add(vel.Vel, r3.Scale(dt/(m.Value*constant.AMU), f.Force))
			}
		})
		return nil
	})
}
