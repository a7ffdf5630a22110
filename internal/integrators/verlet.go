package integrators

import (
	"context"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/constant"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
	"gonum.org/v1/gonum/spatial/r3"
)

// Verlet is velocity Verlet split across the step: positions advance
// before any force is computed, velocities after all forces are summed.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Name() string { return "verlet" }

// Position advances x by v·dt + F_old/(2m)·dt² and stores the force of the
// finished step as OldForce.
func (v *Verlet) Position() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		dt, err := timestep(w)
		if err != nil {
			return err
		}
		k := kinematicsOf(w)
		olds := ecs.Storage[atom.OldForce](w)
		dt2 := dt * dt

		ents := k.query(w)
		dynamo.ParallelFor(len(ents), chunk, func(start, end int) {
			for _, e := range ents[start:end] {
				pos, _ := k.positions.Get(e)
				vel, _ := k.velocities.Value(e)
				m, _ := k.masses.Value(e)
				f, _ := k.forces.Value(e)
				mass := m.Value * constant.AMU

				pos.Pos = r3.Add(pos.Pos, r3.Add(
					r3.Scale(dt, vel.Vel),
					r3.Scale(dt2/(2*mass), f.Force),
				))
				if old, ok := olds.Get(e); ok {
					old.Force = f.Force
				}
			}
		})
		return nil
	})
}

// Velocity advances v by (F_old + F_new)/(2m)·dt.
func (v *Verlet) Velocity() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		dt, err := timestep(w)
		if err != nil {
			return err
		}
		k := kinematicsOf(w)
		olds := ecs.Storage[atom.OldForce](w)
		halfDt := 0.5 * dt

		ents := k.query(w)
		dynamo.ParallelFor(len(ents), chunk, func(start, end int) {
			for _, e := range ents[start:end] {
				vel, _ := k.velocities.Get(e)
				m, _ := k.masses.Value(e)
				f, _ := k.forces.Value(e)
				old, _ := olds.Value(e)
				mass := m.Value * constant.AMU

				sum := r3.Add(old.Force, f.Force)
				vel.Vel = r3.Add(vel.Vel, r3.Scale(halfDt/mass, sum))
			}
		})
		return nil
	})
}
