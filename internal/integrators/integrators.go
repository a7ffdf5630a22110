// Package integrators advances atom positions and velocities from the
// force accumulated by the optical stages.
package integrators

import (
	"fmt"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
)

const (
	IntegratePositionStage = "integrate_position"
	IntegrateVelocityStage = "integrate_velocity"
)

const chunk = 256

// Integrator splits one time step into a position stage that runs before
// any force is sampled and a velocity stage that runs after all forces.
type Integrator interface {
	Name() string
	Position() pipeline.Stage
	Velocity() pipeline.Stage
}

var registry = map[string]func() Integrator{
	"verlet": func() Integrator { return NewVerlet() },
	"euler":  func() Integrator { return NewEuler() },
}

// New returns the integrator with the given name.
func New(name string) (Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

// AddStages registers the position stage after every stage in
// positionAfter and the velocity stage after every stage in forceStages.
// Stages that can abort a step belong in positionAfter, so an aborted step
// leaves positions untouched.
func AddStages(b *pipeline.Builder, in Integrator, positionAfter []string, forceStages ...string) {
	b.Add(IntegratePositionStage, in.Position(), positionAfter...)
	b.Add(IntegrateVelocityStage, in.Velocity(), forceStages...)
}

type kinematics struct {
	positions  *ecs.Store[atom.Position]
	velocities *ecs.Store[atom.Velocity]
	masses     *ecs.Store[atom.Mass]
	forces     *ecs.Store[atom.Force]
}

func kinematicsOf(w *ecs.World) kinematics {
	return kinematics{
		positions:  ecs.Storage[atom.Position](w),
		velocities: ecs.Storage[atom.Velocity](w),
		masses:     ecs.Storage[atom.Mass](w),
		forces:     ecs.Storage[atom.Force](w),
	}
}

func (k kinematics) query(w *ecs.World) []ecs.Entity {
	return w.Query().
		With(k.positions).
		With(k.velocities).
		With(k.masses).
		With(k.forces).
		Execute()
}

func timestep(w *ecs.World) (float64, error) {
	ts, ok := ecs.GetResource[dynamo.Timestep](w)
	if !ok || !(ts.Dt > 0) {
		return 0, fmt.Errorf("integrator: dt=%g: %w", ts.Dt, dynamo.ErrInvalidTimestep)
	}
	return ts.Dt, nil
}
