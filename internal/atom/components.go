package atom

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Position of an entity in metres.
type Position struct {
	Pos r3.Vec
}

func (p Position) String() string {
	return fmt.Sprintf("(%g,%g,%g)", p.Pos.X, p.Pos.Y, p.Pos.Z)
}

// Velocity of an entity in metres/second.
type Velocity struct {
	Vel r3.Vec
}

func (v Velocity) String() string {
	return fmt.Sprintf("(%g,%g,%g)", v.Vel.X, v.Vel.Y, v.Vel.Z)
}

// Mass in atomic mass units.
type Mass struct {
	Value float64
}

// Force acting on an entity this step, in newtons.
// Reset by the clear_force stage, accumulated into by force stages.
type Force struct {
	Force r3.Vec
}

// OldForce is the force of the previous step, kept for velocity Verlet.
type OldForce struct {
	Force r3.Vec
}

// Atom marks an entity as an atom, so stages can skip other massive bodies
// that share kinematic components.
type Atom struct{}

// NewlyCreated marks an entity created since the last completed step.
type NewlyCreated struct{}
