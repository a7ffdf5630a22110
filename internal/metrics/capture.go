package metrics

import (
	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// CaptureFraction is the fraction of atoms within Radius of the centre and
// slower than MaxSpeed.
type CaptureFraction struct {
	centre   r3.Vec
	radius   float64
	maxSpeed float64
	value    float64
}

func NewCaptureFraction(centre r3.Vec, radius, maxSpeed float64) *CaptureFraction {
	return &CaptureFraction{centre: centre, radius: radius, maxSpeed: maxSpeed}
}

func (c *CaptureFraction) Name() string { return "capture_fraction" }

func (c *CaptureFraction) Observe(w *ecs.World, _ float64) {
	positions := ecs.Storage[atom.Position](w)
	velocities := ecs.Storage[atom.Velocity](w)
	ents := w.Query().With(ecs.Storage[atom.Atom](w)).With(positions).With(velocities).Execute()
	if len(ents) == 0 {
		c.value = 0
		return
	}

	captured := 0
	for _, e := range ents {
		p, _ := positions.Value(e)
		v, _ := velocities.Value(e)
		if r3.Norm(r3.Sub(p.Pos, c.centre)) <= c.radius && r3.Norm(v.Vel) <= c.maxSpeed {
			captured++
		}
	}
	c.value = float64(captured) / float64(len(ents))
}

func (c *CaptureFraction) Value() float64 { return c.value }

func (c *CaptureFraction) Reset() { c.value = 0 }
