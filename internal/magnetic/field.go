// Package magnetic samples static magnetic fields at atom positions for the
// Zeeman shift of the cooling transition.
package magnetic

import (
	"math"

	"github.com/san-kum/atomsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// FieldSampler is the total field at an atom, in tesla.
type FieldSampler struct {
	Field     r3.Vec
	Magnitude float64
}

// Direction returns the unit field vector, or the zero vector when the
// field vanishes or is not finite.
func (f FieldSampler) Direction() r3.Vec {
	if !f.Usable() {
		return r3.Vec{}
	}
	return r3.Scale(1/f.Magnitude, f.Field)
}

// Usable reports whether the sample can define a quantisation axis.
func (f FieldSampler) Usable() bool {
	return f.Magnitude > 0 && !math.IsInf(f.Magnitude, 0) && dynamo.IsFinite(f.Field)
}

// Source is a static field contribution.
type Source interface {
	FieldAt(pos r3.Vec) r3.Vec
}

// UniformField is a spatially constant bias field.
type UniformField struct {
	Field r3.Vec
}

func (u UniformField) FieldAt(r3.Vec) r3.Vec { return u.Field }

// QuadrupoleField is the field of an anti-Helmholtz pair,
// B = g·(Δ − 3(Δ·â)â) with Δ the offset from Centre and â the coil axis.
// Gradient is g in T/m; the axial gradient is −2g.
type QuadrupoleField struct {
	Centre    r3.Vec
	Direction r3.Vec
	Gradient  float64
}

// NewQuadrupoleField returns a quadrupole with a normalised axis.
func NewQuadrupoleField(centre, axis r3.Vec, gradient float64) QuadrupoleField {
	return QuadrupoleField{Centre: centre, Direction: r3.Unit(axis), Gradient: gradient}
}

func (q QuadrupoleField) FieldAt(pos r3.Vec) r3.Vec {
	d := r3.Sub(pos, q.Centre)
	axial := r3.Scale(3*r3.Dot(d, q.Direction), q.Direction)
	return r3.Scale(q.Gradient, r3.Sub(d, axial))
}

var (
	_ Source = UniformField{}
	_ Source = QuadrupoleField{}
)
