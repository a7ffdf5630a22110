package laser

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Geometry is the beam-profile model sampled at atom positions. Both
// methods are pure functions of the position and the beam's parameters.
type Geometry interface {
	IntensityAt(pos r3.Vec) float64
	GradientAt(pos r3.Vec) r3.Vec
}

// GaussianBeam is a Gaussian beam profile.
type GaussianBeam struct {
	// Intersection is a point on the beam axis, at the focus, in metres.
	Intersection r3.Vec
	// Direction of propagation, unit vector.
	Direction r3.Vec
	// Power in watts.
	Power float64
	// ERadius is the 1/e intensity radius at the focus, in metres.
	ERadius float64
	// RayleighRange in metres; zero or infinite means collimated.
	RayleighRange float64
}

var _ Geometry = GaussianBeam{}

// RayleighRange of a beam of the given wavelength and 1/e radius.
func RayleighRange(wavelength, eRadius float64) float64 {
	return 2 * math.Pi * eRadius * eRadius / wavelength
}

// NewGaussianBeam returns a beam with a normalised direction.
func NewGaussianBeam(intersection, direction r3.Vec, power, eRadius, rayleighRange float64) GaussianBeam {
	return GaussianBeam{
		Intersection:  intersection,
		Direction:     r3.Unit(direction),
		Power:         power,
		ERadius:       eRadius,
		RayleighRange: rayleighRange,
	}
}

func (g GaussianBeam) collimated() bool {
	return g.RayleighRange <= 0 || math.IsInf(g.RayleighRange, 1)
}

// frame returns the axial distance, the radial offset and the squared
// spot radius at pos.
func (g GaussianBeam) frame(pos r3.Vec) (z float64, radial r3.Vec, w2 float64) {
	d := r3.Sub(pos, g.Intersection)
	z = r3.Dot(d, g.Direction)
	radial = r3.Sub(d, r3.Scale(z, g.Direction))
	w2 = g.ERadius * g.ERadius
	if !g.collimated() {
		w2 *= 1 + (z/g.RayleighRange)*(z/g.RayleighRange)
	}
	return z, radial, w2
}

// IntensityAt returns the intensity in W/m^2 at pos.
func (g GaussianBeam) IntensityAt(pos r3.Vec) float64 {
	if g.Power <= 0 || g.ERadius <= 0 {
		return 0
	}
	_, radial, w2 := g.frame(pos)
	r2 := r3.Dot(radial, radial)
	return g.Power / (math.Pi * w2) * math.Exp(-r2/w2)
}

// GradientAt returns the intensity gradient in W/m^3 at pos.
func (g GaussianBeam) GradientAt(pos r3.Vec) r3.Vec {
	if g.Power <= 0 || g.ERadius <= 0 {
		return r3.Vec{}
	}
	z, radial, w2 := g.frame(pos)
	r2 := r3.Dot(radial, radial)
	intensity := g.Power / (math.Pi * w2) * math.Exp(-r2/w2)

	grad := r3.Scale(-2*intensity/w2, radial)
	if !g.collimated() {
		zr2 := g.RayleighRange * g.RayleighRange
		dw2dz := 2 * g.ERadius * g.ERadius * z / zr2
		axial := intensity * dw2dz / w2 * (r2/w2 - 1)
		grad = r3.Add(grad, r3.Scale(axial, g.Direction))
	}
	return grad
}

// CircularMask blanks a beam inside Radius of its axis, as produced by a
// mirror with a central hole.
type CircularMask struct {
	Radius float64
}

// Blocks reports whether pos lies in the shadow of the mask on beam g.
func (m CircularMask) Blocks(g GaussianBeam, pos r3.Vec) bool {
	_, radial, _ := g.frame(pos)
	return r3.Norm(radial) < m.Radius
}
