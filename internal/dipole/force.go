// Package dipole applies the conservative optical dipole force of
// far-detuned beams.
package dipole

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/constant"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
	"github.com/san-kum/atomsim/internal/pipeline"
	"gonum.org/v1/gonum/spatial/r3"
)

const ApplyForceStage = "apply_dipole_force"

// Transition is the strong transition that dominates an atom's
// polarizability at the trapping wavelength. It may differ from the
// cooling transition.
type Transition struct {
	atom.AtomicTransition
}

func RegisterComponents(w *ecs.World) {
	ecs.Register[Transition](w)
}

// Coefficient returns the factor c with F = c·∇I for light of angular
// frequency omega. U = −c·I, so red-detuned light attracts atoms to high
// intensity.
func Coefficient(tr atom.AtomicTransition, omega float64) (float64, error) {
	w0 := tr.AngularFrequency()
	if w0 == omega {
		return 0, dynamo.ErrDegenerateDipole
	}
	prefactor := 3 * math.Pi * constant.C * constant.C / (2 * w0 * w0 * w0) * tr.Gamma()
	return prefactor * (1/(w0-omega) + 1/(w0+omega)), nil
}

// Force returns the dipole force from one beam's intensity gradient.
func Force(tr atom.AtomicTransition, light laser.DipoleLight, gradient r3.Vec) (r3.Vec, error) {
	c, err := Coefficient(tr, light.AngularFrequency())
	if err != nil {
		return r3.Vec{}, err
	}
	return r3.Scale(c, gradient), nil
}

// ApplyForce adds the dipole force of every live dipole beam.
func ApplyForce() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		beams := laser.DipoleBeams(w)
		if len(beams) == 0 {
			return nil
		}
		transitions := ecs.Storage[Transition](w)
		gradients := ecs.Storage[laser.GradientSamplers](w)
		forces := ecs.Storage[atom.Force](w)

		// Coefficients depend only on transition and beam; atoms mostly
		// share a species, so resolve them once per distinct transition.
		coeffs := make(map[atom.AtomicTransition][]float64)
		ents := w.Query().With(transitions).With(gradients).With(forces).Execute()
		for _, e := range ents {
			tr, _ := transitions.Value(e)
			if _, ok := coeffs[tr.AtomicTransition]; ok {
				continue
			}
			cs := make([]float64, len(beams))
			for i, b := range beams {
				c, err := Coefficient(tr.AtomicTransition, b.Light.AngularFrequency())
				if err != nil {
					return &dynamo.ConfigError{
						Entity: fmt.Sprintf("dipole beam %d", b.Entity),
						Param:  "wavelength",
						Value:  b.Light.Wavelength,
						Err:    err,
					}
				}
				cs[i] = c
			}
			coeffs[tr.AtomicTransition] = cs
		}

		dynamo.ParallelFor(len(ents), 256, func(start, end int) {
			for _, e := range ents[start:end] {
				tr, _ := transitions.Value(e)
				cs := coeffs[tr.AtomicTransition]
				g, _ := gradients.Value(e)
				f, _ := forces.Get(e)
				for i, b := range beams {
					f.Force = r3.Add(f.Force, r3.Scale(cs[i], g.Contents[b.Slot]))
				}
			}
		})
		return nil
	})
}

// AddStages registers the dipole force stage after the gradient sampler
// and after every stage named in after.
func AddStages(b *pipeline.Builder, after ...string) {
	deps := append([]string{laser.SampleGradientStage}, after...)
	b.Add(ApplyForceStage, ApplyForce(), deps...)
}
