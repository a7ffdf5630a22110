package sim

import (
	"math/rand/v2"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/config"
	"github.com/san-kum/atomsim/internal/cooling"
	"github.com/san-kum/atomsim/internal/dipole"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
	"github.com/san-kum/atomsim/internal/magnetic"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distuv"
)

// spawnStream keeps initial conditions independent of the per-atom streams.
const spawnStream = 0x5eed

func spawn(w *ecs.World, cfg *config.Config) error {
	tr, err := cfg.CoolingTransition()
	if err != nil {
		return err
	}
	dtr, err := cfg.DipoleTransition()
	if err != nil {
		return err
	}

	for _, bc := range cfg.CoolingBeams {
		e := w.CreateEntity()
		ecs.Insert(w, e, laser.CoolingLightFromDetuning(tr.Frequency, bc.Detuning, bc.Polarization))
		ecs.Insert(w, e, laser.NewGaussianBeam(bc.Intersection.R3(), bc.Direction.R3(), bc.Power, bc.ERadius, 0))
		if bc.MaskRadius > 0 {
			ecs.Insert(w, e, laser.CircularMask{Radius: bc.MaskRadius})
		}
	}
	for _, bc := range cfg.DipoleBeams {
		e := w.CreateEntity()
		var zr float64
		if bc.Focused {
			zr = laser.RayleighRange(bc.Wavelength, bc.ERadius)
		}
		ecs.Insert(w, e, laser.DipoleLight{Wavelength: bc.Wavelength})
		ecs.Insert(w, e, laser.NewGaussianBeam(bc.Intersection.R3(), bc.Direction.R3(), bc.Power, bc.ERadius, zr))
	}

	if !cfg.Field.Uniform.IsZero() {
		ecs.Insert(w, w.CreateEntity(), magnetic.UniformField{Field: cfg.Field.Uniform.R3()})
	}
	if q := cfg.Field.Quadrupole; q != nil {
		ecs.Insert(w, w.CreateEntity(), magnetic.NewQuadrupoleField(q.Centre.R3(), q.Axis.R3(), q.Gradient))
	}

	src := rand.NewPCG(cfg.Seed, spawnStream)
	a := cfg.Atoms
	withDipole := len(cfg.DipoleBeams) > 0
	for i := 0; i < a.Count; i++ {
		e := w.CreateEntity()
		ecs.Insert(w, e, atom.Atom{})
		ecs.Insert(w, e, atom.NewlyCreated{})
		ecs.Insert(w, e, atom.Position{Pos: gaussian(src, a.Position, a.PositionSpread)})
		ecs.Insert(w, e, atom.Velocity{Vel: gaussian(src, a.Velocity, a.VelocitySpread)})
		ecs.Insert(w, e, atom.Mass{Value: a.Mass})
		ecs.Insert(w, e, atom.Force{})
		ecs.Insert(w, e, atom.OldForce{})
		ecs.Insert(w, e, tr)
		ecs.Insert(w, e, atom.NewRandomSource(cfg.Seed, e))
		if withDipole {
			ecs.Insert(w, e, dipole.Transition{AtomicTransition: dtr})
		}
		if a.DepumpProbability > 0 {
			ecs.Insert(w, e, cooling.RepumpLoss{DepumpProbability: a.DepumpProbability})
		}
	}
	return nil
}

func gaussian(src rand.Source, mean, spread config.Vec3) r3.Vec {
	var out [3]float64
	for i := range out {
		out[i] = mean[i]
		if spread[i] > 0 {
			out[i] = distuv.Normal{Mu: mean[i], Sigma: spread[i], Src: src}.Rand()
		}
	}
	return r3.Vec{X: out[0], Y: out[1], Z: out[2]}
}
