package cooling_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/constant"
	"github.com/san-kum/atomsim/internal/cooling"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
	"github.com/san-kum/atomsim/internal/magnetic"
	"github.com/san-kum/atomsim/internal/pipeline"
)

const dt = 1e-6

type bench struct {
	world      *ecs.World
	dispatcher *pipeline.Dispatcher
}

func newBench(opts cooling.Options) *bench {
	w := ecs.NewWorld()
	atom.RegisterComponents(w)
	laser.RegisterComponents(w)
	magnetic.RegisterComponents(w)
	cooling.RegisterComponents(w)
	ecs.SetResource(w, dynamo.Timestep{Dt: dt})
	ecs.SetResource(w, opts)

	b := pipeline.NewBuilder()
	laser.AddStages(b, "")
	magnetic.AddStages(b, "")
	atom.AddStages(b,
		[]string{laser.IndexCoolingStage, laser.IndexDipoleStage},
		[]string{cooling.EmissionStage})
	cooling.AddStages(b, magnetic.MagnitudeStage, atom.ClearForceStage)
	d, err := b.Build()
	Expect(err).NotTo(HaveOccurred())
	return &bench{world: w, dispatcher: d}
}

func (b *bench) step(n int) {
	for i := 0; i < n; i++ {
		ecs.SetResource(b.world, dynamo.Timestep{Dt: dt, Index: uint64(i)})
		Expect(b.dispatcher.Dispatch(context.Background(), b.world)).To(Succeed())
	}
}

func (b *bench) beam(dir r3.Vec, detuning float64, power float64) ecs.Entity {
	e := b.world.CreateEntity()
	tr := atom.Rubidium()
	ecs.Insert(b.world, e, laser.CoolingLightFromDetuning(tr.Frequency, detuning, laser.SigmaPlus))
	ecs.Insert(b.world, e, laser.NewGaussianBeam(r3.Vec{}, dir, power, 0.01, 0))
	return e
}

func (b *bench) atom(seed uint64, vel r3.Vec) ecs.Entity {
	w := b.world
	e := w.CreateEntity()
	ecs.Insert(w, e, atom.Atom{})
	ecs.Insert(w, e, atom.NewlyCreated{})
	ecs.Insert(w, e, atom.Position{})
	ecs.Insert(w, e, atom.Velocity{Vel: vel})
	ecs.Insert(w, e, atom.Force{Force: r3.Vec{X: 1, Y: 1, Z: 1}})
	ecs.Insert(w, e, atom.Rubidium())
	ecs.Insert(w, e, atom.NewRandomSource(seed, e))
	return e
}

func force(w *ecs.World, e ecs.Entity) r3.Vec {
	f, ok := ecs.Storage[atom.Force](w).Value(e)
	Expect(ok).To(BeTrue())
	return f.Force
}

var _ = Describe("Two-level population", func() {
	It("stays within [0, 0.5] for any rates", func() {
		gamma := atom.Rubidium().Gamma()
		for _, s := range []float64{0, 1e-6, 0.1, 1, 10, 1e3, 1e9} {
			for _, delta := range []float64{-1e9, -gamma, 0, gamma / 2, 1e9} {
				r := cooling.RateCoefficient(gamma, s, s, delta)
				rho := cooling.ExcitedPopulation(gamma, r)
				Expect(rho).To(BeNumerically(">=", 0))
				Expect(rho).To(BeNumerically("<=", 0.5))
			}
		}
		Expect(cooling.ExcitedPopulation(gamma, math.NaN())).To(BeZero())
		Expect(cooling.ExcitedPopulation(gamma, 1e30)).To(BeNumerically("~", 0.5, 1e-9))
	})

	It("gives one sixth excited for a single saturating beam on resonance", func() {
		gamma := 2 * math.Pi * 6e6
		r := cooling.RateCoefficient(gamma, 1, 1, 0)
		Expect(r).To(BeNumerically("~", gamma/4, 1e-6))
		Expect(cooling.ExcitedPopulation(gamma, r)).To(BeNumerically("~", 1.0/6, 1e-12))
	})
})

var _ = Describe("Zeeman weighting", func() {
	tr := atom.AtomicTransition{MuPlus: 1, MuMinus: -2, MuPi: 4}

	DescribeTable("projects polarization onto the field axis",
		func(dir r3.Vec, pol int, want float64) {
			Expect(cooling.EffectiveMoment(tr, dir, r3.Vec{Z: 1}, pol)).To(BeNumerically("~", want, 1e-12))
		},
		Entry("sigma+ along field", r3.Vec{Z: 1}, laser.SigmaPlus, 1.0),
		Entry("sigma+ against field", r3.Vec{Z: -1}, laser.SigmaPlus, -2.0),
		Entry("sigma- along field", r3.Vec{Z: 1}, laser.SigmaMinus, -2.0),
		Entry("perpendicular", r3.Vec{X: 1}, laser.SigmaPlus, 0.25-0.5+2.0),
	)

	It("ignores a vanishing or non-finite field", func() {
		b := laser.Beam[laser.CoolingLight]{
			Light:    laser.CoolingLight{Polarization: laser.SigmaPlus, Wavelength: 780e-9},
			Gaussian: laser.NewGaussianBeam(r3.Vec{}, r3.Vec{Z: 1}, 1, 1, 0),
		}
		tr := atom.Rubidium()
		base := cooling.Detuning(tr, b, r3.Vec{}, magnetic.FieldSampler{})
		nan := magnetic.FieldSampler{Field: r3.Vec{Z: math.NaN()}, Magnitude: math.NaN()}
		Expect(cooling.Detuning(tr, b, r3.Vec{}, nan)).To(Equal(base))
		Expect(math.IsNaN(base)).To(BeFalse())

		field := magnetic.FieldSampler{Field: r3.Vec{Z: 1e-4}, Magnitude: 1e-4}
		shifted := cooling.Detuning(tr, b, r3.Vec{}, field)
		Expect(base - shifted).To(BeNumerically("~", tr.MuPlus*1e-4/constant.HBar, 1e-6*math.Abs(base-shifted)))
	})

	It("includes the Doppler shift", func() {
		light := laser.CoolingLight{Polarization: laser.SigmaPlus, Wavelength: 780e-9}
		b := laser.Beam[laser.CoolingLight]{
			Light:    light,
			Gaussian: laser.NewGaussianBeam(r3.Vec{}, r3.Vec{X: 1}, 1, 1, 0),
		}
		tr := atom.Rubidium()
		rest := cooling.Detuning(tr, b, r3.Vec{}, magnetic.FieldSampler{})
		moving := cooling.Detuning(tr, b, r3.Vec{X: 10}, magnetic.FieldSampler{})
		Expect(rest - moving).To(BeNumerically("~", 10*light.Wavenumber(), 1e-6*10*light.Wavenumber()))
	})
})

var _ = Describe("Scattering pipeline", func() {
	It("applies no force without beams", func() {
		b := newBench(cooling.DefaultOptions())
		e := b.atom(1, r3.Vec{X: 3})
		b.step(3)
		Expect(force(b.world, e)).To(Equal(r3.Vec{}))
	})

	It("matches the closed-form scattering force without noise", func() {
		b := newBench(cooling.Options{Fluctuations: false, Emission: false})
		tr := atom.Rubidium()
		detuning := -tr.Linewidth
		beam := b.beam(r3.Vec{X: 1}, detuning, 0.01)
		e := b.atom(1, r3.Vec{})
		b.step(1)

		light, _ := ecs.Storage[laser.CoolingLight](b.world).Value(beam)
		gamma := tr.Gamma()
		s := 0.01 / (math.Pi * 0.01 * 0.01) / tr.SaturationIntensity
		delta := light.AngularFrequency() - tr.AngularFrequency()
		r := cooling.RateCoefficient(gamma, s, s, delta)
		rho := r / (gamma + 2*r)
		want := gamma * rho * constant.HBar * light.Wavenumber()

		got := force(b.world, e)
		Expect(got.X).To(BeNumerically("~", want, 1e-9*want))
		Expect(got.Y).To(BeZero())
		Expect(got.Z).To(BeZero())

		total, _ := ecs.Storage[laser.TotalPhotonsScattered](b.world).Value(e)
		Expect(total.Total).To(BeNumerically("~", gamma*rho*dt, 1e-9*gamma*rho*dt))
	})

	It("zeroes slots of despawned beams", func() {
		b := newBench(cooling.Options{})
		first := b.beam(r3.Vec{X: 1}, -6e6, 0.01)
		b.beam(r3.Vec{X: -1}, -6e6, 0.01)
		e := b.atom(1, r3.Vec{})
		b.step(1)

		b.world.Despawn(first)
		b.step(1)
		rates, _ := ecs.Storage[laser.RateCoefficients](b.world).Value(e)
		Expect(rates.Contents[0]).To(BeNumerically(">", 0))
		Expect(rates.Contents[1]).To(BeZero())
	})

	It("reproduces trajectories for a fixed seed", func() {
		run := func(seed uint64) (r3.Vec, float64) {
			b := newBench(cooling.DefaultOptions())
			b.beam(r3.Vec{X: 1}, -6e6, 0.05)
			b.beam(r3.Vec{X: -1}, -6e6, 0.05)
			e := b.atom(seed, r3.Vec{X: 2})
			b.step(20)
			total, _ := ecs.Storage[laser.TotalPhotonsScattered](b.world).Value(e)
			return force(b.world, e), total.Total
		}
		f1, n1 := run(7)
		f2, n2 := run(7)
		Expect(f1).To(Equal(f2))
		Expect(n1).To(Equal(n2))
		Expect(n1).To(BeNumerically(">", 0))
	})

	It("stops scattering once an atom is depumped", func() {
		b := newBench(cooling.DefaultOptions())
		b.beam(r3.Vec{X: 1}, 0, 1)
		e := b.atom(3, r3.Vec{})
		ecs.Insert(b.world, e, cooling.RepumpLoss{DepumpProbability: 1})

		for i := 0; i < 50 && !ecs.Storage[cooling.Dark](b.world).Has(e); i++ {
			b.step(1)
		}
		Expect(ecs.Storage[cooling.Dark](b.world).Has(e)).To(BeTrue())
		before, _ := ecs.Storage[laser.TotalPhotonsScattered](b.world).Value(e)

		b.step(2)
		Expect(force(b.world, e)).To(Equal(r3.Vec{}))
		after, _ := ecs.Storage[laser.TotalPhotonsScattered](b.world).Value(e)
		Expect(after.Total).To(Equal(before.Total))
	})
})

var _ = Describe("Emission recoil", func() {
	It("gives a single photon exactly one kick", func() {
		rs := atom.NewRandomSource(1, 1)
		p := cooling.EmissionMomentum(1, 2.5, 5, rs)
		Expect(r3.Norm(p)).To(BeNumerically("~", 2.5, 1e-12))
	})

	It("has mean squared momentum N kick² in the random-walk regime", func() {
		rs := atom.NewRandomSource(2, 1)
		const n, draws = 1000.0, 4000
		var sum float64
		for i := 0; i < draws; i++ {
			p := cooling.EmissionMomentum(n, 1, 5, rs)
			sum += r3.Dot(p, p)
		}
		Expect(sum / draws / n).To(BeNumerically("~", 1, 0.1))
	})

	It("draws a single photon from the random walk when the threshold is zero", func() {
		p := cooling.EmissionMomentum(1, 2.5, 0, atom.NewRandomSource(1, 1))
		Expect(r3.Norm(p)).NotTo(BeNumerically("~", 2.5, 1e-9))
		Expect(cooling.EmissionMomentum(0, 2.5, 0, atom.NewRandomSource(1, 1))).To(Equal(r3.Vec{}))
	})

	It("returns zero momentum for zero photons", func() {
		Expect(cooling.EmissionMomentum(0, 1, 5, atom.NewRandomSource(1, 1))).To(Equal(r3.Vec{}))
	})

	It("reports DarkProbability from the per-photon chance", func() {
		Expect(cooling.RepumpLoss{DepumpProbability: 0.1}.DarkProbability(2)).To(BeNumerically("~", 0.19, 1e-12))
		Expect(cooling.RepumpLoss{DepumpProbability: 0.1}.DarkProbability(0)).To(BeZero())
	})
})
