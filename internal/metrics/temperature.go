// Package metrics reduces the atom cloud to scalar observables, and exports
// run telemetry to Prometheus.
package metrics

import (
	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/constant"
	"github.com/san-kum/atomsim/internal/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Temperature is the kinetic temperature of the cloud in kelvin,
// m⟨|v−⟨v⟩|²⟩/(3k_B), so bulk motion is excluded.
type Temperature struct {
	value float64
}

func NewTemperature() *Temperature { return &Temperature{} }

func (m *Temperature) Name() string { return "temperature" }

func (m *Temperature) Observe(w *ecs.World, _ float64) {
	velocities := ecs.Storage[atom.Velocity](w)
	masses := ecs.Storage[atom.Mass](w)
	ents := w.Query().With(ecs.Storage[atom.Atom](w)).With(velocities).With(masses).Execute()
	if len(ents) == 0 {
		m.value = 0
		return
	}

	var mean r3.Vec
	for _, e := range ents {
		v, _ := velocities.Value(e)
		mean = r3.Add(mean, v.Vel)
	}
	mean = r3.Scale(1/float64(len(ents)), mean)

	var energy float64
	for _, e := range ents {
		v, _ := velocities.Value(e)
		mass, _ := masses.Value(e)
		d := r3.Sub(v.Vel, mean)
		energy += mass.Value * constant.AMU * r3.Dot(d, d)
	}
	m.value = energy / float64(len(ents)) / (3 * constant.Boltzmann)
}

func (m *Temperature) Value() float64 { return m.value }

func (m *Temperature) Reset() { m.value = 0 }
