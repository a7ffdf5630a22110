package sim

import (
	"time"

	"github.com/san-kum/atomsim/internal/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// Metric reduces the world to one number at each sample point.
type Metric interface {
	Name() string
	Observe(w *ecs.World, t float64)
	Value() float64
	Reset()
}

// Observer receives the metric values at each sample point.
type Observer interface {
	OnSample(step int, t float64, values map[string]float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(step int, t float64, values map[string]float64)

func (f ObserverFunc) OnSample(step int, t float64, values map[string]float64) { f(step, t, values) }

// AtomState is a snapshot of one atom.
type AtomState struct {
	ID       uint64
	Position r3.Vec
	Velocity r3.Vec
	Photons  float64
	Dark     bool
}

type Result struct {
	Seed       uint64
	StepsTaken int
	Times      []float64
	// Series holds every metric's value at each entry of Times.
	Series  map[string][]float64
	Metrics map[string]float64
	Atoms   []AtomState
	Elapsed time.Duration
}
