package dynamo

import (
	"fmt"
	"math"
	"runtime"

	"gonum.org/v1/gonum/spatial/r3"
)

// Timestep is the world resource describing the step being dispatched.
type Timestep struct {
	Dt    float64
	Index uint64
}

// Time returns the simulated time at the start of the step.
func (t Timestep) Time() float64 { return float64(t.Index) * t.Dt }

// RunConfig holds the settings of a single simulation run.
type RunConfig struct {
	Dt            float64
	Steps         int
	Seed          uint64
	Workers       int
	ValidateState bool
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Dt:            1e-6,
		Steps:         5000,
		Seed:          1,
		Workers:       runtime.GOMAXPROCS(0),
		ValidateState: true,
	}
}

func (c RunConfig) Validate() error {
	if c.Dt <= 0 || math.IsNaN(c.Dt) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("dt=%g: %w", c.Dt, ErrInvalidTimestep)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d: %w", c.Steps, ErrParameterBounds)
	}
	return nil
}

// IsFinite reports whether every component of v is finite.
func IsFinite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
