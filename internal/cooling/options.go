package cooling

import (
	"fmt"

	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
)

// Options is the world resource controlling the stochastic parts of the
// scattering model.
type Options struct {
	// Fluctuations samples photon numbers from a Poisson distribution.
	// When false the expected number is used directly.
	Fluctuations bool
	// Emission enables the spontaneous-emission recoil force.
	Emission bool
	// ExplicitThreshold is the photon count up to which emission kicks are
	// summed one by one; above it a Gaussian random walk is drawn. Zero
	// draws every nonzero count from the random walk.
	ExplicitThreshold int
}

func DefaultOptions() Options {
	return Options{Fluctuations: true, Emission: true, ExplicitThreshold: 5}
}

func optionsOf(w *ecs.World) Options {
	if o, ok := ecs.GetResource[Options](w); ok {
		return o
	}
	return DefaultOptions()
}

func timestepOf(w *ecs.World) (float64, error) {
	ts, ok := ecs.GetResource[dynamo.Timestep](w)
	if !ok || !(ts.Dt > 0) {
		return 0, fmt.Errorf("cooling: dt=%g: %w", ts.Dt, dynamo.ErrInvalidTimestep)
	}
	return ts.Dt, nil
}
