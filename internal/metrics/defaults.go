package metrics

import (
	"github.com/san-kum/atomsim/internal/config"
	"github.com/san-kum/atomsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

// Defaults returns a fresh set of the standard run metrics.
func Defaults(cfg *config.Config) []sim.Metric {
	return []sim.Metric{
		NewTemperature(),
		NewScatteringRate(),
		NewCaptureFraction(r3.Vec{}, cfg.Capture.Radius, cfg.Capture.MaxSpeed),
		NewDarkFraction(),
	}
}
