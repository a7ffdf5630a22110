package dynamo

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestParallelForCoversRange(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		minChunk int
		workers  int
	}{
		{"serial", 10, 64, 4},
		{"single worker", 1000, 1, 1},
		{"even split", 1000, 10, 4},
		{"uneven split", 1003, 7, 6},
		{"empty", 0, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := Workers()
			SetWorkers(tt.workers)
			defer SetWorkers(prev)

			hits := make([]int32, tt.n)
			ParallelFor(tt.n, tt.minChunk, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times", i, h)
				}
			}
		})
	}
}

func TestSetWorkersClamps(t *testing.T) {
	prev := Workers()
	defer SetWorkers(prev)

	SetWorkers(0)
	if Workers() != 1 {
		t.Errorf("expected 1 worker, got %d", Workers())
	}
}

func TestRunConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  RunConfig
		want error
	}{
		{"default", DefaultRunConfig(), nil},
		{"zero dt", RunConfig{Dt: 0, Steps: 1}, ErrInvalidTimestep},
		{"nan dt", RunConfig{Dt: math.NaN(), Steps: 1}, ErrInvalidTimestep},
		{"no steps", RunConfig{Dt: 1e-6, Steps: 0}, ErrParameterBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestConfigErrorUnwrap(t *testing.T) {
	err := &ConfigError{Entity: "transition", Param: "linewidth", Value: 0, Err: ErrZeroLinewidth}
	if !errors.Is(err, ErrZeroLinewidth) {
		t.Error("expected ConfigError to unwrap to ErrZeroLinewidth")
	}
	if err.Error() != "transition: linewidth=0: dynamo: transition linewidth must be positive" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	step := &StepError{Step: 3, Time: 3e-6, Err: err}
	var cfgErr *ConfigError
	if !errors.As(step, &cfgErr) {
		t.Error("expected StepError to expose ConfigError")
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(r3.Vec{X: 1, Y: -2, Z: 3}) {
		t.Error("expected finite vector")
	}
	if IsFinite(r3.Vec{X: math.NaN()}) {
		t.Error("expected NaN to be non-finite")
	}
	if IsFinite(r3.Vec{Z: math.Inf(-1)}) {
		t.Error("expected Inf to be non-finite")
	}
}

func TestTimestepTime(t *testing.T) {
	ts := Timestep{Dt: 1e-6, Index: 10}
	if math.Abs(ts.Time()-1e-5) > 1e-18 {
		t.Errorf("expected 1e-5, got %g", ts.Time())
	}
}
