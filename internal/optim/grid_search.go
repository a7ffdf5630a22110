// Package optim sweeps configuration parameters over a grid and ranks the
// resulting runs by one metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/atomsim/internal/config"
	"github.com/san-kum/atomsim/internal/sim"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Setter applies one parameter value to a configuration.
type Setter func(cfg *config.Config, v float64)

// Parameters are the sweepable configuration values. Beam parameters apply
// to every beam of the kind.
var Parameters = map[string]Setter{
	"detuning": func(cfg *config.Config, v float64) {
		for i := range cfg.CoolingBeams {
			cfg.CoolingBeams[i].Detuning = v
		}
	},
	"power": func(cfg *config.Config, v float64) {
		for i := range cfg.CoolingBeams {
			cfg.CoolingBeams[i].Power = v
		}
	},
	"e_radius": func(cfg *config.Config, v float64) {
		for i := range cfg.CoolingBeams {
			cfg.CoolingBeams[i].ERadius = v
		}
	},
	"gradient": func(cfg *config.Config, v float64) {
		if cfg.Field.Quadrupole == nil {
			cfg.Field.Quadrupole = &config.QuadrupoleConfig{Axis: config.Vec3{0, 0, 1}}
		}
		cfg.Field.Quadrupole.Gradient = v
	},
	"dipole_power": func(cfg *config.Config, v float64) {
		for i := range cfg.DipoleBeams {
			cfg.DipoleBeams[i].Power = v
		}
	},
	"depump_probability": func(cfg *config.Config, v float64) {
		cfg.Atoms.DepumpProbability = v
	},
}

func ParameterNames() []string {
	names := make([]string, 0, len(Parameters))
	for name := range Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseRange reads "from:to:n" as n evenly spaced values, or a single
// number as a one-point range.
func ParseRange(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", s, err)
		}
		return []float64{v}, nil
	case 3:
		from, err1 := strconv.ParseFloat(parts[0], 64)
		to, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return nil, fmt.Errorf("invalid range %q: %w", s, err)
		}
		if n < 2 {
			return nil, fmt.Errorf("invalid range %q: need at least 2 points", s)
		}
		return floats.Span(make([]float64, n), from, to), nil
	}
	return nil, fmt.Errorf("invalid range %q: want from:to:n", s)
}

// Point is one evaluated grid point. Err is set when the run failed.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// RunFunc executes one configuration.
type RunFunc func(ctx context.Context, cfg *config.Config) (*sim.Result, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	parallel   int
	maximize   bool
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("grid search: %d parameters for %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := Parameters[name]; !ok {
			return nil, fmt.Errorf("unknown parameter: %s (available: %v)", name, ParameterNames())
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("grid search: empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, parallel: 1}, nil
}

// WithParallel bounds the number of runs in flight.
func (g *GridSearch) WithParallel(n int) *GridSearch {
	if n > 0 {
		g.parallel = n
	}
	return g
}

// Maximize ranks points by the largest metric value instead of the
// smallest.
func (g *GridSearch) Maximize() *GridSearch {
	g.maximize = true
	return g
}

// Points enumerates the grid, last parameter varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.enumerate(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	name := g.paramNames[depth]
	for _, v := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, cv := range current {
			next[k] = cv
		}
		next[name] = v
		g.enumerate(depth+1, next, out)
	}
}

// Search runs base at every grid point and returns the points in grid
// order with the best one. A failed run is recorded on its point and
// skipped when ranking; it is an error only if every run fails or ctx is
// cancelled.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string, run RunFunc) ([]Point, Point, error) {
	params := g.Points()
	points := make([]Point, len(params))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallel)
	for i, p := range params {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cfg := base.Clone()
			for name, v := range p {
				Parameters[name](cfg, v)
			}
			points[i].Params = p

			result, err := run(gctx, cfg)
			if err != nil {
				points[i].Err = err
				points[i].Value = math.NaN()
				return nil
			}
			v, ok := result.Metrics[metric]
			if !ok {
				points[i].Err = fmt.Errorf("run has no metric %q", metric)
				points[i].Value = math.NaN()
				return nil
			}
			points[i].Value = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return points, Point{}, err
	}

	best, found := Point{}, false
	for _, p := range points {
		if p.Err != nil || math.IsNaN(p.Value) {
			continue
		}
		if !found || (g.maximize && p.Value > best.Value) || (!g.maximize && p.Value < best.Value) {
			best, found = p, true
		}
	}
	if !found {
		return points, Point{}, fmt.Errorf("grid search: all %d runs failed: %w", len(points), points[0].Err)
	}
	return points, best, nil
}
