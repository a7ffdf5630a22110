package sim

import (
	"context"
	"log/slog"
	"sort"

	"github.com/san-kum/atomsim/internal/config"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Ensemble repeats one configuration over consecutive seeds.
type Ensemble struct {
	cfg       *config.Config
	numRuns   int
	seedStart uint64
	parallel  int
	metrics   func() []Metric
	logger    *slog.Logger
}

// NewEnsemble prepares numRuns runs of cfg. metrics builds a fresh metric
// set for each run, since metrics hold per-run state.
func NewEnsemble(cfg *config.Config, numRuns int, seedStart uint64, metrics func() []Metric) *Ensemble {
	return &Ensemble{
		cfg:       cfg,
		numRuns:   numRuns,
		seedStart: seedStart,
		parallel:  1,
		metrics:   metrics,
		logger:    slog.Default(),
	}
}

// WithParallel bounds the number of runs in flight.
func (e *Ensemble) WithParallel(n int) *Ensemble {
	if n > 0 {
		e.parallel = n
	}
	return e
}

func (e *Ensemble) WithLogger(l *slog.Logger) *Ensemble {
	if l != nil {
		e.logger = l
	}
	return e
}

// Run executes every seed and returns the results in seed order. The first
// failing run cancels the rest.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel)
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfg := e.cfg.Clone()
			cfg.Seed = e.seedStart + uint64(i)

			s, err := New(cfg, WithLogger(e.logger))
			if err != nil {
				return err
			}
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}
			results[i], err = s.Run(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary is the spread of one final metric across an ensemble.
type Summary struct {
	Name   string
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize reduces the final metric values of results, sorted by name.
func Summarize(results []*Result) []Summary {
	values := make(map[string][]float64)
	for _, r := range results {
		for name, v := range r.Metrics {
			values[name] = append(values[name], v)
		}
	}

	out := make([]Summary, 0, len(values))
	for name, vs := range values {
		mean, std := stat.MeanStdDev(vs, nil)
		if len(vs) < 2 {
			std = 0
		}
		sorted := append([]float64(nil), vs...)
		sort.Float64s(sorted)
		out = append(out, Summary{
			Name:   name,
			Mean:   mean,
			StdDev: std,
			Min:    sorted[0],
			Max:    sorted[len(sorted)-1],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
