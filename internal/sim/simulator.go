package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/config"
	"github.com/san-kum/atomsim/internal/cooling"
	"github.com/san-kum/atomsim/internal/dipole"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/integrators"
	"github.com/san-kum/atomsim/internal/laser"
	"github.com/san-kum/atomsim/internal/magnetic"
	"github.com/san-kum/atomsim/internal/pipeline"
)

// Simulation is a world of atoms and beams with the per-step stage graph
// that advances it.
type Simulation struct {
	cfg         *config.Config
	run         dynamo.RunConfig
	world       *ecs.World
	dispatcher  *pipeline.Dispatcher
	logger      *slog.Logger
	stageObs    pipeline.StageObserver
	metrics     []Metric
	observers   []Observer
	sampleEvery int
	step        uint64
}

type Option func(*Simulation)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStageObserver installs a per-stage timing callback.
func WithStageObserver(o pipeline.StageObserver) Option {
	return func(s *Simulation) { s.stageObs = o }
}

// WithSampleEvery records metrics every n steps. The last step is always
// sampled.
func WithSampleEvery(n int) Option {
	return func(s *Simulation) {
		if n > 0 {
			s.sampleEvery = n
		}
	}
}

// New validates cfg, registers every component, builds the stage graph
// and spawns the configured atoms, beams and fields.
func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	s := &Simulation{
		cfg:         cfg,
		run:         cfg.RunConfig(),
		world:       ecs.NewWorld(),
		logger:      slog.Default(),
		sampleEvery: 100,
	}
	for _, opt := range opts {
		opt(s)
	}

	in, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	b := pipeline.NewBuilder().WithLogger(s.logger).WithObserver(s.stageObs)
	AddStages(b, in)
	s.dispatcher, err = b.Build()
	if err != nil {
		return nil, err
	}

	RegisterComponents(s.world)
	ecs.SetResource(s.world, dynamo.Timestep{Dt: s.run.Dt})
	ecs.SetResource(s.world, cooling.Options{
		Fluctuations:      cfg.Scattering.Fluctuations,
		Emission:          cfg.Scattering.Emission,
		ExplicitThreshold: cfg.Scattering.ExplicitThreshold,
	})
	if err := spawn(s.world, cfg); err != nil {
		return nil, err
	}

	s.logger.Info("simulation ready",
		"atoms", cfg.Atoms.Count,
		"cooling_beams", len(cfg.CoolingBeams),
		"dipole_beams", len(cfg.DipoleBeams),
		"integrator", in.Name(),
		"seed", cfg.Seed,
		"stages", len(s.dispatcher.Order()),
	)
	return s, nil
}

// RegisterComponents registers the stores of every module.
func RegisterComponents(w *ecs.World) {
	atom.RegisterComponents(w)
	laser.RegisterComponents(w)
	magnetic.RegisterComponents(w)
	cooling.RegisterComponents(w)
	dipole.RegisterComponents(w)
}

// AddStages wires the full per-step graph: index beams, integrate
// positions, sample fields and intensities, compute scattering and dipole
// forces, integrate velocities.
func AddStages(b *pipeline.Builder, in integrators.Integrator) {
	integrators.AddStages(b, in,
		[]string{laser.IndexCoolingStage, laser.IndexDipoleStage},
		dipole.ApplyForceStage,
	)
	laser.AddStages(b, integrators.IntegratePositionStage)
	magnetic.AddStages(b, integrators.IntegratePositionStage)
	atom.AddStages(b,
		[]string{integrators.IntegratePositionStage, laser.IndexCoolingStage, laser.IndexDipoleStage},
		[]string{integrators.IntegrateVelocityStage},
	)
	cooling.AddStages(b, magnetic.MagnitudeStage, atom.ClearForceStage)
	dipole.AddStages(b, cooling.EmissionStage, atom.ClearForceStage)
}

func (s *Simulation) World() *ecs.World                { return s.world }
func (s *Simulation) Config() *config.Config           { return s.cfg }
func (s *Simulation) Dispatcher() *pipeline.Dispatcher { return s.dispatcher }
func (s *Simulation) AddMetric(m Metric)               { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer)           { s.observers = append(s.observers, o) }

// Steps returns the number of completed steps.
func (s *Simulation) Steps() uint64 { return s.step }

// Time returns the simulated time of the next step.
func (s *Simulation) Time() float64 { return float64(s.step) * s.run.Dt }

// Step dispatches one time step. On failure the step is abandoned, the
// error is returned as a *dynamo.StepError and the step counter is not
// advanced.
func (s *Simulation) Step(ctx context.Context) error {
	ts := dynamo.Timestep{Dt: s.run.Dt, Index: s.step}
	ecs.SetResource(s.world, ts)

	if err := s.dispatcher.Dispatch(ctx, s.world); err != nil {
		return &dynamo.StepError{Step: s.step, Time: ts.Time(), Err: err}
	}
	if s.run.ValidateState {
		if err := validateState(s.world); err != nil {
			return &dynamo.StepError{Step: s.step, Time: ts.Time(), Err: err}
		}
	}
	s.step++
	return nil
}

// Run executes the configured number of steps.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	steps := s.run.Steps
	result := &Result{
		Seed:    s.cfg.Seed,
		Times:   make([]float64, 0, steps/s.sampleEvery+2),
		Series:  make(map[string][]float64, len(s.metrics)),
		Metrics: make(map[string]float64, len(s.metrics)),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	s.sample(result)
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return s.finish(result, start), err
		}
		if err := s.Step(ctx); err != nil {
			var stepErr *dynamo.StepError
			if errors.As(err, &stepErr) {
				s.logger.Error("step failed", "step", stepErr.Step, "err", stepErr.Err)
			}
			return s.finish(result, start), err
		}
		result.StepsTaken++
		if result.StepsTaken%s.sampleEvery == 0 || i == steps-1 {
			s.sample(result)
		}
	}
	return s.finish(result, start), nil
}

// Observe evaluates every metric against the current world.
func (s *Simulation) Observe() map[string]float64 {
	t := s.Time()
	values := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		m.Observe(s.world, t)
		values[m.Name()] = m.Value()
	}
	return values
}

func (s *Simulation) sample(r *Result) {
	values := s.Observe()
	for name, v := range values {
		r.Series[name] = append(r.Series[name], v)
	}
	t := s.Time()
	r.Times = append(r.Times, t)
	for _, o := range s.observers {
		o.OnSample(int(s.step), t, values)
	}
}

func (s *Simulation) finish(r *Result, start time.Time) *Result {
	for _, m := range s.metrics {
		r.Metrics[m.Name()] = m.Value()
	}
	r.Atoms = Snapshot(s.world)
	r.Elapsed = time.Since(start)
	s.logger.Info("run finished", "steps", r.StepsTaken, "elapsed", r.Elapsed)
	return r
}

// Snapshot returns the state of every atom in entity order.
func Snapshot(w *ecs.World) []AtomState {
	positions := ecs.Storage[atom.Position](w)
	velocities := ecs.Storage[atom.Velocity](w)
	totals := ecs.Storage[laser.TotalPhotonsScattered](w)
	dark := ecs.Storage[cooling.Dark](w)

	ents := w.Query().With(ecs.Storage[atom.Atom](w)).With(positions).With(velocities).Execute()
	out := make([]AtomState, 0, len(ents))
	for _, e := range ents {
		p, _ := positions.Value(e)
		v, _ := velocities.Value(e)
		n, _ := totals.Value(e)
		out = append(out, AtomState{
			ID:       uint64(e),
			Position: p.Pos,
			Velocity: v.Vel,
			Photons:  n.Total,
			Dark:     dark.Has(e),
		})
	}
	return out
}

func validateState(w *ecs.World) error {
	positions := ecs.Storage[atom.Position](w)
	velocities := ecs.Storage[atom.Velocity](w)
	for _, e := range w.Query().With(positions).With(velocities).Execute() {
		p, _ := positions.Value(e)
		v, _ := velocities.Value(e)
		if !dynamo.IsFinite(p.Pos) || !dynamo.IsFinite(v.Vel) {
			return fmt.Errorf("entity %d: %w", e, dynamo.ErrInvalidState)
		}
	}
	return nil
}
