package sim

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/config"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
	"gonum.org/v1/gonum/spatial/r3"
)

type countMetric struct{ n int }

func (c *countMetric) Name() string { return "atoms" }
func (c *countMetric) Observe(w *ecs.World, _ float64) {
	c.n = ecs.Storage[atom.Atom](w).Len()
}
func (c *countMetric) Value() float64 { return float64(c.n) }
func (c *countMetric) Reset()         { c.n = 0 }

func smallConfig() *config.Config {
	cfg := config.GetPreset("molasses1d")
	cfg.Atoms.Count = 8
	cfg.Steps = 40
	return cfg
}

func TestSimulationRun(t *testing.T) {
	s, err := New(smallConfig(), WithSampleEvery(10))
	if err != nil {
		t.Fatal(err)
	}
	s.AddMetric(&countMetric{})

	var samples int
	s.AddObserver(ObserverFunc(func(int, float64, map[string]float64) { samples++ }))

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 40 {
		t.Errorf("expected 40 steps, got %d", result.StepsTaken)
	}
	if len(result.Times) != 5 || samples != 5 {
		t.Errorf("expected 5 samples, got %d times and %d callbacks", len(result.Times), samples)
	}
	if got := result.Series["atoms"]; len(got) != 5 || got[4] != 8 {
		t.Errorf("unexpected series %v", got)
	}
	if len(result.Atoms) != 8 {
		t.Errorf("expected 8 atoms in snapshot, got %d", len(result.Atoms))
	}
	for _, a := range result.Atoms {
		if a.Photons <= 0 {
			t.Errorf("atom %d scattered no photons", a.ID)
		}
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := smallConfig()
	cfg.Dt = -1
	if _, err := New(cfg); !errors.Is(err, dynamo.ErrInvalidTimestep) {
		t.Errorf("expected invalid timestep, got %v", err)
	}
}

func TestBeamOverflowAbortsStep(t *testing.T) {
	s, err := New(smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	w := s.World()
	for i := 0; i < laser.BeamLimit; i++ {
		e := w.CreateEntity()
		ecs.Insert(w, e, laser.CoolingLight{Polarization: laser.SigmaPlus, Wavelength: 780e-9})
		ecs.Insert(w, e, laser.NewGaussianBeam(r3.Vec{}, r3.Vec{Y: 1}, 1, 0.01, 0))
	}

	forces := ecs.Storage[atom.Force](w)
	marker := r3.Vec{X: 1, Y: 2, Z: 3}
	for _, e := range forces.Entities() {
		f, _ := forces.Get(e)
		f.Force = marker
	}
	positions := ecs.Storage[atom.Position](w)
	oldForces := ecs.Storage[atom.OldForce](w)
	before := make(map[ecs.Entity]r3.Vec)
	for _, e := range positions.Entities() {
		p, _ := positions.Value(e)
		before[e] = p.Pos
	}

	err = s.Step(context.Background())
	if !errors.Is(err, dynamo.ErrBeamOverflow) {
		t.Fatalf("expected beam overflow, got %v", err)
	}
	var stepErr *dynamo.StepError
	if !errors.As(err, &stepErr) || stepErr.Step != 0 {
		t.Errorf("expected step error for step 0, got %v", err)
	}
	for _, e := range forces.Entities() {
		if f, _ := forces.Value(e); f.Force != marker {
			t.Fatalf("force of %d written during aborted step: %v", e, f.Force)
		}
		if f, _ := oldForces.Value(e); f.Force != (r3.Vec{}) {
			t.Fatalf("old force of %d written during aborted step: %v", e, f.Force)
		}
	}
	for e, pos := range before {
		if p, _ := positions.Value(e); p.Pos != pos {
			t.Fatalf("atom %d moved during aborted step: %v -> %v", e, pos, p.Pos)
		}
	}
	if s.Time() != 0 {
		t.Error("aborted step advanced time")
	}
}

func TestNoBeamsNoForce(t *testing.T) {
	cfg := smallConfig()
	cfg.CoolingBeams = nil
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	before := Snapshot(s.World())
	for i := 0; i < 5; i++ {
		if err := s.Step(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	forces := ecs.Storage[atom.Force](s.World())
	for _, e := range forces.Entities() {
		if f, _ := forces.Value(e); f.Force != (r3.Vec{}) {
			t.Errorf("atom %d force %v", e, f.Force)
		}
	}
	after := Snapshot(s.World())
	for i := range before {
		if before[i].Velocity != after[i].Velocity {
			t.Errorf("atom %d velocity changed without beams", before[i].ID)
		}
	}
}

func TestReproducible(t *testing.T) {
	run := func(seed uint64) []AtomState {
		cfg := smallConfig()
		cfg.Seed = seed
		s, err := New(cfg)
		if err != nil {
			t.Fatal(err)
		}
		r, err := s.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return r.Atoms
	}

	dynamo.SetWorkers(1)
	a := run(11)
	dynamo.SetWorkers(4)
	b := run(11)
	c := run(12)

	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different trajectories")
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical trajectories")
	}
}

func TestRunCancelled(t *testing.T) {
	s, err := New(smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestEnsemble(t *testing.T) {
	cfg := smallConfig()
	cfg.Steps = 10
	e := NewEnsemble(cfg, 3, 100, func() []Metric { return []Metric{&countMetric{}} }).WithParallel(2)
	results, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Seed != 100+uint64(i) {
			t.Errorf("result %d has seed %d", i, r.Seed)
		}
	}

	summary := Summarize(results)
	if len(summary) != 1 || summary[0].Name != "atoms" || summary[0].Mean != 8 || summary[0].StdDev != 0 {
		t.Errorf("unexpected summary %+v", summary)
	}
}
