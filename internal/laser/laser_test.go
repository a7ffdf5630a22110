package laser

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
	"gonum.org/v1/gonum/spatial/r3"
)

func newWorld() *ecs.World {
	w := ecs.NewWorld()
	atom.RegisterComponents(w)
	RegisterComponents(w)
	return w
}

func step(t *testing.T, w *ecs.World) error {
	t.Helper()
	b := pipeline.NewBuilder()
	AddStages(b, "")
	d, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return d.Dispatch(context.Background(), w)
}

func spawnCooling(w *ecs.World, dir r3.Vec, power float64) ecs.Entity {
	e := w.CreateEntity()
	ecs.Insert(w, e, CoolingLight{Polarization: SigmaPlus, Wavelength: 780e-9})
	ecs.Insert(w, e, NewGaussianBeam(r3.Vec{}, dir, power, 0.01, 0))
	return e
}

func spawnAtom(w *ecs.World, pos r3.Vec) ecs.Entity {
	e := w.CreateEntity()
	ecs.Insert(w, e, atom.Position{Pos: pos})
	ecs.Insert(w, e, atom.Atom{})
	ecs.Insert(w, e, atom.NewlyCreated{})
	return e
}

func TestGaussianIntensity(t *testing.T) {
	g := NewGaussianBeam(r3.Vec{}, r3.Vec{Z: 2}, 1.0, 0.01, 0)
	peak := 1.0 / (math.Pi * 0.01 * 0.01)

	tests := []struct {
		name string
		pos  r3.Vec
		want float64
	}{
		{"axis", r3.Vec{}, peak},
		{"downstream on axis", r3.Vec{Z: 5}, peak},
		{"one radius", r3.Vec{X: 0.01}, peak / math.E},
		{"diagonal radius", r3.Vec{X: 0.01 / math.Sqrt2, Y: 0.01 / math.Sqrt2, Z: -3}, peak / math.E},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.IntensityAt(tt.pos)
			if math.Abs(got-tt.want)/tt.want > 1e-12 {
				t.Errorf("IntensityAt(%v) = %g, want %g", tt.pos, got, tt.want)
			}
		})
	}

	if (GaussianBeam{Power: 0, ERadius: 1, Direction: r3.Vec{Z: 1}}).IntensityAt(r3.Vec{}) != 0 {
		t.Error("zero power beam should be dark")
	}
}

func TestGaussianGradientMatchesFiniteDifference(t *testing.T) {
	zr := RayleighRange(1064e-9, 50e-6)
	beams := []GaussianBeam{
		NewGaussianBeam(r3.Vec{}, r3.Vec{X: 1}, 10, 50e-6, zr),
		NewGaussianBeam(r3.Vec{X: 1e-5}, r3.Vec{Y: 1, Z: 1}, 2, 80e-6, 0),
	}
	points := []r3.Vec{
		{X: 3e-4, Y: 2e-5, Z: -1e-5},
		{X: -1e-3, Y: -4e-5, Z: 3e-5},
		{Y: 1e-5},
	}
	const h = 1e-9
	for bi, g := range beams {
		for _, p := range points {
			got := g.GradientAt(p)
			want := r3.Vec{
				X: (g.IntensityAt(r3.Add(p, r3.Vec{X: h})) - g.IntensityAt(r3.Sub(p, r3.Vec{X: h}))) / (2 * h),
				Y: (g.IntensityAt(r3.Add(p, r3.Vec{Y: h})) - g.IntensityAt(r3.Sub(p, r3.Vec{Y: h}))) / (2 * h),
				Z: (g.IntensityAt(r3.Add(p, r3.Vec{Z: h})) - g.IntensityAt(r3.Sub(p, r3.Vec{Z: h}))) / (2 * h),
			}
			scale := r3.Norm(want) + 1
			if r3.Norm(r3.Sub(got, want))/scale > 1e-5 {
				t.Errorf("beam %d at %v: gradient %v, finite difference %v", bi, p, got, want)
			}
		}
	}
}

func TestRayleighRange(t *testing.T) {
	got := RayleighRange(1064e-9, 50e-6)
	want := 2 * math.Pi * 50e-6 * 50e-6 / 1064e-9
	if math.Abs(got-want) > 1e-15*want {
		t.Errorf("got %g, want %g", got, want)
	}
}

func TestIndexBeamsAscendingAndStable(t *testing.T) {
	w := newWorld()
	a := spawnCooling(w, r3.Vec{X: 1}, 1)
	b := spawnCooling(w, r3.Vec{X: -1}, 1)
	c := spawnCooling(w, r3.Vec{Y: 1}, 1)

	for i := 0; i < 2; i++ {
		if err := step(t, w); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		for want, e := range []ecs.Entity{a, b, c} {
			idx, ok := ecs.Storage[CoolingIndex](w).Value(e)
			if !ok || !idx.Initiated || idx.Index != want {
				t.Errorf("step %d: beam %d index %+v, want slot %d", i, e, idx, want)
			}
		}
	}

	w.Despawn(b)
	if err := step(t, w); err != nil {
		t.Fatal(err)
	}
	if idx, _ := ecs.Storage[CoolingIndex](w).Value(c); idx.Index != 1 {
		t.Errorf("after despawn: slot %d, want 1", idx.Index)
	}
}

func TestIndexBeamsOverflow(t *testing.T) {
	w := newWorld()
	for i := 0; i < BeamLimit+1; i++ {
		spawnCooling(w, r3.Vec{Z: 1}, 1)
	}

	err := step(t, w)
	if !errors.Is(err, dynamo.ErrBeamOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	var cfgErr *dynamo.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Value != BeamLimit+1 {
		t.Errorf("expected config error naming the count, got %v", err)
	}
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != IndexCoolingStage {
		t.Errorf("expected failure in %s, got %v", IndexCoolingStage, err)
	}

	indices := ecs.Storage[CoolingIndex](w)
	for _, e := range indices.Entities() {
		if idx, _ := indices.Value(e); idx.Initiated {
			t.Fatalf("beam %d indexed despite overflow", e)
		}
	}
}

func TestDipoleAndCoolingSlotsIndependent(t *testing.T) {
	w := newWorld()
	for i := 0; i < BeamLimit; i++ {
		spawnCooling(w, r3.Vec{Z: 1}, 1)
	}
	d := w.CreateEntity()
	ecs.Insert(w, d, DipoleLight{Wavelength: 1064e-9})
	ecs.Insert(w, d, NewGaussianBeam(r3.Vec{}, r3.Vec{X: 1}, 1, 1e-4, 0))

	if err := step(t, w); err != nil {
		t.Fatal(err)
	}
	if idx, _ := ecs.Storage[DipoleIndex](w).Value(d); !idx.Initiated || idx.Index != 0 {
		t.Errorf("dipole index %+v, want slot 0", idx)
	}
	if got := len(CoolingBeams(w)); got != BeamLimit {
		t.Errorf("cooling beams = %d, want %d", got, BeamLimit)
	}
}

func TestSamplersZeroDeadSlots(t *testing.T) {
	w := newWorld()
	first := spawnCooling(w, r3.Vec{X: 1}, 1)
	spawnCooling(w, r3.Vec{Y: 1}, 2)
	e := spawnAtom(w, r3.Vec{})

	if err := step(t, w); err != nil {
		t.Fatal(err)
	}
	s, ok := ecs.Storage[IntensitySamplers](w).Value(e)
	if !ok {
		t.Fatal("intensity samplers not attached")
	}
	peak := 1 / (math.Pi * 0.01 * 0.01)
	if math.Abs(s.Contents[0]-peak) > 1e-9*peak || math.Abs(s.Contents[1]-2*peak) > 1e-9*peak {
		t.Errorf("unexpected intensities %v", s.Contents[:2])
	}
	for i := 2; i < BeamLimit; i++ {
		if s.Contents[i] != 0 {
			t.Errorf("slot %d = %g, want 0", i, s.Contents[i])
		}
	}
	m, _ := ecs.Storage[SamplerMasks](w).Value(e)
	if !m.Contents[0] || !m.Contents[1] || m.Contents[2] {
		t.Errorf("unexpected mask %v", m.Contents[:3])
	}

	w.Despawn(first)
	if err := step(t, w); err != nil {
		t.Fatal(err)
	}
	s, _ = ecs.Storage[IntensitySamplers](w).Value(e)
	if math.Abs(s.Contents[0]-2*peak) > 1e-9*peak || s.Contents[1] != 0 {
		t.Errorf("after despawn: %v", s.Contents[:2])
	}
	m, _ = ecs.Storage[SamplerMasks](w).Value(e)
	if !m.Contents[0] || m.Contents[1] {
		t.Errorf("after despawn mask %v", m.Contents[:2])
	}
}

func TestAttachComponentsOnce(t *testing.T) {
	w := newWorld()
	e := spawnAtom(w, r3.Vec{})
	ecs.Insert(w, e, TotalPhotonsScattered{Total: 7})

	if err := step(t, w); err != nil {
		t.Fatal(err)
	}
	total, _ := ecs.Storage[TotalPhotonsScattered](w).Value(e)
	if total.Total != 7 {
		t.Errorf("existing component overwritten: %v", total)
	}
	if !ecs.Storage[ActualPhotons](w).Has(e) || !ecs.Storage[GradientSamplers](w).Has(e) {
		t.Error("per-beam arrays missing")
	}
}

func TestCircularMask(t *testing.T) {
	w := newWorld()
	beam := spawnCooling(w, r3.Vec{Z: 1}, 1)
	ecs.Insert(w, beam, CircularMask{Radius: 0.005})
	inside := spawnAtom(w, r3.Vec{X: 0.001})
	outside := spawnAtom(w, r3.Vec{X: 0.008})

	if err := step(t, w); err != nil {
		t.Fatal(err)
	}
	samplers := ecs.Storage[IntensitySamplers](w)
	if s, _ := samplers.Value(inside); s.Contents[0] != 0 {
		t.Errorf("masked atom sees %g", s.Contents[0])
	}
	if s, _ := samplers.Value(outside); s.Contents[0] <= 0 {
		t.Errorf("unmasked atom sees %g", s.Contents[0])
	}
}
