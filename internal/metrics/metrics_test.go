package metrics

import (
	"errors"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/constant"
	"github.com/san-kum/atomsim/internal/cooling"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
	"github.com/san-kum/atomsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r3"
)

func newWorld() *ecs.World {
	w := ecs.NewWorld()
	sim.RegisterComponents(w)
	return w
}

func addAtom(w *ecs.World, pos, vel r3.Vec) ecs.Entity {
	e := w.CreateEntity()
	ecs.Insert(w, e, atom.Atom{})
	ecs.Insert(w, e, atom.Position{Pos: pos})
	ecs.Insert(w, e, atom.Velocity{Vel: vel})
	ecs.Insert(w, e, atom.Mass{Value: 87})
	return e
}

func TestTemperature(t *testing.T) {
	w := newWorld()
	addAtom(w, r3.Vec{}, r3.Vec{X: 11})
	addAtom(w, r3.Vec{}, r3.Vec{X: 9})

	m := NewTemperature()
	m.Observe(w, 0)

	want := 87 * constant.AMU * 1 / (3 * constant.Boltzmann)
	if math.Abs(m.Value()-want)/want > 1e-12 {
		t.Errorf("expected temperature %g, got %g", want, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero temperature after reset")
	}
}

func TestTemperatureIgnoresBulkMotion(t *testing.T) {
	w := newWorld()
	for i := 0; i < 5; i++ {
		addAtom(w, r3.Vec{}, r3.Vec{Z: 30})
	}
	m := NewTemperature()
	m.Observe(w, 0)
	if m.Value() != 0 {
		t.Errorf("uniform motion gave temperature %g", m.Value())
	}
}

func TestCaptureFraction(t *testing.T) {
	w := newWorld()
	addAtom(w, r3.Vec{X: 1e-3}, r3.Vec{X: 0.1})
	addAtom(w, r3.Vec{X: 1}, r3.Vec{})
	addAtom(w, r3.Vec{}, r3.Vec{Y: 5})
	addAtom(w, r3.Vec{}, r3.Vec{})

	m := NewCaptureFraction(r3.Vec{}, 5e-3, 1)
	m.Observe(w, 0)
	if m.Value() != 0.5 {
		t.Errorf("expected capture fraction 0.5, got %g", m.Value())
	}
}

func TestScatteringRateAndDarkFraction(t *testing.T) {
	w := newWorld()
	ecs.SetResource(w, dynamo.Timestep{Dt: 1e-6})
	a := addAtom(w, r3.Vec{}, r3.Vec{})
	b := addAtom(w, r3.Vec{}, r3.Vec{})
	var n laser.ActualPhotons
	n.Contents[0], n.Contents[3] = 2, 4
	ecs.Insert(w, a, n)
	ecs.Insert(w, b, laser.ActualPhotons{})
	ecs.Insert(w, b, cooling.Dark{})

	rate := NewScatteringRate()
	rate.Observe(w, 0)
	if math.Abs(rate.Value()-3e6) > 1e-6 {
		t.Errorf("expected 3e6 photons/s, got %g", rate.Value())
	}

	dark := NewDarkFraction()
	dark.Observe(w, 0)
	if dark.Value() != 0.5 {
		t.Errorf("expected dark fraction 0.5, got %g", dark.Value())
	}
}

func TestCollectors(t *testing.T) {
	c := NewCollectors()
	c.ObserveStage("repump", 0, nil)
	c.ObserveStage("index_cooling_lights", 0, errors.New("overflow"))
	c.OnSample(42, 0, map[string]float64{"temperature": 1e-4})

	if got := testutil.ToFloat64(c.stageErrors.WithLabelValues("index_cooling_lights")); got != 1 {
		t.Errorf("stage errors = %g", got)
	}
	if got := testutil.ToFloat64(c.step); got != 42 {
		t.Errorf("step gauge = %g", got)
	}

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `atomsim_observable{metric="temperature"} 0.0001`) {
		t.Errorf("observable missing from exposition:\n%s", body)
	}
}
