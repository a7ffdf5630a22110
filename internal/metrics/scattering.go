package metrics

import (
	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/cooling"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
)

// ScatteringRate is the mean photon scattering rate per atom over the last
// step, in photons/s.
type ScatteringRate struct {
	value float64
}

func NewScatteringRate() *ScatteringRate { return &ScatteringRate{} }

func (s *ScatteringRate) Name() string { return "scattering_rate" }

func (s *ScatteringRate) Observe(w *ecs.World, _ float64) {
	ts, ok := ecs.GetResource[dynamo.Timestep](w)
	actual := ecs.Storage[laser.ActualPhotons](w)
	ents := w.Query().With(ecs.Storage[atom.Atom](w)).With(actual).Execute()
	if !ok || ts.Dt <= 0 || len(ents) == 0 {
		s.value = 0
		return
	}

	var total float64
	for _, e := range ents {
		n, _ := actual.Value(e)
		for _, c := range n.Contents {
			total += c
		}
	}
	s.value = total / float64(len(ents)) / ts.Dt
}

func (s *ScatteringRate) Value() float64 { return s.value }

func (s *ScatteringRate) Reset() { s.value = 0 }

// DarkFraction is the fraction of atoms lost to a dark state.
type DarkFraction struct {
	value float64
}

func NewDarkFraction() *DarkFraction { return &DarkFraction{} }

func (d *DarkFraction) Name() string { return "dark_fraction" }

func (d *DarkFraction) Observe(w *ecs.World, _ float64) {
	atoms := ecs.Storage[atom.Atom](w)
	if atoms.Len() == 0 {
		d.value = 0
		return
	}
	dark := w.Query().With(atoms).With(ecs.Storage[cooling.Dark](w)).Execute()
	d.value = float64(len(dark)) / float64(atoms.Len())
}

func (d *DarkFraction) Value() float64 { return d.value }

func (d *DarkFraction) Reset() { d.value = 0 }
