package laser

import (
	"context"

	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
	"gonum.org/v1/gonum/spatial/r3"
)

// BeamIndex is the slot a beam occupies in every atom's per-beam arrays.
type BeamIndex struct {
	Index     int
	Initiated bool
}

// CoolingIndex is the BeamIndex of a cooling beam.
type CoolingIndex struct {
	BeamIndex
}

// DipoleIndex is the BeamIndex of a dipole beam.
type DipoleIndex struct {
	BeamIndex
}

func (c *CoolingIndex) slot() *BeamIndex { return &c.BeamIndex }
func (d *DipoleIndex) slot() *BeamIndex  { return &d.BeamIndex }

type indexPtr[I any] interface {
	*I
	slot() *BeamIndex
}

// AttachIndex queues a default index on every beam with light L that has
// none yet.
func AttachIndex[L, I any]() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		lights := ecs.Storage[L](w)
		indices := ecs.Storage[I](w)
		var zero I
		cmds := w.Commands()
		for _, e := range w.Query().With(lights).Without(indices).Execute() {
			ecs.InsertLater(cmds, e, zero)
		}
		return nil
	})
}

// IndexBeams assigns slots 0..n-1 to the n beams with light L, in
// ascending entity order. More than BeamLimit beams is a configuration
// error and no index is touched.
func IndexBeams[L, I any, P indexPtr[I]](kind string) pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		lights := ecs.Storage[L](w)
		indices := ecs.Storage[I](w)
		beams := w.Query().With(lights).With(indices).Execute()
		if len(beams) > BeamLimit {
			return &dynamo.ConfigError{
				Entity: kind + " beams",
				Param:  "count",
				Value:  float64(len(beams)),
				Err:    dynamo.ErrBeamOverflow,
			}
		}
		for slot, e := range beams {
			idx, _ := indices.Get(e)
			s := P(idx).slot()
			s.Index = slot
			s.Initiated = true
		}
		return nil
	})
}

// Beam is a live, indexed beam of light kind L.
type Beam[L any] struct {
	Entity   ecs.Entity
	Slot     int
	Light    L
	Gaussian GaussianBeam
	Mask     CircularMask
}

// IntensityAt is the beam's intensity at pos with any mask applied.
func (b Beam[L]) IntensityAt(pos r3.Vec) float64 {
	if b.Mask.Radius > 0 && b.Mask.Blocks(b.Gaussian, pos) {
		return 0
	}
	return b.Gaussian.IntensityAt(pos)
}

// LiveBeams returns the initiated beams with light L and a Gaussian
// profile, in slot order.
func LiveBeams[L, I any, P indexPtr[I]](w *ecs.World) []Beam[L] {
	lights := ecs.Storage[L](w)
	indices := ecs.Storage[I](w)
	profiles := ecs.Storage[GaussianBeam](w)
	masks := ecs.Storage[CircularMask](w)

	ents := w.Query().With(lights).With(indices).With(profiles).Execute()
	beams := make([]Beam[L], 0, len(ents))
	for _, e := range ents {
		idx, _ := indices.Get(e)
		s := P(idx).slot()
		if !s.Initiated || s.Index < 0 || s.Index >= BeamLimit {
			continue
		}
		light, _ := lights.Value(e)
		profile, _ := profiles.Value(e)
		mask, _ := masks.Value(e)
		beams = append(beams, Beam[L]{Entity: e, Slot: s.Index, Light: light, Gaussian: profile, Mask: mask})
	}
	return beams
}

// CoolingBeams returns the live cooling beams.
func CoolingBeams(w *ecs.World) []Beam[CoolingLight] {
	return LiveBeams[CoolingLight, CoolingIndex](w)
}

// DipoleBeams returns the live dipole beams.
func DipoleBeams(w *ecs.World) []Beam[DipoleLight] {
	return LiveBeams[DipoleLight, DipoleIndex](w)
}
