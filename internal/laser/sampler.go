package laser

import (
	"context"

	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
)

const atomChunk = 256

// InitialiseSamplerMasks clears every atom's cooling mask.
func InitialiseSamplerMasks() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		masks := ecs.Storage[SamplerMasks](w)
		ents := w.Query().With(masks).Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				m, _ := masks.Get(e)
				m.Fill(false)
			}
		})
		return nil
	})
}

// FillSamplerMasks sets the mask of every live cooling slot.
func FillSamplerMasks() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		beams := CoolingBeams(w)
		if len(beams) == 0 {
			return nil
		}
		masks := ecs.Storage[SamplerMasks](w)
		ents := w.Query().With(masks).Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				m, _ := masks.Get(e)
				for _, b := range beams {
					m.Contents[b.Slot] = true
				}
			}
		})
		return nil
	})
}
