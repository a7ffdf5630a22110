package laser

import (
	"context"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
)

// SampleIntensity writes each live cooling beam's intensity at the atom
// into its slot. Slots without a live beam read zero.
func SampleIntensity() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		beams := CoolingBeams(w)
		positions := ecs.Storage[atom.Position](w)
		samplers := ecs.Storage[IntensitySamplers](w)

		ents := w.Query().With(positions).With(samplers).Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				pos, _ := positions.Value(e)
				s, _ := samplers.Get(e)
				s.Fill(0)
				for _, b := range beams {
					s.Contents[b.Slot] = b.IntensityAt(pos.Pos)
				}
			}
		})
		return nil
	})
}
