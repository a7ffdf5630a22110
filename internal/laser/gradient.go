package laser

import (
	"context"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
	"gonum.org/v1/gonum/spatial/r3"
)

// SampleIntensityGradient writes each live dipole beam's intensity gradient
// at the atom into its slot. Slots without a live beam read zero.
func SampleIntensityGradient() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		beams := DipoleBeams(w)
		positions := ecs.Storage[atom.Position](w)
		samplers := ecs.Storage[GradientSamplers](w)

		ents := w.Query().With(positions).With(samplers).Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				pos, _ := positions.Value(e)
				s, _ := samplers.Get(e)
				s.Fill(r3.Vec{})
				for _, b := range beams {
					s.Contents[b.Slot] = b.Gaussian.GradientAt(pos.Pos)
				}
			}
		})
		return nil
	})
}
