package magnetic

import (
	"context"

	"github.com/san-kum/atomsim/internal/atom"
	"github.com/san-kum/atomsim/internal/dynamo"
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ClearFieldStage       = "clear_magnetic_field"
	SampleUniformStage    = "sample_uniform_field"
	SampleQuadrupoleStage = "sample_quadrupole_field"
	MagnitudeStage        = "calculate_field_magnitude"
)

const atomChunk = 256

func RegisterComponents(w *ecs.World) {
	ecs.Register[FieldSampler](w)
	ecs.Register[UniformField](w)
	ecs.Register[QuadrupoleField](w)
}

// ClearField zeroes every sampler, attaching one to atoms that lack it.
func ClearField() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		atoms := ecs.Storage[atom.Atom](w)
		samplers := ecs.Storage[FieldSampler](w)

		cmds := w.Commands()
		for _, e := range w.Query().With(atoms).Without(samplers).Execute() {
			ecs.InsertLater(cmds, e, FieldSampler{})
		}

		ents := w.Query().With(samplers).Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				s, _ := samplers.Get(e)
				*s = FieldSampler{}
			}
		})
		return nil
	})
}

// SampleSources adds the field of every entity carrying source component S
// to each atom's sampler.
func SampleSources[S Source]() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		sources := ecs.Storage[S](w)
		fields := make([]S, 0, sources.Len())
		for _, e := range sources.Entities() {
			s, _ := sources.Value(e)
			fields = append(fields, s)
		}
		if len(fields) == 0 {
			return nil
		}

		positions := ecs.Storage[atom.Position](w)
		samplers := ecs.Storage[FieldSampler](w)
		ents := w.Query().With(positions).With(samplers).Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				pos, _ := positions.Value(e)
				s, _ := samplers.Get(e)
				for _, f := range fields {
					s.Field = r3.Add(s.Field, f.FieldAt(pos.Pos))
				}
			}
		})
		return nil
	})
}

// CalculateMagnitude stores |B| once every source has been summed.
func CalculateMagnitude() pipeline.Stage {
	return pipeline.StageFunc(func(_ context.Context, w *ecs.World) error {
		samplers := ecs.Storage[FieldSampler](w)
		ents := w.Query().With(samplers).Execute()
		dynamo.ParallelFor(len(ents), atomChunk, func(start, end int) {
			for _, e := range ents[start:end] {
				s, _ := samplers.Get(e)
				s.Magnitude = r3.Norm(s.Field)
			}
		})
		return nil
	})
}

// AddStages registers the field stages. Sampling runs after positionStage
// when it is not empty.
func AddStages(b *pipeline.Builder, positionStage string) {
	sampleDeps := []string{ClearFieldStage}
	if positionStage != "" {
		sampleDeps = append(sampleDeps, positionStage)
	}
	b.Add(ClearFieldStage, ClearField())
	b.Add(SampleUniformStage, SampleSources[UniformField](), sampleDeps...)
	b.Add(SampleQuadrupoleStage, SampleSources[QuadrupoleField](), SampleUniformStage)
	b.Add(MagnitudeStage, CalculateMagnitude(), SampleQuadrupoleStage)
}
