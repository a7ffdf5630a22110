package laser

import (
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/pipeline"
)

const (
	AttachComponentsStage   = "attach_laser_components"
	AttachCoolingIndexStage = "attach_cooling_index"
	AttachDipoleIndexStage  = "attach_dipole_index"
	IndexCoolingStage       = "index_cooling_lights"
	IndexDipoleStage        = "index_dipole_lights"
	InitialiseMasksStage    = "initialise_laser_sampler_masks"
	FillMasksStage          = "fill_laser_sampler_masks"
	SampleIntensityStage    = "sample_laser_intensity"
	SampleGradientStage     = "sample_intensity_gradient"
)

// RegisterComponents registers the stores of this package.
func RegisterComponents(w *ecs.World) {
	ecs.Register[CoolingLight](w)
	ecs.Register[DipoleLight](w)
	ecs.Register[GaussianBeam](w)
	ecs.Register[CircularMask](w)
	ecs.Register[CoolingIndex](w)
	ecs.Register[DipoleIndex](w)
	ecs.Register[SamplerMasks](w)
	ecs.Register[IntensitySamplers](w)
	ecs.Register[GradientSamplers](w)
	ecs.Register[DetuningSamplers](w)
	ecs.Register[RateCoefficients](w)
	ecs.Register[ExpectedPhotons](w)
	ecs.Register[ActualPhotons](w)
	ecs.Register[TwoLevelPopulation](w)
	ecs.Register[TotalPhotonsScattered](w)
}

// AddStages registers the laser stages. Sampling stages run after
// positionStage when it is not empty.
func AddStages(b *pipeline.Builder, positionStage string) {
	after := func(deps ...string) []string {
		if positionStage != "" {
			deps = append(deps, positionStage)
		}
		return deps
	}

	b.Add(AttachComponentsStage, AttachComponents())
	b.Add(AttachCoolingIndexStage, AttachIndex[CoolingLight, CoolingIndex]())
	b.Add(AttachDipoleIndexStage, AttachIndex[DipoleLight, DipoleIndex]())
	b.Add(IndexCoolingStage, IndexBeams[CoolingLight, CoolingIndex]("cooling"), AttachCoolingIndexStage)
	b.Add(IndexDipoleStage, IndexBeams[DipoleLight, DipoleIndex]("dipole"), AttachDipoleIndexStage)
	b.Add(InitialiseMasksStage, InitialiseSamplerMasks(), AttachComponentsStage)
	b.Add(FillMasksStage, FillSamplerMasks(), InitialiseMasksStage, IndexCoolingStage)
	b.Add(SampleIntensityStage, SampleIntensity(), after(IndexCoolingStage, AttachComponentsStage)...)
	b.Add(SampleGradientStage, SampleIntensityGradient(), after(IndexDipoleStage, AttachComponentsStage)...)
}
