package cooling

import (
	"github.com/san-kum/atomsim/internal/ecs"
	"github.com/san-kum/atomsim/internal/laser"
	"github.com/san-kum/atomsim/internal/magnetic"
	"github.com/san-kum/atomsim/internal/pipeline"
)

const (
	DetuningStage        = "calculate_detuning"
	RateStage            = "calculate_rate_coefficients"
	PopulationStage      = "calculate_twolevel_population"
	ExpectedPhotonsStage = "calculate_expected_photons"
	ActualPhotonsStage   = "calculate_actual_photons"
	RepumpStage          = "repump"
	AbsorptionStage      = "apply_absorption_force"
	EmissionStage        = "apply_emission_force"
)

// RegisterComponents registers the stores of this package, and the field
// sampler read by the detuning stage.
func RegisterComponents(w *ecs.World) {
	ecs.Register[RepumpLoss](w)
	ecs.Register[Dark](w)
	ecs.Register[magnetic.FieldSampler](w)
}

// AddStages registers the cooling stages. They read the laser samplers, so
// laser.AddStages must be applied to the same builder. Detuning waits for
// fieldStage and force aggregation for clearForceStage, when not empty.
func AddStages(b *pipeline.Builder, fieldStage, clearForceStage string) {
	detuningDeps := []string{laser.IndexCoolingStage, laser.FillMasksStage}
	if fieldStage != "" {
		detuningDeps = append(detuningDeps, fieldStage)
	}
	absorptionDeps := []string{RepumpStage}
	if clearForceStage != "" {
		absorptionDeps = append(absorptionDeps, clearForceStage)
	}

	b.Add(DetuningStage, CalculateDetuning(), detuningDeps...)
	b.Add(RateStage, CalculateRateCoefficients(), DetuningStage, laser.SampleIntensityStage)
	b.Add(PopulationStage, CalculateTwoLevelPopulation(), RateStage)
	b.Add(ExpectedPhotonsStage, CalculateExpectedPhotons(), PopulationStage)
	b.Add(ActualPhotonsStage, CalculateActualPhotons(), ExpectedPhotonsStage)
	b.Add(RepumpStage, Repump(), ActualPhotonsStage)
	b.Add(AbsorptionStage, ApplyAbsorptionForce(), absorptionDeps...)
	b.Add(EmissionStage, ApplyEmissionForce(), AbsorptionStage)
}
