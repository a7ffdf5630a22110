// Package dynamo provides core simulation primitives shared by every stage
// of the optical force pipeline.
//
// The package defines:
//
//   - [RunConfig]: per-run timestep, step count, seed and worker settings
//   - [Timestep]: world resource read by stages that integrate over dt
//   - [ParallelFor]: chunked data-parallel loop used inside a stage
//   - sentinel errors and the [ConfigError] / [StepError] wrappers
//
// # Thread Safety
//
// [ParallelFor] may be called from several stages running in the same
// dispatcher level. The callback must only write state owned by the
// index range it receives.
package dynamo
