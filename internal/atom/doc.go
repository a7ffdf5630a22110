// Package atom defines the per-atom components shared by every optical
// force stage: kinematic state, the cooling transition, the per-atom random
// stream, and the stages that reset force and retire the NewlyCreated
// marker each step.
package atom
