// Package pipeline sequences simulation stages by an explicit dependency
// graph.
//
// Stages are registered on a [Builder] under a unique name together with
// the names they depend on. [Builder.Build] rejects unknown names and
// cycles, then levels the graph once: a stage's level is one more than the
// deepest of its dependencies. The resulting [Dispatcher] replays that
// fixed order every step, running the stages of a level concurrently and
// waiting for the whole level before starting the next one.
//
// Deferred entity commands queued by stages are applied at every level
// barrier, so components attached in one level are visible to all later
// levels of the same step.
//
// A stage error cancels the remaining stages of its level, skips every
// later level and is returned as a [*StageError].
package pipeline
