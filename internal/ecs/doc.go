// Package ecs is the columnar entity/component store the optical pipeline
// runs against.
//
// Every component type lives in its own [Store], a sparse set of dense
// values addressed by [Entity]. A [QueryBuilder] joins stores by set
// intersection: entities missing any required component are skipped, never
// reported as errors.
//
// # Thread Safety
//
// Structural changes (inserting or removing components, creating or
// despawning entities) are not safe while stages run. Stages queue them on
// [Commands] and the dispatcher applies them with [World.Maintain] at each
// level barrier. Reading a store and writing through the pointer returned by
// [Store.Get] is safe from many goroutines as long as each goroutine touches
// distinct entities.
package ecs
