package ecs

import "sort"

// QueryBuilder finds entities by component intersection.
// The query starts from the smallest required store and filters through
// the larger ones.
type QueryBuilder struct {
	with     []QueryableStore
	without  []AnyStore
	executed bool
	results  []Entity
}

// Query creates a new QueryBuilder.
//
// Example:
//
//	entities := w.Query().
//	    With(positions).
//	    With(intensities).
//	    Without(dark).
//	    Execute()
func (w *World) Query() *QueryBuilder {
	return &QueryBuilder{with: make([]QueryableStore, 0, 4)}
}

// With requires the component of store.
//
// Panics if called after Execute().
func (qb *QueryBuilder) With(store QueryableStore) *QueryBuilder {
	if qb.executed {
		panic("ecs: query already executed")
	}
	qb.with = append(qb.with, store)
	return qb
}

// Without excludes entities holding the component of store.
func (qb *QueryBuilder) Without(store AnyStore) *QueryBuilder {
	if qb.executed {
		panic("ecs: query already executed")
	}
	qb.without = append(qb.without, store)
	return qb
}

// Execute returns every entity present in all With stores and absent from
// all Without stores, in ascending entity order. Repeated calls return the
// cached result.
func (qb *QueryBuilder) Execute() []Entity {
	if qb.executed {
		return qb.results
	}
	qb.executed = true

	if len(qb.with) == 0 {
		qb.results = make([]Entity, 0)
		return qb.results
	}

	sort.SliceStable(qb.with, func(i, j int) bool {
		return qb.with[i].Len() < qb.with[j].Len()
	})

	candidates := qb.with[0].Entities()
	filtered := candidates[:0]
	for _, e := range candidates {
		if qb.matches(e) {
			filtered = append(filtered, e)
		}
	}

	qb.results = filtered
	return qb.results
}

func (qb *QueryBuilder) matches(e Entity) bool {
	for _, s := range qb.with[1:] {
		if !s.Has(e) {
			return false
		}
	}
	for _, s := range qb.without {
		if s.Has(e) {
			return false
		}
	}
	return true
}
