package ecs

import (
	"iter"
	"reflect"
)

// Query is the handle a System declares. It wraps a View, remembers which
// archetypes match, and snapshots the matching entities each time the
// Scheduler calls Execute before the system runs.
type Query[T any] struct {
	view     *View[T]
	storage  *Storage
	bindings []binding
	// seen is the number of archetypes already checked for a match.
	seen int

	entities []EntityId
	items    []T
	executed bool
}

func NewQuery[T any](storage *Storage) *Query[T] {
	return &Query[T]{view: NewView[T](storage), storage: storage}
}

// Types returns the component types the query touches.
func (q *Query[T]) Types() []reflect.Type {
	return q.view.Types()
}

// Writes returns the component types the query hands out pointers to.
func (q *Query[T]) Writes() []reflect.Type {
	return q.view.Writes()
}

// Execute rebuilds the entity snapshot. Archetypes created since the last call
// are matched first.
func (q *Query[T]) Execute() {
	for _, arch := range q.storage.archetypes[q.seen:] {
		if b, ok := q.view.bind(arch); ok {
			q.bindings = append(q.bindings, b)
		}
	}
	q.seen = len(q.storage.archetypes)

	q.entities = q.entities[:0]
	q.items = q.items[:0]
	for _, b := range q.bindings {
		q.view.each(b, func(id EntityId, item T) bool {
			q.entities = append(q.entities, id)
			q.items = append(q.items, item)
			return true
		})
	}
	q.executed = true
}

// Len returns the number of entities matched by the last Execute.
func (q *Query[T]) Len() int {
	return len(q.entities)
}

// Iter yields the snapshot taken by Execute. Panics if Execute was never called.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	if !q.executed {
		panic("Query.Iter() called before Query.Execute()")
	}
	return func(yield func(EntityId, T) bool) {
		for i, id := range q.entities {
			if !yield(id, q.items[i]) {
				return
			}
		}
	}
}

// Values is Iter without the ids.
func (q *Query[T]) Values() iter.Seq[T] {
	if !q.executed {
		panic("Query.Values() called before Query.Execute()")
	}
	return func(yield func(T) bool) {
		for _, item := range q.items {
			if !yield(item) {
				return
			}
		}
	}
}
