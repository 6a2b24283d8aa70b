package ecs

import (
	"reflect"

	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// Query selects the entities that hold every requested component type. Matching is AND-only and
// independent of the order the types were added in.
//
// A Query is a builder and is not safe for concurrent use; the scan it performs is.
type Query struct {
	store    *Entities
	mask     bitmap.Bitmap  // Bits of the requested component types
	ids      []componentID  // Same bits as mask, in insertion order
	types    []reflect.Type // Requested types, in insertion order
	readOnly bool           // Handles reject mutation
}

func newQuery(store *Entities) *Query {
	return &Query{store: store}
}

// WithType adds a component type to the query. Adding the same type twice has no effect.
func (q *Query) WithType(typ reflect.Type) error {
	id, err := q.store.components.id(typ)
	if err != nil {
		return eris.Wrap(err, "failed to add component to query")
	}
	if q.mask.Contains(id) {
		return nil
	}
	q.mask.Set(id)
	q.ids = append(q.ids, id)
	q.types = append(q.types, typ)
	return nil
}

// WithComponent adds component type T to the query.
func WithComponent[T any](q *Query) error {
	return q.WithType(reflect.TypeFor[T]())
}

// Types returns the requested component types.
func (q *Query) Types() []reflect.Type {
	return q.types
}

// Entities returns the slots that currently match the query, in ascending order. A query without
// any component type matches every live entity.
func (q *Query) Entities() []EntityID {
	q.store.members.mu.RLock()
	defer q.store.members.mu.RUnlock()
	return q.store.scanner.match(&q.store.members, q.ids)
}

// Run scans the store and calls fn once with a handle for every matching entity, in ascending slot
// order. The match set is fixed when the scan finishes and no lock is held while fn runs, so fn may
// create and delete entities; component reads and writes through the handles see live data.
func (q *Query) Run(fn func(entities []*QueryEntity)) {
	ids := q.Entities()
	handles := make([]*QueryEntity, len(ids))
	for i, id := range ids {
		handles[i] = newQueryEntity(id, q.store, q.readOnly)
	}
	fn(handles)
}
