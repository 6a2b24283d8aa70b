package ecs

import (
	"reflect"
	"sync"

	"github.com/DynamicGoose/magma-ecs/pkg/assert"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// componentID is the permanent bit assigned to a component type. IDs are handed out sequentially
// from 0 and are never reused or reassigned.
type componentID = uint32

// componentRegistry is the bit assignment table. It maps component types to their bit and owns the
// column that stores the component values. Registration is append-only.
type componentRegistry struct {
	mu       sync.RWMutex
	catalog  map[reflect.Type]componentID // Component type -> component ID
	columns  []abstractColumn             // Component ID -> column
	capacity int                          // Max number of component types, 0 for unbounded
}

// newComponentRegistry creates a registry that accepts at most capacity component types. A
// capacity of 0 leaves the bitmap unbounded.
func newComponentRegistry(capacity int) componentRegistry {
	return componentRegistry{
		catalog:  make(map[reflect.Type]componentID),
		columns:  make([]abstractColumn, 0),
		capacity: capacity,
	}
}

// register assigns the next bit to typ and creates its column with the given number of slots.
func (r *componentRegistry) register(typ reflect.Type, factory columnFactory, slots int) (componentID, error) {
	if typ == nil {
		return 0, eris.New("component type cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.catalog[typ]; exists {
		return 0, eris.Wrapf(ErrDuplicateRegistration, "component %s", typ)
	}
	if r.capacity > 0 && len(r.columns) >= r.capacity {
		return 0, eris.Wrapf(ErrCapacityExceeded, "cannot register %s, limit is %d", typ, r.capacity)
	}

	id := componentID(len(r.columns)) //nolint:gosec // bounded by capacity or memory
	r.catalog[typ] = id
	r.columns = append(r.columns, factory(slots))
	assert.That(int(id) == len(r.columns)-1, "component id doesn't match number of columns")

	return id, nil
}

// id returns a component type's bit.
func (r *componentRegistry) id(typ reflect.Type) (componentID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.catalog[typ]
	if !exists {
		return 0, eris.Wrapf(ErrComponentNotRegistered, "component %s", typ)
	}
	return id, nil
}

// column returns the column storing a component type along with its bit.
func (r *componentRegistry) column(typ reflect.Type) (abstractColumn, componentID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.catalog[typ]
	if !exists {
		return nil, 0, eris.Wrapf(ErrComponentNotRegistered, "component %s", typ)
	}
	return r.columns[id], id, nil
}

// columnByID returns the column for a bit that is known to be assigned.
func (r *componentRegistry) columnByID(id componentID) abstractColumn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assert.That(int(id) < len(r.columns), "component id %d was never assigned", id)
	return r.columns[id]
}

// resolved pairs a component value with the column and bit it belongs to.
type resolved struct {
	id    componentID
	col   abstractColumn
	value any
}

// resolve looks up every component's column and builds their combined bitmap. It fails before
// anything is written if any component type is unregistered.
func (r *componentRegistry) resolve(components []any) ([]resolved, bitmap.Bitmap, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var bits bitmap.Bitmap
	out := make([]resolved, 0, len(components))
	for _, c := range components {
		typ := reflect.TypeOf(c)
		id, exists := r.catalog[typ]
		if !exists {
			return nil, bitmap.Bitmap{}, eris.Wrapf(ErrComponentNotRegistered, "component %v", typ)
		}
		bits.Set(id)
		out = append(out, resolved{id: id, col: r.columns[id], value: c})
	}
	return out, bits, nil
}

// grow extends every column by one empty slot. The caller holds the membership write lock so all
// columns grow in step with the mask sequence.
func (r *componentRegistry) grow() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, col := range r.columns {
		col.extend()
	}
}

// types returns the registered component types ordered by bit.
func (r *componentRegistry) types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]reflect.Type, len(r.columns))
	for typ, id := range r.catalog {
		out[id] = typ
	}
	return out
}

// count returns the number of registered component types.
func (r *componentRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.columns)
}
