package ecs

import (
	"math"
	"reflect"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// EntityID is the index of an entity slot. Identity is purely positional: once an entity is
// deleted its slot may be handed to the next entity that is created.
type EntityID uint32

// MaxEntityID is the maximum entity ID that can be created.
const MaxEntityID = math.MaxUint32 - 1

// Entities is the entity store. It owns the component columns and the membership index, and is safe
// for concurrent use.
//
// Locks are always taken in the order membership -> registry -> column -> cell, and never the other
// way around. Column locks are released before a ComponentRef or ComponentMut callback runs and
// only the cell stays locked, so a callback may use the store freely but must not access the same
// component of the same entity again.
type Entities struct {
	members    membership
	components componentRegistry
	scanner    scanner
	logger     zerolog.Logger
}

// newEntities creates an empty entity store.
func newEntities(opts WorldOptions, logger zerolog.Logger) *Entities {
	return &Entities{
		members:    newMembership(),
		components: newComponentRegistry(opts.MaxComponents),
		scanner:    newScanner(opts.Workers, opts.ParallelScanThreshold),
		logger:     logger,
	}
}

// registerType registers a component type and creates its column at the current slot count.
func (e *Entities) registerType(typ reflect.Type, factory columnFactory) error {
	// Hold the membership lock so no slot is allocated while the column is being created.
	e.members.mu.RLock()
	defer e.members.mu.RUnlock()

	id, err := e.components.register(typ, factory, e.members.len())
	if err != nil {
		return err
	}
	e.logger.Debug().Str("component", typ.String()).Uint32("bit", id).Msg("component registered")
	return nil
}

// CreateEntity creates an entity holding the given components and returns its slot. Every component
// type is validated before anything is written, so a failed create leaves the store untouched. If
// the same type is passed more than once, the last value wins.
//
// The lowest tombstoned slot is reused; if there is none every column grows by one slot. The
// membership lock is only held while reserving and publishing the slot, so creates that touch
// disjoint component types write their values concurrently.
//
// A create without components returns a slot that is not alive: its mask is empty, so the slot is
// immediately free again and the next create may be handed the same id.
func (e *Entities) CreateEntity(components ...any) (EntityID, error) {
	comps, bits, err := e.components.resolve(components)
	if err != nil {
		return 0, eris.Wrap(err, "failed to create entity")
	}

	id, err := e.reserve()
	if err != nil {
		return 0, err
	}

	for _, c := range comps {
		c.col.setAbstract(int(id), c.value)
	}

	e.members.mu.Lock()
	e.members.publish(id, bits)
	e.members.mu.Unlock()

	return id, nil
}

// reserve finds or allocates a slot and marks it as pending.
func (e *Entities) reserve() (EntityID, error) {
	e.members.mu.Lock()
	defer e.members.mu.Unlock()

	id, found := e.members.free()
	if !found {
		if e.members.len() > MaxEntityID {
			return 0, eris.New("max number of entities exceeded")
		}
		id = e.members.allocate()
		e.components.grow()
	}
	e.members.reserve(id)
	return id, nil
}

// AddComponent sets a component on the entity at id, replacing any existing value of the same type.
// Adding a component to a tombstoned slot revives it.
func (e *Entities) AddComponent(id EntityID, data any) error {
	col, cid, err := e.components.column(reflect.TypeOf(data))
	if err != nil {
		return eris.Wrapf(err, "failed to add component to entity %d", id)
	}

	e.members.mu.Lock()
	defer e.members.mu.Unlock()

	if !e.members.inRange(id) {
		return eris.Wrapf(ErrEntityDoesNotExist, "entity %d", id)
	}
	col.setAbstract(int(id), data)
	e.members.set(id, cid)
	return nil
}

// RemoveComponentType removes the component of type typ from the entity at id. Removing a
// component the entity doesn't have is a no-op. An entity left with no components becomes a
// tombstone.
func (e *Entities) RemoveComponentType(id EntityID, typ reflect.Type) error {
	col, cid, err := e.components.column(typ)
	if err != nil {
		return eris.Wrapf(err, "failed to remove component from entity %d", id)
	}

	e.members.mu.Lock()
	defer e.members.mu.Unlock()

	if !e.members.inRange(id) {
		return eris.Wrapf(ErrEntityDoesNotExist, "entity %d", id)
	}
	if e.members.unset(id, cid) {
		col.clear(int(id))
	}
	return nil
}

// DeleteEntity clears the entity's mask, leaving a tombstone that the next create may reuse. The
// component values it held are dropped. Deleting a slot that is already a tombstone is a no-op; only
// an out of range id is an error.
func (e *Entities) DeleteEntity(id EntityID) error {
	e.members.mu.Lock()
	defer e.members.mu.Unlock()

	if !e.members.inRange(id) {
		return eris.Wrapf(ErrEntityDoesNotExist, "entity %d", id)
	}

	e.members.masks[id].Range(func(cid uint32) {
		e.components.columnByID(cid).clear(int(id))
	})
	e.members.reset(id)
	return nil
}

// Alive reports whether the slot holds an entity, i.e. its mask is not empty.
func (e *Entities) Alive(id EntityID) bool {
	e.members.mu.RLock()
	defer e.members.mu.RUnlock()
	return e.members.alive(id)
}

// Len returns the number of slots ever allocated. It never shrinks.
func (e *Entities) Len() int {
	e.members.mu.RLock()
	defer e.members.mu.RUnlock()
	return e.members.len()
}

// Count returns the number of live entities.
func (e *Entities) Count() int {
	e.members.mu.RLock()
	defer e.members.mu.RUnlock()

	var n int
	for id := range e.members.masks {
		if e.members.masks[id].Count() > 0 {
			n++
		}
	}
	return n
}

// ComponentTypes returns the registered component types ordered by their bit.
func (e *Entities) ComponentTypes() []reflect.Type {
	return e.components.types()
}

// HasType reports whether the entity at id currently holds a component of type typ.
func (e *Entities) HasType(id EntityID, typ reflect.Type) bool {
	cid, err := e.components.id(typ)
	if err != nil {
		return false
	}

	e.members.mu.RLock()
	defer e.members.mu.RUnlock()
	return e.members.inRange(id) && e.members.masks[id].Contains(cid)
}

// Query starts a query over the store.
func (e *Entities) Query() *Query {
	return newQuery(e)
}

// Entity returns a handle to the live entity at id.
func (e *Entities) Entity(id EntityID) (*QueryEntity, error) {
	if !e.Alive(id) {
		return nil, eris.Wrapf(ErrEntityDoesNotExist, "entity %d", id)
	}
	return newQueryEntity(id, e, false), nil
}
