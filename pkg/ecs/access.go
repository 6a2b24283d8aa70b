package ecs

import (
	"context"
	"reflect"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// AccessMode declares whether a system only reads the world or also mutates it.
type AccessMode uint8

const (
	// ReadAccess allows queries, component reads and resource reads.
	ReadAccess AccessMode = iota
	// WriteAccess additionally allows creating, changing and deleting entities and resources.
	WriteAccess
)

func (m AccessMode) String() string {
	switch m {
	case ReadAccess:
		return "read"
	case WriteAccess:
		return "write"
	default:
		return "unknown"
	}
}

// Access is the capability a system receives in place of the world. Its mode is fixed when the
// system is registered; every mutation attempted through read access fails with ErrReadOnlyAccess.
// All operations go through the store's own locks, so systems in the same stage can share it.
type Access struct {
	ctx    context.Context
	world  *World
	mode   AccessMode
	logger zerolog.Logger
}

func newAccess(ctx context.Context, world *World, mode AccessMode, logger zerolog.Logger) *Access {
	return &Access{ctx: ctx, world: world, mode: mode, logger: logger}
}

// Context returns the context of the running dispatch. It carries the system's trace span.
func (a *Access) Context() context.Context {
	return a.ctx
}

// Mode returns the access mode the system was registered with.
func (a *Access) Mode() AccessMode {
	return a.mode
}

// Logger returns a logger tagged with the system's name.
func (a *Access) Logger() *zerolog.Logger {
	return &a.logger
}

// Query starts a query. Handles from a read access query reject mutation.
func (a *Access) Query() *Query {
	q := a.world.Query()
	q.readOnly = a.mode == ReadAccess
	return q
}

// Entity returns a handle to the live entity at id.
func (a *Access) Entity(id EntityID) (*QueryEntity, error) {
	h, err := a.world.Entity(id)
	if err != nil {
		return nil, err
	}
	h.readOnly = a.mode == ReadAccess
	return h, nil
}

// Alive reports whether the slot holds an entity.
func (a *Access) Alive(id EntityID) bool {
	return a.world.entities.Alive(id)
}

// Count returns the number of live entities.
func (a *Access) Count() int {
	return a.world.entities.Count()
}

// HasType reports whether the entity at id holds a component of type typ.
func (a *Access) HasType(id EntityID, typ reflect.Type) bool {
	return a.world.HasType(id, typ)
}

// Resources returns the resource store, read-only under read access.
func (a *Access) Resources() Resources {
	if a.mode == ReadAccess {
		return a.world.resources.readOnlyView()
	}
	return a.world.resources
}

// CreateEntity creates an entity holding the given components.
func (a *Access) CreateEntity(components ...any) (EntityID, error) {
	if err := a.checkWrite("create entity"); err != nil {
		return 0, err
	}
	return a.world.CreateEntity(components...)
}

// AddComponent sets a component on the entity at id.
func (a *Access) AddComponent(id EntityID, data any) error {
	if err := a.checkWrite("add component"); err != nil {
		return err
	}
	return a.world.AddComponent(id, data)
}

// RemoveComponentType removes the component of type typ from the entity at id.
func (a *Access) RemoveComponentType(id EntityID, typ reflect.Type) error {
	if err := a.checkWrite("remove component"); err != nil {
		return err
	}
	return a.world.RemoveComponentType(id, typ)
}

// DeleteEntity deletes the entity at id.
func (a *Access) DeleteEntity(id EntityID) error {
	if err := a.checkWrite("delete entity"); err != nil {
		return err
	}
	return a.world.DeleteEntity(id)
}

func (a *Access) checkWrite(op string) error {
	if a.mode != WriteAccess {
		return eris.Wrapf(ErrReadOnlyAccess, "cannot %s", op)
	}
	return nil
}
