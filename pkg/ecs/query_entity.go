package ecs

import (
	"reflect"
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// QueryEntity is a handle to one entity slot. It gives scoped access to the entity's components and
// routes mutations back through the entity store. After Delete the handle is dead and every method
// returns ErrEntityDoesNotExist.
type QueryEntity struct {
	id       EntityID
	store    *Entities
	readOnly bool
	deleted  atomic.Bool
}

func newQueryEntity(id EntityID, store *Entities, readOnly bool) *QueryEntity {
	return &QueryEntity{id: id, store: store, readOnly: readOnly}
}

// ID returns the entity's slot.
func (h *QueryEntity) ID() EntityID {
	return h.id
}

// ComponentRef runs fn with shared access to the entity's component of type T. fn must not modify
// the value, and must not access the same component of this entity again while it runs.
func ComponentRef[T any](h *QueryEntity, fn func(*T)) error {
	col, err := handleColumn[T](h)
	if err != nil {
		return err
	}
	return col.read(int(h.id), fn)
}

// ComponentMut runs fn with exclusive access to the entity's component of type T. Only the cell is
// locked while fn runs, so fn may use the store but must not access the same component of this
// entity again.
func ComponentMut[T any](h *QueryEntity, fn func(*T)) error {
	if h.readOnly {
		return eris.Wrapf(ErrReadOnlyAccess, "cannot write %s", reflect.TypeFor[T]())
	}
	col, err := handleColumn[T](h)
	if err != nil {
		return err
	}
	return col.write(int(h.id), fn)
}

// handleColumn returns the column of T for a live handle.
func handleColumn[T any](h *QueryEntity) (*column[T], error) {
	if h.deleted.Load() {
		return nil, eris.Wrapf(ErrEntityDoesNotExist, "entity %d was deleted through this handle", h.id)
	}
	typ := reflect.TypeFor[T]()
	col, _, err := h.store.components.column(typ)
	if err != nil {
		return nil, eris.Wrapf(ErrComponentNotInQuery, "component %s", typ)
	}
	return toColumn[T](col), nil
}

// Has reports whether the entity currently holds a component of type typ.
func (h *QueryEntity) Has(typ reflect.Type) bool {
	return !h.deleted.Load() && h.store.HasType(h.id, typ)
}

// AddComponent sets a component on the entity.
func (h *QueryEntity) AddComponent(data any) error {
	if err := h.checkMutable(); err != nil {
		return err
	}
	return h.store.AddComponent(h.id, data)
}

// RemoveComponentType removes the component of type typ from the entity.
func (h *QueryEntity) RemoveComponentType(typ reflect.Type) error {
	if err := h.checkMutable(); err != nil {
		return err
	}
	return h.store.RemoveComponentType(h.id, typ)
}

// Remove removes the component of type T from the entity behind the handle.
func Remove[T any](h *QueryEntity) error {
	return h.RemoveComponentType(reflect.TypeFor[T]())
}

// Delete deletes the entity and invalidates the handle.
func (h *QueryEntity) Delete() error {
	if err := h.checkMutable(); err != nil {
		return err
	}
	if !h.deleted.CompareAndSwap(false, true) {
		return eris.Wrapf(ErrEntityDoesNotExist, "entity %d was deleted through this handle", h.id)
	}
	return h.store.DeleteEntity(h.id)
}

func (h *QueryEntity) checkMutable() error {
	if h.readOnly {
		return eris.Wrapf(ErrReadOnlyAccess, "entity %d", h.id)
	}
	if h.deleted.Load() {
		return eris.Wrapf(ErrEntityDoesNotExist, "entity %d was deleted through this handle", h.id)
	}
	return nil
}
