package ecs

import (
	"reflect"
	"sync"

	"github.com/rotisserie/eris"
)

// resource is a single stored value. Its lock is taken while a ResourceRef or ResourceMut callback
// runs.
type resource struct {
	mu    sync.RWMutex
	value any // Always a *T for the type the resource is keyed under
}

type resourceStore struct {
	mu   sync.RWMutex
	data map[reflect.Type]*resource
}

// Resources is a singleton store keyed by type: at most one value of each type. A Resources obtained
// through read access rejects every mutation with ErrReadOnlyAccess.
type Resources struct {
	store    *resourceStore
	readOnly bool
}

func newResources() Resources {
	return Resources{store: &resourceStore{data: make(map[reflect.Type]*resource)}}
}

// readOnlyView returns a view of the same store that cannot be mutated.
func (r Resources) readOnlyView() Resources {
	return Resources{store: r.store, readOnly: true}
}

// AddResource stores value as the resource of type T. It fails if a resource of that type already
// exists; remove it first to replace it.
func AddResource[T any](r Resources, value T) error {
	typ := reflect.TypeFor[T]()
	if r.readOnly {
		return eris.Wrapf(ErrReadOnlyAccess, "cannot add resource %s", typ)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.data[typ]; exists {
		return eris.Wrapf(ErrResourceAlreadyPresent, "resource %s", typ)
	}
	r.store.data[typ] = &resource{value: &value}
	return nil
}

// RemoveResource removes the resource of type T. Removing a missing resource is a no-op.
func RemoveResource[T any](r Resources) error {
	typ := reflect.TypeFor[T]()
	if r.readOnly {
		return eris.Wrapf(ErrReadOnlyAccess, "cannot remove resource %s", typ)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.data, typ)
	return nil
}

// ResourceRef runs fn with shared access to the resource of type T.
func ResourceRef[T any](r Resources, fn func(*T)) error {
	res, err := lookupResource[T](r)
	if err != nil {
		return err
	}
	res.mu.RLock()
	defer res.mu.RUnlock()
	fn(res.value.(*T)) //nolint:errcheck,forcetypeassert // keyed by T, so the assertion holds
	return nil
}

// ResourceMut runs fn with exclusive access to the resource of type T.
func ResourceMut[T any](r Resources, fn func(*T)) error {
	if r.readOnly {
		return eris.Wrapf(ErrReadOnlyAccess, "cannot write resource %s", reflect.TypeFor[T]())
	}
	res, err := lookupResource[T](r)
	if err != nil {
		return err
	}
	res.mu.Lock()
	defer res.mu.Unlock()
	fn(res.value.(*T)) //nolint:errcheck,forcetypeassert // keyed by T, so the assertion holds
	return nil
}

// HasResource reports whether a resource of type T exists.
func HasResource[T any](r Resources) bool {
	_, err := lookupResource[T](r)
	return err == nil
}

// lookupResource finds the entry for T. The store lock is released before the entry is used, so a
// callback may add or remove other resources.
func lookupResource[T any](r Resources) (*resource, error) {
	typ := reflect.TypeFor[T]()

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	res, exists := r.store.data[typ]
	if !exists {
		return nil, eris.Wrapf(ErrResourceDoesNotExist, "resource %s", typ)
	}
	return res, nil
}
