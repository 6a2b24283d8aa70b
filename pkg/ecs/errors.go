package ecs

import "github.com/rotisserie/eris"

var (
	// ErrComponentNotRegistered is returned when an operation references a component type that was
	// never registered with the store.
	ErrComponentNotRegistered = eris.New("component not registered")

	// ErrEntityDoesNotExist is returned when a slot index is out of range, or when a deleted query
	// handle is used again.
	ErrEntityDoesNotExist = eris.New("entity does not exist")

	// ErrComponentNotInQuery is returned when a handle is asked for a component type the store has
	// no column for.
	ErrComponentNotInQuery = eris.New("component not in query")

	// ErrComponentDataDoesNotExist is returned when a slot has no value for a known component type.
	ErrComponentDataDoesNotExist = eris.New("component data does not exist")

	// ErrDuplicateRegistration is returned when a component type is registered twice.
	ErrDuplicateRegistration = eris.New("component already registered")

	// ErrCapacityExceeded is returned when registering more component types than the configured
	// maximum.
	ErrCapacityExceeded = eris.New("component capacity exceeded")

	ErrResourceDoesNotExist   = eris.New("resource does not exist")
	ErrResourceAlreadyPresent = eris.New("resource already present")

	// ErrReadOnlyAccess is returned when a system holding read access attempts a mutation.
	ErrReadOnlyAccess = eris.New("mutation through read-only access")

	ErrInvalidSystem     = eris.New("invalid system")
	ErrDuplicateSystem   = eris.New("duplicate system name")
	ErrUnknownDependency = eris.New("unknown system dependency")
	ErrCyclicDependency  = eris.New("cyclic system dependency")
)
