// Package ecs is an entity component system. Entities are positional slots, components are plain
// Go values keyed by their type, and queries select entities by the set of component types they
// hold. Systems are grouped into stages by their declared dependencies and the systems of a stage
// run concurrently against the same World.
package ecs

import "reflect"

// componentRegistrar is implemented by the stores components can be registered with.
type componentRegistrar interface {
	registerType(typ reflect.Type, factory columnFactory) error
}

// componentRemover is implemented by everything that can remove a component by type: the entity
// store, the world and a system's access token.
type componentRemover interface {
	RemoveComponentType(id EntityID, typ reflect.Type) error
}

// componentChecker is implemented by everything that can check component membership.
type componentChecker interface {
	HasType(id EntityID, typ reflect.Type) bool
}

// RegisterComponent registers component type T. A type must be registered before any entity can
// carry it, and may only be registered once.
func RegisterComponent[T any](r componentRegistrar) error {
	return r.registerType(reflect.TypeFor[T](), newColumnFactory[T]())
}

// RemoveComponent removes the component of type T from the entity at id. Removing a component the
// entity doesn't have is a no-op.
func RemoveComponent[T any](r componentRemover, id EntityID) error {
	return r.RemoveComponentType(id, reflect.TypeFor[T]())
}

// Has checks if the entity at id holds a component of type T. Returns false if either the entity
// doesn't exist or doesn't have the component.
func Has[T any](c componentChecker, id EntityID) bool {
	return c.HasType(id, reflect.TypeFor[T]())
}
