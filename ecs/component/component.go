// Package component hands out the typed keys the world stores components
// under.
package component

import (
	"errors"
	"reflect"
	"sync/atomic"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
)

// ComponentID keys a storage in the world. Zero is never issued.
type ComponentID uint32

var nextComponentID atomic.Uint32

// ComponentKind identifies a component storage. Two kinds created for the
// same T are distinct storages.
type ComponentKind[T any] struct {
	id   ComponentID
	name string
}

func NewComponentKind[T any]() ComponentKind[T] {
	return ComponentKind[T]{
		id:   ComponentID(nextComponentID.Add(1)),
		name: reflect.TypeFor[T]().String(),
	}
}

func (k ComponentKind[T]) ID() ComponentID {
	return k.id
}

func (k ComponentKind[T]) Valid() bool {
	return k.id != 0
}

// String names the stored type, e.g. "dialogue.DialogueEngine".
func (k ComponentKind[T]) String() string {
	if k.name == "" {
		return reflect.TypeFor[T]().String()
	}
	return k.name
}

// ComponentHandle is what packages export for their components:
//
//	var YarnDataComponent = component.NewComponent[YarnData]()
type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

func NewComponent[T any]() ComponentHandle[T] {
	return ComponentHandle[T]{kind: NewComponentKind[T]()}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] {
	return h.kind
}
