package ecs

import (
	"reflect"
	"unsafe"
)

// Singleton provides direct access to a single value that is not associated with
// any entity, such as shared configuration read by several systems.
type Singleton[T any] struct {
	storage      *Storage
	componentPtr unsafe.Pointer
}

// NewSingleton returns an accessor for the singleton of type T, creating it from
// initializer (or the zero value) when the storage does not hold one yet.
func NewSingleton[T any](storage *Storage, initializer ...T) *Singleton[T] {
	componentType := reflect.TypeFor[T]()

	entry := storage.getSingletonEntry(componentType)
	if entry == nil {
		var value T
		if len(initializer) > 0 {
			value = initializer[0]
		}
		storage.AddSingleton(value)
		entry = storage.getSingletonEntry(componentType)
	}

	return &Singleton[T]{
		storage:      storage,
		componentPtr: entry.dataPtr,
	}
}

// Get returns a pointer to the singleton value.
func (s *Singleton[T]) Get() *T {
	return (*T)(s.componentPtr)
}

// Set replaces the singleton value in place.
func (s *Singleton[T]) Set(value T) {
	*(*T)(s.componentPtr) = value
}
