package ecs

import "reflect"

// ComponentKind is the dense identifier a ComponentRegistry assigns to a component type.
// Kinds are handed out in registration order starting at 1.
type ComponentKind uint32

// ComponentRegistry maps component types to kinds and knows how to allocate a
// column for each. Every Storage has its own registry.
type ComponentRegistry struct {
	kinds   map[reflect.Type]ComponentKind
	types   []reflect.Type
	columns []func() column
}

func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{kinds: make(map[reflect.Type]ComponentKind)}
}

// RegisterComponent registers T and returns its kind. A type must be registered
// before it is spawned or named in an Access. Registering T again returns the
// kind assigned the first time.
func RegisterComponent[T any](r *ComponentRegistry) ComponentKind {
	t := reflect.TypeFor[T]()
	if kind, ok := r.kinds[t]; ok {
		return kind
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		panic("component " + t.String() + " must be a value type")
	}

	r.types = append(r.types, t)
	r.columns = append(r.columns, func() column { return &blockColumn[T]{} })
	kind := ComponentKind(len(r.types))
	r.kinds[t] = kind
	return kind
}

// Kind returns the kind registered for t.
func (r *ComponentRegistry) Kind(t reflect.Type) (ComponentKind, bool) {
	kind, ok := r.kinds[t]
	return kind, ok
}

// Type returns the component type registered under kind, or nil.
func (r *ComponentRegistry) Type(kind ComponentKind) reflect.Type {
	if kind == 0 || int(kind) > len(r.types) {
		return nil
	}
	return r.types[kind-1]
}

func (r *ComponentRegistry) newColumn(kind ComponentKind) column {
	return r.columns[kind-1]()
}

// mustKind resolves the kind of a spawned value, which may be a T or a *T.
func (r *ComponentRegistry) mustKind(value any) ComponentKind {
	t := reflect.TypeOf(value)
	if t == nil {
		panic("cannot spawn a nil component")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	kind, ok := r.kinds[t]
	if !ok {
		panic("component type " + t.String() + " not registered")
	}
	return kind
}
