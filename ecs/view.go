package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// viewField is one field of a view struct.
type viewField struct {
	typ      reflect.Type
	offset   uintptr
	optional bool
	// copied fields hold a value instead of a pointer into the storage.
	copied bool
}

// View iterates the entities holding a combination of components. T is a
// struct whose fields are components or pointers to components.
//
// Pointer fields point into the storage, so writes through them are visible
// to every other reader; a system holding one must declare the type written.
// Value fields receive a copy and are how a view reads a component. Named
// pointer fields may be tagged `ecs:"optional"` and are nil when the entity
// lacks the component.
type View[T any] struct {
	storage *Storage
	fields  []viewField
}

// binding resolves a view's fields against one archetype. Missing optional
// fields have a nil column.
type binding struct {
	arch    *archetype
	columns []column
}

func NewView[T any](storage *Storage) *View[T] {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("View type parameter must be a struct")
	}

	fields := make([]viewField, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		copied := field.Type.Kind() != reflect.Pointer

		optional := false
		switch tag := field.Tag.Get("ecs"); {
		case tag == "":
		case tag == "optional" && !field.Anonymous && !copied:
			optional = true
		default:
			panic("invalid ecs tag value: \"" + tag + "\" on " + field.Name +
				" (only \"optional\" on named pointer fields is supported)")
		}

		typ := field.Type
		if !copied {
			typ = typ.Elem()
		}
		fields = append(fields, viewField{
			typ:      typ,
			offset:   field.Offset,
			optional: optional,
			copied:   copied,
		})
	}
	return &View[T]{storage: storage, fields: fields}
}

// Types returns the component types this view touches, required and optional.
func (v *View[T]) Types() []reflect.Type {
	types := make([]reflect.Type, len(v.fields))
	for i, f := range v.fields {
		types[i] = f.typ
	}
	return types
}

// Writes returns the component types reachable through pointer fields.
func (v *View[T]) Writes() []reflect.Type {
	var types []reflect.Type
	for _, f := range v.fields {
		if !f.copied {
			types = append(types, f.typ)
		}
	}
	return types
}

// bind reports whether arch holds every required field.
func (v *View[T]) bind(arch *archetype) (binding, bool) {
	b := binding{arch: arch, columns: make([]column, len(v.fields))}
	for i, f := range v.fields {
		b.columns[i] = arch.column(f.typ)
		if b.columns[i] == nil && !f.optional {
			return binding{}, false
		}
	}
	return b, true
}

// fill points the pointer fields of *out at the components of entity index
// and copies the value fields.
func (v *View[T]) fill(b binding, index int, out *T) {
	base := unsafe.Pointer(out)
	for i, col := range b.columns {
		dst := unsafe.Add(base, v.fields[i].offset)
		if v.fields[i].copied {
			col.load(index, dst)
			continue
		}
		var p unsafe.Pointer
		if col != nil {
			p = col.at(index)
		}
		*(*unsafe.Pointer)(dst) = p
	}
}

// Get returns the view of id, or nil when id lacks a required component.
func (v *View[T]) Get(id EntityId) *T {
	arch, index := v.storage.locate(id)
	if arch == nil {
		return nil
	}
	b, ok := v.bind(arch)
	if !ok {
		return nil
	}
	var out T
	v.fill(b, index, &out)
	return &out
}

// each yields every entity of one binding in spawn order.
func (v *View[T]) each(b binding, yield func(EntityId, T) bool) bool {
	var item T
	for index := range b.arch.len() {
		v.fill(b, index, &item)
		if !yield(NewEntityId(b.arch.id, uint32(index)), item) {
			return false
		}
	}
	return true
}

// Iter yields (id, view) pairs. Archetypes are visited in creation order and
// entities in spawn order.
func (v *View[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		for _, arch := range v.storage.archetypes {
			b, ok := v.bind(arch)
			if ok && !v.each(b, yield) {
				return
			}
		}
	}
}

// Values is Iter without the ids.
func (v *View[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range v.Iter() {
			if !yield(item) {
				return
			}
		}
	}
}
