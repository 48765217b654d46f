package ecs

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// archetype stores the entities sharing one set of component kinds. Kinds are
// kept sorted and every column has one value per entity.
type archetype struct {
	id      uint32
	kinds   []ComponentKind
	types   []reflect.Type
	columns []column
}

func newArchetype(id uint32, kinds []ComponentKind, registry *ComponentRegistry) *archetype {
	a := &archetype{
		id:      id,
		kinds:   kinds,
		types:   make([]reflect.Type, len(kinds)),
		columns: make([]column, len(kinds)),
	}
	for i, kind := range kinds {
		a.types[i] = registry.Type(kind)
		a.columns[i] = registry.newColumn(kind)
	}
	return a
}

// signature is the lookup key of a sorted kind set.
func signature(kinds []ComponentKind) string {
	var b strings.Builder
	for i, kind := range kinds {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(kind), 10))
	}
	return b.String()
}

// spawn appends one entity. values are ordered like a.kinds.
func (a *archetype) spawn(values []any) uint32 {
	index := a.len()
	for i, v := range values {
		a.columns[i].push(v)
	}
	return uint32(index)
}

// column returns the column of t, or nil when the archetype lacks it.
func (a *archetype) column(t reflect.Type) column {
	if i := slices.Index(a.types, t); i >= 0 {
		return a.columns[i]
	}
	return nil
}

func (a *archetype) len() int {
	if len(a.columns) == 0 {
		return 0
	}
	return a.columns[0].len()
}
