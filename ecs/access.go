package ecs

import (
	"reflect"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// ErrAccessConflict is returned when a system's declared component access is
// inconsistent with how the scheduler would run it.
var ErrAccessConflict = errors.New("component access conflict")

// ErrUnregisteredComponent is returned when an access declaration names a
// component type the registry does not know.
var ErrUnregisteredComponent = errors.New("component type not registered")

// Access declares which component types a system reads and which it writes.
// A type that is both read and written counts as written.
type Access struct {
	reads  []reflect.Type
	writes []reflect.Type
}

// NewAccess creates an empty access declaration.
func NewAccess() *Access {
	return &Access{}
}

// TypeFor is shorthand for reflect.TypeFor, for use in access declarations.
func TypeFor[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Read adds component types the system only reads.
func (a *Access) Read(types ...reflect.Type) *Access {
	for _, t := range types {
		if !slices.Contains(a.reads, t) && !slices.Contains(a.writes, t) {
			a.reads = append(a.reads, t)
		}
	}
	return a
}

// Write adds component types the system mutates.
func (a *Access) Write(types ...reflect.Type) *Access {
	for _, t := range types {
		a.reads = slices.DeleteFunc(a.reads, func(r reflect.Type) bool { return r == t })
		if !slices.Contains(a.writes, t) {
			a.writes = append(a.writes, t)
		}
	}
	return a
}

// Reads returns the read-only component types.
func (a *Access) Reads() []reflect.Type {
	return slices.Clone(a.reads)
}

// Writes returns the written component types.
func (a *Access) Writes() []reflect.Type {
	return slices.Clone(a.writes)
}

// Covers reports whether t is declared, either read or written.
func (a *Access) Covers(t reflect.Type) bool {
	return slices.Contains(a.reads, t) || slices.Contains(a.writes, t)
}

// Mutates reports whether t is declared written.
func (a *Access) Mutates(t reflect.Type) bool {
	return slices.Contains(a.writes, t)
}

// Conflicts returns the component types that make a and other unsafe to run
// concurrently: anything one side writes and the other side touches.
func (a *Access) Conflicts(other *Access) []reflect.Type {
	var conflicts []reflect.Type
	for _, w := range a.writes {
		if other.Covers(w) {
			conflicts = append(conflicts, w)
		}
	}
	for _, w := range other.writes {
		if a.Covers(w) && !slices.Contains(conflicts, w) {
			conflicts = append(conflicts, w)
		}
	}
	return conflicts
}

func (a *Access) String() string {
	var b strings.Builder
	b.WriteString("read[")
	b.WriteString(typeNames(a.reads))
	b.WriteString("] write[")
	b.WriteString(typeNames(a.writes))
	b.WriteString("]")
	return b.String()
}

type kindAccess struct {
	kind  ComponentKind
	write bool
}

// kinds resolves the declared types against registry, sorted by kind.
// Unregistered types are a programming error and panic here; Scheduler.Register
// rejects them before a system can ever run.
func (a *Access) kinds(registry *ComponentRegistry) []kindAccess {
	out := make([]kindAccess, 0, len(a.reads)+len(a.writes))
	for _, t := range a.reads {
		kind, ok := registry.Kind(t)
		if !ok {
			panic("component type " + t.String() + " not registered")
		}
		out = append(out, kindAccess{kind: kind})
	}
	for _, t := range a.writes {
		kind, ok := registry.Kind(t)
		if !ok {
			panic("component type " + t.String() + " not registered")
		}
		out = append(out, kindAccess{kind: kind, write: true})
	}
	slices.SortFunc(out, func(x, y kindAccess) int { return int(x.kind) - int(y.kind) })
	return out
}

// validate checks that every declared type is registered.
func (a *Access) validate(registry *ComponentRegistry) error {
	for _, t := range append(slices.Clone(a.reads), a.writes...) {
		if _, ok := registry.Kind(t); !ok {
			return errors.Wrapf(ErrUnregisteredComponent, "%s", t)
		}
	}
	return nil
}

func typeNames(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, " ")
}
