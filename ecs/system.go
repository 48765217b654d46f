package ecs

import "reflect"

// Phase tags the stage of a tick a system belongs to. Phases run strictly in
// order; systems inside one phase may run concurrently.
type Phase int

const (
	// Idle is reported between ticks.
	Idle Phase = iota
	// Simulate holds systems that advance component state.
	Simulate
	// Present holds systems that read simulated state and hand it to the GPU.
	Present
)

// phases lists the phases executed by a tick, in order.
var phases = [...]Phase{Simulate, Present}

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Simulate:
		return "simulate"
	case Present:
		return "present"
	default:
		return "unknown"
	}
}

// Handle is a per-system view into the storage, refreshed by the Scheduler
// before the system runs. *Query[T] implements it.
type Handle interface {
	Types() []reflect.Type
	// Writes is the subset of Types the handle can mutate.
	Writes() []reflect.Type
	Execute()
}

// System is a unit of logic: a function over the handles it declared, tagged
// with the phase it runs in and the component access it needs.
type System struct {
	Name    string
	Phase   Phase
	Access  *Access
	Handles []Handle
	Run     func(frame *UpdateFrame) error
}
