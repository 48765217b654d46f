package ecs

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Frames          uint64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Phase          Phase
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

type registeredSystem struct {
	System
	stats systemStatsInternal
}

// Scheduler runs registered systems phase by phase. Within a phase, systems run
// concurrently; their declared access must therefore be disjoint, which Register
// enforces. The scheduler owns no goroutines outside of Once.
type Scheduler struct {
	storage  *Storage
	byPhase  map[Phase][]*registeredSystem
	order    []*registeredSystem
	phase    atomic.Int32
	frames   uint64
	commands *Commands
}

// NewScheduler creates a new scheduler for the given storage.
func NewScheduler(storage *Storage) *Scheduler {
	return &Scheduler{
		storage:  storage,
		byPhase:  make(map[Phase][]*registeredSystem),
		commands: newCommands(),
	}
}

// Commands returns the buffer flushed around every tick. Commands queued
// between ticks run before the next tick's first phase; commands queued by
// systems run after its last phase.
func (s *Scheduler) Commands() *Commands {
	return s.commands
}

// Register adds a system to the scheduler. It fails with ErrAccessConflict when a
// handle of the system reaches outside the declared access, or when the system
// conflicts with another system of the same phase. Unregistered component types
// fail with ErrUnregisteredComponent.
func (s *Scheduler) Register(system System) error {
	if system.Run == nil {
		return errors.Errorf("system %q has no run function", system.Name)
	}
	if system.Phase != Simulate && system.Phase != Present {
		return errors.Errorf("system %q has invalid phase %s", system.Name, system.Phase)
	}
	if system.Access == nil {
		system.Access = NewAccess()
	}

	if err := system.Access.validate(s.storage.registry); err != nil {
		return errors.Wrapf(err, "system %q", system.Name)
	}

	for _, handle := range system.Handles {
		for _, t := range handle.Types() {
			if !system.Access.Covers(t) {
				return errors.Wrapf(ErrAccessConflict,
					"system %q uses %s outside its declared access %s", system.Name, t, system.Access)
			}
		}
		for _, t := range handle.Writes() {
			if !system.Access.Mutates(t) {
				return errors.Wrapf(ErrAccessConflict,
					"system %q holds a writable %s but declares %s", system.Name, t, system.Access)
			}
		}
	}

	for _, other := range s.byPhase[system.Phase] {
		if conflicts := system.Access.Conflicts(other.Access); len(conflicts) > 0 {
			return errors.Wrapf(ErrAccessConflict,
				"systems %q and %q share the %s phase but both access %s",
				system.Name, other.Name, system.Phase, typeNames(conflicts))
		}
	}

	registered := &registeredSystem{
		System: system,
		stats:  systemStatsInternal{minDuration: time.Duration(1<<63 - 1)},
	}
	s.byPhase[system.Phase] = append(s.byPhase[system.Phase], registered)
	s.order = append(s.order, registered)
	return nil
}

// Phase returns the phase currently executing, or Idle between ticks.
func (s *Scheduler) Phase() Phase {
	return Phase(s.phase.Load())
}

// Once executes one tick: every Simulate system, then every Present system.
// The first call seals the storage. A system error stops the tick after the
// running phase completes and is returned; queued commands still run.
func (s *Scheduler) Once(dt float64) error {
	s.storage.Seal()
	s.commands.Flush()
	s.frames++
	frame := newUpdateFrame(dt, s.frames, s.storage, s.commands)
	defer s.commands.Flush()
	defer s.phase.Store(int32(Idle))

	for _, phase := range phases {
		s.phase.Store(int32(phase))
		frame.Phase = phase
		if err := s.runPhase(frame, s.byPhase[phase]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runPhase(frame *UpdateFrame, systems []*registeredSystem) error {
	switch len(systems) {
	case 0:
		return nil
	case 1:
		return s.runSystem(frame, systems[0])
	}

	var g errgroup.Group
	for _, system := range systems {
		g.Go(func() error {
			return s.runSystem(frame, system)
		})
	}
	return g.Wait()
}

func (s *Scheduler) runSystem(frame *UpdateFrame, system *registeredSystem) error {
	release := s.storage.Acquire(system.Access)
	defer release()

	for _, handle := range system.Handles {
		handle.Execute()
	}

	start := time.Now()
	err := system.Run(frame)
	duration := time.Since(start)

	stats := &system.stats
	stats.executionCount++
	stats.lastDuration = duration
	stats.totalDuration += duration
	if duration < stats.minDuration {
		stats.minDuration = duration
	}
	if duration > stats.maxDuration {
		stats.maxDuration = duration
	}

	if err != nil {
		return errors.Wrapf(err, "system %q", system.Name)
	}
	return nil
}

// Run executes ticks at the given interval until the context is cancelled or a
// tick fails. Cancellation never interrupts a tick in progress.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := s.Once(dt); err != nil {
				return err
			}
		}
	}
}

// GetStats returns statistics about system execution, in registration order.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.order),
		Frames:      s.frames,
		Systems:     make([]SystemStats, len(s.order)),
	}

	var totalExecs int64
	for i, system := range s.order {
		internal := system.stats
		avgDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		}

		stats.Systems[i] = SystemStats{
			Name:           system.Name,
			Phase:          system.Phase,
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
