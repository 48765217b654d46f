package ecs_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/plus3/swarm/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movementSystem(storage *ecs.Storage, phase ecs.Phase) ecs.System {
	movers := ecs.NewQuery[struct {
		*Position
		Velocity
	}](storage)

	return ecs.System{
		Name:    "movement",
		Phase:   phase,
		Access:  ecs.NewAccess().Write(ecs.TypeFor[Position]()).Read(ecs.TypeFor[Velocity]()),
		Handles: []ecs.Handle{movers},
		Run: func(frame *ecs.UpdateFrame) error {
			for item := range movers.Values() {
				item.Position.X += item.Velocity.DX * float32(frame.DeltaTime)
				item.Position.Y += item.Velocity.DY * float32(frame.DeltaTime)
			}
			return nil
		},
	}
}

func TestSchedulerPhaseOrder(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	id := storage.Spawn(Position{}, Velocity{DX: 10, DY: 20})
	scheduler := ecs.NewScheduler(storage)

	var observed []float32
	var phases []ecs.Phase
	positions := ecs.NewQuery[struct{ Position }](storage)

	// Registered before the movement system, but runs after it.
	require.NoError(t, scheduler.Register(ecs.System{
		Name:    "observer",
		Phase:   ecs.Present,
		Access:  ecs.NewAccess().Read(ecs.TypeFor[Position]()),
		Handles: []ecs.Handle{positions},
		Run: func(frame *ecs.UpdateFrame) error {
			phases = append(phases, frame.Phase, scheduler.Phase())
			for item := range positions.Values() {
				observed = append(observed, item.Position.X)
			}
			return nil
		},
	}))
	require.NoError(t, scheduler.Register(movementSystem(storage, ecs.Simulate)))

	require.NoError(t, scheduler.Once(0.5))
	require.NoError(t, scheduler.Once(0.5))

	assert.Equal(t, []float32{5, 10}, observed, "present reads what simulate wrote in the same tick")
	assert.Equal(t, []ecs.Phase{ecs.Present, ecs.Present, ecs.Present, ecs.Present}, phases)
	assert.Equal(t, ecs.Idle, scheduler.Phase())
	assert.Equal(t, float32(20), ecs.ReadComponent[Position](storage, id).Y)
	assert.True(t, storage.Sealed())
}

func TestSchedulerRegisterConflicts(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())

	t.Run("handle outside declared access", func(t *testing.T) {
		scheduler := ecs.NewScheduler(storage)
		system := movementSystem(storage, ecs.Simulate)
		system.Access = ecs.NewAccess().Write(ecs.TypeFor[Position]())

		err := scheduler.Register(system)
		assert.True(t, errors.Is(err, ecs.ErrAccessConflict), "got %v", err)
	})

	t.Run("overlapping writers in one phase", func(t *testing.T) {
		scheduler := ecs.NewScheduler(storage)
		require.NoError(t, scheduler.Register(movementSystem(storage, ecs.Simulate)))

		err := scheduler.Register(movementSystem(storage, ecs.Simulate))
		assert.True(t, errors.Is(err, ecs.ErrAccessConflict), "got %v", err)
	})

	t.Run("writer and reader in one phase", func(t *testing.T) {
		scheduler := ecs.NewScheduler(storage)
		require.NoError(t, scheduler.Register(movementSystem(storage, ecs.Simulate)))

		err := scheduler.Register(ecs.System{
			Name:   "reader",
			Phase:  ecs.Simulate,
			Access: ecs.NewAccess().Read(ecs.TypeFor[Position]()),
			Run:    func(*ecs.UpdateFrame) error { return nil },
		})
		assert.True(t, errors.Is(err, ecs.ErrAccessConflict), "got %v", err)
	})

	t.Run("writable handle under read access", func(t *testing.T) {
		scheduler := ecs.NewScheduler(storage)
		positions := ecs.NewQuery[struct{ *Position }](storage)

		err := scheduler.Register(ecs.System{
			Name:    "sneaky",
			Phase:   ecs.Present,
			Access:  ecs.NewAccess().Read(ecs.TypeFor[Position]()),
			Handles: []ecs.Handle{positions},
			Run:     func(*ecs.UpdateFrame) error { return nil },
		})
		assert.True(t, errors.Is(err, ecs.ErrAccessConflict), "got %v", err)
		assert.Contains(t, err.Error(), "writable")
	})

	t.Run("same systems in different phases", func(t *testing.T) {
		scheduler := ecs.NewScheduler(storage)
		require.NoError(t, scheduler.Register(movementSystem(storage, ecs.Simulate)))
		assert.NoError(t, scheduler.Register(movementSystem(storage, ecs.Present)))
	})

	t.Run("unregistered component", func(t *testing.T) {
		scheduler := ecs.NewScheduler(storage)
		err := scheduler.Register(ecs.System{
			Name:   "ghost",
			Phase:  ecs.Simulate,
			Access: ecs.NewAccess().Read(ecs.TypeFor[Unregistered]()),
			Run:    func(*ecs.UpdateFrame) error { return nil },
		})
		assert.True(t, errors.Is(err, ecs.ErrUnregisteredComponent), "got %v", err)
	})

	t.Run("invalid definitions", func(t *testing.T) {
		scheduler := ecs.NewScheduler(storage)
		assert.Error(t, scheduler.Register(ecs.System{Name: "no-run", Phase: ecs.Simulate}))
		assert.Error(t, scheduler.Register(ecs.System{
			Name:  "idle",
			Phase: ecs.Idle,
			Run:   func(*ecs.UpdateFrame) error { return nil },
		}))
	})
}

func TestSchedulerRunsDisjointSystemsConcurrently(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)

	// Each system waits until the other has started; sequential execution would
	// never get past the barrier.
	var barrier sync.WaitGroup
	barrier.Add(2)
	waitBoth := func(*ecs.UpdateFrame) error {
		barrier.Done()
		done := make(chan struct{})
		go func() {
			barrier.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("systems did not overlap")
		}
	}

	require.NoError(t, scheduler.Register(ecs.System{
		Name:   "positions",
		Phase:  ecs.Simulate,
		Access: ecs.NewAccess().Write(ecs.TypeFor[Position]()),
		Run:    waitBoth,
	}))
	require.NoError(t, scheduler.Register(ecs.System{
		Name:   "health",
		Phase:  ecs.Simulate,
		Access: ecs.NewAccess().Write(ecs.TypeFor[Health]()),
		Run:    waitBoth,
	}))

	assert.NoError(t, scheduler.Once(0))
}

func TestSchedulerConcurrentReaders(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	for i := 0; i < 100; i++ {
		storage.Spawn(Position{X: float32(i)})
	}
	scheduler := ecs.NewScheduler(storage)

	sums := make([]float32, 2)
	for i := range sums {
		positions := ecs.NewQuery[struct{ Position }](storage)
		require.NoError(t, scheduler.Register(ecs.System{
			Name:    fmt.Sprintf("reader-%d", i),
			Phase:   ecs.Present,
			Access:  ecs.NewAccess().Read(ecs.TypeFor[Position]()),
			Handles: []ecs.Handle{positions},
			Run: func(*ecs.UpdateFrame) error {
				for item := range positions.Values() {
					// Changes a copy; the storage is untouched.
					item.Position.X++
					sums[i] += item.Position.X
				}
				return nil
			},
		}))
	}

	require.NoError(t, scheduler.Once(0))
	assert.Equal(t, []float32{5050, 5050}, sums)
	assert.Equal(t, float32(0), ecs.ReadComponent[Position](storage, ecs.NewEntityId(0, 0)).X)
}

func TestSchedulerPropagatesErrors(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)
	boom := errors.New("boom")

	var presented atomic.Bool
	require.NoError(t, scheduler.Register(ecs.System{
		Name:  "failing",
		Phase: ecs.Simulate,
		Run:   func(*ecs.UpdateFrame) error { return boom },
	}))
	require.NoError(t, scheduler.Register(ecs.System{
		Name:  "present",
		Phase: ecs.Present,
		Run: func(*ecs.UpdateFrame) error {
			presented.Store(true)
			return nil
		},
	}))

	err := scheduler.Once(0)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), `system "failing"`)
	assert.False(t, presented.Load(), "later phases do not run after a failure")
}

func TestSchedulerStats(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	storage.Spawn(Position{}, Velocity{DX: 1})
	scheduler := ecs.NewScheduler(storage)
	require.NoError(t, scheduler.Register(movementSystem(storage, ecs.Simulate)))

	for i := 0; i < 3; i++ {
		require.NoError(t, scheduler.Once(1.0/60.0))
	}

	stats := scheduler.GetStats()
	assert.Equal(t, 1, stats.SystemCount)
	assert.Equal(t, uint64(3), stats.Frames)
	assert.Equal(t, int64(3), stats.TotalExecutions)
	require.Len(t, stats.Systems, 1)
	assert.Equal(t, "movement", stats.Systems[0].Name)
	assert.Equal(t, ecs.Simulate, stats.Systems[0].Phase)
	assert.LessOrEqual(t, stats.Systems[0].MinDuration, stats.Systems[0].MaxDuration)
}

func TestSchedulerRun(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)
	require.NoError(t, scheduler.Register(movementSystem(storage, ecs.Simulate)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- scheduler.Run(ctx, time.Millisecond)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
	assert.Positive(t, scheduler.GetStats().Frames)
}
