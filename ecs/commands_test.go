package ecs_test

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/swarm/ecs"
)

type Gravity struct {
	G float32
}

func TestCommandsFlushOrder(t *testing.T) {
	scheduler := ecs.NewScheduler(ecs.NewStorage(newTestRegistry()))
	commands := scheduler.Commands()

	var order []int
	commands.Defer(func() { order = append(order, 1) })
	commands.Defer(func() {
		order = append(order, 2)
		commands.Defer(func() { order = append(order, 4) })
	})
	commands.Defer(func() { order = append(order, 3) })
	assert.Equal(t, 3, commands.Len())

	commands.Flush()
	assert.Equal(t, []int{1, 2, 3, 4}, order)
	assert.Equal(t, 0, commands.Len())

	commands.Flush()
	assert.Equal(t, []int{1, 2, 3, 4}, order, "a flushed buffer is empty")
}

func TestCommandsAroundTick(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	storage.Spawn(Position{})
	gravity := ecs.NewSingleton(storage, Gravity{G: 1})
	scheduler := ecs.NewScheduler(storage)

	var seen []float32
	for _, phase := range []ecs.Phase{ecs.Simulate, ecs.Present} {
		require.NoError(t, scheduler.Register(ecs.System{
			Name:  phase.String(),
			Phase: phase,
			Run: func(frame *ecs.UpdateFrame) error {
				seen = append(seen, gravity.Get().G)
				if frame.Phase == ecs.Simulate {
					frame.Commands.Defer(func() { gravity.Set(Gravity{G: 3}) })
				}
				return nil
			},
		}))
	}

	// Queued between ticks: applied before the first phase.
	scheduler.Commands().Defer(func() { gravity.Set(Gravity{G: 2}) })
	require.NoError(t, scheduler.Once(0))

	// Queued by Simulate: not visible to Present of the same tick.
	assert.Equal(t, []float32{2, 2}, seen)
	assert.Equal(t, float32(3), gravity.Get().G)
	assert.Equal(t, 0, scheduler.Commands().Len())
}

func TestCommandsFlushAfterFailedTick(t *testing.T) {
	storage := ecs.NewStorage(newTestRegistry())
	scheduler := ecs.NewScheduler(storage)
	require.NoError(t, scheduler.Register(ecs.System{
		Name:  "failing",
		Phase: ecs.Simulate,
		Run: func(frame *ecs.UpdateFrame) error {
			frame.Commands.Defer(func() {})
			return errors.New("boom")
		},
	}))

	assert.Error(t, scheduler.Once(0))
	assert.Equal(t, 0, scheduler.Commands().Len())
}

func TestCommandsConcurrentDefer(t *testing.T) {
	scheduler := ecs.NewScheduler(ecs.NewStorage(newTestRegistry()))
	commands := scheduler.Commands()

	var wg sync.WaitGroup
	var mu sync.Mutex
	count := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				commands.Defer(func() {
					mu.Lock()
					count++
					mu.Unlock()
				})
			}
		}()
	}
	wg.Wait()

	commands.Flush()
	assert.Equal(t, 800, count)
}
