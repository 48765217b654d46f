package swarm_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/plus3/swarm/ecs"
	"github.com/plus3/swarm/gpu"
	"github.com/plus3/swarm/swarm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positionsOf(points ...mgl32.Vec3) func(func(*swarm.Position) bool) {
	return func(yield func(*swarm.Position) bool) {
		for _, p := range points {
			if !yield(&swarm.Position{V: p}) {
				return
			}
		}
	}
}

func TestInstanceBatchBuilder(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		b := swarm.NewInstanceBatchBuilder(8)
		batch := b.Build(positionsOf(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{2, 0, 0}, mgl32.Vec3{3, 0, 0}))

		require.Len(t, batch, 3)
		for i, rec := range batch {
			assert.Equal(t, [3]float32{float32(i + 1), 0, 0}, rec.Translate)
		}
		assert.Equal(t, 0, b.Dropped())
	})

	t.Run("never exceeds capacity", func(t *testing.T) {
		for _, capacity := range []int{0, 1, 4, 10} {
			b := swarm.NewInstanceBatchBuilder(capacity)
			for _, count := range []int{capacity, capacity + 1, capacity * 3, capacity + 100} {
				points := make([]mgl32.Vec3, count)
				for i := range points {
					points[i] = mgl32.Vec3{float32(i)}
				}

				batch := b.Build(positionsOf(points...))
				assert.Len(t, batch, capacity)
				assert.Equal(t, count-capacity, b.Dropped())
				if capacity > 0 {
					assert.Equal(t, float32(capacity-1), batch[capacity-1].Translate[0], "the first entities are kept")
				}
			}
		}
	})

	t.Run("reuses its buffer", func(t *testing.T) {
		b := swarm.NewInstanceBatchBuilder(4)
		first := b.Build(positionsOf(mgl32.Vec3{1}, mgl32.Vec3{2}))
		second := b.Build(positionsOf(mgl32.Vec3{3}))

		assert.Len(t, second, 1)
		assert.Equal(t, float32(3), first[0].Translate[0])
		assert.Equal(t, 1, b.Len())
	})
}

type countingRecorder struct {
	*gpu.RecorderEnd
	acquired, released int
}

func (r *countingRecorder) Acquire() (*gpu.RecordingContext, error) {
	r.acquired++
	return r.RecorderEnd.Acquire()
}

func (r *countingRecorder) Release(rc *gpu.RecordingContext) {
	r.released++
	r.RecorderEnd.Release(rc)
}

func TestPresentationSystem(t *testing.T) {
	storage := ecs.NewStorage(swarm.NewRegistry())
	storage.Spawn(swarm.Position{V: mgl32.Vec3{1, 2, 3}}, swarm.MoveTarget{})
	storage.Spawn(swarm.Position{V: mgl32.Vec3{4, 5, 6}}, swarm.MoveTarget{})
	storage.Spawn(swarm.Position{V: mgl32.Vec3{7, 8, 9}})

	pipeline := gpu.NewPipeline(2)
	recorder := &countingRecorder{RecorderEnd: pipeline.Recorder()}
	camera := swarm.NewCameraController(storage, swarm.DefaultCamera())

	system, batch := swarm.NewPresentationSystem(storage, recorder, swarm.PresentationOptions{
		ClearColor: swarm.DefaultClearColor,
		Capacity:   2,
	})
	assert.Equal(t, ecs.Present, system.Phase)
	assert.Empty(t, system.Access.Writes())

	scheduler := ecs.NewScheduler(storage)
	require.NoError(t, scheduler.Register(system))
	require.NoError(t, scheduler.Once(0))

	assert.Equal(t, 1, recorder.acquired)
	assert.Equal(t, 1, recorder.released)
	assert.Equal(t, 2, batch.Len())
	assert.Equal(t, 1, batch.Dropped())

	rc, ok := pipeline.Driver().TryReceive()
	require.True(t, ok)

	kinds := make([]gpu.CommandKind, 0, len(rc.Commands()))
	for _, cmd := range rc.Commands() {
		kinds = append(kinds, cmd.Kind)
	}
	assert.Equal(t, []gpu.CommandKind{
		gpu.CmdClearColor, gpu.CmdClearDepth, gpu.CmdUpdateConstants, gpu.CmdUpdateInstances, gpu.CmdDrawInstanced,
	}, kinds)

	cmds := rc.Commands()
	assert.Equal(t, swarm.DefaultClearColor, cmds[0].Color)
	assert.Equal(t, float32(1), cmds[1].Depth)
	assert.Equal(t, camera.Camera().ViewProjection(), cmds[2].Transform)
	assert.Equal(t, 2, cmds[4].Count)
	assert.Equal(t, []gpu.InstanceRecord{
		{Translate: [3]float32{1, 2, 3}},
		{Translate: [3]float32{4, 5, 6}},
	}, rc.Instances())
}

func TestPresentationSystemStopsOnClosedPipeline(t *testing.T) {
	storage := ecs.NewStorage(swarm.NewRegistry())
	storage.Spawn(swarm.Position{})

	pipeline := gpu.NewPipeline(4)
	pipeline.Close()

	system, _ := swarm.NewPresentationSystem(storage, pipeline.Recorder(), swarm.PresentationOptions{Capacity: 4})
	scheduler := ecs.NewScheduler(storage)
	require.NoError(t, scheduler.Register(system))

	err := scheduler.Once(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gpu.ErrPipelineClosed))
}
