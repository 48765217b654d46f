package gpu_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/plus3/swarm/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordFrame(t *testing.T, rc *gpu.RecordingContext, batch []gpu.InstanceRecord) {
	t.Helper()
	rc.ClearColor(gpu.Color{0.1, 0.2, 0.3, 1})
	rc.ClearDepth(1)
	rc.UpdateConstants(mgl32.Ident4())
	require.NoError(t, rc.UpdateInstances(batch))
	require.NoError(t, rc.DrawInstanced(len(batch)))
}

func TestRecordingContextReplay(t *testing.T) {
	p := gpu.NewPipeline(3)
	rc, err := p.Recorder().Acquire()
	require.NoError(t, err)

	batch := []gpu.InstanceRecord{{Translate: [3]float32{1, 2, 3}}, {Translate: [3]float32{4, 5, 6}}}
	recordFrame(t, rc, batch)

	surface := gpu.NewHeadlessSurface()
	require.NoError(t, surface.Submit(rc))
	require.NoError(t, surface.Swap())
	surface.Cleanup()

	stats := surface.Stats()
	assert.Equal(t, []gpu.CommandKind{
		gpu.CmdClearColor, gpu.CmdClearDepth, gpu.CmdUpdateConstants, gpu.CmdUpdateInstances, gpu.CmdDrawInstanced,
	}, stats.Commands)
	assert.Equal(t, gpu.Color{0.1, 0.2, 0.3, 1}, stats.Clear)
	assert.Equal(t, float32(1), stats.Depth)
	assert.Equal(t, mgl32.Ident4(), stats.Transform)
	assert.Equal(t, batch, stats.Instances)
	assert.Equal(t, 1, stats.Submits)
	assert.Equal(t, 1, stats.Swaps)
	assert.Equal(t, 1, stats.Cleanups)
	assert.Equal(t, 1, stats.Draws)
}

func TestRecordingContextOverflow(t *testing.T) {
	p := gpu.NewPipeline(2)
	rc, err := p.Recorder().Acquire()
	require.NoError(t, err)

	err = rc.UpdateInstances(make([]gpu.InstanceRecord, 3))
	assert.True(t, errors.Is(err, gpu.ErrInstanceOverflow))

	require.NoError(t, rc.UpdateInstances(make([]gpu.InstanceRecord, 1)))
	err = rc.DrawInstanced(2)
	assert.True(t, errors.Is(err, gpu.ErrInstanceOverflow))
	assert.Len(t, rc.Commands(), 1, "failed commands are not recorded")
}

func TestCubeGeometry(t *testing.T) {
	cube := gpu.Cube()
	assert.Len(t, cube.Vertices, 24)
	assert.Len(t, cube.Indices, 36)
	for _, idx := range cube.Indices {
		assert.Less(t, int(idx), len(cube.Vertices))
	}
}

func TestProject(t *testing.T) {
	t.Run("identity maps ndc to pixels", func(t *testing.T) {
		screen, ok := gpu.Project(mgl32.Ident4(), mgl32.Vec3{0, 0, 0}, 200, 100)
		require.True(t, ok)
		assert.InDelta(t, 100, screen.X(), 1e-4)
		assert.InDelta(t, 50, screen.Y(), 1e-4)

		screen, ok = gpu.Project(mgl32.Ident4(), mgl32.Vec3{-1, 1, 0}, 200, 100)
		require.True(t, ok)
		assert.InDelta(t, 0, screen.X(), 1e-4)
		assert.InDelta(t, 0, screen.Y(), 1e-4)
	})

	t.Run("behind the camera", func(t *testing.T) {
		view := mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
		proj := mgl32.Perspective(mgl32.DegToRad(45), 1, 1, 100)
		_, ok := gpu.Project(proj.Mul4(view), mgl32.Vec3{0, 0, 20}, 100, 100)
		assert.False(t, ok)

		screen, ok := gpu.Project(proj.Mul4(view), mgl32.Vec3{}, 100, 100)
		require.True(t, ok)
		assert.InDelta(t, 50, screen.X(), 1e-3)
		assert.InDelta(t, 50, screen.Y(), 1e-3)
	})
}

func TestFrameState(t *testing.T) {
	p := gpu.NewPipeline(4)
	rc, err := p.Recorder().Acquire()
	require.NoError(t, err)

	batch := []gpu.InstanceRecord{{Translate: [3]float32{1}}, {Translate: [3]float32{2}}, {Translate: [3]float32{3}}}
	rc.ClearColor(gpu.Color{1, 0, 0, 1})
	rc.UpdateConstants(mgl32.Scale3D(2, 2, 2))
	require.NoError(t, rc.UpdateInstances(batch))
	require.NoError(t, rc.DrawInstanced(2))

	var frame gpu.FrameState
	require.NoError(t, rc.Replay(&frame))

	assert.Equal(t, gpu.Color{1, 0, 0, 1}, frame.Clear)
	assert.Equal(t, mgl32.Scale3D(2, 2, 2), frame.Transform)
	assert.Equal(t, batch[:2], frame.Visible())

	// The frame owns a copy of the instances.
	rc.Instances()[0].Translate[0] = 99
	assert.Equal(t, float32(1), frame.Visible()[0].Translate[0])

	frame.Reset()
	assert.Empty(t, frame.Visible())
}
