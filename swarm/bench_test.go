package swarm_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/swarm/ecs"
	"github.com/plus3/swarm/gpu"
	"github.com/plus3/swarm/swarm"
)

// loopbackRecorder hands every released context straight back from the driver
// side, so presentation never blocks without a surface.
type loopbackRecorder struct {
	*gpu.RecorderEnd
	driver *gpu.DriverEnd
}

func (r *loopbackRecorder) Release(rc *gpu.RecordingContext) {
	r.RecorderEnd.Release(rc)
	if rc, ok := r.driver.TryReceive(); ok {
		r.driver.Return(rc)
	}
}

func BenchmarkSwarmTick(b *testing.B) {
	storage := ecs.NewStorage(swarm.NewRegistry())
	grid := swarm.DefaultGrid()
	swarm.SeedGrid(storage, grid)

	pipeline := gpu.NewPipeline(grid.Len())
	recorder := &loopbackRecorder{RecorderEnd: pipeline.Recorder(), driver: pipeline.Driver()}
	presentation, _ := swarm.NewPresentationSystem(storage, recorder, swarm.PresentationOptions{
		ClearColor: swarm.DefaultClearColor,
		Capacity:   grid.Len(),
	})

	scheduler := ecs.NewScheduler(storage)
	if err := scheduler.Register(swarm.NewMovementSystem(storage)); err != nil {
		b.Fatal(err)
	}
	if err := scheduler.Register(presentation); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := scheduler.Once(1.0 / 60.0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStep(b *testing.B) {
	target := swarm.MoveTarget{Target: mgl32.Vec3{1e6, 0, 0}, Step: 0.05}
	p := swarm.Position{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		swarm.Step(&p, &target)
	}
}

func benchmarkBuild(b *testing.B, capacity int) {
	points := make([]mgl32.Vec3, 100*100)
	for i := range points {
		points[i] = mgl32.Vec3{float32(i), 0, 1}
	}
	positions := positionsOf(points...)
	builder := swarm.NewInstanceBatchBuilder(capacity)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		builder.Build(positions)
	}
}

func BenchmarkBuildAtCapacity(b *testing.B) {
	benchmarkBuild(b, 100*100)
}

func BenchmarkBuildOverCapacity(b *testing.B) {
	benchmarkBuild(b, 100*100/2)
}
