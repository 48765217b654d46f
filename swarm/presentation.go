package swarm

import (
	"github.com/pkg/errors"
	"github.com/plus3/swarm/ecs"
	"github.com/plus3/swarm/gpu"
)

// DefaultClearColor is the background the swarm is drawn over.
var DefaultClearColor = gpu.Color{0.1, 0.2, 0.3, 1}

// Recorder is the recording end of a gpu.Pipeline.
type Recorder interface {
	Acquire() (*gpu.RecordingContext, error)
	Release(rc *gpu.RecordingContext)
}

// PresentationOptions configures NewPresentationSystem.
type PresentationOptions struct {
	ClearColor gpu.Color
	// Capacity bounds the number of instances drawn per frame.
	Capacity int
}

// NewPresentationSystem returns the Present system recording one instanced draw
// of every position into a context taken from recorder, together with the batch
// builder it uses. Acquire blocks until the driver hands a context back.
func NewPresentationSystem(storage *ecs.Storage, recorder Recorder, opts PresentationOptions) (ecs.System, *InstanceBatchBuilder) {
	positions := ecs.NewQuery[struct{ Position }](storage)
	viewProj := ecs.NewSingleton(storage, ViewProjection{Transform: DefaultCamera().ViewProjection()})
	batch := NewInstanceBatchBuilder(opts.Capacity)

	system := ecs.System{
		Name:    "presentation",
		Phase:   ecs.Present,
		Access:  ecs.NewAccess().Read(ecs.TypeFor[Position]()),
		Handles: []ecs.Handle{positions},
		Run: func(*ecs.UpdateFrame) error {
			instances := batch.Build(func(yield func(*Position) bool) {
				for p := range positions.Values() {
					if !yield(&p.Position) {
						return
					}
				}
			})

			rc, err := recorder.Acquire()
			if err != nil {
				return errors.Wrap(err, "acquire recording context")
			}

			rc.ClearColor(opts.ClearColor)
			rc.ClearDepth(1)
			rc.UpdateConstants(viewProj.Get().Transform)
			if err := rc.UpdateInstances(instances); err != nil {
				recorder.Release(rc)
				return err
			}
			if err := rc.DrawInstanced(len(instances)); err != nil {
				recorder.Release(rc)
				return err
			}

			recorder.Release(rc)
			return nil
		},
	}
	return system, batch
}
