package gpu

import (
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrInstanceOverflow is returned when a context is asked to hold or draw more
// instances than its buffer allows.
var ErrInstanceOverflow = errors.New("instance buffer overflow")

// ContextState tracks which end of the pipeline owns a context.
type ContextState int32

const (
	// StateFree: queued for the recorder.
	StateFree ContextState = iota
	// StateRecording: held by the recorder.
	StateRecording
	// StateRecorded: queued for the driver.
	StateRecorded
	// StateSubmitting: held by the driver.
	StateSubmitting
)

func (s ContextState) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateRecording:
		return "recording"
	case StateRecorded:
		return "recorded"
	case StateSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// RecordingContext accumulates commands for one frame. It is reused across
// frames; its instance buffer is allocated once at the pipeline's capacity.
// Only the owner of the context may call its methods.
type RecordingContext struct {
	id        int
	state     atomic.Int32
	commands  []Command
	instances []InstanceRecord
}

func newRecordingContext(id, capacity int) *RecordingContext {
	return &RecordingContext{
		id:        id,
		commands:  make([]Command, 0, 8),
		instances: make([]InstanceRecord, 0, capacity),
	}
}

// ID returns the context's identity within its pipeline.
func (rc *RecordingContext) ID() int {
	return rc.id
}

// State returns the current ownership state.
func (rc *RecordingContext) State() ContextState {
	return ContextState(rc.state.Load())
}

// Capacity returns the maximum number of instances the context can hold.
func (rc *RecordingContext) Capacity() int {
	return cap(rc.instances)
}

func (rc *RecordingContext) transition(from, to ContextState) {
	if !rc.state.CompareAndSwap(int32(from), int32(to)) {
		panic(fmt.Sprintf("recording context %d is %s, expected %s", rc.id, rc.State(), from))
	}
}

// ClearColor records a clear of the colour target.
func (rc *RecordingContext) ClearColor(c Color) {
	rc.commands = append(rc.commands, Command{Kind: CmdClearColor, Color: c})
}

// ClearDepth records a clear of the depth target.
func (rc *RecordingContext) ClearDepth(depth float32) {
	rc.commands = append(rc.commands, Command{Kind: CmdClearDepth, Depth: depth})
}

// UpdateConstants records an update of the per-frame transform constant.
func (rc *RecordingContext) UpdateConstants(transform mgl32.Mat4) {
	rc.commands = append(rc.commands, Command{Kind: CmdUpdateConstants, Transform: transform})
}

// UpdateInstances copies batch into the context's instance buffer and records
// the upload.
func (rc *RecordingContext) UpdateInstances(batch []InstanceRecord) error {
	if len(batch) > cap(rc.instances) {
		return errors.Wrapf(ErrInstanceOverflow, "%d instances, capacity %d", len(batch), cap(rc.instances))
	}
	rc.instances = append(rc.instances[:0], batch...)
	rc.commands = append(rc.commands, Command{Kind: CmdUpdateInstances, Count: len(batch)})
	return nil
}

// DrawInstanced records one instanced draw of count instances.
func (rc *RecordingContext) DrawInstanced(count int) error {
	if count < 0 || count > len(rc.instances) {
		return errors.Wrapf(ErrInstanceOverflow, "draw of %d instances, %d uploaded", count, len(rc.instances))
	}
	rc.commands = append(rc.commands, Command{Kind: CmdDrawInstanced, Count: count})
	return nil
}

// Commands returns the recorded commands in order.
func (rc *RecordingContext) Commands() []Command {
	return rc.commands
}

// Instances returns the uploaded instance data.
func (rc *RecordingContext) Instances() []InstanceRecord {
	return rc.instances
}

// Replay plays the recorded commands into b, in recording order.
func (rc *RecordingContext) Replay(b Backend) error {
	for _, cmd := range rc.commands {
		switch cmd.Kind {
		case CmdClearColor:
			b.ClearColor(cmd.Color)
		case CmdClearDepth:
			b.ClearDepth(cmd.Depth)
		case CmdUpdateConstants:
			b.SetTransform(cmd.Transform)
		case CmdUpdateInstances:
			b.SetInstances(rc.instances[:cmd.Count])
		case CmdDrawInstanced:
			if err := b.DrawInstanced(cmd.Count); err != nil {
				return errors.Wrapf(err, "context %d", rc.id)
			}
		default:
			return errors.Errorf("context %d: unknown command %d", rc.id, cmd.Kind)
		}
	}
	return nil
}

// reset clears recorded commands, keeping allocated buffers.
func (rc *RecordingContext) reset() {
	rc.commands = rc.commands[:0]
	rc.instances = rc.instances[:0]
}
