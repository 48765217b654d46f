package gpu

import (
	"sync"

	"github.com/pkg/errors"
)

// Depth is the number of recording contexts in a pipeline, and therefore the
// maximum number of frames in flight.
const Depth = 2

// ErrPipelineClosed is returned by blocking pipeline calls once the pipeline
// has been closed. For a frame loop this means presentation can never make
// progress again.
var ErrPipelineClosed = errors.New("recording pipeline closed")

// Pipeline is a ring of Depth recording contexts shared by two ends: the
// recorder, which fills a free context with a frame's commands, and the driver,
// which submits recorded contexts to a Surface and hands them back. Each
// direction is a buffered channel of capacity Depth, so handing a context over
// never blocks; taking one blocks until the other end has released one.
type Pipeline struct {
	contexts   [Depth]*RecordingContext
	toRecorder chan *RecordingContext
	toDriver   chan *RecordingContext
	done       chan struct{}
	closeOnce  sync.Once
}

// NewPipeline creates the contexts, each able to hold instanceCapacity
// instances, and queues both for the recorder.
func NewPipeline(instanceCapacity int) *Pipeline {
	p := &Pipeline{
		toRecorder: make(chan *RecordingContext, Depth),
		toDriver:   make(chan *RecordingContext, Depth),
		done:       make(chan struct{}),
	}
	for i := range p.contexts {
		rc := newRecordingContext(i, instanceCapacity)
		p.contexts[i] = rc
		p.toRecorder <- rc
	}
	return p
}

// Recorder returns the recording end of the pipeline.
func (p *Pipeline) Recorder() *RecorderEnd {
	return &RecorderEnd{p: p}
}

// Driver returns the submitting end of the pipeline.
func (p *Pipeline) Driver() *DriverEnd {
	return &DriverEnd{p: p}
}

// Close wakes every blocked Acquire and Receive with ErrPipelineClosed.
// It is safe to call more than once.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() { close(p.done) })
}

// Closed reports whether Close has been called.
func (p *Pipeline) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Census counts the pipeline's contexts by state. The counts always add up to Depth.
func (p *Pipeline) Census() map[ContextState]int {
	census := make(map[ContextState]int, 4)
	for _, rc := range p.contexts {
		census[rc.State()]++
	}
	return census
}

func (p *Pipeline) take(ch <-chan *RecordingContext, from, to ContextState) (*RecordingContext, error) {
	select {
	case <-p.done:
		return nil, ErrPipelineClosed
	default:
	}

	select {
	case rc := <-ch:
		rc.transition(from, to)
		return rc, nil
	case <-p.done:
		return nil, ErrPipelineClosed
	}
}

func (p *Pipeline) tryTake(ch <-chan *RecordingContext, from, to ContextState) (*RecordingContext, bool) {
	select {
	case rc := <-ch:
		rc.transition(from, to)
		return rc, true
	default:
		return nil, false
	}
}

func (p *Pipeline) give(ch chan<- *RecordingContext, rc *RecordingContext, from, to ContextState) {
	if rc == nil || p.contexts[rc.id] != rc {
		panic("recording context does not belong to this pipeline")
	}
	rc.transition(from, to)
	// Capacity equals the number of contexts, so this send cannot block.
	ch <- rc
}

// RecorderEnd is held by the presentation system.
type RecorderEnd struct {
	p *Pipeline
}

// Acquire blocks until a free context is available. There is no timeout.
func (r *RecorderEnd) Acquire() (*RecordingContext, error) {
	return r.p.take(r.p.toRecorder, StateFree, StateRecording)
}

// TryAcquire returns a free context if one is queued.
func (r *RecorderEnd) TryAcquire() (*RecordingContext, bool) {
	return r.p.tryTake(r.p.toRecorder, StateFree, StateRecording)
}

// Release hands a recorded context to the driver. Releasing a context the
// recorder does not hold panics.
func (r *RecorderEnd) Release(rc *RecordingContext) {
	r.p.give(r.p.toDriver, rc, StateRecording, StateRecorded)
}

// DriverEnd is held by the frame loop that submits to the surface.
type DriverEnd struct {
	p *Pipeline
}

// Receive blocks until a recorded context is available. There is no timeout.
func (d *DriverEnd) Receive() (*RecordingContext, error) {
	return d.p.take(d.p.toDriver, StateRecorded, StateSubmitting)
}

// TryReceive returns a recorded context if one is queued.
func (d *DriverEnd) TryReceive() (*RecordingContext, bool) {
	return d.p.tryTake(d.p.toDriver, StateRecorded, StateSubmitting)
}

// Return clears a submitted context and gives it back to the recorder.
// Returning a context the driver does not hold panics.
func (d *DriverEnd) Return(rc *RecordingContext) {
	if rc != nil && rc.State() == StateSubmitting {
		rc.reset()
	}
	d.p.give(d.p.toRecorder, rc, StateSubmitting, StateFree)
}
