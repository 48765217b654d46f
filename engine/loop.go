// Package engine drives the swarm: it owns the entity storage, the scheduler
// and the recording pipeline, and moves recorded frames to a presentation
// surface.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/plus3/swarm/ecs"
	"github.com/plus3/swarm/frameclock"
	"github.com/plus3/swarm/gpu"
	"github.com/plus3/swarm/internal/logging"
	"github.com/plus3/swarm/internal/telemetry"
	"github.com/plus3/swarm/swarm"
)

// InputSource delivers the input events that arrived since the last poll.
type InputSource interface {
	Poll() []swarm.InputEvent
}

// MetricSink receives frame metrics. *metrics.Metrics from go-metrics
// satisfies it.
type MetricSink interface {
	IncrCounter(key []string, val float32)
	AddSample(key []string, val float32)
	SetGauge(key []string, val float32)
}

// Options configures a Loop.
type Options struct {
	Grid         swarm.GridConfig
	Capacity     int
	ClearColor   gpu.Color
	Camera       swarm.Camera
	ReportWindow time.Duration
	// MaxFrames stops the loop after that many ticks. Zero runs until quit.
	MaxFrames int
	// TickRate is the simulated time step passed to systems, in seconds.
	TickRate float64
}

// DefaultOptions returns the stock swarm setup.
func DefaultOptions() Options {
	return Options{
		Grid:         swarm.DefaultGrid(),
		Capacity:     1000 * 1000,
		ClearColor:   swarm.DefaultClearColor,
		Camera:       swarm.DefaultCamera(),
		ReportWindow: frameclock.DefaultWindow,
		TickRate:     1.0 / 60,
	}
}

// Loop is the frame loop. Step, Tick, Run and RunPipelined must be called from
// a single goroutine; in the pipelined variant the submitting half runs on a
// second goroutine owned by the loop.
type Loop struct {
	runID  uuid.UUID
	opts   Options
	logger *logging.Logger

	storage   *ecs.Storage
	scheduler *ecs.Scheduler
	pipeline  *gpu.Pipeline
	recorder  *gpu.RecorderEnd
	driver    *gpu.DriverEnd
	camera    *swarm.CameraController
	batch     *swarm.InstanceBatchBuilder
	entities  []ecs.EntityId

	surface gpu.Surface
	input   InputSource
	metrics MetricSink
	clock   *frameclock.Clock

	frames       uint64
	submitted    atomic.Uint64
	driverFailed atomic.Bool
	quit         bool

	reportMu   sync.Mutex
	lastReport frameclock.Report
	hasReport  bool
}

// New seeds the grid and wires the movement and presentation systems. input
// and metrics may be nil.
func New(opts Options, surface gpu.Surface, input InputSource, logger *logging.Logger, metrics MetricSink) (*Loop, error) {
	if surface == nil {
		return nil, errors.New("engine: nil surface")
	}
	if opts.Capacity <= 0 {
		return nil, errors.Errorf("engine: instance capacity %d", opts.Capacity)
	}
	if opts.Grid.Width < 0 || opts.Grid.Height < 0 {
		return nil, errors.Errorf("engine: grid %dx%d", opts.Grid.Width, opts.Grid.Height)
	}
	if logger == nil {
		logger = logging.Discard()
	}

	runID := uuid.New()
	l := &Loop{
		runID:    runID,
		opts:     opts,
		logger:   logger.WithRun(runID.String()),
		storage:  ecs.NewStorage(swarm.NewRegistry()),
		pipeline: gpu.NewPipeline(opts.Capacity),
		surface:  surface,
		input:    input,
		metrics:  metrics,
		clock:    frameclock.New(opts.ReportWindow),
	}
	l.scheduler = ecs.NewScheduler(l.storage)
	l.recorder = l.pipeline.Recorder()
	l.driver = l.pipeline.Driver()

	l.entities = swarm.SeedGrid(l.storage, opts.Grid)
	l.camera = swarm.NewCameraController(l.storage, opts.Camera)
	l.camera.DeferTo(l.scheduler.Commands())

	if err := l.scheduler.Register(swarm.NewMovementSystem(l.storage)); err != nil {
		return nil, errors.Wrap(err, "engine: register movement")
	}
	presentation, batch := swarm.NewPresentationSystem(l.storage, l.recorder, swarm.PresentationOptions{
		ClearColor: opts.ClearColor,
		Capacity:   opts.Capacity,
	})
	if err := l.scheduler.Register(presentation); err != nil {
		return nil, errors.Wrap(err, "engine: register presentation")
	}
	l.batch = batch

	l.logger.Info().
		Int("entities", len(l.entities)).
		Int("grid", opts.Grid.Width*opts.Grid.Height).
		Int("capacity", opts.Capacity).
		Msg("swarm seeded")
	l.logger.LogStorage(zerolog.DebugLevel, "storage layout", l.storage.CollectStats())
	l.logger.LogSystems(zerolog.DebugLevel, "systems registered", l.scheduler.GetStats())
	return l, nil
}

// RunID identifies this loop in logs.
func (l *Loop) RunID() uuid.UUID { return l.runID }

// Storage returns the entity storage.
func (l *Loop) Storage() *ecs.Storage { return l.storage }

// Scheduler returns the system scheduler.
func (l *Loop) Scheduler() *ecs.Scheduler { return l.scheduler }

// Pipeline returns the recording pipeline.
func (l *Loop) Pipeline() *gpu.Pipeline { return l.pipeline }

// Camera returns the camera controller.
func (l *Loop) Camera() *swarm.CameraController { return l.camera }

// Batch returns the presentation system's batch builder.
func (l *Loop) Batch() *swarm.InstanceBatchBuilder { return l.batch }

// Entities returns the seeded entities in spawn order.
func (l *Loop) Entities() []ecs.EntityId { return l.entities }

// Frames returns the number of ticks recorded so far.
func (l *Loop) Frames() uint64 { return l.frames }

// Submitted returns the number of frames handed to the surface.
func (l *Loop) Submitted() uint64 { return l.submitted.Load() }

// LastReport returns the most recent frame clock report.
func (l *Loop) LastReport() (frameclock.Report, bool) {
	l.reportMu.Lock()
	defer l.reportMu.Unlock()
	return l.lastReport, l.hasReport
}

// Step polls input, applies camera movement and records one tick. It reports
// false without recording once a quit event was seen or MaxFrames is reached.
func (l *Loop) Step() (bool, error) {
	if !l.pollInput() {
		return false, nil
	}
	if l.opts.MaxFrames > 0 && l.frames >= uint64(l.opts.MaxFrames) {
		return false, nil
	}

	l.camera.Update()
	if err := l.scheduler.Once(l.opts.TickRate); err != nil {
		return false, errors.Wrapf(err, "frame %d", l.frames+1)
	}
	l.frames++

	if l.metrics != nil {
		l.metrics.SetGauge(telemetry.KeyInstances, float32(l.batch.Len()))
		l.metrics.SetGauge(telemetry.KeyDropped, float32(l.batch.Dropped()))
	}
	return true, nil
}

func (l *Loop) pollInput() bool {
	if l.quit {
		return false
	}
	if l.input == nil {
		return true
	}
	for _, event := range l.input.Poll() {
		if event.IsQuit() {
			l.quit = true
			l.logger.Info().Uint64("frame", l.frames).Msg("quit requested")
			return false
		}
		l.camera.Handle(event)
	}
	return true
}

// SubmitNext waits for the next recorded context and presents it.
func (l *Loop) SubmitNext() error {
	rc, err := l.driver.Receive()
	if err != nil {
		return err
	}
	return l.submit(rc)
}

func (l *Loop) submit(rc *gpu.RecordingContext) error {
	defer l.driver.Return(rc)

	if err := l.surface.Submit(rc); err != nil {
		return errors.Wrap(err, "submit")
	}
	if err := l.surface.Swap(); err != nil {
		return errors.Wrap(err, "swap")
	}
	l.surface.Cleanup()
	l.submitted.Add(1)
	return nil
}

// Tick records one frame and presents it on the calling goroutine.
func (l *Loop) Tick() (bool, error) {
	running, err := l.Step()
	if err != nil || !running {
		return false, err
	}
	if err := l.SubmitNext(); err != nil {
		return false, err
	}
	return true, nil
}

// ObserveFrame feeds the frame clock and metrics with the wall time of one
// frame and logs the window report when one completes.
func (l *Loop) ObserveFrame(elapsed time.Duration) {
	if l.metrics != nil {
		l.metrics.IncrCounter(telemetry.KeyFrames, 1)
		l.metrics.AddSample(telemetry.KeyFrameMs, float32(elapsed)/float32(time.Millisecond))
	}

	report, ok := l.clock.Frame(elapsed)
	if !ok {
		return
	}

	l.reportMu.Lock()
	l.lastReport, l.hasReport = report, true
	l.reportMu.Unlock()

	l.logger.Info().
		Int("frames", report.Frames).
		Float64("fps", report.FPS()).
		Dur("min", report.Min).
		Dur("max", report.Max).
		Dur("avg", report.Mean).
		Float64("var_ms2", report.Variance).
		Int("instances", l.batch.Len()).
		Int("dropped", l.batch.Dropped()).
		Msg("frame stats")
}

// Run ticks on the calling goroutine until quit, MaxFrames, cancellation or
// an error. A tick in progress always completes.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pipeline.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		start := time.Now()
		running, err := l.Tick()
		if err != nil {
			l.logger.Error().Err(err).Msg("frame loop stopped")
			return err
		}
		if !running {
			return nil
		}
		l.ObserveFrame(time.Since(start))
	}
}

// Drive submits recorded contexts until the pipeline is closed. A surface
// failure closes the pipeline, which stops the recording side.
func (l *Loop) Drive() error {
	for {
		rc, err := l.driver.Receive()
		if errors.Is(err, gpu.ErrPipelineClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := l.submit(rc); err != nil {
			l.driverFailed.Store(true)
			l.pipeline.Close()
			return err
		}
	}
}

// RunPipelined records and submits on two goroutines of its own, so frame N+1
// can be recorded while frame N is presented. The caller blocks until both
// stop. On a clean stop every recorded frame is presented first.
func (l *Loop) RunPipelined(ctx context.Context) error {
	var g errgroup.Group
	g.Go(l.Drive)
	g.Go(func() error {
		defer l.pipeline.Close()

		for {
			select {
			case <-ctx.Done():
				return l.drain()
			default:
			}

			start := time.Now()
			running, err := l.Step()
			if err != nil {
				// The driver already returned the cause.
				if errors.Is(err, gpu.ErrPipelineClosed) && l.driverFailed.Load() {
					return nil
				}
				return err
			}
			if !running {
				return l.drain()
			}
			l.ObserveFrame(time.Since(start))
		}
	})

	err := g.Wait()
	if err != nil {
		l.logger.Error().Err(err).Msg("frame loop stopped")
	}
	return err
}

// drain takes every context back from the driver, so all recorded frames have
// been presented.
func (l *Loop) drain() error {
	for i := 0; i < gpu.Depth; i++ {
		if _, err := l.recorder.Acquire(); err != nil {
			if errors.Is(err, gpu.ErrPipelineClosed) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Close releases every goroutine blocked on the pipeline.
func (l *Loop) Close() {
	l.pipeline.Close()
}
