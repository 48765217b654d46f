package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/signal"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
	"github.com/pkg/profile"

	"github.com/plus3/swarm/engine"
	"github.com/plus3/swarm/gpu"
	"github.com/plus3/swarm/gpu/termsurface"
	"github.com/plus3/swarm/internal/config"
	"github.com/plus3/swarm/internal/logging"
	"github.com/plus3/swarm/internal/telemetry"
)

// retainedWindows is how many report windows of metrics are kept in memory.
const retainedWindows = 10

func run(ctx context.Context, cfg config.Config, stderr io.Writer) error {
	logOut := stderr
	if cfg.Surface == config.SurfaceTerminal {
		// The screen owns the terminal until it is finalized.
		held := &heldOutput{}
		defer held.flush(stderr)
		logOut = held
	}

	logger, err := logging.New(logOut, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return err
	}

	switch cfg.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	tel, err := telemetry.New("swarm", cfg.ReportWindow(), retainedWindows*cfg.ReportWindow())
	if err != nil {
		return errors.Wrap(err, "metrics")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	opts := engineOptions(cfg)
	switch cfg.Surface {
	case config.SurfaceHeadless:
		err = runHeadless(ctx, cfg, opts, logger, tel)
	case config.SurfaceTerminal:
		err = runTerminal(ctx, cfg, opts, logger, tel)
	default:
		err = runEbiten(cfg, opts, logger, tel)
	}

	snap := tel.Snapshot()
	logger.Info().
		Str("surface", cfg.Surface).
		Int("frames", snap.Frames).
		Float64("frame_ms_mean", snap.FrameMs.Mean()).
		Float64("frame_ms_max", snap.FrameMs.Max).
		Float32("instances", snap.Instances).
		Float32("dropped", snap.Dropped).
		Msg("swarm stopped")
	return err
}

func engineOptions(cfg config.Config) engine.Options {
	opts := engine.DefaultOptions()
	opts.Grid = cfg.Grid()
	opts.Capacity = cfg.InstanceCapacity
	opts.ReportWindow = cfg.ReportWindow()
	opts.MaxFrames = cfg.Frames
	opts.Camera.Aspect = cfg.Aspect()
	return opts
}

func runLoop(ctx context.Context, loop *engine.Loop, pipelined bool) error {
	if pipelined {
		return loop.RunPipelined(ctx)
	}
	return loop.Run(ctx)
}

func runHeadless(ctx context.Context, cfg config.Config, opts engine.Options, logger *logging.Logger, tel *telemetry.Telemetry) error {
	surface := gpu.NewHeadlessSurface()
	loop, err := engine.New(opts, surface, nil, logger, tel)
	if err != nil {
		return err
	}
	defer loop.Close()

	err = runLoop(ctx, loop, cfg.Pipelined)
	stats := surface.Stats()
	logger.Info().
		Int("submits", stats.Submits).
		Int("swaps", stats.Swaps).
		Int("draws", stats.Draws).
		Int("last_instances", len(stats.Instances)).
		Msg("headless surface")
	return err
}

func runTerminal(ctx context.Context, cfg config.Config, opts engine.Options, logger *logging.Logger, tel *telemetry.Telemetry) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return errors.Wrap(err, "terminal")
	}
	if err := screen.Init(); err != nil {
		return errors.Wrap(err, "terminal")
	}
	defer screen.Fini()
	screen.EnableMouse()

	// Cells are about twice as tall as they are wide.
	w, h := screen.Size()
	if w > 0 && h > 0 {
		opts.Camera.Aspect = float32(w) / float32(2*h)
	}

	input := termsurface.NewInput(screen)
	defer input.Close()

	loop, err := engine.New(opts, termsurface.New(screen), input, logger, tel)
	if err != nil {
		return err
	}
	defer loop.Close()
	return runLoop(ctx, loop, cfg.Pipelined)
}

// heldOutput buffers log output while a terminal screen is active.
type heldOutput struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (h *heldOutput) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.Write(p)
}

func (h *heldOutput) flush(w io.Writer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, _ = h.buf.WriteTo(w)
}
