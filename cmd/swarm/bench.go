package main

import (
	"context"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/plus3/swarm/engine"
	"github.com/plus3/swarm/gpu"
	"github.com/plus3/swarm/internal/config"
	"github.com/plus3/swarm/internal/logging"
)

func newBenchCmd(s *settings) *cobra.Command {
	var (
		duration       time.Duration
		gcPauseMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Tick a headless swarm for a fixed time and print a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := runBench(cmd, s, duration)
			if err != nil {
				cmd.PrintErrln("swarm:", err)
				return err
			}
			report.Duration = duration
			report.GCPauseMetrics = gcPauseMetrics
			return report.Generate(cmd.OutOrStdout())
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to tick")
	cmd.Flags().BoolVar(&gcPauseMetrics, "gc-pause-metrics", false, "include GC pause totals in the report")
	return cmd
}

func runBench(cmd *cobra.Command, s *settings, duration time.Duration) (*Report, error) {
	cfg, err := s.load(cmd)
	if err != nil {
		return nil, err
	}
	cfg.Surface = config.SurfaceHeadless
	cfg.DebugUI = false
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), duration)
	defer cancel()
	return bench(ctx, cfg, logger)
}

// bench ticks a headless loop until ctx is done or the frame limit is hit.
func bench(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Report, error) {
	opts := engineOptions(cfg)
	surface := gpu.NewHeadlessSurface()
	loop, err := engine.New(opts, surface, nil, logger, nil)
	if err != nil {
		return nil, err
	}
	defer loop.Close()

	report := &Report{
		Entities:  len(loop.Entities()),
		Capacity:  opts.Capacity,
		Step:      opts.Grid.Step,
		Systems:   loop.Scheduler().GetStats().SystemCount,
		FrameTime: Stats{Samples: make([]time.Duration, 0, 1024)},
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	start := time.Now()
	for ctx.Err() == nil {
		frameStart := time.Now()
		running, err := loop.Tick()
		if err != nil {
			return nil, err
		}
		if !running {
			break
		}
		elapsed := time.Since(frameStart)
		loop.ObserveFrame(elapsed)
		report.FrameTime.Samples = append(report.FrameTime.Samples, elapsed)
	}

	report.TotalTime = time.Since(start)
	report.TotalFrames = loop.Frames()
	report.Drawn = surface.Stats().Draws
	report.FrameTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)
	return report, nil
}
