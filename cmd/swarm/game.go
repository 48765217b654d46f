package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"

	"github.com/plus3/swarm/ecs/debugui"
	debugui_ebiten "github.com/plus3/swarm/ecs/debugui/ebiten"
	"github.com/plus3/swarm/engine"
	"github.com/plus3/swarm/gpu"
	"github.com/plus3/swarm/gpu/ebitensurface"
	"github.com/plus3/swarm/internal/config"
	"github.com/plus3/swarm/internal/logging"
	"github.com/plus3/swarm/internal/telemetry"
)

// game ticks the loop from Ebiten's Update and draws the last presented frame
// in Draw. In pipelined mode Update only records and a driver goroutine
// submits.
type game struct {
	loop      *engine.Loop
	surface   *ebitensurface.Surface
	input     *ebitensurface.Input
	pipelined bool
	last      time.Time

	overlay  *debugui.Overlay
	backend  *debugui_ebiten.ImguiBackend
	captured bool
}

func runEbiten(cfg config.Config, opts engine.Options, logger *logging.Logger, tel *telemetry.Telemetry) error {
	g := &game{
		surface:   ebitensurface.New(gpu.Cube()),
		input:     &ebitensurface.Input{},
		pipelined: cfg.Pipelined,
	}
	g.input.Suppress = func() bool { return g.captured }

	if cfg.DebugUI {
		g.backend = debugui_ebiten.NewImguiBackend("swarm", cfg.WindowWidth, cfg.WindowHeight)
	} else {
		ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
		ebiten.SetWindowTitle("swarm")
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)

	loop, err := engine.New(opts, g.surface, g.input, logger, tel)
	if err != nil {
		return err
	}
	defer loop.Close()
	g.loop = loop

	if g.backend != nil {
		g.overlay = debugui.NewOverlay(loop.Storage(), loop.Scheduler(), g.status)
	}

	var drivers errgroup.Group
	if g.pipelined {
		drivers.Go(loop.Drive)
	}

	g.last = time.Now()
	err = ebiten.RunGame(g)
	loop.Close()
	// A surface failure closes the pipeline, so Update only sees the closure.
	if derr := drivers.Wait(); derr != nil {
		err = derr
	}
	return err
}

func (g *game) Update() error {
	now := time.Now()
	elapsed := now.Sub(g.last)
	g.last = now

	var running bool
	var err error
	if g.pipelined {
		running, err = g.loop.Step()
	} else {
		running, err = g.loop.Tick()
	}
	if err != nil {
		return err
	}
	if !running {
		return ebiten.Termination
	}
	g.loop.ObserveFrame(elapsed)

	if g.overlay != nil {
		g.backend.BeginFrame()
		state := g.overlay.Render(float32(elapsed.Seconds()))
		g.backend.EndFrame()
		g.captured = state.WantCaptureKeyboard || state.WantCaptureMouse
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.surface.Draw(screen)
	if g.backend != nil {
		g.backend.Overlay(screen)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideHeight > 0 {
		g.loop.Camera().SetAspect(float32(outsideWidth) / float32(outsideHeight))
	}
	if g.backend != nil {
		g.backend.Layout(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

func (g *game) status() []debugui.Line {
	lines := []debugui.Line{
		{Label: "run", Value: g.loop.RunID().String()},
		{Label: "entities", Value: strconv.Itoa(len(g.loop.Entities()))},
		{Label: "frames", Value: strconv.FormatUint(g.loop.Frames(), 10)},
		{Label: "presented", Value: strconv.FormatUint(g.loop.Submitted(), 10)},
		{Label: "instances", Value: strconv.Itoa(g.loop.Batch().Len())},
		{Label: "dropped", Value: strconv.Itoa(g.loop.Batch().Dropped())},
	}
	if report, ok := g.loop.LastReport(); ok {
		lines = append(lines,
			debugui.Line{Label: "fps", Value: fmt.Sprintf("%.1f", report.FPS())},
			debugui.Line{Label: "frame", Value: report.String()})
	}
	return lines
}
