package ebiten_test

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/swarm/ecs"
	"github.com/plus3/swarm/ecs/debugui"
	debugui_ebiten "github.com/plus3/swarm/ecs/debugui/ebiten"
)

type Position struct{ X, Y float32 }

// Game runs the scheduler in Update and draws the debug overlay on top of the
// scene in Draw.
type Game struct {
	scheduler *ecs.Scheduler
	overlay   *debugui.Overlay
	backend   *debugui_ebiten.ImguiBackend
	last      time.Time
}

func (g *Game) Update() error {
	now := time.Now()
	dt := now.Sub(g.last)
	g.last = now

	if err := g.scheduler.Once(dt.Seconds()); err != nil {
		return err
	}

	g.backend.BeginFrame()
	g.overlay.Render(float32(dt.Seconds()))
	g.backend.EndFrame()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	// Draw game content to screen
	// ...

	g.backend.Overlay(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func Example() {
	backend := debugui_ebiten.NewImguiBackend("ECS ImGui Example", 1280, 720)

	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	storage := ecs.NewStorage(registry)
	storage.Spawn(Position{X: 1, Y: 2})

	scheduler := ecs.NewScheduler(storage)
	overlay := debugui.NewOverlay(storage, scheduler, func() []debugui.Line {
		return []debugui.Line{{Label: "entities", Value: "1"}}
	})

	game := &Game{
		scheduler: scheduler,
		overlay:   overlay,
		backend:   backend,
		last:      time.Now(),
	}

	if err := ebiten.RunGame(game); err != nil {
		panic(err)
	}
}
