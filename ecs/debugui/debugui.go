// Package debugui draws Dear ImGui windows describing a running ECS: storage
// contents, per-system timings and caller supplied counters.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/swarm/ecs"
)

// Line is a labelled value shown in the overlay's status window.
type Line struct {
	Label string
	Value string
}

// InputState reports whether ImGui consumed input this frame.
type InputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// Overlay groups the debug windows. Render must be called between the backend's
// BeginFrame and EndFrame.
type Overlay struct {
	storage    *ecs.Storage
	scheduler  *ecs.Scheduler
	status     func() []Line
	perf       *PerformanceStats
	archetypes *ArchetypeViewer
	systems    *SystemTimings
}

// NewOverlay creates the overlay. status may be nil.
func NewOverlay(storage *ecs.Storage, scheduler *ecs.Scheduler, status func() []Line) *Overlay {
	return &Overlay{
		storage:    storage,
		scheduler:  scheduler,
		status:     status,
		perf:       NewPerformanceStats(120),
		archetypes: NewArchetypeViewer(),
		systems:    NewSystemTimings(),
	}
}

// Render draws every window. deltaTime is the wall time of the last frame in seconds.
func (o *Overlay) Render(deltaTime float32) InputState {
	o.perf.Render(o.storage, deltaTime)
	o.archetypes.Render(o.storage)
	if o.scheduler != nil {
		o.systems.Render(o.scheduler.GetStats())
	}
	if o.status != nil {
		renderStatus(o.status())
	}

	io := imgui.CurrentIO()
	return InputState{
		WantCaptureMouse:    io.WantCaptureMouse(),
		WantCaptureKeyboard: io.WantCaptureKeyboard(),
	}
}

func renderStatus(lines []Line) {
	imgui.SetNextWindowPosV(imgui.NewVec2(10, 10), imgui.CondOnce, imgui.NewVec2(0, 0))
	if imgui.BeginV("Status", nil, imgui.WindowFlagsAlwaysAutoResize) {
		for _, line := range lines {
			imgui.Text(line.Label + ": " + line.Value)
		}
	}
	imgui.End()
}
