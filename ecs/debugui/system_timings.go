package debugui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/swarm/ecs"
)

// SystemTimings shows the scheduler's per-system statistics.
type SystemTimings struct{}

func NewSystemTimings() *SystemTimings {
	return &SystemTimings{}
}

func (st *SystemTimings) Render(stats *ecs.SchedulerStats) {
	if !imgui.BeginV("Systems", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Frames: %d  Executions: %d", stats.Frames, stats.TotalExecutions))

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if imgui.BeginTableV("SystemTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("System")
		imgui.TableSetupColumn("Phase")
		imgui.TableSetupColumn("Last")
		imgui.TableSetupColumn("Avg")
		imgui.TableSetupColumn("Max")
		imgui.TableHeadersRow()

		for _, row := range systemRows(stats) {
			imgui.TableNextRow()
			for _, cell := range row {
				imgui.TableNextColumn()
				imgui.Text(cell)
			}
		}
		imgui.EndTable()
	}

	imgui.End()
}

// systemRows formats the table cells, one row per system in registration order.
func systemRows(stats *ecs.SchedulerStats) [][5]string {
	rows := make([][5]string, 0, len(stats.Systems))
	for _, s := range stats.Systems {
		rows = append(rows, [5]string{
			s.Name,
			s.Phase.String(),
			formatDuration(s.LastDuration),
			formatDuration(s.AvgDuration),
			formatDuration(s.MaxDuration),
		})
	}
	return rows
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}
