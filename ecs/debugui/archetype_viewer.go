package debugui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/swarm/ecs"
)

// Columns of the archetype table.
const (
	columnID = iota
	columnComponents
	columnComponentCount
	columnEntityCount
)

// ArchetypeViewer lists archetypes in a sortable table.
type ArchetypeViewer struct {
	rows          []ecs.ArchetypeStats
	sortColumn    int
	sortAscending bool
}

func NewArchetypeViewer() *ArchetypeViewer {
	return &ArchetypeViewer{sortColumn: columnEntityCount}
}

func (av *ArchetypeViewer) Render(storage *ecs.Storage) {
	if !imgui.BeginV("Archetype Viewer", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	// The entity set is sealed after the first tick, so only the counts move.
	av.rows = storage.CollectStats().ArchetypeBreakdown
	sortArchetypes(av.rows, av.sortColumn, av.sortAscending)

	maxEntityCount := 0
	for _, arch := range av.rows {
		maxEntityCount = max(maxEntityCount, arch.EntityCount)
	}

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("ArchetypeTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Archetype ID")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Comp Count")
		imgui.TableSetupColumn("Entity Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			av.sortColumn = int(spec.ColumnIndex())
			av.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortArchetypes(av.rows, av.sortColumn, av.sortAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		for _, arch := range av.rows {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("0x%X", arch.ID))

			imgui.TableNextColumn()
			imgui.Text(strings.Join(arch.ComponentTypes, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", len(arch.ComponentTypes)))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", arch.EntityCount))

			if maxEntityCount > 0 {
				barWidth := float32(arch.EntityCount) / float32(maxEntityCount) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}
		}

		imgui.EndTable()
	}

	imgui.End()
}

func sortArchetypes(rows []ecs.ArchetypeStats, column int, ascending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !ascending {
			i, j = j, i
		}
		return archetypeLess(rows[i], rows[j], column)
	})
}

func archetypeLess(a, b ecs.ArchetypeStats, column int) bool {
	switch column {
	case columnID:
		return a.ID < b.ID
	case columnComponents:
		return strings.Join(a.ComponentTypes, ",") < strings.Join(b.ComponentTypes, ",")
	case columnComponentCount:
		return len(a.ComponentTypes) < len(b.ComponentTypes)
	default:
		return a.EntityCount < b.EntityCount
	}
}
