package ebitensurface

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/swarm/gpu"
)

// Base grey of the cubes, lit per face by faceLight.
const baseShade float32 = 0x50 / 255.0 * 2.5

// faceLight is the brightness of each face of gpu.Cube: top, bottom, right,
// left, front, back.
var faceLight = [6]float32{1.0, 0.35, 0.75, 0.55, 0.65, 0.85}

type batch struct {
	vertices []ebiten.Vertex
	indices  []uint16
}

type depthRef struct {
	index int
	depth float32
}

// mesh turns instances into screen-space triangles. Without a depth buffer,
// instances are painted far to near and faces pointing away are skipped.
type mesh struct {
	order     []depthRef
	projected []mgl32.Vec3
	batches   []batch
	used      int
}

func (m *mesh) build(frame *gpu.FrameState, geometry gpu.Geometry, width, height float32) {
	m.used = 0
	m.sortByDepth(frame, width, height)

	faces := len(geometry.Indices) / 6
	if cap(m.projected) < len(geometry.Vertices) {
		m.projected = make([]mgl32.Vec3, len(geometry.Vertices))
	}
	m.projected = m.projected[:len(geometry.Vertices)]

	cur := m.next()
	for _, ref := range m.order {
		offset := frame.Instances[ref.index].Translation()

		visible := true
		for i, v := range geometry.Vertices {
			p := mgl32.Vec3{float32(v.Pos[0]), float32(v.Pos[1]), float32(v.Pos[2])}.Add(offset)
			screen, ok := gpu.Project(frame.Transform, p, width, height)
			if !ok {
				visible = false
				break
			}
			m.projected[i] = screen
		}
		if !visible {
			continue
		}

		for f := 0; f < faces; f++ {
			quad := geometry.Indices[f*6 : f*6+6]
			a, b, c := m.projected[quad[0]], m.projected[quad[1]], m.projected[quad[2]]
			// Screen Y grows down, so faces wound counter-clockwise in
			// world space have a negative signed area when facing the camera.
			if (b.X()-a.X())*(c.Y()-a.Y())-(b.Y()-a.Y())*(c.X()-a.X()) >= 0 {
				continue
			}

			if len(cur.vertices)+4 > maxBatchVertices {
				cur = m.next()
			}
			shade := baseShade * faceLight[min(f, len(faceLight)-1)]
			base := uint16(len(cur.vertices))
			for _, vi := range []uint16{quad[0], quad[1], quad[2], quad[4]} {
				p := m.projected[vi]
				cur.vertices = append(cur.vertices, ebiten.Vertex{
					DstX: p.X(), DstY: p.Y(),
					SrcX: 1, SrcY: 1,
					ColorR: shade, ColorG: shade, ColorB: shade, ColorA: 1,
				})
			}
			cur.indices = append(cur.indices, base, base+1, base+2, base+2, base+3, base)
		}
	}

	m.batches = m.batches[:m.used]
}

// next starts a new batch, reusing buffers from earlier frames.
func (m *mesh) next() *batch {
	if m.used < cap(m.batches) {
		m.batches = m.batches[:m.used+1]
	} else {
		m.batches = append(m.batches, batch{})
	}
	b := &m.batches[m.used]
	b.vertices = b.vertices[:0]
	b.indices = b.indices[:0]
	m.used++
	return b
}

func (m *mesh) sortByDepth(frame *gpu.FrameState, width, height float32) {
	m.order = m.order[:0]
	for i, inst := range frame.Visible() {
		center, ok := gpu.Project(frame.Transform, inst.Translation(), width, height)
		if !ok {
			continue
		}
		m.order = append(m.order, depthRef{index: i, depth: center.Z()})
	}
	slices.SortStableFunc(m.order, func(a, b depthRef) int {
		switch {
		case a.depth > b.depth:
			return -1
		case a.depth < b.depth:
			return 1
		default:
			return 0
		}
	})
}
