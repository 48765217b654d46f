package gpu

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// FrameState is a Backend that keeps the outcome of replaying one context:
// the clear values, the transform and the instances drawn. Surfaces that
// rasterize on their own schedule replay into a FrameState and draw from it.
type FrameState struct {
	Clear     Color
	Depth     float32
	Transform mgl32.Mat4
	Instances []InstanceRecord
	Drawn     int
}

func (f *FrameState) ClearColor(c Color) {
	f.Clear = c
}

func (f *FrameState) ClearDepth(depth float32) {
	f.Depth = depth
}

func (f *FrameState) SetTransform(m mgl32.Mat4) {
	f.Transform = m
}

// SetInstances copies instances; the context's buffer is reused after Submit.
func (f *FrameState) SetInstances(instances []InstanceRecord) {
	f.Instances = append(f.Instances[:0], instances...)
}

func (f *FrameState) DrawInstanced(count int) error {
	if count > len(f.Instances) {
		return errors.Wrapf(ErrInstanceOverflow, "draw of %d instances, %d uploaded", count, len(f.Instances))
	}
	f.Drawn = count
	return nil
}

// Visible returns the instances covered by the last draw.
func (f *FrameState) Visible() []InstanceRecord {
	return f.Instances[:f.Drawn]
}

// Reset forgets the instances, keeping the buffer.
func (f *FrameState) Reset() {
	f.Instances = f.Instances[:0]
	f.Drawn = 0
}
