package gpu

import "github.com/go-gl/mathgl/mgl32"

// CommandKind identifies a recorded command.
type CommandKind uint8

const (
	CmdClearColor CommandKind = iota + 1
	CmdClearDepth
	CmdUpdateConstants
	CmdUpdateInstances
	CmdDrawInstanced
)

func (k CommandKind) String() string {
	switch k {
	case CmdClearColor:
		return "clear-color"
	case CmdClearDepth:
		return "clear-depth"
	case CmdUpdateConstants:
		return "update-constants"
	case CmdUpdateInstances:
		return "update-instances"
	case CmdDrawInstanced:
		return "draw-instanced"
	default:
		return "unknown"
	}
}

// Color is a linear RGBA colour.
type Color [4]float32

// InstanceRecord is the per-instance vertex attribute: the translation applied
// to the shared geometry.
type InstanceRecord struct {
	Translate [3]float32
}

// Command is one recorded operation. Only the fields relevant to Kind are set.
type Command struct {
	Kind      CommandKind
	Color     Color
	Depth     float32
	Transform mgl32.Mat4
	Count     int
}

// Backend executes recorded commands. Surfaces implement it and replay a
// RecordingContext into themselves on Submit.
type Backend interface {
	ClearColor(c Color)
	ClearDepth(depth float32)
	SetTransform(m mgl32.Mat4)
	SetInstances(instances []InstanceRecord)
	DrawInstanced(count int) error
}

// Surface accepts recorded contexts for presentation.
type Surface interface {
	// Submit executes the commands recorded in rc. The surface must not retain
	// rc or its instance buffer after returning.
	Submit(rc *RecordingContext) error
	// Swap presents the submitted frame.
	Swap() error
	// Cleanup reclaims per-frame resources between frames.
	Cleanup()
}
