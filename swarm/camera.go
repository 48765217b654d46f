package swarm

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/swarm/ecs"
)

// Camera is a perspective camera looking at a point with Z up.
type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3
	FovY   float32 // radians
	Aspect float32
	Near   float32
	Far    float32
}

// DefaultCamera looks down at the origin from above the grid's south-east corner.
func DefaultCamera() Camera {
	return Camera{
		Eye:    mgl32.Vec3{111.5, -115, 113},
		Up:     mgl32.Vec3{0, 0, 1},
		FovY:   mgl32.DegToRad(45),
		Aspect: 4.0 / 3.0,
		Near:   1,
		Far:    1000,
	}
}

// ViewProjection returns projection * view.
func (c Camera) ViewProjection() mgl32.Mat4 {
	view := mgl32.LookAtV(c.Eye, c.Target, c.Up)
	proj := mgl32.Perspective(c.FovY, c.Aspect, c.Near, c.Far)
	return proj.Mul4(view)
}

// Camera movement per Update while a key is held, and per wheel notch.
const (
	PanSpeed     float32 = 1
	RotateSpeed  float32 = math.Pi / 180
	ZoomFactor   float32 = 0.1
	MinZoomRange float32 = 5
)

// CameraController maps input events to camera movement: W/A/S/D pan across the
// ground plane, Q/E orbit around the target and the wheel zooms. The resulting
// transform is written to the ViewProjection singleton only when the camera
// actually moved.
type CameraController struct {
	camera   Camera
	held     [KeyEscape]bool
	zoom     float32
	viewProj *ecs.Singleton[ViewProjection]
	commands *ecs.Commands
}

// NewCameraController stores camera's transform in the storage and returns a
// controller driving it.
func NewCameraController(storage *ecs.Storage, camera Camera) *CameraController {
	c := &CameraController{
		camera:   camera,
		viewProj: ecs.NewSingleton[ViewProjection](storage),
	}
	c.viewProj.Set(ViewProjection{Transform: camera.ViewProjection()})
	return c
}

// Camera returns the current camera.
func (c *CameraController) Camera() Camera {
	return c.camera
}

// DeferTo routes transform updates through commands, so the singleton only
// changes when the scheduler flushes them between ticks. Without it updates
// are written immediately.
func (c *CameraController) DeferTo(commands *ecs.Commands) {
	c.commands = commands
}

// SetAspect updates the aspect ratio, e.g. after a resize.
func (c *CameraController) SetAspect(aspect float32) {
	if aspect <= 0 || aspect == c.camera.Aspect {
		return
	}
	c.camera.Aspect = aspect
	c.publish()
}

// Handle records an input event. Movement is applied by the next Update.
func (c *CameraController) Handle(event InputEvent) {
	switch event.Kind {
	case KeyChanged:
		if event.Key > KeyUnknown && event.Key < KeyEscape {
			c.held[event.Key] = event.Pressed
		}
	case Scrolled:
		switch {
		case event.Scroll > 0:
			c.zoom = 1
		case event.Scroll < 0:
			c.zoom = -1
		}
	}
}

// Update applies held keys and pending zoom to the camera. It reports whether
// the camera moved.
func (c *CameraController) Update() bool {
	var pan mgl32.Vec2
	if c.held[KeyW] {
		pan = pan.Add(mgl32.Vec2{0, 1})
	}
	if c.held[KeyA] {
		pan = pan.Add(mgl32.Vec2{-1, 0})
	}
	if c.held[KeyS] {
		pan = pan.Add(mgl32.Vec2{0, -1})
	}
	if c.held[KeyD] {
		pan = pan.Add(mgl32.Vec2{1, 0})
	}

	var rot float32
	if c.held[KeyQ] {
		rot++
	}
	if c.held[KeyE] {
		rot--
	}

	zoom := c.zoom
	c.zoom = 0

	if pan.Len() == 0 && rot == 0 && zoom == 0 {
		return false
	}

	cam := &c.camera
	if pan.Len() != 0 {
		pan = pan.Normalize().Mul(PanSpeed)
		// Pan relative to where the camera faces, projected on the ground.
		forward := cam.Target.Sub(cam.Eye)
		forward = mgl32.Vec3{forward.X(), forward.Y(), 0}
		if forward.Len() == 0 {
			forward = mgl32.Vec3{0, 1, 0}
		}
		forward = forward.Normalize()
		right := forward.Cross(cam.Up).Normalize()
		delta := right.Mul(pan.X()).Add(forward.Mul(pan.Y()))
		cam.Eye = cam.Eye.Add(delta)
		cam.Target = cam.Target.Add(delta)
	}
	if rot != 0 {
		orbit := mgl32.HomogRotate3DZ(rot * RotateSpeed)
		offset := cam.Eye.Sub(cam.Target)
		cam.Eye = cam.Target.Add(orbit.Mul4x1(offset.Vec4(0)).Vec3())
	}
	if zoom != 0 {
		offset := cam.Eye.Sub(cam.Target)
		scaled := offset.Mul(1 - zoom*ZoomFactor)
		if scaled.Len() >= MinZoomRange {
			cam.Eye = cam.Target.Add(scaled)
		}
	}

	c.publish()
	return true
}

func (c *CameraController) publish() {
	vp := ViewProjection{Transform: c.camera.ViewProjection()}
	if c.commands == nil {
		c.viewProj.Set(vp)
		return
	}
	c.commands.Defer(func() { c.viewProj.Set(vp) })
}
