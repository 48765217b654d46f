package gpu

import "github.com/go-gl/mathgl/mgl32"

// Project maps a world-space point through transform onto a width x height
// viewport. The returned X and Y are pixel coordinates with Y growing down;
// Z is the normalized device depth in [-1, 1]. ok is false when the point is
// behind the camera or outside the depth range.
func Project(transform mgl32.Mat4, p mgl32.Vec3, width, height float32) (screen mgl32.Vec3, ok bool) {
	clip := transform.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return mgl32.Vec3{}, false
	}

	ndc := clip.Vec3().Mul(1 / clip.W())
	if ndc.Z() < -1 || ndc.Z() > 1 {
		return mgl32.Vec3{}, false
	}

	return mgl32.Vec3{
		(ndc.X() + 1) / 2 * width,
		(1 - ndc.Y()) / 2 * height,
		ndc.Z(),
	}, true
}

// Translation returns the instance translation as a vector.
func (r InstanceRecord) Translation() mgl32.Vec3 {
	return mgl32.Vec3(r.Translate)
}
