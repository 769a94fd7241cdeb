package transform

import "github.com/go-gl/mathgl/mgl32"

// Transform is a position, Euler rotation and scale that produces a local-to-world matrix.
// Rotation is in radians and applied in Y * X * Z order (yaw, pitch, roll).
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// NewTransform returns a Transform at the origin with no rotation and unit scale.
func NewTransform() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix builds the local-to-world matrix as T * Ry * Rx * Rz * S.
//
// Returns:
//   - mgl32.Mat4: the column-major local-to-world matrix
func (t Transform) Matrix() mgl32.Mat4 {
	rot := mgl32.HomogRotate3DY(t.Rotation.Y()).
		Mul4(mgl32.HomogRotate3DX(t.Rotation.X())).
		Mul4(mgl32.HomogRotate3DZ(t.Rotation.Z()))
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(rot).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Translate moves the transform by the given offset.
//
// Parameters:
//   - dx, dy, dz: world-space offset
func (t *Transform) Translate(dx, dy, dz float32) {
	t.Position = t.Position.Add(mgl32.Vec3{dx, dy, dz})
}

// Rotate adds the given Euler angles (radians) to the current rotation.
//
// Parameters:
//   - rx, ry, rz: rotation deltas around each axis
func (t *Transform) Rotate(rx, ry, rz float32) {
	t.Rotation = t.Rotation.Add(mgl32.Vec3{rx, ry, rz})
}
