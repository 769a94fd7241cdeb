package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-4

// near compares component-wise against an absolute bound.
func near(got, want mgl32.Vec3) bool {
	for i := range got {
		if math.Abs(float64(got[i]-want[i])) > eps {
			return false
		}
	}
	return true
}

func TestDefaultLooksDownNegativeZ(t *testing.T) {
	c := NewCamera()
	f := c.Forward()
	if !near(f, mgl32.Vec3{0, 0, -1}) {
		t.Fatalf("forward = %v, want (0,0,-1)", f)
	}
	// A point straight ahead lands on the view axis.
	p := c.ViewMatrix().Mul4x1(mgl32.Vec4{0, 0, -5, 1})
	if math.Abs(float64(p.X())) > eps || math.Abs(float64(p.Y())) > eps || p.Z() >= 0 {
		t.Fatalf("view-space point = %v", p)
	}
}

func TestMoveForwardAndStrafe(t *testing.T) {
	c := NewCamera(WithSpeed(2))
	c.Move(Movement{Forward: true}, 0.5)
	if p := c.Position(); !near(p, mgl32.Vec3{0, 0, -1}) {
		t.Fatalf("after forward, position = %v", p)
	}
	c.Move(Movement{Right: true}, 0.5)
	if p := c.Position(); !near(p, mgl32.Vec3{1, 0, -1}) {
		t.Fatalf("after strafe, position = %v", p)
	}
	c.Move(Movement{Up: true, Fast: true}, 0.5)
	if p := c.Position(); !near(p, mgl32.Vec3{1, 4, -1}) {
		t.Fatalf("after fast rise, position = %v", p)
	}
}

func TestOpposingMovementCancels(t *testing.T) {
	c := NewCamera()
	before := c.ViewMatrix()
	c.Move(Movement{Forward: true, Back: true}, 1)
	if c.Position() != (mgl32.Vec3{}) || c.ViewMatrix() != before {
		t.Fatal("opposing inputs moved the camera")
	}
}

func TestLookClampsPitch(t *testing.T) {
	c := NewCamera(WithSensitivity(0.01))
	c.Look(0, -100000)
	if c.Pitch() > maxPitch+eps || c.Pitch() < maxPitch-eps {
		t.Fatalf("pitch = %v, want clamped to %v", c.Pitch(), maxPitch)
	}
	yaw := c.Yaw()
	c.Look(10, 0)
	if got := c.Yaw() - yaw; math.Abs(float64(got-0.1)) > eps {
		t.Fatalf("yaw delta = %v, want 0.1", got)
	}
}

func TestProjectionHooks(t *testing.T) {
	c := NewCamera()
	var got []mgl32.Mat4
	c.OnProjectionChange(func(p mgl32.Mat4) { got = append(got, p) })

	c.SetFov(mgl32.DegToRad(60))
	c.SetAspect(16.0 / 9.0)
	c.SetAspect(0)
	c.SetFov(-1)
	c.SetAspect(float32(math.NaN()))
	c.SetFov(float32(math.NaN()))

	if len(got) != 2 {
		t.Fatalf("hooks fired %d times, want 2", len(got))
	}
	want := mgl32.Perspective(mgl32.DegToRad(60), 16.0/9.0, c.Near(), c.Far())
	if got[1] != want || c.ProjectionMatrix() != want {
		t.Fatalf("projection = %v, want %v", got[1], want)
	}
}

func TestFrameUniformMarshal(t *testing.T) {
	c := NewCamera(WithPosition(mgl32.Vec3{3, 0, 0}))
	u := NewGPUFrameUniform(c, mgl32.Vec4{0, 1, 1, 1})
	if u.Size() != 144 {
		t.Fatalf("Size = %d, want 144", u.Size())
	}
	buf := u.Marshal()
	if len(buf) != 144 {
		t.Fatalf("len = %d", len(buf))
	}
	tx := math.Float32frombits(binary.LittleEndian.Uint32(buf[12*4:]))
	if tx != c.ViewMatrix()[12] {
		t.Errorf("view translation x = %v, want %v", tx, c.ViewMatrix()[12])
	}
	g := math.Float32frombits(binary.LittleEndian.Uint32(buf[128+4:]))
	if g != 1 {
		t.Errorf("color green = %v, want 1", g)
	}
}
