package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// maxPitch keeps the view direction away from the world up axis.
	maxPitch = 89.0 * math.Pi / 180.0

	fastMultiplier = 4.0
	slowMultiplier = 0.25
)

type cameraImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	up       mgl32.Vec3
	yaw      float32
	pitch    float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	speed       float32
	sensitivity float32

	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4

	projectionHooks []func(projection mgl32.Mat4)
}

// Movement is the set of movement intents sampled from input for one tick.
type Movement struct {
	Forward bool
	Back    bool
	Left    bool
	Right   bool
	Up      bool
	Down    bool

	// Fast and Slow scale the movement speed. When both are set they cancel out.
	Fast bool
	Slow bool
}

// Camera is a first-person camera driven by keyboard movement and mouse look.
// View and projection matrices are cached and recomputed only when their inputs change.
type Camera interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: the camera position
	Position() mgl32.Vec3

	// SetPosition moves the camera to the given world-space position.
	//
	// Parameters:
	//   - p: the new position
	SetPosition(p mgl32.Vec3)

	// Yaw returns the horizontal view angle in radians. Zero looks along +X; -π/2 looks along -Z.
	Yaw() float32

	// Pitch returns the vertical view angle in radians.
	Pitch() float32

	// Forward returns the unit view direction.
	//
	// Returns:
	//   - mgl32.Vec3: the normalized forward vector
	Forward() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// SetFov sets the vertical field of view in radians and notifies projection hooks.
	// Non-positive values are ignored.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio and notifies projection hooks.
	// Non-positive values are ignored, which covers minimized windows.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// Move translates the camera along its local axes according to the movement intents.
	//
	// Parameters:
	//   - m: the movement intents for this tick
	//   - dt: elapsed seconds since the previous tick
	Move(m Movement, dt float64)

	// Look rotates the camera by a cursor delta in pixels.
	//
	// Parameters:
	//   - dx: horizontal cursor movement
	//   - dy: vertical cursor movement, positive downward
	Look(dx, dy float64)

	// ViewMatrix returns the world-to-camera matrix.
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the camera-to-clip matrix.
	ProjectionMatrix() mgl32.Mat4

	// OnProjectionChange registers a hook called with the new projection matrix whenever the
	// field of view or aspect ratio changes. Hooks run on the caller's goroutine with the camera
	// unlocked.
	//
	// Parameters:
	//   - fn: the hook
	OnProjectionChange(fn func(projection mgl32.Mat4))
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera at the origin looking down -Z.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:          &sync.Mutex{},
		up:          mgl32.Vec3{0, 1, 0},
		yaw:         -math.Pi / 2,
		fov:         mgl32.DegToRad(90),
		aspect:      1.0,
		near:        0.01,
		far:         100.0,
		speed:       2.0,
		sensitivity: 0.002,
	}
	for _, option := range options {
		option(c)
	}
	c.updateView()
	c.updateProjection()
	return c
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) SetPosition(p mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
	c.updateView()
}

func (c *cameraImpl) Yaw() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yaw
}

func (c *cameraImpl) Pitch() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pitch
}

func (c *cameraImpl) Forward() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forward()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetFov(fov float32) {
	if !(fov > 0) {
		return
	}
	c.mu.Lock()
	c.fov = fov
	c.updateProjection()
	c.mu.Unlock()
	c.notifyProjection()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if !(aspect > 0) || math.IsInf(float64(aspect), 1) {
		return
	}
	c.mu.Lock()
	c.aspect = aspect
	c.updateProjection()
	c.mu.Unlock()
	c.notifyProjection()
}

func (c *cameraImpl) Move(m Movement, dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	speed := c.speed
	if m.Fast {
		speed *= fastMultiplier
	}
	if m.Slow {
		speed *= slowMultiplier
	}
	step := speed * float32(dt)

	forward := c.forward()
	right := forward.Cross(c.up).Normalize()

	var dir mgl32.Vec3
	if m.Forward {
		dir = dir.Add(forward)
	}
	if m.Back {
		dir = dir.Sub(forward)
	}
	if m.Right {
		dir = dir.Add(right)
	}
	if m.Left {
		dir = dir.Sub(right)
	}
	if m.Up {
		dir = dir.Add(c.up)
	}
	if m.Down {
		dir = dir.Sub(c.up)
	}
	if dir.Len() == 0 {
		return
	}
	c.position = c.position.Add(dir.Normalize().Mul(step))
	c.updateView()
}

func (c *cameraImpl) Look(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.yaw += float32(dx) * c.sensitivity
	c.pitch = mgl32.Clamp(c.pitch-float32(dy)*c.sensitivity, -maxPitch, maxPitch)
	c.updateView()
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) OnProjectionChange(fn func(projection mgl32.Mat4)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projectionHooks = append(c.projectionHooks, fn)
}

// forward computes the unit view direction from yaw and pitch.
// Caller must hold the mutex.
func (c *cameraImpl) forward() mgl32.Vec3 {
	cy, sy := math.Cos(float64(c.yaw)), math.Sin(float64(c.yaw))
	cp, sp := math.Cos(float64(c.pitch)), math.Sin(float64(c.pitch))
	return mgl32.Vec3{float32(cy * cp), float32(sp), float32(sy * cp)}.Normalize()
}

// updateView recomputes the cached view matrix. Caller must hold the mutex.
func (c *cameraImpl) updateView() {
	c.viewMatrix = mgl32.LookAtV(c.position, c.position.Add(c.forward()), c.up)
}

// updateProjection recomputes the cached projection matrix. Caller must hold the mutex.
func (c *cameraImpl) updateProjection() {
	c.projectionMatrix = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
}

func (c *cameraImpl) notifyProjection() {
	c.mu.Lock()
	projection := c.projectionMatrix
	hooks := append([]func(mgl32.Mat4){}, c.projectionHooks...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn(projection)
	}
}
