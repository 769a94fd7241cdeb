package game_object

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/Carmen-Shannon/oxy-batch/engine/batcher"
	"github.com/Carmen-Shannon/oxy-batch/engine/geometry"
	"github.com/Carmen-Shannon/oxy-batch/engine/slot"
	"github.com/Carmen-Shannon/oxy-batch/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

type gameObject struct {
	id      uint64
	enabled atomic.Bool
	program common.ProgramID
	mesh    geometry.Mesh

	transform     transform.Transform
	rotationSpeed mgl32.Vec3

	attached bool
	slot     slot.ID
	// slots repeats the object's slot once per vertex; rebuilt on Attach.
	slots []slot.ID
}

// GameObject is a drawable entity that owns one local-to-world matrix slot while attached.
// Its lifecycle is Attach (acquire a slot), any number of Update/Submit calls, then Destroy
// (release the slot and restore the identity matrix). Not safe for concurrent use.
type GameObject interface {
	// ID returns the object's identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// SetID sets the object's identifier.
	//
	// Parameters:
	//   - id: the new identifier
	SetID(id uint64)

	// Enabled reports whether Submit queues the object for drawing.
	Enabled() bool

	// SetEnabled toggles whether the object is drawn.
	//
	// Parameters:
	//   - enabled: true to draw the object
	SetEnabled(enabled bool)

	// Program returns the shader program the object is drawn with.
	Program() common.ProgramID

	// Mesh returns the object's geometry.
	Mesh() geometry.Mesh

	// Slot returns the held matrix slot.
	//
	// Returns:
	//   - slot.ID: the slot
	//   - bool: false if the object is not attached
	Slot() (slot.ID, bool)

	// Transform returns the object's position, rotation and scale.
	Transform() transform.Transform

	// SetPosition sets the object's world-space position.
	SetPosition(p mgl32.Vec3)

	// SetRotation sets the object's Euler rotation in radians.
	SetRotation(r mgl32.Vec3)

	// SetScale sets the object's per-axis scale.
	SetScale(s mgl32.Vec3)

	// SetRotationSpeed sets the Euler rotation applied per second by Update.
	SetRotationSpeed(r mgl32.Vec3)

	// Update advances the object's rotation by its rotation speed.
	//
	// Parameters:
	//   - dt: elapsed seconds since the previous tick
	Update(dt float64)

	// Attach acquires a matrix slot for the object.
	//
	// Parameters:
	//   - alloc: the allocator to acquire from
	//
	// Returns:
	//   - error: common.ErrCapacityExhausted if no slot is free, common.ErrAlreadyAttached if the object holds one
	Attach(alloc slot.Allocator) error

	// Destroy releases the object's slot and restores its matrix to identity.
	// Destroying a detached object is a no-op.
	//
	// Parameters:
	//   - alloc: the allocator the slot was acquired from
	//   - store: the transform store holding the slot's matrix
	//
	// Returns:
	//   - error: if the slot could not be released
	Destroy(alloc slot.Allocator, store transform.Store) error

	// Submit writes the object's matrix into its slot and queues its mesh on the object's program.
	// Disabled objects are skipped.
	//
	// Parameters:
	//   - store: the transform store to write the matrix into
	//   - b: the batcher to queue the mesh on
	//
	// Returns:
	//   - error: common.ErrInvalidSlot if the object is not attached, or the queueing error
	Submit(store transform.Store, b batcher.Batcher) error
}

var _ GameObject = &gameObject{}

// NewGameObject creates a detached, enabled GameObject.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	g := &gameObject{
		transform: transform.NewTransform(),
	}
	g.enabled.Store(true)
	for _, option := range options {
		option(g)
	}
	return g
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) Program() common.ProgramID {
	return g.program
}

func (g *gameObject) Mesh() geometry.Mesh {
	return g.mesh
}

func (g *gameObject) Slot() (slot.ID, bool) {
	return g.slot, g.attached
}

func (g *gameObject) Transform() transform.Transform {
	return g.transform
}

func (g *gameObject) SetPosition(p mgl32.Vec3) {
	g.transform.Position = p
}

func (g *gameObject) SetRotation(r mgl32.Vec3) {
	g.transform.Rotation = r
}

func (g *gameObject) SetScale(s mgl32.Vec3) {
	g.transform.Scale = s
}

func (g *gameObject) SetRotationSpeed(r mgl32.Vec3) {
	g.rotationSpeed = r
}

func (g *gameObject) Update(dt float64) {
	if g.rotationSpeed == (mgl32.Vec3{}) {
		return
	}
	d := g.rotationSpeed.Mul(float32(dt))
	g.transform.Rotate(d.X(), d.Y(), d.Z())
}

func (g *gameObject) Attach(alloc slot.Allocator) error {
	if g.attached {
		return fmt.Errorf("object %d holds slot %d: %w", g.id, g.slot, common.ErrAlreadyAttached)
	}
	id, err := alloc.Acquire()
	if err != nil {
		return fmt.Errorf("failed to attach object %d: %w", g.id, err)
	}
	g.slot = id
	g.attached = true
	g.slots = slices.Repeat([]slot.ID{id}, len(g.mesh.Positions))
	return nil
}

func (g *gameObject) Destroy(alloc slot.Allocator, store transform.Store) error {
	if !g.attached {
		return nil
	}
	if err := alloc.Release(g.slot); err != nil {
		return fmt.Errorf("failed to destroy object %d: %w", g.id, err)
	}
	g.attached = false
	g.slots = nil
	return store.Reset(g.slot)
}

func (g *gameObject) Submit(store transform.Store, b batcher.Batcher) error {
	if !g.Enabled() {
		return nil
	}
	if !g.attached {
		return fmt.Errorf("object %d is not attached: %w", g.id, common.ErrInvalidSlot)
	}
	if err := store.Set(g.slot, g.transform.Matrix()); err != nil {
		return err
	}
	return b.Program(g.program).QueueDraw(g.mesh.Indices, g.mesh.Positions, g.slots)
}
