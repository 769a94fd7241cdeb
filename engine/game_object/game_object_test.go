package game_object

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/Carmen-Shannon/oxy-batch/engine/batcher"
	"github.com/Carmen-Shannon/oxy-batch/engine/geometry"
	"github.com/Carmen-Shannon/oxy-batch/engine/renderer/recorder"
	"github.com/Carmen-Shannon/oxy-batch/engine/slot"
	"github.com/Carmen-Shannon/oxy-batch/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

const solid common.ProgramID = "solid"

func TestLifecycle(t *testing.T) {
	alloc := slot.NewAllocator(4)
	store := transform.NewStore(4)
	rec := recorder.NewRecorder()
	b := batcher.NewBatcher(rec, batcher.WithPackWorkers(1))

	obj := NewGameObject(
		WithID(7),
		WithMesh(geometry.Triangle()),
		WithProgram(solid),
		WithPosition(mgl32.Vec3{1, 0, 0}),
	)
	if err := obj.Submit(store, b); !errors.Is(err, common.ErrInvalidSlot) {
		t.Fatalf("Submit before Attach = %v, want ErrInvalidSlot", err)
	}

	if err := obj.Attach(alloc); err != nil {
		t.Fatal(err)
	}
	id, ok := obj.Slot()
	if !ok || id != 0 {
		t.Fatalf("Slot = %d, %v", id, ok)
	}
	if err := obj.Attach(alloc); !errors.Is(err, common.ErrAlreadyAttached) {
		t.Fatalf("second Attach = %v, want ErrAlreadyAttached", err)
	}
	if alloc.Len() != 1 {
		t.Fatalf("held = %d after a rejected Attach, want 1", alloc.Len())
	}

	if err := obj.Submit(store, b); err != nil {
		t.Fatal(err)
	}
	m, _ := store.Get(id)
	if m.Col(3) != (mgl32.Vec4{1, 0, 0, 1}) {
		t.Fatalf("stored matrix translation = %v", m.Col(3))
	}
	if err := b.DrawEverything(); err != nil {
		t.Fatal(err)
	}
	vb, _ := rec.Geometry(solid)
	for i, v := range batcher.UnpackVertices(vb) {
		if v.Slot != id {
			t.Errorf("vertex %d slot = %d, want %d", i, v.Slot, id)
		}
	}

	if err := obj.Destroy(alloc, store); err != nil {
		t.Fatal(err)
	}
	if alloc.Held(id) {
		t.Error("slot still held after Destroy")
	}
	if m, _ := store.Get(id); m != mgl32.Ident4() {
		t.Error("matrix not reset to identity after Destroy")
	}
	if err := obj.Destroy(alloc, store); err != nil {
		t.Fatalf("second Destroy = %v", err)
	}
}

func TestAttachExhausted(t *testing.T) {
	alloc := slot.NewAllocator(1)
	a := NewGameObject()
	b := NewGameObject()
	if err := a.Attach(alloc); err != nil {
		t.Fatal(err)
	}
	if err := b.Attach(alloc); !errors.Is(err, common.ErrCapacityExhausted) {
		t.Fatalf("Attach = %v, want ErrCapacityExhausted", err)
	}
}

func TestDisabledSkipsSubmit(t *testing.T) {
	alloc := slot.NewAllocator(2)
	store := transform.NewStore(2)
	b := batcher.NewBatcher(recorder.NewRecorder(), batcher.WithPackWorkers(1))

	obj := NewGameObject(WithMesh(geometry.Triangle()), WithProgram(solid), WithEnabled(false))
	if err := obj.Attach(alloc); err != nil {
		t.Fatal(err)
	}
	if err := obj.Submit(store, b); err != nil {
		t.Fatal(err)
	}
	if b.Program(solid).Pending() != 0 {
		t.Fatal("disabled object was queued")
	}
}

func TestUpdateAppliesRotationSpeed(t *testing.T) {
	obj := NewGameObject(WithRotationSpeed(mgl32.Vec3{0, 2, 0}))
	obj.Update(0.25)
	obj.Update(0.25)
	if r := obj.Transform().Rotation; !r.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Fatalf("rotation = %v, want (0,1,0)", r)
	}
}
