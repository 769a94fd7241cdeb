package batcher

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/Carmen-Shannon/oxy-batch/engine/renderer/recorder"
	"github.com/Carmen-Shannon/oxy-batch/engine/slot"
	"github.com/go-gl/mathgl/mgl32"
)

const solid common.ProgramID = "solid"

func triangle(offset float32, s slot.ID) ([]uint32, []mgl32.Vec3, []slot.ID) {
	return []uint32{0, 1, 2},
		[]mgl32.Vec3{{offset, 0, 0}, {offset + 1, 0, 0}, {offset, 1, 0}},
		[]slot.ID{s, s, s}
}

func TestConcatenatesSubmissions(t *testing.T) {
	rec := recorder.NewRecorder()
	b := NewBatcher(rec, WithPackWorkers(1))
	p := b.Program(solid)

	i1, p1, s1 := triangle(0, 0)
	i2, p2, s2 := triangle(10, 3)
	if err := p.QueueDraw(i1, p1, s1); err != nil {
		t.Fatal(err)
	}
	if err := p.QueueDraw(i2, p2, s2); err != nil {
		t.Fatal(err)
	}
	if p.Pending() != 2 {
		t.Fatalf("Pending = %d, want 2", p.Pending())
	}

	if err := p.DrawEverything(); err != nil {
		t.Fatal(err)
	}

	draws := rec.CallsOf(recorder.CallDraw)
	if len(draws) != 1 || draws[0].IndexCount != 6 {
		t.Fatalf("draws = %+v, want one draw of 6 indices", draws)
	}

	vb, ib := rec.Geometry(solid)
	verts := UnpackVertices(vb)
	wantPos := append(append([]mgl32.Vec3{}, p1...), p2...)
	wantSlots := append(append([]slot.ID{}, s1...), s2...)
	if len(verts) != len(wantPos) {
		t.Fatalf("uploaded %d vertices, want %d", len(verts), len(wantPos))
	}
	for i, v := range verts {
		if v.Position != wantPos[i] || v.Slot != wantSlots[i] {
			t.Errorf("vertex %d = %+v, want %v slot %d", i, v, wantPos[i], wantSlots[i])
		}
	}

	wantIdx := []uint32{0, 1, 2, 3, 4, 5}
	gotIdx := UnpackIndices(ib)
	for i := range wantIdx {
		if gotIdx[i] != wantIdx[i] {
			t.Fatalf("indices = %v, want %v", gotIdx, wantIdx)
		}
	}
	if p.Pending() != 0 {
		t.Errorf("Pending after flush = %d", p.Pending())
	}
	if got := p.LastFlush(); got != (FlushStats{DrawCalls: 1, Vertices: 6, Indices: 6}) {
		t.Errorf("LastFlush = %+v", got)
	}
}

func TestSecondFlushIssuesNothing(t *testing.T) {
	rec := recorder.NewRecorder()
	b := NewBatcher(rec, WithPackWorkers(1))
	p := b.Program(solid)

	if err := p.DrawEverything(); err != nil {
		t.Fatalf("flush with nothing queued: %v", err)
	}
	i, pos, s := triangle(0, 0)
	_ = p.QueueDraw(i, pos, s)
	_ = p.DrawEverything()
	rec.ResetCalls()

	if err := p.DrawEverything(); err != nil {
		t.Fatal(err)
	}
	if calls := rec.Calls(); len(calls) != 0 {
		t.Fatalf("second flush made calls: %+v", calls)
	}
	if p.LastFlush() != (FlushStats{}) {
		t.Errorf("LastFlush after empty flush = %+v", p.LastFlush())
	}
}

func TestMalformedLeavesQueueUnchanged(t *testing.T) {
	b := NewBatcher(recorder.NewRecorder(), WithPackWorkers(1))
	p := b.Program(solid)

	i, pos, s := triangle(0, 0)
	_ = p.QueueDraw(i, pos, s)

	err := p.QueueDraw([]uint32{0, 1, 2}, pos, []slot.ID{0, 0})
	if !errors.Is(err, common.ErrMalformedSubmission) {
		t.Fatalf("QueueDraw = %v, want ErrMalformedSubmission", err)
	}
	if p.Pending() != 1 {
		t.Fatalf("Pending = %d, want 1", p.Pending())
	}
}

func TestQueueDrawCopiesInput(t *testing.T) {
	rec := recorder.NewRecorder()
	b := NewBatcher(rec, WithPackWorkers(1))
	p := b.Program(solid)

	i, pos, s := triangle(0, 2)
	_ = p.QueueDraw(i, pos, s)
	pos[0] = mgl32.Vec3{99, 99, 99}
	s[0] = 7

	_ = p.DrawEverything()
	vb, _ := rec.Geometry(solid)
	v := UnpackVertices(vb)[0]
	if v.Position != (mgl32.Vec3{0, 0, 0}) || v.Slot != 2 {
		t.Fatalf("first vertex = %+v, caller mutation leaked into the queue", v)
	}
}

func TestOverflow(t *testing.T) {
	rec := recorder.NewRecorder(recorder.WithCapacity(solid, 4, 0))
	b := NewBatcher(rec, WithPackWorkers(1))
	p := b.Program(solid)

	i1, p1, s1 := triangle(0, 0)
	i2, p2, s2 := triangle(1, 0)
	_ = p.QueueDraw(i1, p1, s1)
	_ = p.QueueDraw(i2, p2, s2)

	if err := p.DrawEverything(); !errors.Is(err, common.ErrBufferOverflow) {
		t.Fatalf("DrawEverything = %v, want ErrBufferOverflow", err)
	}
	if len(rec.Calls()) != 0 {
		t.Fatalf("overflowing flush reached the sink: %+v", rec.Calls())
	}
	if p.Pending() != 0 {
		t.Fatalf("Pending after overflow = %d, want 0", p.Pending())
	}

	// A batch that fits still draws on the next tick.
	_ = p.QueueDraw(i1, p1, s1)
	if err := p.DrawEverything(); err != nil {
		t.Fatalf("flush within capacity: %v", err)
	}
}

func TestDrawEverythingAcrossPrograms(t *testing.T) {
	const (
		wire common.ProgramID = "wire"
		tiny common.ProgramID = "tiny"
	)
	for _, workers := range []int{1, 4} {
		rec := recorder.NewRecorder(recorder.WithCapacity(tiny, 2, 0))
		b := NewBatcher(rec, WithPackWorkers(workers), WithPrograms(wire, solid, tiny))

		for n := 0; n < 3; n++ {
			i, pos, s := triangle(float32(n), slot.ID(n))
			_ = b.Program(solid).QueueDraw(i, pos, s)
		}
		i, pos, s := triangle(0, 9)
		_ = b.Program(wire).QueueDraw(i, pos, s)
		_ = b.Program(tiny).QueueDraw(i, pos, s)

		err := b.DrawEverything()
		if !errors.Is(err, common.ErrBufferOverflow) {
			t.Fatalf("workers=%d: err = %v, want overflow from tiny", workers, err)
		}

		draws := rec.CallsOf(recorder.CallDraw)
		if len(draws) != 2 {
			t.Fatalf("workers=%d: %d draws, want 2", workers, len(draws))
		}
		if draws[0].Program != wire || draws[1].Program != solid {
			t.Errorf("workers=%d: draw order %q, %q; want registration order", workers, draws[0].Program, draws[1].Program)
		}
		if draws[1].IndexCount != 9 {
			t.Errorf("workers=%d: solid draw has %d indices, want 9", workers, draws[1].IndexCount)
		}
		if got := b.Stats(); got.DrawCalls != 2 || got.Vertices != 12 {
			t.Errorf("workers=%d: Stats = %+v", workers, got)
		}
		for _, id := range b.Programs() {
			if b.Program(id).Pending() != 0 {
				t.Errorf("workers=%d: %q still pending", workers, id)
			}
		}
	}
}

func TestProgramsRegistrationOrder(t *testing.T) {
	b := NewBatcher(recorder.NewRecorder(), WithPackWorkers(1))
	b.Program("b")
	b.Program("a")
	b.Program("b")
	b.Register("c", "a")
	got := b.Programs()
	if len(got) != 3 || got[0] != "b" || got[1] != "a" || got[2] != "c" {
		t.Fatalf("Programs = %v", got)
	}
}
