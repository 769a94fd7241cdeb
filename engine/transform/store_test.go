package transform

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/Carmen-Shannon/oxy-batch/engine/slot"
	"github.com/go-gl/mathgl/mgl32"
)

type uniformCapture struct {
	binding uint32
	data    []byte
	calls   int
}

func (u *uniformCapture) UploadUniform(binding uint32, data []byte) error {
	u.binding = binding
	u.data = append([]byte(nil), data...)
	u.calls++
	return nil
}

func TestInitialSnapshotIsIdentity(t *testing.T) {
	s := NewStore(0)
	snap := s.Snapshot()
	if len(snap) != slot.DefaultCapacity {
		t.Fatalf("snapshot length = %d, want %d", len(snap), slot.DefaultCapacity)
	}
	for i, m := range snap {
		if m != mgl32.Ident4() {
			t.Fatalf("entry %d is not identity: %v", i, m)
		}
	}
}

func TestSetOnlyChangesTarget(t *testing.T) {
	s := NewStore(8)
	if err := s.Set(2, mgl32.Scale3D(2, 2, 2)); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot()

	m := mgl32.Translate3D(1, 2, 3)
	if err := s.Set(5, m); err != nil {
		t.Fatal(err)
	}
	after := s.Snapshot()

	for i := range after {
		want := before[i]
		if i == 5 {
			want = m
		}
		if after[i] != want {
			t.Errorf("entry %d = %v, want %v", i, after[i], want)
		}
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := NewStore(2)
	snap := s.Snapshot()
	snap[0] = mgl32.Translate3D(9, 9, 9)
	got, _ := s.Get(0)
	if got != mgl32.Ident4() {
		t.Fatalf("mutating a snapshot changed the store: %v", got)
	}
}

func TestOutOfRange(t *testing.T) {
	s := NewStore(4)
	if err := s.Set(4, mgl32.Ident4()); !errors.Is(err, common.ErrInvalidSlot) {
		t.Errorf("Set(4) = %v, want ErrInvalidSlot", err)
	}
	if _, err := s.Get(100); !errors.Is(err, common.ErrInvalidSlot) {
		t.Errorf("Get(100) = %v, want ErrInvalidSlot", err)
	}
	if err := s.Reset(4); !errors.Is(err, common.ErrInvalidSlot) {
		t.Errorf("Reset(4) = %v, want ErrInvalidSlot", err)
	}
}

func TestResetRestoresIdentity(t *testing.T) {
	s := NewStore(2)
	_ = s.Set(1, mgl32.Translate3D(1, 0, 0))
	if err := s.Reset(1); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get(1); got != mgl32.Ident4() {
		t.Fatalf("after reset = %v", got)
	}
}

func TestUploadWholeTable(t *testing.T) {
	s := NewStore(4, WithBinding(3))
	_ = s.Set(1, mgl32.Translate3D(1, 0, 0))

	var sink uniformCapture
	if err := s.Upload(&sink); err != nil {
		t.Fatal(err)
	}
	if sink.calls != 1 || sink.binding != 3 {
		t.Fatalf("calls=%d binding=%d, want 1 call at binding 3", sink.calls, sink.binding)
	}
	if len(sink.data) != 4*64 {
		t.Fatalf("uploaded %d bytes, want %d", len(sink.data), 4*64)
	}

	// mat4 is column-major: the x translation of entry 1 lives at float index 12.
	off := 64 + 12*4
	x := math.Float32frombits(binary.LittleEndian.Uint32(sink.data[off:]))
	if x != 1 {
		t.Errorf("translation x in upload = %v, want 1", x)
	}
}

// near compares component-wise against an absolute bound.
func near(got, want mgl32.Vec4) bool {
	for i := range got {
		if math.Abs(float64(got[i]-want[i])) > 1e-5 {
			return false
		}
	}
	return true
}

func TestTransformMatrix(t *testing.T) {
	tr := NewTransform()
	if tr.Matrix() != mgl32.Ident4() {
		t.Fatalf("default transform is not identity: %v", tr.Matrix())
	}

	tr.Translate(1, 0, 0)
	p := tr.Matrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if !near(p, mgl32.Vec4{1, 0, 0, 1}) {
		t.Errorf("translated origin = %v", p)
	}

	tr = NewTransform()
	tr.Scale = mgl32.Vec3{2, 2, 2}
	tr.Rotate(0, math.Pi/2, 0)
	p = tr.Matrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if !near(p, mgl32.Vec4{0, 0, -2, 1}) {
		t.Errorf("scaled+yawed point = %v, want (0,0,-2,1)", p)
	}
}
