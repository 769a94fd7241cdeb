package slot

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/Carmen-Shannon/oxy-batch/common"
)

func TestAcquireUntilExhausted(t *testing.T) {
	a := NewAllocator(4)

	for want := ID(0); want < 4; want++ {
		got, err := a.Acquire()
		if err != nil {
			t.Fatalf("acquire %d: %v", want, err)
		}
		if got != want {
			t.Errorf("acquire returned %d, want %d", got, want)
		}
	}

	if _, err := a.Acquire(); !errors.Is(err, common.ErrCapacityExhausted) {
		t.Fatalf("5th acquire: got %v, want ErrCapacityExhausted", err)
	}
	if a.Len() != 4 {
		t.Errorf("Len = %d, want 4", a.Len())
	}
}

func TestDefaultCapacity(t *testing.T) {
	a := NewAllocator(0)
	if a.Capacity() != DefaultCapacity {
		t.Fatalf("Capacity = %d, want %d", a.Capacity(), DefaultCapacity)
	}
}

func TestReleaseReusesLowest(t *testing.T) {
	a := NewAllocator(8)
	for i := 0; i < 5; i++ {
		if _, err := a.Acquire(); err != nil {
			t.Fatal(err)
		}
	}
	if err := a.Release(3); err != nil {
		t.Fatal(err)
	}
	if err := a.Release(1); err != nil {
		t.Fatal(err)
	}

	got, _ := a.Acquire()
	if got != 1 {
		t.Errorf("acquire after release = %d, want 1", got)
	}
	got, _ = a.Acquire()
	if got != 3 {
		t.Errorf("second acquire after release = %d, want 3", got)
	}
	got, _ = a.Acquire()
	if got != 5 {
		t.Errorf("third acquire = %d, want 5", got)
	}
}

func TestReleaseErrors(t *testing.T) {
	a := NewAllocator(4)
	id, _ := a.Acquire()

	tests := []struct {
		name string
		id   ID
	}{
		{"never acquired", 2},
		{"out of range", 4},
		{"far out of range", 1 << 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := a.Release(tt.id); !errors.Is(err, common.ErrInvalidSlot) {
				t.Fatalf("Release(%d) = %v, want ErrInvalidSlot", tt.id, err)
			}
		})
	}

	if err := a.Release(id); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := a.Release(id); !errors.Is(err, common.ErrInvalidSlot) {
		t.Fatalf("double release = %v, want ErrInvalidSlot", err)
	}
	if a.Len() != 0 {
		t.Errorf("Len after double release = %d, want 0", a.Len())
	}
}

func TestNoDuplicateLiveIDs(t *testing.T) {
	const capacity = 16
	a := NewAllocator(capacity)
	rng := rand.New(rand.NewSource(7))
	live := map[ID]bool{}

	for step := 0; step < 5000; step++ {
		if rng.Intn(2) == 0 {
			id, err := a.Acquire()
			if len(live) == capacity {
				if !errors.Is(err, common.ErrCapacityExhausted) {
					t.Fatalf("step %d: full pool acquire = %v", step, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("step %d: %v", step, err)
			}
			if live[id] {
				t.Fatalf("step %d: id %d handed out twice", step, id)
			}
			live[id] = true
			continue
		}
		for id := range live {
			if err := a.Release(id); err != nil {
				t.Fatalf("step %d: release %d: %v", step, id, err)
			}
			delete(live, id)
			break
		}
	}

	for id := ID(0); id < capacity; id++ {
		if a.Held(id) != live[id] {
			t.Errorf("Held(%d) = %v, want %v", id, a.Held(id), live[id])
		}
	}
}
