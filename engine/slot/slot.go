package slot

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/google/btree"
)

// DefaultCapacity is the number of slots backing the local-to-world matrix uniform buffer.
const DefaultCapacity = 1024

// ID identifies one entry of the local-to-world matrix table and its GPU uniform buffer.
type ID uint32

// allocator is the implementation of the Allocator interface.
type allocator struct {
	capacity int
	free     *btree.BTreeG[ID]
}

// Allocator hands out bounded slot ids and reclaims them on release.
// Ids are allocated lowest-available first so allocation order is reproducible.
// Not safe for concurrent use; it is driven from the tick callback only.
type Allocator interface {
	// Acquire returns the lowest free slot and marks it as held.
	//
	// Returns:
	//   - ID: the acquired slot
	//   - error: common.ErrCapacityExhausted if every slot is held
	Acquire() (ID, error)

	// Release returns a held slot to the free set.
	// Releasing an id outside the pool or one that is already free is an error, not a no-op.
	//
	// Parameters:
	//   - id: the slot to release
	//
	// Returns:
	//   - error: common.ErrInvalidSlot if the id is out of range or not held
	Release(id ID) error

	// Held reports whether the id is currently allocated.
	//
	// Parameters:
	//   - id: the slot to check
	//
	// Returns:
	//   - bool: true if the slot is held
	Held(id ID) bool

	// Len returns the number of held slots.
	Len() int

	// Capacity returns the total number of slots in the pool.
	Capacity() int
}

var _ Allocator = &allocator{}

// NewAllocator creates an Allocator with all slots free.
// A capacity <= 0 uses DefaultCapacity.
//
// Parameters:
//   - capacity: the number of slots in the pool
//
// Returns:
//   - Allocator: the new allocator
func NewAllocator(capacity int) Allocator {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	a := &allocator{
		capacity: capacity,
		free:     btree.NewG(32, func(a, b ID) bool { return a < b }),
	}
	for i := 0; i < capacity; i++ {
		a.free.ReplaceOrInsert(ID(i))
	}
	return a
}

func (a *allocator) Acquire() (ID, error) {
	id, ok := a.free.DeleteMin()
	if !ok {
		return 0, fmt.Errorf("acquire from pool of %d: %w", a.capacity, common.ErrCapacityExhausted)
	}
	return id, nil
}

func (a *allocator) Release(id ID) error {
	if int(id) >= a.capacity {
		return fmt.Errorf("release %d outside [0, %d): %w", id, a.capacity, common.ErrInvalidSlot)
	}
	if _, existed := a.free.ReplaceOrInsert(id); existed {
		return fmt.Errorf("release %d which is not held: %w", id, common.ErrInvalidSlot)
	}
	return nil
}

func (a *allocator) Held(id ID) bool {
	return int(id) < a.capacity && !a.free.Has(id)
}

func (a *allocator) Len() int {
	return a.capacity - a.free.Len()
}

func (a *allocator) Capacity() int {
	return a.capacity
}
