package transform

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/Carmen-Shannon/oxy-batch/engine/slot"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultBinding is the uniform binding point of the local-to-world matrix table.
const DefaultBinding uint32 = 0

// UniformSink accepts whole-buffer uniform uploads keyed by binding point.
type UniformSink interface {
	UploadUniform(binding uint32, data []byte) error
}

// store is the implementation of the Store interface.
type store struct {
	binding uint32
	table   []mgl32.Mat4
}

// Store mirrors the fixed-capacity local-to-world matrix uniform buffer.
// Entries are indexed by slot id and start as identity. The whole table is uploaded
// on every Upload; there is no dirty tracking.
type Store interface {
	// Set overwrites the matrix at the given slot. The slot does not have to be held;
	// writing a released slot is harmless because nothing reads it.
	//
	// Parameters:
	//   - id: the slot to write
	//   - m: the local-to-world matrix
	//
	// Returns:
	//   - error: common.ErrInvalidSlot if id is outside the table
	Set(id slot.ID, m mgl32.Mat4) error

	// Get returns the matrix at the given slot.
	//
	// Parameters:
	//   - id: the slot to read
	//
	// Returns:
	//   - mgl32.Mat4: the stored matrix
	//   - error: common.ErrInvalidSlot if id is outside the table
	Get(id slot.ID) (mgl32.Mat4, error)

	// Reset restores the identity matrix at the given slot.
	//
	// Parameters:
	//   - id: the slot to reset
	//
	// Returns:
	//   - error: common.ErrInvalidSlot if id is outside the table
	Reset(id slot.ID) error

	// Snapshot returns a copy of every entry in slot order.
	//
	// Returns:
	//   - []mgl32.Mat4: Capacity() matrices
	Snapshot() []mgl32.Mat4

	// Upload pushes the whole table to the sink at the store's binding point.
	//
	// Parameters:
	//   - sink: the uniform sink receiving the table bytes
	//
	// Returns:
	//   - error: the sink's error, if any
	Upload(sink UniformSink) error

	// Capacity returns the number of entries in the table.
	Capacity() int

	// Binding returns the uniform binding point used by Upload.
	Binding() uint32
}

var _ Store = &store{}

// NewStore creates a Store with capacity identity entries.
// A capacity <= 0 uses slot.DefaultCapacity.
//
// Parameters:
//   - capacity: the number of matrices; must match the slot allocator's capacity
//   - options: functional options to configure the store
//
// Returns:
//   - Store: the new store
func NewStore(capacity int, options ...StoreBuilderOption) Store {
	if capacity <= 0 {
		capacity = slot.DefaultCapacity
	}
	s := &store{
		binding: DefaultBinding,
		table:   make([]mgl32.Mat4, capacity),
	}
	for i := range s.table {
		s.table[i] = mgl32.Ident4()
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *store) check(id slot.ID) error {
	if int(id) >= len(s.table) {
		return fmt.Errorf("slot %d outside [0, %d): %w", id, len(s.table), common.ErrInvalidSlot)
	}
	return nil
}

func (s *store) Set(id slot.ID, m mgl32.Mat4) error {
	if err := s.check(id); err != nil {
		return err
	}
	s.table[id] = m
	return nil
}

func (s *store) Get(id slot.ID) (mgl32.Mat4, error) {
	if err := s.check(id); err != nil {
		return mgl32.Mat4{}, err
	}
	return s.table[id], nil
}

func (s *store) Reset(id slot.ID) error {
	return s.Set(id, mgl32.Ident4())
}

func (s *store) Snapshot() []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(s.table))
	copy(out, s.table)
	return out
}

func (s *store) Upload(sink UniformSink) error {
	return sink.UploadUniform(s.binding, common.SliceToBytes(s.table))
}

func (s *store) Capacity() int {
	return len(s.table)
}

func (s *store) Binding() uint32 {
	return s.binding
}
