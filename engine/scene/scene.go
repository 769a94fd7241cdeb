package scene

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/Carmen-Shannon/oxy-batch/engine/batcher"
	"github.com/Carmen-Shannon/oxy-batch/engine/game_object"
	"github.com/Carmen-Shannon/oxy-batch/engine/slot"
	"github.com/Carmen-Shannon/oxy-batch/engine/transform"
)

// Scene owns a set of GameObjects that share one slot allocator, transform store and batcher.
// Adding an object gives it a matrix slot; removing it releases the slot. Each tick the scene
// updates every object and queues the enabled ones for drawing, in ascending ID order.
// Scenes can be switched off via the Active flag without losing their objects.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	//
	// Parameters:
	//   - name: the new name
	SetName(name string)

	// Active reports whether Tick updates and draws the scene.
	Active() bool

	// SetActive sets whether Tick updates and draws the scene.
	//
	// Parameters:
	//   - active: true to tick the scene
	SetActive(active bool)

	// Count returns the number of objects in the scene.
	Count() int

	// Add attaches the object to a matrix slot and registers it. Objects with ID 0 are given
	// the next free scene ID.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - uint64: the object's ID
	//   - error: if the ID is taken or no slot is free
	Add(obj game_object.GameObject) (uint64, error)

	// Get returns the object with the given ID, or nil.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - game_object.GameObject: the object, or nil if not found
	Get(id uint64) game_object.GameObject

	// Remove unregisters the object and releases its slot. Unknown IDs are ignored.
	//
	// Parameters:
	//   - id: the object ID
	//
	// Returns:
	//   - error: if releasing the slot fails
	Remove(id uint64) error

	// Clear removes every object.
	//
	// Returns:
	//   - error: the joined errors of every failed removal
	Clear() error

	// Objects returns the scene's objects in ascending ID order.
	Objects() []game_object.GameObject

	// Tick advances every object by dt and queues the enabled ones on the batcher.
	// A rejected submission is logged and skipped; other errors are returned.
	//
	// Parameters:
	//   - dt: seconds since the previous tick
	//
	// Returns:
	//   - error: the first submission error that is not a malformed submission
	Tick(dt float64) error
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	allocator slot.Allocator
	store     transform.Store
	batcher   batcher.Batcher

	registry map[uint64]game_object.GameObject
	order    []uint64 // registry keys, ascending
	nextID   uint64
}

var _ Scene = &scene{}

// NewScene creates a Scene drawing through the given allocator, store and batcher, normally
// the engine's own. All three are required and NewScene panics if any of them is nil.
//
// Parameters:
//   - name: the name of the scene
//   - alloc: the slot allocator objects attach to
//   - store: the transform store their matrices are written to
//   - b: the batcher their draws are queued on
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, alloc slot.Allocator, store transform.Store, b batcher.Batcher, options ...SceneBuilderOption) Scene {
	if alloc == nil {
		panic("scene: NewScene requires a non-nil slot Allocator")
	}
	if store == nil {
		panic("scene: NewScene requires a non-nil transform Store")
	}
	if b == nil {
		panic("scene: NewScene requires a non-nil Batcher")
	}

	s := &scene{
		mu:        &sync.RWMutex{},
		name:      name,
		active:    true,
		allocator: alloc,
		store:     store,
		batcher:   b,
		registry:  make(map[uint64]game_object.GameObject),
		nextID:    1,
	}

	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(obj game_object.GameObject) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(obj)
}

func (s *scene) add(obj game_object.GameObject) (uint64, error) {
	id := obj.ID()
	if id == 0 {
		for s.registry[s.nextID] != nil {
			s.nextID++
		}
		id = s.nextID
	}
	if _, exists := s.registry[id]; exists {
		return 0, fmt.Errorf("scene %q: object id %d already registered", s.name, id)
	}
	if err := obj.Attach(s.allocator); err != nil {
		return 0, fmt.Errorf("scene %q: %w", s.name, err)
	}
	if obj.ID() == 0 {
		obj.SetID(id)
		s.nextID++
	}

	s.registry[id] = obj
	i, _ := slices.BinarySearch(s.order, id)
	s.order = slices.Insert(s.order, i, id)
	return id, nil
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

func (s *scene) remove(id uint64) error {
	obj, exists := s.registry[id]
	if !exists {
		return nil
	}
	delete(s.registry, id)
	if i, found := slices.BinarySearch(s.order, id); found {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return obj.Destroy(s.allocator, s.store)
}

func (s *scene) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, id := range slices.Clone(s.order) {
		if err := s.remove(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]game_object.GameObject, len(s.order))
	for i, id := range s.order {
		out[i] = s.registry[id]
	}
	return out
}

func (s *scene) Tick(dt float64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.active {
		return nil
	}
	for _, id := range s.order {
		obj := s.registry[id]
		obj.Update(dt)
		if err := obj.Submit(s.store, s.batcher); err != nil {
			if errors.Is(err, common.ErrMalformedSubmission) {
				log.Printf("[Scene] %s: object %d skipped: %v", s.name, id, err)
				continue
			}
			return fmt.Errorf("scene %q: object %d: %w", s.name, id, err)
		}
	}
	return nil
}
