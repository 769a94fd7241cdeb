package input

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-batch/engine/signal"
)

// state is the implementation of the State interface.
type state struct {
	mu *sync.Mutex

	bus     *signal.Bus
	pressed map[uint32]bool
	tapped  map[uint32]bool
	tracked map[uint32]*signal.Binary

	mouseX, mouseY float64
	deltaX, deltaY float64
	hasMouse       bool
}

// State tracks keyboard and mouse input fed from window callbacks.
// Window callbacks may arrive on the event thread; reads happen on the tick thread.
type State interface {
	// KeyDown records a key press.
	KeyDown(key uint32)

	// KeyUp records a key release.
	KeyUp(key uint32)

	// MouseMove records an absolute cursor position and accumulates the delta from the previous one.
	MouseMove(x, y float64)

	// IsPressed reports whether the key is currently held.
	IsPressed(key uint32) bool

	// Track registers a key for edge detection through the signal bus. Tracking the same key
	// twice is a no-op.
	Track(key uint32)

	// JustPressed reports whether a tracked key went down during the tick that just ended.
	// Untracked keys always report false.
	JustPressed(key uint32) bool

	// ConsumeMouseDelta returns the cursor movement since the last call and resets it.
	//
	// Returns:
	//   - dx, dy: accumulated cursor movement in pixels
	ConsumeMouseDelta() (dx, dy float64)
}

var _ State = &state{}

// NewState creates an input State whose tracked keys commit at the bus's tick boundary.
//
// Parameters:
//   - bus: the engine's signal bus
//
// Returns:
//   - State: the new input state
func NewState(bus *signal.Bus) State {
	return &state{
		mu:      &sync.Mutex{},
		bus:     bus,
		pressed: make(map[uint32]bool),
		tapped:  make(map[uint32]bool),
		tracked: make(map[uint32]*signal.Binary),
	}
}

func (s *state) KeyDown(key uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressed[key] = true
	s.tapped[key] = true
}

func (s *state) KeyUp(key uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pressed, key)
}

func (s *state) MouseMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasMouse {
		s.deltaX += x - s.mouseX
		s.deltaY += y - s.mouseY
	}
	s.mouseX, s.mouseY = x, y
	s.hasMouse = true
}

func (s *state) IsPressed(key uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pressed[key]
}

func (s *state) Track(key uint32) {
	if _, ok := s.tracked[key]; ok {
		return
	}
	var sig *signal.Binary
	// Registered before the signal so the sample is taken just ahead of its commit.
	s.bus.Subscribe(func(uint64) { sig.Set(s.sample(key)) })
	sig = signal.NewBinary(s.bus, false)
	s.tracked[key] = sig
}

// sample reports whether the key is held or was tapped since the previous sample.
func (s *state) sample(key uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tapped := s.tapped[key]
	delete(s.tapped, key)
	return tapped || s.pressed[key]
}

func (s *state) JustPressed(key uint32) bool {
	sig, ok := s.tracked[key]
	return ok && sig.JustOn()
}

func (s *state) ConsumeMouseDelta() (dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dx, dy = s.deltaX, s.deltaY
	s.deltaX, s.deltaY = 0, 0
	return dx, dy
}
