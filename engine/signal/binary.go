package signal

// Binary is an on/off value whose writes become visible at the next tick boundary.
// After the boundary, JustChanged reports whether the tick that just ended flipped the value.
type Binary struct {
	pending  bool
	current  bool
	previous bool
	detach   func()
}

// NewBinary creates a Binary attached to the bus with the given initial state.
//
// Parameters:
//   - bus: the epoch bus that commits pending writes
//   - initial: the starting state
//
// Returns:
//   - *Binary: the new signal
func NewBinary(bus *Bus, initial bool) *Binary {
	s := &Binary{pending: initial, current: initial, previous: initial}
	s.detach = bus.Subscribe(func(uint64) { s.commit() })
	return s
}

func (s *Binary) commit() {
	s.previous = s.current
	s.current = s.pending
}

// Set records the state to commit at the next tick boundary.
func (s *Binary) Set(on bool) {
	s.pending = on
}

// Toggle flips the pending state.
func (s *Binary) Toggle() {
	s.pending = !s.pending
}

// State returns the committed state.
func (s *Binary) State() bool {
	return s.current
}

// JustChanged reports whether the last tick boundary changed the committed state.
func (s *Binary) JustChanged() bool {
	return s.current != s.previous
}

// JustOn reports whether the last tick boundary switched the signal on.
func (s *Binary) JustOn() bool {
	return s.current && !s.previous
}

// JustOff reports whether the last tick boundary switched the signal off.
func (s *Binary) JustOff() bool {
	return !s.current && s.previous
}

// Detach stops the signal from following the bus. Its state is frozen afterwards.
func (s *Binary) Detach() {
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
}
