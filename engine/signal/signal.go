// Package signal provides the tick-boundary epoch bus and temporal signals derived from it.
//
// The bus is owned by the engine and advanced exactly once at the end of every tick, after all
// per-tick mutation. Values that answer "did this change" must be read after that advance,
// never mid-tick.
package signal

import "slices"

// Bus counts tick boundaries and notifies listeners synchronously when one passes.
// There is no package-level bus; components that need one receive it by handle.
// Not safe for concurrent use.
type Bus struct {
	epoch     uint64
	nextID    uint64
	listeners []listener
}

type listener struct {
	id uint64
	fn func(epoch uint64)
}

// NewBus creates a Bus at epoch 0.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn to be called on every Advance, after the epoch is incremented.
// Listeners run in registration order.
//
// Parameters:
//   - fn: the listener receiving the new epoch
//
// Returns:
//   - func(): removes the listener; calling it more than once is a no-op
func (b *Bus) Subscribe(fn func(epoch uint64)) func() {
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = slices.Delete(slices.Clone(b.listeners), i, i+1)
				return
			}
		}
	}
}

// Advance marks a tick boundary and notifies every listener registered when it starts.
// Listeners added or removed by a handler take effect from the next Advance.
//
// Returns:
//   - uint64: the new epoch
func (b *Bus) Advance() uint64 {
	b.epoch++
	for _, l := range slices.Clone(b.listeners) {
		l.fn(b.epoch)
	}
	return b.epoch
}

// Epoch returns the number of completed tick boundaries.
func (b *Bus) Epoch() uint64 {
	return b.epoch
}

// Listeners returns the number of registered listeners.
func (b *Bus) Listeners() int {
	return len(b.listeners)
}
