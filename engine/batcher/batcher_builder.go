package batcher

import "github.com/Carmen-Shannon/oxy-batch/common"

// BatcherBuilderOption is a functional option applied to a batcher during construction via NewBatcher.
type BatcherBuilderOption func(*batcher)

// WithPackWorkers sets how many workers pack program geometry in parallel during DrawEverything.
// Values <= 1 pack inline on the calling thread.
//
// Parameters:
//   - workers: the number of packing workers
//
// Returns:
//   - BatcherBuilderOption: option function to apply
func WithPackWorkers(workers int) BatcherBuilderOption {
	return func(b *batcher) {
		b.packWorkers = workers
	}
}

// WithPrograms pre-registers shader programs so they flush in the given order.
//
// Parameters:
//   - programs: the program ids to register
//
// Returns:
//   - BatcherBuilderOption: option function to apply
func WithPrograms(programs ...common.ProgramID) BatcherBuilderOption {
	return func(b *batcher) {
		b.Register(programs...)
	}
}
