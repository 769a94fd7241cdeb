package batcher

import (
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-batch/common"
)

// GeometrySink receives packed geometry and issues draw calls for a shader program.
type GeometrySink interface {
	// UploadGeometry replaces the program's vertex and index buffer contents.
	UploadGeometry(program common.ProgramID, vertices, indices []byte) error

	// Draw issues one indexed draw over the program's uploaded geometry.
	Draw(program common.ProgramID, indexCount uint32) error

	// GeometryCapacity returns the maximum vertex and index counts the program's buffers hold.
	// Values <= 0 mean unbounded.
	GeometryCapacity(program common.ProgramID) (vertices, indices int)
}

// batcher is the implementation of the Batcher interface.
type batcher struct {
	sink GeometrySink

	programs []*programBatcher
	byID     map[common.ProgramID]*programBatcher

	// packPool runs the CPU packing of different programs in parallel. Workers persist
	// across frames; nil when packing runs inline.
	packPool    worker.DynamicWorkerPool
	packWorkers int

	flushPool []*programBatcher // reusable slice of programs with pending work
	last      FlushStats
}

// Batcher owns one ProgramBatcher per shader program and flushes all of them once per tick.
type Batcher interface {
	// Program returns the batcher for the given shader program, registering it on first use.
	// Programs are flushed in registration order.
	//
	// Parameters:
	//   - program: the shader program id
	//
	// Returns:
	//   - ProgramBatcher: the program's batcher
	Program(program common.ProgramID) ProgramBatcher

	// Register adds programs in the given order. Already registered programs keep their place.
	//
	// Parameters:
	//   - programs: the shader program ids
	Register(programs ...common.ProgramID)

	// Programs returns the registered program ids in registration order.
	Programs() []common.ProgramID

	// DrawEverything flushes every program that has pending submissions: geometry is packed
	// (in parallel across programs when a worker pool is configured), then uploaded and drawn
	// serially in registration order. Errors from individual programs are joined; a failing
	// program does not stop the others.
	//
	// Returns:
	//   - error: the joined per-program errors, or nil
	DrawEverything() error

	// Stats returns totals for the most recent DrawEverything call.
	Stats() FlushStats
}

var _ Batcher = &batcher{}

// NewBatcher creates a Batcher drawing into the given sink.
// Panics if sink is nil.
//
// Parameters:
//   - sink: the geometry sink used by every program
//   - options: functional options to configure the batcher
//
// Returns:
//   - Batcher: the new batcher
func NewBatcher(sink GeometrySink, options ...BatcherBuilderOption) Batcher {
	if sink == nil {
		panic("batcher: NewBatcher requires a non-nil GeometrySink")
	}
	b := &batcher{
		sink:        sink,
		byID:        make(map[common.ProgramID]*programBatcher),
		packWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, opt := range options {
		opt(b)
	}
	if b.packWorkers > 1 {
		b.packPool = worker.NewDynamicWorkerPool(b.packWorkers, 64, 1*time.Second)
	}
	return b
}

func (b *batcher) Program(program common.ProgramID) ProgramBatcher {
	if p, ok := b.byID[program]; ok {
		return p
	}
	p := newProgramBatcher(program, b.sink)
	b.byID[program] = p
	b.programs = append(b.programs, p)
	return p
}

func (b *batcher) Register(programs ...common.ProgramID) {
	for _, id := range programs {
		b.Program(id)
	}
}

func (b *batcher) Programs() []common.ProgramID {
	ids := make([]common.ProgramID, len(b.programs))
	for i, p := range b.programs {
		ids[i] = p.program
	}
	return ids
}

func (b *batcher) DrawEverything() error {
	b.flushPool = b.flushPool[:0]
	for _, p := range b.programs {
		if p.Pending() > 0 {
			b.flushPool = append(b.flushPool, p)
		} else {
			p.last = FlushStats{}
		}
	}
	b.last = FlushStats{}
	if len(b.flushPool) == 0 {
		return nil
	}

	// Phase 1: pack. Each task touches only its own program's queue and scratch buffers.
	if b.packPool == nil || len(b.flushPool) == 1 {
		for _, p := range b.flushPool {
			p.pack()
		}
	} else {
		var wg sync.WaitGroup
		for i, p := range b.flushPool {
			wg.Add(1)
			pCap := p
			b.packPool.SubmitTask(worker.Task{
				ID: i,
				Do: func() (any, error) {
					defer wg.Done()
					pCap.pack()
					return nil, nil
				},
			})
		}
		wg.Wait()
	}

	// Phase 2: upload and draw on the calling thread.
	var errs []error
	for _, p := range b.flushPool {
		if err := p.submit(); err != nil {
			errs = append(errs, err)
		}
		b.last.DrawCalls += p.last.DrawCalls
		b.last.Vertices += p.last.Vertices
		b.last.Indices += p.last.Indices
	}
	return errors.Join(errs...)
}

func (b *batcher) Stats() FlushStats {
	return b.last
}
