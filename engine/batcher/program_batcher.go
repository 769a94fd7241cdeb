package batcher

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/Carmen-Shannon/oxy-batch/engine/slot"
	"github.com/go-gl/mathgl/mgl32"
)

// VertexStride is the packed size of one batched vertex: float32 x, y, z followed by a uint32 slot id.
const VertexStride = 16

// IndexStride is the packed size of one index (uint32).
const IndexStride = 4

// Submission is one queued piece of geometry. Every position carries the slot id of the
// local-to-world matrix that transforms it.
type Submission struct {
	Indices   []uint32
	Positions []mgl32.Vec3
	Slots     []slot.ID
}

// FlushStats summarizes what a flush sent to the GPU.
type FlushStats struct {
	DrawCalls int
	Vertices  int
	Indices   int
}

// programBatcher is the implementation of the ProgramBatcher interface.
type programBatcher struct {
	program common.ProgramID
	sink    GeometrySink

	pending []Submission

	// Scratch buffers reused across frames to avoid per-frame allocations.
	vertexData []byte
	indexData  []byte
	indexCount int
	packErr    error

	last FlushStats
}

// ProgramBatcher accumulates draw submissions for one shader program during a tick and
// flushes them as a single geometry upload and draw call.
//
// State per tick: empty -> accumulating (QueueDraw) -> flushed (DrawEverything) -> empty.
type ProgramBatcher interface {
	// Program returns the shader program this batcher draws with.
	Program() common.ProgramID

	// QueueDraw appends a submission to the pending list. The slices are copied, so callers
	// may reuse them after the call. No GPU work happens until DrawEverything.
	//
	// Parameters:
	//   - indices: triangle indices relative to this submission's positions
	//   - positions: vertex positions in local space
	//   - slots: the local-to-world slot for each position; must match len(positions)
	//
	// Returns:
	//   - error: common.ErrMalformedSubmission if len(slots) != len(positions); the queue is left unchanged
	QueueDraw(indices []uint32, positions []mgl32.Vec3, slots []slot.ID) error

	// DrawEverything concatenates every pending submission into one vertex/index upload,
	// issues one draw call, then clears the pending list. With nothing pending it does nothing.
	//
	// Returns:
	//   - error: common.ErrBufferOverflow if the batch exceeds the sink's capacity for this program,
	//     or the sink's error. The pending list is cleared either way.
	DrawEverything() error

	// Pending returns the number of queued submissions.
	Pending() int

	// LastFlush returns statistics of the most recent DrawEverything call.
	LastFlush() FlushStats
}

var _ ProgramBatcher = &programBatcher{}

func newProgramBatcher(program common.ProgramID, sink GeometrySink) *programBatcher {
	return &programBatcher{
		program: program,
		sink:    sink,
		pending: make([]Submission, 0, 16),
	}
}

func (p *programBatcher) Program() common.ProgramID {
	return p.program
}

func (p *programBatcher) QueueDraw(indices []uint32, positions []mgl32.Vec3, slots []slot.ID) error {
	if len(positions) != len(slots) {
		return fmt.Errorf("program %q: %d positions, %d slot references: %w",
			p.program, len(positions), len(slots), common.ErrMalformedSubmission)
	}
	p.pending = append(p.pending, Submission{
		Indices:   append([]uint32(nil), indices...),
		Positions: append([]mgl32.Vec3(nil), positions...),
		Slots:     append([]slot.ID(nil), slots...),
	})
	return nil
}

func (p *programBatcher) DrawEverything() error {
	if len(p.pending) == 0 {
		p.last = FlushStats{}
		return nil
	}
	p.pack()
	return p.submit()
}

func (p *programBatcher) Pending() int {
	return len(p.pending)
}

func (p *programBatcher) LastFlush() FlushStats {
	return p.last
}

// pack encodes the pending submissions into the scratch buffers. It touches only this
// batcher's state, so packs of different programs may run concurrently.
func (p *programBatcher) pack() {
	p.packErr = nil
	p.indexCount = 0

	vertexCount, indexCount := 0, 0
	for _, s := range p.pending {
		vertexCount += len(s.Positions)
		indexCount += len(s.Indices)
	}

	maxVertices, maxIndices := p.sink.GeometryCapacity(p.program)
	if (maxVertices > 0 && vertexCount > maxVertices) || (maxIndices > 0 && indexCount > maxIndices) {
		p.packErr = fmt.Errorf("program %q: batch of %d vertices / %d indices exceeds capacity %d / %d: %w",
			p.program, vertexCount, indexCount, maxVertices, maxIndices, common.ErrBufferOverflow)
		return
	}

	p.vertexData = grow(p.vertexData, vertexCount*VertexStride)
	p.indexData = grow(p.indexData, indexCount*IndexStride)

	vOff, iOff := 0, 0
	base := uint32(0)
	for _, s := range p.pending {
		for i, pos := range s.Positions {
			binary.LittleEndian.PutUint32(p.vertexData[vOff:], math.Float32bits(pos[0]))
			binary.LittleEndian.PutUint32(p.vertexData[vOff+4:], math.Float32bits(pos[1]))
			binary.LittleEndian.PutUint32(p.vertexData[vOff+8:], math.Float32bits(pos[2]))
			binary.LittleEndian.PutUint32(p.vertexData[vOff+12:], uint32(s.Slots[i]))
			vOff += VertexStride
		}
		for _, idx := range s.Indices {
			binary.LittleEndian.PutUint32(p.indexData[iOff:], idx+base)
			iOff += IndexStride
		}
		base += uint32(len(s.Positions))
	}
	p.indexCount = indexCount
}

// submit uploads and draws what pack produced, then clears the pending list.
// Must run on the tick thread.
func (p *programBatcher) submit() error {
	clear(p.pending)
	p.pending = p.pending[:0]

	if p.packErr != nil {
		p.last = FlushStats{}
		return p.packErr
	}

	p.last = FlushStats{
		Vertices: len(p.vertexData) / VertexStride,
		Indices:  p.indexCount,
	}
	if err := p.sink.UploadGeometry(p.program, p.vertexData, p.indexData); err != nil {
		return fmt.Errorf("program %q: upload geometry: %w", p.program, err)
	}
	if err := p.sink.Draw(p.program, uint32(p.indexCount)); err != nil {
		return fmt.Errorf("program %q: draw: %w", p.program, err)
	}
	p.last.DrawCalls = 1
	return nil
}

// grow returns buf resized to n bytes, reallocating only when capacity is insufficient.
func grow(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}
