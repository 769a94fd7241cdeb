package batcher

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-batch/engine/slot"
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one decoded batched vertex.
type Vertex struct {
	Position mgl32.Vec3
	Slot     slot.ID
}

// UnpackVertices decodes vertex bytes produced by a flush. Trailing bytes that do not form
// a whole vertex are ignored.
//
// Parameters:
//   - data: packed vertex bytes (VertexStride bytes per vertex)
//
// Returns:
//   - []Vertex: the decoded vertices
func UnpackVertices(data []byte) []Vertex {
	out := make([]Vertex, len(data)/VertexStride)
	for i := range out {
		off := i * VertexStride
		out[i] = Vertex{
			Position: mgl32.Vec3{
				math.Float32frombits(binary.LittleEndian.Uint32(data[off:])),
				math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:])),
				math.Float32frombits(binary.LittleEndian.Uint32(data[off+8:])),
			},
			Slot: slot.ID(binary.LittleEndian.Uint32(data[off+12:])),
		}
	}
	return out
}

// UnpackIndices decodes index bytes produced by a flush.
//
// Parameters:
//   - data: packed uint32 indices
//
// Returns:
//   - []uint32: the decoded indices
func UnpackIndices(data []byte) []uint32 {
	out := make([]uint32, len(data)/IndexStride)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*IndexStride:])
	}
	return out
}
