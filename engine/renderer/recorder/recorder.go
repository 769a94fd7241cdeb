// Package recorder provides an in-memory GPU sink and presenter that records every call.
// It backs headless runs and tests; nothing is drawn.
package recorder

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-batch/common"
)

// CallKind identifies a recorded sink or presenter call.
type CallKind int

const (
	CallBeginFrame CallKind = iota
	CallUploadUniform
	CallUploadGeometry
	CallDraw
	CallPresent
)

func (k CallKind) String() string {
	switch k {
	case CallBeginFrame:
		return "begin-frame"
	case CallUploadUniform:
		return "upload-uniform"
	case CallUploadGeometry:
		return "upload-geometry"
	case CallDraw:
		return "draw"
	case CallPresent:
		return "present"
	}
	return fmt.Sprintf("call(%d)", int(k))
}

// Call is one recorded call.
type Call struct {
	Kind       CallKind
	Frame      int
	Program    common.ProgramID
	Binding    uint32
	Bytes      int
	IndexCount uint32
}

// Totals are running counters over the recorder's lifetime.
type Totals struct {
	Frames        int
	DrawCalls     int
	UniformBytes  int
	GeometryBytes int
}

type geometry struct {
	vertices []byte
	indices  []byte
}

// Recorder implements the engine's GPU sink and presenter in memory.
// Not safe for concurrent use.
type Recorder struct {
	capacity map[common.ProgramID][2]int
	uniforms map[uint32][]byte
	geometry map[common.ProgramID]geometry

	calls       []Call
	keepCalls   bool
	frame       int
	inFrame     bool
	totals      Totals
	failPresent error
}

// NewRecorder creates an empty Recorder.
//
// Parameters:
//   - options: functional options to configure the recorder
//
// Returns:
//   - *Recorder: the new recorder
func NewRecorder(options ...RecorderBuilderOption) *Recorder {
	r := &Recorder{
		capacity:  make(map[common.ProgramID][2]int),
		uniforms:  make(map[uint32][]byte),
		geometry:  make(map[common.ProgramID]geometry),
		keepCalls: true,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *Recorder) record(c Call) {
	if !r.keepCalls {
		return
	}
	c.Frame = r.frame
	r.calls = append(r.calls, c)
}

// BeginFrame starts a new frame. Beginning a frame twice without Present is an error.
func (r *Recorder) BeginFrame() error {
	if r.inFrame {
		return fmt.Errorf("recorder: frame %d not yet presented", r.frame)
	}
	r.frame++
	r.inFrame = true
	r.record(Call{Kind: CallBeginFrame})
	return nil
}

// Present ends the current frame.
func (r *Recorder) Present() error {
	if r.failPresent != nil {
		return r.failPresent
	}
	if !r.inFrame {
		return fmt.Errorf("recorder: present without begin frame")
	}
	r.inFrame = false
	r.totals.Frames++
	r.record(Call{Kind: CallPresent})
	return nil
}

// UploadUniform stores a copy of data as the current contents of the binding.
func (r *Recorder) UploadUniform(binding uint32, data []byte) error {
	r.uniforms[binding] = append(r.uniforms[binding][:0], data...)
	r.totals.UniformBytes += len(data)
	r.record(Call{Kind: CallUploadUniform, Binding: binding, Bytes: len(data)})
	return nil
}

// UploadGeometry stores copies of the program's vertex and index data.
func (r *Recorder) UploadGeometry(program common.ProgramID, vertices, indices []byte) error {
	g := r.geometry[program]
	g.vertices = append(g.vertices[:0], vertices...)
	g.indices = append(g.indices[:0], indices...)
	r.geometry[program] = g
	r.totals.GeometryBytes += len(vertices) + len(indices)
	r.record(Call{Kind: CallUploadGeometry, Program: program, Bytes: len(vertices) + len(indices)})
	return nil
}

// Draw records a draw call. Drawing more indices than were uploaded is an error.
func (r *Recorder) Draw(program common.ProgramID, indexCount uint32) error {
	g := r.geometry[program]
	if int(indexCount)*4 > len(g.indices) {
		return fmt.Errorf("recorder: draw %d indices for %q with %d uploaded", indexCount, program, len(g.indices)/4)
	}
	r.totals.DrawCalls++
	r.record(Call{Kind: CallDraw, Program: program, IndexCount: indexCount})
	return nil
}

// GeometryCapacity returns the configured capacity for the program, or unbounded.
func (r *Recorder) GeometryCapacity(program common.ProgramID) (vertices, indices int) {
	c := r.capacity[program]
	return c[0], c[1]
}

// Uniform returns the last data uploaded to the binding.
func (r *Recorder) Uniform(binding uint32) []byte {
	return r.uniforms[binding]
}

// Geometry returns the last vertex and index data uploaded for the program.
func (r *Recorder) Geometry(program common.ProgramID) (vertices, indices []byte) {
	g := r.geometry[program]
	return g.vertices, g.indices
}

// Calls returns the recorded calls in order.
func (r *Recorder) Calls() []Call {
	return r.calls
}

// CallsOf returns the recorded calls of one kind.
func (r *Recorder) CallsOf(kind CallKind) []Call {
	var out []Call
	for _, c := range r.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Totals returns the lifetime counters.
func (r *Recorder) Totals() Totals {
	return r.totals
}

// ResetCalls forgets recorded calls but keeps uploaded data and totals.
func (r *Recorder) ResetCalls() {
	r.calls = r.calls[:0]
}
