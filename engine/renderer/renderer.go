package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/Carmen-Shannon/oxy-batch/engine/slot"
	"github.com/Carmen-Shannon/oxy-batch/engine/window"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	capacity int
	programs map[common.ProgramID]*programState
	order    []common.ProgramID

	frame   uint64
	inFrame bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	pendingClearColor    *[4]float64
}

// programState tracks per-frame upload bookkeeping for one program.
type programState struct {
	desc          ProgramDescriptor
	uploadedFrame uint64
	uploadedIndex int
}

// Renderer is the GPU sink and presentation driver for batched drawing.
//
// A frame is BeginFrame, any number of uniform uploads, at most one geometry upload and draw
// per program, then Present. Uploads queued during a frame are applied before the frame's
// commands execute, so matrices uploaded after a draw is encoded are still seen by that draw.
type Renderer interface {
	// RegisterProgram creates the GPU pipeline and geometry buffers for a program.
	// Registering an id twice is an error.
	//
	// Parameters:
	//   - id: the program identifier used by the batcher
	//   - desc: buffer sizing and label
	//
	// Returns:
	//   - error: an error if GPU object creation fails
	RegisterProgram(id common.ProgramID, desc ProgramDescriptor) error

	// Programs returns the registered program ids in registration order.
	Programs() []common.ProgramID

	// UploadUniform writes data to the uniform buffer at binding.
	//
	// Parameters:
	//   - binding: TransformBinding or FrameBinding
	//   - data: the bytes to write from offset 0
	//
	// Returns:
	//   - error: if the binding is unknown or data does not fit
	UploadUniform(binding uint32, data []byte) error

	// UploadGeometry writes the program's packed vertex and index data.
	//
	// Parameters:
	//   - program: the program identifier
	//   - vertices: packed 16-byte vertices
	//   - indices: packed uint32 indices
	//
	// Returns:
	//   - error: if the program is unknown, already uploaded this frame, or the data does not fit
	UploadGeometry(program common.ProgramID, vertices, indices []byte) error

	// Draw encodes one indexed draw of the program's uploaded geometry.
	//
	// Parameters:
	//   - program: the program identifier
	//   - indexCount: the number of indices to draw
	//
	// Returns:
	//   - error: if no frame is open or indexCount exceeds the uploaded indices
	Draw(program common.ProgramID, indexCount uint32) error

	// GeometryCapacity returns the program's per-flush vertex and index limits.
	// Unknown programs report 0, 0.
	GeometryCapacity(program common.ProgramID) (vertices, indices int)

	// BeginFrame acquires the next surface image and opens the render pass.
	//
	// Returns:
	//   - error: if the surface cannot be acquired or a frame is already open
	BeginFrame() error

	// Present submits the frame's commands and presents the surface image.
	//
	// Returns:
	//   - error: if no frame is open or command encoding failed
	Present() error

	// Resize configures the underlying backend to handle a new surface size.
	// Zero sizes, as reported by minimized windows, are ignored.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode, applied on the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// Release frees every GPU object owned by the renderer.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer presenting to the window's surface, with the shared matrix
// table and frame uniform bind group ready for RegisterProgram.
// Panics if the GPU device cannot be created or the matrix table exceeds a uniform binding.
//
// Parameters:
//   - backendType: the GPU backend to use
//   - win: the window providing the surface
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		capacity:    slot.DefaultCapacity,
		programs:    make(map[common.ProgramID]*programState),
	}

	for _, opt := range options {
		opt(r)
	}

	if r.capacity*matrixSize > maxUniformBindingSize {
		panic(fmt.Sprintf("renderer: %d matrices exceed the %d byte uniform binding limit", r.capacity, maxUniformBindingSize))
	}

	msaa := MSAAOff
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if c := r.pendingClearColor; c != nil {
		r.backend.SetClearColor(c[0], c[1], c[2], c[3])
	}

	r.backend.ConfigureSurface(win.Width(), win.Height())
	if err := r.backend.InitSharedBindGroup(r.capacity); err != nil {
		panic(err)
	}
	return r
}

func (r *renderer) RegisterProgram(id common.ProgramID, desc ProgramDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.programs[id]; exists {
		return fmt.Errorf("program %q already registered", id)
	}
	if desc.MaxVertices <= 0 || desc.MaxIndices <= 0 {
		return fmt.Errorf("program %q: capacity %d / %d must be positive", id, desc.MaxVertices, desc.MaxIndices)
	}
	if err := r.backend.RegisterProgram(id, desc, SolidColorShader(r.capacity)); err != nil {
		return err
	}
	r.programs[id] = &programState{desc: desc}
	r.order = append(r.order, id)
	return nil
}

func (r *renderer) Programs() []common.ProgramID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]common.ProgramID(nil), r.order...)
}

func (r *renderer) UploadUniform(binding uint32, data []byte) error {
	return r.backend.WriteUniform(binding, data)
}

func (r *renderer) UploadGeometry(program common.ProgramID, vertices, indices []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.programs[program]
	if !ok {
		return fmt.Errorf("program %q is not registered", program)
	}
	// The program has one buffer pair; a second write would replace data an earlier draw in
	// this frame still reads.
	if r.inFrame && p.uploadedFrame == r.frame {
		return fmt.Errorf("program %q: geometry already uploaded in frame %d", program, r.frame)
	}
	if err := r.backend.WriteGeometry(program, vertices, indices); err != nil {
		return err
	}
	p.uploadedFrame = r.frame
	p.uploadedIndex = len(indices) / 4
	return nil
}

func (r *renderer) Draw(program common.ProgramID, indexCount uint32) error {
	r.mu.Lock()
	p, ok := r.programs[program]
	inFrame := r.inFrame
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("program %q is not registered", program)
	}
	if !inFrame {
		return fmt.Errorf("draw of program %q outside a frame", program)
	}
	if int(indexCount) > p.uploadedIndex {
		return fmt.Errorf("program %q: draw of %d indices with %d uploaded", program, indexCount, p.uploadedIndex)
	}
	return r.backend.DrawIndexed(program, indexCount)
}

func (r *renderer) GeometryCapacity(program common.ProgramID) (vertices, indices int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.programs[program]
	if !ok {
		return 0, 0
	}
	return p.desc.MaxVertices, p.desc.MaxIndices
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFrame {
		return fmt.Errorf("frame %d not yet presented", r.frame)
	}
	if err := r.backend.BeginFrame(); err != nil {
		return err
	}
	r.frame++
	r.inFrame = true
	return nil
}

func (r *renderer) Present() error {
	r.mu.Lock()
	if !r.inFrame {
		r.mu.Unlock()
		return fmt.Errorf("present without an open frame")
	}
	r.inFrame = false
	r.mu.Unlock()

	if err := r.backend.EndFrame(); err != nil {
		return err
	}
	r.backend.Present()
	return nil
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Release() {
	r.backend.Release()
}
