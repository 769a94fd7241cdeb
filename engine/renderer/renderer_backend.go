package renderer

import (
	_ "embed"
	"strconv"
	"strings"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1). This is the default.
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing.
	MSAA4x MSAASampleCount = 4
)

const (
	// TransformBinding is the binding of the local-to-world matrix table.
	TransformBinding uint32 = 0

	// FrameBinding is the binding of the per-frame camera and colour uniform.
	FrameBinding uint32 = 1

	// FrameUniformSize is the byte size of the per-frame uniform.
	FrameUniformSize = 144

	// matrixSize is the byte size of one mat4x4<f32>.
	matrixSize = 64

	// maxUniformBindingSize is the WebGPU default limit for a single uniform binding.
	maxUniformBindingSize = 65536
)

// ProgramDescriptor sizes the GPU geometry buffers of one batched program.
type ProgramDescriptor struct {
	// Label names the program's GPU objects in validation messages.
	Label string

	// MaxVertices and MaxIndices bound a single flush. A batch larger than either is rejected
	// by the batcher before it reaches the GPU.
	MaxVertices int
	MaxIndices  int

	// Lines draws the index buffer as a line list instead of a triangle list.
	Lines bool
}

// solidColorSource is the WGSL program drawing every vertex through its local-to-world slot
// in a single colour.
//
//go:embed assets/solid_color.wgsl
var solidColorSource string

// SolidColorShader returns the solid colour program specialised for a matrix table of the
// given capacity.
//
// Parameters:
//   - capacity: the number of local-to-world matrices in the table
//
// Returns:
//   - string: the WGSL source
func SolidColorShader(capacity int) string {
	return strings.ReplaceAll(solidColorSource, "TRANSFORM_CAPACITY", strconv.Itoa(capacity))
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
