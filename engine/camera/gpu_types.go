package camera

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// FrameUniformBinding is the bind group slot the frame uniform is uploaded to.
const FrameUniformBinding uint32 = 1

// GPUFrameUniform is the GPU-aligned per-frame uniform shared by every draw.
// Matches the WGSL FrameUniform struct layout exactly.
// Size: 144 bytes.
type GPUFrameUniform struct {
	WorldToCamera mgl32.Mat4 // offset   0: view matrix (mat4x4<f32>)
	CameraToClip  mgl32.Mat4 // offset  64: projection matrix (mat4x4<f32>)
	Color         mgl32.Vec4 // offset 128: solid RGBA colour (vec4<f32>)
}

// NewGPUFrameUniform captures the camera's current matrices together with the draw colour.
//
// Parameters:
//   - c: the camera to read
//   - color: the solid RGBA colour
//
// Returns:
//   - GPUFrameUniform: the uniform ready to marshal
func NewGPUFrameUniform(c Camera, color mgl32.Vec4) GPUFrameUniform {
	return GPUFrameUniform{
		WorldToCamera: c.ViewMatrix(),
		CameraToClip:  c.ProjectionMatrix(),
		Color:         color,
	}
}

// Size returns the size of the GPUFrameUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUFrameUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniform into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUFrameUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.WorldToCamera[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.CameraToClip[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[128+i*4:], math.Float32bits(g.Color[i]))
	}
	return buf
}
