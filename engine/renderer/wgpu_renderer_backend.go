package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-batch/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuProgram holds the GPU objects of one batched program.
type wgpuProgram struct {
	desc         ProgramDescriptor
	pipeline     *wgpu.RenderPipeline
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	msaaTextureView      *wgpu.TextureView
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor
	clearColor           wgpu.Color

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount

	// Shared bind group: the matrix table and the frame uniform.
	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
	bindGroup       *wgpu.BindGroup
	uniformBuffers  map[uint32]*wgpu.Buffer

	programs map[common.ProgramID]*wgpuProgram

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

type wgpuRendererBackend interface {
	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode. Takes effect on the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the colour the frame is cleared to. Takes effect on the next ConfigureSurface.
	//
	// Parameters:
	//   - r, g, b, a: colour components in [0, 1]
	SetClearColor(r, g, b, a float64)

	// InitSharedBindGroup creates the uniform buffers and the bind group shared by every program:
	// the local-to-world matrix table at TransformBinding and the frame uniform at FrameBinding.
	//
	// Parameters:
	//   - capacity: the number of matrices in the table
	//
	// Returns:
	//   - error: an error if buffer or bind group creation fails
	InitSharedBindGroup(capacity int) error

	// RegisterProgram compiles the program's shader, creates its render pipeline, and allocates
	// vertex and index buffers sized from the descriptor.
	//
	// Parameters:
	//   - id: the program identifier
	//   - desc: buffer sizing and label
	//   - source: the WGSL source with vs_main and fs_main entry points
	//
	// Returns:
	//   - error: an error if any GPU object cannot be created
	RegisterProgram(id common.ProgramID, desc ProgramDescriptor, source string) error

	// WriteUniform queues a write of data to the start of the uniform buffer at binding.
	//
	// Returns:
	//   - error: if the binding has no buffer or data does not fit
	WriteUniform(binding uint32, data []byte) error

	// WriteGeometry queues writes of the program's vertex and index data.
	//
	// Returns:
	//   - error: if the program is unknown or the data does not fit its buffers
	WriteGeometry(id common.ProgramID, vertices, indices []byte) error

	// BeginFrame acquires the surface texture and opens the frame's render pass.
	//
	// Returns:
	//   - error: an error if the surface texture or command encoder cannot be acquired
	BeginFrame() error

	// DrawIndexed encodes one indexed draw of the program's uploaded geometry.
	//
	// Returns:
	//   - error: if no frame is open or the program is unknown
	DrawIndexed(id common.ProgramID, indexCount uint32) error

	// EndFrame closes the render pass and submits the frame's commands.
	//
	// Returns:
	//   - error: if command buffer encoding fails
	EndFrame() error

	// Present presents the acquired surface image and releases the frame's references.
	Present()

	// Release frees every GPU object owned by the backend.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:             &sync.Mutex{},
		instance:       wgpu.CreateInstance(nil),
		presentMode:    wgpu.PresentModeImmediate,
		sampleCount:    sampleCount,
		clearColor:     wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		uniformBuffers: make(map[uint32]*wgpu.Buffer),
		programs:       make(map[common.ProgramID]*wgpuProgram),
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if width <= 0 || height <= 0 {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if msaaEnabled {
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	if b.depthTextureView != nil {
		b.depthTextureView.Release()
	}
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	// With MSAA the swapchain view becomes the per-frame ResolveTarget; without it the
	// swapchain view is the per-frame View.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.msaaTextureView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    storeOp,
				ClearValue: b.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) SetClearColor(r, g, bl, a float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = wgpu.Color{R: r, G: g, B: bl, A: a}
}

func (b *wgpuRendererBackendImpl) InitSharedBindGroup(capacity int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sizes := map[uint32]uint64{
		TransformBinding: uint64(capacity * matrixSize),
		FrameBinding:     FrameUniformSize,
	}
	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Shared Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    TransformBinding,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: sizes[TransformBinding],
				},
			},
			{
				Binding:    FrameBinding,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: sizes[FrameBinding],
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create shared bind group layout: %w", err)
	}
	b.bindGroupLayout = layout

	b.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Shared Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout: %w", err)
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(sizes))
	for _, binding := range []uint32{TransformBinding, FrameBinding} {
		buf, bufErr := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: fmt.Sprintf("Uniform Buffer %d", binding),
			Size:  sizes[binding],
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if bufErr != nil {
			return fmt.Errorf("failed to create uniform buffer %d: %w", binding, bufErr)
		}
		b.uniformBuffers[binding] = buf
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: binding,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}

	b.bindGroup, err = b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Shared Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("failed to create shared bind group: %w", err)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) RegisterProgram(id common.ProgramID, desc ProgramDescriptor, source string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pipelineLayout == nil {
		return fmt.Errorf("program %q registered before the shared bind group", id)
	}
	if b.surfaceFormat == nil {
		return fmt.Errorf("program %q registered before the surface was configured", id)
	}
	label := common.Coalesce(desc.Label, string(id))
	topology := wgpu.PrimitiveTopologyTriangleList
	if desc.Lines {
		topology = wgpu.PrimitiveTopologyLineList
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return fmt.Errorf("program %q: shader module: %w", id, err)
	}
	defer module.Release()

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: b.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: 16,
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: wgpu.VertexFormatUint32, Offset: 12, ShaderLocation: 1},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *b.surfaceFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("program %q: render pipeline: %w", id, err)
	}

	vb, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label + " Vertex Buffer",
		Size:             uint64(desc.MaxVertices * 16),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		created.Release()
		return fmt.Errorf("program %q: vertex buffer: %w", id, err)
	}
	ib, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label + " Index Buffer",
		Size:             uint64(desc.MaxIndices * 4),
		Usage:            wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		vb.Release()
		created.Release()
		return fmt.Errorf("program %q: index buffer: %w", id, err)
	}

	b.programs[id] = &wgpuProgram{
		desc:         desc,
		pipeline:     created,
		vertexBuffer: vb,
		indexBuffer:  ib,
	}
	return nil
}

func (b *wgpuRendererBackendImpl) WriteUniform(binding uint32, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, ok := b.uniformBuffers[binding]
	if !ok {
		return fmt.Errorf("no uniform buffer at binding %d", binding)
	}
	if uint64(len(data)) > buf.GetSize() {
		return fmt.Errorf("uniform write of %d bytes exceeds binding %d size %d: %w",
			len(data), binding, buf.GetSize(), common.ErrBufferOverflow)
	}
	return b.queue.WriteBuffer(buf, 0, data)
}

func (b *wgpuRendererBackendImpl) WriteGeometry(id common.ProgramID, vertices, indices []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.programs[id]
	if !ok {
		return fmt.Errorf("program %q is not registered", id)
	}
	if uint64(len(vertices)) > p.vertexBuffer.GetSize() || uint64(len(indices)) > p.indexBuffer.GetSize() {
		return fmt.Errorf("program %q: geometry of %d / %d bytes exceeds buffers: %w",
			id, len(vertices), len(indices), common.ErrBufferOverflow)
	}
	if len(vertices) > 0 {
		if err := b.queue.WriteBuffer(p.vertexBuffer, 0, vertices); err != nil {
			return err
		}
	}
	if len(indices) > 0 {
		if err := b.queue.WriteBuffer(p.indexBuffer, 0, indices); err != nil {
			return err
		}
	}
	return nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A held surface texture means the previous frame was never presented.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)
	pass.SetBindGroup(0, b.bindGroup, nil)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackendImpl) DrawIndexed(id common.ProgramID, indexCount uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return fmt.Errorf("draw of program %q outside a frame", id)
	}
	p, ok := b.programs[id]
	if !ok {
		return fmt.Errorf("program %q is not registered", id)
	}

	b.framePass.SetPipeline(p.pipeline)
	b.framePass.SetVertexBuffer(0, p.vertexBuffer, 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(p.indexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(indexCount, 1, 0, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return nil
	}
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.frameSurface = nil
		b.frameView = nil
		return fmt.Errorf("failed to finish frame: %w", err)
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, p := range b.programs {
		p.vertexBuffer.Release()
		p.indexBuffer.Release()
		p.pipeline.Release()
		delete(b.programs, id)
	}
	if b.bindGroup != nil {
		b.bindGroup.Release()
	}
	for binding, buf := range b.uniformBuffers {
		buf.Release()
		delete(b.uniformBuffers, binding)
	}
	if b.pipelineLayout != nil {
		b.pipelineLayout.Release()
	}
	if b.bindGroupLayout != nil {
		b.bindGroupLayout.Release()
	}
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}
