package render

import (
	"fmt"
	"log"

	"github.com/cogentcore/webgpu/wgpu"
)

// Context owns the GPU state shared by all drawable adapters: the wgpu
// instance, adapter, device, queue and surface, the depth buffer, and one
// render pipeline per drawable kind.
//
// Pipelines are compiled once by InitPipelines before any adapter is
// constructed, and released by Release. A shader that fails to compile leaves
// its pipeline nil; draws for that kind are skipped and the failure is logged,
// it is never fatal.
//
// All Context methods must be called from the thread that owns the window.
type Context struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat        wgpu.TextureFormat
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	// Frame state for batching all draw calls into one submission.
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	linearSampler  *wgpu.Sampler
	nearestSampler *wgpu.Sampler

	cloudLayout  *wgpu.BindGroupLayout
	imageLayout  *wgpu.BindGroupLayout
	cuboidLayout *wgpu.BindGroupLayout
	ringsLayout  *wgpu.BindGroupLayout
	labelLayout  *wgpu.BindGroupLayout

	cloudPipeline  *wgpu.RenderPipeline
	imagePipeline  *wgpu.RenderPipeline
	cuboidPipeline *wgpu.RenderPipeline
	ringsPipeline  *wgpu.RenderPipeline
	labelPipeline  *wgpu.RenderPipeline

	initialized bool
}

// NewContext creates the wgpu instance, surface, adapter, device and queue for
// the given surface descriptor and configures the surface at the given size.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor from the window
//   - width: initial surface width in pixels
//   - height: initial surface height in pixels
//
// Returns:
//   - *Context: the GPU context, ready for InitPipelines
//   - error: an error if no adapter or device is available
func NewContext(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int) (*Context, error) {
	c := &Context{
		instance: wgpu.CreateInstance(nil),
	}
	c.surface = c.instance.CreateSurface(surfaceDescriptor)

	a, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: c.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	c.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	c.device = d
	c.queue = d.GetQueue()

	c.ConfigureSurface(width, height)

	return c, nil
}

// ConfigureSurface (re)configures the surface and rebuilds the depth buffer
// and the cached render pass descriptor. Required on window resize.
func (c *Context) ConfigureSurface(width, height int) {
	capabilities := c.surface.GetCapabilities(c.adapter)
	c.surfaceFormat = capabilities.Formats[0]

	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      c.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if c.depthTextureView != nil {
		c.depthTextureView.Release()
	}
	if c.depthTexture != nil {
		c.depthTexture.Release()
	}

	depthTexture, err := c.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	c.depthTexture = depthTexture
	c.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	c.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		Label: "Main Render Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       nil, // set per frame
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            c.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

// InitPipelines compiles the shared per-kind shader programs and creates
// their bind group layouts and samplers. Must be called once before any
// adapter is constructed. A shader compile failure is logged and the kind is
// disabled; it does not abort the remaining pipelines.
//
// Returns:
//   - error: an error if a bind group layout or sampler cannot be created
func (c *Context) InitPipelines() error {
	if c.initialized {
		return nil
	}

	var err error
	c.linearSampler, err = c.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Linear Clamp Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0.0,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create linear sampler: %w", err)
	}
	c.nearestSampler, err = c.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Nearest Clamp Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0.0,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create nearest sampler: %w", err)
	}

	if err := c.createBindGroupLayouts(); err != nil {
		return err
	}

	c.cloudPipeline = c.compilePipeline(pipelineSpec{
		label:     "Cloud",
		source:    cloudShaderCode,
		layout:    c.cloudLayout,
		topology:  wgpu.PrimitiveTopologyTriangleList,
		depthTest: true,
	})
	c.imagePipeline = c.compilePipeline(pipelineSpec{
		label:    "Image",
		source:   imageShaderCode,
		layout:   c.imageLayout,
		topology: wgpu.PrimitiveTopologyTriangleList,
	})
	c.cuboidPipeline = c.compilePipeline(pipelineSpec{
		label:     "Cuboid",
		source:    cuboidShaderCode,
		layout:    c.cuboidLayout,
		topology:  wgpu.PrimitiveTopologyLineList,
		depthTest: true,
		blend:     alphaBlendState(),
	})
	c.ringsPipeline = c.compilePipeline(pipelineSpec{
		label:     "Rings",
		source:    ringsShaderCode,
		layout:    c.ringsLayout,
		topology:  wgpu.PrimitiveTopologyLineStrip,
		depthTest: true,
	})
	c.labelPipeline = c.compilePipeline(pipelineSpec{
		label:    "Label",
		source:   labelShaderCode,
		layout:   c.labelLayout,
		topology: wgpu.PrimitiveTopologyTriangleList,
		blend:    alphaBlendState(),
	})

	c.initialized = true
	return nil
}

// Initialized reports whether InitPipelines has completed.
func (c *Context) Initialized() bool {
	return c.initialized
}

func (c *Context) createBindGroupLayouts() error {
	var err error

	storageEntry := func(binding uint32) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeReadOnlyStorage,
			},
		}
	}
	uniformEntry := func(binding uint32, visibility wgpu.ShaderStage) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: visibility,
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeUniform,
			},
		}
	}
	textureEntry := func(binding uint32, visibility wgpu.ShaderStage, sampleType wgpu.TextureSampleType) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: visibility,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    sampleType,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		}
	}
	samplerEntry := func(binding uint32, samplerType wgpu.SamplerBindingType) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageFragment,
			Sampler: wgpu.SamplerBindingLayout{
				Type: samplerType,
			},
		}
	}

	c.cloudLayout, err = c.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Cloud Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageVertex),
			storageEntry(1),
			storageEntry(2),
			storageEntry(3),
			storageEntry(4),
			storageEntry(5),
			textureEntry(6, wgpu.ShaderStageVertex, wgpu.TextureSampleTypeUnfilterableFloat),
			textureEntry(7, wgpu.ShaderStageFragment, wgpu.TextureSampleTypeFloat),
			samplerEntry(8, wgpu.SamplerBindingTypeFiltering),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create cloud bind group layout: %w", err)
	}

	c.imageLayout, err = c.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Image Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageVertex),
			textureEntry(1, wgpu.ShaderStageFragment, wgpu.TextureSampleTypeUnfilterableFloat),
			textureEntry(2, wgpu.ShaderStageFragment, wgpu.TextureSampleTypeUnfilterableFloat),
			samplerEntry(3, wgpu.SamplerBindingTypeNonFiltering),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create image bind group layout: %w", err)
	}

	c.cuboidLayout, err = c.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Cuboid Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create cuboid bind group layout: %w", err)
	}

	c.ringsLayout, err = c.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Rings Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageVertex),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create rings bind group layout: %w", err)
	}

	c.labelLayout, err = c.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Label Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			uniformEntry(0, wgpu.ShaderStageVertex),
			textureEntry(1, wgpu.ShaderStageFragment, wgpu.TextureSampleTypeFloat),
			samplerEntry(2, wgpu.SamplerBindingTypeFiltering),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create label bind group layout: %w", err)
	}

	return nil
}

type pipelineSpec struct {
	label     string
	source    string
	layout    *wgpu.BindGroupLayout
	topology  wgpu.PrimitiveTopology
	depthTest bool
	blend     *wgpu.BlendState
}

// compilePipeline builds one render pipeline. Compile diagnostics are logged
// and a nil pipeline is returned so the kind renders nothing instead of
// aborting the viewer.
func (c *Context) compilePipeline(spec pipelineSpec) *wgpu.RenderPipeline {
	module, err := c.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: spec.label + " Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: spec.source,
		},
	})
	if err != nil {
		log.Printf("render: %s shader failed to compile: %v", spec.label, err)
		return nil
	}
	defer module.Release()

	pipelineLayout, err := c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            spec.label + " Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{spec.layout},
	})
	if err != nil {
		log.Printf("render: %s pipeline layout creation failed: %v", spec.label, err)
		return nil
	}
	defer pipelineLayout.Release()

	depthCompare := wgpu.CompareFunctionAlways
	if spec.depthTest {
		depthCompare = wgpu.CompareFunctionLess
	}
	stripIndexFormat := wgpu.IndexFormatUndefined
	if spec.topology == wgpu.PrimitiveTopologyLineStrip {
		stripIndexFormat = wgpu.IndexFormatUint32
	}

	pipeline, err := c.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  spec.label + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    c.surfaceFormat,
					Blend:     spec.blend,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:         spec.topology,
			StripIndexFormat: stripIndexFormat,
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: spec.depthTest,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		log.Printf("render: %s pipeline creation failed: %v", spec.label, err)
		return nil
	}
	return pipeline
}

func alphaBlendState() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

// BeginFrame acquires the next surface texture and opens the main render pass.
//
// Returns:
//   - error: an error if the surface texture could not be acquired
func (c *Context) BeginFrame() error {
	if c.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := c.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	c.frameSurface = surfaceTexture

	c.frameView, err = surfaceTexture.CreateView(nil)
	if err != nil {
		c.frameSurface.Release()
		c.frameSurface = nil
		return err
	}

	c.frameEncoder, err = c.device.CreateCommandEncoder(nil)
	if err != nil {
		c.releaseFrame()
		return err
	}

	c.renderPassDescriptor.ColorAttachments[0].View = c.frameView
	c.framePass = c.frameEncoder.BeginRenderPass(c.renderPassDescriptor)
	return nil
}

// Pass returns the render pass of the frame opened by BeginFrame, or nil when
// no frame is open.
func (c *Context) Pass() *wgpu.RenderPassEncoder {
	return c.framePass
}

// EndFrame closes the render pass and submits the command buffer. Does not
// present the surface; call Present after EndFrame.
func (c *Context) EndFrame() {
	if c.framePass == nil {
		return
	}

	c.framePass.End()
	c.framePass.Release()
	c.framePass = nil

	cmd, err := c.frameEncoder.Finish(nil)
	c.frameEncoder.Release()
	c.frameEncoder = nil
	if err != nil {
		log.Printf("render: failed to finish frame encoder: %v", err)
		return
	}
	c.queue.Submit(cmd)
	cmd.Release()
}

// Present presents the surface and releases the swapchain texture. Must be
// called once per frame after EndFrame.
func (c *Context) Present() {
	if c.frameSurface == nil {
		return
	}
	c.surface.Present()
	c.releaseFrame()
}

func (c *Context) releaseFrame() {
	if c.framePass != nil {
		c.framePass.Release()
		c.framePass = nil
	}
	if c.frameEncoder != nil {
		c.frameEncoder.Release()
		c.frameEncoder = nil
	}
	if c.frameView != nil {
		c.frameView.Release()
		c.frameView = nil
	}
	if c.frameSurface != nil {
		c.frameSurface.Release()
		c.frameSurface = nil
	}
}

// Release tears down all pipelines, layouts, samplers and device objects.
// The Context must not be used afterwards.
func (c *Context) Release() {
	c.releaseFrame()

	for _, p := range []*wgpu.RenderPipeline{
		c.cloudPipeline, c.imagePipeline, c.cuboidPipeline, c.ringsPipeline, c.labelPipeline,
	} {
		if p != nil {
			p.Release()
		}
	}
	c.cloudPipeline, c.imagePipeline, c.cuboidPipeline, c.ringsPipeline, c.labelPipeline = nil, nil, nil, nil, nil

	for _, l := range []*wgpu.BindGroupLayout{
		c.cloudLayout, c.imageLayout, c.cuboidLayout, c.ringsLayout, c.labelLayout,
	} {
		if l != nil {
			l.Release()
		}
	}
	c.cloudLayout, c.imageLayout, c.cuboidLayout, c.ringsLayout, c.labelLayout = nil, nil, nil, nil, nil

	if c.linearSampler != nil {
		c.linearSampler.Release()
		c.linearSampler = nil
	}
	if c.nearestSampler != nil {
		c.nearestSampler.Release()
		c.nearestSampler = nil
	}
	if c.depthTextureView != nil {
		c.depthTextureView.Release()
		c.depthTextureView = nil
	}
	if c.depthTexture != nil {
		c.depthTexture.Release()
		c.depthTexture = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	c.initialized = false
}

// createStorageBuffer creates a storage buffer writable by queue uploads.
func (c *Context) createStorageBuffer(label string, size uint64) (*wgpu.Buffer, error) {
	return c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
}

// createUniformBuffer creates a uniform buffer writable by queue uploads.
func (c *Context) createUniformBuffer(label string, size uint64) (*wgpu.Buffer, error) {
	return c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
}

// createTexture2D creates a sampled 2D texture writable by queue uploads.
func (c *Context) createTexture2D(label string, width, height uint32, format wgpu.TextureFormat) (*wgpu.Texture, error) {
	return c.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
}

// uploadTexture writes a full mip-0 image into a texture.
func (c *Context) uploadTexture(tex *wgpu.Texture, pixels []byte, width, height, bytesPerTexel uint32) {
	c.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  bytesPerTexel * width,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)
}
