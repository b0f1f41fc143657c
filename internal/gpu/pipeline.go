package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Glyph rendering errors.
var (
	// ErrNilPipeline is returned when operating on a nil pipeline.
	ErrNilPipeline = errors.New("wgpu: glyph pipeline is nil")

	// ErrPipelineNotInitialized is returned when the pipeline is not initialized.
	ErrPipelineNotInitialized = errors.New("wgpu: glyph pipeline not initialized")

	// ErrNoQuadsToRender is returned when a draw is submitted with no quads.
	ErrNoQuadsToRender = errors.New("wgpu: no quads to render")

	// ErrQuadBufferOverflow is returned when too many quads are submitted.
	ErrQuadBufferOverflow = errors.New("wgpu: quad buffer overflow")
)

// sampleCount is the MSAA sample count used by the offscreen render path.
const sampleCount = 4

// glyphVertexStride is the byte stride per vertex in the SDF text pipeline.
// Layout per vertex:
//
//	position (vec3<f32>) = 12 bytes (location 0)
//	uv       (vec2<f32>) =  8 bytes (location 1)
//	page     (u32)       =  4 bytes (location 2)
//
// Total = 24 bytes per vertex.
const glyphVertexStride = 24

// styleUniformSize is the byte size of the style uniform buffer.
// Layout: color (vec4<f32>) = 16 bytes + buffer_value (f32) + gamma (f32) +
// padding (vec2<f32>) = 16 bytes. Total 32 bytes.
const styleUniformSize = 32

// maxQuadsPerDraw bounds one indexed draw: uint16 indices address 65536
// vertices, 4 per quad.
const maxQuadsPerDraw = 16384

// SDFTextPipeline manages GPU resources for SDF glyph rendering via a
// vertex+fragment render pipeline. Each glyph is a textured quad; the
// fragment shader samples the scalar distance field from a texture array
// page and resolves coverage per pixel.
//
// A pipelineWithStencil variant is provided for render passes that carry a
// depth/stencil attachment (stencil test is Always/Keep -- glyphs do not
// interact with stencil).
//
// Architecture:
//
//	GlyphRenderer owns per-frame buffers (vertex, index, uniform) and textures
//	SDFTextPipeline owns shader, layouts, pipeline, sampler
//	bind groups are created per atlas texture (uniform + texture array + sampler)
type SDFTextPipeline struct {
	device hal.Device
	queue  hal.Queue

	// GPU objects for the render pipeline.
	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline

	// Session-compatible pipeline variant with depth/stencil state.
	pipelineWithStencil hal.RenderPipeline

	// Sampler for the atlas texture array (linear filtering, clamp to edge).
	sampler hal.Sampler
}

// NewSDFTextPipeline creates a new SDF text pipeline with the given device
// and queue. GPU objects are not created until createPipeline is called.
func NewSDFTextPipeline(device hal.Device, queue hal.Queue) *SDFTextPipeline {
	return &SDFTextPipeline{
		device: device,
		queue:  queue,
	}
}

// Destroy releases all GPU resources held by the pipeline. Safe to call
// multiple times or on a pipeline with no allocated resources.
func (p *SDFTextPipeline) Destroy() {
	p.destroyPipeline()
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
}

// createShaderModule builds the shader module from the embedded WGSL.
// Backends without a WGSL front end reject the descriptor; those get the
// shader pre-compiled to SPIR-V with naga instead.
func (p *SDFTextPipeline) createShaderModule() (hal.ShaderModule, error) {
	shader, wgslErr := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "sdf_text_shader",
		Source: hal.ShaderSource{WGSL: sdfTextShaderSource},
	})
	if wgslErr == nil {
		return shader, nil
	}

	spirvCode, err := CompileShaderToSPIRV(sdfTextShaderSource)
	if err != nil {
		return nil, fmt.Errorf("compile sdf_text shader (WGSL rejected: %v): %w", wgslErr, err)
	}
	shader, err = p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "sdf_text_shader",
		Source: hal.ShaderSource{SPIRV: spirvCode},
	})
	if err != nil {
		return nil, fmt.Errorf("create sdf_text shader from SPIR-V: %w", err)
	}
	return shader, nil
}

// createPipeline compiles the SDF text shader and creates the render
// pipeline with premultiplied alpha blending and MSAA.
func (p *SDFTextPipeline) createPipeline() error {
	if sdfTextShaderSource == "" {
		return fmt.Errorf("sdf_text shader source is empty")
	}

	shader, err := p.createShaderModule()
	if err != nil {
		return err
	}
	p.shader = shader

	// Bind group layout:
	//   Binding 0: StyleUniforms (uniform buffer, fragment)
	//   Binding 1: SDF atlas texture array (texture_2d_array, fragment)
	//   Binding 2: Sampler (fragment)
	uniformLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sdf_text_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2DArray,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create sdf_text uniform layout: %w", err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sdf_text_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create sdf_text pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	// Linear filtering keeps the sampled distance field continuous between
	// texels; clamp-to-edge stops glyph cells from bleeding across the page
	// border.
	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "sdf_text_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("create sdf_text sampler: %w", err)
	}
	p.sampler = sampler

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "sdf_text_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    glyphVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatBGRA8Unorm,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: sampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create sdf_text pipeline: %w", err)
	}
	p.pipeline = pipeline

	return nil
}

// ensurePipelineWithStencil creates the pipeline variant that includes a
// depth/stencil state, for render passes shared with stencil-then-cover
// geometry. The base pipeline (shader, layout, sampler) is created first if
// it doesn't exist.
func (p *SDFTextPipeline) ensurePipelineWithStencil() error {
	if p.shader == nil || p.uniformLayout == nil || p.pipeLayout == nil {
		if err := p.createPipeline(); err != nil {
			return err
		}
	}
	if p.pipelineWithStencil != nil {
		return nil
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "sdf_text_pipeline_with_stencil",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    glyphVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatBGRA8Unorm,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            gputypes.TextureFormatDepth24PlusStencil8,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilReadMask:  0x00,
			StencilWriteMask: 0x00,
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: sampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create sdf_text pipeline with stencil: %w", err)
	}
	p.pipelineWithStencil = pipeline
	return nil
}

// RecordDraws records glyph draw commands into an existing render pass that
// carries a depth/stencil attachment. The resources parameter holds
// pre-built vertex/index buffers, the style uniform, and the bind group for
// the current frame.
func (p *SDFTextPipeline) RecordDraws(rp hal.RenderPassEncoder, resources *glyphFrameResources) {
	if resources == nil || resources.indexCount == 0 {
		return
	}
	rp.SetPipeline(p.pipelineWithStencil)
	rp.SetBindGroup(0, resources.bindGroup, nil)
	rp.SetVertexBuffer(0, resources.vertBuf, 0)
	rp.SetIndexBuffer(resources.idxBuf, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(resources.indexCount, 1, 0, 0, 0)
}

// destroyPipeline releases all pipeline resources in reverse creation order.
func (p *SDFTextPipeline) destroyPipeline() {
	if p.device == nil {
		return
	}
	if p.pipelineWithStencil != nil {
		p.device.DestroyRenderPipeline(p.pipelineWithStencil)
		p.pipelineWithStencil = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// glyphFrameResources holds per-frame GPU resources for glyph rendering.
type glyphFrameResources struct {
	vertBuf    hal.Buffer
	idxBuf     hal.Buffer
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup
	indexCount uint32
}

// glyphVertexLayout returns the vertex buffer layout for the SDF text
// pipeline. Matches VertexInput in sdf_text.wgsl:
//
//	location 0: position (vec3<f32>)
//	location 1: uv (vec2<f32>)
//	location 2: page (u32)
func glyphVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: glyphVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1}, // uv
				{Format: gputypes.VertexFormatUint32, Offset: 20, ShaderLocation: 2},    // page
			},
		},
	}
}
