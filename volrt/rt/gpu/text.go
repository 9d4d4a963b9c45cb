package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/volray/volrt/rt/core"
	"github.com/gekko3d/volray/volrt/rt/shaders"
)

var textVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: uint64(unsafe.Sizeof(core.TextVertex{})),
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
	},
}

var alphaBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
		Operation: wgpu.BlendOperationAdd,
	},
}

// TextOverlay draws HUD text on top of the presented frame. It records
// into the present pass through Renderer.Present's overlay hook.
type TextOverlay struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	text   *core.TextRenderer

	atlas     *wgpu.Texture
	atlasView *wgpu.TextureView
	sampler   *wgpu.Sampler
	pipeline  *wgpu.RenderPipeline
	bindGroup *wgpu.BindGroup

	vertexBuf *wgpu.Buffer
	count     uint32
}

func NewTextOverlay(device *wgpu.Device, format wgpu.TextureFormat, text *core.TextRenderer) (*TextOverlay, error) {
	o := &TextOverlay{device: device, queue: device.GetQueue(), text: text}
	if err := o.init(format); err != nil {
		o.Release()
		return nil, err
	}
	return o, nil
}

func (o *TextOverlay) init(format wgpu.TextureFormat) error {
	w, h := o.text.Atlas.Bounds().Dx(), o.text.Atlas.Bounds().Dy()
	var err error
	o.atlas, err = o.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Text Atlas",
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("create text atlas: %w", err)
	}
	o.queue.WriteTexture(o.atlas.AsImageCopy(), o.text.Atlas.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(o.text.Atlas.Stride),
		RowsPerImage: uint32(h),
	}, &wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1})

	if o.atlasView, err = o.atlas.CreateView(nil); err != nil {
		return fmt.Errorf("create text atlas view: %w", err)
	}

	o.sampler, err = o.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("create text sampler: %w", err)
	}

	module, err := o.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Text Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.TextWGSL},
	})
	if err != nil {
		return fmt.Errorf("compile text shader: %w", err)
	}
	defer module.Release()

	o.pipeline, err = o.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Text Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{textVertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				Blend:     &alphaBlend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create text pipeline: %w", err)
	}

	o.bindGroup, err = o.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Text BG",
		Layout: o.pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: o.atlasView},
			{Binding: 1, Sampler: o.sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("create text bind group: %w", err)
	}
	return nil
}

// Update lays out items and uploads the vertices, growing the buffer when
// needed.
func (o *TextOverlay) Update(items []core.TextItem, width, height int) error {
	vertices := o.text.BuildVertices(items, width, height)
	o.count = uint32(len(vertices))
	if len(vertices) == 0 {
		return nil
	}

	size := uint64(len(vertices)) * uint64(unsafe.Sizeof(core.TextVertex{}))
	if o.vertexBuf == nil || o.vertexBuf.GetSize() < size {
		if o.vertexBuf != nil {
			o.vertexBuf.Release()
		}
		var err error
		o.vertexBuf, err = o.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Text VB",
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			o.count = 0
			return fmt.Errorf("create text vertex buffer: %w", err)
		}
	}
	o.queue.WriteBuffer(o.vertexBuf, 0, unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), size))
	return nil
}

// Draw records the overlay into an open render pass.
func (o *TextOverlay) Draw(pass *wgpu.RenderPassEncoder) {
	if o.count == 0 || o.vertexBuf == nil {
		return
	}
	pass.SetPipeline(o.pipeline)
	pass.SetBindGroup(0, o.bindGroup, nil)
	pass.SetVertexBuffer(0, o.vertexBuf, 0, o.vertexBuf.GetSize())
	pass.Draw(o.count, 1, 0, 0)
}

func (o *TextOverlay) Release() {
	if o.bindGroup != nil {
		o.bindGroup.Release()
	}
	if o.pipeline != nil {
		o.pipeline.Release()
	}
	if o.vertexBuf != nil {
		o.vertexBuf.Release()
	}
	if o.sampler != nil {
		o.sampler.Release()
	}
	if o.atlasView != nil {
		o.atlasView.Release()
	}
	if o.atlas != nil {
		o.atlas.Release()
	}
}
