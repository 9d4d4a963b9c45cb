package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/volray/volrt/rt/core"
)

func cullMode(m core.CullMode) wgpu.CullMode {
	switch m {
	case core.CullFront:
		return wgpu.CullModeFront
	case core.CullBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func clearColor(state core.PassState) wgpu.Color {
	c := state.Clear
	return wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
}

// cubeVertexLayout matches core.CubeVertex and the shaders' VertexInput.
var cubeVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: uint64(unsafe.Sizeof(core.CubeVertex{})),
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 24, ShaderLocation: 2},
	},
}

var quadVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: 8,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
	},
}

// newPassPipeline compiles code and builds a pipeline whose fixed-function
// state comes entirely from state. The layout is derived from the shader.
func newPassPipeline(device *wgpu.Device, state core.PassState, code string, layout wgpu.VertexBufferLayout, format wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          state.Label + " Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", state.Label, err)
	}
	defer module.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: state.Label + " Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{layout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode(state.Cull),
		},
		DepthStencil: nil, // none of the passes depth test
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s pipeline: %w", state.Label, err)
	}
	return pipeline, nil
}
