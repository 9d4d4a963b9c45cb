package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	volray "github.com/gekko3d/volray"
	"github.com/gekko3d/volray/volrt/rt/control"
	"github.com/gekko3d/volray/volrt/rt/core"
	"github.com/gekko3d/volray/volrt/rt/shaders"
	"github.com/gekko3d/volray/volrt/rt/volume"
)

var ErrNoAdapter = errors.New("gpu: no suitable adapter")

// Renderer owns the GPU side of the volume pipeline: the two off-screen
// targets, the volume texture, the proxy geometry and one pipeline per
// pass.
type Renderer struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	ExitPoints *Target
	Composited *Target

	VolumeSize int
	volumeTex  *wgpu.Texture
	volumeView *wgpu.TextureView

	cubeBuf   *wgpu.Buffer
	cubeCount uint32
	quadBuf   *wgpu.Buffer

	backfaceParams *wgpu.Buffer
	raymarchParams *wgpu.Buffer
	presentParams  *wgpu.Buffer

	BackfacePipeline *wgpu.RenderPipeline
	RaymarchPipeline *wgpu.RenderPipeline
	PresentPipeline  *wgpu.RenderPipeline
	sampler          *wgpu.Sampler

	backfaceBG *wgpu.BindGroup
	raymarchBG *wgpu.BindGroup
	presentBG  [2]*wgpu.BindGroup // indexed by control.Source

	log volray.Logger
}

// NewRenderer uploads the volume and builds every pipeline. Any failure
// here is a setup error; nothing is half-initialized on return.
func NewRenderer(device *wgpu.Device, surfaceFormat wgpu.TextureFormat, vol *volume.Field, width, height uint32, log volray.Logger) (*Renderer, error) {
	r := &Renderer{
		Device:     device,
		Queue:      device.GetQueue(),
		VolumeSize: vol.N,
		log:        volray.OrNop(log),
	}
	if err := r.init(surfaceFormat, vol, width, height); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) init(surfaceFormat wgpu.TextureFormat, vol *volume.Field, width, height uint32) error {
	var err error

	r.volumeTex, r.volumeView, err = uploadVolume(r.Device, r.Queue, vol)
	if err != nil {
		return err
	}
	r.log.Infof("uploaded %d^3 volume (%s)", vol.N, vol.Stats())

	cube := core.UnitCube()
	r.cubeCount = uint32(len(cube))
	if r.cubeBuf, err = r.newBuffer("Cube VB", vertexBytes(cube), wgpu.BufferUsageVertex); err != nil {
		return err
	}
	if r.quadBuf, err = r.newBuffer("Present Quad VB", quadBytes(), wgpu.BufferUsageVertex); err != nil {
		return err
	}

	if r.backfaceParams, err = r.newBuffer("Backface Params", make([]byte, VolumeParamsSize), wgpu.BufferUsageUniform); err != nil {
		return err
	}
	if r.raymarchParams, err = r.newBuffer("Raymarch Params", make([]byte, VolumeParamsSize), wgpu.BufferUsageUniform); err != nil {
		return err
	}
	ortho := PackPresentParams(clipRemap.Mul4(mgl32.Ortho2D(0, 1, 0, 1)))
	if r.presentParams, err = r.newBuffer("Present Params", ortho, wgpu.BufferUsageUniform); err != nil {
		return err
	}

	r.BackfacePipeline, err = newPassPipeline(r.Device, core.BackfacePass, shaders.BackfaceWGSL, cubeVertexLayout, TargetFormat)
	if err != nil {
		return err
	}
	r.RaymarchPipeline, err = newPassPipeline(r.Device, core.RaymarchPass, shaders.RaymarchWGSL, cubeVertexLayout, TargetFormat)
	if err != nil {
		return err
	}
	r.PresentPipeline, err = newPassPipeline(r.Device, core.PresentPass, shaders.PresentWGSL, quadVertexLayout, surfaceFormat)
	if err != nil {
		return err
	}

	r.sampler, err = r.Device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeNearest,
		MagFilter:     wgpu.FilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("create present sampler: %w", err)
	}

	r.backfaceBG, err = r.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Backface BG",
		Layout: r.BackfacePipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.backfaceParams, Size: VolumeParamsSize},
		},
	})
	if err != nil {
		return fmt.Errorf("create backface bind group: %w", err)
	}

	return r.Resize(width, height)
}

func (r *Renderer) newBuffer(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := r.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	r.Queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// Resize recreates both targets and the bind groups that read them.
func (r *Renderer) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}

	exit, err := newTarget(r.Device, "ExitPoints", width, height)
	if err != nil {
		return err
	}
	composited, err := newTarget(r.Device, "Composited", width, height)
	if err != nil {
		exit.Release()
		return err
	}
	r.releaseTargetBindings()
	r.ExitPoints, r.Composited = exit, composited

	r.raymarchBG, err = r.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Raymarch BG",
		Layout: r.RaymarchPipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.raymarchParams, Size: VolumeParamsSize},
			{Binding: 1, TextureView: r.ExitPoints.View},
			{Binding: 2, TextureView: r.volumeView},
		},
	})
	if err != nil {
		return fmt.Errorf("create raymarch bind group: %w", err)
	}

	for src, t := range map[control.Source]*Target{
		control.SourceComposited: r.Composited,
		control.SourceExitPoints: r.ExitPoints,
	} {
		r.presentBG[src], err = r.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "Present BG " + src.String(),
			Layout: r.PresentPipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: r.presentParams, Size: PresentParamsSize},
				{Binding: 1, TextureView: t.View},
				{Binding: 2, Sampler: r.sampler},
			},
		})
		if err != nil {
			return fmt.Errorf("create present bind group: %w", err)
		}
	}

	r.log.Debugf("targets resized to %dx%d", width, height)
	return nil
}

func (r *Renderer) drawCube(encoder *wgpu.CommandEncoder, state core.PassState, target *Target, pipeline *wgpu.RenderPipeline, bg *wgpu.BindGroup) error {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target.View,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clearColor(state),
		}},
	})
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.SetVertexBuffer(0, r.cubeBuf, 0, r.cubeBuf.GetSize())
	pass.Draw(r.cubeCount, 1, 0, 0)
	if err := pass.End(); err != nil {
		return fmt.Errorf("%s pass: %w", state.Label, err)
	}
	return nil
}

// CaptureExitPoints records the backface pass into the ExitPoints target.
func (r *Renderer) CaptureExitPoints(encoder *wgpu.CommandEncoder, frame core.Frame) error {
	r.Queue.WriteBuffer(r.backfaceParams, 0, PackVolumeParams(ClipMatrix(frame), 0, r.VolumeSize))
	return r.drawCube(encoder, core.BackfacePass, r.ExitPoints, r.BackfacePipeline, r.backfaceBG)
}

// CompositeRays records the raymarch pass into the Composited target. It
// reads ExitPoints, so it must be recorded after CaptureExitPoints.
func (r *Renderer) CompositeRays(encoder *wgpu.CommandEncoder, frame core.Frame, step float32) error {
	r.Queue.WriteBuffer(r.raymarchParams, 0, PackVolumeParams(ClipMatrix(frame), step, r.VolumeSize))
	return r.drawCube(encoder, core.RaymarchPass, r.Composited, r.RaymarchPipeline, r.raymarchBG)
}

// Present draws the selected target over the whole surface view. overlay,
// when set, records more draws into the same pass.
func (r *Renderer) Present(encoder *wgpu.CommandEncoder, view *wgpu.TextureView, src control.Source, overlay func(*wgpu.RenderPassEncoder)) error {
	bg := r.presentBG[control.SourceComposited]
	if src == control.SourceExitPoints {
		bg = r.presentBG[control.SourceExitPoints]
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clearColor(core.PresentPass),
		}},
	})
	pass.SetPipeline(r.PresentPipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.SetVertexBuffer(0, r.quadBuf, 0, r.quadBuf.GetSize())
	pass.Draw(6, 1, 0, 0)
	if overlay != nil {
		overlay(pass)
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("present pass: %w", err)
	}
	return nil
}

// releaseTargetBindings drops the targets and every bind group reading
// them.
func (r *Renderer) releaseTargetBindings() {
	for _, bg := range []*wgpu.BindGroup{r.raymarchBG, r.presentBG[0], r.presentBG[1]} {
		if bg != nil {
			bg.Release()
		}
	}
	r.raymarchBG = nil
	r.presentBG = [2]*wgpu.BindGroup{}
	r.ExitPoints.Release()
	r.Composited.Release()
	r.ExitPoints, r.Composited = nil, nil
}

func (r *Renderer) Release() {
	r.releaseTargetBindings()
	if r.backfaceBG != nil {
		r.backfaceBG.Release()
	}
	for _, p := range []*wgpu.RenderPipeline{r.BackfacePipeline, r.RaymarchPipeline, r.PresentPipeline} {
		if p != nil {
			p.Release()
		}
	}
	for _, b := range []*wgpu.Buffer{r.cubeBuf, r.quadBuf, r.backfaceParams, r.raymarchParams, r.presentParams} {
		if b != nil {
			b.Release()
		}
	}
	if r.sampler != nil {
		r.sampler.Release()
	}
	if r.volumeView != nil {
		r.volumeView.Release()
	}
	if r.volumeTex != nil {
		r.volumeTex.Release()
	}
}
