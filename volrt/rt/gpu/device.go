package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	volray "github.com/gekko3d/volray"
)

// Context is the adapter, device and configured surface of a window.
type Context struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration
}

// Open requests an adapter compatible with the surface, checks that it can
// hold a volume of volumeSize^3, and configures the surface.
func Open(desc *wgpu.SurfaceDescriptor, width, height uint32, volumeSize int, log volray.Logger) (*Context, error) {
	log = volray.OrNop(log)
	c := &Context{Instance: wgpu.CreateInstance(nil)}
	c.Surface = c.Instance.CreateSurface(desc)

	adapter, err := c.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: c.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	if adapter == nil {
		c.Release()
		return nil, ErrNoAdapter
	}
	c.Adapter = adapter

	// rgba16float render targets and 3-D rgba8unorm textures are core
	// WebGPU; only the 3-D extent can rule an adapter out.
	limits := wgpu.DefaultLimits()
	if uint32(volumeSize) > limits.MaxTextureDimension3D {
		c.Release()
		return nil, fmt.Errorf("%w: volume %d exceeds 3-D texture limit %d", ErrNoAdapter, volumeSize, limits.MaxTextureDimension3D)
	}

	c.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	c.Queue = c.Device.GetQueue()

	caps := c.Surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		c.Release()
		return nil, fmt.Errorf("%w: surface reports no formats", ErrNoAdapter)
	}
	log.Infof("surface formats %v, 3-D texture limit %d, float targets %v",
		caps.Formats, limits.MaxTextureDimension3D, TargetFormat)

	c.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       width,
		Height:      height,
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	c.Surface.Configure(c.Adapter, c.Device, c.Config)
	return c, nil
}

func (c *Context) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	c.Config.Width = width
	c.Config.Height = height
	c.Surface.Configure(c.Adapter, c.Device, c.Config)
}

func (c *Context) Release() {
	if c.Device != nil {
		c.Device.Release()
	}
	if c.Adapter != nil {
		c.Adapter.Release()
	}
	if c.Surface != nil {
		c.Surface.Release()
	}
	if c.Instance != nil {
		c.Instance.Release()
	}
}
