package gpu

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/volray/volrt/rt/core"
	"github.com/gekko3d/volray/volrt/rt/volume"
)

// TargetFormat is the format of both off-screen targets.
const TargetFormat = wgpu.TextureFormatRGBA16Float

// Target is an off-screen color attachment that later passes sample.
type Target struct {
	Label   string
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Width   uint32
	Height  uint32
}

func newTarget(device *wgpu.Device, label string, w, h uint32) (*Target, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        TargetFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return &Target{Label: label, Texture: tex, View: view, Width: w, Height: h}, nil
}

func (t *Target) Release() {
	if t == nil {
		return
	}
	if t.View != nil {
		t.View.Release()
	}
	if t.Texture != nil {
		t.Texture.Release()
	}
}

// uploadVolume creates the 3-D texture and copies the field into it once.
// The field's x-fastest layout matches bytesPerRow = 4N, rowsPerImage = N.
func uploadVolume(device *wgpu.Device, queue *wgpu.Queue, f *volume.Field) (*wgpu.Texture, *wgpu.TextureView, error) {
	n := uint32(f.N)
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Volume",
		Size:          wgpu.Extent3D{Width: n, Height: n, DepthOrArrayLayers: n},
		MipLevelCount: 1,
		Dimension:     wgpu.TextureDimension3D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create volume texture: %w", err)
	}

	queue.WriteTexture(tex.AsImageCopy(), f.Bytes(), &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  4 * n,
		RowsPerImage: n,
	}, &wgpu.Extent3D{Width: n, Height: n, DepthOrArrayLayers: n})

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("create volume view: %w", err)
	}
	return tex, view, nil
}

// vertexBytes views a vertex slice as raw bytes for upload.
func vertexBytes(v []core.CubeVertex) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*int(unsafe.Sizeof(core.CubeVertex{})))
}

// quadVertices covers [0,1]^2 with two counter-clockwise triangles.
var quadVertices = [12]float32{
	0, 0, 1, 0, 1, 1,
	0, 0, 1, 1, 0, 1,
}

func quadBytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&quadVertices[0])), len(quadVertices)*4)
}
