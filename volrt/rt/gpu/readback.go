package gpu

import (
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/mrjoshuak/go-openexr/half"
)

// rgba16float texel size in bytes.
const targetBytesPerPixel = 8

// alignedBytesPerRow pads a row to the 256 byte copy alignment.
func alignedBytesPerRow(width, bytesPerPixel uint32) uint32 {
	return (width*bytesPerPixel + 255) & ^uint32(255)
}

// UnpackRGBA16F decodes padded rgba16float rows into a float image.
func UnpackRGBA16F(data []byte, width, height int, bytesPerRow int) (*exr.RGBAImage, error) {
	rowBytes := width * targetBytesPerPixel
	if bytesPerRow < rowBytes || len(data) < (height-1)*bytesPerRow+rowBytes {
		return nil, fmt.Errorf("readback: %d bytes too short for %dx%d with %d bytes per row", len(data), width, height, bytesPerRow)
	}
	img := exr.NewRGBAImage(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := data[y*bytesPerRow : y*bytesPerRow+rowBytes]
		half.ConvertBytesToFloat32(img.Pix[y*width*4:(y+1)*width*4], row)
	}
	return img, nil
}

// ReadTarget copies a target back to the CPU. It blocks until the GPU is
// done, so it is meant for snapshots, not for every frame.
func (r *Renderer) ReadTarget(t *Target) (*exr.RGBAImage, error) {
	bytesPerRow := alignedBytesPerRow(t.Width, targetBytesPerPixel)
	size := uint64(bytesPerRow) * uint64(t.Height)

	buf, err := r.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: t.Label + " Readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create readback buffer: %w", err)
	}
	defer buf.Release()

	encoder, err := r.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create readback encoder: %w", err)
	}
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  t.Texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{0, 0, 0},
		},
		&wgpu.ImageCopyBuffer{
			Buffer: buf,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  bytesPerRow,
				RowsPerImage: t.Height,
			},
		},
		&wgpu.Extent3D{Width: t.Width, Height: t.Height, DepthOrArrayLayers: 1},
	)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish readback encoder: %w", err)
	}
	r.Queue.Submit(cmd)

	var status wgpu.BufferMapAsyncStatus
	done := false
	buf.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		done = true
	})
	for !done {
		r.Device.Poll(true, nil)
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("map %s readback: status %d", t.Label, status)
	}
	defer buf.Unmap()

	data := buf.GetMappedRange(0, uint(size))
	return UnpackRGBA16F(data, int(t.Width), int(t.Height), int(bytesPerRow))
}
