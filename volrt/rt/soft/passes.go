package soft

import (
	"image"
	"runtime"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mrjoshuak/go-openexr/exr"

	"github.com/gekko3d/volray/volrt/rt/control"
	"github.com/gekko3d/volray/volrt/rt/core"
)

// NewTarget returns a float target cleared to c.
func NewTarget(width, height int, c mgl32.Vec4) *exr.RGBAImage {
	img := exr.NewRGBAImage(image.Rect(0, 0, width, height))
	if c != (mgl32.Vec4{}) {
		for i := 0; i < len(img.Pix); i += 4 {
			copy(img.Pix[i:i+4], c[:])
		}
	}
	return img
}

func texel(img *exr.RGBAImage, x, y int) mgl32.Vec4 {
	r, g, b, a := img.RGBA(x, y)
	return mgl32.Vec4{r, g, b, a}
}

// CaptureExitPoints draws the back faces of geom and stores, per pixel, the
// object-space position where the view ray leaves the proxy with alpha 1.
// Uncovered pixels keep the clear value (alpha 0).
func CaptureExitPoints(cam core.Frame, geom []core.CubeVertex, width, height int) *exr.RGBAImage {
	state := core.BackfacePass
	target := NewTarget(width, height, state.Clear)
	rasterize(cam, state, geom, width, height, func(x, y int, tc mgl32.Vec3) {
		target.SetRGBA(x, y, tc.X(), tc.Y(), tc.Z(), 1)
	})
	return target
}

// CompositeRays draws the front faces of geom and marches from each entry
// point to the exit point captured for the same pixel. Rows are shaded in
// parallel; each worker owns the rows it writes.
func CompositeRays(exit *exr.RGBAImage, vol core.Sampler, step float32, cam core.Frame, geom []core.CubeVertex) *exr.RGBAImage {
	state := core.RaymarchPass
	width, height := exit.Rect.Dx(), exit.Rect.Dy()
	target := NewTarget(width, height, state.Clear)

	entries := make([]mgl32.Vec3, width*height)
	covered := make([]bool, width*height)
	rasterize(cam, state, geom, width, height, func(x, y int, tc mgl32.Vec3) {
		entries[y*width+x] = tc
		covered[y*width+x] = true
	})

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(first int) {
			defer wg.Done()
			for y := first; y < height; y += workers {
				for x := 0; x < width; x++ {
					i := y*width + x
					if !covered[i] {
						continue
					}
					ex := texel(exit, x, y)
					if !core.Covered(ex) {
						continue
					}
					res := core.March(entries[i], ex.Vec3(), vol, step)
					if res.Skipped {
						continue
					}
					target.SetRGBA(x, y, res.Color[0], res.Color[1], res.Color[2], res.Color[3])
				}
			}
		}(w)
	}
	wg.Wait()

	return target
}

// Present returns what the screen shows: the selected target over the
// cleared framebuffer, saturated to displayable range. The inputs are not
// modified.
func Present(exit, composited *exr.RGBAImage, src control.Source) *exr.RGBAImage {
	from := composited
	if src == control.SourceExitPoints {
		from = exit
	}
	out := exr.NewRGBAImage(from.Rect)
	for i := 0; i < len(from.Pix); i += 4 {
		c := core.Saturate(mgl32.Vec4{from.Pix[i], from.Pix[i+1], from.Pix[i+2], from.Pix[i+3]})
		copy(out.Pix[i:i+4], c[:])
	}
	return out
}

// ToRGBA8 converts a presented image to 8-bit RGB with opaque alpha, the
// way it appears on screen.
func ToRGBA8(img *exr.RGBAImage) *image.RGBA {
	b := img.Rect
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := core.Saturate(texel(img, x, y))
			o := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			out.Pix[o+0] = uint8(c[0]*255 + 0.5)
			out.Pix[o+1] = uint8(c[1]*255 + 0.5)
			out.Pix[o+2] = uint8(c[2]*255 + 0.5)
			out.Pix[o+3] = 255
		}
	}
	return out
}
