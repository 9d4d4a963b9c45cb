package soft

import (
	"time"

	"github.com/mrjoshuak/go-openexr/exr"

	volray "github.com/gekko3d/volray"
	"github.com/gekko3d/volray/volrt/rt/control"
	"github.com/gekko3d/volray/volrt/rt/core"
)

// Pipeline runs the three stages of a frame on the CPU.
type Pipeline struct {
	Volume   core.Sampler
	Geometry []core.CubeVertex
	Width    int
	Height   int

	log volray.Logger
}

// Frame holds the targets produced for one frame.
type Frame struct {
	Exit       *exr.RGBAImage
	Composited *exr.RGBAImage
	Presented  *exr.RGBAImage

	CaptureTime   time.Duration
	CompositeTime time.Duration
}

func NewPipeline(vol core.Sampler, width, height int, log volray.Logger) *Pipeline {
	return &Pipeline{
		Volume:   vol,
		Geometry: core.UnitCube(),
		Width:    width,
		Height:   height,
		log:      volray.OrNop(log),
	}
}

// Render runs backface capture, raymarch compositing and presentation in
// order. The passes hand their targets on explicitly.
func (p *Pipeline) Render(cam core.Frame, step float32, src control.Source) Frame {
	var f Frame

	start := time.Now()
	f.Exit = CaptureExitPoints(cam, p.Geometry, p.Width, p.Height)
	f.CaptureTime = time.Since(start)

	start = time.Now()
	f.Composited = CompositeRays(f.Exit, p.Volume, step, cam, p.Geometry)
	f.CompositeTime = time.Since(start)

	f.Presented = Present(f.Exit, f.Composited, src)

	p.log.Debugf("frame %dx%d step %.5f: capture %s, composite %s",
		p.Width, p.Height, step, f.CaptureTime, f.CompositeTime)
	return f
}
