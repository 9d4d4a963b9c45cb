package app

import (
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	volray "github.com/gekko3d/volray"
	"github.com/gekko3d/volray/volrt/rt/control"
	"github.com/gekko3d/volray/volrt/rt/core"
	"github.com/gekko3d/volray/volrt/rt/gpu"
	"github.com/gekko3d/volray/volrt/rt/snapshot"
	"github.com/gekko3d/volray/volrt/rt/volume"
)

// App drives the windowed GPU renderer: one frame is backface capture,
// raymarch compositing and presentation of the selected target.
type App struct {
	Window   *glfw.Window
	GPU      *gpu.Context
	Renderer *gpu.Renderer
	HUD      *gpu.TextOverlay

	Volume     *volume.Field
	Camera     *core.OrbitCamera
	Controller *control.Controller
	Profiler   *Profiler
	Snapshots  *snapshot.Writer

	Settings  volray.Settings
	DebugMode bool

	hudItems       []core.TextItem
	lastRenderTime float64
	frameCount     int
	fpsTime        float64
	FPS            float64

	log volray.Logger
}

func NewApp(window *glfw.Window, settings volray.Settings, vol *volume.Field, ctrl *control.Controller, log volray.Logger) *App {
	return &App{
		Window:     window,
		Volume:     vol,
		Camera:     core.NewOrbitCamera(settings.CameraDistance, settings.FovDegrees, settings.RotateDegreesPerFrame),
		Controller: ctrl,
		Profiler:   NewProfiler(),
		Settings:   settings,
		DebugMode:  settings.Debug,
		log:        volray.OrNop(log),
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}

// Init opens the device and builds every GPU resource. Errors here are
// fatal setup errors.
func (a *App) Init() error {
	width, height := a.Window.GetFramebufferSize()

	var err error
	a.GPU, err = gpu.Open(GetSurfaceDescriptor(a.Window), uint32(width), uint32(height), a.Volume.N, a.log)
	if err != nil {
		return err
	}

	a.Renderer, err = gpu.NewRenderer(a.GPU.Device, a.GPU.Config.Format, a.Volume, uint32(width), uint32(height), a.log)
	if err != nil {
		return err
	}

	text, err := core.NewMonoTextRenderer(18)
	if err != nil {
		a.log.Warnf("HUD disabled: %v", err)
	} else if a.HUD, err = gpu.NewTextOverlay(a.GPU.Device, a.GPU.Config.Format, text); err != nil {
		a.log.Warnf("HUD disabled: %v", err)
		a.HUD = nil
	}

	a.log.Infof("window %dx%d, volume %d^3, step %.5f", width, height, a.Volume.N, a.Controller.Step().Get())
	return nil
}

func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 || a.GPU == nil {
		return
	}
	a.GPU.Resize(uint32(w), uint32(h))
	if err := a.Renderer.Resize(uint32(w), uint32(h)); err != nil {
		a.log.Errorf("resize: %v", err)
	}
}

// Update applies held keys and advances the orbit. It runs once per frame
// before Render.
func (a *App) Update() {
	if a.Controller.Poll() {
		a.log.Debugf("step size %.5f", a.Controller.Step().Get())
	}
	a.Camera.Advance()

	a.hudItems = a.hudItems[:0]
	if a.DebugMode && a.HUD != nil {
		a.hudItems = append(a.hudItems, core.TextItem{
			Text:     hudText(a.Controller.Step().Get(), a.Controller.Source(), a.FPS),
			Position: [2]float32{10, 10},
			Scale:    1,
			Color:    [4]float32{1, 1, 0, 1},
		})
	}
	if a.HUD != nil {
		if err := a.HUD.Update(a.hudItems, int(a.GPU.Config.Width), int(a.GPU.Config.Height)); err != nil {
			a.log.Warnf("HUD update: %v", err)
		}
	}
}

func hudText(step float32, src control.Source, fps float64) string {
	return fmt.Sprintf("step %.5f\n%s\n%.1f fps", step, src, fps)
}

func (a *App) Render() {
	nextTexture, err := a.GPU.Surface.GetCurrentTexture()
	if err != nil {
		a.log.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.log.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.GPU.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.log.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}

	frame := a.Camera.Frame(int(a.GPU.Config.Width), int(a.GPU.Config.Height))

	var overlay func(*wgpu.RenderPassEncoder)
	if a.HUD != nil {
		overlay = a.HUD.Draw
	}

	a.Profiler.BeginScope("encode")
	err = recordFrame(a.Renderer, encoder, view, frame, a.Controller.Step().Get(), a.Controller.Source(), overlay)
	a.Profiler.EndScope("encode")
	if err != nil {
		a.log.Errorf("frame skipped: %v", err)
		return
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.log.Errorf("Encoder Finish failed: %v", err)
		return
	}
	a.Profiler.BeginScope("submit")
	a.GPU.Queue.Submit(cmd)
	a.GPU.Surface.Present()
	a.Profiler.EndScope("submit")

	if a.Controller.TakeSnapshot() {
		a.saveSnapshot()
	}

	now := glfw.GetTime()
	if a.lastRenderTime > 0 {
		a.frameCount++
		a.fpsTime += now - a.lastRenderTime
		if a.fpsTime >= 1.0 {
			a.FPS = float64(a.frameCount) / a.fpsTime
			a.frameCount = 0
			a.fpsTime = 0
		}
	}
	a.lastRenderTime = now
	a.Profiler.MaybeReport(a.log, time.Second)
}

// framePasses is the part of gpu.Renderer a frame is recorded with.
type framePasses interface {
	CaptureExitPoints(encoder *wgpu.CommandEncoder, frame core.Frame) error
	CompositeRays(encoder *wgpu.CommandEncoder, frame core.Frame, step float32) error
	Present(encoder *wgpu.CommandEncoder, view *wgpu.TextureView, src control.Source, overlay func(*wgpu.RenderPassEncoder)) error
}

// recordFrame records the three passes in order. A failed pass ends the
// frame: later passes would read a target that was never written.
func recordFrame(p framePasses, encoder *wgpu.CommandEncoder, view *wgpu.TextureView, frame core.Frame, step float32, src control.Source, overlay func(*wgpu.RenderPassEncoder)) error {
	if err := p.CaptureExitPoints(encoder, frame); err != nil {
		return err
	}
	if err := p.CompositeRays(encoder, frame, step); err != nil {
		return err
	}
	return p.Present(encoder, view, src, overlay)
}

// saveSnapshot reads both intermediate targets back and writes them to
// disk. A failed snapshot is logged, the render loop keeps going.
func (a *App) saveSnapshot() {
	if a.Snapshots == nil {
		w, err := snapshot.NewWriter(".", a.log)
		if err != nil {
			a.log.Errorf("snapshot: %v", err)
			return
		}
		a.Snapshots = w
	}
	exit, err := a.Renderer.ReadTarget(a.Renderer.ExitPoints)
	if err != nil {
		a.log.Errorf("snapshot exit points: %v", err)
		return
	}
	composited, err := a.Renderer.ReadTarget(a.Renderer.Composited)
	if err != nil {
		a.log.Errorf("snapshot composited: %v", err)
		return
	}
	if _, err := a.Snapshots.WriteFrame(exit, composited); err != nil {
		a.log.Errorf("snapshot: %v", err)
	}
}

// ShouldClose reports whether the window or the controller asked to stop.
func (a *App) ShouldClose() bool {
	return a.Window.ShouldClose() || a.Controller.Quit()
}

func (a *App) Release() {
	if a.HUD != nil {
		a.HUD.Release()
	}
	if a.Renderer != nil {
		a.Renderer.Release()
	}
	if a.GPU != nil {
		a.GPU.Release()
	}
}
