package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"

	volray "github.com/gekko3d/volray"
	"github.com/gekko3d/volray/volrt/rt/app"
	"github.com/gekko3d/volray/volrt/rt/control"
	"github.com/gekko3d/volray/volrt/rt/core"
	"github.com/gekko3d/volray/volrt/rt/preview"
	"github.com/gekko3d/volray/volrt/rt/snapshot"
	"github.com/gekko3d/volray/volrt/rt/soft"
	"github.com/gekko3d/volray/volrt/rt/volume"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "JSON settings file")
	volumeSize := flag.Int("volume", 0, "volume edge length, power of two (overrides config)")
	windowSize := flag.Int("window", 0, "window edge length in pixels (overrides config)")
	debug := flag.Bool("debug", false, "debug logging and HUD")
	headless := flag.Bool("headless", false, "render on the CPU and write PNG frames")
	frames := flag.Int("frames", 1, "frames to render in headless mode")
	outDir := flag.String("out", "out", "output directory for frames and snapshots")
	serve := flag.String("serve", "", "serve a websocket preview on this address")
	snapshotDir := flag.String("snapshot", "", "directory for 'p' key snapshots (default: -out)")
	flag.Parse()

	log := volray.NewDefaultLogger("volray", *debug)

	settings, err := volray.LoadSettings(*configPath)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
	if *volumeSize > 0 {
		settings.VolumeSize = *volumeSize
	}
	if *windowSize > 0 {
		settings.WindowSize = *windowSize
	}
	if *serve != "" {
		settings.Preview.Addr = *serve
	}
	settings.Debug = settings.Debug || *debug
	log.SetDebug(settings.Debug)
	if err := settings.Validate(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	start := time.Now()
	vol, err := volume.Generate(settings.VolumeSize)
	if err != nil {
		log.Errorf("generate volume: %v", err)
		os.Exit(1)
	}
	log.Infof("generated %d^3 volume in %s (%s)", vol.N, time.Since(start), vol.Stats())

	step := control.NewStepSize(settings.StepSize, control.Bounds{Min: settings.StepMin, Max: settings.StepMax})
	ctrl := control.NewController(step, settings.StepIncrement, log.Named("input"))

	switch {
	case *headless:
		err = runHeadless(settings, vol, ctrl, *frames, *outDir, log)
	case settings.Preview.Addr != "":
		err = runPreview(settings, vol, ctrl, log)
	default:
		dir := *snapshotDir
		if dir == "" {
			dir = *outDir
		}
		err = runWindow(settings, vol, ctrl, dir, log)
	}
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func runHeadless(settings volray.Settings, vol *volume.Field, ctrl *control.Controller, frames int, outDir string, log *volray.DefaultLogger) error {
	writer, err := snapshot.NewWriter(outDir, log.Named("snapshot"))
	if err != nil {
		return err
	}
	pipeline := soft.NewPipeline(vol, settings.WindowSize, settings.WindowSize, log.Named("soft"))
	cam := core.NewOrbitCamera(settings.CameraDistance, settings.FovDegrees, settings.RotateDegreesPerFrame)

	for i := 0; i < frames; i++ {
		cam.Advance()
		f := pipeline.Render(cam.Frame(settings.WindowSize, settings.WindowSize), ctrl.Step().Get(), ctrl.Source())
		if _, err := writer.WritePNG(fmt.Sprintf("frame-%04d", i), soft.ToRGBA8(f.Presented)); err != nil {
			return err
		}
		if i == frames-1 {
			if _, err := writer.WriteFrame(f.Exit, f.Composited); err != nil {
				return err
			}
		}
	}
	log.Infof("wrote %d frames to %s", frames, outDir)
	return nil
}

func runPreview(settings volray.Settings, vol *volume.Field, ctrl *control.Controller, log *volray.DefaultLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pipeline := soft.NewPipeline(vol, settings.WindowSize, settings.WindowSize, log.Named("soft"))
	cam := core.NewOrbitCamera(settings.CameraDistance, settings.FovDegrees, settings.RotateDegreesPerFrame)
	srv := preview.NewServer(ctrl, pipeline, cam, settings.Preview.Width,
		time.Duration(settings.Preview.IntervalMs)*time.Millisecond, log.Named("preview"))

	// Esc from any client stops the server
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctrl.Quit() {
					stop()
					return
				}
			}
		}
	}()
	return srv.ListenAndServe(ctx, settings.Preview.Addr)
}

func runWindow(settings volray.Settings, vol *volume.Field, ctrl *control.Controller, outDir string, log *volray.DefaultLogger) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(settings.WindowSize, settings.WindowSize, settings.WindowTitle, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	application := app.NewApp(window, settings, vol, ctrl, log.Named("app"))
	if err := application.Init(); err != nil {
		return err
	}
	defer application.Release()

	if application.Snapshots, err = snapshot.NewWriter(outDir, log.Named("snapshot")); err != nil {
		return err
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		application.HandleKey(key, action)
	})

	for !application.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
	return nil
}
