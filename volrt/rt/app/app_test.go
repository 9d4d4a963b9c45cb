package app

import (
	"errors"
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"

	volray "github.com/gekko3d/volray"
	"github.com/gekko3d/volray/volrt/rt/control"
	"github.com/gekko3d/volray/volrt/rt/core"
)

func TestKeyCode(t *testing.T) {
	tests := []struct {
		key  glfw.Key
		want int
		ok   bool
	}{
		{glfw.KeyW, 'w', true},
		{glfw.KeyE, 'e', true},
		{glfw.KeyP, 'p', true},
		{glfw.KeySpace, control.KeySpace, true},
		{glfw.KeyEscape, control.KeyEscape, true},
		{glfw.Key5, '5', true},
		{glfw.KeyF1, 0, false},
		{glfw.KeyLeftShift, 0, false},
	}
	for _, tt := range tests {
		got, ok := keyCode(tt.key)
		assert.Equal(t, tt.ok, ok, "key %d", tt.key)
		if ok {
			assert.Equal(t, tt.want, got, "key %d", tt.key)
		}
	}
}

func TestHandleKey_IgnoresRepeat(t *testing.T) {
	a := &App{Controller: control.NewController(nil, 0, nil)}

	a.HandleKey(glfw.KeySpace, glfw.Press)
	a.HandleKey(glfw.KeySpace, glfw.Repeat)
	assert.Equal(t, control.SourceComposited, a.Controller.Source())
	a.HandleKey(glfw.KeySpace, glfw.Release)
	assert.Equal(t, control.SourceExitPoints, a.Controller.Source())

	a.HandleKey(glfw.KeyEscape, glfw.Press)
	a.HandleKey(glfw.KeyEscape, glfw.Release)
	assert.True(t, a.Controller.Quit())
}

func TestProfiler_MovingAverage(t *testing.T) {
	p := NewProfiler()
	p.Window = 4

	for _, ms := range []int{1, 2, 3, 4} {
		p.Record("frame", time.Duration(ms)*time.Millisecond)
	}
	assert.Equal(t, 2500*time.Microsecond, p.Average("frame"))

	// the oldest sample drops out
	p.Record("frame", 9*time.Millisecond)
	assert.Equal(t, 4500*time.Microsecond, p.Average("frame"))

	assert.Equal(t, time.Duration(0), p.Average("missing"))
}

func TestProfiler_Scopes(t *testing.T) {
	now := time.Unix(100, 0)
	p := NewProfiler()
	p.now = func() time.Time { return now }

	p.BeginScope("composite")
	now = now.Add(3 * time.Millisecond)
	p.EndScope("composite")
	p.EndScope("composite")
	p.EndScope("never")

	assert.Equal(t, 3*time.Millisecond, p.Average("composite"))
	assert.Contains(t, p.Stats(), "composite")
	assert.NotContains(t, p.Stats(), "never")
}

func TestProfiler_MaybeReport(t *testing.T) {
	now := time.Unix(100, 0)
	p := NewProfiler()
	p.now = func() time.Time { return now }
	log := volray.NewNopLogger()

	assert.False(t, p.MaybeReport(log, time.Second))
	now = now.Add(500 * time.Millisecond)
	assert.False(t, p.MaybeReport(log, time.Second))
	now = now.Add(600 * time.Millisecond)
	assert.True(t, p.MaybeReport(log, time.Second))
	assert.False(t, p.MaybeReport(log, time.Second))
}

func TestHUDLines(t *testing.T) {
	lines := hudText(0.02, control.SourceExitPoints, 59.94)
	assert.Contains(t, lines, "step 0.02000")
	assert.Contains(t, lines, "exit-points")
	assert.Contains(t, lines, "59.9 fps")
}

type recordedPasses struct {
	calls      []string
	captureErr error
	step       float32
	src        control.Source
}

func (p *recordedPasses) CaptureExitPoints(encoder *wgpu.CommandEncoder, frame core.Frame) error {
	p.calls = append(p.calls, "capture")
	return p.captureErr
}

func (p *recordedPasses) CompositeRays(encoder *wgpu.CommandEncoder, frame core.Frame, step float32) error {
	p.calls = append(p.calls, "composite")
	p.step = step
	return nil
}

func (p *recordedPasses) Present(encoder *wgpu.CommandEncoder, view *wgpu.TextureView, src control.Source, overlay func(*wgpu.RenderPassEncoder)) error {
	p.calls = append(p.calls, "present")
	p.src = src
	return nil
}

func TestRecordFrame_PassOrder(t *testing.T) {
	p := &recordedPasses{}
	frame := core.NewOrbitCamera(2.25, 60, 0.25).Frame(64, 64)

	err := recordFrame(p, nil, nil, frame, 0.02, control.SourceExitPoints, nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"capture", "composite", "present"}, p.calls)
	assert.Equal(t, float32(0.02), p.step)
	assert.Equal(t, control.SourceExitPoints, p.src)
}

func TestRecordFrame_FailedCaptureSkipsFrame(t *testing.T) {
	boom := errors.New("backface pass failed")
	p := &recordedPasses{captureErr: boom}
	frame := core.NewOrbitCamera(2.25, 60, 0.25).Frame(64, 64)

	err := recordFrame(p, nil, nil, frame, 0.02, control.SourceComposited, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"capture"}, p.calls)
}
