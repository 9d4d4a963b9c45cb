package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestOrbitCamera_CentersVolume(t *testing.T) {
	cam := NewOrbitCamera(2.25, 60, 0.25)
	for i := 0; i < 100; i++ {
		frame := cam.Frame(800, 600)
		clip := frame.MVP().Mul4x1(mgl32.Vec4{0.5, 0.5, 0.5, 1})
		ndc := clip.Vec3().Mul(1 / clip.W())
		if mgl32.Abs(ndc.X()) > 1e-5 || mgl32.Abs(ndc.Y()) > 1e-5 {
			t.Fatalf("frame %d: volume center projects to %v, want screen center", i, ndc)
		}
		if clip.W() < 2.24 || clip.W() > 2.26 {
			t.Fatalf("frame %d: volume center at depth %f, want 2.25", i, clip.W())
		}
		cam.Advance()
	}
}

func TestOrbitCamera_CubeInsideFrustum(t *testing.T) {
	cam := NewOrbitCamera(2.25, 60, 0.25)
	cam.Angle = 45
	frame := cam.Frame(800, 800)
	for _, v := range UnitCube() {
		clip := frame.MVP().Mul4x1(mgl32.Vec3(v.Pos).Vec4(1))
		for i := 0; i < 3; i++ {
			if clip[i] < -clip.W() || clip[i] > clip.W() {
				t.Fatalf("corner %v clipped: %v", v.Pos, clip)
			}
		}
	}
}

func TestOrbitCamera_AdvanceWraps(t *testing.T) {
	cam := NewOrbitCamera(2.25, 60, 90)
	for i := 0; i < 5; i++ {
		cam.Advance()
	}
	if cam.Angle != 90 {
		t.Errorf("Expected angle 90 after 450 degrees, got %f", cam.Angle)
	}
}
