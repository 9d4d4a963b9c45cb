package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Frame is the camera state of one rendered frame. Both passes of a frame
// draw the proxy with the same Frame.
type Frame struct {
	Model  mgl32.Mat4
	View   mgl32.Mat4
	Proj   mgl32.Mat4
	Width  int
	Height int
}

func (f Frame) MVP() mgl32.Mat4 {
	return f.Proj.Mul4(f.View).Mul4(f.Model)
}

func (f Frame) Aspect() float32 {
	if f.Height == 0 {
		return 1
	}
	return float32(f.Width) / float32(f.Height)
}

// OrbitCamera spins the volume in front of a fixed eye: the cube is centred
// on the origin, rotated by Angle around Axis, and pushed Distance units
// down -Z.
type OrbitCamera struct {
	Angle      float32 // degrees
	Speed      float32 // degrees per frame
	Axis       mgl32.Vec3
	Distance   float32
	FovDegrees float32
	Near       float32
	Far        float32
}

func NewOrbitCamera(distance, fovDegrees, speed float32) *OrbitCamera {
	return &OrbitCamera{
		Speed:      speed,
		Axis:       mgl32.Vec3{0, 1, 1},
		Distance:   distance,
		FovDegrees: fovDegrees,
		Near:       0.01,
		Far:        400,
	}
}

// Advance moves the camera one frame along the orbit.
func (c *OrbitCamera) Advance() {
	c.Angle += c.Speed
	for c.Angle >= 360 {
		c.Angle -= 360
	}
}

func (c *OrbitCamera) Model() mgl32.Mat4 {
	axis := c.Axis
	if axis.Len() == 0 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	return mgl32.HomogRotate3D(mgl32.DegToRad(c.Angle), axis.Normalize()).
		Mul4(mgl32.Translate3D(-0.5, -0.5, -0.5))
}

func (c *OrbitCamera) View() mgl32.Mat4 {
	return mgl32.Translate3D(0, 0, -c.Distance)
}

func (c *OrbitCamera) Projection(width, height int) mgl32.Mat4 {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / float32(height)
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovDegrees), aspect, c.Near, c.Far)
}

func (c *OrbitCamera) Frame(width, height int) Frame {
	return Frame{
		Model:  c.Model(),
		View:   c.View(),
		Proj:   c.Projection(width, height),
		Width:  width,
		Height: height,
	}
}
