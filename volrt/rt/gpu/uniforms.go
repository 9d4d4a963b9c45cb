package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/volray/volrt/rt/core"
)

const (
	VolumeParamsSize  = 96
	PresentParamsSize = 64
)

// clipRemap moves OpenGL clip depth [-w,w] onto the [0,w] range WebGPU
// clips against. X and Y are untouched.
var clipRemap = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// ClipMatrix is the model-view-projection used by the proxy passes.
func ClipMatrix(frame core.Frame) mgl32.Mat4 {
	return clipRemap.Mul4(frame.MVP())
}

// PackVolumeParams lays out the Params uniform shared by the backface and
// raymarch shaders.
func PackVolumeParams(mvp mgl32.Mat4, step float32, volumeSize int) []byte {
	// struct Params {
	//   mvp: mat4x4<f32>;      -- 0
	//   step_size: f32;        -- 64
	//   max_steps: u32;        -- 68
	//   brightness: f32;       -- 72
	//   volume_size: f32;      -- 76
	//   min_ray_length: f32;   -- 80
	//   _pad: 3 x f32          -- 84
	// } -> 96 bytes
	buf := make([]byte, VolumeParamsSize)
	putMat4(buf[0:], mvp)
	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(step))
	binary.LittleEndian.PutUint32(buf[68:], uint32(core.MaxSteps))
	binary.LittleEndian.PutUint32(buf[72:], math.Float32bits(core.Brightness))
	binary.LittleEndian.PutUint32(buf[76:], math.Float32bits(float32(volumeSize)))
	binary.LittleEndian.PutUint32(buf[80:], math.Float32bits(core.MinRayLength))
	return buf
}

func PackPresentParams(proj mgl32.Mat4) []byte {
	buf := make([]byte, PresentParamsSize)
	putMat4(buf, proj)
	return buf
}

func putMat4(buf []byte, m mgl32.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
