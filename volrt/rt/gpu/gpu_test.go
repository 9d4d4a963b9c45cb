package gpu

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/mrjoshuak/go-openexr/half"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/volray/volrt/rt/core"
)

func readF32(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestPackVolumeParams_Layout(t *testing.T) {
	mvp := mgl32.Translate3D(1, 2, 3)
	buf := PackVolumeParams(mvp, 0.125, 128)
	require.Len(t, buf, VolumeParamsSize)

	for i := 0; i < 16; i++ {
		assert.Equal(t, mvp[i], readF32(buf, i*4))
	}
	assert.Equal(t, float32(0.125), readF32(buf, 64))
	assert.Equal(t, uint32(core.MaxSteps), binary.LittleEndian.Uint32(buf[68:]))
	assert.Equal(t, float32(core.Brightness), readF32(buf, 72))
	assert.Equal(t, float32(128), readF32(buf, 76))
	assert.Equal(t, float32(core.MinRayLength), readF32(buf, 80))
	assert.Equal(t, make([]byte, 12), buf[84:])
}

func TestClipMatrix_DepthRange(t *testing.T) {
	cam := core.NewOrbitCamera(2.25, 60, 0.25)
	frame := cam.Frame(640, 480)
	clip := ClipMatrix(frame)

	for _, v := range core.UnitCube() {
		gl := frame.MVP().Mul4x1(mgl32.Vec3(v.Pos).Vec4(1))
		wg := clip.Mul4x1(mgl32.Vec3(v.Pos).Vec4(1))

		assert.InDelta(t, gl.X(), wg.X(), 1e-6)
		assert.InDelta(t, gl.Y(), wg.Y(), 1e-6)
		assert.InDelta(t, gl.W(), wg.W(), 1e-6)
		assert.InDelta(t, (gl.Z()+gl.W())/2, wg.Z(), 1e-5)
		assert.GreaterOrEqual(t, wg.Z(), float32(0))
		assert.LessOrEqual(t, wg.Z(), wg.W())
	}
}

func TestCullModeFromPassState(t *testing.T) {
	assert.Equal(t, wgpu.CullModeFront, cullMode(core.BackfacePass.Cull))
	assert.Equal(t, wgpu.CullModeBack, cullMode(core.RaymarchPass.Cull))
	assert.Equal(t, wgpu.CullModeNone, cullMode(core.PresentPass.Cull))
	assert.Equal(t, wgpu.Color{}, clearColor(core.BackfacePass))
}

func TestCubeVertexLayout(t *testing.T) {
	var v core.CubeVertex
	assert.Equal(t, uint64(36), cubeVertexLayout.ArrayStride)
	assert.Equal(t, uint64(unsafe.Offsetof(v.Normal)), cubeVertexLayout.Attributes[1].Offset)
	assert.Equal(t, uint64(unsafe.Offsetof(v.TexCoord)), cubeVertexLayout.Attributes[2].Offset)

	b := vertexBytes(core.UnitCube())
	assert.Len(t, b, core.CubeVertexCount*36)
	assert.Len(t, quadBytes(), 6*8)
}

func TestTextVertexLayout(t *testing.T) {
	var v core.TextVertex
	assert.Equal(t, uint64(unsafe.Sizeof(v)), textVertexLayout.ArrayStride)
	assert.Equal(t, uint64(unsafe.Offsetof(v.UV)), textVertexLayout.Attributes[1].Offset)
	assert.Equal(t, uint64(unsafe.Offsetof(v.Color)), textVertexLayout.Attributes[2].Offset)
}

func TestUnpackRGBA16F_PaddedRows(t *testing.T) {
	const w, h = 3, 2
	bpr := int(alignedBytesPerRow(w, targetBytesPerPixel))
	require.Equal(t, 256, bpr)

	data := make([]byte, bpr*h)
	want := make([]float32, 0, w*h*4)
	for y := 0; y < h; y++ {
		row := make([]float32, w*4)
		for i := range row {
			row[i] = float32(y*100+i) / 8
		}
		half.ConvertFloat32ToBytes(data[y*bpr:], row)
		want = append(want, row...)
	}
	// garbage in the padding must not leak into the image
	data[w*targetBytesPerPixel] = 0xff

	img, err := UnpackRGBA16F(data, w, h, bpr)
	require.NoError(t, err)
	assert.Equal(t, want, img.Pix)

	_, err = UnpackRGBA16F(data[:bpr], w, h, bpr)
	assert.Error(t, err)
}

func TestAlignedBytesPerRow(t *testing.T) {
	assert.Equal(t, uint32(256), alignedBytesPerRow(1, 8))
	assert.Equal(t, uint32(256), alignedBytesPerRow(32, 8))
	assert.Equal(t, uint32(512), alignedBytesPerRow(33, 8))
	assert.Equal(t, uint32(6400), alignedBytesPerRow(800, 8))
}
