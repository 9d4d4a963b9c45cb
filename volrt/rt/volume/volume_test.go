package volume

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsNonPowerOfTwo(t *testing.T) {
	for _, n := range []int{0, 1, 3, 100, 129} {
		_, err := New(n)
		assert.ErrorIs(t, err, ErrNotPowerOfTwo, "n=%d", n)
	}
	f, err := New(8)
	require.NoError(t, err)
	assert.Len(t, f.Data, 8*8*8*4)
}

func TestField_IndexLayout(t *testing.T) {
	f, err := New(4)
	require.NoError(t, err)

	assert.Equal(t, 0, f.Index(0, 0, 0))
	assert.Equal(t, 4, f.Index(1, 0, 0))
	assert.Equal(t, 4*4, f.Index(0, 1, 0))
	assert.Equal(t, 4*16, f.Index(0, 0, 1))

	f.Set(1, 2, 3, [4]uint8{10, 20, 30, 40})
	i := 4 * (1 + 2*4 + 3*16)
	assert.Equal(t, []uint8{10, 20, 30, 40}, f.Data[i:i+4])
	assert.Equal(t, [4]uint8{10, 20, 30, 40}, f.At(1, 2, 3))

	// out of range reads return the border, writes are dropped
	assert.Equal(t, [4]uint8{}, f.At(-1, 0, 0))
	f.Set(4, 0, 0, [4]uint8{1, 1, 1, 1})
	assert.Equal(t, [4]uint8{}, f.At(4, 0, 0))
}

// tinyRecipe on an 8^3 grid:
//
//	base fill (1,2,3,200)
//	cavity  center (2,2,2) r 1.5  -> 19 voxels
//	inset   (3,3,3)-(6,6,6)       -> x,y,z in {4,5}
//	cavity  center (4,4,4) r 1    -> only (4,4,4)
var tinyRecipe = Recipe{
	Fill{Color: func(x, y, z int) [4]uint8 { return [4]uint8{1, 2, 3, 200} }},
	Cavity{Center: mgl32.Vec3{2, 2, 2}, Radius: 1.5},
	Inset{Min: [3]int{3, 3, 3}, Max: [3]int{6, 6, 6}, Color: func(x, y, z int) [4]uint8 { return [4]uint8{9, 9, 9, 255} }},
	Cavity{Center: mgl32.Vec3{4, 4, 4}, Radius: 1},
}

func tinyExpected(x, y, z int) [4]uint8 {
	v := [4]uint8{1, 2, 3, 200}
	dx, dy, dz := x-2, y-2, z-2
	if 4*(dx*dx+dy*dy+dz*dz) < 9 {
		v[A] = 0
	}
	if x >= 4 && x <= 5 && y >= 4 && y <= 5 && z >= 4 && z <= 5 {
		v = [4]uint8{9, 9, 9, 255}
	}
	if x == 4 && y == 4 && z == 4 {
		v[A] = 0
	}
	return v
}

func TestGenerateWith_LayeredOverrideOrder(t *testing.T) {
	f, err := GenerateWith(8, tinyRecipe)
	require.NoError(t, err)

	for z := 0; z < 8; z++ {
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				require.Equal(t, tinyExpected(x, y, z), f.At(x, y, z), "voxel (%d,%d,%d)", x, y, z)
			}
		}
	}

	st := f.Stats()
	assert.Equal(t, 512, st.Voxels)
	assert.Equal(t, 19+1, st.Transparent)
	assert.Equal(t, 7, st.Solid)
}

func TestGenerateWith_OrderIsSignificant(t *testing.T) {
	swapped := Recipe{tinyRecipe[0], tinyRecipe[1], tinyRecipe[3], tinyRecipe[2]}
	f, err := GenerateWith(8, swapped)
	require.NoError(t, err)

	// the inset now wins over the last cavity
	assert.Equal(t, [4]uint8{9, 9, 9, 255}, f.At(4, 4, 4))
}

func TestGenerate_Reference(t *testing.T) {
	f, err := Generate(128)
	require.NoError(t, err)

	tests := []struct {
		name string
		x    int
		y    int
		z    int
		want [4]uint8
	}{
		{"base fill corner", 0, 0, 0, [4]uint8{0, 0, Upper, Upper - 20}},
		{"base fill far corner", 127, 127, 127, [4]uint8{127, 127, Upper, Upper - 20}},
		{"centered cavity keeps color", 64, 64, 64, [4]uint8{64, 64, Upper, 0}},
		{"off-center cavity", 108, 98, 98, [4]uint8{98, 98, Upper, 0}},
		{"first slab", 30, 64, 30, [4]uint8{Upper / 2, Upper, 64, Upper}},
		{"second slab", 60, 100, 30, [4]uint8{Upper, Upper, 100 % (Upper / 2), Upper}},
		{"third slab", 90, 1, 11, [4]uint8{Upper, Upper / 3, 1, Upper}},
		{"slab bounds are exclusive", 40, 64, 30, [4]uint8{30, 64, Upper, Upper - 20}},
		{"last cavity cuts the first slab", 24, 24, 24, [4]uint8{Upper / 2, Upper, 24, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.At(tt.x, tt.y, tt.z))
		})
	}

	st := f.Stats()
	assert.Greater(t, st.Transparent, 0)
	assert.Greater(t, st.Solid, 0)
}

func TestGenerate_UpperScalesWithSize(t *testing.T) {
	assert.Equal(t, uint8(Upper), UpperFor(128))
	assert.Equal(t, uint8(58), UpperFor(32))
	// 2*256-6 = 506 wraps like a byte store
	assert.Equal(t, uint8(250), UpperFor(256))

	f, err := Generate(32)
	require.NoError(t, err)
	assert.Equal(t, [4]uint8{0, 0, 58, 38}, f.At(0, 0, 0))
	// x in (12,17) is the second slab at n=32
	assert.Equal(t, [4]uint8{58, 58, 31 % 29, 58}, f.At(15, 31, 5))
}

func TestSample_BorderAndTrilinear(t *testing.T) {
	f, err := GenerateWith(8, Recipe{Fill{Color: func(x, y, z int) [4]uint8 { return [4]uint8{255, 0, 0, 255} }}})
	require.NoError(t, err)

	center := f.Sample(mgl32.Vec3{0.5, 0.5, 0.5})
	assert.InDelta(t, 1.0, center.W(), 1e-6)
	assert.InDelta(t, 1.0, center.X(), 1e-6)

	// on a face half of the filter footprint reads the border
	face := f.Sample(mgl32.Vec3{0, 0.5, 0.5})
	assert.InDelta(t, 0.5, face.W(), 1e-6)

	// on a corner only one of eight taps is inside
	corner := f.Sample(mgl32.Vec3{0, 0, 0})
	assert.InDelta(t, 0.125, corner.W(), 1e-6)

	assert.Equal(t, mgl32.Vec4{}, f.Sample(mgl32.Vec3{-0.5, 0.5, 0.5}))
	assert.Equal(t, mgl32.Vec4{}, f.Sample(mgl32.Vec3{0.5, 1.5, 0.5}))
}

func TestSample_TexelCenterIsExact(t *testing.T) {
	f, err := New(4)
	require.NoError(t, err)
	f.Set(1, 2, 3, [4]uint8{51, 102, 153, 204})

	v := f.Sample(mgl32.Vec3{1.5 / 4, 2.5 / 4, 3.5 / 4})
	assert.InDelta(t, 0.2, v.X(), 1e-6)
	assert.InDelta(t, 0.4, v.Y(), 1e-6)
	assert.InDelta(t, 0.6, v.Z(), 1e-6)
	assert.InDelta(t, 0.8, v.W(), 1e-6)
}

func TestUniform(t *testing.T) {
	u := Uniform{Value: mgl32.Vec4{1, 1, 1, 1}}
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, u.Sample(mgl32.Vec3{0.2, 0.3, 0.4}))
	assert.Equal(t, mgl32.Vec4{}, u.Sample(mgl32.Vec3{1.2, 0.3, 0.4}))
}
