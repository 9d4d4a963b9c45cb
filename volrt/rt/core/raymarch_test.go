package core

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constSampler mgl32.Vec4

func (c constSampler) Sample(p mgl32.Vec3) mgl32.Vec4 {
	return mgl32.Vec4(c)
}

// stripes alternates dense and empty slices along x.
type stripes struct{}

func (stripes) Sample(p mgl32.Vec3) mgl32.Vec4 {
	if int(p.X()*16)%2 == 0 {
		return mgl32.Vec4{0.9, 0.3, 0.1, 0.6}
	}
	return mgl32.Vec4{}
}

func TestMarch_EmptyVolumeIsClear(t *testing.T) {
	res := March(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}, constSampler{}, 1.0/50)
	assert.False(t, res.Skipped)
	assert.Equal(t, mgl32.Vec4{}, res.Color)
	assert.Zero(t, res.Alpha)
	assert.Greater(t, res.Traveled, res.Length)
}

func TestMarch_OpaqueVolumeTerminatesEarly(t *testing.T) {
	res := March(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}, constSampler{1, 1, 1, 1}, 0.25)
	assert.LessOrEqual(t, res.Steps, 5)
	assert.Greater(t, res.Alpha, float32(1))
	assert.Less(t, res.Traveled, res.Length)
}

func TestMarch_FirstStepWeights(t *testing.T) {
	// the segment is shorter than one step, so exactly one sample lands
	res, alphas := Trace(mgl32.Vec3{0.5, 0.5, 0.4}, mgl32.Vec3{0.5, 0.5, 0.45}, constSampler{0.2, 0.4, 0.6, 0.8}, 0.1)
	require.Len(t, alphas, 1)
	assert.InDelta(t, 0.08, alphas[0], 1e-6)

	want := mgl32.Vec4{0.2, 0.4, 0.6, 0.8}.Mul(0.08 * Brightness)
	for i := range want {
		assert.InDelta(t, want[i], res.Color[i], 1e-6)
	}
}

func TestMarch_AlphaIsMonotonic(t *testing.T) {
	rays := [][2]mgl32.Vec3{
		{{0, 0.5, 0.5}, {1, 0.5, 0.5}},
		{{0, 0, 0}, {1, 1, 1}},
		{{0.1, 0.9, 0}, {0.8, 0.2, 1}},
	}
	for _, step := range []float32{1.0 / 200, 1.0 / 50, 0.25} {
		for _, r := range rays {
			res, alphas := Trace(r[0], r[1], stripes{}, step)
			require.NotEmpty(t, alphas)
			assert.LessOrEqual(t, len(alphas), MaxSteps)
			assert.Equal(t, res.Steps, len(alphas))
			for i := 1; i < len(alphas); i++ {
				require.GreaterOrEqual(t, alphas[i], alphas[i-1], "step %f ray %v iteration %d", step, r, i)
			}
		}
	}
}

func TestMarch_StepCap(t *testing.T) {
	// 3 units at 1/200 would take 600 steps
	res := March(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{3, 0, 0}, constSampler{}, 1.0/200)
	assert.Equal(t, MaxSteps, res.Steps)
	assert.Less(t, res.Traveled, res.Length)
}

func TestMarch_DegenerateRayIsSkipped(t *testing.T) {
	p := mgl32.Vec3{0.3, 0.3, 0.3}
	res := March(p, p, constSampler{1, 1, 1, 1}, 1.0/50)
	assert.True(t, res.Skipped)
	assert.Zero(t, res.Steps)
	assert.Equal(t, mgl32.Vec4{}, res.Color)

	res = March(p, p.Add(mgl32.Vec3{MinRayLength / 2, 0, 0}), constSampler{1, 1, 1, 1}, 1.0/50)
	assert.True(t, res.Skipped)
}

func TestMarch_DirectionRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	point := func() mgl32.Vec3 {
		return mgl32.Vec3{rng.Float32(), rng.Float32(), rng.Float32()}
	}
	const step = 1.0 / 50

	for i := 0; i < 500; i++ {
		entry, exit := point(), point()
		dir, length, ok := RayDirection(entry, exit)
		if !ok {
			continue
		}
		end := entry.Add(dir.Mul(length))
		for k := range 3 {
			require.InDelta(t, exit[k], end[k], 1e-5, "entry %v exit %v reconstructed %v", entry, exit, end)
		}

		res := March(entry, exit, constSampler{}, step)
		assert.Greater(t, res.Traveled, res.Length)
		assert.LessOrEqual(t, res.Traveled, res.Length+step+1e-4)
	}
}

func TestSaturate(t *testing.T) {
	assert.Equal(t, mgl32.Vec4{0, 0.5, 1, 1}, Saturate(mgl32.Vec4{-1, 0.5, 1, 3}))
}
