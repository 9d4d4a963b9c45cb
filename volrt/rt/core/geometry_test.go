package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCube_WindingFacesOutward(t *testing.T) {
	verts := UnitCube()
	require.Len(t, verts, CubeVertexCount)

	center := mgl32.Vec3{0.5, 0.5, 0.5}
	for i, tri := range Triangles(verts) {
		a, b, c := mgl32.Vec3(tri[0].Pos), mgl32.Vec3(tri[1].Pos), mgl32.Vec3(tri[2].Pos)
		n := b.Sub(a).Cross(c.Sub(a)).Normalize()

		assert.True(t, n.ApproxEqual(mgl32.Vec3(tri[0].Normal)), "triangle %d normal %v, winding gives %v", i, tri[0].Normal, n)

		centroid := a.Add(b).Add(c).Mul(1.0 / 3.0)
		assert.Greater(t, n.Dot(centroid.Sub(center)), float32(0), "triangle %d is wound inward", i)
	}
}

func TestCube_TexCoordIsPosition(t *testing.T) {
	for _, v := range Cube(2, 3, 4) {
		assert.Equal(t, v.Pos, v.TexCoord)
		assert.Contains(t, []float32{0, 2}, v.Pos[0])
		assert.Contains(t, []float32{0, 3}, v.Pos[1])
		assert.Contains(t, []float32{0, 4}, v.Pos[2])
	}
}

func TestPassState_Culling(t *testing.T) {
	assert.True(t, BackfacePass.Discards(true))
	assert.False(t, BackfacePass.Discards(false))
	assert.False(t, RaymarchPass.Discards(true))
	assert.True(t, RaymarchPass.Discards(false))
	assert.False(t, PresentPass.Discards(true))
	assert.False(t, PresentPass.Discards(false))

	assert.False(t, Covered(ExitClear))
	assert.True(t, Covered(mgl32.Vec4{0, 0, 0, 1}))
}
