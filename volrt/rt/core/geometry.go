package core

import "github.com/go-gl/mathgl/mgl32"

// CubeVertex matches the WGSL VertexInput of the backface and raymarch
// shaders: position, face normal, and the object-space coordinate used as
// ray entry/exit point.
type CubeVertex struct {
	Pos      [3]float32
	Normal   [3]float32
	TexCoord [3]float32
}

// CubeVertexCount is the number of vertices Cube returns.
const CubeVertexCount = 36

type cubeFace struct {
	normal mgl32.Vec3
	quad   [4]mgl32.Vec3
}

// Cube returns the six faces of the box (0,0,0)-(x,y,z) as a triangle list.
// Every face is counter-clockwise seen from outside the box, so "front
// facing" means "facing the viewer from outside".
func Cube(x, y, z float32) []CubeVertex {
	faces := [6]cubeFace{
		{ // back
			normal: mgl32.Vec3{0, 0, -1},
			quad:   [4]mgl32.Vec3{{0, 0, 0}, {0, y, 0}, {x, y, 0}, {x, 0, 0}},
		},
		{ // front
			normal: mgl32.Vec3{0, 0, 1},
			quad:   [4]mgl32.Vec3{{0, 0, z}, {x, 0, z}, {x, y, z}, {0, y, z}},
		},
		{ // top
			normal: mgl32.Vec3{0, 1, 0},
			quad:   [4]mgl32.Vec3{{0, y, 0}, {0, y, z}, {x, y, z}, {x, y, 0}},
		},
		{ // bottom
			normal: mgl32.Vec3{0, -1, 0},
			quad:   [4]mgl32.Vec3{{0, 0, 0}, {x, 0, 0}, {x, 0, z}, {0, 0, z}},
		},
		{ // left
			normal: mgl32.Vec3{-1, 0, 0},
			quad:   [4]mgl32.Vec3{{0, 0, 0}, {0, 0, z}, {0, y, z}, {0, y, 0}},
		},
		{ // right
			normal: mgl32.Vec3{1, 0, 0},
			quad:   [4]mgl32.Vec3{{x, 0, 0}, {x, y, 0}, {x, y, z}, {x, 0, z}},
		},
	}

	vertices := make([]CubeVertex, 0, CubeVertexCount)
	for _, f := range faces {
		for _, i := range [6]int{0, 1, 2, 0, 2, 3} {
			p := f.quad[i]
			vertices = append(vertices, CubeVertex{
				Pos:      p,
				Normal:   f.normal,
				TexCoord: p,
			})
		}
	}
	return vertices
}

// UnitCube is Cube(1, 1, 1), the proxy matching [0,1]^3 volume coordinates.
func UnitCube() []CubeVertex {
	return Cube(1, 1, 1)
}

// Triangles groups a triangle list into triangles.
func Triangles(vertices []CubeVertex) [][3]CubeVertex {
	tris := make([][3]CubeVertex, 0, len(vertices)/3)
	for i := 0; i+2 < len(vertices); i += 3 {
		tris = append(tris, [3]CubeVertex{vertices[i], vertices[i+1], vertices[i+2]})
	}
	return tris
}
