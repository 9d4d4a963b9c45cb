package soft

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/volray/volrt/rt/core"
)

// screenVertex is a vertex after projection: pixel position plus the
// attributes needed for perspective-correct interpolation.
type screenVertex struct {
	X, Y float32
	InvW float32
	Attr mgl32.Vec3
}

// fragmentFunc receives every covered pixel with the interpolated
// tex_coord attribute.
type fragmentFunc func(x, y int, texCoord mgl32.Vec3)

// rasterize draws a triangle list with the given pass state. Pixel (0,0) is
// the top-left corner, like a GPU render target. Triangles reaching behind
// the eye are dropped; the proxy always sits in front of the camera.
func rasterize(frame core.Frame, state core.PassState, geom []core.CubeVertex, width, height int, frag fragmentFunc) {
	mvp := frame.MVP()

	for _, tri := range core.Triangles(geom) {
		var sv [3]screenVertex
		var ndc [3]mgl32.Vec2
		behind := false

		for i := range 3 {
			clip := mvp.Mul4x1(mgl32.Vec3(tri[i].Pos).Vec4(1))
			if clip.W() <= 0 {
				behind = true
				break
			}
			invW := 1 / clip.W()
			ndc[i] = mgl32.Vec2{clip.X() * invW, clip.Y() * invW}
			sv[i] = screenVertex{
				X:    (ndc[i].X() + 1) * 0.5 * float32(width),
				Y:    (1 - ndc[i].Y()) * 0.5 * float32(height), // Y flipped
				InvW: invW,
				Attr: tri[i].TexCoord,
			}
		}
		if behind {
			continue
		}

		// winding is judged in NDC, where counter-clockwise is front facing
		area := (ndc[1].X()-ndc[0].X())*(ndc[2].Y()-ndc[0].Y()) - (ndc[1].Y()-ndc[0].Y())*(ndc[2].X()-ndc[0].X())
		if area == 0 || state.Discards(area > 0) {
			continue
		}

		drawTriangle(sv, width, height, frag)
	}
}

func drawTriangle(sv [3]screenVertex, width, height int, frag fragmentFunc) {
	minX := int(math32.Max(0, math32.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math32.Min(float32(width-1), math32.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math32.Max(0, math32.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math32.Min(float32(height-1), math32.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	denom := (sv[1].Y-sv[2].Y)*(sv[0].X-sv[2].X) + (sv[2].X-sv[1].X)*(sv[0].Y-sv[2].Y)
	if denom == 0 {
		return
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float32(x)+0.5, float32(y)+0.5

			b0 := ((sv[1].Y-sv[2].Y)*(px-sv[2].X) + (sv[2].X-sv[1].X)*(py-sv[2].Y)) / denom
			b1 := ((sv[2].Y-sv[0].Y)*(px-sv[2].X) + (sv[0].X-sv[2].X)*(py-sv[2].Y)) / denom
			b2 := 1 - b0 - b1
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			// perspective-correct interpolation
			w0, w1, w2 := b0*sv[0].InvW, b1*sv[1].InvW, b2*sv[2].InvW
			sum := w0 + w1 + w2
			attr := sv[0].Attr.Mul(w0).Add(sv[1].Attr.Mul(w1)).Add(sv[2].Attr.Mul(w2)).Mul(1 / sum)

			frag(x, y, attr)
		}
	}
}

func min3(a, b, c float32) float32 {
	return math32.Min(a, math32.Min(b, c))
}

func max3(a, b, c float32) float32 {
	return math32.Max(a, math32.Max(b, c))
}
