package volume

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Sample returns the trilinear filtered voxel at normalized coordinate p,
// channels scaled to [0,1]. Texel centers sit at (i+0.5)/N. Neighbours
// outside the grid contribute the border value (zero), so sampling outside
// [0,1]^3 fades to nothing instead of wrapping or repeating. This is
// clamp-to-border addressing with linear filtering.
func (f *Field) Sample(p mgl32.Vec3) mgl32.Vec4 {
	n := float32(f.N)
	ux := p.X()*n - 0.5
	uy := p.Y()*n - 0.5
	uz := p.Z()*n - 0.5

	x0f, y0f, z0f := math32.Floor(ux), math32.Floor(uy), math32.Floor(uz)
	fx, fy, fz := ux-x0f, uy-y0f, uz-z0f
	x0, y0, z0 := int(x0f), int(y0f), int(z0f)

	var out mgl32.Vec4
	for dz := 0; dz < 2; dz++ {
		wz := 1 - fz
		if dz == 1 {
			wz = fz
		}
		for dy := 0; dy < 2; dy++ {
			wy := 1 - fy
			if dy == 1 {
				wy = fy
			}
			for dx := 0; dx < 2; dx++ {
				wx := 1 - fx
				if dx == 1 {
					wx = fx
				}
				w := wx * wy * wz
				if w == 0 {
					continue
				}
				v := f.At(x0+dx, y0+dy, z0+dz)
				out[0] += w * float32(v[R])
				out[1] += w * float32(v[G])
				out[2] += w * float32(v[B])
				out[3] += w * float32(v[A])
			}
		}
	}
	return out.Mul(1.0 / 255.0)
}

// Uniform is a constant-valued sampler over [0,1]^3 with zero border,
// used where a procedural field would only get in the way.
type Uniform struct {
	Value mgl32.Vec4
}

func (u Uniform) Sample(p mgl32.Vec3) mgl32.Vec4 {
	if p.X() < 0 || p.Y() < 0 || p.Z() < 0 || p.X() > 1 || p.Y() > 1 || p.Z() > 1 {
		return mgl32.Vec4{}
	}
	return u.Value
}
