package volume

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Paint writes one voxel. Primitives decide which voxels are covered and
// hand each one to a Paint.
type Paint func(f *Field, x, y, z int)

// Carve makes a voxel fully transparent and leaves its color alone.
func Carve(f *Field, x, y, z int) {
	f.SetAlpha(x, y, z, 0)
}

// Solid paints every voxel with the same color and density.
func Solid(c [4]uint8) Paint {
	return func(f *Field, x, y, z int) {
		f.Set(x, y, z, c)
	}
}

// Sphere paints every voxel whose integer coordinate lies strictly closer
// than radius to center.
func Sphere(f *Field, center mgl32.Vec3, radius float32, paint Paint) {
	if radius <= 0 {
		return
	}
	minB, maxB := f.clampBounds(
		[3]int{
			int(math.Floor(float64(center.X() - radius))),
			int(math.Floor(float64(center.Y() - radius))),
			int(math.Floor(float64(center.Z() - radius))),
		},
		[3]int{
			int(math.Ceil(float64(center.X() + radius))),
			int(math.Ceil(float64(center.Y() + radius))),
			int(math.Ceil(float64(center.Z() + radius))),
		},
	)

	r2 := radius * radius
	for z := minB[2]; z <= maxB[2]; z++ {
		for y := minB[1]; y <= maxB[1]; y++ {
			for x := minB[0]; x <= maxB[0]; x++ {
				d := mgl32.Vec3{float32(x), float32(y), float32(z)}.Sub(center)
				if d.LenSqr() < r2 {
					paint(f, x, y, z)
				}
			}
		}
	}
}

// Box paints the voxels strictly inside the open box (minB, maxB): a voxel
// at coordinate c is covered when minB < c < maxB on every axis.
func Box(f *Field, minB, maxB [3]int, paint Paint) {
	lo, hi := f.clampBounds(
		[3]int{minB[0] + 1, minB[1] + 1, minB[2] + 1},
		[3]int{maxB[0] - 1, maxB[1] - 1, maxB[2] - 1},
	)
	for z := lo[2]; z <= hi[2]; z++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for x := lo[0]; x <= hi[0]; x++ {
				paint(f, x, y, z)
			}
		}
	}
}

// Point paints a single voxel.
func Point(f *Field, x, y, z int, paint Paint) {
	if f.In(x, y, z) {
		paint(f, x, y, z)
	}
}

func (f *Field) clampBounds(lo, hi [3]int) ([3]int, [3]int) {
	for i := 0; i < 3; i++ {
		if lo[i] < 0 {
			lo[i] = 0
		}
		if hi[i] > f.N-1 {
			hi[i] = f.N - 1
		}
	}
	return lo, hi
}
