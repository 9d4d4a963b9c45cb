package volume

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Upper is the near-maximum channel value of the 128^3 reference grid.
const Upper = 250

// UpperFor is the near-maximum channel value for an n^3 grid: 2n-6
// truncated to a byte.
func UpperFor(n int) uint8 {
	return uint8(2*n - 6)
}

// ColorFunc computes a voxel value from its grid coordinate.
type ColorFunc func(x, y, z int) [4]uint8

// Op is one layer of a Recipe. Ops only depend on voxel coordinates, never
// on the values written by earlier ops, so applying them op by op gives the
// same field as applying all of them voxel by voxel.
type Op interface {
	Apply(f *Field)
}

// Recipe is an ordered list of ops. Overlaps resolve by last write wins.
type Recipe []Op

// Fill sets every voxel.
type Fill struct {
	Color ColorFunc
}

func (o Fill) Apply(f *Field) {
	for z := 0; z < f.N; z++ {
		for y := 0; y < f.N; y++ {
			for x := 0; x < f.N; x++ {
				f.Set(x, y, z, o.Color(x, y, z))
			}
		}
	}
}

// Cavity zeroes the density of every voxel strictly inside the sphere.
// Color channels are kept.
type Cavity struct {
	Center mgl32.Vec3
	Radius float32
}

func (o Cavity) Apply(f *Field) {
	Sphere(f, o.Center, o.Radius, Carve)
}

// Inset overwrites all four channels of the voxels strictly inside the open
// box (Min, Max).
type Inset struct {
	Min, Max [3]int
	Color    ColorFunc
}

func (o Inset) Apply(f *Field) {
	Box(f, o.Min, o.Max, func(f *Field, x, y, z int) {
		f.Set(x, y, z, o.Color(x, y, z))
	})
}

// GenerateWith allocates an n^3 field and applies r in order.
func GenerateWith(n int, r Recipe) (*Field, error) {
	f, err := New(n)
	if err != nil {
		return nil, err
	}
	for _, op := range r {
		op.Apply(f)
	}
	return f, nil
}

// Generate builds the reference test volume.
func Generate(n int) (*Field, error) {
	return GenerateWith(n, Reference(n))
}

// Reference is the tutorial volume: a gradient block with two hollows, three
// solid slabs and a final hollow cut through the first slab. Positions are
// given for a 128 grid and scaled to n; slabs vanish below n = 32.
//
// Order: base fill, off-center cavity, centered cavity, slabs 1-3, corner
// cavity.
func Reference(n int) Recipe {
	s := float32(n) / 128
	sc := func(v int) int { return int(float32(v) * s) }
	upper := UpperFor(n)
	slab := func(r, g uint8) ColorFunc {
		return func(x, y, z int) [4]uint8 {
			return [4]uint8{r, g, uint8(y % int(upper/2)), upper}
		}
	}
	half := float32(n) / 2

	return Recipe{
		Fill{Color: func(x, y, z int) [4]uint8 {
			return [4]uint8{uint8(z), uint8(y), upper, upper - 20}
		}},
		Cavity{Center: mgl32.Vec3{float32(n - sc(20)), float32(n - sc(30)), float32(n - sc(30))}, Radius: 42 * s},
		Cavity{Center: mgl32.Vec3{half, half, half}, Radius: 24 * s},
		Inset{Min: [3]int{sc(20), 0, sc(10)}, Max: [3]int{sc(40), n, sc(50)}, Color: slab(upper/2, upper)},
		Inset{Min: [3]int{sc(50), 0, sc(10)}, Max: [3]int{sc(70), n, sc(50)}, Color: slab(upper, upper)},
		Inset{Min: [3]int{sc(80), 0, sc(10)}, Max: [3]int{sc(100), n, sc(50)}, Color: slab(upper, upper/3)},
		Cavity{Center: mgl32.Vec3{float32(sc(24)), float32(sc(24)), float32(sc(24))}, Radius: 40 * s},
	}
}
