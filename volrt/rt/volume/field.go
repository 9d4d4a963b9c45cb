package volume

import (
	"errors"
	"fmt"
)

// ErrNotPowerOfTwo is returned for grid sizes the 3D texture addressing
// cannot represent.
var ErrNotPowerOfTwo = errors.New("volume size is not a power of two")

// Channel offsets inside a voxel.
const (
	R = iota
	G
	B
	A
)

// Field is a cubic grid of RGBA voxels, one byte per channel, alpha being
// the density. Voxels are stored x fastest, then y, then z, which is the
// row/image layout of a 3D texture upload (bytesPerRow = 4N,
// rowsPerImage = N).
type Field struct {
	N    int
	Data []uint8
}

// New allocates a zeroed N*N*N field.
func New(n int) (*Field, error) {
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n)
	}
	return &Field{
		N:    n,
		Data: make([]uint8, n*n*n*4),
	}, nil
}

func (f *Field) Index(x, y, z int) int {
	return 4 * (x + y*f.N + z*f.N*f.N)
}

func (f *Field) In(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < f.N && y < f.N && z < f.N
}

// At returns the voxel at (x,y,z). Coordinates outside the grid read as the
// border value, all zero.
func (f *Field) At(x, y, z int) [4]uint8 {
	if !f.In(x, y, z) {
		return [4]uint8{}
	}
	i := f.Index(x, y, z)
	return [4]uint8{f.Data[i+R], f.Data[i+G], f.Data[i+B], f.Data[i+A]}
}

func (f *Field) Set(x, y, z int, v [4]uint8) {
	if !f.In(x, y, z) {
		return
	}
	i := f.Index(x, y, z)
	copy(f.Data[i:i+4], v[:])
}

func (f *Field) SetAlpha(x, y, z int, a uint8) {
	if !f.In(x, y, z) {
		return
	}
	f.Data[f.Index(x, y, z)+A] = a
}

// Bytes returns the upload view of the field. Callers must not modify it.
func (f *Field) Bytes() []byte {
	return f.Data
}

// SolidAlpha is the density from which a voxel counts as solid in Stats.
const SolidAlpha = 250

type Stats struct {
	Voxels      int
	Transparent int
	Solid       int
}

func (f *Field) Stats() Stats {
	s := Stats{Voxels: f.N * f.N * f.N}
	for i := A; i < len(f.Data); i += 4 {
		switch a := f.Data[i]; {
		case a == 0:
			s.Transparent++
		case a >= SolidAlpha:
			s.Solid++
		}
	}
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("%d voxels, %d transparent, %d solid", s.Voxels, s.Transparent, s.Solid)
}
