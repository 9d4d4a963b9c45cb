package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MaxSteps bounds the marching loop of a single ray.
	MaxSteps = 450
	// Brightness scales every contribution before it is accumulated.
	Brightness = 3.0
	// MinRayLength is the shortest segment that is still marched; shorter
	// rays (grazing hits, degenerate pixels) produce nothing.
	MinRayLength = 1e-4
)

// Sampler is a filtered read of the volume at a normalized coordinate.
type Sampler interface {
	Sample(p mgl32.Vec3) mgl32.Vec4
}

// Sample is the outcome of marching one ray.
type Sample struct {
	Color    mgl32.Vec4 // accumulated rgb, alpha in W
	Alpha    float32
	Steps    int
	Length   float32
	Traveled float32
	Skipped  bool
}

// RayDirection returns the unit direction and length of entry->exit, and
// false for segments shorter than MinRayLength.
func RayDirection(entry, exit mgl32.Vec3) (mgl32.Vec3, float32, bool) {
	d := exit.Sub(entry)
	l := d.Len()
	if l < MinRayLength {
		return mgl32.Vec3{}, l, false
	}
	return d.Mul(1 / l), l, true
}

// March composites samples front to back from entry towards exit. Each
// step reads the volume, takes alpha*step as the sample opacity and adds
// the sample, scaled by that opacity and Brightness, weighted by the
// transparency left after the samples in front of it. The loop ends after
// the ray left the segment, after accumulated alpha exceeds 1, or after
// MaxSteps.
func March(entry, exit mgl32.Vec3, s Sampler, step float32) Sample {
	return march(entry, exit, s, step, nil)
}

// Trace is March that also records the accumulated alpha after every step.
func Trace(entry, exit mgl32.Vec3, s Sampler, step float32) (Sample, []float32) {
	var alphas []float32
	res := march(entry, exit, s, step, func(alpha float32) {
		alphas = append(alphas, alpha)
	})
	return res, alphas
}

func march(entry, exit mgl32.Vec3, s Sampler, step float32, record func(float32)) Sample {
	dir, length, ok := RayDirection(entry, exit)
	res := Sample{Length: length}
	if !ok || step <= 0 {
		res.Skipped = true
		return res
	}

	delta := dir.Mul(step)
	deltaLen := delta.Len()
	pos := entry
	var acc mgl32.Vec4
	var alpha float32

	for i := 0; i < MaxSteps; i++ {
		v := s.Sample(pos)
		a := v.W() * step
		acc = acc.Add(v.Mul((1 - alpha) * a * Brightness))
		alpha += a

		pos = pos.Add(delta)
		res.Traveled += deltaLen
		res.Steps++
		if record != nil {
			record(alpha)
		}

		if res.Traveled > length || alpha > 1 {
			break
		}
	}

	// the output is the raw accumulated color, alpha channel included
	res.Alpha = alpha
	res.Color = acc
	return res
}

// Saturate clamps every channel to [0,1], the way a unorm or presented
// target would store it.
func Saturate(c mgl32.Vec4) mgl32.Vec4 {
	for i := range c {
		c[i] = math32.Max(0, math32.Min(1, c[i]))
	}
	return c
}
