// Package noise provides the seeded continuous noise primitives used by terrain
// and cave generation. All values are mapped to [0,1].
package noise

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// Single-octave gradient noise; octave summation happens in FractalNoise*.
const (
	perlinAlpha  = 2
	perlinBeta   = 2
	perlinOctave = 1
)

// Field is a seeded noise source. It is immutable after New and safe for
// concurrent use.
type Field struct {
	seed   int64
	perlin *perlin.Perlin
}

// New builds the permutation tables for seed.
func New(seed int64) *Field {
	return &Field{
		seed:   seed,
		perlin: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctave, seed),
	}
}

// Seed returns the seed the field was built with.
func (f *Field) Seed() int64 { return f.seed }

// Noise2D samples single-octave gradient noise at (x, z).
func (f *Field) Noise2D(x, z float64) float64 {
	// raw 2D gradient noise lies within ±√½
	return clamp01(0.5 + f.perlin.Noise2D(x, z)*math.Sqrt2*0.5)
}

// FractalNoise2D sums octaves of Noise2D at (x+seed*0.01, z+seed*0.01)*scale
// and normalises by the total amplitude.
func (f *Field) FractalNoise2D(x, z, scale float64, octaves int, persistence, lacunarity float64) float64 {
	if octaves < 1 {
		return 0
	}
	off := float64(f.seed) * 0.01
	x = (x + off) * scale
	z = (z + off) * scale

	amplitude, frequency := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for range octaves {
		sum += f.Noise2D(x*frequency, z*frequency) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	return sum / norm
}

// FractalNoise3D is a pseudo-3D fBm: each octave averages the XY, YZ and XZ
// plane samples of Noise2D. Coordinates are offset by (seed*0.01, seed*0.02,
// seed*0.01) before scaling.
func (f *Field) FractalNoise3D(x, y, z, scale float64, octaves int, persistence, lacunarity float64) float64 {
	if octaves < 1 {
		return 0
	}
	s := float64(f.seed)
	x = (x + s*0.01) * scale
	y = (y + s*0.02) * scale
	z = (z + s*0.01) * scale

	amplitude, frequency := 1.0, 1.0
	sum, norm := 0.0, 0.0
	for range octaves {
		fx, fy, fz := x*frequency, y*frequency, z*frequency
		xy := f.Noise2D(fx, fy)
		yz := f.Noise2D(fy, fz)
		xz := f.Noise2D(fx, fz)
		sum += (xy + yz + xz) / 3 * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	return sum / norm
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
