package meshing

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelgen/internal/noise"
)

// WaterSurface is a tessellated plane covering one chunk at the water level.
// Vertices are chunk-local; Phase holds a per-vertex ripple offset.
type WaterSurface struct {
	Vertices []mgl32.Vec3
	UVs      []mgl32.Vec2
	Indices  []uint32
	Phase    []float32

	world []mgl32.Vec2 // world XZ per vertex, for the wave function
}

// BuildWaterSurface builds a squares x squares grid spanning sizeX x sizeZ at
// height level. origin is the chunk's world-space corner; ripple may be nil.
func BuildWaterSurface(origin mgl32.Vec3, sizeX, sizeZ, squares, level int, ripple *noise.Field, rippleScale float64) *WaterSurface {
	if squares < 1 {
		squares = 1
	}
	row := squares + 1
	stepX := float32(sizeX) / float32(squares)
	stepZ := float32(sizeZ) / float32(squares)

	w := &WaterSurface{
		Vertices: make([]mgl32.Vec3, 0, row*row),
		UVs:      make([]mgl32.Vec2, 0, row*row),
		Indices:  make([]uint32, 0, squares*squares*6),
		Phase:    make([]float32, 0, row*row),
		world:    make([]mgl32.Vec2, 0, row*row),
	}
	for z := 0; z <= squares; z++ {
		for x := 0; x <= squares; x++ {
			lx, lz := float32(x)*stepX, float32(z)*stepZ
			w.Vertices = append(w.Vertices, mgl32.Vec3{lx, float32(level), lz})
			w.UVs = append(w.UVs, mgl32.Vec2{lx, lz})

			wx, wz := origin.X()+lx, origin.Z()+lz
			w.world = append(w.world, mgl32.Vec2{wx, wz})
			var phase float32
			if ripple != nil {
				phase = float32(ripple.Cellular2D(float64(wx)*rippleScale, float64(wz)*rippleScale) * 2 * math.Pi)
			}
			w.Phase = append(w.Phase, phase)
		}
	}
	for z := 0; z < squares; z++ {
		for x := 0; x < squares; x++ {
			v := uint32(z*row + x)
			r := uint32(row)
			w.Indices = append(w.Indices,
				v, v+r, v+1,
				v+1, v+r, v+r+1,
			)
		}
	}
	return w
}

// TriangleCount returns the number of triangles in the surface.
func (w *WaterSurface) TriangleCount() int { return len(w.Indices) / 3 }

// Heights writes the animated vertical offset of every vertex at time t
// (seconds) into dst, growing it as needed.
func (w *WaterSurface) Heights(dst []float32, t, frequency, amplitude float64) []float32 {
	if n := len(w.world); cap(dst) < n {
		dst = make([]float32, n)
	} else {
		dst = dst[:n]
	}
	ts := t * frequency
	for i, p := range w.world {
		x := float64(p.X()) * 0.3
		z := float64(p.Y()) * 0.3
		ph := float64(w.Phase[i])
		h := math.Sin(x+ts+ph)*0.3 +
			math.Sin(x*2+ts*1.1)*0.2 +
			math.Sin(z*0.8+ts*1.2+ph)*0.3 +
			math.Sin(z*1.6+ts*0.9)*0.15 +
			math.Sin((x+z)*0.5+ts*0.8)*0.2 +
			math.Sin((x-z)*0.7+ts*1.3)*0.1
		dst[i] = float32(h * amplitude)
	}
	return dst
}
