package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelgen/internal/world"
)

// Mesh holds one chunk's renderable surface: shared vertex and UV streams
// plus one triangle index list per material. Positions are chunk-local.
type Mesh struct {
	Vertices  []mgl32.Vec3
	UVs       []mgl32.Vec2
	Submeshes [MaterialCount][]uint32
}

// Reset empties the mesh while keeping its buffers.
func (m *Mesh) Reset() {
	m.Vertices = m.Vertices[:0]
	m.UVs = m.UVs[:0]
	for i := range m.Submeshes {
		m.Submeshes[i] = m.Submeshes[i][:0]
	}
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleCount returns the number of triangles drawn with mat.
func (m *Mesh) TriangleCount(mat Material) int { return len(m.Submeshes[mat]) / 3 }

// TotalTriangles sums triangles over every material.
func (m *Mesh) TotalTriangles() int {
	n := 0
	for i := range m.Submeshes {
		n += len(m.Submeshes[i]) / 3
	}
	return n
}

// Unit cube corners.
var cubeCorners = [8]mgl32.Vec3{
	{0, 0, 0},
	{1, 0, 0},
	{1, 1, 0},
	{0, 1, 0},
	{0, 1, 1},
	{0, 0, 1},
	{1, 0, 1},
	{1, 1, 1},
}

// Corner indices per face, in world.BlockFace order.
var faceCorners = [world.FaceCount][4]int{
	world.FaceFront:  {0, 1, 2, 3},
	world.FaceLeft:   {5, 0, 3, 4},
	world.FaceRight:  {1, 6, 7, 2},
	world.FaceTop:    {3, 2, 7, 4},
	world.FaceBottom: {0, 5, 6, 1},
	world.FaceBack:   {5, 4, 7, 6},
}

var (
	faceUVs = [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	backUVs = [4]mgl32.Vec2{{1, 0}, {1, 1}, {0, 1}, {0, 0}}
)

// Generate builds the visible-face mesh of g.
func Generate(g *world.Grid) *Mesh {
	m := &Mesh{}
	GenerateInto(g, m)
	return m
}

// GenerateInto rebuilds m from g, reusing m's buffers. A face is emitted when
// the neighbour across it is not solid; cells outside the grid count as not
// solid.
func GenerateInto(g *world.Grid, m *Mesh) {
	m.Reset()
	dim := g.Dimensions()
	for x := 0; x < dim.X; x++ {
		for y := 0; y < dim.Y; y++ {
			for z := 0; z < dim.Z; z++ {
				b := g.Get(x, y, z)
				if b == world.BlockAir {
					continue
				}
				origin := mgl32.Vec3{float32(x), float32(y), float32(z)}
				for f := world.BlockFace(0); f < world.FaceCount; f++ {
					mat, ok := FaceMaterial(b, f)
					if !ok {
						continue
					}
					dx, dy, dz := f.Normal()
					if !alwaysEmit[b] && g.IsSolid(x+dx, y+dy, z+dz) {
						continue
					}
					m.addFace(origin, f, mat)
				}
			}
		}
	}
}

func (m *Mesh) addFace(origin mgl32.Vec3, f world.BlockFace, mat Material) {
	off := uint32(len(m.Vertices))
	uvs := &faceUVs
	if f == world.FaceBack {
		uvs = &backUVs
	}
	for i, c := range faceCorners[f] {
		m.Vertices = append(m.Vertices, origin.Add(cubeCorners[c]))
		m.UVs = append(m.UVs, uvs[i])
	}
	m.Submeshes[mat] = append(m.Submeshes[mat],
		off, off+2, off+1,
		off, off+3, off+2,
	)
}
