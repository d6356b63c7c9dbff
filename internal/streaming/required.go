package streaming

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"voxelgen/internal/world"
)

// RequiredChunks lists the chunks within a circle of radius viewDistance
// around center, scanning x then z.
func RequiredChunks(center world.ChunkCoord, viewDistance int) []world.ChunkCoord {
	r2 := viewDistance * viewDistance
	out := make([]world.ChunkCoord, 0, (2*viewDistance+1)*(2*viewDistance+1))
	for dx := -viewDistance; dx <= viewDistance; dx++ {
		for dz := -viewDistance; dz <= viewDistance; dz++ {
			if dx*dx+dz*dz <= r2 {
				out = append(out, center.Add(dx, dz))
			}
		}
	}
	return out
}

type scoredCoord struct {
	coord world.ChunkCoord
	score float32
}

// prioritize orders coords by how directly they lie ahead of the observer on
// the XZ plane, best first. The observer's own chunk scores highest.
func prioritize(coords []world.ChunkCoord, obs Observer, dim world.Dimensions) {
	fwd := mgl32.Vec2{obs.Forward.X(), obs.Forward.Z()}
	if fwd.Len() < 1e-6 {
		return
	}
	fwd = fwd.Normalize()
	pos := mgl32.Vec2{obs.Position.X(), obs.Position.Z()}

	scored := make([]scoredCoord, len(coords))
	for i, c := range coords {
		center := mgl32.Vec2{
			float32(c.X*dim.X + dim.X/2),
			float32(c.Z*dim.Z + dim.Z/2),
		}
		dir := center.Sub(pos)
		score := float32(2)
		if dir.Len() > 1e-6 {
			score = fwd.Dot(dir.Normalize())
		}
		scored[i] = scoredCoord{coord: c, score: score}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	for i := range scored {
		coords[i] = scored[i].coord
	}
}
