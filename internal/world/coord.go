package world

import (
	"fmt"
	"math"
)

// ChunkCoord addresses a chunk on the horizontal plane.
type ChunkCoord struct {
	X, Z int
}

func (c ChunkCoord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Z) }

// Add offsets the coordinate by whole chunks.
func (c ChunkCoord) Add(dx, dz int) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Z: c.Z + dz}
}

// Origin returns the world-space voxel position of the chunk's (0,0,0) corner.
func (c ChunkCoord) Origin(dim Dimensions) (x, z int) {
	return c.X * dim.X, c.Z * dim.Z
}

// DistSqr is the squared distance in chunks.
func (c ChunkCoord) DistSqr(o ChunkCoord) int {
	dx, dz := c.X-o.X, c.Z-o.Z
	return dx*dx + dz*dz
}

// ChunkCoordAt returns the chunk containing a world position.
func ChunkCoordAt(worldX, worldZ float64, dim Dimensions) ChunkCoord {
	return ChunkCoord{
		X: int(math.Floor(worldX / float64(dim.X))),
		Z: int(math.Floor(worldZ / float64(dim.Z))),
	}
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ChunkOf returns the chunk containing an integer voxel column and the local
// offsets inside it.
func ChunkOf(x, z int, dim Dimensions) (ChunkCoord, int, int) {
	c := ChunkCoord{X: floorDiv(x, dim.X), Z: floorDiv(z, dim.Z)}
	return c, x - c.X*dim.X, z - c.Z*dim.Z
}
