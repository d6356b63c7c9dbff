package streaming

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelgen/internal/meshing"
	"voxelgen/internal/terrain"
	"voxelgen/internal/world"
)

// Stage tracks how far a chunk has progressed through the build pipeline.
type Stage uint8

const (
	StageEmpty Stage = iota
	StageTerrain
	StagePortal
	StageMeshed
)

func (s Stage) String() string {
	switch s {
	case StageEmpty:
		return "empty"
	case StageTerrain:
		return "terrain"
	case StagePortal:
		return "portal"
	case StageMeshed:
		return "meshed"
	}
	return "unknown"
}

// Chunk is one streamed column of the world. Chunk objects are pooled and
// reused; everything they hold is only valid while the chunk is active.
type Chunk struct {
	Coord  world.ChunkCoord
	Grid   *world.Grid
	Mesh   *meshing.Mesh
	Water  *meshing.WaterSurface
	Portal *terrain.Placement
	Stats  terrain.BuildStats

	stage  Stage
	portal terrain.Placement
}

func newChunk(dim world.Dimensions) *Chunk {
	return &Chunk{
		Grid: world.NewGrid(dim),
		Mesh: &meshing.Mesh{},
	}
}

// Stage returns the last completed pipeline stage.
func (c *Chunk) Stage() Stage { return c.stage }

// Origin returns the world-space position of the chunk's corner.
func (c *Chunk) Origin() mgl32.Vec3 {
	ox, oz := c.Coord.Origin(c.Grid.Dimensions())
	return mgl32.Vec3{float32(ox), 0, float32(oz)}
}

// reset prepares a pooled chunk for coord, keeping its buffers.
func (c *Chunk) reset(coord world.ChunkCoord) {
	c.Coord = coord
	c.Grid.Clear()
	c.Mesh.Reset()
	c.Water = nil
	c.Portal = nil
	c.Stats = terrain.BuildStats{}
	c.stage = StageEmpty
}
