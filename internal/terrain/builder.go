package terrain

import (
	"voxelgen/internal/world"
)

const dirtDepth = 4

// BuildStats summarises one chunk build.
type BuildStats struct {
	Columns     int
	Carved      int
	PrunedGrass int
	Shoreline   int
	MinHeight   int
	MaxHeight   int
}

// Build fills g with the terrain of the chunk at coord: strata, grass cleanup,
// caves and shoreline dirt, in that order. The result depends only on coord,
// the grid dimensions and the sampler.
func Build(g *world.Grid, coord world.ChunkCoord, s *Sampler, waterLevel int) BuildStats {
	dim := g.Dimensions()
	ox, oz := coord.Origin(dim)
	stats := BuildStats{MinHeight: dim.Y, MaxHeight: -1}

	g.Clear()

	columns := make([]Column, dim.X*dim.Z)
	for x := 0; x < dim.X; x++ {
		for z := 0; z < dim.Z; z++ {
			col := s.Column(float64(ox+x), float64(oz+z))
			columns[x*dim.Z+z] = col
			fillColumn(g, x, z, col)

			stats.Columns++
			stats.MinHeight = min(stats.MinHeight, col.TerrainHeight)
			stats.MaxHeight = max(stats.MaxHeight, col.TerrainHeight)
		}
	}

	stats.PrunedGrass += dedupeGrass(g)
	stats.PrunedGrass += pruneIsolatedGrass(g)

	if s.CavesEnabled() {
		stats.Carved = carveCaves(g, ox, oz, s, columns)
		// carving can strand surface grass; the sweep only removes
		stats.PrunedGrass += pruneIsolatedGrass(g)
	}

	stats.Shoreline = convertShoreline(g, waterLevel)
	return stats
}

func fillColumn(g *world.Grid, x, z int, col Column) {
	h := col.TerrainHeight
	for y := 0; y <= h; y++ {
		var b world.BlockType
		switch {
		case y < col.BedrockHeight:
			b = world.BlockBedrock
		case y < h-dirtDepth:
			b = world.BlockStone
		case y < h:
			b = world.BlockDirt
		default:
			b = world.BlockGrass
		}
		g.Set(x, y, z, b)
	}
}

// dedupeGrass keeps only the lowest grass voxel of each column.
func dedupeGrass(g *world.Grid) int {
	dim := g.Dimensions()
	removed := 0
	for x := 0; x < dim.X; x++ {
		for z := 0; z < dim.Z; z++ {
			seen := false
			for y := 0; y < dim.Y; y++ {
				if g.Get(x, y, z) != world.BlockGrass {
					continue
				}
				if seen {
					g.Set(x, y, z, world.BlockAir)
					removed++
				}
				seen = true
			}
		}
	}
	return removed
}

// pruneIsolatedGrass removes grass whose six neighbours are all air.
func pruneIsolatedGrass(g *world.Grid) int {
	dim := g.Dimensions()
	removed := 0
	for x := 0; x < dim.X; x++ {
		for y := 0; y < dim.Y; y++ {
			for z := 0; z < dim.Z; z++ {
				if g.Get(x, y, z) != world.BlockGrass || hasNeighbour(g, x, y, z) {
					continue
				}
				g.Set(x, y, z, world.BlockAir)
				removed++
			}
		}
	}
	return removed
}

func hasNeighbour(g *world.Grid, x, y, z int) bool {
	for f := world.BlockFace(0); f < world.FaceCount; f++ {
		dx, dy, dz := f.Normal()
		if g.Get(x+dx, y+dy, z+dz) != world.BlockAir {
			return true
		}
	}
	return false
}

func carveCaves(g *world.Grid, ox, oz int, s *Sampler, columns []Column) int {
	dim := g.Dimensions()
	carved := 0
	for x := 0; x < dim.X; x++ {
		for z := 0; z < dim.Z; z++ {
			col := columns[x*dim.Z+z]
			wx, wz := float64(ox+x), float64(oz+z)
			// nothing above the surface or inside bedrock can carve
			for y := col.BedrockHeight + 1; y <= col.TerrainHeight && y < dim.Y; y++ {
				if g.Get(x, y, z) == world.BlockAir {
					continue
				}
				if s.IsCaveBlockInColumn(col, wx, float64(y), wz) {
					g.Set(x, y, z, world.BlockAir)
					carved++
				}
			}
		}
	}
	return carved
}

// convertShoreline turns grass at or below the water line into dirt.
func convertShoreline(g *world.Grid, waterLevel int) int {
	dim := g.Dimensions()
	top := min(waterLevel, dim.Y-1)
	converted := 0
	for x := 0; x < dim.X; x++ {
		for z := 0; z < dim.Z; z++ {
			for y := top; y >= 0; y-- {
				if g.Get(x, y, z) == world.BlockGrass && y+1 <= waterLevel {
					g.Set(x, y, z, world.BlockDirt)
					converted++
				}
			}
		}
	}
	return converted
}
