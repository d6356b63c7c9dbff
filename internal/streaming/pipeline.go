package streaming

import (
	"voxelgen/internal/config"
	"voxelgen/internal/meshing"
	"voxelgen/internal/profiling"
	"voxelgen/internal/terrain"
)

// Pipeline runs the three build stages of a chunk: terrain, portal and mesh.
// It holds no per-chunk state and is safe to use from several goroutines on
// distinct chunks.
type Pipeline struct {
	sampler    *terrain.Sampler
	placer     *terrain.Placer
	waterLevel int
	water      config.WaterConfig
}

// NewPipeline wires the sampler into the terrain, portal and mesh stages.
func NewPipeline(cfg config.Config, s *terrain.Sampler) *Pipeline {
	return &Pipeline{
		sampler:    s,
		placer:     terrain.NewPlacer(s, cfg.World.WaterLevel),
		waterLevel: cfg.World.WaterLevel,
		water:      cfg.Water,
	}
}

// Advance runs the next stage of c and reports whether the chunk is fully
// built. Calling it on a meshed chunk does nothing, so the portal stage can
// never run twice for one build.
func (p *Pipeline) Advance(c *Chunk) bool {
	switch c.stage {
	case StageEmpty:
		p.buildTerrain(c)
		c.stage = StageTerrain
	case StageTerrain:
		p.placePortal(c)
		c.stage = StagePortal
	case StagePortal:
		p.buildMesh(c)
		c.stage = StageMeshed
	}
	return c.stage == StageMeshed
}

// BuildAll runs every remaining stage of c.
func (p *Pipeline) BuildAll(c *Chunk) {
	for !p.Advance(c) {
	}
}

func (p *Pipeline) buildTerrain(c *Chunk) {
	defer profiling.Track("terrain.Build")()
	c.Stats = terrain.Build(c.Grid, c.Coord, p.sampler, p.waterLevel)
}

func (p *Pipeline) placePortal(c *Chunk) {
	defer profiling.Track("terrain.TryPlace")()
	if pl, ok := p.placer.TryPlace(c.Grid, c.Coord); ok {
		c.portal = pl
		c.Portal = &c.portal
	}
}

func (p *Pipeline) buildMesh(c *Chunk) {
	defer profiling.Track("meshing.Generate")()
	meshing.GenerateInto(c.Grid, c.Mesh)
	if p.water.Enabled {
		dim := c.Grid.Dimensions()
		c.Water = meshing.BuildWaterSurface(c.Origin(), dim.X, dim.Z, p.water.Tessellation,
			p.waterLevel, p.sampler.Noise(), p.water.RippleScale)
	}
}
