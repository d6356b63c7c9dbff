// Package terrain turns seeded noise into chunk voxels: surface heights,
// bedrock, caves, shorelines and portal landmarks.
package terrain

import (
	"errors"
	"fmt"
	"math"

	"voxelgen/internal/config"
	"voxelgen/internal/noise"
	"voxelgen/internal/world"
)

const (
	heightScale = 30
	heightBase  = 50

	surfaceCaveDepth   = 3  // only entrances may carve this close to the surface
	entranceFadeDepth  = 10 // entrance mouths taper over this many blocks
	entranceNarrowing  = 0.05
	entranceNoiseScale = 0.02
	peakThreshold      = 0.8
)

// Sampler answers per-column and per-voxel questions about the generated
// world. It is immutable and safe for concurrent use.
type Sampler struct {
	cfg     config.TerrainConfig
	sizeY   int
	terrain *noise.Field
	cave    *noise.Field
}

// Biome describes the biome value at a column and how strongly the plains and
// mountain shapes apply there.
type Biome struct {
	Value     float64
	Plains    float64
	Mountains float64
}

// Column caches the per-column values the cave rule needs.
type Column struct {
	TerrainHeight int
	BedrockHeight int
	Entrance      bool
}

// NewSampler validates cfg and builds the terrain and cave noise fields.
func NewSampler(cfg config.TerrainConfig, sizeY int) (*Sampler, error) {
	if sizeY < 8 {
		return nil, errors.New("terrain sampler needs a chunk height of at least 8")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("terrain sampler: %w", err)
	}
	return &Sampler{
		cfg:     cfg,
		sizeY:   sizeY,
		terrain: noise.New(cfg.Seed),
		cave:    noise.New(cfg.CaveSeed),
	}, nil
}

// Config returns the parameters the sampler was built with.
func (s *Sampler) Config() config.TerrainConfig { return s.cfg }

// SizeY returns the chunk height heights are clamped to.
func (s *Sampler) SizeY() int { return s.sizeY }

// CavesEnabled reports whether the builder should carve caves.
func (s *Sampler) CavesEnabled() bool { return s.cfg.Caves }

// Noise exposes the terrain noise field for auxiliary effects.
func (s *Sampler) Noise() *noise.Field { return s.terrain }

// Biome samples the low-frequency biome noise and its blend factors.
func (s *Sampler) Biome(worldX, worldZ float64) Biome {
	off := float64(s.cfg.Seed) * 0.3
	v := s.terrain.Noise2D((worldX+off)*s.cfg.BiomeNoiseScale, (worldZ+off)*s.cfg.BiomeNoiseScale)
	return Biome{
		Value:     v,
		Plains:    blendFactor(s.cfg.PlainsThreshold-v, 0, s.cfg.PlainsBlendRange),
		Mountains: blendFactor(v-s.cfg.MountainThreshold, 0, s.cfg.MountainBlendRange),
	}
}

// TerrainHeight returns the surface y of the column containing (worldX, worldZ),
// clamped to [bedrock+1, sizeY-1].
func (s *Sampler) TerrainHeight(worldX, worldZ float64) int {
	return s.terrainHeight(worldX, worldZ, s.BedrockHeight(worldX, worldZ))
}

func (s *Sampler) terrainHeight(worldX, worldZ float64, bedrock int) int {
	c := s.cfg
	biome := s.Biome(worldX, worldZ)

	base := s.terrain.FractalNoise2D(worldX, worldZ, c.NoiseScale, c.Octaves, c.Persistence, c.Lacunarity)
	plains := lerp(base, 0.5, c.PlainsFlatness)

	detail := s.terrain.FractalNoise2D(worldX, worldZ, c.NoiseScale*2, min(c.Octaves+2, 8), c.Persistence*0.8, c.Lacunarity*1.2) * 0.3
	mountains := base*c.MountainsHeight + detail + s.peak(worldX, worldZ)

	h := base
	switch {
	case biome.Plains > 0 && biome.Mountains > 0:
		total := biome.Plains + biome.Mountains
		h = (plains*biome.Plains + mountains*biome.Mountains) / total
	case biome.Plains > 0:
		h = lerp(base, plains, biome.Plains)
	case biome.Mountains > 0:
		h = lerp(base, mountains, biome.Mountains)
	}

	height := int(math.Floor(h*heightScale)) + heightBase
	return max(bedrock+1, min(height, s.sizeY-1))
}

func (s *Sampler) peak(worldX, worldZ float64) float64 {
	off := float64(s.cfg.Seed) * 0.7
	scale := s.cfg.NoiseScale * 4
	p := s.terrain.Noise2D((worldX+off)*scale, (worldZ+off)*scale)
	if p <= peakThreshold {
		return 0
	}
	return math.Min(math.Pow(p-peakThreshold, 1.5)*5, s.cfg.MaxPeakHeight)
}

// BedrockHeight returns the bedrock layer thickness, 1 to 3 blocks.
func (s *Sampler) BedrockHeight(worldX, worldZ float64) int {
	off := float64(s.cfg.Seed) * 0.01
	v := s.terrain.Noise2D((worldX+off)*s.cfg.BedrockNoiseScale, (worldZ+off)*s.cfg.BedrockNoiseScale)
	switch {
	case v < 0.2:
		return 1
	case v < 0.8:
		return 2
	default:
		return 3
	}
}

// IsSurfaceCaveEntrance reports whether caves may break through the surface
// of this column.
func (s *Sampler) IsSurfaceCaveEntrance(worldX, worldZ float64) bool {
	off := float64(s.cfg.Seed) * 0.05
	v := s.terrain.Noise2D((worldX+off)*entranceNoiseScale, (worldZ+off)*entranceNoiseScale)
	return v > s.cfg.CaveEntranceThreshold
}

// Column samples the per-column values used by IsCaveBlockInColumn.
func (s *Sampler) Column(worldX, worldZ float64) Column {
	bedrock := s.BedrockHeight(worldX, worldZ)
	return Column{
		TerrainHeight: s.terrainHeight(worldX, worldZ, bedrock),
		BedrockHeight: bedrock,
		Entrance:      s.IsSurfaceCaveEntrance(worldX, worldZ),
	}
}

// IsCaveBlock reports whether the voxel at world coordinates is carved out.
func (s *Sampler) IsCaveBlock(worldX, worldY, worldZ float64) bool {
	return s.IsCaveBlockInColumn(s.Column(worldX, worldZ), worldX, worldY, worldZ)
}

// IsCaveBlockInColumn is IsCaveBlock with the column values already sampled.
func (s *Sampler) IsCaveBlockInColumn(col Column, worldX, worldY, worldZ float64) bool {
	y := int(math.Floor(worldY))
	if y <= col.BedrockHeight {
		return false
	}
	if y >= col.TerrainHeight-surfaceCaveDepth && !col.Entrance {
		return false
	}

	c := s.cfg
	v := s.cave.FractalNoise3D(worldX, worldY, worldZ, c.CaveNoiseScale, c.CaveOctaves, c.CavePersistence, c.CaveLacunarity)
	return v < s.caveThreshold(col, y)
}

// caveThreshold is the carve threshold at height y. In entrance columns it
// falls linearly from the full value entranceFadeDepth blocks down to
// entranceNarrowing less at the surface, so cave mouths narrow as they open.
func (s *Sampler) caveThreshold(col Column, y int) float64 {
	threshold := s.cfg.CaveDensityThreshold
	if col.Entrance && y >= col.TerrainHeight-entranceFadeDepth {
		proximity := min(float64(y-(col.TerrainHeight-entranceFadeDepth))/entranceFadeDepth, 1)
		threshold -= entranceNarrowing * proximity
	}
	return threshold
}

// ShouldGeneratePortal reports whether the chunk hosts a portal landmark.
func (s *Sampler) ShouldGeneratePortal(c world.ChunkCoord) bool {
	n := s.cfg.PortalSpacing
	return c.X%n == 0 && c.Z%n == 0
}

// PortalSeed seeds portal site selection.
func (s *Sampler) PortalSeed() int64 { return s.cfg.PortalSeed }

// blendFactor ramps linearly from 0 at threshold-rng to 1 at threshold+rng.
func blendFactor(v, threshold, rng float64) float64 {
	if v < threshold-rng {
		return 0
	}
	if v > threshold+rng {
		return 1
	}
	return (v - (threshold - rng)) / (2 * rng)
}

// lerp clamps t to [0,1].
func lerp(a, b, t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	return a + (b-a)*t
}
