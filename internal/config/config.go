// Package config loads and validates the world generation and streaming
// settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a YAML-friendly wrapper around time.Duration that accepts
// strings such as "20ms" as well as integer nanoseconds.
type Duration time.Duration

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// MarshalYAML encodes the duration using its canonical string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML decodes "250ms" style strings or integer nanoseconds. Empty
// strings decode to zero.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration: expected scalar, got kind %d", value.Kind)
	}
	if value.Tag == "!!int" {
		var n int64
		if err := value.Decode(&n); err != nil {
			return fmt.Errorf("duration: decode int: %w", err)
		}
		*d = Duration(time.Duration(n))
		return nil
	}
	if value.Value == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("duration: parse %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config captures every tunable needed to run the generator and streamer.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Streaming StreamingConfig `yaml:"streaming"`
	Water     WaterConfig     `yaml:"water"`
}

// WorldConfig sets the chunk dimensions in blocks and the water level.
type WorldConfig struct {
	ChunkSizeX int `yaml:"chunkSizeX"`
	ChunkSizeY int `yaml:"chunkSizeY"`
	ChunkSizeZ int `yaml:"chunkSizeZ"`
	WaterLevel int `yaml:"waterLevel"` // grass at or below becomes dirt
}

// TerrainConfig holds the noise parameters for heights, caves and portals.
type TerrainConfig struct {
	Seed        int64   `yaml:"seed"`
	NoiseScale  float64 `yaml:"noiseScale"`
	Octaves     int     `yaml:"octaves"`
	Persistence float64 `yaml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity"`

	BiomeNoiseScale    float64 `yaml:"biomeNoiseScale"`
	PlainsThreshold    float64 `yaml:"plainsThreshold"`
	PlainsBlendRange   float64 `yaml:"plainsBlendRange"`
	PlainsFlatness     float64 `yaml:"plainsFlatness"`
	MountainThreshold  float64 `yaml:"mountainThreshold"`
	MountainBlendRange float64 `yaml:"mountainBlendRange"`
	MountainsHeight    float64 `yaml:"mountainsHeight"`
	MaxPeakHeight      float64 `yaml:"maxPeakHeight"`

	BedrockNoiseScale float64 `yaml:"bedrockNoiseScale"`

	Caves                 bool    `yaml:"caves"`
	CaveSeed              int64   `yaml:"caveSeed"`
	CaveNoiseScale        float64 `yaml:"caveNoiseScale"`
	CaveDensityThreshold  float64 `yaml:"caveDensityThreshold"`
	CaveOctaves           int     `yaml:"caveOctaves"`
	CavePersistence       float64 `yaml:"cavePersistence"`
	CaveLacunarity        float64 `yaml:"caveLacunarity"`
	CaveEntranceThreshold float64 `yaml:"caveEntranceThreshold"`

	PortalSeed    int64 `yaml:"portalSeed"`
	PortalSpacing int   `yaml:"portalSpacing"` // in chunks
}

// StreamingConfig controls how chunks around the observer are queued,
// built, culled and unloaded each tick.
type StreamingConfig struct {
	ViewDistance            int      `yaml:"viewDistance"` // in chunks
	ChunksPerFrame          int      `yaml:"chunksPerFrame"`
	GenerationDelay         Duration `yaml:"generationDelay"`
	PrioritizeViewDirection bool     `yaml:"prioritizeViewDirection"`
	UseOcclusionCulling     bool     `yaml:"useOcclusionCulling"`
	MaxUnloadsPerTick       int      `yaml:"maxUnloadsPerTick"`
	Workers                 int      `yaml:"workers"` // 0 builds inline, one stage per tick
	SlowTickThreshold       Duration `yaml:"slowTickThreshold"`
	TickRate                Duration `yaml:"tickRate"`
}

// WaterConfig shapes the per-chunk water surface mesh.
type WaterConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Tessellation int     `yaml:"tessellation"` // squares per chunk edge
	RippleScale  float64 `yaml:"rippleScale"`
}

// Default returns a configuration matching the reference world.
func Default() Config {
	return Config{
		World: WorldConfig{
			ChunkSizeX: 32,
			ChunkSizeY: 128,
			ChunkSizeZ: 32,
			WaterLevel: 50,
		},
		Terrain: TerrainConfig{
			Seed:        0,
			NoiseScale:  0.012,
			Octaves:     6,
			Persistence: 0.5,
			Lacunarity:  2.1,

			BiomeNoiseScale:    0.003,
			PlainsThreshold:    0.2,
			PlainsBlendRange:   0.1,
			PlainsFlatness:     0.8,
			MountainThreshold:  0.75,
			MountainBlendRange: 0.15,
			MountainsHeight:    2.5,
			MaxPeakHeight:      0.6,

			BedrockNoiseScale: 0.05,

			Caves:                 true,
			CaveNoiseScale:        0.1,
			CaveDensityThreshold:  0.35,
			CaveOctaves:           2,
			CavePersistence:       0.5,
			CaveLacunarity:        2.0,
			CaveEntranceThreshold: 0.75,

			PortalSpacing: 10,
		},
		Streaming: StreamingConfig{
			ViewDistance:            5,
			ChunksPerFrame:          3,
			GenerationDelay:         Duration(20 * time.Millisecond),
			PrioritizeViewDirection: true,
			UseOcclusionCulling:     true,
			MaxUnloadsPerTick:       1,
			Workers:                 0,
			SlowTickThreshold:       Duration(8 * time.Millisecond),
			TickRate:                Duration(16 * time.Millisecond),
		},
		Water: WaterConfig{
			Enabled:      true,
			Tessellation: 8,
			RippleScale:  0.1,
		},
	}
}

// Validate ensures the configuration is usable. Every rule here guards a
// division, a loop bound or an index computed from the value.
func (c Config) Validate() error {
	if c.World.ChunkSizeX <= 0 || c.World.ChunkSizeY <= 0 || c.World.ChunkSizeZ <= 0 {
		return errors.New("world chunk dimensions must be positive")
	}
	if c.World.ChunkSizeY < 8 {
		return errors.New("world.chunkSizeY must be at least 8")
	}
	if c.World.WaterLevel < 0 || c.World.WaterLevel >= c.World.ChunkSizeY {
		return errors.New("world.waterLevel must lie inside the chunk height")
	}
	if err := c.Terrain.Validate(); err != nil {
		return err
	}
	if c.Streaming.ViewDistance < 1 {
		return errors.New("streaming.viewDistance must be positive")
	}
	if c.Streaming.ChunksPerFrame < 1 {
		return errors.New("streaming.chunksPerFrame must be positive")
	}
	if c.Streaming.GenerationDelay < 0 {
		return errors.New("streaming.generationDelay cannot be negative")
	}
	if c.Streaming.MaxUnloadsPerTick < 1 {
		return errors.New("streaming.maxUnloadsPerTick must be positive")
	}
	if c.Streaming.Workers < 0 {
		return errors.New("streaming.workers cannot be negative")
	}
	if c.Streaming.TickRate <= 0 {
		return errors.New("streaming.tickRate must be positive")
	}
	if c.Water.Enabled && c.Water.Tessellation < 1 {
		return errors.New("water.tessellation must be positive")
	}
	return nil
}

// Validate checks the noise parameters on their own so samplers built
// without a full Config get the same guarantees.
func (t TerrainConfig) Validate() error {
	if t.NoiseScale <= 0 || t.BiomeNoiseScale <= 0 || t.BedrockNoiseScale <= 0 {
		return errors.New("terrain noise scales must be positive")
	}
	if t.Octaves < 1 {
		return errors.New("terrain.octaves must be at least 1")
	}
	if t.Persistence <= 0 || t.Lacunarity <= 0 {
		return errors.New("terrain.persistence and terrain.lacunarity must be positive")
	}
	if t.PlainsBlendRange <= 0 || t.MountainBlendRange <= 0 {
		return errors.New("terrain blend ranges must be positive")
	}
	if t.Caves {
		if t.CaveNoiseScale <= 0 {
			return errors.New("terrain.caveNoiseScale must be positive")
		}
		if t.CaveOctaves < 1 {
			return errors.New("terrain.caveOctaves must be at least 1")
		}
		if t.CavePersistence <= 0 || t.CaveLacunarity <= 0 {
			return errors.New("terrain.cavePersistence and terrain.caveLacunarity must be positive")
		}
	}
	if t.PortalSpacing < 1 {
		return errors.New("terrain.portalSpacing must be positive")
	}
	return nil
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
