package terrain

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"voxelgen/internal/world"
)

// Portal frame geometry: 4 wide, 5 tall, one block deep on a fixed Z plane.
const (
	PortalWidth  = 4
	PortalHeight = 5

	footprintX = 3
	footprintZ = 2
	headroom   = 5

	searchTopMargin = 10
	underwaterLift  = 20
)

// SiteSampler is the part of the sampler portal placement depends on.
type SiteSampler interface {
	ShouldGeneratePortal(c world.ChunkCoord) bool
	TerrainHeight(worldX, worldZ float64) int
	PortalSeed() int64
}

// Placement describes a stamped portal.
type Placement struct {
	Coord world.ChunkCoord

	// Local is the frame's anchor inside the chunk: x of the left core
	// column, y of the bottom frame row, z of the frame plane.
	LocalX, LocalY, LocalZ int

	// Center is the world-space centre of the frame.
	Center mgl32.Vec3

	// Min and Max bound the frame in world space.
	Min, Max mgl32.Vec3

	Fallback bool // no site matched; the chunk centre was used
	Clipped  bool // part of the frame fell outside the grid
}

// CoreBounds returns the local inclusive range of the PortalCore voxels.
func (p Placement) CoreBounds() (minX, minY, maxX, maxY int) {
	return p.LocalX, p.LocalY + 1, p.LocalX + 1, p.LocalY + PortalHeight - 2
}

// Placer finds a site for a chunk's portal and stamps the frame.
type Placer struct {
	Sampler    SiteSampler
	WaterLevel int
	Padding    int // keeps the search away from chunk edges
	Attempts   int // random samples per height level
}

// NewPlacer returns a placer with the default search parameters.
func NewPlacer(s SiteSampler, waterLevel int) *Placer {
	return &Placer{Sampler: s, WaterLevel: waterLevel, Padding: 5, Attempts: 25}
}

// TryPlace stamps a portal into g if the chunk at coord hosts one. Site
// selection is deterministic in (portal seed, coord).
func (p *Placer) TryPlace(g *world.Grid, coord world.ChunkCoord) (Placement, bool) {
	if !p.Sampler.ShouldGeneratePortal(coord) {
		return Placement{}, false
	}
	dim := g.Dimensions()

	lx, lz, found := p.findSite(g, coord)
	ox, oz := coord.Origin(dim)

	py := p.Sampler.TerrainHeight(float64(lx+ox), float64(lz+oz)) + 1
	if py < p.WaterLevel {
		py += underwaterLift
	}

	clipped := stampFrame(g, lx, py, lz)

	wx, wz := float32(lx+ox), float32(lz+oz)
	return Placement{
		Coord:    coord,
		LocalX:   lx,
		LocalY:   py,
		LocalZ:   lz,
		Center:   mgl32.Vec3{wx + 0.5, float32(py) + 2.5, wz + 0.5},
		Min:      mgl32.Vec3{wx - 1, float32(py), wz},
		Max:      mgl32.Vec3{wx + PortalWidth - 1, float32(py + PortalHeight), wz + 1},
		Fallback: !found,
		Clipped:  clipped,
	}, true
}

// findSite samples random footprints from near the top of the chunk down to
// the water level and falls back to the chunk centre.
func (p *Placer) findSite(g *world.Grid, coord world.ChunkCoord) (x, z int, ok bool) {
	dim := g.Dimensions()
	spanX := dim.X - 2*p.Padding - footprintX
	spanZ := dim.Z - 2*p.Padding - footprintZ
	if spanX > 0 && spanZ > 0 {
		rng := rand.New(rand.NewSource(siteSeed(p.Sampler.PortalSeed(), coord)))
		for y := dim.Y - searchTopMargin; y >= max(p.WaterLevel, 1); y-- {
			for range p.Attempts {
				x := p.Padding + rng.Intn(spanX)
				z := p.Padding + rng.Intn(spanZ)
				if siteClear(g, x, y, z) {
					return x + 1, z + 1, true
				}
			}
		}
	}
	return dim.X / 2, dim.Z / 2, false
}

// siteClear needs solid ground under the whole footprint and nothing solid in
// the headroom above it.
func siteClear(g *world.Grid, x, y, z int) bool {
	for dx := 0; dx < footprintX; dx++ {
		for dz := 0; dz < footprintZ; dz++ {
			if !g.IsSolid(x+dx, y-1, z+dz) {
				return false
			}
			for h := 0; h < headroom; h++ {
				if g.IsSolid(x+dx, y+h, z+dz) {
					return false
				}
			}
		}
	}
	return true
}

// stampFrame writes an obsidian perimeter and a PortalCore interior. Cells
// outside the grid are skipped; the return value reports whether any were.
func stampFrame(g *world.Grid, px, py, pz int) bool {
	clipped := false
	for x := px - 1; x <= px+2; x++ {
		for y := py; y < py+PortalHeight; y++ {
			if !g.InBounds(x, y, pz) {
				clipped = true
				continue
			}
			if x == px-1 || x == px+2 || y == py || y == py+PortalHeight-1 {
				g.Set(x, y, pz, world.BlockObsidian)
			} else {
				g.Set(x, y, pz, world.BlockPortalCore)
			}
		}
	}
	return clipped
}

func siteSeed(seed int64, c world.ChunkCoord) int64 {
	return seed*1_000_003 ^ int64(c.X)*73_856_093 ^ int64(c.Z)*19_349_663
}
