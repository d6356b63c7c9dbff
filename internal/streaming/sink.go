package streaming

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelgen/internal/meshing"
	"voxelgen/internal/terrain"
	"voxelgen/internal/world"
)

// BuiltChunk is handed to the host when a chunk becomes active. Mesh and
// Water are owned by the streamer and stay valid until the matching
// ChunkDeactivated call.
type BuiltChunk struct {
	Coord  world.ChunkCoord
	Origin mgl32.Vec3
	Mesh   *meshing.Mesh
	Water  *meshing.WaterSurface
	Stats  terrain.BuildStats
}

// PortalSite announces a stamped portal. Center, Min and Max are world space;
// Plane is chunk-local.
type PortalSite struct {
	Coord    world.ChunkCoord
	Center   mgl32.Vec3
	Min, Max mgl32.Vec3
	Plane    meshing.PortalPlane
	Fallback bool
}

// Sink receives the streamer's output. Calls happen on the goroutine that
// runs Tick.
type Sink interface {
	ChunkActivated(BuiltChunk)
	PortalPlaced(PortalSite)
	ChunkDeactivated(world.ChunkCoord)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) ChunkActivated(BuiltChunk)         {}
func (NopSink) PortalPlaced(PortalSite)           {}
func (NopSink) ChunkDeactivated(world.ChunkCoord) {}

// MultiSink fans events out in order.
type MultiSink []Sink

func (m MultiSink) ChunkActivated(b BuiltChunk) {
	for _, s := range m {
		s.ChunkActivated(b)
	}
}

func (m MultiSink) PortalPlaced(p PortalSite) {
	for _, s := range m {
		s.PortalPlaced(p)
	}
}

func (m MultiSink) ChunkDeactivated(c world.ChunkCoord) {
	for _, s := range m {
		s.ChunkDeactivated(c)
	}
}

func portalSite(c *Chunk) PortalSite {
	p := c.Portal
	minX, minY, maxX, maxY := p.CoreBounds()
	return PortalSite{
		Coord:    c.Coord,
		Center:   p.Center,
		Min:      p.Min,
		Max:      p.Max,
		Plane:    meshing.BuildPortalPlane(minX, minY, maxX, maxY, p.LocalZ),
		Fallback: p.Fallback,
	}
}
