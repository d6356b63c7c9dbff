package meshing

import "github.com/go-gl/mathgl/mgl32"

// PortalPlane is a double-sided quad spanning a portal's core, for hosts that
// draw the portal as a single animated surface.
type PortalPlane struct {
	Vertices [4]mgl32.Vec3
	UVs      [4]mgl32.Vec2
	Indices  [12]uint32
}

// BuildPortalPlane spans the inclusive local core range on plane z, placed at
// the middle of the voxel layer.
func BuildPortalPlane(minX, minY, maxX, maxY, z int) PortalPlane {
	zc := float32(z) + 0.5
	return PortalPlane{
		Vertices: [4]mgl32.Vec3{
			{float32(minX), float32(minY), zc},
			{float32(maxX + 1), float32(minY), zc},
			{float32(maxX + 1), float32(maxY + 1), zc},
			{float32(minX), float32(maxY + 1), zc},
		},
		UVs:     faceUVs,
		Indices: [12]uint32{0, 2, 1, 0, 3, 2, 1, 2, 0, 2, 3, 0},
	}
}
