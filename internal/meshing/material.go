package meshing

import "voxelgen/internal/world"

// Material selects the submesh a face is rendered with.
type Material uint8

const (
	MaterialBedrock Material = iota
	MaterialStone
	MaterialDirt
	MaterialGrassSide
	MaterialGrassTop
	MaterialObsidian
	MaterialPortalCore

	MaterialCount

	materialNone Material = 255
)

var materialNames = [MaterialCount]string{
	MaterialBedrock:    "bedrock",
	MaterialStone:      "stone",
	MaterialDirt:       "dirt",
	MaterialGrassSide:  "grass_side",
	MaterialGrassTop:   "grass_top",
	MaterialObsidian:   "obsidian",
	MaterialPortalCore: "portal_core",
}

func (m Material) String() string {
	if m < MaterialCount {
		return materialNames[m]
	}
	return "none"
}

// faceMaterials routes every (block, face) pair to a submesh. Air maps to
// materialNone and is never emitted.
var faceMaterials = func() (t [world.BlockTypeCount][world.FaceCount]Material) {
	uniform := func(b world.BlockType, m Material) {
		for f := range t[b] {
			t[b][f] = m
		}
	}
	uniform(world.BlockAir, materialNone)
	uniform(world.BlockBedrock, MaterialBedrock)
	uniform(world.BlockStone, MaterialStone)
	uniform(world.BlockDirt, MaterialDirt)
	uniform(world.BlockGrass, MaterialGrassSide)
	t[world.BlockGrass][world.FaceTop] = MaterialGrassTop
	t[world.BlockGrass][world.FaceBottom] = MaterialDirt
	uniform(world.BlockObsidian, MaterialObsidian)
	uniform(world.BlockPortalCore, MaterialPortalCore)
	return t
}()

// alwaysEmit lists blocks whose faces are drawn regardless of neighbours.
var alwaysEmit = [world.BlockTypeCount]bool{
	world.BlockPortalCore: true,
}

// FaceMaterial returns the submesh for a face of b and whether b is drawn.
func FaceMaterial(b world.BlockType, f world.BlockFace) (Material, bool) {
	if b >= world.BlockTypeCount || f >= world.FaceCount {
		return materialNone, false
	}
	m := faceMaterials[b][f]
	return m, m != materialNone
}
