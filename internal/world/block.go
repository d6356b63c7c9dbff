package world

// BlockType identifies the material of one voxel.
type BlockType uint8

const (
	BlockAir BlockType = iota
	BlockBedrock
	BlockStone
	BlockDirt
	BlockGrass
	BlockObsidian
	BlockPortalCore

	BlockTypeCount
)

var blockNames = [BlockTypeCount]string{
	BlockAir:        "air",
	BlockBedrock:    "bedrock",
	BlockStone:      "stone",
	BlockDirt:       "dirt",
	BlockGrass:      "grass",
	BlockObsidian:   "obsidian",
	BlockPortalCore: "portal_core",
}

// PortalCore is not solid so that neighbouring faces are always emitted.
var solidBlocks = [BlockTypeCount]bool{
	BlockBedrock:  true,
	BlockStone:    true,
	BlockDirt:     true,
	BlockGrass:    true,
	BlockObsidian: true,
}

func (b BlockType) String() string {
	if b < BlockTypeCount {
		return blockNames[b]
	}
	return "unknown"
}

// IsSolid reports whether the block occludes its neighbours' faces.
func (b BlockType) IsSolid() bool {
	return b < BlockTypeCount && solidBlocks[b]
}

// BlockFace enumerates the six faces of a voxel in mesh emission order.
type BlockFace uint8

const (
	FaceFront  BlockFace = iota // -Z
	FaceLeft                    // -X
	FaceRight                   // +X
	FaceTop                     // +Y
	FaceBottom                  // -Y
	FaceBack                    // +Z

	FaceCount
)

// Normal returns the integer offset to the neighbouring voxel across the face.
func (f BlockFace) Normal() (dx, dy, dz int) {
	switch f {
	case FaceFront:
		return 0, 0, -1
	case FaceLeft:
		return -1, 0, 0
	case FaceRight:
		return 1, 0, 0
	case FaceTop:
		return 0, 1, 0
	case FaceBottom:
		return 0, -1, 0
	case FaceBack:
		return 0, 0, 1
	}
	return 0, 0, 0
}

func (f BlockFace) String() string {
	switch f {
	case FaceFront:
		return "front"
	case FaceLeft:
		return "left"
	case FaceRight:
		return "right"
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	case FaceBack:
		return "back"
	}
	return "unknown"
}
