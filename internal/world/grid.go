package world

import "fmt"

// Dimensions is the voxel size of one chunk.
type Dimensions struct {
	X, Y, Z int
}

// DefaultDimensions is the canonical 32x128x32 chunk.
var DefaultDimensions = Dimensions{X: 32, Y: 128, Z: 32}

// Volume returns the number of voxels in a chunk.
func (d Dimensions) Volume() int { return d.X * d.Y * d.Z }

// Validate rejects non-positive sizes.
func (d Dimensions) Validate() error {
	if d.X <= 0 || d.Y <= 0 || d.Z <= 0 {
		return fmt.Errorf("chunk dimensions must be positive, got %dx%dx%d", d.X, d.Y, d.Z)
	}
	return nil
}

// Grid is the dense voxel array of one chunk, stored x-major then y then z.
type Grid struct {
	dim    Dimensions
	blocks []BlockType
}

// NewGrid allocates an all-Air grid.
func NewGrid(dim Dimensions) *Grid {
	return &Grid{dim: dim, blocks: make([]BlockType, dim.Volume())}
}

// Dimensions returns the grid size.
func (g *Grid) Dimensions() Dimensions { return g.dim }

func (g *Grid) index(x, y, z int) int {
	return (x*g.dim.Y+y)*g.dim.Z + z
}

// InBounds reports whether local coordinates address a voxel of this grid.
func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.dim.X && y >= 0 && y < g.dim.Y && z >= 0 && z < g.dim.Z
}

// Get returns the block at local coordinates, or Air outside the grid.
func (g *Grid) Get(x, y, z int) BlockType {
	if !g.InBounds(x, y, z) {
		return BlockAir
	}
	return g.blocks[g.index(x, y, z)]
}

// Set stores a block. Writes outside the grid are ignored.
func (g *Grid) Set(x, y, z int, b BlockType) {
	if !g.InBounds(x, y, z) {
		return
	}
	g.blocks[g.index(x, y, z)] = b
}

// IsSolid reports solidity at local coordinates; outside the grid is not solid.
func (g *Grid) IsSolid(x, y, z int) bool {
	return g.Get(x, y, z).IsSolid()
}

// Clear resets every voxel to Air.
func (g *Grid) Clear() {
	clear(g.blocks)
}

// Count returns how many voxels hold b.
func (g *Grid) Count(b BlockType) int {
	n := 0
	for _, v := range g.blocks {
		if v == b {
			n++
		}
	}
	return n
}

// ColumnTop returns the highest non-Air y in the column, or -1 if it is empty.
func (g *Grid) ColumnTop(x, z int) int {
	if !g.InBounds(x, 0, z) {
		return -1
	}
	for y := g.dim.Y - 1; y >= 0; y-- {
		if g.blocks[g.index(x, y, z)] != BlockAir {
			return y
		}
	}
	return -1
}

// Equal reports whether two grids have the same size and contents.
func (g *Grid) Equal(o *Grid) bool {
	if g.dim != o.dim {
		return false
	}
	for i, v := range g.blocks {
		if o.blocks[i] != v {
			return false
		}
	}
	return true
}
