package preview

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"voxelgen/internal/streaming"
	"voxelgen/internal/world"
)

var testDim = world.Dimensions{X: 4, Y: 8, Z: 4}

func flatChunk(c world.ChunkCoord, y int, b world.BlockType) *streaming.Chunk {
	g := world.NewGrid(testDim)
	for x := 0; x < testDim.X; x++ {
		for z := 0; z < testDim.Z; z++ {
			g.Set(x, y, z, b)
		}
	}
	return &streaming.Chunk{Coord: c, Grid: g}
}

func TestRenderLayout(t *testing.T) {
	chunks := []*streaming.Chunk{
		flatChunk(world.ChunkCoord{X: 0, Z: 0}, testDim.Y-1, world.BlockGrass),
		{Coord: world.ChunkCoord{X: 1, Z: 0}, Grid: world.NewGrid(testDim)},
	}
	img, err := Render(chunks, Options{Scale: 2})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := img.Bounds().Size(); got.X != 16 || got.Y != 8 {
		t.Fatalf("size = %v, want 16x8", got)
	}
	if got := img.NRGBAAt(3, 5); got != blockColors[world.BlockGrass] {
		t.Errorf("grass pixel = %v, want %v", got, blockColors[world.BlockGrass])
	}
	if got := img.NRGBAAt(12, 2); got != background {
		t.Errorf("empty chunk pixel = %v, want background", got)
	}
}

func TestRenderNegativeCoords(t *testing.T) {
	chunks := []*streaming.Chunk{
		flatChunk(world.ChunkCoord{X: -2, Z: -1}, 3, world.BlockStone),
		flatChunk(world.ChunkCoord{X: 0, Z: 0}, 3, world.BlockStone),
	}
	img, err := Render(chunks, Options{Scale: 1})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := img.Bounds().Size(); got.X != 12 || got.Y != 8 {
		t.Fatalf("size = %v, want 12x8", got)
	}
	// the gap chunk at (-1,-1) is never drawn
	if got := img.NRGBAAt(5, 1); got != background {
		t.Errorf("gap pixel = %v, want background", got)
	}
}

func TestRenderShadesByHeight(t *testing.T) {
	low := flatChunk(world.ChunkCoord{X: 0, Z: 0}, 1, world.BlockStone)
	high := flatChunk(world.ChunkCoord{X: 1, Z: 0}, 6, world.BlockStone)
	img, err := Render([]*streaming.Chunk{low, high}, Options{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	l, h := img.NRGBAAt(0, 0), img.NRGBAAt(4, 0)
	if l.R >= h.R {
		t.Errorf("low column %v should be darker than high column %v", l, h)
	}
}

func TestRenderWaterTint(t *testing.T) {
	ch := flatChunk(world.ChunkCoord{}, 2, world.BlockStone)
	img, err := Render([]*streaming.Chunk{ch}, Options{WaterLevel: 5})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if c := img.NRGBAAt(1, 1); c.B <= c.R {
		t.Errorf("submerged column %v is not tinted blue", c)
	}
}

func TestRenderErrors(t *testing.T) {
	if _, err := Render(nil, Options{}); err == nil {
		t.Error("expected error for no chunks")
	}
	odd := &streaming.Chunk{Coord: world.ChunkCoord{X: 1}, Grid: world.NewGrid(world.Dimensions{X: 2, Y: 8, Z: 2})}
	if _, err := Render([]*streaming.Chunk{flatChunk(world.ChunkCoord{}, 0, world.BlockDirt), odd}, Options{}); err == nil {
		t.Error("expected error for mismatched dimensions")
	}
}

func TestSave(t *testing.T) {
	img, err := Render([]*streaming.Chunk{flatChunk(world.ChunkCoord{}, 4, world.BlockDirt)}, Options{Scale: 3})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out", "map.png")
	if err := Save(path, img); err != nil {
		t.Fatalf("Save: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Bounds() != img.Bounds() {
		t.Errorf("decoded bounds %v, want %v", got.Bounds(), img.Bounds())
	}
}
