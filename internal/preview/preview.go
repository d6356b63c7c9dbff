// Package preview renders active chunks as a top-down height map PNG.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"voxelgen/internal/streaming"
	"voxelgen/internal/world"
)

var (
	background = color.NRGBA{R: 10, G: 10, B: 18, A: 255}
	water      = color.NRGBA{R: 40, G: 90, B: 200, A: 255}

	blockColors = [world.BlockTypeCount]color.NRGBA{
		world.BlockAir:        background,
		world.BlockBedrock:    {R: 50, G: 50, B: 50, A: 255},
		world.BlockStone:      {R: 125, G: 125, B: 125, A: 255},
		world.BlockDirt:       {R: 134, G: 96, B: 67, A: 255},
		world.BlockGrass:      {R: 95, G: 159, B: 53, A: 255},
		world.BlockObsidian:   {R: 30, G: 20, B: 45, A: 255},
		world.BlockPortalCore: {R: 170, G: 60, B: 230, A: 255},
	}
)

const ambient = 0.35

// Options controls rendering.
type Options struct {
	WaterLevel int // columns whose top is below this are tinted as water
	Scale      int // output pixels per block, at least 1
}

// Render draws one pixel per column, coloured by the top block and shaded by
// its height, then scales the result.
func Render(chunks []*streaming.Chunk, opts Options) (*image.NRGBA, error) {
	if len(chunks) == 0 {
		return nil, errors.New("preview: no chunks")
	}
	scale := max(opts.Scale, 1)
	dim := chunks[0].Grid.Dimensions()

	minC, maxC := chunks[0].Coord, chunks[0].Coord
	for _, ch := range chunks[1:] {
		minC.X, minC.Z = min(minC.X, ch.Coord.X), min(minC.Z, ch.Coord.Z)
		maxC.X, maxC.Z = max(maxC.X, ch.Coord.X), max(maxC.Z, ch.Coord.Z)
	}
	w := (maxC.X - minC.X + 1) * dim.X
	h := (maxC.Z - minC.Z + 1) * dim.Z

	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(src, src.Bounds(), &image.Uniform{C: background}, image.Point{}, xdraw.Src)

	for _, ch := range chunks {
		if ch.Grid.Dimensions() != dim {
			return nil, fmt.Errorf("preview: chunk %s has dimensions %+v, want %+v", ch.Coord, ch.Grid.Dimensions(), dim)
		}
		px := (ch.Coord.X - minC.X) * dim.X
		pz := (ch.Coord.Z - minC.Z) * dim.Z
		for x := 0; x < dim.X; x++ {
			for z := 0; z < dim.Z; z++ {
				src.SetNRGBA(px+x, pz+z, columnColor(ch.Grid, x, z, opts.WaterLevel))
			}
		}
	}

	if scale == 1 {
		return src, nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w*scale, h*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst, nil
}

func columnColor(g *world.Grid, x, z, waterLevel int) color.NRGBA {
	top := g.ColumnTop(x, z)
	if top < 0 {
		return background
	}
	c := blockColors[g.Get(x, top, z)]
	depth := 1 - float64(top)/float64(g.Dimensions().Y-1)
	light := 1 - (1-ambient)*depth
	c = shade(c, light)
	if top < waterLevel {
		c = mix(c, water, 0.6)
	}
	return c
}

func shade(c color.NRGBA, f float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: c.A,
	}
}

func mix(a, b color.NRGBA, t float64) color.NRGBA {
	l := func(x, y uint8) uint8 { return uint8(float64(x)*(1-t) + float64(y)*t) }
	return color.NRGBA{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: 255}
}

// Save writes img as a PNG, creating parent directories.
func Save(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preview dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create preview: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode preview: %w", err)
	}
	return f.Close()
}
