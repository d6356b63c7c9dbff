package noise

import "math"

// Cellular2D returns the distance from (x, z) to the nearest jittered feature
// point, one point per unit cell. Distances past 1 are clamped.
func (f *Field) Cellular2D(x, z float64) float64 {
	cx := int64(math.Floor(x))
	cz := int64(math.Floor(z))

	best := math.MaxFloat64
	for dz := int64(-1); dz <= 1; dz++ {
		for dx := int64(-1); dx <= 1; dx++ {
			gx, gz := cx+dx, cz+dz
			h := hash2(gx, gz, f.seed)
			px := float64(gx) + float64(h&0xFFFF)/0xFFFF
			pz := float64(gz) + float64((h>>16)&0xFFFF)/0xFFFF
			ddx, ddz := px-x, pz-z
			if d := ddx*ddx + ddz*ddz; d < best {
				best = d
			}
		}
	}
	return clamp01(math.Sqrt(best))
}

// hash2 is a SplitMix64 style integer hash, stable across runs.
func hash2(x, z, seed int64) uint64 {
	v := uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}
