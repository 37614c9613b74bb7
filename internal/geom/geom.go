// Package geom holds pure block-geometry functions mapping block keys,
// chunk sizes, image sizes, and cutouts to block extents and view
// rectangles. Nothing here holds state or touches I/O.
package geom

import (
	"sort"

	"github.com/neurovol/neurovol/internal/morton"
)

// Vec3 is an integer 3-vector used for coordinates and shapes throughout
// the package.
type Vec3 [3]int64

// BlockKey identifies a block by its integer block-space index, plus the
// Morton encoding of that index used for ordering.
type BlockKey struct {
	Morton uint64
	X, Y, Z int64
}

// Less orders two keys by their Morton code.
func (k BlockKey) Less(other BlockKey) bool { return k.Morton < other.Morton }

func newKey(x, y, z int64) BlockKey {
	return BlockKey{
		Morton: morton.Encode(uint32(x), uint32(y), uint32(z)),
		X:      x, Y: y, Z: z,
	}
}

func divFloor(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func divCeil(a, b int64) int64 {
	q := a / b
	if a%b != 0 && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}

// BlocksForBBox enumerates, in Morton order, the keys of every block whose
// region intersects [start, end) for the given chunk shape.
func BlocksForBBox(start, end, chunk Vec3) []BlockKey {
	var kmin, kmax Vec3
	for i := 0; i < 3; i++ {
		kmin[i] = divFloor(start[i], chunk[i])
		kmax[i] = divCeil(end[i], chunk[i])
	}

	keys := make([]BlockKey, 0)
	for x := kmin[0]; x < kmax[0]; x++ {
		for y := kmin[1]; y < kmax[1]; y++ {
			for z := kmin[2]; z < kmax[2]; z++ {
				keys = append(keys, newKey(x, y, z))
			}
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// BlockStart returns the image-space origin of the block's declared
// chunk-shape region.
func BlockStart(key BlockKey, chunk Vec3) Vec3 {
	return Vec3{key.X * chunk[0], key.Y * chunk[1], key.Z * chunk[2]}
}

// BlockEnd returns the image-space end of the block's usable region,
// clipped to the image size when the block overruns it. An axis whose
// image size is zero (or negative) is not clipped, so a zero Vec3 skips
// clipping entirely.
func BlockEnd(key BlockKey, chunk, imageSize Vec3) Vec3 {
	start := BlockStart(key, chunk)
	var end Vec3
	for i := 0; i < 3; i++ {
		full := start[i] + chunk[i]
		if imageSize[i] > 0 && full > imageSize[i] {
			full = imageSize[i]
		}
		end[i] = full
	}
	return end
}

// BlockSizeFromExtents returns be - bs elementwise.
func BlockSizeFromExtents(bs, be Vec3) Vec3 {
	var out Vec3
	for i := 0; i < 3; i++ {
		out[i] = be[i] - bs[i]
	}
	return out
}

// DataView computes the rectangle of overlap between a block's extent
// [bs, be) and a cutout's extent [cs, ce), clipped to both.
func DataView(bs, be, cs, ce Vec3) (start, end Vec3) {
	for i := 0; i < 3; i++ {
		start[i] = max64(bs[i], cs[i])
		end[i] = min64(be[i], ce[i])
	}
	return start, end
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// Sub computes a - b elementwise.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Add computes a + b elementwise.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}
