package codec

import (
	"encoding/binary"

	"github.com/neurovol/neurovol/internal/array"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// subBlockSize is the fixed sub-block edge length the compressed-
// segmentation codec groups voxels into, per spec.
const subBlockSize = 8

// encodeCompressedSegmentation only operates on u32/u64 payloads. It
// treats the buffer as a single-channel volume with the block's declared
// (xdim, ydim, zdim) and fixed 8x8x8 sub-blocks. The output is a
// little-endian byte stream: a u32 shape header, then for each sub-block
// a u32 value count, a table of u32 values, and one uint16 table index
// per voxel (an 8x8x8 sub-block has at most 512 distinct values, well
// under 65536). Values are stored as uint32, so a u64 payload round-trips
// exactly only when every value fits in 32 bits; higher bits are dropped.
func encodeCompressedSegmentation[T array.Numeric](dt DataType, a *array.Array[T]) ([]byte, error) {
	if dt != U32 && dt != U64 {
		return nil, apperrors.New(apperrors.CodeEncodingMismatch, "compressed_segmentation requires uint32 or uint64 dtype")
	}

	xdim, ydim, zdim := a.Shape()
	flat := toXFastest(a, xdim, ydim, zdim)

	var out []byte
	out = appendU32(out, uint32(xdim))
	out = appendU32(out, uint32(ydim))
	out = appendU32(out, uint32(zdim))

	forEachSubBlock(xdim, ydim, zdim, func(x0, y0, z0, sx, sy, sz int) {
		values, indices := buildSubBlockTable(flat, xdim, ydim, x0, y0, z0, sx, sy, sz)
		out = appendU32(out, uint32(len(values)))
		for _, v := range values {
			out = appendU32(out, v)
		}
		for _, idx := range indices {
			out = appendU16(out, idx)
		}
	})

	return out, nil
}

// decodeCompressedSegmentation inverts encodeCompressedSegmentation,
// returning a row-major array.Array[T] after re-laying the decoded
// x-fastest volume (per spec: dst[z + zdim*y + zdim*ydim*x] =
// src[z*xdim*ydim + y*xdim + x]).
func decodeCompressedSegmentation[T array.Numeric](dt DataType, shape Shape, raw []byte) (*array.Array[T], error) {
	if dt != U32 && dt != U64 {
		return nil, apperrors.New(apperrors.CodeEncodingMismatch, "compressed_segmentation requires uint32 or uint64 dtype")
	}
	if len(raw) < 12 {
		return nil, apperrors.New(apperrors.CodeDecodeFailure, "compressed_segmentation payload too short")
	}

	xdim := int(binary.LittleEndian.Uint32(raw[0:4]))
	ydim := int(binary.LittleEndian.Uint32(raw[4:8]))
	zdim := int(binary.LittleEndian.Uint32(raw[8:12]))
	if Shape{xdim, ydim, zdim} != shape {
		return nil, apperrors.New(apperrors.CodeDecodeFailure, "compressed_segmentation shape mismatch")
	}

	flat := make([]uint32, xdim*ydim*zdim)
	off := 12
	var readErr error
	forEachSubBlock(xdim, ydim, zdim, func(x0, y0, z0, sx, sy, sz int) {
		if readErr != nil {
			return
		}
		if off+4 > len(raw) {
			readErr = apperrors.New(apperrors.CodeDecodeFailure, "truncated sub-block header")
			return
		}
		n := int(binary.LittleEndian.Uint32(raw[off : off+4]))
		off += 4
		if off+4*n > len(raw) {
			readErr = apperrors.New(apperrors.CodeDecodeFailure, "truncated sub-block value table")
			return
		}
		values := make([]uint32, n)
		for i := 0; i < n; i++ {
			values[i] = binary.LittleEndian.Uint32(raw[off : off+4])
			off += 4
		}
		count := sx * sy * sz
		if off+2*count > len(raw) {
			readErr = apperrors.New(apperrors.CodeDecodeFailure, "truncated sub-block indices")
			return
		}
		i := 0
		for dz := 0; dz < sz; dz++ {
			for dy := 0; dy < sy; dy++ {
				for dx := 0; dx < sx; dx++ {
					idx := binary.LittleEndian.Uint16(raw[off : off+2])
					off += 2
					x, y, z := x0+dx, y0+dy, z0+dz
					flat[xFastestIndex(xdim, ydim, x, y, z)] = values[idx]
					i++
				}
			}
		}
	})
	if readErr != nil {
		return nil, readErr
	}

	out := array.New[T](xdim, ydim, zdim)
	for z := 0; z < zdim; z++ {
		for y := 0; y < ydim; y++ {
			for x := 0; x < xdim; x++ {
				out.Set(x, y, z, T(flat[xFastestIndex(xdim, ydim, x, y, z)]))
			}
		}
	}
	return out, nil
}

func xFastestIndex(xdim, ydim, x, y, z int) int {
	return z*xdim*ydim + y*xdim + x
}

func toXFastest[T array.Numeric](a *array.Array[T], xdim, ydim, zdim int) []uint32 {
	flat := make([]uint32, xdim*ydim*zdim)
	for z := 0; z < zdim; z++ {
		for y := 0; y < ydim; y++ {
			for x := 0; x < xdim; x++ {
				flat[xFastestIndex(xdim, ydim, x, y, z)] = uint32(a.At(x, y, z))
			}
		}
	}
	return flat
}

func forEachSubBlock(xdim, ydim, zdim int, fn func(x0, y0, z0, sx, sy, sz int)) {
	for z0 := 0; z0 < zdim; z0 += subBlockSize {
		sz := minInt(subBlockSize, zdim-z0)
		for y0 := 0; y0 < ydim; y0 += subBlockSize {
			sy := minInt(subBlockSize, ydim-y0)
			for x0 := 0; x0 < xdim; x0 += subBlockSize {
				sx := minInt(subBlockSize, xdim-x0)
				fn(x0, y0, z0, sx, sy, sz)
			}
		}
	}
}

func buildSubBlockTable(flat []uint32, xdim, ydim, x0, y0, z0, sx, sy, sz int) ([]uint32, []uint16) {
	lookup := make(map[uint32]uint16)
	values := make([]uint32, 0, sx*sy*sz)
	indices := make([]uint16, 0, sx*sy*sz)

	for dz := 0; dz < sz; dz++ {
		for dy := 0; dy < sy; dy++ {
			for dx := 0; dx < sx; dx++ {
				v := flat[xFastestIndex(xdim, ydim, x0+dx, y0+dy, z0+dz)]
				idx, ok := lookup[v]
				if !ok {
					idx = uint16(len(values))
					lookup[v] = idx
					values = append(values, v)
				}
				indices = append(indices, idx)
			}
		}
	}
	return values, indices
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}
