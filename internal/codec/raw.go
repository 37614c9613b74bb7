package codec

import (
	"encoding/binary"
	"math"

	"github.com/neurovol/neurovol/internal/array"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// encodeRaw transposes a's row-major (z fastest) layout into column-major,
// x-fastest wire order and emits xdim*ydim*zdim*sizeof(T) bytes.
//
// Some prior raw-encoding implementations hard-code a uint32 wire
// representation regardless of the block's declared dtype. Since Go
// generics let Encode/Decode be parameterized on the actual element type
// without extra call-site complexity, this dispatches on T directly
// instead of a hard-coded u32 path; round-trips are exact for every
// element type in Numeric.
func encodeRaw[T array.Numeric](a *array.Array[T]) []byte {
	xdim, ydim, zdim := a.Shape()
	size := sizeOf[T]()
	out := make([]byte, xdim*ydim*zdim*size)

	i := 0
	for z := 0; z < zdim; z++ {
		for y := 0; y < ydim; y++ {
			for x := 0; x < xdim; x++ {
				putLE(out[i*size:(i+1)*size], a.At(x, y, z))
				i++
			}
		}
	}
	return out
}

func decodeRaw[T array.Numeric](shape Shape, raw []byte) (*array.Array[T], error) {
	xdim, ydim, zdim := shape[0], shape[1], shape[2]
	size := sizeOf[T]()
	want := xdim * ydim * zdim * size
	if len(raw) < want {
		return nil, apperrors.New(apperrors.CodeDecodeFailure, "raw block payload too short")
	}

	out := array.New[T](xdim, ydim, zdim)
	i := 0
	for z := 0; z < zdim; z++ {
		for y := 0; y < ydim; y++ {
			for x := 0; x < xdim; x++ {
				out.Set(x, y, z, getLE[T](raw[i*size:(i+1)*size]))
				i++
			}
		}
	}
	return out, nil
}

func sizeOf[T array.Numeric]() int {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32, float32:
		return 4
	case uint64:
		return 8
	default:
		return 0
	}
}

func putLE[T array.Numeric](dst []byte, v T) {
	switch val := any(v).(type) {
	case uint8:
		dst[0] = val
	case uint16:
		binary.LittleEndian.PutUint16(dst, val)
	case uint32:
		binary.LittleEndian.PutUint32(dst, val)
	case uint64:
		binary.LittleEndian.PutUint64(dst, val)
	case float32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(val))
	}
}

func getLE[T array.Numeric](src []byte) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return any(src[0]).(T)
	case uint16:
		return any(binary.LittleEndian.Uint16(src)).(T)
	case uint32:
		return any(binary.LittleEndian.Uint32(src)).(T)
	case uint64:
		return any(binary.LittleEndian.Uint64(src)).(T)
	case float32:
		return any(math.Float32frombits(binary.LittleEndian.Uint32(src))).(T)
	}
	return zero
}
