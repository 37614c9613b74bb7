// Package codec encodes and decodes a block's typed payload to and from
// the byte representation declared by its scale's encoding.
package codec

import (
	"github.com/neurovol/neurovol/internal/array"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// Encoding identifies the wire representation of a block's payload.
type Encoding int

const (
	Raw Encoding = iota
	CompressedSegmentation
	JPEG
)

// DataType identifies a block's element type.
type DataType int

const (
	U8 DataType = iota
	U16
	U32
	U64
	F32
)

// ParseEncoding maps a manifest encoding string to an Encoding value.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "raw":
		return Raw, nil
	case "compressed_segmentation":
		return CompressedSegmentation, nil
	case "jpeg":
		return JPEG, nil
	default:
		return 0, apperrors.New(apperrors.CodeUnknownEncoding, "unknown encoding: "+s)
	}
}

// String returns the manifest wire string for dt (the inverse of
// ParseDataType).
func (dt DataType) String() string {
	switch dt {
	case U8:
		return "uint8"
	case U16:
		return "uint16"
	case U32:
		return "uint32"
	case U64:
		return "uint64"
	case F32:
		return "float32"
	default:
		return "unknown"
	}
}

// ParseDataType maps a manifest data_type string to a DataType value.
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "uint8":
		return U8, nil
	case "uint16":
		return U16, nil
	case "uint32":
		return U32, nil
	case "uint64":
		return U64, nil
	case "float32":
		return F32, nil
	default:
		return 0, apperrors.New(apperrors.CodeUnknownDataType, "unknown data_type: "+s)
	}
}

// Shape is the (xdim, ydim, zdim) of a block's payload.
type Shape [3]int

// Encode serializes a, whose declared element type is dt, into bytes per
// enc's wire format.
func Encode[T array.Numeric](enc Encoding, dt DataType, a *array.Array[T]) ([]byte, error) {
	switch enc {
	case Raw:
		return encodeRaw(a), nil
	case CompressedSegmentation:
		return encodeCompressedSegmentation(dt, a)
	case JPEG:
		return encodeJPEG(dt, a)
	default:
		return nil, apperrors.New(apperrors.CodeUnknownEncoding, "unknown encoding")
	}
}

// Decode deserializes raw bytes into a row-major array of shape/dtype per
// enc's wire format.
func Decode[T array.Numeric](enc Encoding, dt DataType, shape Shape, raw []byte) (*array.Array[T], error) {
	switch enc {
	case Raw:
		return decodeRaw[T](shape, raw)
	case CompressedSegmentation:
		return decodeCompressedSegmentation[T](dt, shape, raw)
	case JPEG:
		return decodeJPEG[T](shape, raw)
	default:
		return nil, apperrors.New(apperrors.CodeUnknownEncoding, "unknown encoding")
	}
}
