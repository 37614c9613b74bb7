package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/neurovol/neurovol/internal/array"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// encodeJPEG supports grayscale u8 image scales only; any other dtype is
// unsupported. Decode is always unsupported, per spec.
func encodeJPEG[T array.Numeric](dt DataType, a *array.Array[T]) ([]byte, error) {
	if dt != U8 {
		return nil, apperrors.New(apperrors.CodeUnsupported, "jpeg encode only supports uint8 grayscale")
	}
	xdim, ydim, zdim := a.Shape()
	if zdim != 1 {
		return nil, apperrors.New(apperrors.CodeUnsupported, "jpeg encode only supports single-slice blocks")
	}

	img := image.NewGray(image.Rect(0, 0, xdim, ydim))
	for y := 0; y < ydim; y++ {
		for x := 0; x < xdim; x++ {
			img.SetGray(x, y, color.Gray{Y: grayOf(a.At(x, y, 0))})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeEncodeFailure, "jpeg encode failed", err)
	}
	return buf.Bytes(), nil
}

func decodeJPEG[T array.Numeric](Shape, []byte) (*array.Array[T], error) {
	return nil, apperrors.New(apperrors.CodeUnsupported, "jpeg decode is not supported")
}

func grayOf[T array.Numeric](v T) uint8 {
	return uint8(any(v).(uint8))
}
