// Package array implements a fixed-shape, row-major 3D dense buffer of a
// numeric element type, with indexed access, sub-rectangle views, and
// whole-buffer copy in/out. It is the typed payload the block and codec
// packages operate on.
package array

import "math"

func mathFloat32frombits(b uint32) float32 { return math.Float32frombits(b) }

// Numeric is the set of element types a volume may hold.
type Numeric interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32
}

// Array is a fixed-shape 3D buffer in row-major order: linear index
// i = z + zdim*y + zdim*ydim*x.
type Array[T Numeric] struct {
	xdim, ydim, zdim int
	data             []T
}

// New allocates a zero-initialized array of the given shape.
func New[T Numeric](xdim, ydim, zdim int) *Array[T] {
	return &Array[T]{xdim: xdim, ydim: ydim, zdim: zdim, data: make([]T, xdim*ydim*zdim)}
}

// FromBytes constructs an array of the given shape from a byte buffer of
// exactly xdim*ydim*zdim*sizeof(T) bytes, in row-major element order.
func FromBytes[T Numeric](xdim, ydim, zdim int, raw []byte) *Array[T] {
	a := New[T](xdim, ydim, zdim)
	a.copyFromBytes(raw)
	return a
}

// Shape returns (xdim, ydim, zdim).
func (a *Array[T]) Shape() (int, int, int) { return a.xdim, a.ydim, a.zdim }

// Dimensionality is always 3 for Array.
func (a *Array[T]) Dimensionality() int { return 3 }

// NumElements returns xdim*ydim*zdim.
func (a *Array[T]) NumElements() int { return a.xdim * a.ydim * a.zdim }

// NumBytes returns NumElements * sizeof(T).
func (a *Array[T]) NumBytes() int {
	var zero T
	return a.NumElements() * elemSize(zero)
}

func elemSize(v any) int {
	switch v.(type) {
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

func (a *Array[T]) linear(x, y, z int) int {
	return z + a.zdim*y + a.zdim*a.ydim*x
}

// At returns the element at (x, y, z).
func (a *Array[T]) At(x, y, z int) T {
	return a.data[a.linear(x, y, z)]
}

// Set stores v at (x, y, z).
func (a *Array[T]) Set(x, y, z int, v T) {
	a.data[a.linear(x, y, z)] = v
}

// AtIndex returns the element at linear index i.
func (a *Array[T]) AtIndex(i int) T { return a.data[i] }

// Clear zero-fills the buffer.
func (a *Array[T]) Clear() {
	for i := range a.data {
		a.data[i] = 0
	}
}

// Raw exposes the underlying row-major slice. Callers that mutate it are
// responsible for staying within shape bounds.
func (a *Array[T]) Raw() []T { return a.data }

// CopyOut bulk-copies the array's contents into dst, which must be sized
// to at least NumElements.
func (a *Array[T]) CopyOut(dst []T) {
	copy(dst, a.data)
}

// View is a borrowed window into a rectangular sub-region of an Array.
// Reads and writes through the view mutate the underlying array.
type View[T Numeric] struct {
	owner                  *Array[T]
	x0, y0, z0             int
	xdim, ydim, zdim       int
}

// View returns a sub-rectangle view with origin (x0,y0,z0) and the given
// shape. The caller is responsible for ensuring the rectangle lies within
// the array's bounds.
func (a *Array[T]) View(x0, y0, z0, xdim, ydim, zdim int) *View[T] {
	return &View[T]{owner: a, x0: x0, y0: y0, z0: z0, xdim: xdim, ydim: ydim, zdim: zdim}
}

// Shape returns the view's (xdim, ydim, zdim), equal to the rectangle's size.
func (v *View[T]) Shape() (int, int, int) { return v.xdim, v.ydim, v.zdim }

// Dimensionality is always 3 for View.
func (v *View[T]) Dimensionality() int { return 3 }

// At returns the element at local coordinates (x, y, z) within the view.
func (v *View[T]) At(x, y, z int) T {
	return v.owner.At(v.x0+x, v.y0+y, v.z0+z)
}

// Set stores val at local coordinates (x, y, z) within the view.
func (v *View[T]) Set(x, y, z int, val T) {
	v.owner.Set(v.x0+x, v.y0+y, v.z0+z, val)
}

// ToBytes serializes the array's contents to little-endian bytes, in the
// same row-major element order FromBytes expects on the way back in.
func (a *Array[T]) ToBytes() []byte {
	var zero T
	size := elemSize(zero)
	raw := make([]byte, a.NumElements()*size)
	for i, v := range a.data {
		encodeLE(raw[i*size:i*size+size], v)
	}
	return raw
}

func encodeLE[T Numeric](dst []byte, v T) {
	if f, isFloat := any(v).(float32); isFloat {
		bits := math.Float32bits(f)
		dst[0] = byte(bits)
		dst[1] = byte(bits >> 8)
		dst[2] = byte(bits >> 16)
		dst[3] = byte(bits >> 24)
		return
	}
	u := uint64(0)
	switch x := any(v).(type) {
	case uint8:
		u = uint64(x)
	case uint16:
		u = uint64(x)
	case uint32:
		u = uint64(x)
	case uint64:
		u = x
	}
	for i := range dst {
		dst[i] = byte(u >> (8 * uint(i)))
	}
}

func (a *Array[T]) copyFromBytes(raw []byte) {
	var zero T
	size := elemSize(zero)
	if size == 0 || len(raw) < a.NumElements()*size {
		return
	}
	for i := 0; i < a.NumElements(); i++ {
		off := i * size
		a.data[i] = decodeLE[T](raw[off : off+size])
	}
}

func decodeLE[T Numeric](b []byte) T {
	var zero T
	if _, isFloat := any(zero).(float32); isFloat {
		bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		f := mathFloat32frombits(bits)
		return any(f).(T)
	}
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return T(v)
}
