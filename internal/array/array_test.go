package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsZeroed(t *testing.T) {
	a := New[uint32](2, 3, 4)
	assert.Equal(t, 24, a.NumElements())
	assert.Equal(t, 96, a.NumBytes())
	for i := 0; i < a.NumElements(); i++ {
		assert.Equal(t, uint32(0), a.AtIndex(i))
	}
}

func TestAtSetRoundTrip(t *testing.T) {
	a := New[uint16](4, 4, 4)
	a.Set(1, 2, 3, 42)
	assert.Equal(t, uint16(42), a.At(1, 2, 3))
}

func TestViewIsWindowOntoOwner(t *testing.T) {
	a := New[uint32](8, 8, 8)
	v := a.View(2, 2, 2, 4, 4, 4)
	xd, yd, zd := v.Shape()
	assert.Equal(t, 4, xd)
	assert.Equal(t, 4, yd)
	assert.Equal(t, 4, zd)
	assert.Equal(t, 3, v.Dimensionality())

	v.Set(0, 0, 0, 99)
	assert.Equal(t, uint32(99), a.At(2, 2, 2))
}

func TestCopyOut(t *testing.T) {
	a := New[uint8](2, 2, 2)
	for i := range a.Raw() {
		a.Raw()[i] = uint8(i)
	}
	dst := make([]uint8, 8)
	a.CopyOut(dst)
	assert.Equal(t, a.Raw(), dst)
}

func TestClear(t *testing.T) {
	a := New[uint32](2, 2, 2)
	for i := range a.Raw() {
		a.Raw()[i] = 7
	}
	a.Clear()
	for _, v := range a.Raw() {
		assert.Equal(t, uint32(0), v)
	}
}
