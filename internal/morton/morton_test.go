package morton

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][3]uint32{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{5, 9, 3},
		{MaxCoord - 1, MaxCoord - 1, MaxCoord - 1},
		{123456, 654321, 42},
	}
	for _, c := range cases {
		key := Encode(c[0], c[1], c[2])
		x, y, z := Decode(key)
		assert.Equal(t, c[0], x)
		assert.Equal(t, c[1], y)
		assert.Equal(t, c[2], z)
	}
}

func TestEncodeOrderingPreservesLocality(t *testing.T) {
	// Neighboring coordinates along x should produce a strictly larger key.
	a := Encode(1, 1, 1)
	b := Encode(2, 1, 1)
	assert.Less(t, a, b)
}

func TestEncodeTruncatesOutOfRange(t *testing.T) {
	key := Encode(MaxCoord, 0, 0)
	x, _, _ := Decode(key)
	assert.Equal(t, uint32(0), x)
}
