package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumIsDeterministic(t *testing.T) {
	data := []byte("block payload")
	assert.Equal(t, Sum(data), Sum(data))
}

func TestVerifyDetectsCorruption(t *testing.T) {
	data := []byte("block payload")
	digest := Sum(data)
	assert.True(t, Verify(data, digest))

	corrupted := append([]byte(nil), data...)
	corrupted[0] ^= 0xff
	assert.False(t, Verify(corrupted, digest))
}

func TestStampUnstampRoundTrip(t *testing.T) {
	data := []byte("another payload")
	sb := Stamp(data)
	out, err := Unstamp(sb)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestUnstampRejectsTamperedData(t *testing.T) {
	sb := Stamp([]byte("payload"))
	sb.Data[0] ^= 0xff
	_, err := Unstamp(sb)
	assert.Error(t, err)
}
