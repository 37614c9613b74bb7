package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleJSON = `{
	"type": "segmentation",
	"data_type": "uint32",
	"num_channels": 1,
	"scales": [
		{
			"key": "s0",
			"size": [1024, 1025, 64],
			"voxel_offset": [0, 1, 0],
			"resolution": [8, 8, 8],
			"chunk_sizes": [[128, 128, 16]],
			"encoding": "raw"
		},
		{
			"key": "s1",
			"size": [512, 513, 32],
			"voxel_offset": [0, 1, 0],
			"resolution": [16, 16, 16],
			"chunk_sizes": [[128, 128, 16]],
			"encoding": "compressed_segmentation",
			"compressed_segmentation_block_size": [8, 8, 8]
		}
	]
}`

func TestParseValidManifest(t *testing.T) {
	m, err := Parse([]byte(sampleJSON))
	assert.NoError(t, err)
	assert.Equal(t, "segmentation", m.Type)
	assert.Len(t, m.Scales, 2)

	s0, ok := m.ScaleByKey("s0")
	assert.True(t, ok)
	assert.Equal(t, [3]int64{128, 128, 16}, s0.ChunkSize())
}

func TestParseRejectsSegmentationWithMultipleChannels(t *testing.T) {
	bad := `{"type":"segmentation","data_type":"uint32","num_channels":2,"scales":[{"key":"s0","size":[1,1,1],"chunk_sizes":[[1,1,1]],"encoding":"raw"}]}`
	_, err := Parse([]byte(bad))
	assert.Error(t, err)
}

func TestParseRejectsDecreasingResolution(t *testing.T) {
	bad := `{"type":"image","data_type":"uint8","num_channels":1,"scales":[
		{"key":"s0","size":[1,1,1],"resolution":[8,8,8],"chunk_sizes":[[1,1,1]],"encoding":"raw"},
		{"key":"s1","size":[1,1,1],"resolution":[4,4,4],"chunk_sizes":[[1,1,1]],"encoding":"raw"}
	]}`
	_, err := Parse([]byte(bad))
	assert.Error(t, err)
}

func TestParseRejectsUnknownEncoding(t *testing.T) {
	bad := `{"type":"image","data_type":"uint8","num_channels":1,"scales":[{"key":"s0","size":[1,1,1],"chunk_sizes":[[1,1,1]],"encoding":"lzma"}]}`
	_, err := Parse([]byte(bad))
	assert.Error(t, err)
}
