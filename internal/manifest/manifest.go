// Package manifest holds the value types describing a volume: its scales,
// element datatype, and channel layout. The core consumes a validated
// Manifest and never mutates it; reading/writing manifest JSON files is a
// collaborator's job, not this package's.
package manifest

import (
	"encoding/json"

	"github.com/neurovol/neurovol/internal/codec"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// Scale is one resolution level of a volume.
type Scale struct {
	Key                           string    `json:"key"`
	Size                          [3]int64  `json:"size"`
	VoxelOffset                   [3]int64  `json:"voxel_offset"`
	Resolution                    [3]float64 `json:"resolution"`
	ChunkSizes                    [][3]int64 `json:"chunk_sizes"`
	Encoding                      string    `json:"encoding"`
	CompressedSegmentationBlockSize [3]int64 `json:"compressed_segmentation_block_size,omitempty"`
}

// ChunkSize returns the chunk shape this engine selects for the scale: the
// first candidate in ChunkSizes. Callers are expected to log a warning
// when len(ChunkSizes) > 1; the rest are logged and otherwise unused.
func (s Scale) ChunkSize() [3]int64 {
	return s.ChunkSizes[0]
}

// raw is the JSON wire shape: top-level "type"/"data_type"/"num_channels"/
// "scales"/"mesh".
type raw struct {
	Type         string  `json:"type"`
	DataType     string  `json:"data_type"`
	NumChannels  int     `json:"num_channels"`
	Scales       []Scale `json:"scales"`
	Mesh         string  `json:"mesh,omitempty"`
}

// Manifest is the immutable description of a volume.
type Manifest struct {
	Type        string
	DataType    codec.DataType
	NumChannels int
	Scales      []Scale
	Mesh        string
}

// Parse decodes and validates manifest JSON bytes.
func Parse(data []byte) (*Manifest, error) {
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid manifest JSON", err)
	}

	if r.Type != "image" && r.Type != "segmentation" {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "manifest type must be \"image\" or \"segmentation\"")
	}
	if r.Type == "segmentation" && r.NumChannels != 1 {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "segmentation volumes must have num_channels == 1")
	}
	if len(r.Scales) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "manifest must declare at least one scale")
	}
	for i, s := range r.Scales {
		if len(s.ChunkSizes) == 0 {
			return nil, apperrors.New(apperrors.CodeInvalidInput, "scale "+s.Key+" has no chunk_sizes")
		}
		if _, err := codec.ParseEncoding(s.Encoding); err != nil {
			return nil, err
		}
		if i > 0 {
			for axis := 0; axis < 3; axis++ {
				if s.Resolution[axis] < r.Scales[i-1].Resolution[axis] {
					return nil, apperrors.New(apperrors.CodeInvalidInput, "scale resolutions must be non-decreasing along the scale sequence")
				}
			}
		}
	}

	dt, err := codec.ParseDataType(r.DataType)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		Type:        r.Type,
		DataType:    dt,
		NumChannels: r.NumChannels,
		Scales:      r.Scales,
		Mesh:        r.Mesh,
	}, nil
}

// ScaleByKey finds a scale by its key.
func (m *Manifest) ScaleByKey(key string) (Scale, bool) {
	for _, s := range m.Scales {
		if s.Key == key {
			return s, true
		}
	}
	return Scale{}, false
}
