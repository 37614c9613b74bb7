// Package engine implements the public Put/Get contract: translating an
// arbitrary cutout into the set of blocks it touches, resolving each
// block through a per-scale BlockIndex and a DataStore, and delegating
// the typed read/write to the block package.
package engine

import (
	"context"

	"github.com/neurovol/neurovol/internal/array"
	"github.com/neurovol/neurovol/internal/block"
	"github.com/neurovol/neurovol/internal/blockindex"
	"github.com/neurovol/neurovol/internal/codec"
	"github.com/neurovol/neurovol/internal/geom"
	"github.com/neurovol/neurovol/internal/logger"
	"github.com/neurovol/neurovol/internal/manifest"
	"github.com/neurovol/neurovol/internal/store"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// DataStore is everything the engine needs from a data store: the
// block.Store contract used by Block.Load/Save directly, plus lookup and
// creation of Blocks by name.
type DataStore interface {
	block.Store
	GetBlock(ctx context.Context, scaleKey, name string, xdim, ydim, zdim int, dtype codec.DataType, encoding codec.Encoding, settings block.Settings) (*block.Block, bool, error)
	CreateBlock(ctx context.Context, scaleKey, name string, xdim, ydim, zdim int, dtype codec.DataType, encoding codec.Encoding, settings block.Settings) (*block.Block, error)
}

// Settings carries engine-wide block storage settings (currently just
// gzip wrapping; per-scale overrides are not modeled).
type Settings struct {
	Gzip bool
}

// Range is an inclusive-exclusive [start, end) coordinate range along one
// axis, matching a cutout's xrng/yrng/zrng.
type Range [2]int64

// Engine is the bound (manifest, data store) pair plus one BlockIndex per
// scale. An Engine is not safe for concurrent use: callers must serialize
// access to a single instance.
type Engine struct {
	manifest *manifest.Manifest
	store    DataStore
	settings Settings
	indices  map[string]*blockindex.Index
}

// New builds an Engine with an empty BlockIndex for every scale declared
// in manifest.
func New(m *manifest.Manifest, store DataStore, settings Settings) *Engine {
	indices := make(map[string]*blockindex.Index, len(m.Scales))
	for _, scale := range m.Scales {
		indices[scale.Key] = blockindex.New()
	}
	return &Engine{manifest: m, store: store, settings: settings, indices: indices}
}

func (e *Engine) scale(scaleKey string) (manifest.Scale, error) {
	scale, ok := e.manifest.ScaleByKey(scaleKey)
	if !ok {
		return manifest.Scale{}, apperrors.New(apperrors.CodeUnknownScale, "unknown scale: "+scaleKey).
			WithDetails("scale_key", scaleKey)
	}
	return scale, nil
}

func (e *Engine) blockSettings() block.Settings { return block.Settings{Gzip: e.settings.Gzip} }

type cutoutPlan struct {
	scale       manifest.Scale
	encoding    codec.Encoding
	chunk       geom.Vec3
	imageSize   geom.Vec3
	voxelOffset geom.Vec3
	start, end  geom.Vec3
	index       *blockindex.Index
}

func (e *Engine) plan(scaleKey string, xrng, yrng, zrng Range, subtractVoxelOffset bool) (*cutoutPlan, error) {
	scale, err := e.scale(scaleKey)
	if err != nil {
		return nil, err
	}
	index := e.indices[scaleKey]

	start := geom.Vec3{xrng[0], yrng[0], zrng[0]}
	end := geom.Vec3{xrng[1], yrng[1], zrng[1]}
	voxelOffset := geom.Vec3{scale.VoxelOffset[0], scale.VoxelOffset[1], scale.VoxelOffset[2]}
	if subtractVoxelOffset {
		start = start.Sub(voxelOffset)
		end = end.Sub(voxelOffset)
	}

	chunkSizes := scale.ChunkSizes
	if len(chunkSizes) > 1 {
		logger.Warn("engine: scale %s declares %d chunk_sizes, using the first; ignoring %v", scaleKey, len(chunkSizes), chunkSizes[1:])
	}
	chunk := geom.Vec3{scale.ChunkSize()[0], scale.ChunkSize()[1], scale.ChunkSize()[2]}
	imageSize := geom.Vec3{scale.Size[0], scale.Size[1], scale.Size[2]}

	encoding, err := codec.ParseEncoding(scale.Encoding)
	if err != nil {
		return nil, err
	}

	return &cutoutPlan{
		scale: scale, encoding: encoding, chunk: chunk, imageSize: imageSize,
		voxelOffset: voxelOffset, start: start, end: end, index: index,
	}, nil
}

// Put writes data into the cutout [xrng, yrng, zrng) at scaleKey,
// creating any block that does not yet exist. Block updates happen in
// Morton order; an error on any block halts the remaining updates and is
// returned.
func Put[T array.Numeric](ctx context.Context, e *Engine, data *array.Array[T], xrng, yrng, zrng Range, scaleKey string, subtractVoxelOffset bool) error {
	p, err := e.plan(scaleKey, xrng, yrng, zrng, subtractVoxelOffset)
	if err != nil {
		return err
	}

	dtype := e.manifest.DataType
	for _, key := range geom.BlocksForBBox(p.start, p.end, p.chunk) {
		blockStart := geom.BlockStart(key, p.chunk)
		blockEnd := geom.BlockEnd(key, p.chunk, p.imageSize)
		blockSize := geom.BlockSizeFromExtents(blockStart, blockEnd)

		restrictedStart, restrictedEnd := geom.DataView(blockStart, blockEnd, p.start, p.end)
		inputView := restrictedStart.Sub(p.start)
		blockOffset := restrictedStart.Sub(blockStart)

		b, found := p.index.Find(key)
		if !found {
			name := store.BlockName(blockStart, blockEnd, p.voxelOffset)
			b, err = e.store.CreateBlock(ctx, scaleKey, name, int(blockSize[0]), int(blockSize[1]), int(blockSize[2]), dtype, p.encoding, e.blockSettings())
			if err != nil {
				return err
			}
			p.index.Insert(key, b)
		}

		shapeX := int(restrictedEnd[0] - restrictedStart[0])
		shapeY := int(restrictedEnd[1] - restrictedStart[1])
		shapeZ := int(restrictedEnd[2] - restrictedStart[2])
		view := data.View(int(inputView[0]), int(inputView[1]), int(inputView[2]), shapeX, shapeY, shapeZ)

		if err := block.Add(ctx, b, view, int(blockOffset[0]), int(blockOffset[1]), int(blockOffset[2]), false); err != nil {
			return err
		}
	}
	return nil
}

// Get reads the cutout [xrng, yrng, zrng) at scaleKey into data. Data is
// added to, not overwritten; callers needing pure replacement must zero
// data first. Blocks with no backing object are treated as logically
// zero and skipped.
func Get[T array.Numeric](ctx context.Context, e *Engine, data *array.Array[T], xrng, yrng, zrng Range, scaleKey string, subtractVoxelOffset bool) error {
	p, err := e.plan(scaleKey, xrng, yrng, zrng, subtractVoxelOffset)
	if err != nil {
		return err
	}

	dtype := e.manifest.DataType
	for _, key := range geom.BlocksForBBox(p.start, p.end, p.chunk) {
		blockStart := geom.BlockStart(key, p.chunk)
		blockEnd := geom.BlockEnd(key, p.chunk, p.imageSize)
		blockSize := geom.BlockSizeFromExtents(blockStart, blockEnd)

		restrictedStart, restrictedEnd := geom.DataView(blockStart, blockEnd, p.start, p.end)
		inputView := restrictedStart.Sub(p.start)
		blockOffset := restrictedStart.Sub(blockStart)

		b, found := p.index.Find(key)
		if !found {
			name := store.BlockName(blockStart, blockEnd, p.voxelOffset)
			var gotBlock *block.Block
			gotBlock, found, err = e.store.GetBlock(ctx, scaleKey, name, int(blockSize[0]), int(blockSize[1]), int(blockSize[2]), dtype, p.encoding, e.blockSettings())
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			p.index.Insert(key, gotBlock)
			b = gotBlock
		}

		shapeX := int(restrictedEnd[0] - restrictedStart[0])
		shapeY := int(restrictedEnd[1] - restrictedStart[1])
		shapeZ := int(restrictedEnd[2] - restrictedStart[2])
		view := data.View(int(inputView[0]), int(inputView[1]), int(inputView[2]), shapeX, shapeY, shapeZ)

		if err := block.Get(ctx, b, view, int(blockOffset[0]), int(blockOffset[1]), int(blockOffset[2])); err != nil {
			return err
		}
	}
	return nil
}

// Manifest returns the manifest the engine was built over, for callers
// that need to enumerate scales without duplicating engine state (e.g.
// an admin console listing).
func (e *Engine) Manifest() *manifest.Manifest { return e.manifest }

// IndexLen returns the number of blocks currently indexed in memory for
// scaleKey, or 0 if scaleKey is unknown. Reflects only blocks touched by
// a Put/Get so far in this process, not the total block count in the
// backing store.
func (e *Engine) IndexLen(scaleKey string) int {
	idx, ok := e.indices[scaleKey]
	if !ok {
		return 0
	}
	return idx.Len()
}

// FlushAll saves every dirty block across every scale's index, in Morton
// order within each scale. Used at shutdown and by the CLI's ingest
// command after the last Put.
func (e *Engine) FlushAll(ctx context.Context) error {
	for _, scale := range e.manifest.Scales {
		if err := e.indices[scale.Key].FlushAll(ctx); err != nil {
			return err
		}
	}
	return nil
}

// FlushScaleProgress saves every dirty block indexed for scaleKey, in
// Morton order, invoking onBlock after each block is visited. Used by
// the ingest CLI's live progress view, which otherwise has no way to
// observe per-block flush completion.
func (e *Engine) FlushScaleProgress(ctx context.Context, scaleKey string, onBlock func(done, total int)) error {
	idx, ok := e.indices[scaleKey]
	if !ok {
		return apperrors.New(apperrors.CodeUnknownScale, "unknown scale: "+scaleKey).WithDetails("scale_key", scaleKey)
	}
	return idx.FlushAllProgress(ctx, onBlock)
}
