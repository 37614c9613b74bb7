// Package blockindex implements the per-scale ordered mapping from block
// key to Block, ordered by Morton code. The index owns its blocks.
package blockindex

import (
	"context"
	"sort"

	"github.com/neurovol/neurovol/internal/block"
	"github.com/neurovol/neurovol/internal/geom"
)

// Index is an ordered map of BlockKey to *block.Block, keyed by Morton code.
type Index struct {
	blocks map[uint64]*block.Block
	keys   map[uint64]geom.BlockKey
}

// New returns an empty Index.
func New() *Index {
	return &Index{blocks: make(map[uint64]*block.Block), keys: make(map[uint64]geom.BlockKey)}
}

// Find returns the block at key, if present.
func (idx *Index) Find(key geom.BlockKey) (*block.Block, bool) {
	b, ok := idx.blocks[key.Morton]
	return b, ok
}

// Insert adds or replaces the block at key. The index owns b from this
// point on.
func (idx *Index) Insert(key geom.BlockKey, b *block.Block) {
	idx.blocks[key.Morton] = b
	idx.keys[key.Morton] = key
}

// Len returns the number of blocks currently indexed.
func (idx *Index) Len() int { return len(idx.blocks) }

// Keys returns all keys in Morton order.
func (idx *Index) Keys() []geom.BlockKey {
	out := make([]geom.BlockKey, 0, len(idx.keys))
	for _, k := range idx.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// FlushAll saves every dirty block in Morton order, used when flushing
// the index at shutdown. The first error halts iteration and is returned;
// blocks already flushed remain flushed (no rollback).
func (idx *Index) FlushAll(ctx context.Context) error {
	return idx.FlushAllProgress(ctx, nil)
}

// FlushAllProgress is FlushAll with an optional callback invoked after
// each block is visited (saved or skipped because it wasn't dirty),
// reporting (blocks visited so far, total blocks in the index). Used by
// the ingest CLI to drive a live progress view.
func (idx *Index) FlushAllProgress(ctx context.Context, onBlock func(done, total int)) error {
	keys := idx.Keys()
	for i, key := range keys {
		b := idx.blocks[key.Morton]
		if b.IsDirty() {
			if err := b.Save(ctx); err != nil {
				return err
			}
		}
		if onBlock != nil {
			onBlock(i+1, len(keys))
		}
	}
	return nil
}
