package blockindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neurovol/neurovol/internal/block"
	"github.com/neurovol/neurovol/internal/codec"
	"github.com/neurovol/neurovol/internal/geom"
)

type memStore struct{ data map[string][]byte }

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }
func (m *memStore) ReadBlock(ctx context.Context, scaleKey, name string) ([]byte, bool, error) {
	raw, ok := m.data[scaleKey+"/"+name]
	return raw, ok, nil
}
func (m *memStore) WriteBlock(ctx context.Context, scaleKey, name string, data []byte) error {
	m.data[scaleKey+"/"+name] = data
	return nil
}

func TestInsertFind(t *testing.T) {
	idx := New()
	key := geom.BlockKey{Morton: 5, X: 1, Y: 0, Z: 1}
	b := block.New(newMemStore(), "s0", "blk", 2, 2, 2, codec.U8, codec.Raw, block.Settings{})
	idx.Insert(key, b)

	found, ok := idx.Find(key)
	assert.True(t, ok)
	assert.Same(t, b, found)
	assert.Equal(t, 1, idx.Len())
}

func TestKeysAreMortonOrdered(t *testing.T) {
	idx := New()
	store := newMemStore()
	k1 := geom.BlockKey{Morton: 9, X: 3, Y: 0, Z: 0}
	k2 := geom.BlockKey{Morton: 2, X: 0, Y: 1, Z: 0}
	idx.Insert(k1, block.New(store, "s0", "a", 1, 1, 1, codec.U8, codec.Raw, block.Settings{}))
	idx.Insert(k2, block.New(store, "s0", "b", 1, 1, 1, codec.U8, codec.Raw, block.Settings{}))

	keys := idx.Keys()
	assert.Equal(t, uint64(2), keys[0].Morton)
	assert.Equal(t, uint64(9), keys[1].Morton)
}

func TestFlushAllSavesDirtyBlocks(t *testing.T) {
	idx := New()
	store := newMemStore()
	key := geom.BlockKey{Morton: 1, X: 1, Y: 0, Z: 0}
	b := block.New(store, "s0", "blk", 2, 2, 2, codec.U8, codec.Raw, block.Settings{})
	b.ZeroBlock()
	idx.Insert(key, b)

	assert.NoError(t, idx.FlushAll(context.Background()))
	assert.False(t, b.IsDirty())
}
