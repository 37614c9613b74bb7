package block

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neurovol/neurovol/internal/array"
	"github.com/neurovol/neurovol/internal/codec"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) key(scaleKey, name string) string { return scaleKey + "/" + name }

func (m *memStore) ReadBlock(ctx context.Context, scaleKey, name string) ([]byte, bool, error) {
	raw, ok := m.data[m.key(scaleKey, name)]
	return raw, ok, nil
}

func (m *memStore) WriteBlock(ctx context.Context, scaleKey, name string, data []byte) error {
	m.data[m.key(scaleKey, name)] = append([]byte(nil), data...)
	return nil
}

func TestZeroBlockSetsLoadedAndDirty(t *testing.T) {
	b := New(newMemStore(), "s0", "blk", 4, 4, 4, codec.U32, codec.Raw, Settings{})
	b.ZeroBlock()
	assert.True(t, b.IsLoaded())
	assert.True(t, b.IsDirty())
}

func TestAddOverwriteThenGetRoundTrips(t *testing.T) {
	store := newMemStore()
	b := New(store, "s0", "blk", 4, 4, 4, codec.U32, codec.Raw, Settings{})
	b.ZeroBlock()

	src := array.New[uint32](2, 2, 2)
	src.Set(0, 0, 0, 11)
	src.Set(1, 1, 1, 22)
	view := src.View(0, 0, 0, 2, 2, 2)

	ctx := context.Background()
	assert.NoError(t, Add(ctx, b, view, 1, 1, 1, true))
	assert.True(t, b.IsDirty())

	dst := array.New[uint32](2, 2, 2)
	dstView := dst.View(0, 0, 0, 2, 2, 2)
	assert.NoError(t, Get(ctx, b, dstView, 1, 1, 1))
	assert.Equal(t, uint32(11), dst.At(0, 0, 0))
	assert.Equal(t, uint32(22), dst.At(1, 1, 1))
}

func TestSaveClearsDirtyAndLoadRoundTrips(t *testing.T) {
	store := newMemStore()
	b := New(store, "s0", "blk", 2, 2, 2, codec.U16, codec.Raw, Settings{})
	b.ZeroBlock()

	src := array.New[uint16](2, 2, 2)
	src.Set(0, 0, 0, 5)
	ctx := context.Background()
	assert.NoError(t, Add(ctx, b, src.View(0, 0, 0, 2, 2, 2), 0, 0, 0, true))
	assert.NoError(t, b.Save(ctx))
	assert.False(t, b.IsDirty())

	b2 := New(store, "s0", "blk", 2, 2, 2, codec.U16, codec.Raw, Settings{})
	assert.NoError(t, b2.Load(ctx))
	assert.True(t, b2.IsLoaded())
	dst := array.New[uint16](2, 2, 2)
	assert.NoError(t, Get(ctx, b2, dst.View(0, 0, 0, 2, 2, 2), 0, 0, 0))
	assert.Equal(t, uint16(5), dst.At(0, 0, 0))
}

func TestSaveWithGzipRoundTrips(t *testing.T) {
	store := newMemStore()
	settings := Settings{Gzip: true}
	b := New(store, "s0", "blk", 2, 2, 2, codec.U8, codec.Raw, settings)
	b.ZeroBlock()
	ctx := context.Background()
	assert.NoError(t, b.Save(ctx))

	b2 := New(store, "s0", "blk", 2, 2, 2, codec.U8, codec.Raw, settings)
	assert.NoError(t, b2.Load(ctx))
	assert.True(t, b2.IsLoaded())
}

func TestAddTypeMismatch(t *testing.T) {
	store := newMemStore()
	b := New(store, "s0", "blk", 2, 2, 2, codec.U32, codec.Raw, Settings{})
	b.ZeroBlock()

	wrong := array.New[uint8](2, 2, 2)
	ctx := context.Background()
	err := Add(ctx, b, wrong.View(0, 0, 0, 2, 2, 2), 0, 0, 0, false)
	assert.True(t, apperrors.Is(err, apperrors.CodeTypeMismatch))
}

func TestLoadDetectsChecksumCorruption(t *testing.T) {
	store := newMemStore()
	b := New(store, "s0", "blk", 2, 2, 2, codec.U8, codec.Raw, Settings{})
	b.ZeroBlock()
	ctx := context.Background()
	assert.NoError(t, b.Save(ctx))

	raw := store.data[store.key("s0", "blk")]
	raw[len(raw)-1] ^= 0xFF // flip a payload bit after the digest header

	b2 := New(store, "s0", "blk", 2, 2, 2, codec.U8, codec.Raw, Settings{})
	err := b2.Load(ctx)
	assert.True(t, apperrors.Is(err, apperrors.CodeIOFailure))
}

func TestDropFlushesDirtyBlock(t *testing.T) {
	store := newMemStore()
	b := New(store, "s0", "blk", 2, 2, 2, codec.U8, codec.Raw, Settings{})
	b.ZeroBlock()
	ctx := context.Background()
	assert.NoError(t, b.Drop(ctx))
	assert.False(t, b.IsDirty())
	_, found, _ := store.ReadBlock(ctx, "s0", "blk")
	assert.True(t, found)
}
