package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyBackend struct {
	failCount int
	calls     int
	data      map[string][]byte
}

func (b *flakyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	b.calls++
	if b.calls <= b.failCount {
		return nil, assert.AnError
	}
	return b.data[key], nil
}
func (b *flakyBackend) Put(ctx context.Context, key string, data []byte) error {
	b.calls++
	if b.calls <= b.failCount {
		return assert.AnError
	}
	b.data[key] = data
	return nil
}
func (b *flakyBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := b.data[key]
	return ok, nil
}
func (b *flakyBackend) List(ctx context.Context, prefix string) ([]string, error) { return nil, nil }
func (b *flakyBackend) Type() string                                             { return "flaky" }

func TestManagerPutRetriesUntilSuccess(t *testing.T) {
	primary := &flakyBackend{failCount: 2, data: map[string][]byte{}}
	m := NewManager(primary, &ManagerConfig{RetryAttempts: 3, RetryDelay: time.Millisecond})

	err := m.Put(context.Background(), "k", []byte("v"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), primary.data["k"])
}

func TestManagerPutFailsAfterExhaustingRetries(t *testing.T) {
	primary := &flakyBackend{failCount: 10, data: map[string][]byte{}}
	m := NewManager(primary, &ManagerConfig{RetryAttempts: 2, RetryDelay: time.Millisecond})

	err := m.Put(context.Background(), "k", []byte("v"))
	assert.Error(t, err)
}

func TestManagerGetFallsBackWhenPrimaryFails(t *testing.T) {
	primary := &flakyBackend{failCount: 99, data: map[string][]byte{}}
	fallback := &flakyBackend{data: map[string][]byte{"k": []byte("from-fallback")}}
	m := NewManager(primary, &ManagerConfig{RetryAttempts: 1})
	m.SetFallback(fallback)

	data, err := m.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("from-fallback"), data)
}

func TestManagerGetUsesCacheBeforePrimary(t *testing.T) {
	primary := &flakyBackend{data: map[string][]byte{"k": []byte("from-primary")}}
	cache := &flakyBackend{data: map[string][]byte{"k": []byte("from-cache")}}
	m := NewManager(primary, nil)
	m.SetCache(cache)

	data, err := m.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("from-cache"), data)
	assert.Equal(t, 0, primary.calls, "cache hit should skip the primary entirely")
}
