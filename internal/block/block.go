// Package block implements a single block's state machine and storage
// semantics: shape, element type, encoding, load/save through a data
// store, and typed add/get into a sub-rectangle.
package block

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"

	"github.com/neurovol/neurovol/internal/array"
	"github.com/neurovol/neurovol/internal/checksum"
	"github.com/neurovol/neurovol/internal/codec"
	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// Store is the narrow handle a Block holds into its data store: by name,
// not by reference, so the Block can outlive any single store call.
type Store interface {
	ReadBlock(ctx context.Context, scaleKey, name string) ([]byte, bool, error)
	WriteBlock(ctx context.Context, scaleKey, name string, data []byte) error
}

// Settings carries block-level storage settings; at minimum whether
// serialized bytes are gzip-wrapped.
type Settings struct {
	Gzip bool
}

// Block is a stateful cuboid storage unit: a (loaded, dirty) pair plus a
// lazily-materialized typed payload.
type Block struct {
	store    Store
	scaleKey string
	name     string

	xdim, ydim, zdim int
	dtype            codec.DataType
	encoding         codec.Encoding
	settings         Settings

	payload any // *array.Array[T] for the T matching dtype
	loaded  bool
	dirty   bool
}

// New allocates a Block bound to (store, scaleKey, name) with no payload
// materialized yet (loaded=false, dirty=false). Callers that know the
// block has no backing bytes yet should call ZeroBlock immediately.
func New(store Store, scaleKey, name string, xdim, ydim, zdim int, dtype codec.DataType, encoding codec.Encoding, settings Settings) *Block {
	return &Block{
		store: store, scaleKey: scaleKey, name: name,
		xdim: xdim, ydim: ydim, zdim: zdim,
		dtype: dtype, encoding: encoding, settings: settings,
	}
}

// Shape returns (xdim, ydim, zdim).
func (b *Block) Shape() (int, int, int) { return b.xdim, b.ydim, b.zdim }

// DataType returns the block's declared element type.
func (b *Block) DataType() codec.DataType { return b.dtype }

// IsLoaded reports whether the payload is materialized.
func (b *Block) IsLoaded() bool { return b.loaded }

// IsDirty reports whether the payload has unsaved mutations.
func (b *Block) IsDirty() bool { return b.dirty }

// Name returns the block's data-store name.
func (b *Block) Name() string { return b.name }

// ZeroBlock fills the payload with zeros, setting loaded=true, dirty=true.
func (b *Block) ZeroBlock() {
	b.payload = allocZero(b.dtype, b.xdim, b.ydim, b.zdim)
	b.loaded = true
	b.dirty = true
}

func allocZero(dtype codec.DataType, xdim, ydim, zdim int) any {
	switch dtype {
	case codec.U8:
		return array.New[uint8](xdim, ydim, zdim)
	case codec.U16:
		return array.New[uint16](xdim, ydim, zdim)
	case codec.U32:
		return array.New[uint32](xdim, ydim, zdim)
	case codec.U64:
		return array.New[uint64](xdim, ydim, zdim)
	case codec.F32:
		return array.New[float32](xdim, ydim, zdim)
	default:
		return nil
	}
}

// Load materializes the payload by reading serialized bytes from the data
// store and decoding them per the block's encoding. On success loaded
// becomes true. A no-op if already loaded.
func (b *Block) Load(ctx context.Context) error {
	if b.loaded {
		return nil
	}
	framed, found, err := b.store.ReadBlock(ctx, b.scaleKey, b.name)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIOFailure, "failed to read block "+b.name, err)
	}
	if !found {
		return apperrors.New(apperrors.CodeIOFailure, "block "+b.name+" has no backing bytes")
	}
	raw, err := checksum.Unframe(framed)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIOFailure, "block "+b.name+" failed checksum verification", err)
	}

	if b.settings.Gzip {
		raw, err = gunzip(raw)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeIOFailure, "failed to gunzip block "+b.name, err)
		}
	}

	payload, err := decodeInto(b.encoding, b.dtype, b.xdim, b.ydim, b.zdim, raw)
	if err != nil {
		return err
	}
	b.payload = payload
	b.loaded = true
	return nil
}

func decodeInto(enc codec.Encoding, dtype codec.DataType, xdim, ydim, zdim int, raw []byte) (any, error) {
	shape := codec.Shape{xdim, ydim, zdim}
	switch dtype {
	case codec.U8:
		return codec.Decode[uint8](enc, dtype, shape, raw)
	case codec.U16:
		return codec.Decode[uint16](enc, dtype, shape, raw)
	case codec.U32:
		return codec.Decode[uint32](enc, dtype, shape, raw)
	case codec.U64:
		return codec.Decode[uint64](enc, dtype, shape, raw)
	case codec.F32:
		return codec.Decode[float32](enc, dtype, shape, raw)
	default:
		return nil, apperrors.New(apperrors.CodeUnknownDataType, "unknown data type")
	}
}

// Save invokes the encoder, optionally gzip-wraps the result, and writes
// bytes to the data store. On success dirty becomes false.
func (b *Block) Save(ctx context.Context) error {
	raw, err := encodeFrom(b.encoding, b.dtype, b.payload)
	if err != nil {
		return err
	}
	if b.settings.Gzip {
		raw = gzipBytes(raw)
	}
	if err := b.store.WriteBlock(ctx, b.scaleKey, b.name, checksum.Frame(raw)); err != nil {
		return apperrors.Wrap(apperrors.CodeIOFailure, "failed to write block "+b.name, err)
	}
	b.dirty = false
	return nil
}

func encodeFrom(enc codec.Encoding, dtype codec.DataType, payload any) ([]byte, error) {
	switch dtype {
	case codec.U8:
		return codec.Encode(enc, dtype, payload.(*array.Array[uint8]))
	case codec.U16:
		return codec.Encode(enc, dtype, payload.(*array.Array[uint16]))
	case codec.U32:
		return codec.Encode(enc, dtype, payload.(*array.Array[uint32]))
	case codec.U64:
		return codec.Encode(enc, dtype, payload.(*array.Array[uint64]))
	case codec.F32:
		return codec.Encode(enc, dtype, payload.(*array.Array[float32]))
	default:
		return nil, apperrors.New(apperrors.CodeUnknownDataType, "unknown data type")
	}
}

// Add ensures the block is loaded, then either overwrites the payload
// with view (if overwrite) or accumulates view into the payload at local
// origin (offx, offy, offz). T must match the block's declared dtype or
// TypeMismatch is returned. On return dirty=true.
func Add[T array.Numeric](ctx context.Context, b *Block, view *array.View[T], offx, offy, offz int, overwrite bool) error {
	if !b.loaded {
		if err := b.Load(ctx); err != nil {
			return err
		}
	}
	payload, ok := b.payload.(*array.Array[T])
	if !ok {
		return apperrors.New(apperrors.CodeTypeMismatch, "add called with a type that doesn't match the block's dtype")
	}
	if overwrite {
		payload.Clear()
	}
	xdim, ydim, zdim := view.Shape()
	for x := 0; x < xdim; x++ {
		for y := 0; y < ydim; y++ {
			for z := 0; z < zdim; z++ {
				cur := payload.At(offx+x, offy+y, offz+z)
				payload.Set(offx+x, offy+y, offz+z, cur+view.At(x, y, z))
			}
		}
	}
	b.dirty = true
	return nil
}

// Get ensures the block is loaded, then accumulates the payload's
// sub-rectangle at local origin (offx, offy, offz) into view
// (view += payload). Callers needing pure assignment must pre-zero view.
func Get[T array.Numeric](ctx context.Context, b *Block, view *array.View[T], offx, offy, offz int) error {
	if !b.loaded {
		if err := b.Load(ctx); err != nil {
			return err
		}
	}
	payload, ok := b.payload.(*array.Array[T])
	if !ok {
		return apperrors.New(apperrors.CodeTypeMismatch, "get called with a type that doesn't match the block's dtype")
	}
	xdim, ydim, zdim := view.Shape()
	for x := 0; x < xdim; x++ {
		for y := 0; y < ydim; y++ {
			for z := 0; z < zdim; z++ {
				cur := view.At(x, y, z)
				view.Set(x, y, z, cur+payload.At(offx+x, offy+y, offz+z))
			}
		}
	}
	return nil
}

// Drop flushes the block if dirty, surfacing any save error rather than
// silently discarding unsaved mutations.
func (b *Block) Drop(ctx context.Context) error {
	if b.dirty {
		return b.Save(ctx)
	}
	return nil
}

func gunzip(raw []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func gzipBytes(raw []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, _ = w.Write(raw)
	_ = w.Close()
	return buf.Bytes()
}
