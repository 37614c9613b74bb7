// Package checksum computes a BLAKE2b-256 digest over a block's
// serialized bytes, used to detect silent corruption between what a
// Block wrote and what a later Load reads back (bit rot, a truncated
// cloud upload, a backend returning the wrong object).
package checksum

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// Sum returns the hex-encoded BLAKE2b-256 digest of data.
func Sum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Verify reports whether data matches the previously computed digest
// want (as returned by Sum).
func Verify(data []byte, want string) bool {
	return Sum(data) == want
}

// StampedBlock pairs serialized block bytes with the digest taken at
// write time. Frame is its on-the-wire form, which Block.Save applies to
// every block before handing the bytes to a backend.
type StampedBlock struct {
	Digest string
	Data   []byte
}

// Stamp computes a digest over data and returns the pair to write.
func Stamp(data []byte) StampedBlock {
	return StampedBlock{Digest: Sum(data), Data: data}
}

// Unstamp verifies a StampedBlock's digest and returns its payload,
// failing with CodeDecodeFailure if the bytes don't match what was
// stamped.
func Unstamp(sb StampedBlock) ([]byte, error) {
	if !Verify(sb.Data, sb.Digest) {
		return nil, apperrors.New(apperrors.CodeDecodeFailure, "block checksum mismatch")
	}
	return sb.Data, nil
}

const digestLen = 2 * blake2b.Size256 // hex-encoded

// Frame prepends data's hex digest to data itself, producing the exact
// bytes a store backend writes. This is the wire form of Stamp: a fixed-
// length digest header instead of a struct, so it round-trips through a
// plain []byte-oriented Backend with no extra serialization step.
func Frame(data []byte) []byte {
	sb := Stamp(data)
	framed := make([]byte, 0, len(sb.Digest)+len(sb.Data))
	framed = append(framed, []byte(sb.Digest)...)
	framed = append(framed, sb.Data...)
	return framed
}

// Unframe splits framed bytes (as produced by Frame) back into its
// payload, verifying the embedded digest matches.
func Unframe(framed []byte) ([]byte, error) {
	if len(framed) < digestLen {
		return nil, apperrors.New(apperrors.CodeDecodeFailure, "block checksum frame too short")
	}
	return Unstamp(StampedBlock{Digest: string(framed[:digestLen]), Data: framed[digestLen:]})
}
