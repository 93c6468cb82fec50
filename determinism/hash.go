// Package determinism computes a per-tick world-state hash so two
// replicas (or a replay against a recorded log) can be compared cheaply
// for divergence instead of diffing full snapshots (spec.md §8 property 4
// "Determinism", property 6 "Lockstep").
package determinism

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Hasher accumulates a rolling digest over a sequence of fields
// contributed by each subsystem's Contribute call during a tick, in a
// fixed, subsystem-defined order so two replicas that applied the same
// commands hash identically.
type Hasher struct {
	d *xxhash.Digest
}

// New returns a fresh Hasher.
func New() *Hasher {
	return &Hasher{d: xxhash.New()}
}

// Uint64 folds a single uint64 field into the digest.
func (h *Hasher) Uint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	h.d.Write(b[:])
}

// Int64 folds a single int64 field into the digest.
func (h *Hasher) Int64(v int64) {
	h.Uint64(uint64(v))
}

// Float64 folds a float64 field into the digest via its raw bit pattern,
// so NaN/±0 are hashed as distinct bit patterns rather than compared by
// value (irrelevant here since the simulation never produces NaN, but
// makes the hash a pure function of memory representation).
func (h *Hasher) Float64(v float64) {
	h.Uint64(math.Float64bits(v))
}

// Bytes folds an arbitrary byte slice into the digest, used for strings
// (SoulID, chat text) converted to bytes by the caller.
func (h *Hasher) Bytes(b []byte) {
	h.d.Write(b)
}

// Sum returns the accumulated digest. It does not reset the hasher.
func (h *Hasher) Sum() uint64 {
	return h.d.Sum64()
}

// Reset clears the hasher for reuse on the next tick.
func (h *Hasher) Reset() {
	h.d.Reset()
}
