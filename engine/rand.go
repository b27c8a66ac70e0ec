package engine

import (
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// NewRand returns a deterministic generator for simulation use.
// Systems that consume randomness take one at construction; the ambient
// global source is never used inside a tick.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// SeedFor derives an independent stream seed from a base seed and a
// stream name, so each system gets its own reproducible sequence and
// one system's draws never perturb another's.
func SeedFor(base int64, stream string) int64 {
	return base ^ int64(xxhash.Sum64String(stream))
}
