package processor

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/google/uuid"
)

func seededRNG(seed int64) *rand.Rand {
	// Non-cryptographic PRNG is intentional for deterministic simulation behavior.
	// #nosec G404
	return rand.New(rand.NewPCG(seedWord(seed, "a"), seedWord(seed, "b")))
}

// NewRand returns a deterministic random source for seed.
func NewRand(seed int64) *rand.Rand {
	return seededRNG(seed)
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return h.Sum64()
}

func seedFromID(id uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write(id[:])
	return int64(h.Sum64() & 0x7fffffffffffffff)
}
