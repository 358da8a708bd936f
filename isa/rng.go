package isa

import "math/rand"

// TickRNG derives a deterministic RNG stream from (world seed, tick
// number), never process-global state (spec §4.8 "Determinism", §9
// "Random-choice instructions").
func TickRNG(worldSeed int64, tick uint64) RNG {
	// splitmix64-style mix so nearby ticks don't produce correlated seeds.
	h := uint64(worldSeed)
	h ^= tick + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return rand.New(rand.NewSource(int64(h)))
}
