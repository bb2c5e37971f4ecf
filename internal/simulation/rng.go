package simulation

import "math/rand"

// deriveSampleSeed mixes a scan-level seed with a sample index into an
// independent 64-bit seed using a SplitMix64-style avalanche finalizer,
// so sample i's random draws never depend on how many workers produced
// samples before it.
func deriveSampleSeed(seed int64, sample uint64) int64 {
	x := uint64(seed) ^ (sample + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}

// rngForSample returns a fresh, independent RNG for sample index i of a
// run seeded with seed. Each call reconstructs the same stream given the
// same (seed, i) pair regardless of execution order or worker count.
func rngForSample(seed int64, i int) *rand.Rand {
	return rand.New(rand.NewSource(deriveSampleSeed(seed, uint64(i))))
}
