// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"math/rand/v2"
	"time"
)

// replicaSeedMix spreads replica indices across the seed space
// (the 64-bit golden ratio constant).
const replicaSeedMix = 0x9E3779B97F4A7C15

// NewReplicaRand returns a generator owned by one replica. The seed combines
// the wall clock with the replica index so concurrent replicas neither share
// a generator nor draw identical sequences.
func NewReplicaRand(replica int) *rand.Rand {
	now := uint64(time.Now().UnixNano())
	idx := uint64(replica) + 1
	return rand.New(rand.NewPCG(now^(idx*replicaSeedMix), idx))
}

// fillRandomBytes fills b from r eight bytes at a time.
func fillRandomBytes(r *rand.Rand, b []byte) {
	i := 0
	for ; i+8 <= len(b); i += 8 {
		v := r.Uint64()
		b[i] = byte(v)
		b[i+1] = byte(v >> 8)
		b[i+2] = byte(v >> 16)
		b[i+3] = byte(v >> 24)
		b[i+4] = byte(v >> 32)
		b[i+5] = byte(v >> 40)
		b[i+6] = byte(v >> 48)
		b[i+7] = byte(v >> 56)
	}
	if i < len(b) {
		v := r.Uint64()
		for ; i < len(b); i++ {
			b[i] = byte(v)
			v >>= 8
		}
	}
}
