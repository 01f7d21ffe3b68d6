// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/blake2b"
	"lukechampine.com/blake3"

	"github.com/jeranaias/rigbench/internal/benchmark"
)

// hashBlockSize is the size of each hashed buffer.
const hashBlockSize = 1024

// HashFunc digests a buffer into a 32-byte sum.
type HashFunc func([]byte) [32]byte

// Hashes maps workload ids to their hash primitive.
var Hashes = map[string]HashFunc{
	IDSHA256:  sha256.Sum256,
	IDBlake2b: blake2b.Sum256,
	IDBlake3:  blake3.Sum256,
}

// HashLoop hashes buf n times, feeding the first digest byte back into the
// buffer so consecutive calls cannot be folded.
func HashLoop(h HashFunc, buf []byte, n int) [32]byte {
	var sum [32]byte
	for i := 0; i < n; i++ {
		sum = h(buf)
		buf[0] = sum[0]
	}
	return sum
}

func hashWorkload(id, name, desc string, size int) benchmark.Descriptor {
	h := Hashes[id]
	return benchmark.Descriptor{
		ID:          id,
		Name:        name,
		Description: desc,
		Category:    benchmark.CategoryExternalPrimitive,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Prepare: func(replicas, _ int) (benchmark.RunFunc, error) {
			bufs := make([][]byte, replicas)
			for r := range bufs {
				bufs[r] = make([]byte, hashBlockSize)
			}
			return func(replica, workSize int) error {
				sum := HashLoop(h, bufs[replica], workSize)
				if replica == 0 {
					sink.i = int64(sum[1])
				}
				return nil
			}, nil
		},
	}
}
