// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jeranaias/rigbench/internal/benchmark"
	"github.com/jeranaias/rigbench/internal/detect"
)

// =============================================================================
// WORKLOAD IDS
// =============================================================================

const (
	IDMemoryL1            = "memory-l1"
	IDMemoryL2            = "memory-l2"
	IDMemoryL3            = "memory-l3"
	IDMemoryRAM           = "memory-ram"
	IDIntegerArithmetic   = "integer-arithmetic"
	IDFloatingPoint       = "floating-point"
	IDVectorAVX2          = "vector-avx2"
	IDVectorAVX512        = "vector-avx512"
	IDRandomNumbers       = "random-numbers"
	IDFibonacci           = "fibonacci"
	IDPrimeSieve          = "prime-sieve"
	IDQuickSort           = "quicksort"
	IDBranchPredictable   = "branch-predictable"
	IDBranchRandom        = "branch-random"
	IDSHA256              = "sha256"
	IDBlake2b             = "blake2b"
	IDBlake3              = "blake3"
	IDGzip                = "gzip"
	IDZstd                = "zstd"
	IDBrotli              = "brotli"
	IDMarkupParsing       = "markup-parsing"
	IDCodeLexing          = "code-lexing"
	IDMatrixMultiply      = "matrix-multiply"
	IDImageBlur           = "image-blur"
	IDVideoFilter         = "video-filter"
	IDRayTracer           = "ray-tracer"
	IDNeuralNetwork       = "neural-network"
	IDThreadCommunication = "thread-communication"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Defaults for Options.
const (
	DefaultIterations    = 1_000_000
	DefaultMemoryPasses  = 10
	DefaultRAMMultiplier = 4
)

// Options controls how the standard battery is sized.
type Options struct {
	// Iterations is the base count most work sizes derive from.
	Iterations int
	// MemoryPasses is the number of sweeps per memory workload.
	MemoryPasses int
	// RAMMultiplier sizes the RAM buffer as a multiple of L3.
	RAMMultiplier int
	// Sizes overrides the derived work size per workload id.
	Sizes map[string]int
	// Topology supplies the cache sizes for the memory workloads.
	Topology detect.Topology
	// Disabled drops workloads by id.
	Disabled []string
	// Include keeps only these ids when non-empty.
	Include []string
}

// DefaultOptions sizes the battery from the given topology.
func DefaultOptions(t detect.Topology) Options {
	return Options{
		Iterations:    DefaultIterations,
		MemoryPasses:  DefaultMemoryPasses,
		RAMMultiplier: DefaultRAMMultiplier,
		Topology:      t,
	}
}

func (o Options) withDefaults() Options {
	if o.Iterations <= 0 {
		o.Iterations = DefaultIterations
	}
	if o.MemoryPasses <= 0 {
		o.MemoryPasses = DefaultMemoryPasses
	}
	if o.RAMMultiplier <= 0 {
		o.RAMMultiplier = DefaultRAMMultiplier
	}
	o.Topology = o.Topology.WithFallbacks(0, 0)
	return o
}

// atLeastOne keeps derived sizes from rounding down to zero on small
// iteration counts.
func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// DefaultSizes returns the derived work size for every workload.
func (o Options) DefaultSizes() map[string]int {
	o = o.withDefaults()
	it := o.Iterations
	t := o.Topology
	return map[string]int{
		IDMemoryL1:            int(t.L1DataBytes),
		IDMemoryL2:            int(t.L2Bytes),
		IDMemoryL3:            int(t.L3Bytes),
		IDMemoryRAM:           int(t.L3Bytes) * o.RAMMultiplier,
		IDIntegerArithmetic:   atLeastOne(it / 100),
		IDFloatingPoint:       atLeastOne(it / 100),
		IDVectorAVX2:          it,
		IDVectorAVX512:        it,
		IDRandomNumbers:       it * 100,
		IDFibonacci:           atLeastOne(it / 5000),
		IDPrimeSieve:          atLeastOne(it / 100),
		IDQuickSort:           atLeastOne(it / 10000),
		IDBranchPredictable:   atLeastOne(it / 100),
		IDBranchRandom:        atLeastOne(it / 100),
		IDSHA256:              atLeastOne(it / 10),
		IDBlake2b:             atLeastOne(it / 10),
		IDBlake3:              atLeastOne(it / 10),
		IDGzip:                32 << 20,
		IDZstd:                32 << 20,
		IDBrotli:              8 << 20,
		IDMarkupParsing:       atLeastOne(it / 1000),
		IDCodeLexing:          2000,
		IDMatrixMultiply:      atLeastOne(it / 5000),
		IDImageBlur:           4,
		IDVideoFilter:         3,
		IDRayTracer:           20,
		IDNeuralNetwork:       atLeastOne(it / 200),
		IDThreadCommunication: atLeastOne(it / 100),
	}
}

// =============================================================================
// CATALOG
// =============================================================================

// NewCatalog builds the standard battery in run order.
func NewCatalog(opts Options) (*benchmark.Catalog, error) {
	opts = opts.withDefaults()
	sizes := opts.DefaultSizes()
	for id, n := range opts.Sizes {
		if _, ok := sizes[id]; !ok {
			return nil, fmt.Errorf("size override: %w: %s", benchmark.ErrUnknownWorkload, id)
		}
		if n <= 0 {
			return nil, fmt.Errorf("size override for %s must be positive, got %d", id, n)
		}
		sizes[id] = n
	}
	passes := opts.MemoryPasses

	all := []benchmark.Descriptor{
		memoryWorkload(IDMemoryL1, "Memory (L1)", sizes[IDMemoryL1], passes),
		memoryWorkload(IDMemoryL2, "Memory (L2)", sizes[IDMemoryL2], passes),
		memoryWorkload(IDMemoryL3, "Memory (L3)", sizes[IDMemoryL3], passes),
		memoryWorkload(IDMemoryRAM, "Memory (RAM)", sizes[IDMemoryRAM], passes),

		integerArithmeticWorkload(sizes[IDIntegerArithmetic]),
		floatingPointWorkload(sizes[IDFloatingPoint]),
		vectorAVX2Workload(sizes[IDVectorAVX2]),
		vectorAVX512Workload(sizes[IDVectorAVX512]),
		randomNumbersWorkload(sizes[IDRandomNumbers]),

		fibonacciWorkload(sizes[IDFibonacci]),
		primeSieveWorkload(sizes[IDPrimeSieve]),
		quickSortWorkload(sizes[IDQuickSort]),
		branchPredictableWorkload(sizes[IDBranchPredictable]),
		branchRandomWorkload(sizes[IDBranchRandom]),

		hashWorkload(IDSHA256, "SHA-256", "SHA-256 over a 1 KiB buffer", sizes[IDSHA256]),
		hashWorkload(IDBlake2b, "BLAKE2b", "BLAKE2b-256 over a 1 KiB buffer", sizes[IDBlake2b]),
		hashWorkload(IDBlake3, "BLAKE3", "BLAKE3 over a 1 KiB buffer", sizes[IDBlake3]),
		compressionWorkload(IDGzip, "Compression (gzip)", GzipCodec(), sizes[IDGzip]),
		compressionWorkload(IDZstd, "Compression (zstd)", ZstdCodec(), sizes[IDZstd]),
		compressionWorkload(IDBrotli, "Compression (brotli)", BrotliCodec(), sizes[IDBrotli]),
		markupWorkload(sizes[IDMarkupParsing]),
		codeLexingWorkload(sizes[IDCodeLexing]),

		matrixWorkload(sizes[IDMatrixMultiply]),
		imageBlurWorkload(sizes[IDImageBlur]),
		videoFilterWorkload(sizes[IDVideoFilter]),
		rayTracerWorkload(sizes[IDRayTracer]),
		neuralWorkload(sizes[IDNeuralNetwork]),

		threadCommWorkload(sizes[IDThreadCommunication]),
	}

	keep, err := selection(all, opts.Include, opts.Disabled)
	if err != nil {
		return nil, err
	}
	c := benchmark.NewCatalog()
	for _, d := range all {
		if !keep[d.ID] {
			continue
		}
		if err := c.Register(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// selection resolves include and disable lists against the battery.
func selection(all []benchmark.Descriptor, include, disabled []string) (map[string]bool, error) {
	known := make(map[string]bool, len(all))
	for _, d := range all {
		known[d.ID] = true
	}
	for _, id := range append(append([]string(nil), include...), disabled...) {
		if !known[strings.TrimSpace(id)] {
			return nil, fmt.Errorf("%w: %s", benchmark.ErrUnknownWorkload, id)
		}
	}

	keep := make(map[string]bool, len(all))
	if len(include) == 0 {
		for id := range known {
			keep[id] = true
		}
	} else {
		for _, id := range include {
			keep[strings.TrimSpace(id)] = true
		}
	}
	for _, id := range disabled {
		delete(keep, strings.TrimSpace(id))
	}
	return keep, nil
}

// IDs lists every workload id of the standard battery in run order.
func IDs() []string {
	return []string{
		IDMemoryL1, IDMemoryL2, IDMemoryL3, IDMemoryRAM,
		IDIntegerArithmetic, IDFloatingPoint, IDVectorAVX2, IDVectorAVX512, IDRandomNumbers,
		IDFibonacci, IDPrimeSieve, IDQuickSort, IDBranchPredictable, IDBranchRandom,
		IDSHA256, IDBlake2b, IDBlake3, IDGzip, IDZstd, IDBrotli, IDMarkupParsing, IDCodeLexing,
		IDMatrixMultiply, IDImageBlur, IDVideoFilter, IDRayTracer, IDNeuralNetwork,
		IDThreadCommunication,
	}
}

func formatBytes(n int) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
