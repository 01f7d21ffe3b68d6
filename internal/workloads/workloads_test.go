// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigbench/internal/benchmark"
	"github.com/jeranaias/rigbench/internal/detect"
)

// =============================================================================
// RECURSIVE WORKLOAD TESTS
// =============================================================================

func TestFibonacci(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{10, 55},
		{20, 6765},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Fibonacci(tc.n), "Fibonacci(%d)", tc.n)
	}
}

func TestSieve(t *testing.T) {
	prime := Sieve(10000)
	require.Len(t, prime, 10001)

	assert.False(t, prime[0])
	assert.False(t, prime[1])
	assert.True(t, prime[2])
	assert.True(t, prime[9973], "9973 is the largest prime below 10000")
	assert.False(t, prime[9999])
	assert.Equal(t, 1229, CountPrimes(prime))
}

func TestSieve_SmallInputs(t *testing.T) {
	assert.Nil(t, Sieve(-1))
	assert.Equal(t, 0, CountPrimes(Sieve(0)))
	assert.Equal(t, 0, CountPrimes(Sieve(1)))
	assert.Equal(t, 1, CountPrimes(Sieve(2)))
}

func TestQuickSort(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	tests := []struct {
		name string
		in   []int
	}{
		{"empty", nil},
		{"single", []int{7}},
		{"sorted", []int{1, 2, 3, 4, 5}},
		{"reversed", []int{5, 4, 3, 2, 1}},
		{"duplicates", []int{3, 1, 3, 1, 3, 1}},
		{"random", func() []int {
			a := make([]int, 10000)
			for i := range a {
				a[i] = rng.IntN(1000)
			}
			return a
		}()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			want := slices.Clone(tc.in)
			slices.Sort(want)
			QuickSort(tc.in)
			assert.Equal(t, want, tc.in)
		})
	}
}

func TestBranchPredictable(t *testing.T) {
	// Each inner loop sums to -branchInner/2.
	assert.Equal(t, int64(-branchInner/2)*3, BranchPredictable(3))
}

// =============================================================================
// MEMORY TESTS
// =============================================================================

func TestMemorySweep_EmptyBuffer(t *testing.T) {
	assert.NotPanics(t, func() {
		MemorySweep(nil, 3, NewReplicaRand(0))
	})
}

func TestMemorySweep_Mutates(t *testing.T) {
	buf := make([]int32, 4096)
	for i := range buf {
		buf[i] = int32(i + 1)
	}
	orig := slices.Clone(buf)
	MemorySweep(buf, 1, NewReplicaRand(0))
	assert.NotEqual(t, orig, buf)
}

// Larger buffers must never sweep faster than smaller ones. Sizes are at
// least 8x apart and each is timed as the best of three runs.
func TestMemoryWorkload_ElapsedGrowsWithSize(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	sizes := []int{32 << 10, 256 << 10, 2 << 20, 16 << 20}
	engine := benchmark.NewEngine(nil)

	best := make([]time.Duration, len(sizes))
	for i, size := range sizes {
		d := memoryWorkload("mem", "Memory", size, 2)
		for run := 0; run < 3; run++ {
			res, err := engine.RunSingle(d, d.WorkSize)
			require.NoError(t, err, formatBytes(size))
			if run == 0 || res.Elapsed < best[i] {
				best[i] = res.Elapsed
			}
		}
	}

	for i := 1; i < len(sizes); i++ {
		assert.GreaterOrEqual(t, best[i], best[i-1]/2,
			"%s swept in %v, %s in %v", formatBytes(sizes[i]), best[i], formatBytes(sizes[i-1]), best[i-1])
	}
}

// =============================================================================
// ARITHMETIC TESTS
// =============================================================================

func TestVectorChains_Agree(t *testing.T) {
	var a8, b8 Lanes8
	var a16, b16 Lanes16
	for i := range a16 {
		a16[i], b16[i] = 1024, 1024
	}
	for i := range a8 {
		a8[i], b8[i] = 1024, 1024
	}
	out8 := VectorChain8(a8, b8, 10)
	out16 := VectorChain16(a16, b16, 10)
	for i := range out8 {
		assert.Equal(t, out8[i], out16[i])
		assert.False(t, math.IsNaN(float64(out8[i])))
	}
}

func TestIntegerArithmetic_Deterministic(t *testing.T) {
	tables := NewIntegerTables(10, rand.New(rand.NewPCG(3, 4)))
	assert.Equal(t, IntegerArithmetic(tables, 10), IntegerArithmetic(tables, 10))
}

// =============================================================================
// EXTERNAL PRIMITIVE TESTS
// =============================================================================

func TestCompressRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 4096, 1 << 20}
	if !testing.Short() {
		sizes = append(sizes, 128<<20)
	}
	codecs := []Codec{GzipCodec(), ZstdCodec(), BrotliCodec()}

	for _, c := range codecs {
		for _, n := range sizes {
			if c.Name == "brotli" && n > 8<<20 {
				continue
			}
			t.Run(c.Name+"/"+formatBytes(n), func(t *testing.T) {
				data := make([]byte, n)
				fillRandomBytes(rand.New(rand.NewPCG(uint64(n), 9)), data)
				_, err := CompressRoundTrip(c, data)
				require.NoError(t, err)
			})
		}
	}
}

func TestCompressRoundTrip_LengthMismatch(t *testing.T) {
	c := GzipCodec()
	c.Decompress = func(src []byte) ([]byte, error) { return []byte("short"), nil }

	_, err := CompressRoundTrip(c, make([]byte, 100))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 100")
}

func TestHashLoop(t *testing.T) {
	for id, h := range Hashes {
		t.Run(id, func(t *testing.T) {
			a := HashLoop(h, make([]byte, hashBlockSize), 5)
			b := HashLoop(h, make([]byte, hashBlockSize), 5)
			assert.Equal(t, a, b)
			assert.NotEqual(t, [32]byte{}, a)
		})
	}
}

func TestParsePage(t *testing.T) {
	s, err := ParsePage()
	require.NoError(t, err)

	assert.Equal(t, 3, s.Elements["a"])
	assert.Equal(t, 2, s.Elements["article"])
	assert.Equal(t, 4, s.Elements["h2"])
	assert.Zero(t, s.Unclosed)
	assert.Positive(t, s.Attributes)

	assert.Len(t, s.Rules, 13)
	assert.Equal(t, "none", s.Rules["button"]["border"])

	assert.Len(t, s.Functions, 4)
	assert.Contains(t, s.Functions, "validateEmail")
	assert.Len(t, s.Listeners, 2)
	assert.Contains(t, s.Listeners["DOMContentLoaded"], "ready")
}

func TestLexSource(t *testing.T) {
	stats, err := LexSource("go", inventorySource)
	require.NoError(t, err)
	assert.Zero(t, stats.ErrorTokens)
	assert.Positive(t, stats.Keywords)
	assert.Positive(t, stats.Names)
	assert.Positive(t, stats.Comments)

	_, err = LexSource("no-such-language", "x")
	assert.Error(t, err)
}

// =============================================================================
// STRUCTURED SYNTHETIC TESTS
// =============================================================================

func TestMultiplyInto(t *testing.T) {
	a, b, c := NewMatrix(2), NewMatrix(2), NewMatrix(2)
	copy(a.Data, []int32{1, 2, 3, 4})
	copy(b.Data, []int32{5, 6, 7, 8})

	MultiplyInto(c, a, b)
	assert.Equal(t, []int32{19, 22, 43, 50}, c.Data)

	// Reuse must not accumulate into the previous product.
	MultiplyInto(c, a, b)
	assert.Equal(t, int32(19), c.At(0, 0))
}

func TestBoxBlur_Uniform(t *testing.T) {
	src, dst := NewPlane(8, 8), NewPlane(8, 8)
	for i := range src.Pix {
		src.Pix[i] = 90
	}
	BoxBlur(dst, src)
	assert.Equal(t, uint8(90), dst.Pix[3*8+3])
	assert.Equal(t, uint8(0), dst.Pix[0], "border is untouched")
}

func TestFilterPixel_Range(t *testing.T) {
	for v := 0; v < 255; v++ {
		p := FilterPixel(float32(v))
		assert.GreaterOrEqual(t, p, float32(0))
		assert.LessOrEqual(t, p, float32(255))
	}
}

func TestFilterFrame_OffsetWraps(t *testing.T) {
	base, wrapped := NewPlane(16, 16), NewPlane(16, 16)
	FilterFrame(base, 3)
	FilterFrame(wrapped, 258)
	assert.Equal(t, base.Pix, wrapped.Pix)
}

func TestVideoFilterWorkload_Replicas(t *testing.T) {
	if testing.Short() {
		t.Skip("full 4K frames")
	}
	res, err := benchmark.NewEngine(nil).RunReplicated(videoFilterWorkload(1), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Replicas)
}

func TestTrace_MissReturnsSky(t *testing.T) {
	scene := &Scene{}
	col := scene.Trace(Ray{Dir: Vec3{0, 1, 0}}, traceDepth, NewReplicaRand(0))
	assert.InDelta(t, 0.5, col.X, 1e-9)
	assert.InDelta(t, 1.0, col.Z, 1e-9)
}

func TestRender_Bounded(t *testing.T) {
	total := DefaultScene().Render(8, 4, 2, NewReplicaRand(0))
	assert.Positive(t, total.Y)
	assert.LessOrEqual(t, total.Y, float64(8*4))
}

func TestNetworkForward_Softmax(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	net := NewNetwork(rng)
	input := make([]float32, nnInput)
	for i := range input {
		input[i] = rng.Float32()
	}

	out := net.Forward(input)
	require.Len(t, out, nnOutput)
	var sum float64
	for _, v := range out {
		assert.GreaterOrEqual(t, v, float32(0))
		sum += float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-4)
}

// =============================================================================
// THREAD COMMUNICATION TESTS
// =============================================================================

func TestThreadCommunication_NoLostUpdates(t *testing.T) {
	tests := []struct {
		threads, iterations int
	}{
		{1, 1},
		{1, 10000},
		{2, 5000},
		{8, 1000},
		{64, 100},
		{64, 10000},
	}

	for _, tc := range tests {
		if testing.Short() && tc.threads*tc.iterations > 100000 {
			continue
		}
		shared, err := NewSharedCounter(tc.threads)
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make([]error, tc.threads)
		for r := 0; r < tc.threads; r++ {
			wg.Add(1)
			go func(r int) {
				defer wg.Done()
				errs[r] = ThreadCommunication(shared, r, tc.iterations)
			}(r)
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, int64(tc.threads*tc.iterations), shared.Counter(),
			"T=%d I=%d", tc.threads, tc.iterations)
	}
}

func TestNewSharedCounter_Invalid(t *testing.T) {
	_, err := NewSharedCounter(0)
	assert.Error(t, err)

	shared, err := NewSharedCounter(2)
	require.NoError(t, err)
	assert.Error(t, ThreadCommunication(shared, 2, 1))
}

func TestThreadCommWorkload_ReplicatedRun(t *testing.T) {
	d := threadCommWorkload(500)
	engine := benchmark.NewEngine(nil)

	res, err := engine.RunReplicated(d, d.WorkSize, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Replicas)
}

// =============================================================================
// CATALOG TESTS
// =============================================================================

func TestNewCatalog_Defaults(t *testing.T) {
	c, err := NewCatalog(DefaultOptions(detect.Topology{LogicalCPUs: 4}))
	require.NoError(t, err)
	assert.Equal(t, len(IDs()), c.Len())

	var got []string
	for _, d := range c.All() {
		got = append(got, d.ID)
	}
	assert.Equal(t, IDs(), got)

	mem := c.Suite(benchmark.SuiteMemory)
	require.Len(t, mem, 4)
	assert.Equal(t, int(detect.DefaultL1DataBytes), mem[0].WorkSize)
	assert.Equal(t, int(detect.DefaultL3Bytes)*DefaultRAMMultiplier, mem[3].WorkSize)

	tc, err := c.Get(IDThreadCommunication)
	require.NoError(t, err)
	assert.False(t, tc.Suites.Has(benchmark.SuiteSingleCore))

	avx, err := c.Get(IDVectorAVX512)
	require.NoError(t, err)
	assert.Equal(t, detect.CapabilityAVX512F, avx.Capability)
}

func TestNewCatalog_Selection(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantIDs []string
		wantErr bool
	}{
		{
			name:    "include",
			opts:    Options{Include: []string{IDFibonacci, IDGzip}},
			wantIDs: []string{IDFibonacci, IDGzip},
		},
		{
			name:    "include and disable",
			opts:    Options{Include: []string{IDFibonacci, IDGzip}, Disabled: []string{IDGzip}},
			wantIDs: []string{IDFibonacci},
		},
		{
			name:    "unknown include",
			opts:    Options{Include: []string{"nope"}},
			wantErr: true,
		},
		{
			name:    "unknown size override",
			opts:    Options{Sizes: map[string]int{"nope": 1}},
			wantErr: true,
		},
		{
			name:    "non-positive size override",
			opts:    Options{Sizes: map[string]int{IDFibonacci: 0}},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewCatalog(tc.opts)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var got []string
			for _, d := range c.All() {
				got = append(got, d.ID)
			}
			assert.Equal(t, tc.wantIDs, got)
		})
	}
}

func TestNewCatalog_SizeOverride(t *testing.T) {
	c, err := NewCatalog(Options{Sizes: map[string]int{IDQuickSort: 3}})
	require.NoError(t, err)
	d, err := c.Get(IDQuickSort)
	require.NoError(t, err)
	assert.Equal(t, 3, d.WorkSize)
}

func TestDefaultSizes_SmallIterations(t *testing.T) {
	sizes := Options{Iterations: 10}.DefaultSizes()
	for id, n := range sizes {
		assert.Positive(t, n, id)
	}
}

// Every workload must survive a tiny replicated run.
func TestWorkloads_TinyRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("runs every workload")
	}
	sizes := map[string]int{}
	for _, id := range IDs() {
		sizes[id] = 1
	}
	for _, id := range []string{IDMemoryL1, IDMemoryL2, IDMemoryL3, IDMemoryRAM, IDGzip, IDZstd, IDBrotli} {
		sizes[id] = 4096
	}
	c, err := NewCatalog(Options{Sizes: sizes})
	require.NoError(t, err)

	engine := benchmark.NewEngine(nil)
	for _, d := range c.All() {
		t.Run(d.ID, func(t *testing.T) {
			_, err := engine.RunReplicated(d, d.WorkSize, 2)
			assert.NoError(t, err)
		})
	}
}
