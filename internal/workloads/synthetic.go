// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"math"
	"math/rand/v2"

	"github.com/jeranaias/rigbench/internal/benchmark"
)

// =============================================================================
// MATRIX MULTIPLY
// =============================================================================

const matrixDim = 100

// Matrix is a square matrix stored row-major.
type Matrix struct {
	N    int
	Data []int32
}

// NewMatrix allocates an n by n zero matrix.
func NewMatrix(n int) *Matrix {
	return &Matrix{N: n, Data: make([]int32, n*n)}
}

// At returns element (r, c).
func (m *Matrix) At(r, c int) int32 { return m.Data[r*m.N+c] }

// Fill randomizes every element.
func (m *Matrix) Fill(rng *rand.Rand) {
	for i := range m.Data {
		m.Data[i] = rng.Int32()
	}
}

// MultiplyInto sets c = a*b with wrapping integer arithmetic. All three
// matrices must share the same dimension.
func MultiplyInto(c, a, b *Matrix) {
	n := a.N
	clear(c.Data)
	for i := 0; i < n; i++ {
		row := c.Data[i*n : (i+1)*n]
		for k := 0; k < n; k++ {
			aik := a.Data[i*n+k]
			bk := b.Data[k*n : (k+1)*n]
			for j := range row {
				row[j] += aik * bk[j]
			}
		}
	}
}

type matrixScratch struct {
	a, b, c *Matrix
	rng     *rand.Rand
}

// matrixWorkload refills both operands before each multiply; the fill is
// part of the timed work.
func matrixWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDMatrixMultiply,
		Name:        "Matrix Multiplication",
		Description: "dense 100x100 integer multiply",
		Category:    benchmark.CategoryStructuredSynthetic,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Prepare: func(replicas, _ int) (benchmark.RunFunc, error) {
			scratch := make([]matrixScratch, replicas)
			for r := range scratch {
				scratch[r] = matrixScratch{
					a:   NewMatrix(matrixDim),
					b:   NewMatrix(matrixDim),
					c:   NewMatrix(matrixDim),
					rng: NewReplicaRand(r),
				}
			}
			return func(replica, workSize int) error {
				s := scratch[replica]
				for i := 0; i < workSize; i++ {
					s.a.Fill(s.rng)
					s.b.Fill(s.rng)
					MultiplyInto(s.c, s.a, s.b)
				}
				return nil
			}, nil
		},
	}
}

// =============================================================================
// IMAGE AND FRAME FILTERS
// =============================================================================

const (
	frameWidth  = 3840
	frameHeight = 2160
)

// Plane is a single-channel 8-bit image.
type Plane struct {
	W, H int
	Pix  []uint8
}

// NewPlane allocates a w by h plane.
func NewPlane(w, h int) *Plane {
	return &Plane{W: w, H: h, Pix: make([]uint8, w*h)}
}

// BoxBlur writes the 3x3 mean of src into dst. Border pixels are left
// untouched.
func BoxBlur(dst, src *Plane) {
	w, h := src.W, src.H
	for y := 1; y < h-1; y++ {
		up, mid, down := src.Pix[(y-1)*w:], src.Pix[y*w:], src.Pix[(y+1)*w:]
		out := dst.Pix[y*w:]
		for x := 1; x < w-1; x++ {
			sum := int(up[x-1]) + int(up[x]) + int(up[x+1]) +
				int(mid[x-1]) + int(mid[x]) + int(mid[x+1]) +
				int(down[x-1]) + int(down[x]) + int(down[x+1])
			out[x] = uint8(sum / 9)
		}
	}
}

// FilterPixel applies the tone curve used by the frame filter. The result is
// clamped to [0, 255]; inputs that leave the log domain map to 0.
func FilterPixel(v float32) float32 {
	p := float64(v)
	p = math.Sqrt(p) * math.Sin(p) * math.Cos(p)
	p = p*2 + math.Log(p+1)
	p = (p/255)*1.5 - 0.5
	p *= 255
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 255:
		return 255
	}
	return float32(p)
}

// FilterFrame generates a synthetic gradient frame shifted by offset and
// tone-maps it into dst.
func FilterFrame(dst *Plane, offset int) {
	w := dst.W
	for y := 0; y < dst.H; y++ {
		row := dst.Pix[y*w : (y+1)*w]
		for x := range row {
			row[x] = uint8(FilterPixel(float32((x*y + offset) % 255)))
		}
	}
}

// imageBlurWorkload blurs a shared random source image into one output
// plane per replica.
func imageBlurWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDImageBlur,
		Name:        "Image Blur",
		Description: "3x3 box blur over a 3840x2160 plane",
		Category:    benchmark.CategoryStructuredSynthetic,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Prepare: func(replicas, _ int) (benchmark.RunFunc, error) {
			src := NewPlane(frameWidth, frameHeight)
			fillRandomBytes(NewReplicaRand(0), src.Pix)
			outs := make([]*Plane, replicas)
			for r := range outs {
				outs[r] = NewPlane(frameWidth, frameHeight)
			}
			return func(replica, workSize int) error {
				for i := 0; i < workSize; i++ {
					BoxBlur(outs[replica], src)
				}
				return nil
			}, nil
		},
	}
}

func videoFilterWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDVideoFilter,
		Name:        "Video Transcoding",
		Description: "per-pixel transcendental filter over 3840x2160 frames",
		Category:    benchmark.CategoryStructuredSynthetic,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Prepare: func(replicas, _ int) (benchmark.RunFunc, error) {
			frames := make([]*Plane, replicas)
			rngs := make([]*rand.Rand, replicas)
			for r := range frames {
				frames[r] = NewPlane(frameWidth, frameHeight)
				rngs[r] = NewReplicaRand(r)
			}
			return func(replica, workSize int) error {
				rng := rngs[replica]
				for i := 0; i < workSize; i++ {
					FilterFrame(frames[replica], rng.IntN(255))
				}
				return nil
			}, nil
		},
	}
}
