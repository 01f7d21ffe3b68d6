// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"math"
	"math/rand/v2"

	"github.com/jeranaias/rigbench/internal/benchmark"
)

// =============================================================================
// FEED-FORWARD NETWORK
// =============================================================================

// Layer sizes of the benchmark network.
const (
	nnInput   = 256
	nnHidden1 = 128
	nnHidden2 = 64
	nnOutput  = 32
)

// Activation is applied in place to a layer's pre-activations.
type Activation func([]float32)

// ReLU clamps negatives to zero.
func ReLU(v []float32) {
	for i, x := range v {
		if x < 0 {
			v[i] = 0
		}
	}
}

// Sigmoid maps each value to 1/(1+e^-x).
func Sigmoid(v []float32) {
	for i, x := range v {
		v[i] = float32(1 / (1 + math.Exp(-float64(x))))
	}
}

// Softmax normalizes v into a probability distribution. The max is
// subtracted first for numerical stability.
func Softmax(v []float32) {
	if len(v) == 0 {
		return
	}
	maxV := v[0]
	for _, x := range v[1:] {
		if x > maxV {
			maxV = x
		}
	}
	var sum float64
	for i, x := range v {
		e := math.Exp(float64(x - maxV))
		v[i] = float32(e)
		sum += e
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / sum)
	}
}

// DenseLayer is a fully connected layer without bias.
type DenseLayer struct {
	In, Out    int
	Weights    []float32 // Out rows of In weights
	Activation Activation
	out        []float32
}

// NewDenseLayer builds a layer with uniform [0,1) weights.
func NewDenseLayer(in, out int, act Activation, rng *rand.Rand) *DenseLayer {
	l := &DenseLayer{In: in, Out: out, Weights: make([]float32, in*out), Activation: act, out: make([]float32, out)}
	for i := range l.Weights {
		l.Weights[i] = rng.Float32()
	}
	return l
}

// Forward computes the layer output for x. The returned slice is reused by
// the next call.
func (l *DenseLayer) Forward(x []float32) []float32 {
	for o := 0; o < l.Out; o++ {
		w := l.Weights[o*l.In : (o+1)*l.In]
		var acc float32
		for i, xi := range x {
			acc += w[i] * xi
		}
		l.out[o] = acc
	}
	if l.Activation != nil {
		l.Activation(l.out)
	}
	return l.out
}

// Network is a stack of dense layers.
type Network struct {
	Layers []*DenseLayer
}

// NewNetwork builds the 256 -> 128 (ReLU) -> 64 (sigmoid) -> 32 (softmax)
// network.
func NewNetwork(rng *rand.Rand) *Network {
	return &Network{Layers: []*DenseLayer{
		NewDenseLayer(nnInput, nnHidden1, ReLU, rng),
		NewDenseLayer(nnHidden1, nnHidden2, Sigmoid, rng),
		NewDenseLayer(nnHidden2, nnOutput, Softmax, rng),
	}}
}

// Forward runs x through every layer.
func (n *Network) Forward(x []float32) []float32 {
	for _, l := range n.Layers {
		x = l.Forward(x)
	}
	return x
}

type nnScratch struct {
	net   *Network
	input []float32
	rng   *rand.Rand
}

// neuralWorkload rebuilds weights and input on every pass, so
// initialization is measured along with inference.
func neuralWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDNeuralNetwork,
		Name:        "Neural Network",
		Description: "forward pass of a 256-128-64-32 dense network",
		Category:    benchmark.CategoryStructuredSynthetic,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Prepare: func(replicas, _ int) (benchmark.RunFunc, error) {
			scratch := make([]nnScratch, replicas)
			for r := range scratch {
				rng := NewReplicaRand(r)
				scratch[r] = nnScratch{net: NewNetwork(rng), input: make([]float32, nnInput), rng: rng}
			}
			return func(replica, workSize int) error {
				s := scratch[replica]
				var out []float32
				for i := 0; i < workSize; i++ {
					for k := range s.input {
						s.input[k] = s.rng.Float32()
					}
					for _, l := range s.net.Layers {
						for k := range l.Weights {
							l.Weights[k] = s.rng.Float32()
						}
					}
					out = s.net.Forward(s.input)
				}
				if replica == 0 && len(out) > 0 {
					sink.v = out[0]
				}
				return nil
			}, nil
		},
	}
}
