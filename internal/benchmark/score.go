// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package benchmark

import (
	"fmt"
	"math"
	"time"
)

// =============================================================================
// SCORE NORMALIZER
// =============================================================================

const (
	// DefaultNormalizationConstant is the reference K.
	DefaultNormalizationConstant = 1_000_000.0

	// DefaultResolution is the smallest elapsed time treated as measurable.
	DefaultResolution = time.Microsecond
)

// Normalizer turns elapsed time into a unitless score: round(K / ms), scaled
// by the replica count for aggregate (multi-core) runs. Scores are only
// comparable between runs that used the same K.
type Normalizer struct {
	k          float64
	resolution time.Duration
}

// NewNormalizer creates a normalizer. Non-positive arguments select the
// defaults.
func NewNormalizer(k float64, resolution time.Duration) *Normalizer {
	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		k = DefaultNormalizationConstant
	}
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	return &Normalizer{k: k, resolution: resolution}
}

// K returns the normalization constant.
func (n *Normalizer) K() float64 { return n.k }

// Resolution returns the degenerate-timing threshold.
func (n *Normalizer) Resolution() time.Duration { return n.resolution }

// Score normalizes elapsedMs. With aggregate set the rounded per-replica
// score is multiplied by replicas, so a run of P replicas scores exactly
// P * round(K/elapsedMs). Elapsed times at or below the resolution return
// ErrDegenerateTiming.
func (n *Normalizer) Score(elapsedMs float64, replicas int, aggregate bool) (float64, error) {
	if replicas < 1 {
		return 0, fmt.Errorf("replica count %d < 1", replicas)
	}
	threshold := float64(n.resolution) / float64(time.Millisecond)
	if math.IsNaN(elapsedMs) || elapsedMs <= 0 || elapsedMs <= threshold {
		return 0, fmt.Errorf("%w: %.6fms (resolution %s)", ErrDegenerateTiming, elapsedMs, n.resolution)
	}

	score := math.Round(n.k / elapsedMs)
	if aggregate {
		score *= float64(replicas)
	}
	return score, nil
}

// ScoreResult scores an ExecutionResult.
func (n *Normalizer) ScoreResult(r ExecutionResult, aggregate bool) (float64, error) {
	return n.Score(r.ElapsedMs(), r.Replicas, aggregate)
}
