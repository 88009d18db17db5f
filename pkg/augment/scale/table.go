// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package scale implements the random long-side sampler used by the training augmentation.
//
// Candidate long sides are multiples of 32 between base_size*low and base_size*high, and each
// candidate is weighted by a normal distribution centered slightly below base_size (4 units of 32
// below it). The resulting distribution Table is a pure function of its Key, so it is memoized in a
// bounded Cache that is shared among all workers.
package scale

import (
	"fmt"
	"math"
	"sort"

	"github.com/gomlx/segaug/pkg/core/errs"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Unit is the granularity of the sampled long sides: every sample is a multiple of it.
const Unit = 32

// MeanOffset is how many Units below ceil(base_size/Unit) the distribution is centered.
const MeanOffset = 4

// Key identifies a distribution Table.
type Key struct {
	// BaseSize is the reference long side, in pixels.
	BaseSize int

	// Low and High are the scale factors (relative to BaseSize) that bound the candidates.
	Low, High float64

	// Std is the standard deviation of the normal weighting, in Units (not pixels).
	Std float64
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return fmt.Sprintf("base=%d,low=%g,high=%g,std=%g", k.BaseSize, k.Low, k.High, k.Std)
}

// Validate returns a ConfigurationError if the key can't be used to build a Table.
func (k Key) Validate() error {
	switch {
	case k.BaseSize <= 0:
		return errs.Configurationf("base size must be > 0, got %d", k.BaseSize)
	case math.IsNaN(k.Low) || math.IsInf(k.Low, 0) || math.IsNaN(k.High) || math.IsInf(k.High, 0):
		return errs.Configurationf("scale bounds must be finite, got low=%g, high=%g", k.Low, k.High)
	case k.Low <= 0:
		return errs.Configurationf("scale low must be > 0, got %g", k.Low)
	case k.Low >= k.High:
		return errs.Configurationf("scale low (%g) must be smaller than high (%g)", k.Low, k.High)
	case !(k.Std > 0) || math.IsInf(k.Std, 0):
		return errs.Configurationf("sampling std must be a finite value > 0, got %g", k.Std)
	}
	return nil
}

// Table is the weighted distribution of candidate long sides for one Key.
//
// It is immutable once built and safe to share.
type Table struct {
	Key Key

	// Candidates are the long sides in Units, strictly increasing.
	Candidates []int

	// Probs holds the normalized probability of each candidate.
	Probs []float64

	// CumProbs is the cumulative sum of Probs, so the last value is 1 (within rounding errors).
	CumProbs []float64

	// Mean32 is the center of the normal weighting, in Units.
	Mean32 int
}

// ceilUnits returns ceil(v / Unit).
func ceilUnits(v float64) int {
	return int(math.Ceil(v / Unit))
}

// BuildTable computes the Table for the given key.
func BuildTable(key Key) (*Table, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	lo32 := ceilUnits(float64(key.BaseSize) * key.Low)
	hi32 := ceilUnits(float64(key.BaseSize) * key.High)
	t := &Table{
		Key:    key,
		Mean32: ceilUnits(float64(key.BaseSize)) - MeanOffset,
	}
	numCandidates := hi32 - lo32 + 1
	t.Candidates = make([]int, numCandidates)
	t.Probs = make([]float64, numCandidates)
	normal := distuv.Normal{Mu: float64(t.Mean32), Sigma: key.Std}
	for ii := range numCandidates {
		t.Candidates[ii] = lo32 + ii
		t.Probs[ii] = normal.Prob(float64(t.Candidates[ii]))
	}
	total := floats.Sum(t.Probs)
	if !(total > 0) {
		// All weights underflowed: the candidates are too far from the mean for the given std.
		return nil, errs.Configurationf("scale distribution %s has no probability mass over candidates [%d, %d]x%d",
			key, lo32, hi32, Unit)
	}
	floats.Scale(1/total, t.Probs)
	t.CumProbs = floats.CumSum(make([]float64, numCandidates), t.Probs)
	return t, nil
}

// Len returns the number of candidates.
func (t *Table) Len() int { return len(t.Candidates) }

// Pick returns the long side (in pixels) selected by u, a uniform value in [0, 1).
//
// It selects the smallest candidate whose cumulative probability is >= u. Rounding can leave the
// last cumulative probability slightly below 1, in which case the last candidate is taken.
func (t *Table) Pick(u float64) int {
	idx := sort.SearchFloat64s(t.CumProbs, u)
	if idx >= len(t.Candidates) {
		idx = len(t.Candidates) - 1
	}
	return t.Candidates[idx] * Unit
}

// Mean returns the expected long side of the distribution, in Units.
func (t *Table) Mean() float64 {
	return floats.Dot(t.Probs, candidatesAsFloats(t.Candidates))
}

// MinLongSide returns the smallest value Pick can return, in pixels.
func (t *Table) MinLongSide() int { return t.Candidates[0] * Unit }

// MaxLongSide returns the largest value Pick can return, in pixels.
func (t *Table) MaxLongSide() int { return t.Candidates[len(t.Candidates)-1] * Unit }

func candidatesAsFloats(candidates []int) []float64 {
	values := make([]float64, len(candidates))
	for ii, c := range candidates {
		values[ii] = float64(c)
	}
	return values
}
