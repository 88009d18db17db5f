// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package labels converts masks between the raw label space of an annotation source and the dense
// training-index space used for the loss, and back (to export predictions).
//
// Two implementations of Remapper are provided:
//
//   - Mapping: a sparse-to-dense lookup over a sorted domain of raw codes (e.g.: Cityscapes label
//     ids to the 19 training classes).
//   - Passthrough: for sources whose masks already hold training indices, only the raw ignore
//     sentinel (255) is converted to the training ignore index (-1).
package labels

import (
	"fmt"
	"slices"
	"sort"

	"github.com/gomlx/segaug/pkg/core/errs"
	"github.com/gomlx/segaug/pkg/core/mask"
)

// Remapper converts masks from raw codes to training indices and back.
type Remapper interface {
	// Remap converts a raw mask to training indices. It returns a new mask.
	Remap(m *mask.Mask) (*mask.Mask, error)

	// Inverse converts a mask of training indices (typically a prediction) to raw codes.
	Inverse(m *mask.Mask) (*mask.Mask, error)

	// NumClasses is the number of training classes, not counting the ignore index.
	// It may be 0 if unknown.
	NumClasses() int
}

// maxLUTSpan is the largest span of raw codes (max-min+1) for which a dense lookup table is built.
const maxLUTSpan = 1 << 16

// notInDomain marks LUT entries for codes absent from the domain.
const notInDomain = int32(-1 << 31)

// Mapping is an immutable sparse-to-dense mapping of raw codes to training indices.
//
// Create it with NewMapping, it is safe for concurrent use.
type Mapping struct {
	domain     []int
	trainIndex []int
	lenient    bool

	// lut[code-lutMin] holds the training index of code, or notInDomain.
	lutMin int
	lut    []int32

	// toRaw maps each training index (including the ignore index) back to one raw code.
	toRaw      map[int32]int32
	numClasses int
}

// Compile-time check that Mapping implements Remapper.
var _ Remapper = (*Mapping)(nil)

// NewMapping creates a Mapping from the sorted raw-code domain and the training index of each code.
//
// trainIndex may hold mask.TrainIgnore (-1) for codes that map to nothing. It returns a
// ConfigurationError if the slices are empty, have different lengths, or if rawDomain is not
// strictly increasing.
//
// The inverse of a training index is the smallest non-negative raw code mapped to it, falling back
// to the smallest raw code if all of them are negative.
func NewMapping(rawDomain, trainIndex []int) (*Mapping, error) {
	if len(rawDomain) == 0 {
		return nil, errs.Configurationf("label mapping with an empty raw domain")
	}
	if len(rawDomain) != len(trainIndex) {
		return nil, errs.Configurationf("label mapping raw domain has %d entries, but %d training indices were given",
			len(rawDomain), len(trainIndex))
	}
	for ii := 1; ii < len(rawDomain); ii++ {
		if rawDomain[ii] <= rawDomain[ii-1] {
			return nil, errs.Configurationf("label mapping raw domain must be strictly increasing, got %d after %d at position %d",
				rawDomain[ii], rawDomain[ii-1], ii)
		}
	}
	for ii, idx := range trainIndex {
		if idx < int(mask.TrainIgnore) {
			return nil, errs.Configurationf("invalid training index %d for raw code %d", idx, rawDomain[ii])
		}
	}
	mp := &Mapping{
		domain:     slices.Clone(rawDomain),
		trainIndex: slices.Clone(trainIndex),
		toRaw:      make(map[int32]int32),
	}
	for ii, idx := range mp.trainIndex {
		code, train := int32(mp.domain[ii]), int32(idx)
		prev, found := mp.toRaw[train]
		if !found || (prev < 0 && code >= 0) {
			mp.toRaw[train] = code
		}
		mp.numClasses = max(mp.numClasses, idx+1)
	}
	mp.buildLUT()
	return mp, nil
}

// buildLUT fills the dense lookup table from the digitize search, if the domain span is small enough.
func (mp *Mapping) buildLUT() {
	lo, hi := mp.domain[0], mp.domain[len(mp.domain)-1]
	if hi-lo+1 > maxLUTSpan {
		return
	}
	mp.lutMin = lo
	mp.lut = make([]int32, hi-lo+1)
	for ii := range mp.lut {
		idx, ok := mp.search(lo + ii)
		if ok {
			mp.lut[ii] = int32(idx)
		} else {
			mp.lut[ii] = notInDomain
		}
	}
}

// search implements the right-biased digitize: it finds the smallest domain entry >= code, and
// reports whether it is an exact match.
func (mp *Mapping) search(code int) (trainIdx int, found bool) {
	pos := sort.SearchInts(mp.domain, code)
	if pos >= len(mp.domain) || mp.domain[pos] != code {
		return 0, false
	}
	return mp.trainIndex[pos], true
}

// Lenient returns a copy of the mapping that maps raw codes absent from the domain to the ignore
// index, instead of failing with a MappingError.
func (mp *Mapping) Lenient() *Mapping {
	cp := *mp
	cp.lenient = true
	return &cp
}

// IsLenient returns whether unknown raw codes are mapped to the ignore index.
func (mp *Mapping) IsLenient() bool { return mp.lenient }

// NumClasses returns the number of training classes: the largest training index + 1.
func (mp *Mapping) NumClasses() int { return mp.numClasses }

// Domain returns a copy of the sorted raw codes of the mapping.
func (mp *Mapping) Domain() []int { return slices.Clone(mp.domain) }

// String implements fmt.Stringer.
func (mp *Mapping) String() string {
	return fmt.Sprintf("labels.Mapping(%d raw codes in [%d, %d] -> %d classes, lenient=%v)",
		len(mp.domain), mp.domain[0], mp.domain[len(mp.domain)-1], mp.numClasses, mp.lenient)
}

// Lookup returns the training index of a single raw code, after collapsing mask.RawIgnore to 0.
func (mp *Mapping) Lookup(raw int32) (int32, error) {
	code := raw
	if code == mask.RawIgnore {
		code = 0
	}
	var (
		idx   int32
		found bool
	)
	if mp.lut != nil {
		if pos := int(code) - mp.lutMin; pos >= 0 && pos < len(mp.lut) && mp.lut[pos] != notInDomain {
			idx, found = mp.lut[pos], true
		}
	} else {
		var idxInt int
		idxInt, found = mp.search(int(code))
		idx = int32(idxInt)
	}
	if !found {
		if mp.lenient {
			return mask.TrainIgnore, nil
		}
		collapsed := ""
		if raw != code {
			collapsed = fmt.Sprintf(" (collapsed to %d)", code)
		}
		return 0, errs.Mappingf(int(raw), "raw code%s not in the label domain [%d, %d] of %d codes",
			collapsed, mp.domain[0], mp.domain[len(mp.domain)-1], len(mp.domain))
	}
	return idx, nil
}

// Remap converts the raw mask to training indices.
//
// Pixels with the raw ignore sentinel (255) are treated as raw code 0 before the lookup, so they take
// the training index of code 0, not the ignore index. A code absent from the domain is a
// MappingError, unless the mapping is Lenient.
func (mp *Mapping) Remap(m *mask.Mask) (*mask.Mask, error) {
	return m.Map(mp.Lookup)
}

// RawCode returns the raw code for a training index.
func (mp *Mapping) RawCode(trainIdx int32) (int32, error) {
	code, found := mp.toRaw[trainIdx]
	if !found {
		return 0, errs.Mappingf(int(trainIdx), "not a training index of the mapping (%d classes)", mp.numClasses)
	}
	return code, nil
}

// Inverse converts a mask of training indices back to raw codes. Any value that is not a training
// index of the mapping (the ignore index included, if some raw code maps to it) is a MappingError.
func (mp *Mapping) Inverse(m *mask.Mask) (*mask.Mask, error) {
	return m.Map(mp.RawCode)
}
