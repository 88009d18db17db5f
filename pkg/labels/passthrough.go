// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package labels

import (
	"github.com/gomlx/segaug/pkg/core/errs"
	"github.com/gomlx/segaug/pkg/core/mask"
)

// Passthrough is the Remapper for masks that already hold training indices: only the raw ignore
// sentinel (255) is converted to the ignore index (-1).
//
// If Classes > 0, values outside [0, Classes) are also converted to the ignore index, and
// Inverse rejects them.
type Passthrough struct {
	Classes int
}

// Compile-time check that Passthrough implements Remapper.
var _ Remapper = Passthrough{}

// NumClasses implements Remapper.
func (p Passthrough) NumClasses() int { return p.Classes }

func (p Passthrough) inRange(v int32) bool {
	return p.Classes <= 0 || (v >= 0 && int(v) < p.Classes)
}

// Remap implements Remapper. It never fails.
func (p Passthrough) Remap(m *mask.Mask) (*mask.Mask, error) {
	return m.Map(func(v int32) (int32, error) {
		if v == mask.RawIgnore || !p.inRange(v) {
			return mask.TrainIgnore, nil
		}
		return v, nil
	})
}

// Inverse implements Remapper: the ignore index goes back to 255.
func (p Passthrough) Inverse(m *mask.Mask) (*mask.Mask, error) {
	return m.Map(func(v int32) (int32, error) {
		if v == mask.TrainIgnore {
			return mask.RawIgnore, nil
		}
		if v < 0 || !p.inRange(v) {
			return 0, errs.Mappingf(int(v), "not a training index (%d classes)", p.Classes)
		}
		return v, nil
	})
}
