// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package labels

import (
	"slices"
	"sync"
)

// CityscapesNumClasses is the number of Cityscapes training classes.
const CityscapesNumClasses = 19

// cityscapesTrainIndex holds the training index of the Cityscapes label ids -1 to 33.
var cityscapesTrainIndex = []int{
	-1, -1, -1, -1, -1, -1,
	-1, -1, 0, 1, -1, -1,
	2, 3, 4, -1, -1, -1,
	5, -1, 6, 7, 8, 9,
	10, 11, 12, 13, 14, 15,
	-1, -1, 16, 17, 18,
}

var cityscapesClassNames = []string{
	"road", "sidewalk", "building", "wall", "fence", "pole", "traffic light", "traffic sign",
	"vegetation", "terrain", "sky", "person", "rider", "car", "truck", "bus", "train",
	"motorcycle", "bicycle",
}

// Cityscapes returns the mapping of Cityscapes "gtFine_labelIds" masks to the 19 training classes.
//
// Its inverse maps predictions back to label ids, with the ignore index exported as 0 (unlabeled).
var Cityscapes = sync.OnceValue(func() *Mapping {
	domain := make([]int, len(cityscapesTrainIndex))
	for ii := range domain {
		domain[ii] = ii - 1
	}
	mp, err := NewMapping(domain, cityscapesTrainIndex)
	if err != nil {
		panic(err)
	}
	return mp
})

// CityscapesClassNames returns the names of the Cityscapes training classes, indexed by training index.
func CityscapesClassNames() []string { return slices.Clone(cityscapesClassNames) }
