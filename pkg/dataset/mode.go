// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dataset

// Mode selects the transforms applied by Provider.Get.
type Mode int

//go:generate go tool enumer -type=Mode -trimprefix=Mode -transform=lower -text -output=gen_mode_enumer.go mode.go

const (
	// ModeTrain applies the random synchronized transform (mirror, scale, pad, crop) and remaps the mask.
	ModeTrain Mode = iota

	// ModeVal resizes the short side to the validation crop size, center crops and remaps the mask.
	ModeVal

	// ModeTest returns the image as loaded (plus the image hook), for inference: no mask is loaded.
	ModeTest

	// ModeTestVal resizes image and mask by the long side, for evaluation at full resolution.
	ModeTestVal
)

// HasMask returns whether samples of this mode carry a mask.
func (m Mode) HasMask() bool { return m != ModeTest }

// Kind selects how masks are converted to training indices.
type Kind int

//go:generate go tool enumer -type=Kind -trimprefix=Kind -transform=snake -text -output=gen_kind_enumer.go mode.go

const (
	// KindRawPassthrough masks already hold training indices: only 255 becomes the ignore index.
	KindRawPassthrough Kind = iota

	// KindSparseRemap masks hold sparse raw codes, remapped with a labels.Mapping.
	KindSparseRemap

	// KindDualFormatRemap mixes both: each sample's LabelFormat selects the conversion.
	KindDualFormatRemap
)

// LabelFormat tells the encoding of a mask file, used by KindDualFormatRemap.
type LabelFormat int

//go:generate go tool enumer -type=LabelFormat -trimprefix=LabelFormat -transform=lower -text -output=gen_labelformat_enumer.go mode.go

const (
	// LabelFormatSparse masks hold raw label ids (e.g.: Cityscapes "gtFine_labelIds").
	LabelFormatSparse LabelFormat = iota

	// LabelFormatDense masks hold training indices, with 255 for ignore (e.g.: BDD100k).
	LabelFormatDense
)
