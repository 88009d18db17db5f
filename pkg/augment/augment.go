// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package augment implements the synchronized geometric transforms applied to an image and its
// label mask, so that every pixel of the output image is still aligned with its label.
//
// There are three entry points, one per pipeline mode:
//
//   - Transformer.RandomSync (training): random mirror, random long-side rescale, pad and random crop.
//   - CenterSync (validation): rescale the short side to the crop size and center crop.
//   - ResizeLongSide / ResizeLongSidePair (test / test-with-labels): rescale the long side to
//     a multiple of 32.
//
// Images are always resized with bilinear interpolation, masks with nearest-neighbor, so label
// values are never blended. All functions return new images and masks, inputs are never modified.
package augment

import (
	"image"
	"math/rand"

	"github.com/disintegration/imaging"
	"github.com/gomlx/segaug/pkg/augment/scale"
	"github.com/gomlx/segaug/pkg/core/errs"
	"github.com/gomlx/segaug/pkg/core/mask"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Transformer implements the random training transform. It draws its random scales from a
// scale.Sampler, whose table cache may be shared with other Transformers.
//
// A Transformer has no mutable state and is safe for concurrent use, provided each goroutine
// passes its own *rand.Rand.
type Transformer struct {
	sampler *scale.Sampler
}

// NewTransformer returns a Transformer drawing long sides from sampler.
// If sampler is nil, one with a private cache is created.
func NewTransformer(sampler *scale.Sampler) *Transformer {
	if sampler == nil {
		sampler = scale.NewSampler(nil)
	}
	return &Transformer{sampler: sampler}
}

// Sampler used by the Transformer.
func (t *Transformer) Sampler() *scale.Sampler { return t.sampler }

// PlanRandomSync draws the random Geometry used by RandomSync for an image of the given size.
func (t *Transformer) PlanRandomSync(rng *rand.Rand, size, crop image.Point, scaleKey scale.Key) (Geometry, error) {
	if rng == nil {
		return Geometry{}, errors.New("augment.Transformer requires a random number generator, got nil")
	}
	if err := checkCrop(crop); err != nil {
		return Geometry{}, err
	}
	longSide, err := t.sampler.SampleLongSide(rng, scaleKey)
	if err != nil {
		return Geometry{}, err
	}
	return PlanRandom(rng, size, crop, longSide)
}

// RandomSync applies the training transform to the image and its raw mask:
//
//  1. With probability 0.5 both are mirrored horizontally.
//  2. A long side is drawn from the scale distribution of scaleKey.
//  3. Both are resized, preserving the aspect ratio, so the longer side equals the drawn value.
//  4. If smaller than crop, they are padded on the bottom/right: the image with 0s, the mask with
//     mask.RawIgnore.
//  5. A crop window of exactly crop is taken at a uniformly random position.
//
// It returns a GeometryError if image and mask sizes differ or if crop is not positive, and a
// ConfigurationError for an invalid scaleKey.
func (t *Transformer) RandomSync(rng *rand.Rand, img image.Image, m *mask.Mask, crop image.Point, scaleKey scale.Key) (
	*image.NRGBA, *mask.Mask, error) {
	if err := checkSizes(img, m); err != nil {
		return nil, nil, err
	}
	g, err := t.PlanRandomSync(rng, img.Bounds().Size(), crop, scaleKey)
	if err != nil {
		return nil, nil, err
	}
	klog.V(3).Infof("augment: random sync transform of %v: %s", img.Bounds().Size(), g)
	return g.Apply(img, m)
}

// CenterSync applies the validation transform to the image and its raw mask: both are resized so
// that the shorter side equals cropSize, and then center cropped to cropSize x cropSize.
//
// There is no padding: the resize guarantees the canvas is at least as large as the crop.
func CenterSync(img image.Image, m *mask.Mask, cropSize int) (*image.NRGBA, *mask.Mask, error) {
	if err := checkSizes(img, m); err != nil {
		return nil, nil, err
	}
	g, err := PlanCenter(img.Bounds().Size(), cropSize)
	if err != nil {
		return nil, nil, err
	}
	klog.V(3).Infof("augment: center sync transform of %v: %s", img.Bounds().Size(), g)
	return g.Apply(img, m)
}

// MakeDivisible rounds value up to the nearest multiple of divisor.
func MakeDivisible(value, divisor int) int {
	if divisor <= 0 {
		return value
	}
	return (value + divisor - 1) / divisor * divisor
}

// LongSideSize returns the output size of ResizeLongSide for an image of the given size: the long
// side is baseSize rounded up to a multiple of 32, and the short side is scaled proportionally,
// truncated, and then rounded up to a multiple of 32 (at least 32).
func LongSideSize(size image.Point, baseSize int) (image.Point, error) {
	if baseSize <= 0 {
		return image.Point{}, errs.Configurationf("base size must be > 0, got %d", baseSize)
	}
	if size.X <= 0 || size.Y <= 0 {
		return image.Point{}, errs.Geometryf("empty image (%dx%d)", size.X, size.Y)
	}
	longSide := MakeDivisible(baseSize, scale.Unit)
	if size.X > size.Y {
		shortSide := int(float64(size.Y) * float64(longSide) / float64(size.X))
		return image.Pt(longSide, max(MakeDivisible(shortSide, scale.Unit), scale.Unit)), nil
	}
	shortSide := int(float64(size.X) * float64(longSide) / float64(size.Y))
	return image.Pt(max(MakeDivisible(shortSide, scale.Unit), scale.Unit), longSide), nil
}

// ResizeLongSide implements the test-only (inference) resize: see LongSideSize for the output size.
// The image is resized with bilinear interpolation.
func ResizeLongSide(img image.Image, baseSize int) (*image.NRGBA, error) {
	size, err := LongSideSize(img.Bounds().Size(), baseSize)
	if err != nil {
		return nil, err
	}
	return imaging.Resize(img, size.X, size.Y, imaging.Linear), nil
}

// ResizeLongSidePair is ResizeLongSide for an image with labels: the mask is resized with
// nearest-neighbor to the same output size, so both keep identical dimensions.
func ResizeLongSidePair(img image.Image, m *mask.Mask, baseSize int) (*image.NRGBA, *mask.Mask, error) {
	if err := checkSizes(img, m); err != nil {
		return nil, nil, err
	}
	outImg, err := ResizeLongSide(img, baseSize)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return outImg, nil, nil
	}
	size := outImg.Bounds().Size()
	outMask, err := m.ResizeNearest(size.X, size.Y)
	if err != nil {
		return nil, nil, err
	}
	return outImg, outMask, nil
}
