// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package augment

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	"github.com/gomlx/segaug/pkg/core/errs"
	"github.com/gomlx/segaug/pkg/core/mask"
	"github.com/pkg/errors"
)

// PadColor is the fill used for image padding: 0 on all color channels (opaque black).
var PadColor = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

// Geometry is the plan of a synchronized transform: applying the same Geometry to an image and
// its mask keeps every pixel aligned with its label.
//
// The steps are applied in order: mirror, resize, pad (bottom/right), crop.
type Geometry struct {
	// Flip mirrors horizontally before anything else.
	Flip bool

	// Resize is the size after resizing. Same as the source size if no resize is needed.
	Resize image.Point

	// Pad holds the extra columns (X, on the right) and rows (Y, on the bottom) added after resizing.
	Pad image.Point

	// Crop is the final window, in the coordinates of the resized and padded canvas.
	Crop image.Rectangle
}

// String implements fmt.Stringer.
func (g Geometry) String() string {
	return fmt.Sprintf("flip=%v resize=%dx%d pad=%v crop=%v", g.Flip, g.Resize.X, g.Resize.Y, g.Pad, g.Crop)
}

// Canvas returns the size of the resized and padded image, where Crop is taken from.
func (g Geometry) Canvas() image.Point { return g.Resize.Add(g.Pad) }

// Validate checks the plan is self-consistent: positive sizes and a crop window inside the canvas.
func (g Geometry) Validate() error {
	if g.Resize.X <= 0 || g.Resize.Y <= 0 {
		return errs.Geometryf("non-positive resize dimensions %dx%d", g.Resize.X, g.Resize.Y)
	}
	if g.Pad.X < 0 || g.Pad.Y < 0 {
		return errs.Geometryf("negative padding %v", g.Pad)
	}
	if g.Crop.Empty() {
		return errs.Geometryf("empty crop window %v", g.Crop)
	}
	canvas := g.Canvas()
	if !g.Crop.In(image.Rect(0, 0, canvas.X, canvas.Y)) {
		return errs.Geometryf("crop window %v larger than the canvas %dx%d", g.Crop, canvas.X, canvas.Y)
	}
	return nil
}

// checkSizes returns a GeometryError if the image and mask don't have the same dimensions.
func checkSizes(img image.Image, m *mask.Mask) error {
	imgSize := img.Bounds().Size()
	if imgSize.X <= 0 || imgSize.Y <= 0 {
		return errs.Geometryf("empty image (%dx%d)", imgSize.X, imgSize.Y)
	}
	if m == nil {
		return nil
	}
	if imgSize != m.Size() {
		return errs.Geometryf("image size %dx%d doesn't match mask size %dx%d", imgSize.X, imgSize.Y, m.Width, m.Height)
	}
	return nil
}

// checkCrop returns a GeometryError for non-positive crop sizes.
func checkCrop(crop image.Point) error {
	if crop.X <= 0 || crop.Y <= 0 {
		return errs.Geometryf("crop size must be positive, got %dx%d", crop.X, crop.Y)
	}
	return nil
}

// ScaleToLongSide returns the size with the longer dimension set to longSide, and the shorter one
// scaled proportionally and rounded to the nearest integer (at least 1).
//
// Square sizes are treated as width being the long side.
func ScaleToLongSide(size image.Point, longSide int) image.Point {
	if size.Y > size.X {
		width := int(float64(size.X)*float64(longSide)/float64(size.Y) + 0.5)
		return image.Pt(max(width, 1), longSide)
	}
	height := int(float64(size.Y)*float64(longSide)/float64(size.X) + 0.5)
	return image.Pt(longSide, max(height, 1))
}

// ScaleToShortSide returns the size with the shorter dimension set to shortSide, and the longer one
// scaled proportionally and truncated.
//
// Square sizes are treated as width being the short side.
func ScaleToShortSide(size image.Point, shortSide int) image.Point {
	if size.X > size.Y {
		return image.Pt(int(float64(size.X)*float64(shortSide)/float64(size.Y)), shortSide)
	}
	return image.Pt(shortSide, int(float64(size.Y)*float64(shortSide)/float64(size.X)))
}

// PlanRandom returns the Geometry of a random training transform for an image of the given size:
//
//   - mirrored with probability 0.5;
//   - resized so its long side is longSide, preserving the aspect ratio;
//   - padded on the bottom/right when smaller than crop;
//   - cropped at a uniformly random position to exactly crop.
//
// All random draws come from rng.
func PlanRandom(rng *rand.Rand, size, crop image.Point, longSide int) (Geometry, error) {
	var g Geometry
	if rng == nil {
		return g, errors.New("augment.PlanRandom requires a random number generator, got nil")
	}
	if err := checkCrop(crop); err != nil {
		return g, err
	}
	if size.X <= 0 || size.Y <= 0 || longSide <= 0 {
		return g, errs.Geometryf("cannot scale size %dx%d to long side %d", size.X, size.Y, longSide)
	}
	g.Flip = rng.Float64() < 0.5
	g.Resize = ScaleToLongSide(size, longSide)
	g.Pad = image.Pt(max(crop.X-g.Resize.X, 0), max(crop.Y-g.Resize.Y, 0))
	canvas := g.Canvas()
	x1 := rng.Intn(canvas.X - crop.X + 1)
	y1 := rng.Intn(canvas.Y - crop.Y + 1)
	g.Crop = image.Rect(x1, y1, x1+crop.X, y1+crop.Y)
	return g, g.Validate()
}

// PlanCenter returns the Geometry of the validation transform for an image of the given size:
// resized so its short side is cropSize, then center cropped to cropSize x cropSize.
func PlanCenter(size image.Point, cropSize int) (Geometry, error) {
	var g Geometry
	if err := checkCrop(image.Pt(cropSize, cropSize)); err != nil {
		return g, err
	}
	if size.X <= 0 || size.Y <= 0 {
		return g, errs.Geometryf("cannot scale size %dx%d", size.X, size.Y)
	}
	g.Resize = ScaleToShortSide(size, cropSize)
	// Offsets round half to even.
	x1 := int(math.RoundToEven(float64(g.Resize.X-cropSize) / 2))
	y1 := int(math.RoundToEven(float64(g.Resize.Y-cropSize) / 2))
	g.Crop = image.Rect(x1, y1, x1+cropSize, y1+cropSize)
	return g, g.Validate()
}

// Apply transforms the image and (optionally) the mask according to the plan.
//
// The image is resized with bilinear interpolation and padded with PadColor; the mask is resized
// with nearest-neighbor and padded with mask.RawIgnore. If m is nil only the image is transformed.
func (g Geometry) Apply(img image.Image, m *mask.Mask) (*image.NRGBA, *mask.Mask, error) {
	if err := checkSizes(img, m); err != nil {
		return nil, nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}
	outImg, err := g.applyImage(img)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return outImg, nil, nil
	}
	outMask, err := g.applyMask(m)
	if err != nil {
		return nil, nil, err
	}
	return outImg, outMask, nil
}

func (g Geometry) applyImage(img image.Image) (*image.NRGBA, error) {
	var out *image.NRGBA
	if g.Flip {
		out = imaging.FlipH(img)
	} else {
		out = imaging.Clone(img)
	}
	out = imaging.Resize(out, g.Resize.X, g.Resize.Y, imaging.Linear)
	if g.Pad.X > 0 || g.Pad.Y > 0 {
		canvas := g.Canvas()
		out = imaging.Paste(imaging.New(canvas.X, canvas.Y, PadColor), out, image.Pt(0, 0))
	}
	if g.Crop != out.Bounds() {
		out = imaging.Crop(out, g.Crop)
	}
	if out.Bounds().Size() != g.Crop.Size() {
		return nil, errs.Geometryf("cropped image is %v, expected %v", out.Bounds().Size(), g.Crop.Size())
	}
	return out, nil
}

func (g Geometry) applyMask(m *mask.Mask) (*mask.Mask, error) {
	if g.Flip {
		m = m.FlipH()
	}
	m, err := m.ResizeNearest(g.Resize.X, g.Resize.Y)
	if err != nil {
		return nil, err
	}
	if g.Pad.X > 0 || g.Pad.Y > 0 {
		m, err = m.Pad(g.Pad.X, g.Pad.Y, mask.RawIgnore)
		if err != nil {
			return nil, err
		}
	}
	return m.Crop(g.Crop)
}
