// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package mask implements a label plane: a 2D array of integer label codes paired with an image.
//
// Label values must never be interpolated or blended, so all geometric operations here use
// nearest-neighbor sampling, with the same pixel-center convention as imaging.NearestNeighbor.
// That keeps a mask aligned with its image when both go through the same resize.
//
// All operations return a new Mask, the receiver is never modified.
package mask

import (
	"image"
	"image/color"
	"slices"

	"github.com/gomlx/segaug/pkg/core/errs"
	"github.com/pkg/errors"
)

const (
	// RawIgnore is the ignore sentinel in the raw (source annotation) label space.
	// It is also the value used to pad masks.
	RawIgnore int32 = 255

	// TrainIgnore is the ignore sentinel in the dense training-index space.
	// Pixels with this value are excluded from the loss.
	TrainIgnore int32 = -1
)

// Mask holds the labels of an image in row-major order: Labels[y*Width+x].
type Mask struct {
	Width, Height int
	Labels        []int32
}

// New returns a Mask of the given size filled with 0s.
func New(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Labels: make([]int32, width*height),
	}
}

// NewFilled returns a Mask of the given size with every pixel set to value.
func NewFilled(width, height int, value int32) *Mask {
	m := New(width, height)
	if value != 0 {
		for ii := range m.Labels {
			m.Labels[ii] = value
		}
	}
	return m
}

// FromImage converts a decoded label image to a Mask.
//
// Paletted images (e.g.: Pascal VOC annotations) yield the palette index, 16-bit grayscale images
// keep their full value, and everything else is read through its gray level (for 8-bit label
// PNGs that is the stored value).
func FromImage(img image.Image) *Mask {
	bounds := img.Bounds()
	m := New(bounds.Dx(), bounds.Dy())
	switch src := img.(type) {
	case *image.Gray:
		for y := range m.Height {
			row := src.Pix[y*src.Stride : y*src.Stride+m.Width]
			for x, v := range row {
				m.Labels[y*m.Width+x] = int32(v)
			}
		}
	case *image.Paletted:
		for y := range m.Height {
			for x := range m.Width {
				m.Labels[y*m.Width+x] = int32(src.ColorIndexAt(bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
	case *image.Gray16:
		for y := range m.Height {
			for x := range m.Width {
				m.Labels[y*m.Width+x] = int32(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	default:
		for y := range m.Height {
			for x := range m.Width {
				gray := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
				m.Labels[y*m.Width+x] = int32(gray.Y)
			}
		}
	}
	return m
}

// ToGray converts the mask to an 8-bit grayscale image, e.g. for saving as PNG.
// It fails if any value is outside of [0, 255].
func (m *Mask) ToGray() (*image.Gray, error) {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for ii, v := range m.Labels {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("mask value %d at (%d, %d) doesn't fit in 8 bits", v, ii%m.Width, ii/m.Width)
		}
		img.Pix[ii] = uint8(v)
	}
	return img, nil
}

// Size returns the dimensions of the mask as an image.Point.
func (m *Mask) Size() image.Point { return image.Pt(m.Width, m.Height) }

// At returns the label at (x, y).
func (m *Mask) At(x, y int) int32 { return m.Labels[y*m.Width+x] }

// Set the label at (x, y).
func (m *Mask) Set(x, y int, value int32) { m.Labels[y*m.Width+x] = value }

// Clone returns a deep copy of the mask.
func (m *Mask) Clone() *Mask {
	return &Mask{Width: m.Width, Height: m.Height, Labels: slices.Clone(m.Labels)}
}

// Unique returns the sorted distinct values in the mask.
func (m *Mask) Unique() []int32 {
	seen := make(map[int32]struct{})
	for _, v := range m.Labels {
		seen[v] = struct{}{}
	}
	values := make([]int32, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	slices.Sort(values)
	return values
}

// Map returns a new mask with fn applied to every label.
// If fn returns an error, Map stops and returns it.
func (m *Mask) Map(fn func(v int32) (int32, error)) (*Mask, error) {
	out := &Mask{Width: m.Width, Height: m.Height, Labels: make([]int32, len(m.Labels))}
	for ii, v := range m.Labels {
		mapped, err := fn(v)
		if err != nil {
			return nil, err
		}
		out.Labels[ii] = mapped
	}
	return out, nil
}

// FlipH mirrors the mask horizontally.
func (m *Mask) FlipH() *Mask {
	out := New(m.Width, m.Height)
	for y := range m.Height {
		src := m.Labels[y*m.Width : (y+1)*m.Width]
		dst := out.Labels[y*m.Width : (y+1)*m.Width]
		for x, v := range src {
			dst[m.Width-1-x] = v
		}
	}
	return out
}

// ResizeNearest resizes the mask to width x height with nearest-neighbor sampling.
//
// Destination pixel x samples source pixel int((x+0.5)*srcWidth/width), the same convention
// used by imaging.Resize with imaging.NearestNeighbor.
func (m *Mask) ResizeNearest(width, height int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, errs.Geometryf("cannot resize mask to %dx%d", width, height)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return nil, errs.Geometryf("cannot resize empty mask (%dx%d)", m.Width, m.Height)
	}
	if width == m.Width && height == m.Height {
		return m.Clone(), nil
	}
	out := New(width, height)
	dx := float64(m.Width) / float64(width)
	dy := float64(m.Height) / float64(height)
	srcXs := make([]int, width)
	for x := range width {
		srcXs[x] = min(int((float64(x)+0.5)*dx), m.Width-1)
	}
	for y := range height {
		srcY := min(int((float64(y)+0.5)*dy), m.Height-1)
		srcRow := m.Labels[srcY*m.Width : (srcY+1)*m.Width]
		dstRow := out.Labels[y*width : (y+1)*width]
		for x, srcX := range srcXs {
			dstRow[x] = srcRow[srcX]
		}
	}
	return out, nil
}

// Pad extends the mask on the right and on the bottom, filling the new area with fill.
func (m *Mask) Pad(right, bottom int, fill int32) (*Mask, error) {
	if right < 0 || bottom < 0 {
		return nil, errs.Geometryf("negative padding (right=%d, bottom=%d)", right, bottom)
	}
	out := NewFilled(m.Width+right, m.Height+bottom, fill)
	for y := range m.Height {
		copy(out.Labels[y*out.Width:y*out.Width+m.Width], m.Labels[y*m.Width:(y+1)*m.Width])
	}
	return out, nil
}

// Crop returns the region rect of the mask. The rectangle must lie fully inside the mask.
func (m *Mask) Crop(rect image.Rectangle) (*Mask, error) {
	if rect.Empty() {
		return nil, errs.Geometryf("empty crop window %v", rect)
	}
	if !rect.In(image.Rect(0, 0, m.Width, m.Height)) {
		return nil, errs.Geometryf("crop window %v outside of mask of size %dx%d", rect, m.Width, m.Height)
	}
	out := New(rect.Dx(), rect.Dy())
	for y := range out.Height {
		srcStart := (rect.Min.Y+y)*m.Width + rect.Min.X
		copy(out.Labels[y*out.Width:(y+1)*out.Width], m.Labels[srcStart:srcStart+out.Width])
	}
	return out, nil
}
