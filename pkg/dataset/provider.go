// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package dataset implements the Provider that turns indexed (image, mask) pairs into
// training-ready samples, and the discovery of pairs on disk for the supported dataset layouts.
//
// The Provider only dispatches: the geometry lives in package augment and the label conversion in
// package labels. Loading is delegated to an ImageLoader and a MaskLoader. Pairs implements both
// for files on disk.
package dataset

import (
	"fmt"
	"image"
	"math/rand"

	"github.com/gomlx/segaug/pkg/augment"
	"github.com/gomlx/segaug/pkg/augment/scale"
	"github.com/gomlx/segaug/pkg/core/errs"
	"github.com/gomlx/segaug/pkg/core/mask"
	"github.com/gomlx/segaug/pkg/labels"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ImageLoader loads the images of a dataset by index.
type ImageLoader interface {
	// Len returns the number of images.
	Len() int

	// LoadImage returns the decoded image and a name for it (usually the file name).
	LoadImage(index int) (img image.Image, name string, err error)
}

// MaskLoader loads the raw masks of a dataset by index, matching the ImageLoader indices.
type MaskLoader interface {
	// LoadMask returns the raw mask and the encoding of its labels.
	LoadMask(index int) (m *mask.Mask, format LabelFormat, err error)
}

// ImageTransform is a hook applied to every output image, e.g. photometric jitter.
type ImageTransform func(img image.Image) (image.Image, error)

// MaskTransform is a hook applied to every output mask, after the label conversion.
type MaskTransform func(m *mask.Mask) (*mask.Mask, error)

// Options configure a Provider.
type Options struct {
	Mode Mode
	Kind Kind

	// BaseSize is the reference long side: the scale distribution in ModeTrain is centered near it
	// and ModeTestVal resizes the long side to it (rounded up to a multiple of 32).
	BaseSize int

	// TestResize makes ModeTest resize images with augment.ResizeLongSide to BaseSize. Otherwise
	// ModeTest images are returned as loaded.
	TestResize bool

	// CropSize is the (width, height) of the ModeTrain output.
	CropSize image.Point

	// ValCropSize is the side of the square ModeVal output. If 0, the smaller of CropSize's
	// dimensions is used.
	ValCropSize int

	// ScaleLow, ScaleHigh and ScaleStd configure the distribution of the random long side, see scale.Key.
	ScaleLow, ScaleHigh, ScaleStd float64

	// Mapping converts sparse masks (KindSparseRemap, or LabelFormatSparse masks of
	// KindDualFormatRemap). Defaults to labels.Cityscapes().
	Mapping labels.Remapper

	// Passthrough converts dense masks (KindRawPassthrough, or LabelFormatDense masks of
	// KindDualFormatRemap).
	Passthrough labels.Passthrough

	// Sampler draws the random long sides. If nil a private one is created, but sharing one
	// across providers shares the table cache.
	Sampler *scale.Sampler

	// ImageTransform and MaskTransform are optional hooks run just before returning a sample.
	ImageTransform ImageTransform
	MaskTransform  MaskTransform
}

// ScaleKey returns the scale distribution key of the options.
func (o Options) ScaleKey() scale.Key {
	return scale.Key{BaseSize: o.BaseSize, Low: o.ScaleLow, High: o.ScaleHigh, Std: o.ScaleStd}
}

// EffectiveValCropSize returns ValCropSize, or its default if not set.
func (o Options) EffectiveValCropSize() int {
	if o.ValCropSize > 0 {
		return o.ValCropSize
	}
	return min(o.CropSize.X, o.CropSize.Y)
}

// Sample is the output of Provider.Get.
type Sample struct {
	Index int
	Name  string
	Image image.Image

	// Mask holds training indices, with mask.TrainIgnore for ignored pixels. It is nil in ModeTest.
	Mask *mask.Mask

	// Format of the raw mask the sample was created from.
	Format LabelFormat
}

// Provider creates samples by index. It is safe for concurrent use, as long as the loaders
// are, and each goroutine passes its own *rand.Rand to Get.
type Provider struct {
	images      ImageLoader
	masks       MaskLoader
	opts        Options
	transformer *augment.Transformer
}

// NewProvider validates the options and returns a Provider.
//
// masks can only be nil for ModeTest. It returns a ConfigurationError (or GeometryError for the crop
// sizes) if the options are not valid for the mode.
func NewProvider(images ImageLoader, masks MaskLoader, opts Options) (*Provider, error) {
	if images == nil {
		return nil, errors.New("dataset.NewProvider requires an ImageLoader, got nil")
	}
	if !opts.Mode.IsAMode() {
		return nil, errs.Configurationf("invalid mode %s", opts.Mode)
	}
	if !opts.Kind.IsAKind() {
		return nil, errs.Configurationf("invalid dataset kind %s", opts.Kind)
	}
	if opts.Mode.HasMask() && masks == nil {
		return nil, errs.Configurationf("mode %s requires a MaskLoader", opts.Mode)
	}
	if opts.Mapping == nil {
		opts.Mapping = labels.Cityscapes()
	}
	switch opts.Mode {
	case ModeTrain:
		if opts.CropSize.X <= 0 || opts.CropSize.Y <= 0 {
			return nil, errs.Geometryf("crop size must be positive, got %dx%d", opts.CropSize.X, opts.CropSize.Y)
		}
		if err := opts.ScaleKey().Validate(); err != nil {
			return nil, err
		}
	case ModeVal:
		if opts.EffectiveValCropSize() <= 0 {
			return nil, errs.Geometryf("validation crop size must be positive, got %d", opts.EffectiveValCropSize())
		}
	case ModeTest, ModeTestVal:
		if (opts.Mode == ModeTestVal || opts.TestResize) && opts.BaseSize <= 0 {
			return nil, errs.Configurationf("base size must be > 0, got %d", opts.BaseSize)
		}
	}
	p := &Provider{
		images:      images,
		masks:       masks,
		opts:        opts,
		transformer: augment.NewTransformer(opts.Sampler),
	}
	if opts.Mode == ModeTrain {
		klog.Infof("dataset: %s mode, %d samples, base size %d, crop size %dx%d, random scale low=%g high=%g std=%g",
			opts.Mode, images.Len(), opts.BaseSize, opts.CropSize.X, opts.CropSize.Y,
			opts.ScaleLow, opts.ScaleHigh, opts.ScaleStd)
	}
	return p, nil
}

// Len returns the number of samples.
func (p *Provider) Len() int { return p.images.Len() }

// Options returns the options of the Provider, with defaults filled in.
func (p *Provider) Options() Options { return p.opts }

// Remapper returns the label conversion used for masks with the given format.
func (p *Provider) Remapper(format LabelFormat) labels.Remapper {
	switch p.opts.Kind {
	case KindRawPassthrough:
		return p.opts.Passthrough
	case KindSparseRemap:
		return p.opts.Mapping
	default:
		if format == LabelFormatDense {
			return p.opts.Passthrough
		}
		return p.opts.Mapping
	}
}

// Get returns the sample at index. rng is used only in ModeTrain, and can be nil otherwise.
//
// Errors are returned with the sample index and name.
func (p *Provider) Get(rng *rand.Rand, index int) (*Sample, error) {
	if index < 0 || index >= p.Len() {
		return nil, errors.Errorf("sample index %d out of range, dataset has %d samples", index, p.Len())
	}
	img, name, err := p.images.LoadImage(index)
	if err != nil {
		return nil, errors.WithMessagef(err, "loading image #%d", index)
	}
	sample, err := p.transform(rng, index, name, img)
	if err != nil {
		return nil, errors.WithMessagef(err, "sample #%d (%q)", index, name)
	}
	return sample, nil
}

func (p *Provider) transform(rng *rand.Rand, index int, name string, img image.Image) (*Sample, error) {
	sample := &Sample{Index: index, Name: name}
	if p.opts.Mode == ModeTest {
		if p.opts.TestResize {
			resized, err := augment.ResizeLongSide(img, p.opts.BaseSize)
			if err != nil {
				return nil, err
			}
			img = resized
		}
		var err error
		sample.Image, err = p.applyImageTransform(img)
		return sample, err
	}

	m, format, err := p.masks.LoadMask(index)
	if err != nil {
		return nil, errors.WithMessage(err, "loading mask")
	}
	sample.Format = format

	var (
		outImg  *image.NRGBA
		outMask *mask.Mask
	)
	switch p.opts.Mode {
	case ModeTrain:
		outImg, outMask, err = p.transformer.RandomSync(rng, img, m, p.opts.CropSize, p.opts.ScaleKey())
	case ModeVal:
		outImg, outMask, err = augment.CenterSync(img, m, p.opts.EffectiveValCropSize())
	case ModeTestVal:
		outImg, outMask, err = augment.ResizeLongSidePair(img, m, p.opts.BaseSize)
	default:
		err = errs.Configurationf("unsupported mode %s", p.opts.Mode)
	}
	if err != nil {
		return nil, err
	}
	klog.V(1).Infof("dataset: %s sample #%d %q (%s): %v -> %v",
		p.opts.Mode, index, name, format, img.Bounds().Size(), outImg.Bounds().Size())

	outMask, err = p.Remapper(format).Remap(outMask)
	if err != nil {
		return nil, err
	}
	if sample.Image, err = p.applyImageTransform(outImg); err != nil {
		return nil, err
	}
	if p.opts.MaskTransform != nil {
		if outMask, err = p.opts.MaskTransform(outMask); err != nil {
			return nil, errors.WithMessage(err, "mask transform")
		}
	}
	sample.Mask = outMask
	return sample, nil
}

func (p *Provider) applyImageTransform(img image.Image) (image.Image, error) {
	if p.opts.ImageTransform == nil {
		return img, nil
	}
	out, err := p.opts.ImageTransform(img)
	if err != nil {
		return nil, errors.WithMessage(err, "image transform")
	}
	return out, nil
}

// String implements fmt.Stringer.
func (p *Provider) String() string {
	return fmt.Sprintf("dataset.Provider(%s, %s, %d samples)", p.opts.Mode, p.opts.Kind, p.Len())
}
