// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gomlx/segaug/pkg/core/mask"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Pair of image and mask files.
type Pair struct {
	ImagePath, MaskPath string
	Format              LabelFormat
}

// Pairs implements ImageLoader and MaskLoader for files on disk.
type Pairs []Pair

var (
	_ ImageLoader = Pairs(nil)
	_ MaskLoader  = Pairs(nil)
)

// Len implements ImageLoader.
func (ps Pairs) Len() int { return len(ps) }

// LoadImage implements ImageLoader. The name is the base name of the image file.
func (ps Pairs) LoadImage(index int) (image.Image, string, error) {
	path := ps[index].ImagePath
	img, err := imaging.Open(path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to open image %q", path)
	}
	return img, filepath.Base(path), nil
}

// LoadMask implements MaskLoader.
func (ps Pairs) LoadMask(index int) (*mask.Mask, LabelFormat, error) {
	pair := ps[index]
	img, err := imaging.Open(pair.MaskPath)
	if err != nil {
		return nil, pair.Format, errors.Wrapf(err, "failed to open mask %q", pair.MaskPath)
	}
	return mask.FromImage(img), pair.Format, nil
}

// Splits accepted by DiscoverCityscapes and DiscoverCustom. SplitTrainVal joins train and val.
const (
	SplitTrain    = "train"
	SplitVal      = "val"
	SplitTest     = "test"
	SplitTrainVal = "trainval"
)

// layout describes where images and masks of a dataset are, and how a mask file is named after its image.
type layout struct {
	imagesDir, masksDir string

	// maskName returns the mask file name for an image file name.
	maskName func(imageName string) string

	// maskInCityDir tells whether masks are in a subdirectory named as the image's parent directory.
	maskInCityDir bool
}

var (
	cityscapesLayout = layout{
		imagesDir: "leftImg8bit",
		masksDir:  "gtFine",
		maskName: func(name string) string {
			return strings.Replace(name, "leftImg8bit", "gtFine_labelIds", 1)
		},
		maskInCityDir: true,
	}
	customLayout = layout{
		imagesDir: "segimages",
		masksDir:  "seglabels",
		maskName: func(name string) string {
			return strings.Replace(name, "segimages", "seglabels", 1)
		},
	}
)

// DiscoverCityscapes finds the image/mask pairs of a Cityscapes-like dataset under root:
// images in "leftImg8bit/<split>/<city>/*", masks in "gtFine/<split>/<city>/*_gtFine_labelIds.png".
//
// PNG images are Cityscapes (LabelFormatSparse masks), JPEG images are BDD100k converted to this
// layout (LabelFormatDense masks, in ".png" files).
func DiscoverCityscapes(root, split string) (Pairs, error) {
	return discover(root, split, cityscapesLayout)
}

// DiscoverCustom finds the image/mask pairs of a custom dataset under root: images in
// "segimages/<split>/", masks with the same name (with "segimages" replaced by "seglabels") in
// "seglabels/<split>/". Masks are LabelFormatDense.
func DiscoverCustom(root, split string) (Pairs, error) {
	pairs, err := discover(root, split, customLayout)
	for ii := range pairs {
		pairs[ii].Format = LabelFormatDense
	}
	return pairs, err
}

func discover(root, split string, l layout) (Pairs, error) {
	var splits []string
	switch split {
	case SplitTrain, SplitVal, SplitTest:
		splits = []string{split}
	case SplitTrainVal:
		splits = []string{SplitTrain, SplitVal}
	default:
		return nil, errors.Errorf("unknown split %q, valid values are %q, %q, %q or %q",
			split, SplitTrain, SplitVal, SplitTest, SplitTrainVal)
	}
	var pairs Pairs
	for _, s := range splits {
		imagesDir := filepath.Join(root, l.imagesDir, s)
		found, err := l.walk(imagesDir, filepath.Join(root, l.masksDir, s))
		if err != nil {
			return nil, err
		}
		klog.V(1).Infof("dataset: found %d pairs in %s", len(found), imagesDir)
		pairs = append(pairs, found...)
	}
	if len(pairs) == 0 {
		return nil, errors.Errorf("found 0 image/mask pairs for split %q in %q", split, root)
	}
	return pairs, nil
}

func (l layout) walk(imagesDir, masksDir string) (Pairs, error) {
	var pairs Pairs
	err := filepath.WalkDir(imagesDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".png" && ext != ".jpg" {
			return nil
		}
		maskName := l.maskName(name)
		format := LabelFormatSparse
		if ext == ".jpg" {
			maskName = strings.TrimSuffix(maskName, filepath.Ext(maskName)) + ".png"
			format = LabelFormatDense
		}
		maskPath := filepath.Join(masksDir, maskName)
		if l.maskInCityDir {
			maskPath = filepath.Join(masksDir, filepath.Base(filepath.Dir(path)), maskName)
		}
		if !isFile(maskPath) {
			klog.Warningf("dataset: cannot find the mask %q for image %q, skipping", maskPath, path)
			return nil
		}
		pairs = append(pairs, Pair{ImagePath: path, MaskPath: maskPath, Format: format})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list images in %q", imagesDir)
	}
	return pairs, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
