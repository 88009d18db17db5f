// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package config loads and saves the configuration of an augmentation pipeline as YAML, and
// wires it into a dataset.Provider.
//
// It also provides presets for the supported datasets: Cityscapes, Cityscapes mixed with
// BDD100k, and custom datasets.
package config

import (
	"image"
	"os"
	"path/filepath"
	"runtime"

	"github.com/gomlx/segaug/pkg/augment/scale"
	"github.com/gomlx/segaug/pkg/core/errs"
	"github.com/gomlx/segaug/pkg/dataset"
	"github.com/gomlx/segaug/pkg/labels"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Dataset layouts on disk, see dataset.DiscoverCityscapes and dataset.DiscoverCustom.
const (
	LayoutCityscapes = "cityscapes"
	LayoutCustom     = "custom"
)

// Config of the augmentation pipeline.
type Config struct {
	Dataset struct {
		// Root directory of the dataset.
		Root string `yaml:"root"`

		// Layout of the files under Root: "cityscapes" or "custom".
		Layout string `yaml:"layout"`

		// Split to use: "train", "val", "test" or "trainval".
		Split string `yaml:"split"`

		// Kind selects how masks are converted to training indices.
		Kind dataset.Kind `yaml:"kind"`

		// NumClasses of pass-through masks: values outside [0, NumClasses) are ignored.
		// If 0 only 255 is ignored.
		NumClasses int `yaml:"numClasses"`

		// Lenient maps raw codes unknown to the Cityscapes mapping to the ignore index, instead of failing.
		Lenient bool `yaml:"lenient"`
	} `yaml:"dataset"`

	Transform struct {
		Mode     dataset.Mode `yaml:"mode"`
		BaseSize int          `yaml:"baseSize"`

		// CropWidth and CropHeight of the training crop.
		CropWidth  int `yaml:"cropWidth"`
		CropHeight int `yaml:"cropHeight"`

		// ValCropSize is the side of the validation center crop. If 0, the smaller crop dimension is used.
		ValCropSize int `yaml:"valCropSize"`

		// TestResize resizes test images by their long side to BaseSize.
		TestResize bool `yaml:"testResize"`
	} `yaml:"transform"`

	Scale struct {
		Low  float64 `yaml:"low"`
		High float64 `yaml:"high"`
		Std  float64 `yaml:"std"`

		// CacheCapacity is the maximum number of distribution tables kept.
		CacheCapacity int `yaml:"cacheCapacity"`
	} `yaml:"scale"`

	Workers struct {
		// NumWorkers processing samples in parallel.
		NumWorkers int `yaml:"numWorkers"`

		// Seed of the random sources: worker i uses Seed+i.
		Seed int64 `yaml:"seed"`
	} `yaml:"workers"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Dataset.Layout = LayoutCityscapes
	cfg.Dataset.Split = dataset.SplitTrain
	cfg.Dataset.Kind = dataset.KindSparseRemap

	cfg.Transform.Mode = dataset.ModeTrain
	cfg.Transform.BaseSize = 520
	cfg.Transform.CropWidth = 480
	cfg.Transform.CropHeight = 480
	cfg.Transform.TestResize = true

	cfg.Scale.Low = 0.6
	cfg.Scale.High = 3.0
	cfg.Scale.Std = 25
	cfg.Scale.CacheCapacity = scale.DefaultCacheCapacity

	cfg.Workers.NumWorkers = runtime.NumCPU()
	return cfg
}

// Cityscapes returns the preset for the Cityscapes dataset.
func Cityscapes() *Config {
	cfg := DefaultConfig()
	cfg.Dataset.Layout = LayoutCityscapes
	cfg.Dataset.Kind = dataset.KindSparseRemap
	cfg.Transform.BaseSize = 1024
	cfg.Transform.CropWidth = 1024
	cfg.Transform.CropHeight = 512
	cfg.Scale.Low = 0.65
	cfg.Scale.High = 3
	cfg.Scale.Std = 25
	return cfg
}

// CityscapesBDD returns the preset for Cityscapes mixed with BDD100k images (JPEG) in the
// Cityscapes layout.
func CityscapesBDD() *Config {
	cfg := Cityscapes()
	cfg.Dataset.Kind = dataset.KindDualFormatRemap
	cfg.Dataset.NumClasses = labels.CityscapesNumClasses
	cfg.Scale.Low = 0.65
	cfg.Scale.High = 2
	cfg.Scale.Std = 40
	return cfg
}

// Custom returns the preset for a custom dataset with square crops of baseSize.
func Custom(baseSize int) *Config {
	cfg := DefaultConfig()
	cfg.Dataset.Layout = LayoutCustom
	cfg.Dataset.Kind = dataset.KindRawPassthrough
	cfg.Transform.BaseSize = baseSize
	cfg.Transform.CropWidth = baseSize
	cfg.Transform.CropHeight = baseSize
	cfg.Scale.Low = 0.75
	cfg.Scale.High = 1.5
	cfg.Scale.Std = 35
	return cfg
}

// LoadConfig loads the configuration from a YAML file, on top of DefaultConfig.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "failed to read config file %q", configPath)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %q", configPath)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file, creating its directory if needed.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create config directory for %q", configPath)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config file %q", configPath)
	}
	return nil
}

// ScaleKey returns the key of the random scale distribution.
func (cfg *Config) ScaleKey() scale.Key {
	return scale.Key{BaseSize: cfg.Transform.BaseSize, Low: cfg.Scale.Low, High: cfg.Scale.High, Std: cfg.Scale.Std}
}

// Validate checks the configuration. Invalid values are reported as a ConfigurationError.
func (cfg *Config) Validate() error {
	if cfg.Dataset.Layout != LayoutCityscapes && cfg.Dataset.Layout != LayoutCustom {
		return errs.Configurationf("unknown dataset layout %q, valid values are %q or %q",
			cfg.Dataset.Layout, LayoutCityscapes, LayoutCustom)
	}
	if !cfg.Dataset.Kind.IsAKind() {
		return errs.Configurationf("invalid dataset kind %s, valid values are %q", cfg.Dataset.Kind, dataset.KindStrings())
	}
	if !cfg.Transform.Mode.IsAMode() {
		return errs.Configurationf("invalid mode %s, valid values are %q", cfg.Transform.Mode, dataset.ModeStrings())
	}
	if cfg.Dataset.NumClasses < 0 {
		return errs.Configurationf("numClasses must be >= 0, got %d", cfg.Dataset.NumClasses)
	}
	if cfg.Transform.CropWidth <= 0 || cfg.Transform.CropHeight <= 0 {
		return errs.Configurationf("crop size must be positive, got %dx%d", cfg.Transform.CropWidth, cfg.Transform.CropHeight)
	}
	if cfg.Transform.ValCropSize < 0 {
		return errs.Configurationf("valCropSize must be >= 0, got %d", cfg.Transform.ValCropSize)
	}
	if err := cfg.ScaleKey().Validate(); err != nil {
		return err
	}
	if cfg.Scale.CacheCapacity < 0 {
		return errs.Configurationf("cacheCapacity must be >= 0, got %d", cfg.Scale.CacheCapacity)
	}
	if cfg.Workers.NumWorkers < 0 {
		return errs.Configurationf("numWorkers must be >= 0, got %d", cfg.Workers.NumWorkers)
	}
	return nil
}

// NewCache returns a scale.Cache with the configured capacity.
func (cfg *Config) NewCache() (*scale.Cache, error) {
	return scale.NewCache(cfg.Scale.CacheCapacity)
}

// Discover returns the image/mask pairs of the configured dataset layout and split.
func (cfg *Config) Discover() (dataset.Pairs, error) {
	if cfg.Dataset.Layout == LayoutCustom {
		return dataset.DiscoverCustom(cfg.Dataset.Root, cfg.Dataset.Split)
	}
	return dataset.DiscoverCityscapes(cfg.Dataset.Root, cfg.Dataset.Split)
}

// Options returns the dataset.Options for the configuration, using cache for the scale tables.
// If cache is nil, the provider creates a private one.
func (cfg *Config) Options(cache *scale.Cache) dataset.Options {
	mapping := labels.Cityscapes()
	if cfg.Dataset.Lenient {
		mapping = mapping.Lenient()
	}
	opts := dataset.Options{
		Mode:        cfg.Transform.Mode,
		Kind:        cfg.Dataset.Kind,
		BaseSize:    cfg.Transform.BaseSize,
		TestResize:  cfg.Transform.TestResize,
		CropSize:    image.Pt(cfg.Transform.CropWidth, cfg.Transform.CropHeight),
		ValCropSize: cfg.Transform.ValCropSize,
		ScaleLow:    cfg.Scale.Low,
		ScaleHigh:   cfg.Scale.High,
		ScaleStd:    cfg.Scale.Std,
		Mapping:     mapping,
		Passthrough: labels.Passthrough{Classes: cfg.Dataset.NumClasses},
	}
	if cache != nil {
		opts.Sampler = scale.NewSampler(cache)
	}
	return opts
}

// NewProvider validates the configuration and creates a dataset.Provider over the given loaders.
func (cfg *Config) NewProvider(images dataset.ImageLoader, masks dataset.MaskLoader, cache *scale.Cache) (*dataset.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return dataset.NewProvider(images, masks, cfg.Options(cache))
}
