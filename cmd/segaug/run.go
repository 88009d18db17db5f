// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gomlx/segaug/internal/workerspool"
	"github.com/gomlx/segaug/pkg/augment/scale"
	"github.com/gomlx/segaug/pkg/config"
	"github.com/gomlx/segaug/pkg/core/mask"
	"github.com/gomlx/segaug/pkg/dataset"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

// Stats collected while processing the samples.
type Stats struct {
	NumPairs, NumSamples int
	NumWorkers           int
	Pixels, Ignored      int64

	// ClassPixels counts the pixels of each training index.
	ClassPixels map[int32]int64

	BytesWritten int64
	Cache        scale.CacheStats
	Elapsed      time.Duration

	mu sync.Mutex
}

func (s *Stats) addMask(m *mask.Mask) {
	counts := make(map[int32]int64)
	for _, v := range m.Labels {
		counts[v]++
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NumSamples++
	s.Pixels += int64(len(m.Labels))
	for v, count := range counts {
		if v == mask.TrainIgnore {
			s.Ignored += count
			continue
		}
		s.ClassPixels[v] += count
	}
}

func (s *Stats) addBytes(n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BytesWritten += n
}

// run processes the first -n samples of the configured dataset.
func run(cfg *config.Config) (*Stats, error) {
	pairs, err := cfg.Discover()
	if err != nil {
		return nil, err
	}
	cache, err := cfg.NewCache()
	if err != nil {
		return nil, err
	}
	provider, err := cfg.NewProvider(pairs, pairs, cache)
	if err != nil {
		return nil, err
	}
	numSamples := provider.Len()
	if *flagNum > 0 {
		numSamples = min(numSamples, *flagNum)
	}
	if *flagOut != "" {
		if err := os.MkdirAll(*flagOut, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create output directory %q", *flagOut)
		}
	}

	pool := workerspool.New(cfg.Workers.NumWorkers, cfg.Workers.Seed)
	stats := &Stats{
		NumPairs:    len(pairs),
		NumWorkers:  pool.NumWorkers(),
		ClassPixels: make(map[int32]int64),
	}
	klog.V(1).Infof("Processing %d of %d samples of %q with %d workers", numSamples, len(pairs), cfg.Dataset.Root, pool.NumWorkers())

	bar := progressbar.NewOptions(numSamples,
		progressbar.OptionSetDescription(fmt.Sprintf("[bold]%s[reset]", cfg.Transform.Mode)),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("samples"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionClearOnFinish(),
	)
	err = pool.Run(numSamples, func(rng *rand.Rand, index int) error {
		sample, err := provider.Get(rng, index)
		if err != nil {
			return err
		}
		if sample.Mask != nil {
			stats.addMask(sample.Mask)
		} else {
			stats.mu.Lock()
			stats.NumSamples++
			stats.mu.Unlock()
		}
		if *flagOut != "" {
			if err := export(provider, sample, stats); err != nil {
				return err
			}
		}
		_ = bar.Add(1)
		return nil
	})
	_ = bar.Finish()
	if err != nil {
		return nil, err
	}
	stats.Cache = cache.Stats()
	return stats, nil
}

// export saves the sample image and its mask, converted back to raw codes, to the output directory.
func export(provider *dataset.Provider, sample *dataset.Sample, stats *Stats) error {
	stem := strings.TrimSuffix(sample.Name, filepath.Ext(sample.Name))
	imagePath := filepath.Join(*flagOut, fmt.Sprintf("%05d_%s.png", sample.Index, stem))
	if err := imaging.Save(sample.Image, imagePath); err != nil {
		return errors.Wrapf(err, "failed to save %q", imagePath)
	}
	if err := addFileSize(stats, imagePath); err != nil {
		return err
	}
	if sample.Mask == nil {
		return nil
	}
	raw, err := provider.Remapper(sample.Format).Inverse(sample.Mask)
	if err != nil {
		return errors.WithMessagef(err, "converting the mask of %q back to raw labels", sample.Name)
	}
	gray, err := raw.ToGray()
	if err != nil {
		return err
	}
	maskPath := filepath.Join(*flagOut, fmt.Sprintf("%05d_%s_mask.png", sample.Index, stem))
	if err := imaging.Save(gray, maskPath); err != nil {
		return errors.Wrapf(err, "failed to save %q", maskPath)
	}
	return addFileSize(stats, maskPath)
}

func addFileSize(stats *Stats, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "failed to stat %q", path)
	}
	stats.addBytes(info.Size())
	return nil
}
