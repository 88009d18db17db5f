// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package scale

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Sampler draws random long sides using the tables of a shared Cache.
//
// A Sampler holds no random state: the caller passes its own *rand.Rand to every call, so each
// worker can have its own (seeded) source.
type Sampler struct {
	cache *Cache
}

// NewSampler returns a Sampler backed by cache.
// If cache is nil, a private Cache with DefaultCacheCapacity is created.
func NewSampler(cache *Cache) *Sampler {
	if cache == nil {
		var err error
		cache, err = NewCache(DefaultCacheCapacity)
		if err != nil {
			// Only fails for invalid capacities.
			panic(errors.WithMessage(err, "scale.NewSampler"))
		}
	}
	return &Sampler{cache: cache}
}

// Cache used by the Sampler.
func (s *Sampler) Cache() *Cache { return s.cache }

// SampleLongSide draws a long side, in pixels, for the distribution identified by key.
// The returned value is always a multiple of Unit (32).
//
// It returns a ConfigurationError if the key is invalid.
func (s *Sampler) SampleLongSide(rng *rand.Rand, key Key) (int, error) {
	if rng == nil {
		return 0, errors.New("scale.Sampler.SampleLongSide requires a random number generator, got nil")
	}
	t, err := s.cache.Table(key)
	if err != nil {
		return 0, err
	}
	return t.Pick(rng.Float64()), nil
}
