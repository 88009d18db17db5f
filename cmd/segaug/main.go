// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// segaug previews the augmentation pipeline: it discovers the (image, mask) pairs of a dataset,
// runs them through the configured mode in parallel, and exports the results as PNG files.
//
// Exported masks are converted back to the raw label space of the dataset (e.g.: Cityscapes label
// ids), so they can be inspected with the same tools as the source annotations.
//
// Usage:
//
//	segaug -preset=cityscapes -root=~/data/citys -mode=train -n=16 -out=/tmp/segaug
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gomlx/segaug/pkg/config"
	"github.com/gomlx/segaug/pkg/dataset"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagConfig = flag.String("config", "", "YAML configuration file. If not given, the -preset is used.")
	flagPreset = flag.String("preset", "cityscapes",
		"Configuration preset used if no -config is given: \"cityscapes\", \"cityscapes_bdd\", \"custom\" or \"default\".")
	flagBase       = flag.Int("base", 768, "Base size for the \"custom\" preset.")
	flagSaveConfig = flag.String("save_config", "", "If set, saves the final configuration to this file and exits.")

	flagRoot    = flag.String("root", "", "Root directory of the dataset. Overrides the configuration.")
	flagSplit   = flag.String("split", "", "Split: \"train\", \"val\", \"test\" or \"trainval\". Overrides the configuration.")
	flagMode    = flag.String("mode", "", "Mode: \"train\", \"val\", \"test\" or \"testval\". Overrides the configuration.")
	flagSeed    = flag.Int64("seed", 0, "Seed of the random sources. Overrides the configuration.")
	flagWorkers = flag.Int("workers", 0, "Number of parallel workers. Overrides the configuration, if > 0.")

	flagNum = flag.Int("n", 16, "Number of samples to process. If <= 0 all samples are processed.")
	flagOut = flag.String("out", "", "Directory where to export images and masks. If empty, nothing is exported.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	must.M = func(err error) {
		if err != nil {
			klog.Exitf("segaug failed: %+v", err)
		}
	}

	cfg := must.M1(loadConfig())
	if *flagSaveConfig != "" {
		must.M(config.SaveConfig(cfg, *flagSaveConfig))
		klog.Infof("Configuration saved to %q", *flagSaveConfig)
		return
	}
	must.M(cfg.Validate())
	start := time.Now()
	stats := must.M1(run(cfg))
	stats.Elapsed = time.Since(start)
	printSummary(cfg, stats)
}

// loadConfig loads the configuration file or the preset, and applies the flags explicitly set.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if *flagConfig != "" {
		var err error
		cfg, err = config.LoadConfig(*flagConfig)
		if err != nil {
			return nil, err
		}
	} else {
		switch strings.ToLower(*flagPreset) {
		case "cityscapes":
			cfg = config.Cityscapes()
		case "cityscapes_bdd":
			cfg = config.CityscapesBDD()
		case "custom":
			cfg = config.Custom(*flagBase)
		case "default":
			cfg = config.DefaultConfig()
		default:
			return nil, errors.Errorf("unknown -preset=%q", *flagPreset)
		}
	}

	var err error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root":
			cfg.Dataset.Root = *flagRoot
		case "split":
			cfg.Dataset.Split = *flagSplit
		case "mode":
			var mode dataset.Mode
			if mode, err = dataset.ModeString(*flagMode); err == nil {
				cfg.Transform.Mode = mode
			}
		case "seed":
			cfg.Workers.Seed = *flagSeed
		case "workers":
			if *flagWorkers > 0 {
				cfg.Workers.NumWorkers = *flagWorkers
			}
		}
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid -mode=%q, valid values are %q", *flagMode, dataset.ModeStrings())
	}
	if cfg.Dataset.Root == "" {
		return nil, errors.New("dataset root not set, use -root or set dataset.root in the configuration")
	}
	return cfg, nil
}

func init() {
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
}
