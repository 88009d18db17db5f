package main

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gomlx/segaug/pkg/config"
	"github.com/gomlx/segaug/pkg/core/mask"
	"github.com/gomlx/segaug/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, "-", percent(1, 0))
	assert.Equal(t, "25.00%", percent(1, 4))
}

func TestClassName(t *testing.T) {
	cfg := config.Cityscapes()
	assert.Equal(t, "road", className(cfg, 0))
	assert.Equal(t, "bicycle", className(cfg, 18))
	assert.Equal(t, "", className(cfg, 19))
	assert.Equal(t, "", className(config.Custom(64), 0))
}

func TestRunExport(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		imagePath := filepath.Join(root, "leftImg8bit", "val", "city", name+"_leftImg8bit.png")
		maskPath := filepath.Join(root, "gtFine", "val", "city", name+"_gtFine_labelIds.png")
		require.NoError(t, os.MkdirAll(filepath.Dir(imagePath), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Dir(maskPath), 0o755))
		require.NoError(t, imaging.Save(imaging.New(64, 32, color.NRGBA{G: 255, A: 255}), imagePath))
		gray, err := mask.NewFilled(64, 32, 26).ToGray()
		require.NoError(t, err)
		require.NoError(t, imaging.Save(gray, maskPath))
	}

	out := t.TempDir()
	*flagNum, *flagOut = 2, out
	defer func() { *flagNum, *flagOut = 16, "" }()

	cfg := config.Cityscapes()
	cfg.Dataset.Root = root
	cfg.Dataset.Split = dataset.SplitVal
	cfg.Transform.Mode = dataset.ModeVal
	cfg.Transform.ValCropSize = 16
	cfg.Workers.NumWorkers = 2
	require.NoError(t, cfg.Validate())
	stats, err := run(cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.NumPairs)
	assert.Equal(t, 2, stats.NumSamples)
	assert.Equal(t, int64(2*16*16), stats.Pixels)
	// Car (raw 26) is training index 13.
	assert.Equal(t, map[int32]int64{13: 2 * 16 * 16}, stats.ClassPixels)
	assert.Greater(t, stats.BytesWritten, int64(0))

	// Exported masks are back in raw label ids.
	exported, err := imaging.Open(filepath.Join(out, "00001_b_leftImg8bit_mask.png"))
	require.NoError(t, err)
	m := mask.FromImage(exported)
	assert.Equal(t, []int32{26}, m.Unique())
	_, err = os.Stat(filepath.Join(out, "00000_a_leftImg8bit.png"))
	assert.NoError(t, err)
}
