// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/segaug/pkg/config"
	"github.com/gomlx/segaug/pkg/dataset"
	"github.com/gomlx/segaug/pkg/labels"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

func newPlainTable(withHeader bool) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if withHeader && row == 0 {
				return headerRowStyle
			}
			if row%2 == 0 {
				s = evenRowStyle
			} else {
				s = oddRowStyle
			}
			if col == 0 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		})
}

// percent formats part/total as a percentage.
func percent(part, total int64) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", 100*float64(part)/float64(total))
}

// className returns the name of a training index, if known.
func className(cfg *config.Config, idx int32) string {
	if cfg.Dataset.Kind == dataset.KindRawPassthrough {
		return ""
	}
	names := labels.CityscapesClassNames()
	if idx >= 0 && int(idx) < len(names) {
		return names[idx]
	}
	return ""
}

func printSummary(cfg *config.Config, stats *Stats) {
	fmt.Println(titleStyle.Render("Summary"))
	table := newPlainTable(false)
	table.Row("dataset", fmt.Sprintf("%s (%s, %s)", cfg.Dataset.Root, cfg.Dataset.Layout, cfg.Dataset.Split))
	table.Row("mode", cfg.Transform.Mode.String())
	table.Row("kind", cfg.Dataset.Kind.String())
	table.Row("# pairs", humanize.Comma(int64(stats.NumPairs)))
	table.Row("# samples", humanize.Comma(int64(stats.NumSamples)))
	table.Row("# workers", strconv.Itoa(stats.NumWorkers))
	if stats.Pixels > 0 {
		table.Row("# pixels", humanize.Comma(stats.Pixels))
		table.Row("ignored", percent(stats.Ignored, stats.Pixels))
	}
	if cfg.Transform.Mode == dataset.ModeTrain {
		table.Row("scale", cfg.ScaleKey().String())
		table.Row("scale tables", fmt.Sprintf("%d built, %s hits, %s misses",
			stats.Cache.Builds, humanize.Comma(stats.Cache.Hits), humanize.Comma(stats.Cache.Misses)))
	}
	if *flagOut != "" {
		table.Row("output", *flagOut)
		table.Row("# bytes", humanize.Bytes(uint64(stats.BytesWritten)))
	}
	table.Row("elapsed", stats.Elapsed.Round(time.Millisecond).String())
	fmt.Println(table.Render())

	if len(stats.ClassPixels) == 0 {
		return
	}
	fmt.Println(titleStyle.Render("Classes"))
	table = newPlainTable(true)
	table.Row("Index", "Name", "Pixels", "Share")
	for _, idx := range slices.Sorted(maps.Keys(stats.ClassPixels)) {
		count := stats.ClassPixels[idx]
		table.Row(strconv.Itoa(int(idx)), className(cfg, idx), humanize.Comma(count), percent(count, stats.Pixels))
	}
	fmt.Println(table.Render())
}
