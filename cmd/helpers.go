package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/derickschaefer/tripwise/internal/model"
	"github.com/derickschaefer/tripwise/internal/render"
	"github.com/derickschaefer/tripwise/internal/util"
)

// normaliseCities trims and title-case-insensitively dedupes city names
// while preserving order. Comparison is case-insensitive; the first
// spelling wins.
func normaliseCities(cities []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(cities))
	for _, c := range cities {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// parseDateFlag validates a --date value and returns the parsed day.
// An empty value defaults to tomorrow.
func parseDateFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Now().AddDate(0, 0, 1).Truncate(24 * time.Hour), nil
	}
	d, err := util.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date: invalid date %q, expected YYYY-MM-DD", value)
	}
	return d, nil
}

// printSimpleTable renders a simple table with headers using tablewriter.
// The fill callback is called with an add function taking row values.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}

// printKVTable renders a two-column key/value listing with aligned columns.
func printKVTable(w io.Writer, rows [][]string) {
	maxKey := 0
	for _, r := range rows {
		if len(r[0]) > maxKey {
			maxKey = len(r[0])
		}
	}
	for _, r := range rows {
		padding := strings.Repeat(" ", maxKey-len(r[0]))
		fmt.Fprintf(w, "  %s%s  %s\n", r[0], padding, r[1])
	}
}

// buildOffersResult wraps an OfferSet in a Result envelope.
func buildOffersResult(command string, set *model.OfferSet, warnings []string, start time.Time, cacheHit bool) *model.Result {
	return &model.Result{
		Kind:        model.KindOffers,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        set,
		Warnings:    warnings,
		Stats: model.ResultStats{
			CacheHit:   cacheHit,
			DurationMs: time.Since(start).Milliseconds(),
			Items:      len(set.Offers),
		},
	}
}

// buildAnalysisResult wraps an AnalysisResult in a Result envelope.
func buildAnalysisResult(command string, ar *model.AnalysisResult, start time.Time) *model.Result {
	return &model.Result{
		Kind:        model.KindAnalysis,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        ar,
		Stats: model.ResultStats{
			DurationMs: time.Since(start).Milliseconds(),
			Items:      ar.Stats.TotalOptions,
		},
	}
}

// buildOptimizationResult wraps a RouteOptimizationResult in a Result envelope.
func buildOptimizationResult(command string, ro *model.RouteOptimizationResult, warnings []string, start time.Time) *model.Result {
	return &model.Result{
		Kind:        model.KindOptimization,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        ro,
		Warnings:    warnings,
		Stats: model.ResultStats{
			DurationMs: time.Since(start).Milliseconds(),
			Items:      ro.Stats.RoutesAnalyzed,
		},
	}
}
