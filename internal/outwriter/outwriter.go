// Package outwriter renders report results as tables, CSV, JSON or Parquet.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It lets callers such as the MCP server hold one value instead of package functions.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteSystems prints the stored systems using the configured output format.
func (ow *OutWriter) WriteSystems(systems []schema.SystemInfo, cfg *contract.Config) error {
	return WriteSystems(systems, cfg)
}

// WriteReleases prints release summaries using the configured output format.
func (ow *OutWriter) WriteReleases(system string, summaries []schema.ReleaseSummary, cfg *contract.Config, duration time.Duration) error {
	return WriteReleaseSummaries(system, summaries, cfg, duration)
}

// WriteClasses prints a classes report using the configured output format.
func (ow *OutWriter) WriteClasses(listing *schema.ClassListing, cfg *contract.Config, duration time.Duration) error {
	return WriteClassListing(listing, cfg, duration)
}

// WriteTimeline prints a class timeline using the configured output format.
func (ow *OutWriter) WriteTimeline(system string, timeline []schema.ClassTimelineEntry, cfg *contract.Config, duration time.Duration) error {
	return WriteClassTimeline(system, timeline, cfg, duration)
}

// WriteMetrics prints the metric alias table using the configured output format.
func (ow *OutWriter) WriteMetrics(cfg *contract.Config) error {
	return WriteMetricDefinitions(cfg)
}

// Column widths for class-name tables.
const (
	defaultTermWidth = 80
	minNameWidth     = 20
	maxNameWidth     = 80
)

// getMaxTableNameWidth calculates the maximum width for class names in table output
// based on terminal width and the width taken by the other columns.
func getMaxTableNameWidth(cfg *contract.Config, fixedColumnsWidth int) int {
	termWidth := cfg.Width
	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = defaultTermWidth // CI and pipes
		} else {
			termWidth = detectedWidth
		}
	}

	available := termWidth - fixedColumnsWidth
	return max(minNameWidth, min(available, maxNameWidth))
}
