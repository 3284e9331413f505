package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
)

// timelineColumns are the metrics tracked release by release in a class history.
var timelineColumns = []schema.Metric{
	schema.EvolutionStatusMetric,
	schema.Layer,
	schema.MethodCount,
	schema.FieldCount,
	schema.InDegree,
	schema.OutDegree,
	schema.Instability,
	schema.ModifiedMetricCount,
	schema.EvolutionDistance,
}

// WriteClassTimeline outputs the history of one class across releases.
func WriteClassTimeline(system string, timeline []schema.ClassTimelineEntry, cfg *contract.Config, duration time.Duration) error {
	fmtRatio, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, struct {
				System   string                      `json:"system"`
				Timeline []schema.ClassTimelineEntry `json:"timeline"`
			}{system, timeline})
		}, "Wrote JSON")
	case schema.CSVOut:
		header := []string{"rsn", "release_id", "class"}
		for _, m := range timelineColumns {
			header = append(header, string(m))
		}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for _, e := range timeline {
					if err := cw.Write(timelineRow(e, fmtRatio, intFmt, false)); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			headers := []string{"RSN", "Release", "Class"}
			for _, m := range timelineColumns {
				headers = append(headers, metricHeader(m))
			}
			nameWidth := getMaxTableNameWidth(cfg, classTableFixedWidth)
			rows := make([][]string, 0, len(timeline))
			for _, e := range timeline {
				row := timelineRow(e, fmtRatio, intFmt, cfg.UseColors)
				row[2] = contract.TruncateName(row[2], nameWidth)
				rows = append(rows, row)
			}
			if err := writeTable(w, headers, rows); err != nil {
				return err
			}
			if len(timeline) > 0 {
				first, last := timeline[0], timeline[len(timeline)-1]
				if _, err := fmt.Fprintf(w, "%s in %s: %d releases (RSN %d to %d)\n", last.Name, system, len(timeline), first.RSN, last.RSN); err != nil {
					return err
				}
			}
			if duration > 0 {
				_, err := fmt.Fprintf(w, "Completed in %v.\n", duration)
				return err
			}
			return nil
		}, "Wrote text")
	}
}

func timelineRow(e schema.ClassTimelineEntry, fmtRatio func(v, scale int) string, intFmt string, useColors bool) []string {
	row := []string{strconv.Itoa(e.RSN), e.ReleaseID, e.Name}
	for _, m := range timelineColumns {
		row = append(row, formatMetric(m, e.Metrics[m], fmtRatio, intFmt, useColors))
	}
	return row
}
