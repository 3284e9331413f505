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

var releaseHeader = []string{"rsn", "release_id", "date", "classes", "added", "modified", "deleted", "unchanged", "renamed"}

// WriteReleaseSummaries outputs the per-release evolution tallies of a system.
func WriteReleaseSummaries(system string, summaries []schema.ReleaseSummary, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, struct {
				System   string                  `json:"system"`
				Releases []schema.ReleaseSummary `json:"releases"`
			}{system, summaries})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, releaseHeader, func(cw *csv.Writer) error {
				for _, s := range summaries {
					if err := cw.Write(releaseRow(s)); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReleaseTable(w, system, summaries, cfg, duration)
		}, "Wrote text")
	}
}

func releaseRow(s schema.ReleaseSummary) []string {
	return []string{
		strconv.Itoa(s.RSN),
		s.ReleaseID,
		s.LastModified.Format(time.DateOnly),
		strconv.Itoa(s.Classes),
		strconv.Itoa(s.Added),
		strconv.Itoa(s.Modified),
		strconv.Itoa(s.Deleted),
		strconv.Itoa(s.Unchanged),
		strconv.Itoa(s.Renamed),
	}
}

func writeReleaseTable(w io.Writer, system string, summaries []schema.ReleaseSummary, cfg *contract.Config, duration time.Duration) error {
	headers := []string{"RSN", "Release", "Date", "Classes", "Added", "Modified", "Deleted", "Unchanged", "Renamed"}
	if cfg.UseColors {
		headers[4] = contract.AddedColor.Sprint(headers[4])
		headers[5] = contract.ModifiedColor.Sprint(headers[5])
		headers[6] = contract.DeletedColor.Sprint(headers[6])
		headers[7] = contract.UnchangedColor.Sprint(headers[7])
	}

	rows := make([][]string, 0, len(summaries))
	totalAdded, totalDeleted := 0, 0
	for _, s := range summaries {
		rows = append(rows, releaseRow(s))
		totalAdded += s.Added
		totalDeleted += s.Deleted
	}
	if err := writeTable(w, headers, rows); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d releases of %s (classes added: %d, deleted: %d)\n", len(summaries), system, totalAdded, totalDeleted); err != nil {
		return err
	}
	if duration > 0 {
		_, err := fmt.Fprintf(w, "Completed in %v using %d workers.\n", duration, cfg.Workers)
		return err
	}
	return nil
}
