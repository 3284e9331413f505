package outwriter

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/internal/parquet"
	"github.com/huangsam/classdrift/schema"
)

// WriteRuns outputs the tracked extract and evolve runs.
func WriteRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON")
	case schema.CSVOut:
		header := []string{"run_id", "system", "kind", "start_time", "end_time", "duration_ms", "releases", "classes"}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for _, r := range runs {
					if err := cw.Write(runRow(r)); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errors.New("parquet output requires an output file")
		}
		if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), cfg.OutputFile); err != nil {
			return err
		}
		contract.LogProgress(cfg, "💾", "Wrote Parquet to %s", cfg.OutputFile)
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, runRow(r))
			}
			return writeTable(w, []string{"Run", "System", "Kind", "Started", "Ended", "Duration (ms)", "Releases", "Classes"}, rows)
		}, "Wrote text")
	}
}

func runRow(r schema.RunRecord) []string {
	end, duration := "", ""
	if r.EndTime != nil {
		end = r.EndTime.Format(contract.DateTimeFormat)
	}
	if r.RunDurationMs != nil {
		duration = strconv.Itoa(int(*r.RunDurationMs))
	}
	return []string{
		strconv.FormatInt(r.RunID, 10),
		r.System,
		string(r.Kind),
		r.StartTime.Format(contract.DateTimeFormat),
		end,
		duration,
		strconv.Itoa(int(r.TotalReleases)),
		strconv.Itoa(int(r.TotalClasses)),
	}
}
