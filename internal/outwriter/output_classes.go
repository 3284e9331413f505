package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/internal/parquet"
	"github.com/huangsam/classdrift/schema"
)

// classColumns are the metrics shown for every class, in column order.
var classColumns = []schema.Metric{
	schema.Layer,
	schema.InDegree,
	schema.OutDegree,
	schema.Instability,
	schema.DepthInInheritance,
	schema.EvolutionStatusMetric,
	schema.Age,
	schema.EvolutionDistance,
}

// Fixed table width outside the class name column.
const classTableFixedWidth = 100

// ClassListingJSON is the JSON document of a classes report.
type ClassListingJSON struct {
	System       string      `json:"system"`
	RSN          int         `json:"rsn"`
	ReleaseID    string      `json:"release_id"`
	LastModified time.Time   `json:"last_modified"`
	Total        int         `json:"total"`
	SortedBy     string      `json:"sorted_by"`
	Classes      []ClassJSON `json:"classes"`
}

// ClassJSON is one ranked class of a classes report.
type ClassJSON struct {
	Rank        int                   `json:"rank"`
	Name        string                `json:"name"`
	Package     string                `json:"package"`
	RenamedFrom string                `json:"renamed_from,omitempty"`
	Metrics     map[schema.Metric]int `json:"metrics"`
}

// WriteClassListing outputs the classes of one release.
func WriteClassListing(listing *schema.ClassListing, cfg *contract.Config, duration time.Duration) error {
	columns := listingColumns(listing.SortedBy)
	fmtRatio, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, BuildClassListingJSON(listing))
		}, "Wrote JSON")
	case schema.CSVOut:
		header := []string{"rank", "class"}
		for _, m := range columns {
			header = append(header, string(m))
		}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for i, c := range listing.Classes {
					row := []string{strconv.Itoa(i + 1), c.Name}
					for _, m := range columns {
						row = append(row, formatMetric(m, c.Get(m), fmtRatio, intFmt, false))
					}
					if err := cw.Write(row); err != nil {
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
		if err := parquet.WriteClassReleasesParquet(parquet.ConvertClassListing(listing), cfg.OutputFile); err != nil {
			return err
		}
		contract.LogProgress(cfg, "💾", "Wrote Parquet to %s", cfg.OutputFile)
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeClassTable(w, listing, columns, cfg, fmtRatio, intFmt, duration)
		}, "Wrote text")
	}
}

// listingColumns appends the sort metric when it is not already a default column.
func listingColumns(sortedBy schema.Metric) []schema.Metric {
	if sortedBy == "" || slices.Contains(classColumns, sortedBy) {
		return classColumns
	}
	return append(slices.Clone(classColumns), sortedBy)
}

// BuildClassListingJSON converts a listing into its ranked JSON document.
func BuildClassListingJSON(listing *schema.ClassListing) ClassListingJSON {
	out := ClassListingJSON{
		System:       listing.System,
		RSN:          listing.RSN,
		ReleaseID:    listing.ReleaseID,
		LastModified: listing.LastModified,
		Total:        listing.Total,
		SortedBy:     string(listing.SortedBy),
		Classes:      make([]ClassJSON, len(listing.Classes)),
	}
	for i, c := range listing.Classes {
		out.Classes[i] = ClassJSON{
			Rank:        i + 1,
			Name:        c.Name,
			Package:     c.PackageName,
			RenamedFrom: c.RenamedFrom,
			Metrics:     c.Metrics,
		}
	}
	return out
}

func writeClassTable(w io.Writer, listing *schema.ClassListing, columns []schema.Metric, cfg *contract.Config,
	fmtRatio func(v, scale int) string, intFmt string, duration time.Duration,
) error {
	headers := []string{"Rank", "Class"}
	for _, m := range columns {
		headers = append(headers, metricHeader(m))
	}

	nameWidth := getMaxTableNameWidth(cfg, classTableFixedWidth)
	rows := make([][]string, 0, len(listing.Classes))
	for i, c := range listing.Classes {
		row := []string{strconv.Itoa(i + 1), contract.TruncateName(c.Name, nameWidth)}
		for _, m := range columns {
			row = append(row, formatMetric(m, c.Get(m), fmtRatio, intFmt, cfg.UseColors))
		}
		rows = append(rows, row)
	}
	if err := writeTable(w, headers, rows); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Showing %d of %d classes in %s release %s (RSN %d, sorted by %s)\n",
		len(listing.Classes), listing.Total, listing.System, listing.ReleaseID, listing.RSN, listing.SortedBy); err != nil {
		return err
	}
	if duration > 0 {
		_, err := fmt.Fprintf(w, "Completed in %v.\n", duration)
		return err
	}
	return nil
}

// metricHeader prefers the short acronym for table headers.
func metricHeader(m schema.Metric) string {
	if info, ok := schema.LookupMetric(string(m)); ok && info.Acronym != "" {
		return info.Acronym
	}
	return string(m)
}

// formatMetric renders a stored metric value. Scaled ratios are divided back out
// and enumerations become labels.
func formatMetric(m schema.Metric, v int, fmtRatio func(v, scale int) string, intFmt string, useColors bool) string {
	switch m {
	case schema.Instability:
		return fmtRatio(v, 1000)
	case schema.ClusteringCoefficient, schema.LoadRatio:
		return fmtRatio(v, 10)
	case schema.Layer:
		return contract.GetLayerLabel(v, useColors)
	case schema.EvolutionStatusMetric, schema.NextVersionStatusMetric:
		return contract.GetStatusLabel(v, useColors)
	case schema.BirthStatusMetric:
		return schema.BirthStatusName(v)
	default:
		return fmt.Sprintf(intFmt, v)
	}
}
