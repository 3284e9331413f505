package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
)

// metricDefinition is the render model of one alias table row.
type metricDefinition struct {
	Name    string `json:"name"`
	Acronym string `json:"acronym"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
}

func buildMetricDefinitions() []metricDefinition {
	defs := make([]metricDefinition, len(schema.MetricCatalog))
	for i, info := range schema.MetricCatalog {
		defs[i] = metricDefinition{
			Name:    string(info.Name),
			Acronym: info.Acronym,
			Label:   info.Label,
			Kind:    info.Kind.String(),
		}
	}
	return defs
}

// WriteMetricDefinitions displays the metric alias table.
// This is a static display that does not need a store.
func WriteMetricDefinitions(cfg *contract.Config) error {
	defs := buildMetricDefinitions()

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, defs)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"name", "acronym", "label", "kind"}, func(cw *csv.Writer) error {
				for _, d := range defs {
					if err := cw.Write([]string{d.Name, d.Acronym, d.Label, d.Kind}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if _, err := fmt.Fprintf(w, "📏 Class Metrics\n===============\n\n"); err != nil {
				return err
			}
			rows := make([][]string, len(defs))
			for i, d := range defs {
				rows[i] = []string{d.Name, d.Acronym, d.Label, d.Kind}
			}
			if err := writeTable(w, []string{"Name", "Acronym", "Label", "Kind"}, rows); err != nil {
				return err
			}
			_, err := fmt.Fprintln(w, "Additive metrics are summed when nested classes merge; flags keep the outer value; taints are OR-ed.")
			return err
		}, "Wrote text")
	}
}
