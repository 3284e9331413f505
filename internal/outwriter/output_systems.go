package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
)

// WriteSystems outputs the systems held by the snapshot store.
func WriteSystems(systems []schema.SystemInfo, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, systems)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"key", "name", "type", "releases", "stored"}, func(cw *csv.Writer) error {
				for _, s := range systems {
					if err := cw.Write(systemRow(s)); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if len(systems) == 0 {
				_, err := fmt.Fprintln(w, "No systems stored yet.")
				return err
			}
			rows := make([][]string, 0, len(systems))
			for _, s := range systems {
				rows = append(rows, systemRow(s))
			}
			return writeTable(w, []string{"Key", "Name", "Type", "Releases", "Stored"}, rows)
		}, "Wrote text")
	}
}

func systemRow(s schema.SystemInfo) []string {
	return []string{s.Key, s.Name, s.Type, strconv.Itoa(s.Releases), strconv.Itoa(s.Stored)}
}
