package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/internal/parquet"
)

// ExecuteStoreExport writes every stored class of a system (or of all systems when
// system is empty) to <outputFile>.classes.parquet, and the tracked runs to
// <outputFile>.runs.parquet when run tracking is enabled.
func ExecuteStoreExport(mgr contract.StoreManager, system, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := mgr.GetSnapshotStore()
	systems := []string{system}
	if system == "" {
		var err error
		if systems, err = store.ListSystems(); err != nil {
			return err
		}
	}

	var rows []parquet.ClassRelease
	snapshots := 0
	for _, key := range systems {
		rsns, err := store.ListRSNs(key)
		if err != nil {
			return err
		}
		for _, rsn := range rsns {
			snap, err := store.Get(key, rsn)
			if err != nil {
				return err
			}
			rows = append(rows, parquet.ConvertSnapshot(key, snap)...)
			snapshots++
		}
	}
	if snapshots == 0 {
		return errors.New("no snapshots found to export")
	}

	classesFile := outputFile + ".classes.parquet"
	if err := parquet.WriteClassReleasesParquet(rows, classesFile); err != nil {
		return fmt.Errorf("failed to write classes: %w", err)
	}
	fmt.Printf("Exported %d class rows from %d snapshots to: %s\n", len(rows), snapshots, classesFile)

	runStore := mgr.GetRunStore()
	if runStore == nil {
		return nil
	}
	runs, err := runStore.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	if len(runs) == 0 {
		return nil
	}
	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	fmt.Printf("Exported %d runs to: %s\n", len(runs), runsFile)
	return nil
}
