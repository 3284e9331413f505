package schema

import "time"

// StoreStatus represents the status of the version store.
type StoreStatus struct {
	Backend        string           `json:"backend"`
	Connected      bool             `json:"connected"`
	TotalSystems   int              `json:"total_systems"`
	TotalSnapshots int              `json:"total_snapshots"`
	LastWriteTime  time.Time        `json:"last_write_time"`
	OldestWrite    time.Time        `json:"oldest_write_time"`
	TableSizes     map[string]int64 `json:"table_sizes"`
}

// RunStatus represents the status of the run store.
type RunStatus struct {
	Backend       string    `json:"backend"`
	Connected     bool      `json:"connected"`
	TotalRuns     int       `json:"total_runs"`
	LastRunID     int64     `json:"last_run_id"`
	LastRunTime   time.Time `json:"last_run_time"`
	OldestRunTime time.Time `json:"oldest_run_time"`
	TotalClasses  int       `json:"total_classes"`
}
