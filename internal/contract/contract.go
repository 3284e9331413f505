// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/classdrift/schema"
)

// VersionStore is the snapshot arena consumed by the evolution engine.
// Every pass re-fetches through Get and writes back through Put; callers never
// assume an in-memory cache.
type VersionStore interface {
	// Get returns the snapshot of a system at a release sequence number.
	// It returns ErrSnapshotNotFound when nothing is stored under the key.
	Get(system string, rsn int) (*schema.VersionSnapshot, error)

	// Exists reports whether a snapshot is stored under the key.
	Exists(system string, rsn int) (bool, error)

	// Put stores a snapshot, replacing any previous one with the same RSN.
	Put(system string, snapshot *schema.VersionSnapshot) error
}

// SnapshotStore is the durable store behind the VersionStore. It also keeps the
// history descriptors so that reports can list systems and releases.
type SnapshotStore interface {
	VersionStore

	// PutHistory stores the table of contents of a system.
	PutHistory(history *schema.EvolutionHistory) error

	// GetHistory returns the table of contents of a system or ErrHistoryNotFound.
	GetHistory(system string) (*schema.EvolutionHistory, error)

	// ListSystems returns the stored system keys in lexical order.
	ListSystems() ([]string, error)

	// ListRSNs returns the stored release sequence numbers of a system in ascending order.
	ListRSNs(system string) ([]int, error)

	// GetStatus returns status information about the snapshot store
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection
	Close() error
}

// RunStore defines the interface for tracking extraction and evolution runs.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(system string, kind schema.RunKind, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalReleases, totalClasses int) error

	// RecordReleaseSummary stores the evolution tallies of one release for a run
	RecordReleaseSummary(runID int64, summary schema.ReleaseSummary) error

	// GetAllRuns returns every tracked run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetReleaseSummaries returns the release tallies recorded for a run ordered by RSN
	GetReleaseSummaries(runID int64) ([]schema.ReleaseSummary, error)

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// Close closes the underlying connection
	Close() error
}

// StoreManager defines the interface for managing stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetSnapshotStore() SnapshotStore
	GetRunStore() RunStore
}
