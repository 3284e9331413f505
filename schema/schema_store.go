package schema

import "time"

// RunKind names the command that produced a tracked run.
type RunKind string

// Tracked run kinds.
const (
	ExtractRun RunKind = "extract"
	EvolveRun  RunKind = "evolve"
)

// RunRecord represents a row from the classdrift_runs table.
type RunRecord struct {
	RunID         int64
	System        string
	Kind          RunKind
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalReleases int32
	TotalClasses  int32
	ConfigParams  *string
}

// ReleaseSummary holds the per-release evolution tallies recorded for a run and
// shown by the release report.
type ReleaseSummary struct {
	RSN          int       `json:"rsn"`
	ReleaseID    string    `json:"release_id"`
	LastModified time.Time `json:"last_modified"`
	Classes      int       `json:"classes"`
	Added        int       `json:"added"`
	Modified     int       `json:"modified"`
	Deleted      int       `json:"deleted"`
	Unchanged    int       `json:"unchanged"`
	Renamed      int       `json:"renamed"`
}

// SummarizeSnapshot tallies the evolution statuses of a snapshot. Deleted counts the
// classes of this release that are gone in the next one.
func SummarizeSnapshot(v *VersionSnapshot) ReleaseSummary {
	s := ReleaseSummary{
		RSN:          v.RSN,
		ReleaseID:    v.ReleaseID,
		LastModified: v.LastModified,
		Classes:      len(v.Classes),
	}
	for _, c := range v.Classes {
		switch c.Get(EvolutionStatusMetric) {
		case StatusAdded:
			s.Added++
		case StatusModified:
			s.Modified++
		case StatusUnchanged:
			s.Unchanged++
		}
		if c.Get(NextVersionStatusMetric) == StatusDeleted {
			s.Deleted++
		}
		if c.Flag(Renamed) {
			s.Renamed++
		}
	}
	return s
}

// ClassTimelineEntry is one release of a class history report.
type ClassTimelineEntry struct {
	RSN       int            `json:"rsn"`
	ReleaseID string         `json:"release_id"`
	Name      string         `json:"name"`
	Metrics   map[Metric]int `json:"metrics"`
}
