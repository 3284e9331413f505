package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
)

// Table names for run tracking.
const (
	runsTable             = "classdrift_runs"
	releaseSummariesTable = "classdrift_release_summaries"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
// The none backend returns a store that records nothing.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, GetRunDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := createTables(db, runTableQueries(backend), []string{runsTable, releaseSummariesTable}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

// runTableQueries returns the CREATE TABLE queries for the backend.
func runTableQueries(backend schema.DatabaseBackend) map[string]string {
	runs := quoteTableName(runsTable, backend)
	summaries := quoteTableName(releaseSummariesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return map[string]string{
			runsTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
					system_key VARCHAR(255) NOT NULL,
					run_kind VARCHAR(32) NOT NULL,
					start_time DATETIME(6) NOT NULL,
					end_time DATETIME(6),
					run_duration_ms INT,
					total_releases INT,
					total_classes INT,
					config_params TEXT
				);
			`, runs),
			releaseSummariesTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT NOT NULL,
					rsn INT NOT NULL,
					release_id VARCHAR(255) NOT NULL,
					last_modified DATETIME(6) NOT NULL,
					classes INT NOT NULL,
					added INT NOT NULL,
					modified INT NOT NULL,
					deleted INT NOT NULL,
					unchanged INT NOT NULL,
					renamed INT NOT NULL,
					PRIMARY KEY (run_id, rsn)
				);
			`, summaries),
		}

	case schema.PostgreSQLBackend:
		return map[string]string{
			runsTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGSERIAL PRIMARY KEY,
					system_key TEXT NOT NULL,
					run_kind TEXT NOT NULL,
					start_time TIMESTAMPTZ NOT NULL,
					end_time TIMESTAMPTZ,
					run_duration_ms INT,
					total_releases INT,
					total_classes INT,
					config_params TEXT
				);
			`, runs),
			releaseSummariesTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id BIGINT NOT NULL,
					rsn INT NOT NULL,
					release_id TEXT NOT NULL,
					last_modified TIMESTAMPTZ NOT NULL,
					classes INT NOT NULL,
					added INT NOT NULL,
					modified INT NOT NULL,
					deleted INT NOT NULL,
					unchanged INT NOT NULL,
					renamed INT NOT NULL,
					PRIMARY KEY (run_id, rsn)
				);
			`, summaries),
		}

	default: // SQLite
		return map[string]string{
			runsTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id INTEGER PRIMARY KEY AUTOINCREMENT,
					system_key TEXT NOT NULL,
					run_kind TEXT NOT NULL,
					start_time TEXT NOT NULL,
					end_time TEXT,
					run_duration_ms INTEGER,
					total_releases INTEGER,
					total_classes INTEGER,
					config_params TEXT
				);
			`, runs),
			releaseSummariesTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					run_id INTEGER NOT NULL,
					rsn INTEGER NOT NULL,
					release_id TEXT NOT NULL,
					last_modified TEXT NOT NULL,
					classes INTEGER NOT NULL,
					added INTEGER NOT NULL,
					modified INTEGER NOT NULL,
					deleted INTEGER NOT NULL,
					unchanged INTEGER NOT NULL,
					renamed INTEGER NOT NULL,
					PRIMARY KEY (run_id, rsn)
				);
			`, summaries),
		}
	}
}

// BeginRun creates a new run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(system string, kind schema.RunKind, startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	table := quoteTableName(runsTable, rs.backend)
	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (system_key, run_kind, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, table)
		err = rs.db.QueryRow(query, system, string(kind), startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (system_key, run_kind, start_time, config_params) VALUES (?, ?, ?, ?)`, table)
		var result sql.Result
		result, err = rs.db.Exec(query, system, string(kind), formatTime(startTime, rs.backend), string(configJSON))
		if err != nil {
			return 0, fmt.Errorf("failed to insert run: %w", err)
		}
		runID, err = result.LastInsertId()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, totalReleases, totalClasses int) error {
	if rs.db == nil {
		return nil
	}

	table := quoteTableName(runsTable, rs.backend)
	row := rs.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, table, placeholder(rs.backend, 1)), runID)
	startTime, err := scanTime(row, rs.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	durationMs := endTime.Sub(startTime).Milliseconds()

	query := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_releases = %s, total_classes = %s WHERE run_id = %s`,
		table, placeholder(rs.backend, 1), placeholder(rs.backend, 2), placeholder(rs.backend, 3),
		placeholder(rs.backend, 4), placeholder(rs.backend, 5))
	if _, err := rs.db.Exec(query, formatTime(endTime, rs.backend), durationMs, totalReleases, totalClasses, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordReleaseSummary stores the evolution tallies of one release for a run.
func (rs *RunStoreImpl) RecordReleaseSummary(runID int64, summary schema.ReleaseSummary) error {
	if rs.db == nil {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, rsn, release_id, last_modified, classes, added, modified, deleted, unchanged, renamed)
		VALUES (%s)
	`, quoteTableName(releaseSummariesTable, rs.backend), placeholders(rs.backend, 10))
	_, err := rs.db.Exec(query, runID, summary.RSN, summary.ReleaseID, formatTime(summary.LastModified, rs.backend),
		summary.Classes, summary.Added, summary.Modified, summary.Deleted, summary.Unchanged, summary.Renamed)
	if err != nil {
		return fmt.Errorf("failed to insert release summary: %w", err)
	}
	return nil
}

// GetAllRuns retrieves all runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, system_key, run_kind, start_time, end_time, run_duration_ms,
		COALESCE(total_releases, 0), COALESCE(total_classes, 0), config_params FROM %s ORDER BY run_id`,
		quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		var kind string

		switch rs.backend {
		case schema.SQLiteBackend:
			var startStr string
			var endStr *string
			if err := rows.Scan(&record.RunID, &record.System, &kind, &startStr, &endStr, &record.RunDurationMs,
				&record.TotalReleases, &record.TotalClasses, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			startTime, err := time.Parse(time.RFC3339Nano, startStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			record.StartTime = startTime
			if endStr != nil {
				endTime, err := time.Parse(time.RFC3339Nano, *endStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.System, &kind, &record.StartTime, &record.EndTime, &record.RunDurationMs,
				&record.TotalReleases, &record.TotalClasses, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}
		record.Kind = schema.RunKind(kind)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetReleaseSummaries returns the release tallies recorded for a run.
func (rs *RunStoreImpl) GetReleaseSummaries(runID int64) ([]schema.ReleaseSummary, error) {
	if rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT rsn, release_id, last_modified, classes, added, modified, deleted, unchanged, renamed
		FROM %s WHERE run_id = %s ORDER BY rsn`, quoteTableName(releaseSummariesTable, rs.backend), placeholder(rs.backend, 1))
	rows, err := rs.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query release summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ReleaseSummary
	for rows.Next() {
		var s schema.ReleaseSummary
		var modified any
		if err := rows.Scan(&s.RSN, &s.ReleaseID, &modified, &s.Classes, &s.Added, &s.Modified,
			&s.Deleted, &s.Unchanged, &s.Renamed); err != nil {
			return nil, fmt.Errorf("failed to scan release summary: %w", err)
		}
		if s.LastModified, err = parseTimeValue(modified); err != nil {
			return nil, fmt.Errorf("failed to parse last_modified: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating release summaries: %w", err)
	}
	return results, nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:   string(rs.backend),
		Connected: rs.db != nil,
	}
	if rs.db == nil {
		return status, nil
	}

	table := quoteTableName(runsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}
	if status.TotalRuns == 0 {
		return status, nil
	}

	row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", table))
	var lastStart any
	if err := row.Scan(&status.LastRunID, &lastStart); err != nil {
		return status, fmt.Errorf("failed to get last run info: %w", err)
	}
	last, err := parseTimeValue(lastStart)
	if err != nil {
		return status, fmt.Errorf("failed to parse last run time: %w", err)
	}
	status.LastRunTime = last

	oldest, err := scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", table)), rs.backend)
	if err != nil {
		return status, fmt.Errorf("failed to get oldest run time: %w", err)
	}
	status.OldestRunTime = oldest

	row = rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_classes), 0) FROM %s", table))
	if err := row.Scan(&status.TotalClasses); err != nil {
		return status, fmt.Errorf("failed to get total classes: %w", err)
	}
	return status, nil
}

// scanTime reads a single time column stored the backend's way.
func scanTime(row *sql.Row, backend schema.DatabaseBackend) (time.Time, error) {
	switch backend {
	case schema.SQLiteBackend:
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, s)
	default: // MySQL and PostgreSQL store as native datetime
		var t time.Time
		err := row.Scan(&t)
		return t, err
	}
}

// parseTimeValue converts a scanned time column of any backend.
func parseTimeValue(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case []byte:
		return time.Parse(time.RFC3339Nano, string(t))
	default:
		return time.Time{}, fmt.Errorf("unexpected time value %T", v)
	}
}
