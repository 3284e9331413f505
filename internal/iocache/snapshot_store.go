package iocache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/classdrift/internal/contract"
	"github.com/huangsam/classdrift/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// Table names for snapshot storage.
const (
	snapshotsTable = "classdrift_snapshots"
	historiesTable = "classdrift_histories"
)

// SnapshotStoreImpl keeps one JSON document per (system, RSN) in a SQL database.
// Every document carries an xxhash checksum that is verified on read.
type SnapshotStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.SnapshotStore = &SnapshotStoreImpl{} // Compile-time check

// NewSnapshotStore opens the snapshot store for a backend. The none backend
// returns an in-memory store that is lost on exit.
func NewSnapshotStore(backend schema.DatabaseBackend, connStr string) (contract.SnapshotStore, error) {
	if backend == schema.NoneBackend {
		return NewMemoryStore(), nil
	}
	for _, table := range []string{snapshotsTable, historiesTable} {
		if err := validateTableName(table); err != nil {
			return nil, err
		}
	}

	db, err := openDatabase(backend, connStr, GetStoreDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := createTables(db, snapshotTableQueries(backend), []string{snapshotsTable, historiesTable}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SnapshotStoreImpl{db: db, backend: backend, connStr: connStr}, nil
}

// snapshotTableQueries returns the CREATE TABLE queries for the backend.
func snapshotTableQueries(backend schema.DatabaseBackend) map[string]string {
	snapshots := quoteTableName(snapshotsTable, backend)
	histories := quoteTableName(historiesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return map[string]string{
			snapshotsTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					system_key VARCHAR(255) NOT NULL,
					rsn INT NOT NULL,
					release_id VARCHAR(255) NOT NULL,
					class_count INT NOT NULL,
					checksum BIGINT NOT NULL,
					payload LONGBLOB NOT NULL,
					written_at BIGINT NOT NULL,
					PRIMARY KEY (system_key, rsn)
				);
			`, snapshots),
			historiesTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					system_key VARCHAR(255) PRIMARY KEY,
					payload LONGBLOB NOT NULL,
					written_at BIGINT NOT NULL
				);
			`, histories),
		}

	case schema.PostgreSQLBackend:
		return map[string]string{
			snapshotsTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					system_key TEXT NOT NULL,
					rsn INTEGER NOT NULL,
					release_id TEXT NOT NULL,
					class_count INTEGER NOT NULL,
					checksum BIGINT NOT NULL,
					payload BYTEA NOT NULL,
					written_at BIGINT NOT NULL,
					PRIMARY KEY (system_key, rsn)
				);
			`, snapshots),
			historiesTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					system_key TEXT PRIMARY KEY,
					payload BYTEA NOT NULL,
					written_at BIGINT NOT NULL
				);
			`, histories),
		}

	default: // SQLite
		return map[string]string{
			snapshotsTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					system_key TEXT NOT NULL,
					rsn INTEGER NOT NULL,
					release_id TEXT NOT NULL,
					class_count INTEGER NOT NULL,
					checksum INTEGER NOT NULL,
					payload BLOB NOT NULL,
					written_at INTEGER NOT NULL,
					PRIMARY KEY (system_key, rsn)
				);
			`, snapshots),
			historiesTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					system_key TEXT PRIMARY KEY,
					payload BLOB NOT NULL,
					written_at INTEGER NOT NULL
				);
			`, histories),
		}
	}
}

// Get returns the snapshot stored under (system, rsn).
func (ss *SnapshotStoreImpl) Get(system string, rsn int) (*schema.VersionSnapshot, error) {
	query := fmt.Sprintf(`SELECT checksum, payload FROM %s WHERE system_key = %s AND rsn = %s`,
		quoteTableName(snapshotsTable, ss.backend), placeholder(ss.backend, 1), placeholder(ss.backend, 2))

	var checksum int64
	var payload []byte
	if err := ss.db.QueryRow(query, system, rsn).Scan(&checksum, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s release %d: %w", system, rsn, contract.ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("failed to read %s release %d: %w", system, rsn, err)
	}
	return decodeSnapshot(system, rsn, payload, uint64(checksum))
}

// Exists reports whether a snapshot is stored under (system, rsn).
func (ss *SnapshotStoreImpl) Exists(system string, rsn int) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE system_key = %s AND rsn = %s`,
		quoteTableName(snapshotsTable, ss.backend), placeholder(ss.backend, 1), placeholder(ss.backend, 2))

	var n int
	if err := ss.db.QueryRow(query, system, rsn).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up %s release %d: %w", system, rsn, err)
	}
	return n > 0, nil
}

// Put inserts or replaces the snapshot of a system at its RSN.
func (ss *SnapshotStoreImpl) Put(system string, snapshot *schema.VersionSnapshot) error {
	payload, checksum, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	_, err = ss.db.Exec(ss.snapshotUpsertQuery(),
		system, snapshot.RSN, snapshot.ReleaseID, len(snapshot.Classes), int64(checksum), payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write %s release %d: %w", system, snapshot.RSN, err)
	}
	return nil
}

// snapshotUpsertQuery returns the UPSERT query for the backend.
func (ss *SnapshotStoreImpl) snapshotUpsertQuery() string {
	table := quoteTableName(snapshotsTable, ss.backend)
	cols := "system_key, rsn, release_id, class_count, checksum, payload, written_at"
	switch ss.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new
			ON DUPLICATE KEY UPDATE release_id = new.release_id, class_count = new.class_count,
			checksum = new.checksum, payload = new.payload, written_at = new.written_at`,
			table, cols, placeholders(ss.backend, 7))

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (system_key, rsn) DO UPDATE SET release_id = EXCLUDED.release_id,
			class_count = EXCLUDED.class_count, checksum = EXCLUDED.checksum,
			payload = EXCLUDED.payload, written_at = EXCLUDED.written_at`,
			table, cols, placeholders(ss.backend, 7))

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (%s)`, table, cols, placeholders(ss.backend, 7))
	}
}

// PutHistory inserts or replaces the descriptor of a system.
func (ss *SnapshotStoreImpl) PutHistory(history *schema.EvolutionHistory) error {
	payload, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode history %s: %w", history.Key, err)
	}

	table := quoteTableName(historiesTable, ss.backend)
	var query string
	switch ss.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (system_key, payload, written_at) VALUES (?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE payload = new.payload, written_at = new.written_at`, table)
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (system_key, payload, written_at) VALUES ($1, $2, $3)
			ON CONFLICT (system_key) DO UPDATE SET payload = EXCLUDED.payload, written_at = EXCLUDED.written_at`, table)
	default: // SQLite
		query = fmt.Sprintf(`INSERT OR REPLACE INTO %s (system_key, payload, written_at) VALUES (?, ?, ?)`, table)
	}

	if _, err := ss.db.Exec(query, history.Key, payload, time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to write history %s: %w", history.Key, err)
	}
	return nil
}

// GetHistory returns the descriptor of a system.
func (ss *SnapshotStoreImpl) GetHistory(system string) (*schema.EvolutionHistory, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE system_key = %s`,
		quoteTableName(historiesTable, ss.backend), placeholder(ss.backend, 1))

	var payload []byte
	if err := ss.db.QueryRow(query, system).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", system, contract.ErrHistoryNotFound)
		}
		return nil, fmt.Errorf("failed to read history %s: %w", system, err)
	}
	return decodeHistory(system, payload)
}

// ListSystems returns the keys of every stored history in lexical order.
func (ss *SnapshotStoreImpl) ListSystems() ([]string, error) {
	query := fmt.Sprintf(`SELECT system_key FROM %s ORDER BY system_key`, quoteTableName(historiesTable, ss.backend))
	rows, err := ss.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list systems: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var systems []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan system key: %w", err)
		}
		systems = append(systems, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating systems: %w", err)
	}
	return systems, nil
}

// ListRSNs returns the stored release sequence numbers of a system in ascending order.
func (ss *SnapshotStoreImpl) ListRSNs(system string) ([]int, error) {
	query := fmt.Sprintf(`SELECT rsn FROM %s WHERE system_key = %s ORDER BY rsn`,
		quoteTableName(snapshotsTable, ss.backend), placeholder(ss.backend, 1))
	rows, err := ss.db.Query(query, system)
	if err != nil {
		return nil, fmt.Errorf("failed to list releases of %s: %w", system, err)
	}
	defer func() { _ = rows.Close() }()

	var rsns []int
	for rows.Next() {
		var rsn int
		if err := rows.Scan(&rsn); err != nil {
			return nil, fmt.Errorf("failed to scan rsn: %w", err)
		}
		rsns = append(rsns, rsn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating releases: %w", err)
	}
	return rsns, nil
}

// Close closes the underlying DB connection.
func (ss *SnapshotStoreImpl) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}

// GetStatus returns status information about the snapshot store.
func (ss *SnapshotStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(ss.backend),
		Connected:  ss.db != nil,
		TableSizes: make(map[string]int64),
	}
	if ss.db == nil {
		return status, nil
	}

	snapshots := quoteTableName(snapshotsTable, ss.backend)
	histories := quoteTableName(historiesTable, ss.backend)

	if err := ss.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", histories)).Scan(&status.TotalSystems); err != nil {
		return status, fmt.Errorf("failed to count systems: %w", err)
	}
	if err := ss.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", snapshots)).Scan(&status.TotalSnapshots); err != nil {
		return status, fmt.Errorf("failed to count snapshots: %w", err)
	}

	if status.TotalSnapshots > 0 {
		var newest, oldest int64
		row := ss.db.QueryRow(fmt.Sprintf("SELECT MAX(written_at), MIN(written_at) FROM %s", snapshots))
		if err := row.Scan(&newest, &oldest); err != nil {
			return status, fmt.Errorf("failed to get write times: %w", err)
		}
		status.LastWriteTime = time.Unix(newest, 0)
		status.OldestWrite = time.Unix(oldest, 0)
	}

	for _, table := range []string{snapshotsTable, historiesTable} {
		status.TableSizes[table] = ss.tableSizeBytes(table)
	}
	return status, nil
}

// tableSizeBytes estimates the on-disk size of a table. For SQLite the whole
// database file is reported since pages are shared.
func (ss *SnapshotStoreImpl) tableSizeBytes(table string) int64 {
	var size int64
	fallback := func() int64 {
		var sum sql.NullInt64
		q := fmt.Sprintf("SELECT SUM(LENGTH(payload)) FROM %s", quoteTableName(table, ss.backend))
		if err := ss.db.QueryRow(q).Scan(&sum); err != nil {
			return 0
		}
		return sum.Int64
	}

	switch ss.backend {
	case schema.SQLiteBackend:
		row := ss.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&size); err != nil {
			return fallback()
		}
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(ss.connStr)
		if err != nil || cfg.DBName == "" {
			return fallback()
		}
		row := ss.db.QueryRow("SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?",
			cfg.DBName, table)
		if err := row.Scan(&size); err != nil {
			return fallback()
		}
	case schema.PostgreSQLBackend:
		if err := ss.db.QueryRow("SELECT pg_total_relation_size($1)", table).Scan(&size); err != nil {
			return fallback()
		}
	default:
		return fallback()
	}
	return size
}

// encodeSnapshot serializes a snapshot and returns its checksum.
func encodeSnapshot(snapshot *schema.VersionSnapshot) ([]byte, uint64, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode release %d: %w", snapshot.RSN, err)
	}
	return payload, xxhash.Sum64(payload), nil
}

// decodeSnapshot verifies and deserializes a stored snapshot.
func decodeSnapshot(system string, rsn int, payload []byte, checksum uint64) (*schema.VersionSnapshot, error) {
	if got := xxhash.Sum64(payload); got != checksum {
		return nil, fmt.Errorf("%s release %d is corrupt: checksum %x, stored %x", system, rsn, got, checksum)
	}
	var snap schema.VersionSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode %s release %d: %w", system, rsn, err)
	}
	snap.EnsureDefaults()
	return &snap, nil
}

func decodeHistory(system string, payload []byte) (*schema.EvolutionHistory, error) {
	var hist schema.EvolutionHistory
	if err := json.Unmarshal(payload, &hist); err != nil {
		return nil, fmt.Errorf("failed to decode history %s: %w", system, err)
	}
	if hist.Releases == nil {
		hist.Releases = make(map[int]string)
	}
	if hist.Metadata == nil {
		hist.Metadata = make(map[string]string)
	}
	return &hist, nil
}
