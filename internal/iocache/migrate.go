package iocache

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/classdrift/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrationTarget selects which database a migration applies to.
type MigrationTarget string

// Migration targets.
const (
	StoreMigrations MigrationTarget = "store"
	RunMigrations   MigrationTarget = "runs"
)

// migrationsTable keeps the version bookkeeping of each target apart, so the
// snapshot and run schemas can share one MySQL or PostgreSQL database.
func (t MigrationTarget) migrationsTable() string {
	return "classdrift_" + string(t) + "_migrations"
}

func (t MigrationTarget) defaultPath() string {
	if t == RunMigrations {
		return GetRunDBFilePath()
	}
	return GetStoreDBFilePath()
}

// Migrate runs the embedded migrations of a target.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations.
// - If targetVersion > 0, it migrates to the specified version.
func Migrate(target MigrationTarget, backend schema.DatabaseBackend, connStr string, targetVersion int) error {
	if backend == schema.NoneBackend {
		return fmt.Errorf("migrations are not supported for NoneBackend")
	}
	if target != StoreMigrations && target != RunMigrations {
		return fmt.Errorf("unknown migration target %q. must be store or runs", target)
	}

	db, err := openDatabase(backend, connStr, target.defaultPath())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var driver database.Driver
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: target.migrationsTable()})
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: target.migrationsTable()})
	case schema.PostgreSQLBackend:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{MigrationsTable: target.migrationsTable()})
	}
	if err != nil {
		return fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	migrationFS, err := fs.Sub(migrationsFS, path.Join("migrations", string(backend), string(target)))
	if err != nil {
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(backend), driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", currentVersion)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to migrate to latest version: %w", err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Printf("No %s migration needed. Database is already at the latest version.\n", target)
		} else {
			newVersion, _, _ := m.Version()
			fmt.Printf("Migrated %s from version %d to version %d\n", target, currentVersion, newVersion)
		}
	case targetVersion == 0:
		err = m.Down()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to roll back to version 0: %w", err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Printf("No %s migration needed. Database is already at version 0\n", target)
		} else {
			fmt.Printf("Rolled back %s from version %d to version 0\n", target, currentVersion)
		}
	default:
		err = m.Migrate(uint(targetVersion))
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to migrate to version %d: %w", targetVersion, err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Printf("No %s migration needed. Database is already at version %d\n", target, targetVersion)
		} else {
			fmt.Printf("Migrated %s from version %d to version %d\n", target, currentVersion, targetVersion)
		}
	}
	return nil
}
