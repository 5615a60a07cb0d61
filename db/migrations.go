package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
)

// Migration represents a database migration. Statements must be valid for both
// PostgreSQL and SQLite.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_seo_reports_table",
		Up: `
			CREATE TABLE IF NOT EXISTS seo_reports (
				id TEXT PRIMARY KEY,
				url TEXT NOT NULL,
				page_title TEXT NOT NULL DEFAULT '',
				data TEXT NOT NULL,
				created_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_seo_reports_url ON seo_reports(url);
			CREATE INDEX IF NOT EXISTS idx_seo_reports_created_at ON seo_reports(created_at);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_seo_reports_created_at;
			DROP INDEX IF EXISTS idx_seo_reports_url;
			DROP TABLE IF EXISTS seo_reports;
		`,
	},
	{
		Version: 2,
		Name:    "add_report_filter_columns",
		Up: `
			ALTER TABLE seo_reports ADD COLUMN has_issues BOOLEAN NOT NULL DEFAULT FALSE;
			ALTER TABLE seo_reports ADD COLUMN business_category TEXT NOT NULL DEFAULT '';
			ALTER TABLE seo_reports ADD COLUMN tags TEXT NOT NULL DEFAULT '';
			CREATE INDEX IF NOT EXISTS idx_seo_reports_category ON seo_reports(business_category);
			CREATE INDEX IF NOT EXISTS idx_seo_reports_has_issues ON seo_reports(has_issues);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_seo_reports_has_issues;
			DROP INDEX IF EXISTS idx_seo_reports_category;
			ALTER TABLE seo_reports DROP COLUMN tags;
			ALTER TABLE seo_reports DROP COLUMN business_category;
			ALTER TABLE seo_reports DROP COLUMN has_issues;
		`,
	},
}

// Migrate runs all pending migrations
func Migrate(db *sql.DB, driver string) error {
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, m := range sortedMigrations() {
		if m.Version <= currentVersion {
			continue
		}

		if err := runMigration(db, driver, m); err != nil {
			return fmt.Errorf("failed to run migration %d (%s): %w", m.Version, m.Name, err)
		}
		slog.Info("applied migration", "version", m.Version, "name", m.Name)
	}

	return nil
}

func sortedMigrations() []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})
	return sorted
}

// ensureMigrationsTable creates the schema_migrations table if it doesn't exist
func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// getCurrentVersion returns the current migration version
func getCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// runMigration executes a single migration
func runMigration(db *sql.DB, driver string, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.Up); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	if _, err := tx.Exec(
		rebind(driver, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)"),
		m.Version, m.Name,
	); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

// Rollback rolls back the last migration
func Rollback(db *sql.DB, driver string) error {
	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	if currentVersion == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	var target *Migration
	for i := range migrations {
		if migrations[i].Version == currentVersion {
			target = &migrations[i]
			break
		}
	}

	if target == nil {
		return fmt.Errorf("migration %d not found", currentVersion)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(target.Down); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	if _, err := tx.Exec(rebind(driver, "DELETE FROM schema_migrations WHERE version = ?"), currentVersion); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	return tx.Commit()
}

// GetMigrationStatus returns the current migration status
func GetMigrationStatus(db *sql.DB) ([]MigrationStatus, error) {
	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return nil, err
	}

	var status []MigrationStatus
	for _, m := range sortedMigrations() {
		status = append(status, MigrationStatus{
			Version: m.Version,
			Name:    m.Name,
			Applied: m.Version <= currentVersion,
		})
	}

	return status, nil
}

// MigrationStatus represents the status of a migration
type MigrationStatus struct {
	Version int
	Name    string
	Applied bool
}
