package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/flavioespinoza/seo-scraper/models"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotFound is returned when a delete matches no report
var ErrNotFound = errors.New("report not found")

// DB wraps the database connection and provides data access methods
type DB struct {
	conn   *sql.DB
	driver string
}

// Config contains database configuration
type Config struct {
	Driver string // "postgres" (default) or "sqlite"
	DSN    string // Connection string or SQLite file path
}

// New creates a new database connection and applies pending migrations
func New(config Config) (*DB, error) {
	driver, err := normalizeDriver(config.Driver)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Configure connection pool
	if driver == DriverSQLite {
		// SQLite serializes writers, a single connection avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
		if err := configureSQLite(conn); err != nil {
			conn.Close()
			return nil, err
		}
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	db := &DB{conn: conn, driver: driver}

	if err := Migrate(conn, driver); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func normalizeDriver(driver string) (string, error) {
	switch strings.ToLower(driver) {
	case "", "postgres", "postgresql":
		return DriverPostgres, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func configureSQLite(conn *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 30000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// DB returns the underlying database connection for metrics collection
func (db *DB) DB() *sql.DB {
	return db.conn
}

// Driver returns the active driver name
func (db *DB) Driver() string {
	return db.driver
}

// Ping checks the database connection
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// rebind converts '?' placeholders to the driver's style
func (db *DB) rebind(query string) string {
	return rebind(db.driver, query)
}

func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveReport inserts or replaces a report
func (db *DB) SaveReport(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}

	jsonData, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := db.rebind(`
		INSERT INTO seo_reports (id, url, page_title, has_issues, business_category, tags, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			page_title = excluded.page_title,
			has_issues = excluded.has_issues,
			business_category = excluded.business_category,
			tags = excluded.tags,
			data = excluded.data,
			updated_at = excluded.updated_at
	`)

	_, err = db.conn.ExecContext(ctx, query,
		report.ID,
		report.URL,
		report.PageTitle,
		report.HasIssues,
		report.BusinessCategory,
		encodeTags(report.Tags),
		string(jsonData),
		report.CreatedAt.UTC().UnixNano(),
		report.LastModified.UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// GetReport retrieves a report by ID. It returns nil, nil when no report exists.
func (db *DB) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var jsonData string
	err := db.conn.QueryRowContext(ctx, db.rebind("SELECT data FROM seo_reports WHERE id = ?"), id).Scan(&jsonData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query report: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal([]byte(jsonData), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &report, nil
}

// DeleteReport deletes a report by ID
func (db *DB) DeleteReport(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, db.rebind("DELETE FROM seo_reports WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

// Count returns the total number of stored reports
func (db *DB) Count(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM seo_reports").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}

// encodeTags stores tags as |a|b| so a single tag can be matched with LIKE
func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "|" + strings.Join(tags, "|") + "|"
}
