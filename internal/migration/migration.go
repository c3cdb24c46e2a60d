package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/carrot/internal/constants"
)

// Driver selects the SQL dialect a Runner speaks
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Migration represents a single schema change. Up runs inside the
// migration's transaction and must be idempotent: it is safe to apply to a
// database that already has the change.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *sql.Tx, driver Driver) error
}

// Runner manages database schema migrations
type Runner struct {
	db         *sql.DB
	driver     Driver
	migrations []Migration
}

// NewRunner creates a runner over the built-in carrot migrations
func NewRunner(db *sql.DB, driver Driver) *Runner {
	return NewRunnerWith(db, driver, Migrations())
}

// NewRunnerWith creates a runner over an explicit migration list
func NewRunnerWith(db *sql.DB, driver Driver, migrations []Migration) *Runner {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})
	return &Runner{
		db:         db,
		driver:     driver,
		migrations: sorted,
	}
}

// Migrations returns the carrot schema history in version order
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_tables", Up: createTables},
		{Version: 2, Name: "add_trackable_color", Up: addColumn("trackables", "color")},
		{Version: 3, Name: "add_trackable_sort_order", Up: addColumn("trackables", "sort_order")},
	}
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func createTables(tx *sql.Tx, driver Driver) error {
	for _, stmt := range createTableStatements(driver) {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func createTableStatements(driver Driver) []string {
	if driver == DriverPostgres {
		return []string{
			`CREATE TABLE IF NOT EXISTS trackables (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				` + columnDefinitions[driver]["color"] + `,
				` + columnDefinitions[driver]["sort_order"] + `
			)`,
			`CREATE TABLE IF NOT EXISTS counts (
				id BIGSERIAL PRIMARY KEY,
				date TEXT NOT NULL,
				trackable_id BIGINT NOT NULL REFERENCES trackables(id) ON DELETE CASCADE,
				count INTEGER NOT NULL DEFAULT 0,
				UNIQUE(date, trackable_id)
			)`,
		}
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS trackables (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			` + columnDefinitions[driver]["color"] + `,
			` + columnDefinitions[driver]["sort_order"] + `
		)`,
		`CREATE TABLE IF NOT EXISTS counts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			trackable_id INTEGER NOT NULL,
			count INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (trackable_id) REFERENCES trackables(id) ON DELETE CASCADE,
			UNIQUE(date, trackable_id)
		)`,
	}
}

// columnDefinitions are the DDL fragments for columns added after the
// first release, shared by CREATE TABLE and ALTER TABLE.
var columnDefinitions = map[Driver]map[string]string{
	DriverSQLite: {
		"color":      "color TEXT NOT NULL DEFAULT '" + constants.DefaultColor + "'",
		"sort_order": "sort_order INTEGER NOT NULL DEFAULT " + strconv.Itoa(constants.UnorderedSortOrder),
	},
	DriverPostgres: {
		"color":      "color TEXT NOT NULL DEFAULT '" + constants.DefaultColor + "'",
		"sort_order": "sort_order INTEGER NOT NULL DEFAULT " + strconv.Itoa(constants.UnorderedSortOrder),
	},
}

// addColumn adds column to table unless the live schema already has it.
// Existing rows receive the column default.
func addColumn(table, column string) func(tx *sql.Tx, driver Driver) error {
	return func(tx *sql.Tx, driver Driver) error {
		present, err := hasColumn(tx, driver, table, column)
		if err != nil {
			return err
		}
		if present {
			return nil
		}
		def, ok := columnDefinitions[driver][column]
		if !ok {
			return fmt.Errorf("no definition for column %s.%s", table, column)
		}
		_, err = tx.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, def))
		return err
	}
}

func columns(q queryer, driver Driver, table string) ([]string, error) {
	query := "SELECT name FROM pragma_table_info(?)"
	if driver == DriverPostgres {
		query = `SELECT column_name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1
			ORDER BY ordinal_position`
	}

	rows, err := q.Query(query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect columns of %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func hasColumn(q queryer, driver Driver, table, column string) (bool, error) {
	names, err := columns(q, driver, table)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, nil
}

// Columns returns the live column names of table in declaration order
func (r *Runner) Columns(table string) ([]string, error) {
	return columns(r.db, r.driver, table)
}

// HasColumn reports whether table currently has column
func (r *Runner) HasColumn(table, column string) (bool, error) {
	return hasColumn(r.db, r.driver, table, column)
}

// bind rewrites ? placeholders to $n for PostgreSQL
func (r *Runner) bind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// EnsureSchemaVersionTable creates the schema_version table if it doesn't exist
func (r *Runner) EnsureSchemaVersionTable() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`)
	return err
}

// GetCurrentVersion returns the current schema version from the database.
// Returns 0 for a fresh database or one created before versions were
// recorded.
func (r *Runner) GetCurrentVersion() (int, error) {
	if err := r.EnsureSchemaVersionTable(); err != nil {
		return 0, fmt.Errorf("failed to ensure schema_version table: %w", err)
	}

	var version int
	err := r.db.QueryRow("SELECT version FROM schema_version").Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// SetVersion sets the current schema version in the database
func (r *Runner) SetVersion(version int) error {
	if err := r.EnsureSchemaVersionTable(); err != nil {
		return fmt.Errorf("failed to ensure schema_version table: %w", err)
	}

	if _, err := r.db.Exec("DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("failed to clear version: %w", err)
	}
	if _, err := r.db.Exec(r.bind("INSERT INTO schema_version (version) VALUES (?)"), version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	return nil
}

// GetLatestVersion returns the highest migration version available
func (r *Runner) GetLatestVersion() int {
	if len(r.migrations) == 0 {
		return 0
	}
	return r.migrations[len(r.migrations)-1].Version
}

// ApplyMigrations applies all pending migrations up to the latest version.
// Returns the number of migrations applied.
func (r *Runner) ApplyMigrations(logFn func(string)) (int, error) {
	if logFn == nil {
		logFn = func(string) {}
	}

	for i := 1; i < len(r.migrations); i++ {
		if r.migrations[i].Version == r.migrations[i-1].Version {
			return 0, fmt.Errorf("duplicate migration version %d", r.migrations[i].Version)
		}
	}

	currentVersion, err := r.GetCurrentVersion()
	if err != nil {
		return 0, err
	}

	if len(r.migrations) == 0 {
		logFn("No migrations defined")
		return 0, nil
	}

	latestVersion := r.GetLatestVersion()
	if currentVersion > latestVersion {
		return 0, fmt.Errorf("database schema version (%d) is newer than supported version (%d) - please upgrade the application", currentVersion, latestVersion)
	}

	var pending []Migration
	for _, m := range r.migrations {
		if m.Version > currentVersion {
			pending = append(pending, m)
		}
	}

	if len(pending) == 0 {
		logFn(fmt.Sprintf("Database schema is up to date (version %d)", currentVersion))
		return 0, nil
	}

	logFn(fmt.Sprintf("Current schema version: %d", currentVersion))
	logFn(fmt.Sprintf("Target schema version: %d", latestVersion))
	logFn(fmt.Sprintf("Applying %d migration(s)...", len(pending)))

	startTime := time.Now()
	applied := 0

	for _, m := range pending {
		logFn(fmt.Sprintf("  Applying migration %d: %s", m.Version, m.Name))
		if err := r.apply(m); err != nil {
			return applied, err
		}
		applied++
		logFn(fmt.Sprintf("  ✓ Migration %d applied successfully", m.Version))
	}

	logFn(fmt.Sprintf("Applied %d migration(s) in %v", applied, time.Since(startTime)))
	return applied, nil
}

// apply runs m and records its version in one transaction
func (r *Runner) apply(m Migration) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.Version, err)
	}

	if err := m.Up(tx, r.driver); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to clear version in migration %d: %w", m.Version, err)
	}

	if _, err := tx.Exec(r.bind("INSERT INTO schema_version (version) VALUES (?)"), m.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to set version in migration %d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}

// Reapply runs every migration again regardless of the recorded version.
// Each migration is idempotent, so this repairs a database whose recorded
// version is ahead of its actual columns.
func (r *Runner) Reapply() error {
	if err := r.EnsureSchemaVersionTable(); err != nil {
		return fmt.Errorf("failed to ensure schema_version table: %w", err)
	}
	for _, m := range r.migrations {
		if err := r.apply(m); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVersion checks if the database version is compatible with the application
func (r *Runner) ValidateVersion() error {
	currentVersion, err := r.GetCurrentVersion()
	if err != nil {
		return err
	}

	latestVersion := r.GetLatestVersion()
	if currentVersion > latestVersion {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d) - please upgrade the application", currentVersion, latestVersion)
	}
	return nil
}
