package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/carrot/internal/backup"
	"github.com/julianstephens/carrot/internal/keyring"
	"github.com/julianstephens/carrot/internal/migration"
	"github.com/julianstephens/carrot/internal/storage"
	"github.com/julianstephens/carrot/internal/storage/postgres"
	"github.com/julianstephens/carrot/internal/storage/sqlite"
)

type sqlStore interface {
	storage.Provider
	GetDB() *sql.DB
}

type DoctorCmd struct{}

type diagnostic struct {
	name string
	// warn marks checks whose failure is reported but does not fail the run
	warn bool
	// needsDB checks are skipped when the database cannot be opened
	needsDB bool
	run     func() error
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	// The facade would silently fall back to memory, so open the store directly
	var store sqlStore
	driver := migration.DriverSQLite
	openStore := func() error {
		var err error
		if ctx.Config.UsesPostgres() {
			driver = migration.DriverPostgres
			store, err = postgres.Open(ctx.Config.DatabaseURL)
		} else {
			store, err = sqlite.Open(ctx.Config.DataDir)
		}
		if err != nil {
			store = nil
			return err
		}
		var result int
		return store.GetDB().QueryRow("SELECT 1").Scan(&result)
	}
	defer func() {
		if store != nil {
			store.Close()
		}
	}()

	checks := []diagnostic{
		{name: "Data directory writable", run: func() error { return checkDataDirWritable(ctx.Config.DataDir) }},
		{name: "Database reachable", run: openStore},
		{name: "Schema version", needsDB: true, run: func() error {
			return checkSchema(migration.NewRunner(store.GetDB(), driver))
		}},
		{name: "Data validation", needsDB: true, run: func() error { return checkData(store) }},
		{name: "Backups present", warn: true, run: func() error { return checkBackups(ctx) }},
		{name: "OS keyring", warn: true, run: func() error {
			if !keyring.IsAvailable() {
				return fmt.Errorf("OS keyring is not available; use CARROT_DATABASE_URL for PostgreSQL")
			}
			return nil
		}},
	}

	hasError := false
	for _, c := range checks {
		if c.needsDB && store == nil {
			ctx.printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run()
		switch {
		case err == nil:
			ctx.printf("✓ %s: OK\n", c.name)
		case c.warn:
			ctx.printf("⚠ %s: WARNING\n   %v\n", c.name, err)
		default:
			ctx.printf("❌ %s: FAIL\n   Error: %v\n", c.name, err)
			hasError = true
		}
	}

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.println("All diagnostics passed!")
	return nil
}

func checkDataDirWritable(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func checkSchema(runner *migration.Runner) error {
	if err := runner.ValidateVersion(); err != nil {
		return err
	}
	current, err := runner.GetCurrentVersion()
	if err != nil {
		return err
	}
	if latest := runner.GetLatestVersion(); current != latest {
		return fmt.Errorf("schema version %d, expected %d (run 'carrot migrate')", current, latest)
	}
	for _, col := range []string{"color", "sort_order"} {
		ok, err := runner.HasColumn("trackables", col)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("trackables.%s is missing", col)
		}
	}
	return nil
}

// checkData reads every row back through the store, which rejects
// malformed colors and dates
func checkData(store storage.Provider) error {
	trackables, err := store.GetAllTrackables()
	if err != nil {
		return err
	}
	for _, t := range trackables {
		if _, err := store.GetAllCounts(t.ID); err != nil {
			return err
		}
	}
	return nil
}

func checkBackups(ctx *Context) error {
	if ctx.Config.UsesPostgres() {
		return nil
	}
	mgr := backup.NewManager(ctx.Config.DatabasePath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s (run 'carrot backup')", filepath.Clean(mgr.Dir()))
	}
	return nil
}
