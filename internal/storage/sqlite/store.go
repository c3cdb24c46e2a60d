package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/carrot/internal/constants"
	"github.com/julianstephens/carrot/internal/errors"
	"github.com/julianstephens/carrot/internal/logger"
	"github.com/julianstephens/carrot/internal/migration"
)

type Store struct {
	path string
	db   *sql.DB
}

// Open creates dir if needed and opens the carrot database inside it
func Open(dir string) (*Store, error) {
	return OpenPath(filepath.Join(dir, constants.DatabaseFileName))
}

// OpenPath opens (creating if needed) the database file at path and brings
// its schema up to date.
func OpenPath(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.StorageIO("create data directory", err)
	}

	// The DSN pragma is applied to every new connection
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, errors.StorageIO("open database", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.StorageIO("open database", err)
	}

	s := &Store{path: path, db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, errors.StorageIO("run migrations", err)
	}

	logger.Debug("Opened SQLite store", "path", path)
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return errors.StorageIO("close database", err)
	}
	return nil
}

func (s *Store) runMigrations() error {
	runner := migration.NewRunner(s.db, migration.DriverSQLite)
	_, err := runner.ApplyMigrations(func(msg string) {
		logger.Debug(msg)
	})
	return err
}

// Path returns the database file backing the store
func (s *Store) Path() string {
	return s.path
}

// GetDB returns the underlying database connection, or nil once closed.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

func (s *Store) conn(op string) (*sql.DB, error) {
	if s.db == nil {
		return nil, errors.StorageIO(op, fmt.Errorf("store is closed"))
	}
	return s.db, nil
}
