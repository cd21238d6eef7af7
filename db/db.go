package db

import (
	"embed"
	"fmt"
	"sync"

	_ "github.com/tfkr-ae/mirsal/db/migrations"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql migrations/*.go
var embedMigrations embed.FS

var (
	gooseOnce sync.Once
	gooseErr  error
)

// Repository is the SQLite journal. It implements the journal, log and stats
// repositories of the domain package.
type Repository struct {
	dbConn *sqlx.DB
}

// NewRepository wraps an open connection, usually one returned by New.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		dbConn: db,
	}
}

// Open opens and migrates the journal at path.
func Open(path string) (*Repository, error) {
	conn, err := New(path)
	if err != nil {
		return nil, err
	}
	return NewRepository(conn), nil
}

// Close terminates the database connection.
func (repo *Repository) Close() error {
	if err := repo.dbConn.Close(); err != nil {
		return fmt.Errorf("closing journal : %w", err)
	}
	return nil
}

// New opens the SQLite journal at name with WAL and foreign keys on and
// applies all pending migrations. The journal has a single writer, so the
// pool holds one connection.
func New(name string) (*sqlx.DB, error) {
	conn, err := sqlx.Connect("sqlite", fmt.Sprintf("%s?_journal=WAL&_timeout=5000&_fk=true", name))
	if err != nil {
		return nil, fmt.Errorf("connecting to journal : %w", err)
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys : %w", err)
	}
	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// migrate runs the embedded goose migrations. goose keeps its base FS,
// logger and dialect in package state, which is set once.
func migrate(conn *sqlx.DB) error {
	gooseOnce.Do(func() {
		goose.SetBaseFS(embedMigrations)
		goose.SetLogger(goose.NopLogger())
		gooseErr = goose.SetDialect(string(goose.DialectSQLite3))
	})
	if gooseErr != nil {
		return fmt.Errorf("setting dialect for migrations : %w", gooseErr)
	}
	if err := goose.Up(conn.DB, "migrations"); err != nil {
		return fmt.Errorf("applying migrations : %w", err)
	}
	return nil
}
