package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"geekhub/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUnknownDriver = errors.New("unknown database driver")
)

// Config describes the database connection.
type Config struct {
	Driver         string        `koanf:"driver"`
	URL            string        `koanf:"url"`  // postgres connection string
	Path           string        `koanf:"path"` // sqlite file, ":memory:" for an in-memory database
	MaxOpenConns   int           `koanf:"max_open_conns"`
	ConnectRetries uint          `koanf:"connect_retries"`
	RetryDelay     time.Duration `koanf:"retry_delay"`
}

// DB owns the connection pool and the repositories built on it.
type DB struct {
	conn    *sql.DB
	dialect string

	Profiles    *ProfileRepository
	Library     *LibraryRepository
	Groups      *GroupRepository
	Invitations *InvitationRepository
	Activity    *ActivityRepository
}

// NewDB opens the database, retrying the first ping, and applies pending
// migrations.
func NewDB(ctx context.Context, cfg Config) (*DB, error) {
	driverName, dsn, dialect, err := resolveDriver(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dialect == DriverSQLite {
		// one writer avoids "database is locked" and keeps :memory: on one connection
		conn.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
		conn.SetMaxIdleConns(cfg.MaxOpenConns / 4)
	}

	attempts := cfg.ConnectRetries
	if attempts == 0 {
		attempts = 5
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	log := logging.With("component", "database")
	err = retry.Do(
		func() error { return conn.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("database not ready, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(ctx, conn, dialect); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn, dialect: dialect}
	db.Profiles = &ProfileRepository{db: db}
	db.Library = &LibraryRepository{db: db}
	db.Groups = &GroupRepository{db: db}
	db.Invitations = &InvitationRepository{db: db}
	db.Activity = &ActivityRepository{db: db}
	log.Info("database ready", "driver", dialect)
	return db, nil
}

func resolveDriver(cfg Config) (driverName, dsn, dialect string, err error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "postgres", "postgresql", "pgx":
		if cfg.URL == "" {
			return "", "", "", errors.New("database url is required for postgres")
		}
		return "pgx", cfg.URL, DriverPostgres, nil
	case "", "sqlite", "sqlite3":
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return "", "", "", fmt.Errorf("create database directory: %w", err)
			}
		}
		return "sqlite3", "file:" + path + "?_foreign_keys=on&_busy_timeout=5000", DriverSQLite, nil
	}
	return "", "", "", fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
}

func migrate(ctx context.Context, conn *sql.DB, dialect string) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	gooseDialect := goose.DialectSQLite3
	if dialect == DriverPostgres {
		gooseDialect = goose.DialectPostgres
	}
	provider, err := goose.NewProvider(gooseDialect, conn, fsys)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	log := logging.With("component", "database")
	for _, r := range results {
		log.Debug("applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// Connection exposes the underlying pool.
func (db *DB) Connection() *sql.DB {
	return db.conn
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (db *DB) rebind(query string) string {
	if db.dialect != DriverPostgres {
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

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}
