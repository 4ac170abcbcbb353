package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMSSQL    = "sqlserver"
)

// Config selects and tunes the relational backend.
type Config struct {
	Driver string // sqlite (default), postgres, mysql or sqlserver
	// DSN is the driver connection string. For sqlite it is the data
	// directory; empty means in-memory.
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store is the relational backing for admins, OTP records and login
// attempts. Every method is a single statement or a short sequence of
// statements; there is no cross-call transaction.
type Store struct {
	db     *sqlx.DB
	driver string
}

// NewStore opens the configured database and applies migrations.
func NewStore(cfg Config) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	var (
		db  *sqlx.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = openSQLite(cfg.DSN)
	case DriverPostgres:
		db, err = sqlx.Connect("pgx", cfg.DSN)
	case DriverMySQL:
		var dsn string
		dsn, err = normalizeMySQLDSN(cfg.DSN)
		if err == nil {
			db, err = sqlx.Connect("mysql", dsn)
		}
	case DriverMSSQL:
		db, err = sqlx.Connect("sqlserver", cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s (available: %s, %s, %s, %s)",
			driver, DriverSQLite, DriverPostgres, DriverMySQL, DriverMSSQL)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver != DriverSQLite {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s database: %w", driver, err)
	}
	return s, nil
}

func openSQLite(dataDir string) (*sqlx.DB, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_time_format=sqlite"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "masski.db") +
			"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// normalizeMySQLDSN forces the options the store relies on: DATETIME columns
// scanned into time.Time, in UTC.
func normalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// Driver returns the active driver name.
func (s *Store) Driver() string {
	return s.driver
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind converts ?-style placeholders to the driver's bindvar style.
func (s *Store) rebind(q string) string {
	return s.db.Rebind(q)
}

// in expands slice arguments of an IN (?) clause and rebinds the result.
func (s *Store) in(q string, args ...interface{}) (string, []interface{}, error) {
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return "", nil, err
	}
	return s.rebind(q), args, nil
}

// insertQuery rewrites an INSERT so that it yields the generated id as a
// row on drivers without LastInsertId support. ok is false when the driver
// reports the id through sql.Result instead.
func insertQuery(driver, q string) (string, bool) {
	switch driver {
	case DriverPostgres:
		return q + " RETURNING id", true
	case DriverMSSQL:
		return strings.Replace(q, "VALUES", "OUTPUT INSERTED.id VALUES", 1), true
	}
	return q, false
}

// insertID runs a named INSERT and returns the generated id.
func (s *Store) insertID(ctx context.Context, q string, arg interface{}) (int64, error) {
	if rq, ok := insertQuery(s.driver, q); ok {
		q, args, err := s.db.BindNamed(rq, arg)
		if err != nil {
			return 0, err
		}
		var id int64
		if err := s.db.GetContext(ctx, &id, q, args...); err != nil {
			return 0, err
		}
		return id, nil
	}

	result, err := s.db.NamedExecContext(ctx, q, arg)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// isDuplicate reports whether err is a unique constraint violation.
func isDuplicate(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "unique key constraint") ||
		strings.Contains(lower, "duplicate key") ||
		strings.Contains(lower, "duplicate entry")
}

func now() time.Time {
	return time.Now().UTC()
}
