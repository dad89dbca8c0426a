// SPDX-License-Identifier: Apache-2.0

// Package db opens a connection to one of the five supported dialects and
// wraps it with a retry policy: connection attempts and individual
// statements that fail on a dialect-specific lock-timeout error are retried
// up to Database.RetryAttempts times, waiting on an exponential backoff with
// jitter between tries.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudflare/backoff"
	"github.com/go-sql-driver/mysql"
	"github.com/godror/godror"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/xataio/driftplan/internal/connstr"
	"github.com/xataio/driftplan/pkg/config"
	"github.com/xataio/driftplan/pkg/dialect"
)

// ConnectionError reports that a connection could not be established after
// exhausting the configured retry attempts.
type ConnectionError struct {
	Dialect  dialect.Name
	Attempts int
	Err      error
}

func (e ConnectionError) Error() string {
	return fmt.Sprintf("db: connecting to %s failed after %d attempt(s): %v", e.Dialect, e.Attempts, e.Err)
}

func (e ConnectionError) Unwrap() error { return e.Err }

// ExitCode implements the pipeline's error-to-exit-code contract.
func (e ConnectionError) ExitCode() int { return 4 }

// driverName maps a dialect to the database/sql driver name registered by
// its imported package.
func driverName(d dialect.Name) (string, error) {
	switch d {
	case dialect.Postgres:
		return "postgres", nil
	case dialect.MySQL:
		return "mysql", nil
	case dialect.SQLServer:
		return "sqlserver", nil
	case dialect.Oracle:
		return "godror", nil
	case dialect.SQLite:
		return "sqlite", nil
	default:
		return "", dialect.UnsupportedDialectError{Dialect: d}
	}
}

// DB is the retry-wrapped handle every pipeline stage that touches the
// database depends on, so tests can substitute FakeDB.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	WithRetryableTransaction(ctx context.Context, f func(context.Context, *sql.Tx) error) error
	Close() error
}

// RDB wraps a *sql.DB for one dialect, retrying statements that fail on a
// transient lock-timeout error up to cfg.RetryAttempts, waiting on an
// exponential backoff between tries.
type RDB struct {
	DB      *sql.DB
	Dialect dialect.Name
	cfg     config.Database
}

const (
	maxBackoffDuration = 1 * time.Minute
	backoffInterval    = 200 * time.Millisecond
)

// Open establishes a connection for cfg.Provider, retrying the initial ping
// up to cfg.RetryAttempts times with backoff and respecting
// cfg.ConnectionTimeoutSeconds per attempt. It returns ConnectionError once
// retries are exhausted.
func Open(ctx context.Context, cfg config.Database) (*RDB, error) {
	driver, err := driverName(cfg.Provider)
	if err != nil {
		return nil, err
	}

	dsn := cfg.ConnectionString
	if dsn == "" {
		dsn = buildDSN(cfg)
	} else if cfg.Provider == dialect.Postgres && cfg.Schema != "" {
		withSearchPath, err := connstr.AppendSearchPathOption(dsn, cfg.Schema)
		if err != nil {
			return nil, ConnectionError{Dialect: cfg.Provider, Attempts: 0, Err: err}
		}
		dsn = withSearchPath
	}

	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	timeout := time.Duration(cfg.ConnectionTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, ConnectionError{Dialect: cfg.Provider, Attempts: 0, Err: err}
	}

	b := backoff.New(maxBackoffDuration, backoffInterval)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		lastErr = conn.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return &RDB{DB: conn, Dialect: cfg.Provider, cfg: cfg}, nil
		}
		if attempt < attempts {
			if err := sleepCtx(ctx, b.Duration()); err != nil {
				return nil, err
			}
		}
	}
	conn.Close()
	return nil, ConnectionError{Dialect: cfg.Provider, Attempts: attempts, Err: lastErr}
}

func buildDSN(cfg config.Database) string {
	switch cfg.Provider {
	case dialect.Postgres:
		dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
			cfg.Server, portOr(cfg.Port, 5432), cfg.DatabaseName, cfg.User, cfg.Password)
		if cfg.Schema != "" {
			dsn += fmt.Sprintf(" options='-c search_path=%s'", cfg.Schema)
		}
		return dsn
	case dialect.MySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", cfg.User, cfg.Password, cfg.Server, portOr(cfg.Port, 3306), cfg.DatabaseName)
	case dialect.SQLServer:
		return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s", cfg.User, cfg.Password, cfg.Server, portOr(cfg.Port, 1433), cfg.DatabaseName)
	case dialect.Oracle:
		return fmt.Sprintf(`user="%s" password="%s" connectString="%s:%d/%s"`, cfg.User, cfg.Password, cfg.Server, portOr(cfg.Port, 1521), cfg.DatabaseName)
	case dialect.SQLite:
		return cfg.DatabaseName
	default:
		return ""
	}
}

func portOr(port, fallback int) int {
	if port == 0 {
		return fallback
	}
	return port
}

// commandTimeout applies cfg.CommandTimeoutSeconds (default 300s) to ctx.
func (db *RDB) commandTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	d := time.Duration(db.cfg.CommandTimeoutSeconds) * time.Second
	if d <= 0 {
		d = 300 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (db *RDB) retryAttempts() int {
	if db.cfg.RetryAttempts <= 0 {
		return 1
	}
	return db.cfg.RetryAttempts
}

// ExecContext retries query on a transient lock-timeout error, up to the
// configured retry attempts.
func (db *RDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	attempts := db.retryAttempts()
	b := backoff.New(maxBackoffDuration, backoffInterval)
	for attempt := 1; ; attempt++ {
		cctx, cancel := db.commandTimeout(ctx)
		res, err := db.DB.ExecContext(cctx, query, args...)
		cancel()
		if err == nil || !isTransient(db.Dialect, err) || attempt >= attempts {
			return res, err
		}
		if err := sleepCtx(ctx, b.Duration()); err != nil {
			return nil, err
		}
	}
}

// QueryContext retries query on a transient lock-timeout error, up to the
// configured retry attempts.
func (db *RDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	attempts := db.retryAttempts()
	b := backoff.New(maxBackoffDuration, backoffInterval)
	for attempt := 1; ; attempt++ {
		cctx, cancel := db.commandTimeout(ctx)
		rows, err := db.DB.QueryContext(cctx, query, args...)
		cancel()
		if err == nil || !isTransient(db.Dialect, err) || attempt >= attempts {
			return rows, err
		}
		if err := sleepCtx(ctx, b.Duration()); err != nil {
			return nil, err
		}
	}
}

// WithRetryableTransaction runs f in a transaction, retrying the whole
// transaction on a transient lock-timeout error.
func (db *RDB) WithRetryableTransaction(ctx context.Context, f func(context.Context, *sql.Tx) error) error {
	attempts := db.retryAttempts()
	b := backoff.New(maxBackoffDuration, backoffInterval)
	for attempt := 1; ; attempt++ {
		cctx, cancel := db.commandTimeout(ctx)
		tx, err := db.DB.BeginTx(cctx, nil)
		if err != nil {
			cancel()
			return err
		}

		err = f(cctx, tx)
		if err == nil {
			cancel()
			return tx.Commit()
		}

		if rbErr := tx.Rollback(); rbErr != nil {
			cancel()
			return rbErr
		}
		cancel()

		if !isTransient(db.Dialect, err) || attempt >= attempts {
			return err
		}
		if err := sleepCtx(ctx, b.Duration()); err != nil {
			return err
		}
	}
}

func (db *RDB) Close() error {
	return db.DB.Close()
}

// isTransient reports whether err is the dialect's lock-wait-timeout error,
// the one class of failure worth retrying rather than surfacing immediately.
func isTransient(d dialect.Name, err error) bool {
	switch d {
	case dialect.Postgres:
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == "55P03"
	case dialect.MySQL:
		var myErr *mysql.MySQLError
		return errors.As(err, &myErr) && myErr.Number == 1205
	case dialect.SQLServer:
		var msErr mssql.Error
		return errors.As(err, &msErr) && msErr.Number == 1222
	case dialect.Oracle:
		var oraErr *godror.OraErr
		return errors.As(err, &oraErr) && oraErr.Code() == 30006
	case dialect.SQLite:
		return err != nil && (strings.Contains(err.Error(), "database is locked") || strings.Contains(err.Error(), "SQLITE_BUSY"))
	default:
		return false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ScanFirstValue scans the sole value of a single-row, single-column result.
func ScanFirstValue[T any](rows *sql.Rows, dest *T) error {
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(dest); err != nil {
			return err
		}
	}
	return rows.Err()
}
