// SPDX-License-Identifier: Apache-2.0

package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// defaultPostgresVersion is used when POSTGRES_VERSION is not set.
const defaultPostgresVersion = "15.3"

// tConnStr holds the connection string to the container created by
// SharedPostgresTestMain.
var tConnStr string

// SharedPostgresTestMain starts one Postgres container for all tests in a
// package; each test then opens its own database in the container via
// WithPostgresConnection so tests can run in parallel without clobbering
// each other's schema.
func SharedPostgresTestMain(m *testing.M) {
	ctx := context.Background()

	waitForLogs := wait.
		ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(5 * time.Second)

	pgVersion := os.Getenv("POSTGRES_VERSION")
	if pgVersion == "" {
		pgVersion = defaultPostgresVersion
	}

	ctr, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:"+pgVersion),
		testcontainers.WithWaitStrategy(waitForLogs),
	)
	if err != nil {
		os.Exit(1)
	}

	tConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		log.Printf("failed to terminate postgres test container: %v", err)
	}

	os.Exit(exitCode)
}

// WithPostgresConnection opens a fresh database in the shared test
// container and hands the caller a connection to it plus its connection
// string, so tests touching pkg/db, pkg/introspect/postgres or
// internal/defaults can run against a real server.
func WithPostgresConnection(t *testing.T, fn func(conn *sql.DB, connStr string)) {
	t.Helper()
	conn, connStr, _ := setupTestDatabase(t)
	fn(conn, connStr)
}

func setupTestDatabase(t *testing.T) (*sql.DB, string, string) {
	t.Helper()
	ctx := context.Background()

	tDB, err := sql.Open("postgres", tConnStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := tDB.Close(); err != nil {
			t.Fatalf("failed to close admin connection: %v", err)
		}
	})

	dbName := randomDBName()
	if _, err := tDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName))); err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(tConnStr)
	if err != nil {
		t.Fatal(err)
	}
	u.Path = "/" + dbName
	connStr := u.String()

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Fatalf("failed to close test connection: %v", err)
		}
	})

	return conn, connStr, dbName
}
