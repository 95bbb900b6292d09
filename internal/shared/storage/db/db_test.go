package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sethvargo/go-retry"
)

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		url     string
		driver  string
		dialect string
		dsn     string
	}{
		{"postgres://u:p@localhost:5432/docchat", "pgx", DialectPostgres, "postgres://u:p@localhost:5432/docchat"},
		{"postgresql://localhost/docchat", "pgx", DialectPostgres, "postgresql://localhost/docchat"},
		{"sqlite:///tmp/docchat.db", "sqlite", DialectSQLite, "file:/tmp/docchat.db?_pragma=foreign_keys(1)"},
		{"file:docchat.db?cache=shared", "sqlite", DialectSQLite, "file:docchat.db?cache=shared&_pragma=foreign_keys(1)"},
	}
	for _, tt := range tests {
		got, err := ResolveTarget(tt.url)
		if err != nil {
			t.Fatalf("ResolveTarget(%q): %v", tt.url, err)
		}
		if got.Driver != tt.driver || got.Dialect != tt.dialect || got.DSN != tt.dsn {
			t.Fatalf("ResolveTarget(%q) = %+v", tt.url, got)
		}
	}

	for _, bad := range []string{"", "mysql://localhost/db"} {
		if _, err := ResolveTarget(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestConnectPingsAndAppliesOptions(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	mock.ExpectPing()

	restore := stubOpen(func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" {
			t.Fatalf("unexpected driver %q", driver)
		}
		return mockDB, nil
	})
	defer restore()

	db, err := Connect(context.Background(), Target{Driver: "pgx", DSN: "postgres://x"}, Options{MaxOpenConns: 3})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if got := db.Stats().MaxOpenConnections; got != 3 {
		t.Fatalf("expected max open 3, got %d", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConnectWithRetryEventuallySucceeds(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	mock.ExpectPing()

	calls := 0
	restore := stubOpen(func(string, string) (*sql.DB, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	})
	defer restore()

	var waits []time.Duration
	connectBackoff = func(attempts int, delay time.Duration) retry.Backoff {
		next := constantBackoff(attempts, delay)
		return retry.BackoffFunc(func() (time.Duration, bool) {
			d, stop := next.Next()
			if !stop {
				waits = append(waits, d)
			}
			return time.Nanosecond, stop
		})
	}
	defer func() { connectBackoff = constantBackoff }()

	db, err := ConnectWithRetry(context.Background(), Target{Driver: "pgx"}, Options{}, 5, 2*time.Second)
	if err != nil {
		t.Fatalf("ConnectWithRetry: %v", err)
	}
	if db != mockDB {
		t.Fatalf("expected mock db")
	}
	if calls != 3 || len(waits) != 2 || waits[0] != 2*time.Second {
		t.Fatalf("unexpected retries: calls=%d waits=%v", calls, waits)
	}
}

func TestConnectWithRetryGivesUp(t *testing.T) {
	calls := 0
	restore := stubOpen(func(string, string) (*sql.DB, error) {
		calls++
		return nil, errors.New("connection refused")
	})
	defer restore()

	if _, err := ConnectWithRetry(context.Background(), Target{Driver: "pgx"}, Options{}, 4, time.Millisecond); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
}

func TestConnectWithRetryStopsOnCanceledContext(t *testing.T) {
	calls := 0
	restore := stubOpen(func(string, string) (*sql.DB, error) {
		calls++
		return nil, errors.New("connection refused")
	})
	defer restore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ConnectWithRetry(ctx, Target{Driver: "pgx"}, Options{}, 10, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls > 1 {
		t.Fatalf("expected no retries after cancel, got %d calls", calls)
	}
}

func TestMigrateSQLite(t *testing.T) {
	target, err := ResolveTarget("sqlite://" + filepath.Join(t.TempDir(), "docchat.db"))
	if err != nil {
		t.Fatalf("ResolveTarget: %v", err)
	}
	ctx := context.Background()
	database, err := Connect(ctx, target, DefaultMigrateOptions())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer database.Close()

	if err := RunMigrations(ctx, database, target.Dialect); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	for _, table := range []string{"users", "documents"} {
		var name string
		if err := database.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&name); err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}

	if err := Migrate(ctx, database, target.Dialect, Down); err != nil {
		t.Fatalf("Migrate down: %v", err)
	}
	var n int
	if err := database.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'documents'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected documents table dropped")
	}
}

func TestMigrateNilDatabase(t *testing.T) {
	if err := RunMigrations(context.Background(), nil, DialectPostgres); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func stubOpen(fn func(driver, dsn string) (*sql.DB, error)) func() {
	prev := openDB
	openDB = fn
	return func() { openDB = prev }
}
