package pgsource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/querydump/internal/core"
	"github.com/jackc/pgx/v5/pgxpool"
)

// These tests need a reachable PostgreSQL server; set TEST_DATABASE_URL to
// run them.
func testDatabaseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return url
}

func runSession(t *testing.T, opener core.Opener, descriptor, query string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s := core.NewSession(opener, core.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	var out bytes.Buffer
	_, err := s.Run(ctx, descriptor, query, &out)
	return out.String(), err
}

func TestIntegration_Session(t *testing.T) {
	url := testDatabaseURL(t)
	opener := NewOpener(Options{ConnectTimeout: 5 * time.Second, ApplicationName: "querydump-test"})

	query := `SELECT 1::int4 AS "ID", '  Alice  '::text AS "NAME", true AS "OK",
		NULL::int8 AS "GONE", 12.5::numeric AS "AMOUNT",
		'2024-03-05 13:07:00.75'::timestamp AS "AT"
		UNION ALL
		SELECT 2, 'Bob', false, 7, 0.25, '1999-12-31 23:59:59'::timestamp`

	out, err := runSession(t, opener, url, query)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "ID|NAME|OK|GONE|AMOUNT|AT|\n" +
		"int: 1|string: Alice|bool: 1|Value: NULL|float: 12.5|date: 2024-03-05 13:07:00|\n" +
		"int: 2|string: Bob|bool: 0|int: 7|float: 0.25|date: 1999-12-31 23:59:59|\n"
	if out != want {
		t.Errorf("output =\n%s\nwant\n%s", out, want)
	}
}

func TestIntegration_QueryError(t *testing.T) {
	url := testDatabaseURL(t)

	_, err := runSession(t, NewOpener(Options{}), url, "SELECT * FROM relation_that_does_not_exist")
	var se *core.SessionError
	if !errors.As(err, &se) || se.Kind != core.KindQueryError {
		t.Fatalf("error = %v, want query error", err)
	}
	if se.Code != "42P01" {
		t.Errorf("Code = %q, want 42P01", se.Code)
	}
}

func TestIntegration_ReadOnly(t *testing.T) {
	url := testDatabaseURL(t)

	_, err := runSession(t, NewOpener(Options{}), url, "CREATE TEMP TABLE querydump_probe (id int)")
	if !errors.Is(err, core.ErrQuery) {
		t.Fatalf("error = %v, want query error", err)
	}
	if !strings.Contains(err.Error(), "read-only transaction") {
		t.Errorf("error = %v, want read-only rejection", err)
	}
}

func TestIntegration_ConnectionError(t *testing.T) {
	testDatabaseURL(t)

	_, err := runSession(t, NewOpener(Options{ConnectTimeout: time.Second}),
		"host=127.0.0.1 port=1 dbname=none", "SELECT 1")
	if !errors.Is(err, core.ErrConnection) {
		t.Fatalf("error = %v, want connection error", err)
	}
}

func TestIntegration_PoolOpener(t *testing.T) {
	url := testDatabaseURL(t)

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("pgxpool.New() error = %v", err)
	}
	defer pool.Close()

	opener := NewPoolOpener(pool, Options{})
	for i := 0; i < 3; i++ {
		out, err := runSession(t, opener, "", "SELECT 'x'::text AS v")
		if err != nil {
			t.Fatalf("run %d: error = %v", i, err)
		}
		if out != "v|\nstring: x|\n" {
			t.Errorf("run %d: output = %q", i, out)
		}
	}
	if got := pool.Stat().AcquiredConns(); got != 0 {
		t.Errorf("AcquiredConns = %d after sessions, want 0", got)
	}
}
