package application

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/JonMunkholm/querydump/internal/core"
	"github.com/JonMunkholm/querydump/internal/source/memsource"
)

func newApp(src *memsource.Source) (*App, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &App{
		Opener: src,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func TestRun_Success(t *testing.T) {
	src := memsource.New().Register("SELECT id, name FROM people", memsource.Result{
		Columns: []string{"ID", "NAME"},
		Rows: [][]any{
			{int32(1), "Alice"},
			{int32(2), "Bob"},
		},
	})
	app, stdout, stderr := newApp(src)

	code := app.Run(context.Background(), []string{"people.db", "SELECT id, name FROM people"})
	if code != ExitOK {
		t.Fatalf("Run() = %d, want %d (stderr: %s)", code, ExitOK, stderr)
	}

	want := "ID|NAME|\nint: 1|string: Alice|\nint: 2|string: Bob|\n"
	if got := stdout.String(); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want empty", stderr)
	}
}

func TestRun_ConnectionFailure(t *testing.T) {
	src := memsource.New().SetFaults(memsource.Faults{
		Open: &core.ProviderError{Code: "0x80004005", Description: "Invalid path"},
	})
	app, stdout, stderr := newApp(src)

	code := app.Run(context.Background(), []string{"missing.db", "SELECT 1"})
	if code != ExitFailure {
		t.Fatalf("Run() = %d, want %d", code, ExitFailure)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want no output", stdout)
	}

	diag := stderr.String()
	if strings.Count(diag, "\n") != 1 {
		t.Errorf("want a single diagnostic line, got %q", diag)
	}
	for _, part := range []string{"0x80004005", "Invalid path"} {
		if !strings.Contains(diag, part) {
			t.Errorf("diagnostic %q missing %q", diag, part)
		}
	}
}

func TestRun_QueryFailureClosesConnection(t *testing.T) {
	src := memsource.New().SetFaults(memsource.Faults{
		Execute: &core.ProviderError{Code: "42601", Description: "syntax error at or near \"SELEC\""},
	})
	app, _, stderr := newApp(src)

	if code := app.Run(context.Background(), []string{"db", "SELEC 1"}); code != ExitFailure {
		t.Fatalf("Run() = %d, want %d", code, ExitFailure)
	}
	if !strings.Contains(stderr.String(), "query error") {
		t.Errorf("diagnostic %q should name the query error", stderr)
	}
	if got := src.Stats().ConnCloses; got != 1 {
		t.Errorf("connection closed %d times, want 1", got)
	}
}

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"target only", []string{"db"}},
		{"too many", []string{"db", "SELECT 1", "extra"}},
		{"empty query", []string{"db", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, stdout, stderr := newApp(memsource.New())

			if code := app.Run(context.Background(), tt.args); code != ExitUsage {
				t.Errorf("Run() = %d, want %d", code, ExitUsage)
			}
			if stdout.Len() != 0 {
				t.Errorf("stdout = %q, want empty", stdout)
			}
			if !strings.HasPrefix(stderr.String(), "Usage:") {
				t.Errorf("stderr = %q, want usage line", stderr)
			}
		})
	}
}

func TestRun_DescriptorApplied(t *testing.T) {
	src := memsource.New().Register("SELECT 1", memsource.Result{Columns: []string{"one"}})
	app, stdout, _ := newApp(src)

	var seen string
	app.Descriptor = func(target string) string {
		seen = target
		return "dbname=" + target
	}

	if code := app.Run(context.Background(), []string{"sales", "SELECT 1"}); code != ExitOK {
		t.Fatalf("Run() = %d, want %d", code, ExitOK)
	}
	if seen != "sales" {
		t.Errorf("Descriptor called with %q, want %q", seen, "sales")
	}
	if got := stdout.String(); got != "one|\n" {
		t.Errorf("stdout = %q, want header only", got)
	}
}

func TestRun_Cancelled(t *testing.T) {
	src := memsource.New().Register("SELECT 1", memsource.Result{Columns: []string{"one"}})
	app, _, stderr := newApp(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if code := app.Run(ctx, []string{"db", "SELECT 1"}); code != ExitFailure {
		t.Fatalf("Run() = %d, want %d", code, ExitFailure)
	}
	if !strings.Contains(stderr.String(), "context canceled") {
		t.Errorf("diagnostic %q should mention cancellation", stderr)
	}
}
