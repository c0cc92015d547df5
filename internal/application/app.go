// Package application is the command-line front end: it checks arguments,
// runs one query session against the target and maps the outcome to an exit
// code. main only wires real collaborators into an App.
package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/JonMunkholm/querydump/internal/core"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

const usage = "Usage: querydump <target> <query>"

// App runs a single query and writes the delimited result to Stdout.
type App struct {
	Opener core.Opener

	// Descriptor turns the target argument into a connection descriptor.
	// Nil passes the target through unchanged.
	Descriptor func(target string) string

	// Normalizer decodes text from the source encoding. Nil means UTF-8.
	Normalizer *core.TextNormalizer

	// Timeout bounds the whole session; zero means no limit.
	Timeout time.Duration

	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the command described by args (without the program name) and
// returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	stdout, stderr := a.Stdout, a.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	if len(args) != 2 || args[0] == "" || args[1] == "" {
		fmt.Fprintln(stderr, usage)
		return ExitUsage
	}
	target, query := args[0], args[1]

	descriptor := target
	if a.Descriptor != nil {
		descriptor = a.Descriptor(target)
	}

	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	session := core.NewSession(a.Opener,
		core.WithNormalizer(a.Normalizer),
		core.WithLogger(a.Logger),
	)

	sum, err := session.Run(ctx, descriptor, query, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "querydump: %s\n", core.Diagnostic(err))
		return ExitFailure
	}

	a.logger().Info("query complete",
		"session_id", sum.SessionID,
		"columns", len(sum.Columns),
		"rows", sum.Rows,
		"bytes", sum.Bytes,
		"duration_ms", sum.Duration.Milliseconds(),
	)
	return ExitOK
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
