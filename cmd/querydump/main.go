package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/querydump/internal/application"
	"github.com/JonMunkholm/querydump/internal/config"
	"github.com/JonMunkholm/querydump/internal/core"
	"github.com/JonMunkholm/querydump/internal/logging"
	"github.com/JonMunkholm/querydump/internal/source/pgsource"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "querydump: %v\n", err)
		return application.ExitFailure
	}

	// stdout carries the result rows, so logs go to stderr.
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	normalizer, err := core.NewTextNormalizer(cfg.Source.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "querydump: %s\n", core.Diagnostic(err))
		return application.ExitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &application.App{
		Opener: pgsource.NewOpener(pgsource.Options{
			ConnectTimeout:  cfg.Source.ConnectTimeout,
			ApplicationName: cfg.Source.ApplicationName,
		}),
		Descriptor: pgsource.Descriptor,
		Normalizer: normalizer,
		Timeout:    cfg.Session.Timeout,
		Logger:     logger,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
	return app.Run(ctx, os.Args[1:])
}
