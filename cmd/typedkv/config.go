package main

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/pebble"
	"github.com/picatz/typedstorage/storage"
	"github.com/picatz/typedstorage/storage/memory"
	backendPebble "github.com/picatz/typedstorage/storage/pebble"
	"github.com/picatz/typedstorage/storage/sqlite"
)

// Supported values for --backend.
const (
	backendPebbleName = "pebble"
	backendSQLiteName = "sqlite"
	backendMemoryName = "memory"
)

// defaultDataDir is where stores live unless --path says otherwise.
//
// On Unix-like systems, it is set to ~/.typedkv, and on Windows,
// it is set to %USERPROFILE%/.typedkv.
var defaultDataDir = filepath.Join(cmp.Or(os.Getenv("HOME"), os.Getenv("USERPROFILE")), ".typedkv")

// config holds the persistent flags, whose defaults come from the environment.
type config struct {
	Backend      string
	Path         string
	LogLevel     string
	OpsPerSecond float64

	// envErr is set when an environment value could not be parsed. It is
	// reported on connect unless the matching flag overrides it.
	envErr error
}

func configFromEnv() config {
	cfg := config{
		Backend:  cmp.Or(os.Getenv("TYPEDKV_BACKEND"), backendPebbleName),
		Path:     os.Getenv("TYPEDKV_PATH"),
		LogLevel: cmp.Or(os.Getenv("TYPEDKV_LOG_LEVEL"), "warn"),
	}

	if v := os.Getenv("TYPEDKV_OPS_PER_SECOND"); v != "" {
		ops, err := strconv.ParseFloat(v, 64)
		if err != nil {
			cfg.envErr = fmt.Errorf("invalid TYPEDKV_OPS_PER_SECOND %q: %w", v, err)
		}
		cfg.OpsPerSecond = ops
	}

	return cfg
}

// opener opens the store selected by cfg, returning a function that closes it.
type opener func(cfg config, logger *slog.Logger) (storage.Store, func() error, error)

func openStore(cfg config, logger *slog.Logger) (storage.Store, func() error, error) {
	switch cfg.Backend {
	case backendPebbleName:
		dir := cmp.Or(cfg.Path, filepath.Join(defaultDataDir, "pebble"))

		b, err := backendPebble.NewBackend(dir, &pebble.Options{
			LoggerAndTracer: backendPebble.NewLogger(logger),
		})
		if err != nil {
			return nil, nil, err
		}
		return b, func() error { return b.Close(context.Background()) }, nil
	case backendSQLiteName:
		path := cmp.Or(cfg.Path, filepath.Join(defaultDataDir, "typedkv.db"))

		b, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return b, func() error { return b.Close(context.Background()) }, nil
	case backendMemoryName:
		return memory.NewBackend(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q, expected %s, %s or %s", cfg.Backend, backendPebbleName, backendSQLiteName, backendMemoryName)
	}
}
