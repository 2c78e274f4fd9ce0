package main

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/picatz/typedstorage"
	"github.com/picatz/typedstorage/storage"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

// annotationStore marks commands that need an open store.
const annotationStore = "typedkv/store"

// app is the state shared by every command: the configuration and, once
// connected, the open store.
type app struct {
	cfg     config
	open    opener
	logger  *slog.Logger
	storage *typedstorage.Storage
	closer  func() error
}

func newRootCommand(open opener) (*cobra.Command, *app) {
	a := &app{cfg: configFromEnv(), open: open}

	rootCmd := &cobra.Command{
		Use:           "typedkv",
		Short:         "Inspect and edit a key-value store of JSON values",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// help, completion and man pages don't touch the store.
			if _, ok := cmd.Annotations[annotationStore]; !ok {
				return nil
			}
			return a.connect(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfg.Backend, "backend", a.cfg.Backend, "storage backend: pebble, sqlite or memory ($TYPEDKV_BACKEND)")
	flags.StringVar(&a.cfg.Path, "path", a.cfg.Path, "store location, defaults to a path under ~/.typedkv ($TYPEDKV_PATH)")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug, info, warn or error ($TYPEDKV_LOG_LEVEL)")
	flags.Float64Var(&a.cfg.OpsPerSecond, "ops-per-second", a.cfg.OpsPerSecond, "limit store calls per second, 0 for no limit ($TYPEDKV_OPS_PER_SECOND)")

	rootCmd.AddCommand(
		a.getCommand(),
		a.setCommand(),
		a.putCommand(),
		a.mergeCommand(),
		a.rmCommand(),
		a.keysCommand(),
		a.dumpCommand(),
		a.clearCommand(),
		a.shellCommand(),
	)

	for _, cmd := range rootCmd.Commands() {
		cmd.Annotations = map[string]string{annotationStore: ""}
	}

	return rootCmd, a
}

// connect opens the configured store.
func (a *app) connect(cmd *cobra.Command) error {
	if a.cfg.envErr != nil && !cmd.Flags().Changed("ops-per-second") {
		return a.cfg.envErr
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.cfg.LogLevel, err)
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	store, closer, err := a.open(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", a.cfg.Backend, err)
	}
	a.closer = closer

	if ops := a.cfg.OpsPerSecond; ops > 0 {
		burst := int(math.Max(1, math.Ceil(ops)))
		store = storage.RateLimited(store, rate.NewLimiter(rate.Limit(ops), burst))
	}

	a.storage = typedstorage.New(store, typedstorage.WithLogger(a.logger))
	a.logger.Debug("connected", slog.String("backend", a.cfg.Backend))
	return nil
}

// disconnect closes the store, if one was opened. It is safe to call more than once.
func (a *app) disconnect() error {
	if a.closer == nil {
		return nil
	}
	closer := a.closer
	a.closer = nil
	a.storage = nil
	return closer()
}
