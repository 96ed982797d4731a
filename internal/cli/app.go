package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/taskcore/internal/config"
	"github.com/roach88/taskcore/internal/coordinator"
	"github.com/roach88/taskcore/internal/store"
)

// session is the per-invocation wiring of config, logger, store and coordinator.
type session struct {
	cfg    config.Config
	logger *slog.Logger
	store  *store.Store
	coord  *coordinator.Coordinator
	out    *OutputFormatter
}

// loadConfig resolves configuration with precedence flag > env > file > default.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, nil
}

// newLogger builds the stderr text logger. --verbose forces debug.
func newLogger(cmd *cobra.Command, opts *RootOptions, cfg config.Config) *slog.Logger {
	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// newFormatter creates the output formatter for cmd.
func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openSession opens the store and starts a coordinator. Callers must Close it.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	logger := newLogger(cmd, opts, cfg)
	out := newFormatter(cmd, opts)
	out.VerboseLog("Opening database: %s", cfg.Database)

	st, err := store.Open(cfg.Database, store.WithLogger(logger))
	if err != nil {
		return nil, WrapExitError(ExitFailure, fmt.Sprintf("failed to open database %s", cfg.Database), err)
	}

	coord := coordinator.New(st,
		coordinator.WithHighlightWindow(time.Duration(cfg.HighlightWindow)),
		coordinator.WithLogger(logger),
	)

	return &session{
		cfg:    cfg,
		logger: logger,
		store:  st,
		coord:  coord,
		out:    out,
	}, nil
}

// Close drains pending commands, then closes the coordinator and store.
func (s *session) Close() error {
	s.coord.Wait()
	s.coord.Close()
	return s.store.Close()
}
