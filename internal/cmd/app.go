package cmd

import (
	"fmt"
	"os"

	"github.com/Iron-Ham/roadmap/internal/config"
	"github.com/Iron-Ham/roadmap/internal/exitcode"
	"github.com/Iron-Ham/roadmap/internal/issue"
	"github.com/Iron-Ham/roadmap/internal/logging"
	"github.com/Iron-Ham/roadmap/internal/objective"
	"github.com/spf13/cobra"
)

// app bundles what every command needs: configuration, the document store
// and the objective service built on it.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	store   issue.Store
	svc     *objective.Service
	refOpts issue.RefOptions
	out     *printer
}

// newStore is replaced in tests to run commands against an in-memory store.
var newStore = func(cfg *config.Config) issue.Store {
	files := issue.NewFileStore()
	if cfg.Store.UseFileStore() {
		return files
	}
	gh := issue.NewGitHubStore().
		WithCommand(cfg.Store.GHPath).
		WithRetry(cfg.Store.Attempts, issue.DefaultRetryDelay)
	return &issue.Mux{GitHub: gh, File: files}
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, exitcode.New(exitcode.Usage, fmt.Errorf("invalid configuration: %w", err))
	}

	logger := createLogger(cfg)
	store := newStore(cfg)
	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		svc:    objective.NewService(store, logger),
		refOpts: issue.RefOptions{
			DefaultRepo: cfg.Store.Repo,
			Files:       cfg.Store.UseFileStore(),
		},
		out: newPrinter(cmd, cfg),
	}, nil
}

// createLogger creates a logger from config. Logging setup failures never
// stop a command.
func createLogger(cfg *config.Config) *logging.Logger {
	rotationConfig := logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}
	logger, err := logging.NewLoggerWithRotation(cfg.Logging.Dir, logging.ParseLevel(cfg.Logging.Level), rotationConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create logger: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}

// ref parses a document reference argument.
func (a *app) ref(arg string) (issue.Ref, error) {
	return issue.ParseRef(arg, a.refOpts)
}

func (a *app) close() {
	_ = a.logger.Close()
}
