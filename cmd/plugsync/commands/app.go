package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/plugsync/plugsync/pkg/config"
	"github.com/plugsync/plugsync/pkg/engine"
	"github.com/plugsync/plugsync/pkg/journal"
	"github.com/plugsync/plugsync/pkg/providers/git"
	"github.com/plugsync/plugsync/pkg/providers/shell"
	"github.com/plugsync/plugsync/pkg/state"
	"github.com/plugsync/plugsync/pkg/telemetry"
)

// app bundles the wired collaborators every command needs.
type app struct {
	cfg     *config.Config
	logger  *telemetry.Logger
	store   *state.Store
	loader  *shell.Loader
	journal *journal.Journal
	engine  *engine.Engine
}

// newApp resolves configuration and wires the engine. The journal is
// best-effort: if it cannot be opened the app runs without one.
func newApp(ctx context.Context) (*app, error) {
	path := configPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path, explicit)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	if jsonOutput {
		logCfg.Format = "json"
	}
	logger := telemetry.NewLogger(os.Stderr, logCfg)

	store := state.NewStore(cfg.StateFile, logger.Zerolog())
	fetcher := git.NewFetcher(cfg.GitBin, cfg.GitBaseURL, cfg.PluginsDir, logger)
	loader := shell.NewLoader(cfg.InitScript, logger)

	a := &app{cfg: cfg, logger: logger, store: store, loader: loader}

	if cfg.Journal.Enabled {
		j, err := journal.New(cfg.Journal.Path)
		if err == nil {
			err = j.Init(ctx)
		}
		if err == nil {
			err = j.Migrate(ctx)
		}
		if err != nil {
			logger.WithError(err).Warn("History journal unavailable; continuing without it")
		} else {
			a.journal = j
		}
	}

	opts := engine.Options{
		RCPath:       cfg.RCFile,
		Store:        store,
		Fetcher:      fetcher,
		Loader:       loader,
		Logger:       logger,
		FetchTimeout: cfg.FetchTimeout.Std(),
	}
	if a.journal != nil {
		opts.Auditor = a.journal
	}

	eng, err := engine.New(opts)
	if err != nil {
		a.close()
		return nil, err
	}
	a.engine = eng

	return a, nil
}

func (a *app) close() {
	if a.journal != nil {
		_ = a.journal.Close()
	}
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printf writes human-readable command output to stdout.
func printf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}
