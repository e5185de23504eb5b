package main

import (
	"context"
	"io"
	"os"

	"github.com/alexisbeaulieu97/atlcheck/internal/app/check"
	"github.com/alexisbeaulieu97/atlcheck/internal/config"
	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/cache"
	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/source"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
)

// appContext bundles the services a command needs.
type appContext struct {
	cfg     *config.Config
	logger  ports.Logger
	sources *source.Loader
	service *check.Service
}

// newAppContext loads the configuration and wires the application service.
// Diagnostics go to stderr; logger, when non-nil, replaces the one built
// from the configuration.
func newAppContext(ctx context.Context, root *rootFlags, stderr io.Writer, logger ports.Logger) (*appContext, error) {
	path := root.configPath
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.Discover(wd)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		level := cfg.Log.Level
		if root.verbose {
			level = "debug"
		}
		base, err := logging.New(logging.Options{
			Writer:        stderr,
			Level:         level,
			HumanReadable: cfg.Log.Human,
			Component:     "cli",
			Layer:         "presentation",
		})
		if err != nil {
			return nil, err
		}
		logger = base
	}
	if path != "" {
		logger.Debug(ctx, "configuration loaded", "path", path)
	}

	sources := source.NewLoader(logger)
	deps := check.Dependencies{
		Sources: sources,
		Events:  events.NewPublisher(logger),
		Logger:  logger,
	}
	if cfg.Cache.Enabled {
		verdicts, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			logger.Warn(ctx, "verdict cache unavailable", "path", cfg.Cache.Path, "error", err)
		} else {
			deps.Cache = verdicts
		}
	}

	return &appContext{
		cfg:     cfg,
		logger:  logger,
		sources: sources,
		service: check.NewService(deps),
	}, nil
}
