package main

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"organigram/internal/adapter"
	"organigram/internal/config"
	"organigram/internal/repository/sqlite"
)

type app struct {
	cfg  *config.Config
	path string
	log  *logrus.Logger
	dirs *adapter.Registry
}

// setup loads the configuration and builds the logger and the directory
// source registry shared by every command.
func setup(opts *rootOptions, logOut io.Writer) (*app, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if opts.configPath != "" {
		cfg, path, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, withCode(exitConfig, err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	log, err := cfg.Log.NewLogger(logOut)
	if err != nil {
		return nil, withCode(exitConfig, err)
	}
	if path != "" {
		log.WithField("path", path).Debug("config loaded")
	}

	dirs := adapter.NewRegistry(log)
	if err := dirs.Register("sqlite", func(_ context.Context, location string) (adapter.Directory, error) {
		repo, err := sqlite.New(location)
		if err != nil {
			return nil, err
		}
		return repo, nil
	}); err != nil {
		return nil, err
	}

	return &app{cfg: cfg, path: path, log: log, dirs: dirs}, nil
}
