package main

import (
	"strings"
	"sync"

	"log/slog"

	"librarian/internal/config"
	"librarian/internal/logging"
	"librarian/internal/makemkv"
	"librarian/internal/metadata/omdb"
	"librarian/internal/naming"
	"librarian/internal/resolve"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		level = strings.TrimSpace(*c.logLevelFlag)
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Path:   cfg.LogPath(),
	})
}

// newResolver wires the title resolver, with the external lookup
// attached only when an API key is configured.
func (c *commandContext) newResolver(cfg *config.Config, logger *slog.Logger, interactive bool) (*resolve.Resolver, error) {
	var meta resolve.Metadata
	if key := strings.TrimSpace(cfg.OMDb.APIKey); key != "" {
		client, err := omdb.New(key, omdb.WithBaseURL(cfg.OMDb.BaseURL))
		if err != nil {
			return nil, err
		}
		meta = omdb.NewResolver(client,
			omdb.WithThreshold(cfg.OMDb.Threshold),
			omdb.WithLogger(logger))
	}
	return resolve.New(meta,
		resolve.WithThreshold(cfg.OMDb.Threshold),
		resolve.WithChooseOptions(naming.ChooseOptions{Interactive: interactive}),
		resolve.WithLogger(logger)), nil
}

func (c *commandContext) newDiscClient(cfg *config.Config) (*makemkv.Client, error) {
	return makemkv.New(cfg.MakeMKV.Binary, cfg.MakeMKV.InfoTimeout,
		makemkv.WithMinTitleSeconds(cfg.MakeMKV.MinTitleSeconds))
}
