// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/serpfire/internal/config"
	"github.com/pdiddy/serpfire/internal/docs"
	"github.com/pdiddy/serpfire/internal/fanout"
	"github.com/pdiddy/serpfire/internal/registry"
	"github.com/pdiddy/serpfire/internal/scrape"
	"github.com/pdiddy/serpfire/internal/search"
	"github.com/pdiddy/serpfire/pkg/types"
)

// loadConfig decodes the configuration. With strict set, missing mandatory
// credentials are an error; otherwise they are logged.
func loadConfig(strict bool) (types.Config, error) {
	cfg, err := config.Load(viper.GetViper(), loadedSecrets)
	if err != nil {
		return types.Config{}, err
	}
	if err := config.Validate(cfg); err != nil {
		if strict {
			return types.Config{}, err
		}
		logger.Warn("incomplete credentials", zap.Error(err))
	}
	return cfg, nil
}

// newRegistry wires the gateways, the coordinator and the built-in
// operations for cfg.
func newRegistry(cfg types.Config, log *zap.Logger) (*registry.Registry, error) {
	sc := search.New(cfg.Search)
	fc := scrape.New(cfg.Scrape)
	dc := docs.New(cfg.Docs)
	if err := dc.Err(); err != nil {
		log.Warn("documentation lookup disabled", zap.Error(err))
	}

	reg := registry.New(log.Named("registry"))
	err := registry.RegisterBuiltins(reg, registry.Services{
		Search:      sc,
		Scrape:      fc,
		Docs:        dc,
		Coordinator: fanout.New(sc, fc, dc, log.Named("fanout")),
		Limits:      cfg.Report,
		SearchCount: cfg.Search.DefaultCount,
	})
	if err != nil {
		return nil, fmt.Errorf("registering operations: %w", err)
	}
	return reg, nil
}
