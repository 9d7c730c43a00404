// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config assembles the runtime configuration from, in order of
// precedence: SERPFIRE_* environment variables, the conventional provider
// variables (SERPER_API_KEY and friends, optionally from a .env file), the
// config file, the .secrets/ directory, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/serpfire/internal/search"
	"github.com/pdiddy/serpfire/internal/secrets"
	"github.com/pdiddy/serpfire/pkg/types"
)

// EnvPrefix prefixes every environment variable viper reads automatically.
const EnvPrefix = "SERPFIRE"

// ErrMissingCredential is wrapped by Validate for each absent mandatory key.
var ErrMissingCredential = errors.New("missing credential")

// credential ties a config key to its conventional environment variable and
// its .secrets/ file.
type credential struct {
	key    string
	env    string
	secret string
}

// gateways are the config sections that may override the shared http
// settings.
var gateways = []string{"search", "scrape", "docs"}

// httpKeys are the per-request settings shared by every gateway.
var httpKeys = []string{"timeout", "user_agent", "max_retries"}

var credentials = []credential{
	{"search.api_key", "SERPER_API_KEY", secrets.SerperKey},
	{"scrape.api_key", "FIRECRAWL_API_KEY", secrets.FirecrawlKey},
	{"docs.api_key", "CONTEXT7_API_KEY", secrets.Context7Key},
}

// LoadDotEnv loads KEY=value pairs from each existing file into the process
// environment. Variables already set are left alone and missing files are
// skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Setup registers defaults and environment bindings on v. userAgent is the
// default User-Agent for upstream requests.
func Setup(v *viper.Viper, userAgent string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.timeout", "0s")
	v.SetDefault("http.user_agent", userAgent)
	v.SetDefault("http.max_retries", 0)

	v.SetDefault("search.endpoint", "")
	v.SetDefault("search.default_count", search.DefaultCount)
	v.SetDefault("scrape.base_url", "")
	v.SetDefault("docs.base_url", "")

	limits := types.DefaultReportLimits()
	v.SetDefault("report.research_source_chars", limits.ResearchSourceChars)
	v.SetDefault("report.comprehensive_source_chars", limits.ComprehensiveSourceChars)
	v.SetDefault("report.doc_detail_chars", limits.DocDetailChars)

	// Per-gateway overrides get no defaults so that IsSet can tell them
	// from "inherit"; binding makes SERPFIRE_SEARCH_TIMEOUT and friends
	// visible to Unmarshal.
	for _, g := range gateways {
		for _, k := range httpKeys {
			if err := v.BindEnv(g + "." + k); err != nil {
				return fmt.Errorf("binding %s.%s: %w", g, k, err)
			}
		}
	}

	for _, c := range credentials {
		v.SetDefault(c.key, "")
		if err := v.BindEnv(c.key, c.env); err != nil {
			return fmt.Errorf("binding %s: %w", c.env, err)
		}
	}
	return nil
}

// Load decodes v into a Config. Credentials missing from v are taken from
// store. Gateway HTTP settings not set explicitly (config file or
// SERPFIRE_<GATEWAY>_<KEY>) inherit the shared http section, so an explicit
// zero such as search.max_retries: 0 is kept.
func Load(v *viper.Viper, store secrets.Store) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}

	var shared types.HTTPConfig
	if err := v.UnmarshalKey("http", &shared); err != nil {
		return types.Config{}, fmt.Errorf("decoding http config: %w", err)
	}
	inherit(v, "search", &cfg.Search.HTTPConfig, shared)
	inherit(v, "scrape", &cfg.Scrape.HTTPConfig, shared)
	inherit(v, "docs", &cfg.Docs.HTTPConfig, shared)

	cfg.Search.APIKey = store.Or(secrets.SerperKey, strings.TrimSpace(cfg.Search.APIKey))
	cfg.Scrape.APIKey = store.Or(secrets.FirecrawlKey, strings.TrimSpace(cfg.Scrape.APIKey))
	cfg.Docs.APIKey = store.Or(secrets.Context7Key, strings.TrimSpace(cfg.Docs.APIKey))

	if cfg.Search.DefaultCount < 1 {
		cfg.Search.DefaultCount = search.DefaultCount
	}
	cfg.Report = cfg.Report.WithDefaults()
	return cfg, nil
}

func inherit(v *viper.Viper, section string, dst *types.HTTPConfig, shared types.HTTPConfig) {
	if !v.IsSet(section + ".timeout") {
		dst.Timeout = shared.Timeout
	}
	if !v.IsSet(section + ".user_agent") {
		dst.UserAgent = shared.UserAgent
	}
	if !v.IsSet(section + ".max_retries") {
		dst.MaxRetries = shared.MaxRetries
	}
}

// Validate reports every missing mandatory credential. The documentation
// key is optional.
func Validate(cfg types.Config) error {
	var errs []error
	if cfg.Search.APIKey == "" {
		errs = append(errs, fmt.Errorf("%w: set SERPER_API_KEY or .secrets/%s", ErrMissingCredential, secrets.SerperKey))
	}
	if cfg.Scrape.APIKey == "" {
		errs = append(errs, fmt.Errorf("%w: set FIRECRAWL_API_KEY or .secrets/%s", ErrMissingCredential, secrets.FirecrawlKey))
	}
	return errors.Join(errs...)
}
