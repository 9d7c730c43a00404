// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the serpfire CLI. serpfire serves web
// search, page scraping, documentation lookup and composite research
// operations as Model Context Protocol tools.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/serpfire/internal/config"
	"github.com/pdiddy/serpfire/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	verbose bool

	// logger writes to stderr; stdout belongs to the stdio transport.
	logger = zap.NewNop()

	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets secrets.Store

	// initErr records a failure from initConfig, which cannot return one.
	initErr error
)

// rootCmd is the base command for the serpfire CLI.
var rootCmd = &cobra.Command{
	Use:   "serpfire",
	Short: "Web search, scraping and documentation research tools over MCP",
	Long: `serpfire fans a research request out to a web search provider (Serper),
a page scraping provider (Firecrawl) and a documentation index (Context7),
tolerates partial failure, and condenses the results into one bounded report.

Run "serpfire serve" to expose the operations as MCP tools on stdio, or
"serpfire call" to invoke one operation from the shell.

Credentials come from SERPER_API_KEY, FIRECRAWL_API_KEY and CONTEXT7_API_KEY
(also read from .env), the config file, or files under .secrets/.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if initErr != nil {
			return initErr
		}

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := zcfg.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger = l.With(zap.String("version", version))

		if f := viper.ConfigFileUsed(); f != "" {
			logger.Info("using config file", zap.String("path", f))
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if names := s.Names(); len(names) > 0 {
			logger.Info("loaded secrets", zap.Strings("keys", names))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./serpfire.yaml or ~/.config/serpfire/serpfire.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func initConfig() {
	if err := config.LoadDotEnv(".env"); err != nil {
		initErr = err
		return
	}

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("serpfire")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "serpfire"))
		}
	}

	if err := config.Setup(viper.GetViper(), "serpfire/"+version); err != nil {
		initErr = err
		return
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			initErr = fmt.Errorf("reading config file: %w", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
