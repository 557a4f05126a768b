// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the iedi-engine CLI.
// Implements: docs/ARCHITECTURE § CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/iedi-engine/internal/classify"
	"github.com/pdiddy/iedi-engine/internal/logger"
	"github.com/pdiddy/iedi-engine/internal/period"
	"github.com/pdiddy/iedi-engine/internal/secrets"
	"github.com/pdiddy/iedi-engine/internal/source"
	"github.com/pdiddy/iedi-engine/internal/store"
	"github.com/pdiddy/iedi-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the resolved configuration, filled before any command runs.
	cfg types.EngineConfig

	// log is the process logger, built from cfg.Log.
	log = logger.Nop()
)

// rootCmd is the base command for the iedi-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "iedi-engine",
	Short: "Score digital press exposure of tracked entities",
	Long: `iedi-engine computes the Digital Press Exposure Index (IEDI) of tracked
entities from news mentions. Each mention is checked for title and first
paragraph hits, outlet tier and audience reach, weighted into a signed score,
and rolled up into a ranked index per entity and period.

Mentions come from batch files or the media-monitoring API; results are
stored in a local SQLite database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("decoding configuration: %w", err)
		}

		l, err := logger.New(cfg.Log)
		if err != nil {
			return err
		}
		log = l

		s, err := secrets.Load(cfg.SecretsDir)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			log.Debug("secrets loaded", "keys", keys)
		}

		// Explicit configuration wins over secret files.
		token, project := secrets.SourceCredentials(s)
		cfg.Source.Token = firstNonEmpty(cfg.Source.Token, token)
		cfg.Source.Project = firstNonEmpty(cfg.Source.Project, project)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./iedi-engine.yaml or ~/.config/iedi-engine/iedi-engine.yaml)")
	pf.String("registry", "", "entity and outlet reference file (default: reference/registry.yaml)")
	pf.String("db", "", "results database path (default: data/iedi.db)")
	pf.String("secrets-dir", "", "directory of credential files (default: .secrets/)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-mode", "", "log format: dev (console) or prod (JSON)")

	bindFlag("registry", pf.Lookup("registry"))
	bindFlag("store.path", pf.Lookup("db"))
	bindFlag("secrets_dir", pf.Lookup("secrets-dir"))
	bindFlag("log.level", pf.Lookup("log-level"))
	bindFlag("log.mode", pf.Lookup("log-mode"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("registry", "reference/registry.yaml")
	viper.SetDefault("secrets_dir", ".secrets/")
	viper.SetDefault("store.path", store.DefaultPath)
	viper.SetDefault("log.mode", "dev")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("scoring.workers", 0)
	viper.SetDefault("ingest.taxonomy_group", classify.DefaultTaxonomyGroup)
	viper.SetDefault("ingest.allowed_sources", classify.DefaultAllowedSources)
	viper.SetDefault("ingest.timezone", period.DefaultTimezone)
	viper.SetDefault("source.base_url", "https://api.brandwatch.com")
	viper.SetDefault("source.project", "")
	viper.SetDefault("source.token", "")
	viper.SetDefault("source.page_size", source.DefaultPageSize)
	viper.SetDefault("source.max_pages", 0)
	viper.SetDefault("source.max_retries", 5)
	viper.SetDefault("source.timeout", "60s")
	viper.SetDefault("source.user_agent", "iedi-engine/"+version)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("iedi-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "iedi-engine"))
		}
	}

	viper.SetEnvPrefix("IEDI_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
