// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by collaborators that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "iedi-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourceConfig holds settings for the media-monitoring API mention source.
type SourceConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the API root (e.g. "https://api.brandwatch.com").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Project is the API project identifier. Usually loaded from secrets.
	Project string `json:"project" yaml:"project" mapstructure:"project"`

	// Token is the bearer token. Usually loaded from secrets.
	Token string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`

	// PageSize is the number of mentions requested per page (default 5000).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// MaxPages caps pagination. Zero means no cap.
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`

	// MaxRetries is the number of retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// IngestConfig holds the input-boundary settings applied when raw mentions
// are normalized.
type IngestConfig struct {
	// TaxonomyGroup selects which category details count as entity tags
	// (default "Bancos"). Empty means every category name counts.
	TaxonomyGroup string `json:"taxonomy_group" yaml:"taxonomy_group" mapstructure:"taxonomy_group"`

	// AllowedSources lists accepted contentSourceName values. Mentions
	// without a content source are always accepted.
	AllowedSources []string `json:"allowed_sources" yaml:"allowed_sources" mapstructure:"allowed_sources"`

	// Timezone is the IANA zone used for dates without an offset
	// (default "America/Sao_Paulo").
	Timezone string `json:"timezone" yaml:"timezone" mapstructure:"timezone"`
}

// ScoringConfig holds settings for the scoring pipeline.
type ScoringConfig struct {
	// Workers bounds concurrent pair scoring. Zero uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// StoreConfig holds settings for the SQLite result store.
type StoreConfig struct {
	// Path is the database file (default "data/iedi.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Mode is "dev" (console) or "prod" (JSON).
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`

	// Level is debug, info, warn or error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// EngineConfig groups all settings of the iedi-engine CLI.
type EngineConfig struct {
	RegistryPath string        `json:"registry" yaml:"registry" mapstructure:"registry"`
	SecretsDir   string        `json:"secrets_dir" yaml:"secrets_dir" mapstructure:"secrets_dir"`
	Source       SourceConfig  `json:"source" yaml:"source" mapstructure:"source"`
	Ingest       IngestConfig  `json:"ingest" yaml:"ingest" mapstructure:"ingest"`
	Scoring      ScoringConfig `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Store        StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Log          LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
