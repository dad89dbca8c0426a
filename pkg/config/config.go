// SPDX-License-Identifier: Apache-2.0

// Package config loads and validates the pipeline's configuration: language
// selector, database connection, secret-vault selector, tag template, and
// operation-mode flags. Config is read from YAML via sigs.k8s.io/yaml (so
// the same struct tags serve JSON and YAML); the CLI layer may override
// individual fields from flags bound through viper before Validate runs.
package config

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/xataio/driftplan/pkg/dialect"
)

// Mode is the pipeline's operation mode.
type Mode string

const (
	ModeNoop     Mode = "noop"
	ModeValidate Mode = "validate"
	ModeExecute  Mode = "execute"
)

// Database holds the connection fields for one of the five dialects, or a
// single ConnectionString in place of the individual fields.
type Database struct {
	Provider         dialect.Name `json:"provider"`
	ConnectionString string       `json:"connectionString,omitempty"`
	Server           string       `json:"server,omitempty"`
	DatabaseName     string       `json:"database,omitempty"`
	Port             int          `json:"port,omitempty"`
	Schema           string       `json:"schema,omitempty"`
	User             string       `json:"user,omitempty"`
	Password         string       `json:"password,omitempty"`

	ConnectionTimeoutSeconds int `json:"connectionTimeoutSeconds,omitempty"`
	CommandTimeoutSeconds    int `json:"commandTimeoutSeconds,omitempty"`
	RetryAttempts            int `json:"retryAttempts,omitempty"`
}

// Vault selects a secret resolver and its credentials; exactly one of the
// three credential shapes below should be set, matching whichever resolver
// VaultType names (see pkg/secrets).
type Vault struct {
	Type VaultType `json:"type,omitempty"`
	URL  string    `json:"url,omitempty"`

	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`
	TenantID     string `json:"tenantId,omitempty"`

	Region          string `json:"region,omitempty"`
	AccessKeyID     string `json:"accessKeyId,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty"`

	Token string `json:"token,omitempty"`
}

// VaultType names which secret resolver a Vault config targets.
type VaultType string

const (
	VaultNone   VaultType = ""
	VaultAzure  VaultType = "azure"
	VaultAWS    VaultType = "aws"
	VaultToken  VaultType = "token"
)

// Config is the full pipeline configuration.
type Config struct {
	Language       string `json:"language"`
	TrackAttribute string `json:"trackAttribute"`

	Database Database `json:"database"`
	Vault    Vault    `json:"vault,omitempty"`

	TagTemplate string `json:"tagTemplate,omitempty"`

	Mode                    Mode  `json:"mode"`
	SkipBackup              bool  `json:"skipBackup,omitempty"`
	Enable29PhaseDeployment bool  `json:"enable29PhaseDeployment"`
	SkipWarningPhases       bool  `json:"skipWarningPhases,omitempty"`
	CustomPhaseOrder        []int `json:"customPhaseOrder,omitempty"`
	IgnoreExportAttribute   bool  `json:"ignoreExportAttribute,omitempty"`

	Environment string            `json:"environment,omitempty"`
	Vertical    string             `json:"vertical,omitempty"`
	TagOverrides map[string]string `json:"tagOverrides,omitempty"`
}

// Load reads and parses a YAML (or JSON, a YAML subset) config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.TagTemplate == "" {
		cfg.TagTemplate = "{branch}/{repo}/schema/{version}"
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeValidate
	}
	if cfg.Database.ConnectionTimeoutSeconds == 0 {
		cfg.Database.ConnectionTimeoutSeconds = 30
	}
	if cfg.Database.CommandTimeoutSeconds == 0 {
		cfg.Database.CommandTimeoutSeconds = 300
	}
	if cfg.Database.RetryAttempts == 0 {
		cfg.Database.RetryAttempts = 3
	}
}
