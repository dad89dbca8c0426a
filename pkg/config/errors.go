// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"

	"github.com/xataio/driftplan/pkg/dialect"
)

// InvalidConfigurationError accumulates every validation violation found in
// one Config, so the caller fails once with the combined message.
type InvalidConfigurationError struct {
	Violations []string
}

func (e InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Violations, "; "))
}

// ExitCode implements the pipeline's error-to-exit-code contract.
func (e InvalidConfigurationError) ExitCode() int { return 1 }

// Validate accumulates every configuration violation and returns a single
// InvalidConfigurationError, or nil if cfg is valid.
func Validate(cfg *Config) error {
	var violations []string

	if cfg.Language == "" {
		violations = append(violations, "language is required")
	}
	if !cfg.Database.Provider.Valid() {
		violations = append(violations, fmt.Sprintf("database.provider %q is not one of sqlserver|postgresql|mysql|oracle|sqlite", cfg.Database.Provider))
	}
	hasLocation := cfg.Database.ConnectionString != "" || cfg.Database.Server != "" ||
		(cfg.Database.Provider == dialect.SQLite && cfg.Database.DatabaseName != "")
	if !hasLocation {
		violations = append(violations, "database.connectionString or database.server is required (database.database for sqlite)")
	}
	switch cfg.Mode {
	case ModeNoop, ModeValidate, ModeExecute:
	default:
		violations = append(violations, fmt.Sprintf("mode %q is not one of noop|validate|execute", cfg.Mode))
	}
	if cfg.Vault.Type != VaultNone {
		if err := validateVault(cfg.Vault); err != "" {
			violations = append(violations, err)
		}
	}

	if len(violations) > 0 {
		return InvalidConfigurationError{Violations: violations}
	}
	return nil
}

func validateVault(v Vault) string {
	switch v.Type {
	case VaultAzure:
		if v.ClientID == "" || v.ClientSecret == "" || v.TenantID == "" {
			return "vault.type=azure requires clientId, clientSecret and tenantId"
		}
	case VaultAWS:
		if v.Region == "" || v.AccessKeyID == "" || v.SecretAccessKey == "" {
			return "vault.type=aws requires region, accessKeyId and secretAccessKey"
		}
	case VaultToken:
		if v.Token == "" {
			return "vault.type=token requires token"
		}
	default:
		return fmt.Sprintf("vault.type %q is not one of azure|aws|token", v.Type)
	}
	return ""
}
