// SPDX-License-Identifier: Apache-2.0

package secrets

import (
	"context"
	"fmt"

	"github.com/xataio/driftplan/pkg/config"
)

func init() {
	Register(config.VaultAzure, func(v config.Vault) Resolver { return &azureResolver{cfg: v} })
	Register(config.VaultAWS, func(v config.Vault) Resolver { return &awsResolver{cfg: v} })
	Register(config.VaultToken, func(v config.Vault) Resolver { return &tokenResolver{cfg: v} })
}

// azureResolver is a stub: it does no credential check of its own
// (config.Validate checks the configured client credentials) and reports
// for every key that real Key Vault access is not wired up, rather than
// silently returning a fabricated secret.
type azureResolver struct{ cfg config.Vault }

func (r *azureResolver) Resolve(_ context.Context, key string) (string, error) {
	return "", fmt.Errorf("secrets: azure vault %q: key %q requires an Azure Key Vault client, not configured in this build", r.cfg.URL, key)
}

// awsResolver is a stub for AWS Secrets Manager, same shape as azureResolver.
type awsResolver struct{ cfg config.Vault }

func (r *awsResolver) Resolve(_ context.Context, key string) (string, error) {
	return "", fmt.Errorf("secrets: aws vault region %q: key %q requires a Secrets Manager client, not configured in this build", r.cfg.Region, key)
}

// tokenResolver treats the configured token as a bearer credential for a
// generic HTTP secret-vault API; it resolves every key to the same token
// since the token itself is the only secret configured.
type tokenResolver struct{ cfg config.Vault }

func (r *tokenResolver) Resolve(_ context.Context, key string) (string, error) {
	if r.cfg.Token == "" {
		return "", fmt.Errorf("secrets: token vault has no token configured, cannot resolve %q", key)
	}
	return r.cfg.Token, nil
}
