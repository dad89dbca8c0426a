// SPDX-License-Identifier: Apache-2.0

// Package secrets resolves named secrets (database passwords, connection
// strings) from a configured vault. Resolver variants self-register the
// same way pkg/typemap's dialect mappers do, keyed by config.VaultType
// rather than dialect.Name.
package secrets

import (
	"context"
	"fmt"

	"github.com/xataio/driftplan/pkg/config"
)

// Resolver returns the plain-text secret value for a key.
type Resolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// ResolutionError wraps the first failed key lookup; secret resolution is
// fatal on first failure rather than accumulated like
// config.InvalidConfigurationError.
type ResolutionError struct {
	Key string
	Err error
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("secrets: resolving %q: %v", e.Key, e.Err)
}

func (e ResolutionError) Unwrap() error { return e.Err }

// ExitCode implements the pipeline's error-to-exit-code contract.
func (e ResolutionError) ExitCode() int { return 3 }

var factories = make(map[config.VaultType]func(config.Vault) Resolver)

// Register installs a constructor for a VaultType, called from each
// resolver's init().
func Register(t config.VaultType, factory func(config.Vault) Resolver) {
	factories[t] = factory
}

// New builds the Resolver configured by v. VaultNone returns envResolver,
// which needs no credentials.
func New(v config.Vault) (Resolver, error) {
	if v.Type == config.VaultNone {
		return envResolver{}, nil
	}
	factory, ok := factories[v.Type]
	if !ok {
		return nil, fmt.Errorf("secrets: no resolver registered for vault type %q", v.Type)
	}
	return factory(v), nil
}

// ResolveAll resolves every key in keys, failing fatally on the first error.
func ResolveAll(ctx context.Context, r Resolver, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v, err := r.Resolve(ctx, k)
		if err != nil {
			return nil, ResolutionError{Key: k, Err: err}
		}
		out[k] = v
	}
	return out, nil
}
