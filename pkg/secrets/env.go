// SPDX-License-Identifier: Apache-2.0

package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// envResolver reads secrets from environment variables, upper-cased with
// non-alphanumeric characters replaced by underscores. It requires no
// vault configuration and is the default when no Vault is set.
type envResolver struct{}

func (envResolver) Resolve(_ context.Context, key string) (string, error) {
	envKey := envName(key)
	v, ok := os.LookupEnv(envKey)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", envKey)
	}
	return v, nil
}

func envName(key string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(key) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
