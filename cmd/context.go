// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/xataio/driftplan/cmd/flags"
	"github.com/xataio/driftplan/pkg/config"
	"github.com/xataio/driftplan/pkg/discovery"
	"github.com/xataio/driftplan/pkg/pipeline"

	_ "github.com/xataio/driftplan/pkg/emit/mysql"
	_ "github.com/xataio/driftplan/pkg/emit/oracle"
	_ "github.com/xataio/driftplan/pkg/emit/postgres"
	_ "github.com/xataio/driftplan/pkg/emit/sqlite"
	_ "github.com/xataio/driftplan/pkg/emit/sqlserver"

	_ "github.com/xataio/driftplan/pkg/introspect/mysql"
	_ "github.com/xataio/driftplan/pkg/introspect/oracle"
	_ "github.com/xataio/driftplan/pkg/introspect/postgres"
	_ "github.com/xataio/driftplan/pkg/introspect/sqlite"
	_ "github.com/xataio/driftplan/pkg/introspect/sqlserver"
)

// loadConfig reads the config file named by --config and layers any
// connection-string/schema overrides given on the command line on top.
func loadConfig() (*config.Config, error) {
	path := flags.ConfigPath()
	if path == "" {
		return nil, errNoConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cs := flags.ConnectionStringOverride(); cs != "" {
		cfg.Database.ConnectionString = cs
	}
	if s := flags.SchemaOverride(); s != "" {
		cfg.Database.Schema = s
	}
	return cfg, nil
}

// systemClock implements pipeline.Clock with the wall clock.
type systemClock struct{}

func (systemClock) Date() string      { return time.Now().UTC().Format("2006-01-02") }
func (systemClock) Timestamp() string { return time.Now().UTC().Format("20060102150405") }

// gitInfoFromWorkingTree shells out to the system git binary to collect the
// metadata the tag template's {branch}/{repo} tokens need. Any failure (no
// repository, git not installed) yields a zero-valued GitInfo, which
// pipeline.Run's tag stage treats as "unavailable" and falls back from.
func gitInfoFromWorkingTree(ctx context.Context) pipeline.GitInfo {
	return pipeline.GitInfo{
		Branch:         gitOutput(ctx, "rev-parse", "--abbrev-ref", "HEAD"),
		Repo:           gitRepoName(ctx),
		CommitHash:     gitOutput(ctx, "rev-parse", "--short", "HEAD"),
		CommitHashFull: gitOutput(ctx, "rev-parse", "HEAD"),
	}
}

func gitRepoName(ctx context.Context) string {
	url := gitOutput(ctx, "config", "--get", "remote.origin.url")
	if url == "" {
		return ""
	}
	url = strings.TrimSuffix(url, ".git")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		return url[i+1:]
	}
	return url
}

func gitOutput(ctx context.Context, args ...string) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "git", args...).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

var fileDiscoverer = discovery.FileDiscoverer{}
