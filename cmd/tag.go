// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/driftplan/cmd/flags"
	"github.com/xataio/driftplan/pkg/entity"
	"github.com/xataio/driftplan/pkg/pipeline"
	"github.com/xataio/driftplan/pkg/tagtemplate"
)

var tagCheck bool

// tagCmd expands the configured tag template against the discovered entity
// model and git metadata, without touching a database.
var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Expand the tag template and print the generated tag",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if tagCheck {
			if err := tagtemplate.Validate(cfg.TagTemplate); err != nil {
				return err
			}
			pterm.Success.Println("tag template is valid")
			return nil
		}

		raw, err := fileDiscoverer.Discover(ctx, flags.SourcePaths(), cfg.TrackAttribute)
		if err != nil {
			return err
		}
		normalized := entity.Normalize(raw)

		tags, err := pipeline.BuildTags(cfg, normalized, systemClock{}, gitInfoFromWorkingTree(ctx))
		if err != nil {
			return err
		}

		fmt.Println(tags.Generated)
		pterm.Info.Printfln("docker: %s  helm: %s  k8s-label: %s  file-safe: %s  azure: %s",
			tags.DockerTag, tags.HelmChartVersion, tags.KubernetesLabel, tags.FileSafe, tags.AzureResourceName)
		return nil
	},
}

func init() {
	tagCmd.Flags().BoolVar(&tagCheck, "check", false, "Only validate the tag template; do not print the generated tag")
}
