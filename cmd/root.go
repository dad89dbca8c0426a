// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xataio/driftplan/cmd/flags"
)

// Version is set at build time via -ldflags.
var Version = "development"

func init() {
	viper.SetEnvPrefix("DRIFTPLAN")
	viper.AutomaticEnv()

	flags.ConfigFlags(rootCmd)
}

var rootCmd = &cobra.Command{
	Use:          "driftplan",
	Short:        "Generate and assess schema migration plans from annotated entity models",
	SilenceUsage: true,
	Version:      Version,
}

// Prepare assembles the root command and its subcommands without running
// them, for callers that need to introspect the command tree (the
// cli-definition generator under tools/).
func Prepare() *cobra.Command {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(validateCmd)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return Prepare().Execute()
}
