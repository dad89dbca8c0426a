// SPDX-License-Identifier: Apache-2.0

// Package flags binds the CLI's persistent flags to viper, so every
// subcommand reads configuration the same way regardless of whether the
// value came from a flag, an environment variable, or the config file.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigFlags registers the flags every subcommand needs to locate and
// override the pipeline configuration.
func ConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "driftplan.yaml", "Path to the pipeline configuration file")
	cmd.PersistentFlags().StringSlice("source", nil, "Source path to discover entities from (repeatable)")
	cmd.PersistentFlags().String("connection-string", "", "Database connection string, overriding the config file")
	cmd.PersistentFlags().String("schema", "", "Database schema to introspect, overriding the config file")

	viper.BindPFlag("CONFIG", cmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("SOURCE", cmd.PersistentFlags().Lookup("source"))
	viper.BindPFlag("CONNECTION_STRING", cmd.PersistentFlags().Lookup("connection-string"))
	viper.BindPFlag("DB_SCHEMA", cmd.PersistentFlags().Lookup("schema"))
}

func ConfigPath() string {
	return viper.GetString("CONFIG")
}

func SourcePaths() []string {
	return viper.GetStringSlice("SOURCE")
}

func ConnectionStringOverride() string {
	return viper.GetString("CONNECTION_STRING")
}

func SchemaOverride() string {
	return viper.GetString("DB_SCHEMA")
}
