// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/driftplan/cmd/flags"
	"github.com/xataio/driftplan/pkg/entity"
	"github.com/xataio/driftplan/pkg/synth"
)

// validateCmd performs static validation only: it never opens a database
// connection, so it can run in CI before a target database is reachable.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate discovered entities and the target schema they synthesize, without a database connection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		raw, err := fileDiscoverer.Discover(ctx, flags.SourcePaths(), cfg.TrackAttribute)
		if err != nil {
			return err
		}

		var problems []string
		for _, e := range entity.Validate(raw) {
			problems = append(problems, e.Error())
		}

		normalized := entity.Normalize(raw)
		result, err := synth.Synthesize(normalized, synth.Options{
			Dialect:               cfg.Database.Provider,
			GenerateFKIndexes:     true,
			IgnoreExportAttribute: cfg.IgnoreExportAttribute,
		})
		if err != nil {
			return err
		}
		for _, e := range result.Errors {
			problems = append(problems, e.Error())
		}

		if len(problems) > 0 {
			for _, p := range problems {
				pterm.Error.Println(p)
			}
			return fmt.Errorf("validate: %d problem(s) found", len(problems))
		}

		for _, w := range result.Warnings {
			pterm.Warning.Println(w)
		}
		pterm.Success.Printfln("%d entities synthesize to %d table(s) with no validation errors", len(normalized), len(result.Schema.Tables))
		return nil
	},
}
