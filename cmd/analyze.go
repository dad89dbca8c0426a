// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/xataio/driftplan/cmd/flags"
	"github.com/xataio/driftplan/internal/defaults"
	"github.com/xataio/driftplan/pkg/config"
	"github.com/xataio/driftplan/pkg/db"
	"github.com/xataio/driftplan/pkg/diff"
	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/pipeline"
)

// analyzeCmd prints the risk assessment for the drift between the
// synthesized target schema and the live database, without producing a
// phased deployment plan.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Show the risk-classified schema changes between the target model and the live database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		result, err := pipeline.Run(ctx, cfg, fileDiscoverer, systemClock{}, gitInfoFromWorkingTree(ctx), flags.SourcePaths())
		if err != nil {
			return err
		}

		if len(result.Changes) == 0 {
			pterm.Success.Println("No schema drift detected")
			return nil
		}

		table := pterm.TableData{{"Risk", "Object", "Description"}}
		for _, c := range result.Changes {
			table = append(table, []string{c.RiskLevel.String(), fmt.Sprintf("%s %s", c.ObjectType, c.ObjectName), c.Description})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(table).Render(); err != nil {
			return err
		}

		pterm.Info.Printfln("%d safe, %d warning, %d risky change(s); overall: %s",
			result.Assessment.SafeCount, result.Assessment.WarningCount, result.Assessment.RiskyCount, result.Assessment.OverallRiskLevel)

		if cfg.Database.Provider == dialect.Postgres {
			annotateFastPathColumns(ctx, cfg, result.Changes)
		}

		if result.Assessment.RequiresDualApproval {
			return fmt.Errorf("analyze: at least one risky change requires dual approval before deployment")
		}
		return nil
	},
}

// annotateFastPathColumns probes the live database, for ADD COLUMN changes
// carrying a default, to report whether Postgres can apply them without
// rewriting the table — a refinement of risk.Assess's static classification
// that only a real connection can answer.
func annotateFastPathColumns(ctx context.Context, cfg *config.Config, changes []diff.SchemaChange) {
	var haveDefault []diff.SchemaChange
	for _, c := range changes {
		if c.PropString("change_type") == "add_column" && c.PropBool("has_default") {
			haveDefault = append(haveDefault, c)
		}
	}
	if len(haveDefault) == 0 {
		return
	}

	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		pterm.Warning.Printfln("skipping fast-path check: %v", err)
		return
	}
	defer conn.Close()

	for _, c := range haveDefault {
		fastPath, err := defaults.UsesFastPath(ctx, conn, c.PropString("table"), c.PropString("data_type"), c.PropString("default"))
		if err != nil {
			pterm.Warning.Printfln("fast-path check for %s.%s: %v", c.PropString("table"), c.ObjectName, err)
			continue
		}
		if !fastPath {
			pterm.Warning.Printfln("%s.%s: default %q does not qualify for the fast-path optimization and will rewrite the table",
				c.PropString("table"), c.ObjectName, c.PropString("default"))
		}
	}
}
