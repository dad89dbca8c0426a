// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/xataio/driftplan/cmd/flags"
	"github.com/xataio/driftplan/pkg/pipeline"
	"github.com/xataio/driftplan/pkg/plan"
)

var planFormat string

// planCmd runs the full pipeline and renders the deployment plan in the
// requested format. It never executes the generated SQL: this build's
// pipeline only ever reads from the target database (for introspection), so
// applying the plan is left to whatever deployment tool consumes its output.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a phased deployment plan and its SQL script",
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

		switch planFormat {
		case "sql":
			fmt.Println(result.CompiledSQL)
		case "json":
			out, err := json.MarshalIndent(result.Plan, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		case "yaml":
			out, err := yaml.Marshal(result.Plan)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
		case "table":
			renderPlanTable(result.Plan)
		case "rollback":
			for i := len(result.Plan.Phases) - 1; i >= 0; i-- {
				fmt.Print(result.Plan.Phases[i].RollbackScript())
			}
		default:
			return fmt.Errorf("plan: unknown --format %q, want one of json|yaml|sql|rollback|table", planFormat)
		}

		for _, w := range result.Warnings {
			pterm.Warning.Println(w)
		}
		return nil
	},
}

func renderPlanTable(p plan.DeploymentPlan) {
	table := pterm.TableData{{"Phase", "Operation", "Risk"}}
	for _, phase := range p.Phases {
		for _, op := range phase.Operations {
			table = append(table, []string{
				fmt.Sprintf("%d: %s", phase.Number, phase.Name),
				op.Change.Description,
				op.Change.RiskLevel.String(),
			})
		}
	}
	pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}

func init() {
	planCmd.Flags().StringVar(&planFormat, "format", "table", "Output format: json|yaml|sql|rollback|table")
	planCmd.Flags().Bool("dry-run", true, "Only compute and print the plan; this build never applies it")
}
