// SPDX-License-Identifier: Apache-2.0

// Package plan is the Phase Planner: it assembles a risk-
// assessed set of diff.SchemaChange values into an ordered DeploymentPlan,
// either the fixed 29-phase sequence or a simple 3-phase one.
package plan

import (
	"fmt"
	"strings"

	"github.com/xataio/driftplan/pkg/diff"
)

// Operation is one SchemaChange placed in a phase, carrying the SQL an
// Emitter produced for it plus a best-effort rollback statement.
type Operation struct {
	Change          diff.SchemaChange
	SQLCommand      string
	RollbackCommand string
}

// DeploymentPhase is a contiguous group of operations sharing an approval
// boundary.
type DeploymentPhase struct {
	Number           int
	Name             string
	Description      string
	Operations       []Operation
	RiskLevel        diff.RiskLevel
	RequiresApproval bool
	CanRollback      bool
	Dependencies     []string
}

// RollbackScript joins this phase's operations' RollbackCommand values in
// reverse order, so applying the result undoes the phase in the opposite
// order its operations were applied.
func (p DeploymentPhase) RollbackScript() string {
	var sb strings.Builder
	for i := len(p.Operations) - 1; i >= 0; i-- {
		cmd := p.Operations[i].RollbackCommand
		if cmd == "" {
			continue
		}
		sb.WriteString(cmd)
		if !strings.HasSuffix(cmd, ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// DeploymentPlan is the final, ordered output of the Phase Planner.
type DeploymentPlan struct {
	Phases           []DeploymentPhase
	OverallRiskLevel diff.RiskLevel
	Use29Phase       bool
	Metadata         map[string]any
}

// Options configures Plan.
type Options struct {
	// Enable29PhaseDeployment selects the 29-phase algorithm; false selects
	// simple 3-phase mode.
	Enable29PhaseDeployment bool
	SkipBackup              bool
	SkipWarningPhases       bool
	// CustomPhaseOrder reorders phases by this list of phase numbers,
	// appending any phase not mentioned in its original relative order. A
	// number outside the valid range, or a duplicate, is a fatal
	// configuration error.
	CustomPhaseOrder []int
}

// phaseDef names and numbers the fixed 29-phase sequence.
// Phases 11 and 12 are reserved and always empty: see DESIGN.md's open
// question decision on this.
var phaseDefs = []struct {
	number int
	name   string
}{
	{1, "Pre-deployment validation"},
	{2, "Backup"},
	{3, "Drop views"},
	{4, "Drop procedures"},
	{5, "Drop functions"},
	{6, "Drop foreign key constraints"},
	{7, "Drop check constraints"},
	{8, "Drop unique constraints"},
	{9, "Drop non-clustered indexes"},
	{10, "Drop clustered indexes"},
	{11, "Reserved"},
	{12, "Reserved"},
	{13, "Drop columns"},
	{14, "Drop tables"},
	{15, "Create tables"},
	{16, "Add columns"},
	{17, "Alter column data type"},
	{18, "Alter column nullability"},
	{19, "Alter column default"},
	{20, "Create primary key constraints"},
	{21, "Create unique constraints"},
	{22, "Create check constraints"},
	{23, "Create clustered indexes"},
	{24, "Create unique non-clustered indexes"},
	{25, "Create non-clustered indexes"},
	{26, "Create foreign key constraints"},
	{27, "Create views"},
	{28, "Create procedures and functions"},
	{29, "Post-deployment validation"},
}

// Plan assembles changes (already risk-assessed by pkg/risk) into a
// DeploymentPlan per opts.
func Plan(changes []diff.SchemaChange, opts Options) (DeploymentPlan, error) {
	if opts.Enable29PhaseDeployment {
		return plan29(changes, opts)
	}
	return planSimple(changes, opts)
}

func plan29(changes []diff.SchemaChange, opts Options) (DeploymentPlan, error) {
	buckets := make(map[int][]diff.SchemaChange, len(phaseDefs))
	for _, c := range changes {
		n := phaseNumberFor(c)
		buckets[n] = append(buckets[n], c)
	}

	phases := make([]DeploymentPhase, 0, len(phaseDefs))
	for _, def := range phaseDefs {
		if def.number == 2 && opts.SkipBackup {
			continue
		}
		phases = append(phases, buildPhase(def.number, def.name, buckets[def.number]))
	}

	phases, err := applyCustomOrder(phases, opts.CustomPhaseOrder)
	if err != nil {
		return DeploymentPlan{}, err
	}
	if opts.SkipWarningPhases {
		phases = skipWarningPhases(phases)
	}

	return finishPlan(phases, true), nil
}

func planSimple(changes []diff.SchemaChange, opts Options) (DeploymentPlan, error) {
	var drops, rest []diff.SchemaChange
	for _, c := range changes {
		if c.Kind == diff.Drop {
			drops = append(drops, c)
		} else {
			rest = append(rest, c)
		}
	}

	phases := []DeploymentPhase{
		buildPhase(1, "Drop", drops),
		buildPhase(2, "Create and alter", rest),
		buildPhase(3, "Validation", nil),
	}

	phases, err := applyCustomOrder(phases, opts.CustomPhaseOrder)
	if err != nil {
		return DeploymentPlan{}, err
	}
	if opts.SkipWarningPhases {
		phases = skipWarningPhases(phases)
	}

	return finishPlan(phases, false), nil
}

// phaseNumberFor maps a single SchemaChange to its fixed phase number, per
// the §4.8 enumeration.
func phaseNumberFor(c diff.SchemaChange) int {
	changeType := c.PropString("change_type")

	switch {
	case c.Kind == diff.Drop && c.ObjectType == diff.ViewObject:
		return 3
	case c.Kind == diff.Drop && c.ObjectType == diff.ProcedureObject:
		return 4
	case c.Kind == diff.Drop && c.ObjectType == diff.FunctionObject:
		return 5
	case c.Kind == diff.Drop && c.ObjectType == diff.ConstraintObj:
		switch c.PropString("constraint_type") {
		case "FK":
			return 6
		case "CK":
			return 7
		default:
			return 8 // UQ, and PK (dropped alongside its table in practice)
		}
	case c.Kind == diff.Drop && c.ObjectType == diff.IndexObject:
		if c.PropBool("is_clustered") {
			return 10
		}
		return 9
	case changeType == "drop_column":
		return 13
	case c.Kind == diff.Drop && c.ObjectType == diff.TableObject:
		return 14
	case c.Kind == diff.Create && c.ObjectType == diff.TableObject:
		return 15
	case changeType == "add_column":
		return 16
	case changeType == "data_type":
		return 17
	case changeType == "nullable":
		return 18
	case changeType == "default":
		return 19
	case c.Kind == diff.Create && c.ObjectType == diff.ConstraintObj:
		switch c.PropString("constraint_type") {
		case "PK":
			return 20
		case "UQ":
			return 21
		case "CK":
			return 22
		case "FK":
			return 26
		default:
			return 21
		}
	case c.Kind == diff.Create && c.ObjectType == diff.IndexObject:
		switch {
		case c.PropBool("is_clustered"):
			return 23
		case c.PropBool("is_unique"):
			return 24
		default:
			return 25
		}
	case c.Kind == diff.Create && c.ObjectType == diff.ViewObject:
		return 27
	case c.Kind == diff.Create && (c.ObjectType == diff.ProcedureObject || c.ObjectType == diff.FunctionObject):
		return 28
	default:
		return 29
	}
}

func buildPhase(number int, name string, changes []diff.SchemaChange) DeploymentPhase {
	phase := DeploymentPhase{
		Number: number, Name: name, Description: name,
		CanRollback: true,
	}
	for _, c := range changes {
		op := Operation{Change: c, RollbackCommand: rollbackPlaceholder(c)}
		phase.Operations = append(phase.Operations, op)
		if c.RiskLevel > phase.RiskLevel {
			phase.RiskLevel = c.RiskLevel
		}
		if c.RiskLevel == diff.RiskRisky {
			phase.RequiresApproval = true
		}
		if c.Kind == diff.Drop || c.PropBool("potential_data_loss") {
			phase.CanRollback = false
		}
	}
	return phase
}

// rollbackPlaceholder produces a best-effort rollback statement: an inverse
// DROP for a CREATE, an unreconstructable marker for a DROP, and a
// manual-intervention marker for an ALTER. pkg/pipeline's compile step
// replaces the CREATE case with the real DROP statement from pkg/emit; this
// only sets the shape.
func rollbackPlaceholder(c diff.SchemaChange) string {
	switch c.Kind {
	case diff.Create:
		return fmt.Sprintf("-- rollback: DROP %s %s", c.ObjectType, c.ObjectName)
	case diff.Drop:
		return fmt.Sprintf("-- rollback: %s %s cannot be reconstructed automatically", c.ObjectType, c.ObjectName)
	default:
		return fmt.Sprintf("-- rollback: %s %s requires manual intervention", c.ObjectType, c.ObjectName)
	}
}

func skipWarningPhases(phases []DeploymentPhase) []DeploymentPhase {
	kept := make([]DeploymentPhase, 0, len(phases))
	for _, p := range phases {
		if p.RiskLevel == diff.RiskWarning && !p.RequiresApproval {
			continue
		}
		kept = append(kept, p)
	}
	for i := range kept {
		kept[i].Number = i + 1
	}
	return kept
}

func applyCustomOrder(phases []DeploymentPhase, order []int) ([]DeploymentPhase, error) {
	if len(order) == 0 {
		return phases, nil
	}

	byNumber := make(map[int]DeploymentPhase, len(phases))
	for _, p := range phases {
		byNumber[p.Number] = p
	}

	seen := make(map[int]bool, len(order))
	reordered := make([]DeploymentPhase, 0, len(phases))
	for _, n := range order {
		if seen[n] {
			return nil, fmt.Errorf("plan: customPhaseOrder lists phase %d more than once", n)
		}
		p, ok := byNumber[n]
		if !ok {
			return nil, fmt.Errorf("plan: customPhaseOrder references unknown phase %d", n)
		}
		seen[n] = true
		reordered = append(reordered, p)
	}
	for _, p := range phases {
		if !seen[p.Number] {
			reordered = append(reordered, p)
		}
	}
	return reordered, nil
}

func finishPlan(phases []DeploymentPhase, use29 bool) DeploymentPlan {
	dp := DeploymentPlan{Phases: phases, Use29Phase: use29, OverallRiskLevel: diff.RiskSafe}
	for _, p := range phases {
		if p.RiskLevel > dp.OverallRiskLevel {
			dp.OverallRiskLevel = p.RiskLevel
		}
	}
	return dp
}
