// SPDX-License-Identifier: Apache-2.0

package plan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/driftplan/pkg/diff"
	"github.com/xataio/driftplan/pkg/plan"
	"github.com/xataio/driftplan/pkg/risk"
)

func TestPlan29PhaseEmptyChangesHasAllPhases(t *testing.T) {
	dp, err := plan.Plan(nil, plan.Options{Enable29PhaseDeployment: true})
	require.NoError(t, err)
	assert.Len(t, dp.Phases, 29)
	assert.Equal(t, diff.RiskSafe, dp.OverallRiskLevel)
}

func TestPlan29PhaseSkipBackupRemovesPhase2(t *testing.T) {
	dp, err := plan.Plan(nil, plan.Options{Enable29PhaseDeployment: true, SkipBackup: true})
	require.NoError(t, err)
	assert.Len(t, dp.Phases, 28)
	for _, p := range dp.Phases {
		assert.NotEqual(t, "Backup", p.Name)
	}
}

func TestPlanDropFKBeforeDropTable(t *testing.T) {
	changes := []diff.SchemaChange{
		{Kind: diff.Drop, ObjectType: diff.ConstraintObj, ObjectName: "FK_Order_Customer", Properties: map[string]any{"constraint_type": "FK"}},
		{Kind: diff.Drop, ObjectType: diff.TableObject, ObjectName: "Order"},
		{Kind: diff.Drop, ObjectType: diff.TableObject, ObjectName: "Customer"},
	}
	a := risk.Assess(changes)
	dp, err := plan.Plan(a.Changes, plan.Options{Enable29PhaseDeployment: true})
	require.NoError(t, err)

	fkPhase := phaseNumberContaining(t, dp, diff.ConstraintObj, "FK_Order_Customer")
	tablePhase := phaseNumberContaining(t, dp, diff.TableObject, "Order")
	assert.Less(t, fkPhase, tablePhase)
	assert.Equal(t, diff.RiskRisky, dp.OverallRiskLevel)
}

func TestPlanAddColumnGoesToPhase16(t *testing.T) {
	changes := []diff.SchemaChange{
		{Kind: diff.Alter, ObjectType: diff.ColumnObject, ObjectName: "CreatedAt", Properties: map[string]any{
			"change_type": "add_column", "nullable": true, "has_default": true,
		}},
	}
	a := risk.Assess(changes)
	dp, err := plan.Plan(a.Changes, plan.Options{Enable29PhaseDeployment: true})
	require.NoError(t, err)
	assert.Equal(t, 16, phaseNumberContaining(t, dp, diff.ColumnObject, "CreatedAt"))
}

func TestPlanNarrowingDataTypeIsRiskyAndNotRollbackable(t *testing.T) {
	changes := []diff.SchemaChange{
		{Kind: diff.Alter, ObjectType: diff.ColumnObject, ObjectName: "Name", Properties: map[string]any{
			"change_type": "data_type", "potential_data_loss": true,
		}},
	}
	a := risk.Assess(changes)
	dp, err := plan.Plan(a.Changes, plan.Options{Enable29PhaseDeployment: true})
	require.NoError(t, err)

	for _, p := range dp.Phases {
		if p.Number == 17 {
			require.Len(t, p.Operations, 1)
			assert.Equal(t, diff.RiskRisky, p.RiskLevel)
			assert.True(t, p.RequiresApproval)
			assert.False(t, p.CanRollback)
		}
	}
	assert.True(t, a.RequiresDualApproval)
}

func TestSkipWarningPhasesRenumbersAndKeepsRisky(t *testing.T) {
	changes := []diff.SchemaChange{
		{Kind: diff.Create, ObjectType: diff.ConstraintObj, ObjectName: "FK_A", Properties: map[string]any{"constraint_type": "FK"}}, // Warning, phase 26
		{Kind: diff.Drop, ObjectType: diff.TableObject, ObjectName: "B"},                                                            // Risky, phase 14
	}
	a := risk.Assess(changes)
	dp, err := plan.Plan(a.Changes, plan.Options{Enable29PhaseDeployment: true, SkipWarningPhases: true})
	require.NoError(t, err)

	for i, p := range dp.Phases {
		assert.Equal(t, i+1, p.Number)
	}

	var foundRisky bool
	for _, p := range dp.Phases {
		if p.RiskLevel == diff.RiskRisky {
			foundRisky = true
		}
	}
	assert.True(t, foundRisky)
}

func TestSimpleModeProducesThreePhases(t *testing.T) {
	changes := []diff.SchemaChange{
		{Kind: diff.Create, ObjectType: diff.TableObject, ObjectName: "X"},
		{Kind: diff.Drop, ObjectType: diff.TableObject, ObjectName: "Y"},
	}
	a := risk.Assess(changes)
	dp, err := plan.Plan(a.Changes, plan.Options{Enable29PhaseDeployment: false})
	require.NoError(t, err)
	require.Len(t, dp.Phases, 3)
	assert.Len(t, dp.Phases[0].Operations, 1)
	assert.Equal(t, diff.Drop, dp.Phases[0].Operations[0].Change.Kind)
	assert.Len(t, dp.Phases[1].Operations, 1)
	assert.Equal(t, diff.Create, dp.Phases[1].Operations[0].Change.Kind)
	assert.Empty(t, dp.Phases[2].Operations)
}

func TestCustomPhaseOrderMalformedIsFatal(t *testing.T) {
	_, err := plan.Plan(nil, plan.Options{Enable29PhaseDeployment: true, CustomPhaseOrder: []int{1, 1, 2}})
	assert.Error(t, err)

	_, err = plan.Plan(nil, plan.Options{Enable29PhaseDeployment: true, CustomPhaseOrder: []int{999}})
	assert.Error(t, err)
}

func TestCustomPhaseOrderReordersAndAppendsUnspecified(t *testing.T) {
	dp, err := plan.Plan(nil, plan.Options{Enable29PhaseDeployment: true, CustomPhaseOrder: []int{29, 1}})
	require.NoError(t, err)
	require.True(t, len(dp.Phases) >= 3)
	assert.Equal(t, 29, dp.Phases[0].Number)
	assert.Equal(t, 1, dp.Phases[1].Number)
}

func TestRollbackScriptOrdersOperationsInReverse(t *testing.T) {
	phase := plan.DeploymentPhase{
		Operations: []plan.Operation{
			{RollbackCommand: "DROP TABLE a"},
			{RollbackCommand: "DROP TABLE b;"},
			{RollbackCommand: ""},
		},
	}
	script := phase.RollbackScript()
	assert.Equal(t, "DROP TABLE b;\nDROP TABLE a;\n", script)
}

func TestRollbackScriptEmptyPhaseYieldsEmptyScript(t *testing.T) {
	phase := plan.DeploymentPhase{}
	assert.Empty(t, phase.RollbackScript())
}

func phaseNumberContaining(t *testing.T, dp plan.DeploymentPlan, objType diff.ObjectType, name string) int {
	t.Helper()
	for _, p := range dp.Phases {
		for _, op := range p.Operations {
			if op.Change.ObjectType == objType && op.Change.ObjectName == name {
				return p.Number
			}
		}
	}
	t.Fatalf("no phase found containing %s %s", objType, name)
	return -1
}
