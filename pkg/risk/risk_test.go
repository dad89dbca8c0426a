// SPDX-License-Identifier: Apache-2.0

package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xataio/driftplan/pkg/diff"
	"github.com/xataio/driftplan/pkg/risk"
)

func TestAssessClassifiesDropTableAsRisky(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Drop, ObjectType: diff.TableObject, ObjectName: "Order"},
	})
	assert.Equal(t, diff.RiskRisky, a.OverallRiskLevel)
	assert.Equal(t, 1, a.RiskyCount)
	assert.True(t, a.RequiresDualApproval)
	assert.True(t, a.RequiresApproval)
}

func TestAssessClassifiesSafeCreateTable(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Create, ObjectType: diff.TableObject, ObjectName: "Order"},
	})
	assert.Equal(t, diff.RiskSafe, a.OverallRiskLevel)
	assert.False(t, a.RequiresApproval)
	assert.False(t, a.RequiresDualApproval)
}

func TestAssessClassifiesNewForeignKeyAsWarning(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Create, ObjectType: diff.ConstraintObj, ObjectName: "FK_Order_User", Properties: map[string]any{"constraint_type": "FK"}},
	})
	assert.Equal(t, diff.RiskWarning, a.OverallRiskLevel)
	assert.True(t, a.RequiresApproval)
	assert.False(t, a.RequiresDualApproval)
}

func TestAssessClassifiesNotNullColumnWithoutDefaultAsWarning(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Alter, ObjectType: diff.ColumnObject, ObjectName: "Code", Properties: map[string]any{
			"change_type": "add_column", "nullable": false, "has_default": false,
		}},
	})
	assert.Equal(t, diff.RiskWarning, a.OverallRiskLevel)
}

func TestAssessClassifiesNullableColumnWithoutDefaultAsSafe(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Alter, ObjectType: diff.ColumnObject, ObjectName: "Code", Properties: map[string]any{
			"change_type": "add_column", "nullable": true, "has_default": false,
		}},
	})
	assert.Equal(t, diff.RiskSafe, a.OverallRiskLevel)
}

func TestAssessAggregatesOverallAsMax(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Create, ObjectType: diff.TableObject, ObjectName: "A"},
		{Kind: diff.Create, ObjectType: diff.ConstraintObj, ObjectName: "FK_B", Properties: map[string]any{"constraint_type": "FK"}},
		{Kind: diff.Drop, ObjectType: diff.TableObject, ObjectName: "C"},
	})
	assert.Equal(t, diff.RiskRisky, a.OverallRiskLevel)
	assert.Equal(t, 1, a.SafeCount)
	assert.Equal(t, 1, a.WarningCount)
	assert.Equal(t, 1, a.RiskyCount)
}

func TestAssessClassifiesConstraintDropsAsWarningNotRisky(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Drop, ObjectType: diff.ConstraintObj, ObjectName: "UQ_User_Email", Properties: map[string]any{"constraint_type": "UQ"}},
		{Kind: diff.Drop, ObjectType: diff.ConstraintObj, ObjectName: "CK_Order_Total", Properties: map[string]any{"constraint_type": "CK"}},
	})
	assert.Equal(t, diff.RiskWarning, a.OverallRiskLevel)
	assert.Equal(t, 2, a.WarningCount)
	assert.Equal(t, 0, a.RiskyCount)
	assert.False(t, a.RequiresDualApproval)
}

func TestAssessClassifiesIndexDropsAsWarningRegardlessOfUniqueness(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Drop, ObjectType: diff.IndexObject, ObjectName: "IX_User_Email", Properties: map[string]any{"is_unique": true, "is_clustered": false}},
		{Kind: diff.Drop, ObjectType: diff.IndexObject, ObjectName: "IX_Order_Date", Properties: map[string]any{"is_unique": false, "is_clustered": true}},
	})
	assert.Equal(t, diff.RiskWarning, a.OverallRiskLevel)
	assert.Equal(t, 2, a.WarningCount)
	assert.Equal(t, 0, a.RiskyCount)
}

func TestAssessClassifiesNewUniqueAndCheckConstraintsAsWarning(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Create, ObjectType: diff.ConstraintObj, ObjectName: "UQ_User_Email", Properties: map[string]any{"constraint_type": "UQ"}},
		{Kind: diff.Create, ObjectType: diff.ConstraintObj, ObjectName: "CK_Order_Total", Properties: map[string]any{"constraint_type": "CK"}},
	})
	assert.Equal(t, diff.RiskWarning, a.OverallRiskLevel)
	assert.Equal(t, 2, a.WarningCount)
}

func TestAssessClassifiesNewPrimaryKeyAsSafe(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Create, ObjectType: diff.ConstraintObj, ObjectName: "PK_Order", Properties: map[string]any{"constraint_type": "PK"}},
	})
	assert.Equal(t, diff.RiskSafe, a.OverallRiskLevel)
}

func TestAssessClassifiesNewClusteredIndexAsWarningAndNonUniqueIndexAsSafe(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Create, ObjectType: diff.IndexObject, ObjectName: "IX_Clustered", Properties: map[string]any{"is_unique": false, "is_clustered": true}},
		{Kind: diff.Create, ObjectType: diff.IndexObject, ObjectName: "IX_NonUnique", Properties: map[string]any{"is_unique": false, "is_clustered": false}},
	})
	assert.Equal(t, diff.RiskWarning, a.OverallRiskLevel)
	assert.Equal(t, 1, a.WarningCount)
	assert.Equal(t, 1, a.SafeCount)
}

func TestAssessClassifiesDroppedViewProcedureFunctionAsWarning(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Drop, ObjectType: diff.ViewObject, ObjectName: "UserSummary"},
		{Kind: diff.Drop, ObjectType: diff.ProcedureObject, ObjectName: "RecalcTotals"},
		{Kind: diff.Drop, ObjectType: diff.FunctionObject, ObjectName: "NormalizeEmail"},
	})
	assert.Equal(t, diff.RiskWarning, a.OverallRiskLevel)
	assert.Equal(t, 3, a.WarningCount)
}

func TestAssessClassifiesDefaultChangeAsSafe(t *testing.T) {
	a := risk.Assess([]diff.SchemaChange{
		{Kind: diff.Alter, ObjectType: diff.ColumnObject, ObjectName: "Status", Properties: map[string]any{"change_type": "default"}},
	})
	assert.Equal(t, diff.RiskSafe, a.OverallRiskLevel)
	assert.False(t, a.RequiresApproval)
}

func TestAssessPopulatesFactorsAndMutatesChangesInPlace(t *testing.T) {
	changes := []diff.SchemaChange{
		{Kind: diff.Drop, ObjectType: diff.TableObject, ObjectName: "Order"},
	}
	a := risk.Assess(changes)
	assert.Len(t, a.Factors, 1)
	assert.Equal(t, diff.RiskRisky, changes[0].RiskLevel)
	assert.NotEmpty(t, a.Factors[0].Reason)
}
