// SPDX-License-Identifier: Apache-2.0

// Package risk is the Risk Assessor: it assigns a RiskLevel to
// every diff.SchemaChange and aggregates those into a deployment-wide
// approval requirement.
package risk

import "github.com/xataio/driftplan/pkg/diff"

// Factor records why a change got the RiskLevel it did, for display in
// dry-run output and approval prompts.
type Factor struct {
	ObjectName string
	ObjectType diff.ObjectType
	Level      diff.RiskLevel
	Reason     string
}

// Assessment is the result of assessing a full set of changes.
type Assessment struct {
	Changes []diff.SchemaChange // same slice, RiskLevel now populated
	Factors []Factor

	OverallRiskLevel diff.RiskLevel
	SafeCount        int
	WarningCount     int
	RiskyCount       int

	// RequiresApproval is true iff any change is Warning or above.
	RequiresApproval bool
	// RequiresDualApproval is true iff any change is Risky.
	RequiresDualApproval bool
}

// Assess classifies every change in place (returning the same slice headers
// with RiskLevel set) and aggregates the result.
//
// Classification follows this table:
//   - CREATE TABLE / ADD COLUMN (nullable or with a default) / CREATE
//     non-unique index / CREATE PK / ALTER COLUMN default change: Safe
//   - DROP non-clustered or clustered index / DROP UQ or CK constraint /
//     ALTER COLUMN nullable->not null / CREATE UQ or CK constraint /
//     CREATE FOREIGN KEY CONSTRAINT / CREATE clustered index / DROP VIEW,
//     PROCEDURE, FUNCTION: Warning
//   - DROP TABLE / DROP COLUMN / ALTER COLUMN data type with
//     potential_data_loss: Risky
func Assess(changes []diff.SchemaChange) Assessment {
	a := Assessment{Changes: changes}

	for i := range changes {
		c := &changes[i]
		level, reason := classify(*c)
		c.RiskLevel = level
		a.Factors = append(a.Factors, Factor{ObjectName: c.ObjectName, ObjectType: c.ObjectType, Level: level, Reason: reason})

		switch level {
		case diff.RiskSafe:
			a.SafeCount++
		case diff.RiskWarning:
			a.WarningCount++
		case diff.RiskRisky:
			a.RiskyCount++
		}
		if level > a.OverallRiskLevel {
			a.OverallRiskLevel = level
		}
	}

	a.RequiresApproval = a.WarningCount > 0 || a.RiskyCount > 0
	a.RequiresDualApproval = a.RiskyCount > 0

	return a
}

func classify(c diff.SchemaChange) (diff.RiskLevel, string) {
	changeType := c.PropString("change_type")

	switch {
	case c.Kind == diff.Drop && c.ObjectType == diff.TableObject:
		return diff.RiskRisky, "dropping a table discards all its data"
	case changeType == "drop_column":
		return diff.RiskRisky, "dropping a column discards its data"
	case changeType == "data_type" && c.PropBool("potential_data_loss"):
		return diff.RiskRisky, "target type cannot represent every value of the source type"

	case c.Kind == diff.Drop && c.ObjectType == diff.IndexObject:
		return diff.RiskWarning, "dropping an index removes a uniqueness or performance guarantee"
	case c.Kind == diff.Drop && c.ObjectType == diff.ConstraintObj:
		return diff.RiskWarning, "dropping a constraint removes a data-integrity guarantee"
	case changeType == "add_column" && !c.PropBool("nullable") && !c.PropBool("has_default"):
		return diff.RiskWarning, "adding a NOT NULL column without a default fails against existing rows"
	case changeType == "nullable" && c.PropBool("tightens_nullability"):
		return diff.RiskWarning, "making a nullable column NOT NULL fails if any existing row is null"
	case c.Kind == diff.Create && c.ObjectType == diff.ConstraintObj && c.PropString("constraint_type") == "FK":
		return diff.RiskWarning, "a new foreign key fails if existing data violates it"
	case c.Kind == diff.Create && c.ObjectType == diff.ConstraintObj &&
		(c.PropString("constraint_type") == "UQ" || c.PropString("constraint_type") == "CK"):
		return diff.RiskWarning, "a new unique or check constraint fails if existing data violates it"
	case c.Kind == diff.Create && c.ObjectType == diff.IndexObject && c.PropBool("is_clustered"):
		return diff.RiskWarning, "creating a clustered index rewrites the table's physical storage order"
	case c.Kind == diff.Drop && (c.ObjectType == diff.ViewObject || c.ObjectType == diff.ProcedureObject || c.ObjectType == diff.FunctionObject):
		return diff.RiskWarning, "dropping a view, procedure, or function may break dependent code"

	case c.Kind == diff.Create && c.ObjectType == diff.ConstraintObj && c.PropString("constraint_type") == "PK":
		return diff.RiskSafe, ""
	case changeType == "default":
		return diff.RiskSafe, ""

	default:
		return diff.RiskSafe, ""
	}
}
