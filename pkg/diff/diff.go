// SPDX-License-Identifier: Apache-2.0

package diff

import (
	"fmt"
	"slices"

	"github.com/xataio/driftplan/pkg/schema"
)

// Diff compares current against target and returns the ordered list of
// changes required to move current to target. RiskLevel on each returned
// change is left at RiskUnassigned; pkg/risk fills it in.
//
// Running Diff(s, s) on any schema always returns an empty slice: Diff is
// idempotent once current and target converge.
func Diff(current, target *schema.Schema) []SchemaChange {
	var changes []SchemaChange

	changes = append(changes, diffTables(current, target)...)
	changes = append(changes, diffViews(current, target)...)
	changes = append(changes, diffProcedures(current, target)...)
	changes = append(changes, diffFunctions(current, target)...)

	return changes
}

func diffTables(current, target *schema.Schema) []SchemaChange {
	var changes []SchemaChange

	for _, name := range target.SortedTableNames() {
		t := target.Tables[name]
		if current.GetTable(name) == nil {
			changes = append(changes, SchemaChange{
				Kind: Create, ObjectType: TableObject, ObjectName: name, Schema: t.Schema,
				Description: fmt.Sprintf("Create table %s", name),
			})
		}
	}
	for _, name := range current.SortedTableNames() {
		t := current.Tables[name]
		if target.GetTable(name) == nil {
			changes = append(changes, SchemaChange{
				Kind: Drop, ObjectType: TableObject, ObjectName: name, Schema: t.Schema,
				Description: fmt.Sprintf("Drop table %s", name),
			})
		}
	}

	// Column/constraint/index comparisons only make sense for tables present
	// on both sides.
	for _, name := range target.SortedTableNames() {
		curT := current.GetTable(name)
		tgtT := target.Tables[name]
		if curT == nil {
			continue
		}
		changes = append(changes, diffColumns(curT, tgtT)...)
		changes = append(changes, diffConstraints(curT, tgtT)...)
		changes = append(changes, diffIndexes(curT, tgtT)...)
	}

	return changes
}

func diffColumns(cur, tgt *schema.Table) []SchemaChange {
	var changes []SchemaChange

	for _, name := range tgt.SortedColumnNames() {
		if cur.GetColumn(name) == nil {
			t := tgt.Columns[name]
			changes = append(changes, SchemaChange{
				Kind: Alter, ObjectType: ColumnObject, ObjectName: name, Schema: tgt.Schema,
				Description:  fmt.Sprintf("Add column %s.%s", tgt.Name, name),
				Dependencies: []string{tgt.Name},
				Properties: map[string]any{
					"table": tgt.Name, "change_type": "add_column",
					"nullable": t.Nullable, "has_default": t.Default != nil,
					"data_type": t.DataType, "default": derefOr(t.Default, ""),
				},
			})
		}
	}
	for _, name := range cur.SortedColumnNames() {
		if tgt.GetColumn(name) == nil {
			changes = append(changes, SchemaChange{
				Kind: Alter, ObjectType: ColumnObject, ObjectName: name, Schema: cur.Schema,
				Description:  fmt.Sprintf("Drop column %s.%s", cur.Name, name),
				Dependencies: []string{cur.Name},
				Properties:   map[string]any{"table": cur.Name, "change_type": "drop_column"},
			})
		}
	}

	for _, name := range tgt.SortedColumnNames() {
		c := cur.GetColumn(name)
		t := tgt.Columns[name]
		if c == nil {
			continue
		}

		if c.DataType != t.DataType {
			change := SchemaChange{
				Kind: Alter, ObjectType: ColumnObject, ObjectName: name, Schema: tgt.Schema,
				Description:  fmt.Sprintf("Alter column %s.%s data type", tgt.Name, name),
				Dependencies: []string{tgt.Name},
				Properties: map[string]any{
					"table": tgt.Name, "change_type": "data_type", "from_type": c.DataType, "to_type": t.DataType,
				},
			}
			setProp(&change, "potential_data_loss", narrows(c.DataType, t.DataType))
			changes = append(changes, change)
		}

		if c.Nullable != t.Nullable {
			change := SchemaChange{
				Kind: Alter, ObjectType: ColumnObject, ObjectName: name, Schema: tgt.Schema,
				Description:  fmt.Sprintf("Alter column %s.%s nullable", tgt.Name, name),
				Dependencies: []string{tgt.Name},
				Properties:   map[string]any{"table": tgt.Name, "change_type": "nullable", "nullable": t.Nullable},
			}
			setProp(&change, "tightens_nullability", c.Nullable && !t.Nullable)
			changes = append(changes, change)
		}

		if !defaultsEqual(c.Default, t.Default) {
			changes = append(changes, SchemaChange{
				Kind: Alter, ObjectType: ColumnObject, ObjectName: name, Schema: tgt.Schema,
				Description:  fmt.Sprintf("Alter column %s.%s default", tgt.Name, name),
				Dependencies: []string{tgt.Name},
				Properties:   map[string]any{"table": tgt.Name, "change_type": "default", "default": t.Default},
			})
		}
	}

	return changes
}

func defaultsEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func diffConstraints(cur, tgt *schema.Table) []SchemaChange {
	var changes []SchemaChange

	for _, name := range tgt.SortedConstraintNames() {
		c := tgt.Constraints[name]
		if cur.Constraints == nil || cur.Constraints[name] == nil {
			changes = append(changes, SchemaChange{
				Kind: Create, ObjectType: ConstraintObj, ObjectName: name, Schema: c.Schema,
				Description:  fmt.Sprintf("Create %s constraint %s on %s", c.Kind, name, tgt.Name),
				Dependencies: constraintDependencies(c, tgt.Name),
				Properties:   map[string]any{"table": tgt.Name, "constraint_type": string(c.Kind)},
			})
		}
	}
	for _, name := range cur.SortedConstraintNames() {
		c := cur.Constraints[name]
		if tgt.Constraints == nil || tgt.Constraints[name] == nil {
			changes = append(changes, SchemaChange{
				Kind: Drop, ObjectType: ConstraintObj, ObjectName: name, Schema: c.Schema,
				Description: fmt.Sprintf("Drop %s constraint %s on %s", c.Kind, name, cur.Name),
				Properties:  map[string]any{"table": cur.Name, "constraint_type": string(c.Kind)},
			})
		}
	}

	return changes
}

func constraintDependencies(c *schema.Constraint, table string) []string {
	deps := []string{table}
	if c.Kind == schema.ForeignKeyConstraint && c.ReferencedTable != "" {
		deps = append(deps, c.ReferencedTable)
	}
	return deps
}

func diffIndexes(cur, tgt *schema.Table) []SchemaChange {
	var changes []SchemaChange

	for _, name := range tgt.SortedIndexNames() {
		idx := tgt.Indexes[name]
		if cur.Indexes == nil || cur.Indexes[name] == nil {
			changes = append(changes, SchemaChange{
				Kind: Create, ObjectType: IndexObject, ObjectName: name, Schema: idx.Schema,
				Description:  fmt.Sprintf("Create index %s on %s", name, tgt.Name),
				Dependencies: []string{tgt.Name},
				Properties:   map[string]any{"table": tgt.Name, "is_unique": idx.Unique, "is_clustered": idx.Clustered},
			})
		}
	}
	for _, name := range cur.SortedIndexNames() {
		idx := cur.Indexes[name]
		if tgt.Indexes == nil || tgt.Indexes[name] == nil {
			changes = append(changes, SchemaChange{
				Kind: Drop, ObjectType: IndexObject, ObjectName: name, Schema: idx.Schema,
				Description: fmt.Sprintf("Drop index %s on %s", name, cur.Name),
				Properties:  map[string]any{"table": cur.Name, "is_unique": idx.Unique, "is_clustered": idx.Clustered},
			})
		}
	}

	return changes
}

func diffViews(current, target *schema.Schema) []SchemaChange {
	return diffDefinitionObjects(current.Views, target.Views, ViewObject)
}

func diffProcedures(current, target *schema.Schema) []SchemaChange {
	var changes []SchemaChange
	curNames, tgtNames := sortedKeys(current.Procedures), sortedKeys(target.Procedures)
	for _, name := range tgtNames {
		t := target.Procedures[name]
		c := current.Procedures[name]
		if c == nil {
			changes = append(changes, createChange(ProcedureObject, name, t.Schema, "procedure"))
		} else if c.Definition != t.Definition {
			changes = append(changes, dropChange(ProcedureObject, name, c.Schema, "procedure"))
			changes = append(changes, createChange(ProcedureObject, name, t.Schema, "procedure"))
		}
	}
	for _, name := range curNames {
		c := current.Procedures[name]
		if target.Procedures == nil || target.Procedures[name] == nil {
			changes = append(changes, dropChange(ProcedureObject, name, c.Schema, "procedure"))
		}
	}
	return changes
}

func diffFunctions(current, target *schema.Schema) []SchemaChange {
	var changes []SchemaChange
	curNames, tgtNames := sortedKeys(current.Functions), sortedKeys(target.Functions)
	for _, name := range tgtNames {
		t := target.Functions[name]
		c := current.Functions[name]
		if c == nil {
			changes = append(changes, createChange(FunctionObject, name, t.Schema, "function"))
		} else if c.Definition != t.Definition {
			changes = append(changes, dropChange(FunctionObject, name, c.Schema, "function"))
			changes = append(changes, createChange(FunctionObject, name, t.Schema, "function"))
		}
	}
	for _, name := range curNames {
		c := current.Functions[name]
		if target.Functions == nil || target.Functions[name] == nil {
			changes = append(changes, dropChange(FunctionObject, name, c.Schema, "function"))
		}
	}
	return changes
}

// diffDefinitionObjects handles the common "drop+create when definition
// differs" shape shared by views, procedures and functions.
// Views are generic over schema.View here; procedures/functions have their
// own small non-generic helpers above because they also carry Parameters,
// which doesn't change the diff decision but is easier to read un-genericized.
func diffDefinitionObjects(current, target map[string]*schema.View, objType ObjectType) []SchemaChange {
	var changes []SchemaChange
	tgtNames := sortedKeys(target)
	curNames := sortedKeys(current)

	for _, name := range tgtNames {
		t := target[name]
		c := current[name]
		if c == nil {
			changes = append(changes, createChange(objType, name, t.Schema, "view"))
		} else if c.Definition != t.Definition {
			changes = append(changes, dropChange(objType, name, c.Schema, "view"))
			changes = append(changes, createChange(objType, name, t.Schema, "view"))
		}
	}
	for _, name := range curNames {
		c := current[name]
		if target == nil || target[name] == nil {
			changes = append(changes, dropChange(objType, name, c.Schema, "view"))
		}
	}
	return changes
}

func createChange(objType ObjectType, name, schemaName, label string) SchemaChange {
	return SchemaChange{
		Kind: Create, ObjectType: objType, ObjectName: name, Schema: schemaName,
		Description: fmt.Sprintf("Create %s %s", label, name),
	}
}

func dropChange(objType ObjectType, name, schemaName, label string) SchemaChange {
	return SchemaChange{
		Kind: Drop, ObjectType: objType, ObjectName: name, Schema: schemaName,
		Description: fmt.Sprintf("Drop %s %s", label, name),
	}
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
