// SPDX-License-Identifier: Apache-2.0

package emit

import (
	"fmt"
	"strings"

	"github.com/xataio/driftplan/pkg/diff"
	"github.com/xataio/driftplan/pkg/schema"
)

// Base implements the dialect-independent shape of every statement;
// dialects embed it and supply QuoteIdentifier plus the handful of
// syntax knobs that actually vary (clustered indexes, IDENTITY columns are
// already baked into Column.DataType by pkg/typemap, so Base never needs to
// know about them).
type Base struct {
	defaultSchema string
	quote         func(string) string
	// supportsClustered is true only for SQL Server, the one dialect with a
	// CLUSTERED/NONCLUSTERED index keyword; other dialects ignore
	// Index.Clustered (their clustering, if any, is implicit on the PK).
	supportsClustered bool
}

// NewBase builds the shared renderer for a dialect Emitter. defaultSchema is
// the dialect's default schema (dialect.Name.DefaultSchema()); quote quotes
// one identifier; supportsClustered enables the CLUSTERED index keyword.
func NewBase(defaultSchema string, quote func(string) string, supportsClustered bool) Base {
	return Base{defaultSchema: defaultSchema, quote: quote, supportsClustered: supportsClustered}
}

func (b Base) QuoteIdentifier(name string) string { return b.quote(name) }

func (b Base) QualifiedName(schemaName, name string) string {
	if schemaName == "" || schemaName == b.defaultSchema {
		return b.quote(name)
	}
	return b.quote(schemaName) + "." + b.quote(name)
}

func (b Base) Statement(c diff.SchemaChange, cur, tgt *schema.Schema) (string, error) {
	switch c.ObjectType {
	case diff.TableObject:
		return b.tableStatement(c, tgt)
	case diff.ColumnObject:
		return b.columnStatement(c, tgt)
	case diff.ConstraintObj:
		return b.constraintStatement(c, cur, tgt)
	case diff.IndexObject:
		return b.indexStatement(c, cur, tgt)
	case diff.ViewObject:
		return b.definitionStatement(c, "VIEW", viewDefinition(cur, tgt, c.ObjectName))
	case diff.ProcedureObject:
		return b.definitionStatement(c, "PROCEDURE", procDefinition(cur, tgt, c.ObjectName))
	case diff.FunctionObject:
		return b.definitionStatement(c, "FUNCTION", funcDefinition(cur, tgt, c.ObjectName))
	default:
		return "", fmt.Errorf("emit: unsupported object type %s", c.ObjectType)
	}
}

func (b Base) tableStatement(c diff.SchemaChange, tgt *schema.Schema) (string, error) {
	switch c.Kind {
	case diff.Drop:
		return fmt.Sprintf("DROP TABLE %s;", b.QualifiedName(c.Schema, c.ObjectName)), nil
	case diff.Create:
		t := tgt.GetTable(c.ObjectName)
		if t == nil {
			return "", fmt.Errorf("emit: target schema has no table %q", c.ObjectName)
		}
		return b.createTable(t), nil
	default:
		return "", fmt.Errorf("emit: unsupported table change kind %s", c.Kind)
	}
}

func (b Base) createTable(t *schema.Table) string {
	var cols []string
	for _, name := range t.SortedColumnNames() {
		cols = append(cols, b.columnDef(t.Columns[name]))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", b.QualifiedName(t.Schema, t.Name), strings.Join(cols, ",\n  "))
}

func (b Base) columnDef(c *schema.Column) string {
	parts := []string{b.quote(c.Name), c.DataType}
	if c.Nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}
	if c.Default != nil {
		parts = append(parts, "DEFAULT "+*c.Default)
	}
	return strings.Join(parts, " ")
}

func (b Base) columnStatement(c diff.SchemaChange, tgt *schema.Schema) (string, error) {
	table := c.PropString("table")
	switch c.PropString("change_type") {
	case "add_column":
		t := tgt.GetTable(table)
		if t == nil {
			return "", fmt.Errorf("emit: target schema has no table %q", table)
		}
		col := t.GetColumn(c.ObjectName)
		if col == nil {
			return "", fmt.Errorf("emit: target table %q has no column %q", table, c.ObjectName)
		}
		return fmt.Sprintf("ALTER TABLE %s ADD %s;", b.QualifiedName(t.Schema, table), b.columnDef(col)), nil
	case "drop_column":
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", b.QualifiedName(c.Schema, table), b.quote(c.ObjectName)), nil
	case "data_type":
		t := tgt.GetTable(table)
		col := t.GetColumn(c.ObjectName)
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s;", b.QualifiedName(c.Schema, table), b.quote(c.ObjectName), col.DataType), nil
	case "nullable":
		keyword := "NOT NULL"
		if c.PropBool("nullable") {
			keyword = "NULL"
		}
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s;", b.QualifiedName(c.Schema, table), b.quote(c.ObjectName), keyword), nil
	case "default":
		def, _ := c.Properties["default"].(*string)
		if def == nil {
			return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;", b.QualifiedName(c.Schema, table), b.quote(c.ObjectName)), nil
		}
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", b.QualifiedName(c.Schema, table), b.quote(c.ObjectName), *def), nil
	default:
		return "", fmt.Errorf("emit: unsupported column change_type %q", c.PropString("change_type"))
	}
}

func (b Base) constraintStatement(c diff.SchemaChange, cur, tgt *schema.Schema) (string, error) {
	table := c.PropString("table")
	switch c.Kind {
	case diff.Drop:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", b.QualifiedName(c.Schema, table), b.quote(c.ObjectName)), nil
	case diff.Create:
		t := tgt.GetTable(table)
		if t == nil {
			return "", fmt.Errorf("emit: target schema has no table %q", table)
		}
		con, ok := t.Constraints[c.ObjectName]
		if !ok {
			return "", fmt.Errorf("emit: target table %q has no constraint %q", table, c.ObjectName)
		}
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s;", b.QualifiedName(t.Schema, table), b.quote(con.Name), b.constraintDef(con)), nil
	default:
		return "", fmt.Errorf("emit: unsupported constraint change kind %s", c.Kind)
	}
}

func (b Base) constraintDef(con *schema.Constraint) string {
	cols := b.quoteList(con.Columns)
	switch con.Kind {
	case schema.PrimaryKeyConstraint:
		return fmt.Sprintf("PRIMARY KEY (%s)", cols)
	case schema.UniqueConstraint:
		return fmt.Sprintf("UNIQUE (%s)", cols)
	case schema.CheckConstraint:
		return fmt.Sprintf("CHECK (%s)", con.CheckExpression)
	case schema.ForeignKeyConstraint:
		stmt := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)", cols, b.QualifiedName(con.ReferencedSchema, con.ReferencedTable), b.quoteList(con.ReferencedColumns))
		if con.OnDelete != "" {
			stmt += " ON DELETE " + con.OnDelete
		}
		if con.OnUpdate != "" {
			stmt += " ON UPDATE " + con.OnUpdate
		}
		return stmt
	default:
		return ""
	}
}

func (b Base) indexStatement(c diff.SchemaChange, cur, tgt *schema.Schema) (string, error) {
	table := c.PropString("table")
	switch c.Kind {
	case diff.Drop:
		return fmt.Sprintf("DROP INDEX %s;", b.quote(c.ObjectName)), nil
	case diff.Create:
		t := tgt.GetTable(table)
		if t == nil {
			return "", fmt.Errorf("emit: target schema has no table %q", table)
		}
		idx, ok := t.Indexes[c.ObjectName]
		if !ok {
			return "", fmt.Errorf("emit: target table %q has no index %q", table, c.ObjectName)
		}
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		clustered := ""
		if b.supportsClustered && idx.Clustered {
			clustered = "CLUSTERED "
		}
		stmt := fmt.Sprintf("CREATE %s%sINDEX %s ON %s (%s)", unique, clustered, b.quote(idx.Name), b.QualifiedName(t.Schema, table), b.quoteList(idx.Columns))
		if idx.Filter != "" {
			stmt += " WHERE " + idx.Filter
		}
		return stmt + ";", nil
	default:
		return "", fmt.Errorf("emit: unsupported index change kind %s", c.Kind)
	}
}

func (b Base) definitionStatement(c diff.SchemaChange, label, definition string) (string, error) {
	switch c.Kind {
	case diff.Drop:
		return fmt.Sprintf("DROP %s %s;", label, b.QualifiedName(c.Schema, c.ObjectName)), nil
	case diff.Create:
		if definition == "" {
			return "", fmt.Errorf("emit: target schema has no %s %q", strings.ToLower(label), c.ObjectName)
		}
		return definition + ";", nil
	default:
		return "", fmt.Errorf("emit: unsupported %s change kind %s", strings.ToLower(label), c.Kind)
	}
}

func (b Base) quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = b.quote(n)
	}
	return strings.Join(quoted, ", ")
}

func viewDefinition(cur, tgt *schema.Schema, name string) string {
	if v, ok := tgt.Views[name]; ok {
		return v.Definition
	}
	return ""
}

func procDefinition(cur, tgt *schema.Schema, name string) string {
	if p, ok := tgt.Procedures[name]; ok {
		return p.Definition
	}
	return ""
}

func funcDefinition(cur, tgt *schema.Schema, name string) string {
	if f, ok := tgt.Functions[name]; ok {
		return f.Definition
	}
	return ""
}
