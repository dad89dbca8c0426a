// SPDX-License-Identifier: Apache-2.0

package postgres_test

import (
	"testing"

	pgq "github.com/xataio/pg_query_go/v6"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/diff"
	"github.com/xataio/driftplan/pkg/emit"
	"github.com/xataio/driftplan/pkg/schema"

	_ "github.com/xataio/driftplan/pkg/emit/postgres"
)

func targetWithUserTable() *schema.Schema {
	s := schema.New("public")
	t := &schema.Table{
		Name:   "User",
		Schema: "public",
		Columns: map[string]*schema.Column{
			"Id":    {Name: "Id", DataType: "SERIAL", PrimaryKey: true, Identity: true, Nullable: false},
			"Email": {Name: "Email", DataType: "VARCHAR(255)", Nullable: false},
		},
	}
	t.AddConstraint(&schema.Constraint{Name: "PK_User", Kind: schema.PrimaryKeyConstraint, Table: "User", Schema: "public", Columns: []string{"Id"}})
	s.AddTable(t)
	return s
}

// TestCreateTableParsesAsValidPostgresSQL exercises pg_query_go as a
// syntax oracle over the emitted DDL: every statement this emitter produces
// must be parseable Postgres, independent of whether it would actually
// succeed against a live server.
func TestCreateTableParsesAsValidPostgresSQL(t *testing.T) {
	e, err := emit.New(dialect.Postgres)
	require.NoError(t, err)

	target := targetWithUserTable()
	stmt, err := e.Statement(diff.SchemaChange{
		Kind: diff.Create, ObjectType: diff.TableObject, ObjectName: "User", Schema: "public",
	}, schema.New("public"), target)
	require.NoError(t, err)

	_, parseErr := pgq.Parse(stmt)
	assert.NoError(t, parseErr, "emitted SQL: %s", stmt)
}

func TestAddColumnParsesAsValidPostgresSQL(t *testing.T) {
	e, err := emit.New(dialect.Postgres)
	require.NoError(t, err)

	target := targetWithUserTable()
	target.Tables["User"].Columns["CreatedAt"] = &schema.Column{Name: "CreatedAt", DataType: "TIMESTAMP", Nullable: true, Default: strPtr("now()")}

	stmt, err := e.Statement(diff.SchemaChange{
		Kind: diff.Alter, ObjectType: diff.ColumnObject, ObjectName: "CreatedAt", Schema: "public",
		Properties: map[string]any{"table": "User", "change_type": "add_column"},
	}, schema.New("public"), target)
	require.NoError(t, err)

	_, parseErr := pgq.Parse(stmt)
	assert.NoError(t, parseErr, "emitted SQL: %s", stmt)
}

func TestForeignKeyConstraintParsesAsValidPostgresSQL(t *testing.T) {
	e, err := emit.New(dialect.Postgres)
	require.NoError(t, err)

	target := targetWithUserTable()
	orderTable := &schema.Table{Name: "Order", Schema: "public", Columns: map[string]*schema.Column{
		"Id": {Name: "Id", DataType: "SERIAL", PrimaryKey: true},
	}}
	orderTable.AddConstraint(&schema.Constraint{
		Name: "FK_Order_User_CustomerId", Kind: schema.ForeignKeyConstraint,
		Table: "Order", Schema: "public", Columns: []string{"CustomerId"},
		ReferencedTable: "User", ReferencedColumns: []string{"Id"}, OnDelete: "CASCADE",
	})
	target.AddTable(orderTable)

	stmt, err := e.Statement(diff.SchemaChange{
		Kind: diff.Create, ObjectType: diff.ConstraintObj, ObjectName: "FK_Order_User_CustomerId", Schema: "public",
		Properties: map[string]any{"table": "Order", "constraint_type": "FK"},
	}, schema.New("public"), target)
	require.NoError(t, err)

	_, parseErr := pgq.Parse(stmt)
	assert.NoError(t, parseErr, "emitted SQL: %s", stmt)
}

func TestDropTableParsesAsValidPostgresSQL(t *testing.T) {
	e, err := emit.New(dialect.Postgres)
	require.NoError(t, err)

	stmt, err := e.Statement(diff.SchemaChange{
		Kind: diff.Drop, ObjectType: diff.TableObject, ObjectName: "User", Schema: "public",
	}, targetWithUserTable(), schema.New("public"))
	require.NoError(t, err)

	_, parseErr := pgq.Parse(stmt)
	assert.NoError(t, parseErr, "emitted SQL: %s", stmt)
}

func strPtr(s string) *string { return &s }
