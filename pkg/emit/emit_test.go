// SPDX-License-Identifier: Apache-2.0

package emit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/diff"
	"github.com/xataio/driftplan/pkg/emit"
	"github.com/xataio/driftplan/pkg/schema"

	_ "github.com/xataio/driftplan/pkg/emit/mysql"
	_ "github.com/xataio/driftplan/pkg/emit/oracle"
	_ "github.com/xataio/driftplan/pkg/emit/postgres"
	_ "github.com/xataio/driftplan/pkg/emit/sqlite"
	_ "github.com/xataio/driftplan/pkg/emit/sqlserver"
)

func TestAllDialectsRegistered(t *testing.T) {
	for _, d := range dialect.All {
		_, err := emit.New(d)
		assert.NoError(t, err, "dialect %s", d)
	}
}

func TestUnsupportedDialect(t *testing.T) {
	_, err := emit.New(dialect.Name("db2"))
	assert.Error(t, err)
}

func TestIdentifierQuotingPerDialect(t *testing.T) {
	cases := []struct {
		dialect dialect.Name
		want    string
	}{
		{dialect.SQLServer, "[User]"},
		{dialect.Postgres, `"User"`},
		{dialect.MySQL, "`User`"},
		{dialect.Oracle, `"User"`},
		{dialect.SQLite, "[User]"},
	}
	for _, tc := range cases {
		e, err := emit.New(tc.dialect)
		require.NoError(t, err)
		assert.Equal(t, tc.want, e.QuoteIdentifier("User"))
	}
}

func TestQualifiedNameOmitsDefaultSchema(t *testing.T) {
	e, err := emit.New(dialect.SQLServer)
	require.NoError(t, err)
	assert.Equal(t, "[User]", e.QualifiedName("dbo", "User"))
	assert.Equal(t, "[sales].[User]", e.QualifiedName("sales", "User"))
}

func TestDropColumnStatement(t *testing.T) {
	e, err := emit.New(dialect.Postgres)
	require.NoError(t, err)
	stmt, err := e.Statement(diff.SchemaChange{
		Kind: diff.Alter, ObjectType: diff.ColumnObject, ObjectName: "Nickname", Schema: "public",
		Properties: map[string]any{"table": "User", "change_type": "drop_column"},
	}, schema.New("public"), schema.New("public"))
	require.NoError(t, err)
	assert.Equal(t, `ALTER TABLE "User" DROP COLUMN "Nickname";`, stmt)
}

func TestValidationAndBackupStatementsAreDialectSpecific(t *testing.T) {
	pg, err := emit.New(dialect.Postgres)
	require.NoError(t, err)
	assert.Contains(t, pg.PreDeploymentValidation(), "version()")
	assert.Contains(t, pg.BackupStatement("appdb"), "pg_dump")

	ms, err := emit.New(dialect.SQLServer)
	require.NoError(t, err)
	assert.Contains(t, ms.BackupStatement("appdb"), "BACKUP DATABASE")
}
