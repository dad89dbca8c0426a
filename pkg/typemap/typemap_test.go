// SPDX-License-Identifier: Apache-2.0

package typemap_test

import (
	"testing"

	"github.com/oapi-codegen/nullable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/typemap"

	_ "github.com/xataio/driftplan/pkg/typemap/mysql"
	_ "github.com/xataio/driftplan/pkg/typemap/oracle"
	_ "github.com/xataio/driftplan/pkg/typemap/postgres"
	_ "github.com/xataio/driftplan/pkg/typemap/sqlite"
	_ "github.com/xataio/driftplan/pkg/typemap/sqlserver"
)

func TestAllDialectsRegistered(t *testing.T) {
	for _, d := range dialect.All {
		m, err := typemap.New(d)
		require.NoError(t, err)
		assert.NotNil(t, m)
	}
}

func TestUnsupportedDialect(t *testing.T) {
	_, err := typemap.New(dialect.Name("db2"))
	assert.ErrorAs(t, err, &dialect.UnsupportedDialectError{})
}

func TestIdentityRendering(t *testing.T) {
	cases := map[dialect.Name]string{
		dialect.SQLServer: "INT IDENTITY(1,1)",
		dialect.Postgres:  "SERIAL",
		dialect.MySQL:     "INT AUTO_INCREMENT",
		dialect.Oracle:    "NUMBER GENERATED BY DEFAULT AS IDENTITY",
		dialect.SQLite:    "INTEGER PRIMARY KEY AUTOINCREMENT",
	}
	for d, want := range cases {
		m, err := typemap.New(d)
		require.NoError(t, err)
		got := m.MapType(typemap.Request{AbstractType: "int32", Identity: true})
		assert.Equal(t, want, got, "dialect %s", d)
	}
}

func TestBigIdentityRendering(t *testing.T) {
	m, err := typemap.New(dialect.Postgres)
	require.NoError(t, err)
	assert.Equal(t, "BIGSERIAL", m.MapType(typemap.Request{AbstractType: "int32", Identity: true, BigIdentity: true}))
}

func TestStringLengthOverride(t *testing.T) {
	m, err := typemap.New(dialect.Postgres)
	require.NoError(t, err)
	n := 50
	assert.Equal(t, "VARCHAR(50)", m.MapType(typemap.Request{AbstractType: "string", MaxLength: &n}))
	assert.Equal(t, "TEXT", m.MapType(typemap.Request{AbstractType: "string"}))
}

func TestDecimalPrecisionScale(t *testing.T) {
	m, err := typemap.New(dialect.SQLServer)
	require.NoError(t, err)
	p, s := 10, 2
	assert.Equal(t, "DECIMAL(10,2)", m.MapType(typemap.Request{AbstractType: "decimal", Precision: &p, Scale: &s}))
}

func TestUnknownTypeFallsBackToWidestString(t *testing.T) {
	cases := map[dialect.Name]string{
		dialect.SQLServer: "NVARCHAR(255)",
		dialect.Postgres:  "VARCHAR(255)",
		dialect.MySQL:     "VARCHAR(255)",
		dialect.Oracle:    "VARCHAR2(255)",
		dialect.SQLite:    "TEXT",
	}
	for d, want := range cases {
		m, err := typemap.New(d)
		require.NoError(t, err)
		assert.Equal(t, want, m.MapType(typemap.Request{AbstractType: "unknown_widget"}))
	}
}

func TestNormalizeDefaultTokens(t *testing.T) {
	cases := map[dialect.Name]struct{ now, uuid string }{
		dialect.SQLServer: {"GETUTCDATE()", "NEWID()"},
		dialect.Postgres:  {"now()", "gen_random_uuid()"},
		dialect.MySQL:     {"CURRENT_TIMESTAMP", "(UUID())"},
		dialect.Oracle:    {"SYSDATE", "SYS_GUID()"},
		dialect.SQLite:    {"datetime('now')", "(lower(hex(randomblob(16))))"},
	}
	for d, want := range cases {
		m, err := typemap.New(d)
		require.NoError(t, err)
		assert.Equal(t, want.now, m.NormalizeDefault("NOW()"))
		assert.Equal(t, want.uuid, m.NormalizeDefault("UUID()"))
		assert.Equal(t, "'literal'", m.NormalizeDefault("'literal'"))
	}
}

func TestMapNullableDefault(t *testing.T) {
	m, err := typemap.New(dialect.Postgres)
	require.NoError(t, err)

	assert.Nil(t, typemap.MapNullableDefault(m, nullable.Nullable[string]{}))
	assert.Nil(t, typemap.MapNullableDefault(m, nullable.NewNullNullable[string]()))

	got := typemap.MapNullableDefault(m, nullable.NewNullableWithValue("NOW()"))
	require.NotNil(t, got)
	assert.Equal(t, "now()", *got)
}
