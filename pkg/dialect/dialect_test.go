// SPDX-License-Identifier: Apache-2.0

package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xataio/driftplan/pkg/dialect"
)

func TestDefaultSchemas(t *testing.T) {
	assert.Equal(t, "dbo", dialect.SQLServer.DefaultSchema())
	assert.Equal(t, "public", dialect.Postgres.DefaultSchema())
	assert.Equal(t, "", dialect.MySQL.DefaultSchema())
	assert.Equal(t, "SYSTEM", dialect.Oracle.DefaultSchema())
	assert.Equal(t, "", dialect.SQLite.DefaultSchema())
}

func TestValid(t *testing.T) {
	assert.True(t, dialect.Postgres.Valid())
	assert.False(t, dialect.Name("db2").Valid())
}

func TestReservedWordsCaseInsensitive(t *testing.T) {
	assert.True(t, dialect.Postgres.IsReservedWord("Order"))
	assert.True(t, dialect.Postgres.IsReservedWord("USER"))
	assert.False(t, dialect.Postgres.IsReservedWord("widgets"))
}

func TestUnsupportedDialectError(t *testing.T) {
	err := dialect.UnsupportedDialectError{Dialect: dialect.Name("db2")}
	assert.Contains(t, err.Error(), "db2")
}
