// SPDX-License-Identifier: Apache-2.0

package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xataio/driftplan/internal/testutils"
	"github.com/xataio/driftplan/pkg/db"
	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/introspect"
	_ "github.com/xataio/driftplan/pkg/introspect/postgres"
	"github.com/xataio/driftplan/pkg/schema"
)

func TestMain(m *testing.M) {
	testutils.SharedPostgresTestMain(m)
}

func TestIntrospectReadsTablesConstraintsIndexesAndViews(t *testing.T) {
	t.Parallel()

	testutils.WithPostgresConnection(t, func(conn *sql.DB, _ string) {
		ctx := context.Background()

		mustExec(t, conn, `
			CREATE TABLE "user" (
				id BIGSERIAL PRIMARY KEY,
				email TEXT NOT NULL,
				referrer_id BIGINT,
				status TEXT NOT NULL DEFAULT 'active',
				CONSTRAINT uq_user_email UNIQUE (email),
				CONSTRAINT ck_user_status CHECK (status IN ('active', 'disabled')),
				CONSTRAINT fk_user_referrer FOREIGN KEY (referrer_id) REFERENCES "user" (id)
					ON DELETE SET NULL ON UPDATE CASCADE
			)`)
		mustExec(t, conn, `CREATE INDEX ix_user_status ON "user" (status)`)
		mustExec(t, conn, `CREATE VIEW active_users AS SELECT id, email FROM "user" WHERE status = 'active'`)

		rdb := &db.RDB{DB: conn}
		ins, err := introspect.New(dialect.Postgres)
		require.NoError(t, err)

		s, err := ins.Introspect(ctx, rdb, "public")
		require.NoError(t, err)

		tbl := s.Tables["user"]
		require.NotNil(t, tbl)
		require.Contains(t, tbl.Columns, "email")
		assert.False(t, tbl.Columns["email"].Nullable)
		assert.True(t, tbl.Columns["id"].Identity)

		uq := findConstraint(tbl, schema.UniqueConstraint)
		require.NotNil(t, uq)
		assert.Equal(t, []string{"email"}, uq.Columns)

		ck := findConstraint(tbl, schema.CheckConstraint)
		require.NotNil(t, ck)
		assert.NotEmpty(t, ck.CheckExpression)

		fk := findConstraint(tbl, schema.ForeignKeyConstraint)
		require.NotNil(t, fk)
		assert.Equal(t, []string{"referrer_id"}, fk.Columns)
		assert.Equal(t, "user", fk.ReferencedTable)
		assert.Equal(t, []string{"id"}, fk.ReferencedColumns)
		assert.Equal(t, "SET NULL", fk.OnDelete)
		assert.Equal(t, "CASCADE", fk.OnUpdate)

		require.Contains(t, tbl.Indexes, "ix_user_status")
		assert.False(t, tbl.Indexes["ix_user_status"].Unique)

		require.Contains(t, s.Views, "active_users")
	})
}

func findConstraint(t *schema.Table, kind schema.ConstraintKind) *schema.Constraint {
	for _, c := range t.Constraints {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

func mustExec(t *testing.T, conn *sql.DB, query string) {
	t.Helper()
	_, err := conn.Exec(query)
	require.NoError(t, err)
}
