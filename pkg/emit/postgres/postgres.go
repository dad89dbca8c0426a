// SPDX-License-Identifier: Apache-2.0

// Package postgres implements emit.Emitter for PostgreSQL, quoting
// identifiers with double quotes.
package postgres

import (
	"fmt"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/emit"
)

type emitter struct {
	emit.Base
}

func init() {
	emit.Register(dialect.Postgres, emitter{
		Base: emit.NewBase(dialect.Postgres.DefaultSchema(), quote, false),
	})
}

func quote(name string) string {
	return `"` + name + `"`
}

func (e emitter) PreDeploymentValidation() string {
	return "SELECT version(), current_database();"
}

func (e emitter) PostDeploymentValidation(schemaName string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = '%s';", schemaName)
}

func (e emitter) BackupStatement(databaseName string) string {
	return fmt.Sprintf("-- Back up %q out-of-band with pg_dump before proceeding.", databaseName)
}
