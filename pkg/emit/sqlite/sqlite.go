// SPDX-License-Identifier: Apache-2.0

// Package sqlite implements emit.Emitter for SQLite, quoting identifiers
// with square brackets.
package sqlite

import (
	"fmt"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/emit"
)

type emitter struct {
	emit.Base
}

func init() {
	emit.Register(dialect.SQLite, emitter{
		Base: emit.NewBase(dialect.SQLite.DefaultSchema(), quote, false),
	})
}

func quote(name string) string {
	return "[" + name + "]"
}

func (e emitter) PreDeploymentValidation() string {
	return "SELECT sqlite_version();"
}

func (e emitter) PostDeploymentValidation(schemaName string) string {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table';"
}

func (e emitter) BackupStatement(databaseName string) string {
	return fmt.Sprintf("-- Back up %q out-of-band by copying the database file before proceeding.", databaseName)
}
