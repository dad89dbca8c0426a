// SPDX-License-Identifier: Apache-2.0

// Package oracle implements emit.Emitter for Oracle, quoting identifiers
// with double quotes.
package oracle

import (
	"fmt"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/emit"
)

type emitter struct {
	emit.Base
}

func init() {
	emit.Register(dialect.Oracle, emitter{
		Base: emit.NewBase(dialect.Oracle.DefaultSchema(), quote, false),
	})
}

func quote(name string) string {
	return `"` + name + `"`
}

func (e emitter) PreDeploymentValidation() string {
	return "SELECT * FROM v$version WHERE banner LIKE 'Oracle%';"
}

func (e emitter) PostDeploymentValidation(schemaName string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM all_tables WHERE owner = '%s';", schemaName)
}

func (e emitter) BackupStatement(databaseName string) string {
	return fmt.Sprintf("-- Back up %q out-of-band with RMAN or expdp before proceeding.", databaseName)
}
