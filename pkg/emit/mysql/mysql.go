// SPDX-License-Identifier: Apache-2.0

// Package mysql implements emit.Emitter for MySQL, quoting identifiers with
// backticks.
package mysql

import (
	"fmt"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/emit"
)

type emitter struct {
	emit.Base
}

func init() {
	emit.Register(dialect.MySQL, emitter{
		Base: emit.NewBase(dialect.MySQL.DefaultSchema(), quote, false),
	})
}

func quote(name string) string {
	return "`" + name + "`"
}

func (e emitter) PreDeploymentValidation() string {
	return "SELECT VERSION(), DATABASE();"
}

func (e emitter) PostDeploymentValidation(schemaName string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = '%s';", schemaName)
}

func (e emitter) BackupStatement(databaseName string) string {
	return fmt.Sprintf("-- Back up `%s` out-of-band with mysqldump before proceeding.", databaseName)
}
