// SPDX-License-Identifier: Apache-2.0

// Package sqlserver implements emit.Emitter for SQL Server, quoting
// identifiers with square brackets.
package sqlserver

import (
	"fmt"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/emit"
)

type emitter struct {
	emit.Base
}

func init() {
	emit.Register(dialect.SQLServer, emitter{
		Base: emit.NewBase(dialect.SQLServer.DefaultSchema(), quote, true),
	})
}

func quote(name string) string {
	return "[" + name + "]"
}

func (e emitter) PreDeploymentValidation() string {
	return "SELECT @@VERSION, DB_NAME();"
}

func (e emitter) PostDeploymentValidation(schemaName string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = '%s';", schemaName)
}

func (e emitter) BackupStatement(databaseName string) string {
	return fmt.Sprintf("BACKUP DATABASE [%s] TO DISK = 'NUL';", databaseName)
}
