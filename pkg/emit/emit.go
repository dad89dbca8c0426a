// SPDX-License-Identifier: Apache-2.0

// Package emit is the SQL Emitter: per-dialect rendering of
// a diff.SchemaChange into an executable DDL statement, plus the fixed
// validation and backup statements the Phase Planner's phase 1/2/29 need.
//
// Like pkg/typemap, dialect variants self-register at init time instead of
// being dispatched through a switch statement in this package, which would
// require importing the dialect subpackages and create an import cycle
// (they import this package for the Emitter interface).
package emit

import (
	"fmt"

	"github.com/xataio/driftplan/pkg/dialect"
	"github.com/xataio/driftplan/pkg/diff"
	"github.com/xataio/driftplan/pkg/schema"
)

// Emitter renders schema objects and changes to dialect-specific SQL.
type Emitter interface {
	// QuoteIdentifier quotes a single identifier (not dotted) for this dialect.
	QuoteIdentifier(name string) string

	// QualifiedName renders schemaName.name, omitting the schema prefix when
	// it is empty or equal to the dialect's default schema.
	QualifiedName(schemaName, name string) string

	// Statement renders one SchemaChange as an executable DDL statement.
	// cur and tgt are the full current/target schemas, used to look up the
	// table/constraint/index/column/view/procedure/function definitions a
	// bare diff.SchemaChange doesn't carry.
	Statement(c diff.SchemaChange, cur, tgt *schema.Schema) (string, error)

	// PreDeploymentValidation is the phase-1 statement: dialect version plus
	// current database/schema name.
	PreDeploymentValidation() string
	// PostDeploymentValidation is the phase-29 statement: a table count.
	PostDeploymentValidation(schemaName string) string
	// BackupStatement is the phase-2 statement. Dialects with a native
	// backup command emit it; others emit a `--` comment naming the
	// recommended out-of-band tool.
	BackupStatement(databaseName string) string
}

var emitters = make(map[dialect.Name]Emitter)

// Register installs e as the Emitter for d. Called from each dialect
// subpackage's init(). Panics on double registration, which would indicate
// two subpackages claiming the same dialect.
func Register(d dialect.Name, e Emitter) {
	if _, exists := emitters[d]; exists {
		panic(fmt.Sprintf("emit: dialect %s already registered", d))
	}
	emitters[d] = e
}

// New returns the Emitter registered for d.
func New(d dialect.Name) (Emitter, error) {
	e, ok := emitters[d]
	if !ok {
		return nil, dialect.UnsupportedDialectError{Dialect: d}
	}
	return e, nil
}
